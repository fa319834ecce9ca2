// Package book は蔵書管理のドメインロジックを提供する。
// 蔵書のCRUDに加えて、貸出履歴から導出される貸出状態
// （available / on_loan / overdue）の問い合わせを担う。
package book

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/hitoshi/toshokan/internal/availability"
	"github.com/hitoshi/toshokan/internal/model"
	"github.com/hitoshi/toshokan/internal/repository"
)

const (
	// MinPublicationYear は受け付ける出版年の下限。グーテンベルク聖書より前の
	// 出版年は入力ミスとみなす。
	MinPublicationYear = 1450
	// MaxPublicationYear は受け付ける出版年の上限。
	MaxPublicationYear = 2100
	// ISBNLength はISBN-13の桁数。
	ISBNLength = 13
)

// Input は蔵書の作成・更新リクエスト。
type Input struct {
	Title           string
	ISBN            string
	PublicationYear int
	Pages           int
	Genre           model.Genre
	AuthorID        string
}

// WithStatus は蔵書と現在の貸出状態を結合したビュー。
type WithStatus struct {
	Book   model.Book
	Status model.BookStatus
}

// Service は蔵書管理のサービス層。
type Service struct {
	bookRepo   repository.BookRepository
	authorRepo repository.AuthorRepository
	logger     *slog.Logger

	// Now は現在時刻を返す関数。テストで固定日付を注入するために差し替えられる。
	Now func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(bookRepo repository.BookRepository, authorRepo repository.AuthorRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		bookRepo:   bookRepo,
		authorRepo: authorRepo,
		logger:     logger,
		Now:        time.Now,
	}
}

// validateInput は蔵書の作成・更新リクエストを検証する。
func validateInput(input Input) error {
	if strings.TrimSpace(input.Title) == "" {
		return model.NewInvalidFieldError("タイトルは必須です")
	}
	if !isValidISBN(input.ISBN) {
		return model.NewInvalidFieldError(fmt.Sprintf("ISBNは%d桁の数字で指定してください", ISBNLength))
	}
	if input.PublicationYear < MinPublicationYear || input.PublicationYear > MaxPublicationYear {
		return model.NewInvalidFieldError(fmt.Sprintf("出版年は%d〜%dの範囲で指定してください", MinPublicationYear, MaxPublicationYear))
	}
	if input.Pages <= 0 {
		return model.NewInvalidFieldError("ページ数は1以上で指定してください")
	}
	if !model.IsValidGenre(input.Genre) {
		return model.NewInvalidFieldError(fmt.Sprintf("未定義のジャンルです: %s", input.Genre))
	}
	if strings.TrimSpace(input.AuthorID) == "" {
		return model.NewInvalidFieldError("著者IDは必須です")
	}
	return nil
}

// isValidISBN はISBN-13形式（13桁の数字）かどうかを返す。
func isValidISBN(isbn string) bool {
	if len(isbn) != ISBNLength {
		return false
	}
	for _, r := range isbn {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Create は蔵書を新規登録する。
// 著者が存在しない場合はAUTHOR_NOT_FOUND、
// ISBNが重複する場合はDUPLICATE_ISBNエラーを返す。
func (s *Service) Create(ctx context.Context, input Input) (*model.Book, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	author, err := s.authorRepo.FindByID(ctx, input.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("著者の取得に失敗しました: %w", err)
	}
	if author == nil {
		return nil, model.NewAuthorNotFoundError(input.AuthorID)
	}

	now := s.Now()
	book := &model.Book{
		ID:              uuid.New().String(),
		Title:           strings.TrimSpace(input.Title),
		ISBN:            input.ISBN,
		PublicationYear: input.PublicationYear,
		Pages:           input.Pages,
		Genre:           input.Genre,
		AuthorID:        input.AuthorID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.bookRepo.Create(ctx, book); err != nil {
		if _, ok := err.(*model.APIError); ok {
			return nil, err
		}
		return nil, fmt.Errorf("蔵書の作成に失敗しました: %w", err)
	}
	return book, nil
}

// Get は指定IDの蔵書を返す。見つからない場合はBOOK_NOT_FOUNDエラーを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.Book, error) {
	book, err := s.bookRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("蔵書の取得に失敗しました: %w", err)
	}
	if book == nil {
		return nil, model.NewBookNotFoundError(id)
	}
	return book, nil
}

// List は全蔵書を返す。
func (s *Service) List(ctx context.Context) ([]*model.Book, error) {
	return s.bookRepo.List(ctx)
}

// ListPublishedAfter は指定年より後に出版され、かつページ数がminPagesを
// 超える蔵書を返す。
func (s *Service) ListPublishedAfter(ctx context.Context, year, minPages int) ([]*model.Book, error) {
	return s.bookRepo.ListPublishedAfter(ctx, year, minPages)
}

// Update は蔵書情報を更新する。
func (s *Service) Update(ctx context.Context, id string, input Input) (*model.Book, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	book, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	author, err := s.authorRepo.FindByID(ctx, input.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("著者の取得に失敗しました: %w", err)
	}
	if author == nil {
		return nil, model.NewAuthorNotFoundError(input.AuthorID)
	}

	book.Title = strings.TrimSpace(input.Title)
	book.ISBN = input.ISBN
	book.PublicationYear = input.PublicationYear
	book.Pages = input.Pages
	book.Genre = input.Genre
	book.AuthorID = input.AuthorID
	book.UpdatedAt = s.Now()
	if err := s.bookRepo.Update(ctx, book); err != nil {
		if _, ok := err.(*model.APIError); ok {
			return nil, err
		}
		return nil, fmt.Errorf("蔵書の更新に失敗しました: %w", err)
	}
	return book, nil
}

// Delete は蔵書を削除する。関連する貸出もCASCADE削除される。
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.bookRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("蔵書の削除に失敗しました: %w", err)
	}
	return nil
}

// GetStatus は蔵書の現在の貸出状態を返す。状態は保存されず、
// 貸出履歴と今日の日付から毎回導出される。
func (s *Service) GetStatus(ctx context.Context, id string) (*WithStatus, error) {
	bwl, err := s.bookRepo.FindWithLoans(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("蔵書の取得に失敗しました: %w", err)
	}
	if bwl == nil {
		return nil, model.NewBookNotFoundError(id)
	}

	today := model.DateOf(s.Now())
	s.warnIfInconsistent(*bwl)
	return &WithStatus{
		Book:   bwl.Book,
		Status: availability.BookStatus(bwl.Loans, today),
	}, nil
}

// ListWithStatus は全蔵書を貸出状態付きで返す。
func (s *Service) ListWithStatus(ctx context.Context) ([]WithStatus, error) {
	books, err := s.bookRepo.ListWithLoans(ctx)
	if err != nil {
		return nil, fmt.Errorf("蔵書一覧の取得に失敗しました: %w", err)
	}

	today := model.DateOf(s.Now())
	results := make([]WithStatus, 0, len(books))
	for _, bwl := range books {
		s.warnIfInconsistent(bwl)
		results = append(results, WithStatus{
			Book:   bwl.Book,
			Status: availability.BookStatus(bwl.Loans, today),
		})
	}
	return results, nil
}

// ListAvailable は貸出可能な蔵書の一覧を返す。
func (s *Service) ListAvailable(ctx context.Context) ([]model.Book, error) {
	books, err := s.bookRepo.ListWithLoans(ctx)
	if err != nil {
		return nil, fmt.Errorf("蔵書一覧の取得に失敗しました: %w", err)
	}
	return availability.AvailableBooks(books, model.DateOf(s.Now())), nil
}

// ListOnLoan は貸出中（延滞中を含む）の蔵書の一覧を返す。
func (s *Service) ListOnLoan(ctx context.Context) ([]model.Book, error) {
	books, err := s.bookRepo.ListWithLoans(ctx)
	if err != nil {
		return nil, fmt.Errorf("蔵書一覧の取得に失敗しました: %w", err)
	}
	return availability.OnLoanBooks(books, model.DateOf(s.Now())), nil
}

// warnIfInconsistent は同一蔵書に複数のアクティブな貸出が存在する場合に
// 警告ログを出力する。部分一意インデックスにより通常は起こり得ない状態で、
// 検出した場合もここでは修復せず記録のみ行う。
func (s *Service) warnIfInconsistent(bwl model.BookWithLoans) {
	if _, multiple := availability.ActiveLoan(bwl.Loans); multiple {
		s.logger.Warn("同一蔵書に複数のアクティブな貸出を検出しました",
			"book_id", bwl.Book.ID,
			"title", bwl.Book.Title,
		)
	}
}
