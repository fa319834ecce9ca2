// Package loan は貸出ライフサイクルのドメインロジックを提供する。
// 貸出はACTIVE（未返却）からRETURNED（返却済み）への一方向の状態遷移のみを持ち、
// このパッケージのServiceがその遷移を司る唯一の場所となる。
package loan

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/toshokan/internal/model"
	"github.com/hitoshi/toshokan/internal/repository"
)

// DefaultMaxLoanDays は貸出期間のデフォルト上限日数。
const DefaultMaxLoanDays = 90

// MetricsRecorder は貸出操作のメトリクス記録のインターフェース。
type MetricsRecorder interface {
	// RecordLoanIssued は貸出成立を記録する。
	RecordLoanIssued()
	// RecordLoanReturned は返却成立を記録する。
	RecordLoanReturned()
	// RecordIssueConflict は二重貸出の拒否を記録する。
	RecordIssueConflict()
}

// Service は貸出ライフサイクルのサービス層。
// 貸出（Issue）と返却（Return）の事前条件をすべて検証してから永続化する。
// 事前条件に違反した場合は何も永続化せず、型付きエラーを返す。
type Service struct {
	loanRepo   repository.LoanRepository
	bookRepo   repository.BookRepository
	readerRepo repository.ReaderRepository
	metrics    MetricsRecorder
	maxDays    int

	// Now は現在時刻を返す関数。テストで固定日付を注入するために差し替えられる。
	Now func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
// maxDaysが0以下の場合はDefaultMaxLoanDaysを使用する。
// metricsはnilを許容する。
func NewService(
	loanRepo repository.LoanRepository,
	bookRepo repository.BookRepository,
	readerRepo repository.ReaderRepository,
	metrics MetricsRecorder,
	maxDays int,
) *Service {
	if maxDays <= 0 {
		maxDays = DefaultMaxLoanDays
	}
	return &Service{
		loanRepo:   loanRepo,
		bookRepo:   bookRepo,
		readerRepo: readerRepo,
		metrics:    metrics,
		maxDays:    maxDays,
		Now:        time.Now,
	}
}

// Issue は蔵書を利用者に貸し出し、新しいACTIVEな貸出を作成する。
//
// 事前条件（すべて満たされるまで何も永続化しない）:
//   - 蔵書と利用者が存在すること
//   - 蔵書にアクティブな貸出が存在しないこと（BOOK_ALREADY_ON_LOAN）
//   - 返却予定日が今日より後であること（PLANNED_RETURN_NOT_FUTURE）
//   - 返却予定日が今日からmaxDays日以内であること（LOAN_PERIOD_EXCEEDED）
//
// 事前チェックの後にも部分一意インデックスがINSERT時点で二重貸出を拒否するため、
// 並行するIssue呼び出しが両方成功することはない。
func (s *Service) Issue(ctx context.Context, bookID, readerID string, plannedReturn time.Time) (*model.Loan, error) {
	today := model.DateOf(s.Now())

	book, err := s.bookRepo.FindByID(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("蔵書の取得に失敗しました: %w", err)
	}
	if book == nil {
		return nil, model.NewBookNotFoundError(bookID)
	}

	reader, err := s.readerRepo.FindByID(ctx, readerID)
	if err != nil {
		return nil, fmt.Errorf("利用者の取得に失敗しました: %w", err)
	}
	if reader == nil {
		return nil, model.NewReaderNotFoundError(readerID)
	}

	active, err := s.loanRepo.FindActiveByBook(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("アクティブな貸出の確認に失敗しました: %w", err)
	}
	if active != nil {
		s.recordIssueConflict()
		return nil, model.NewBookAlreadyOnLoanError(bookID)
	}

	planned := model.DateOf(plannedReturn)
	if !planned.After(today) {
		return nil, model.NewPlannedReturnNotFutureError()
	}
	if planned.After(today.AddDate(0, 0, s.maxDays)) {
		return nil, model.NewLoanPeriodExceededError(s.maxDays)
	}

	now := s.Now()
	loan := &model.Loan{
		ID:                uuid.New().String(),
		BookID:            bookID,
		ReaderID:          readerID,
		IssueDate:         today,
		PlannedReturnDate: planned,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.loanRepo.CreateActive(ctx, loan); err != nil {
		// 事前チェックとINSERTの間に他のリクエストが貸出を成立させた場合、
		// 一意制約違反がBOOK_ALREADY_ON_LOANとして返ってくる
		if apiErr, ok := err.(*model.APIError); ok && apiErr.Code == model.ErrCodeBookAlreadyOnLoan {
			s.recordIssueConflict()
		}
		return nil, err
	}

	s.recordLoanIssued()
	return loan, nil
}

// Return は貸出に返却日を記録し、RETURNED状態へ遷移させる。
// actualReturnがnilの場合は今日の日付を返却日とする。
//
// 事前条件:
//   - 貸出が存在し、ACTIVEであること（LOAN_ALREADY_RETURNED）
//   - 返却日が今日以前であること（RETURN_DATE_IN_FUTURE）
//   - 返却日が貸出日以降であること（RETURN_DATE_BEFORE_ISSUE)
//
// RETURNEDは終端状態であり、2回目のReturnは常にLOAN_ALREADY_RETURNEDで失敗する。
func (s *Service) Return(ctx context.Context, loanID string, actualReturn *time.Time) (*model.Loan, error) {
	today := model.DateOf(s.Now())

	loan, err := s.loanRepo.FindByID(ctx, loanID)
	if err != nil {
		return nil, fmt.Errorf("貸出の取得に失敗しました: %w", err)
	}
	if loan == nil {
		return nil, model.NewLoanNotFoundError(loanID)
	}
	if loan.ActualReturnDate != nil {
		return nil, model.NewLoanAlreadyReturnedError(loanID)
	}

	returnDate := today
	if actualReturn != nil {
		returnDate = model.DateOf(*actualReturn)
	}

	if returnDate.After(today) {
		return nil, model.NewReturnDateInFutureError()
	}
	if returnDate.Before(model.DateOf(loan.IssueDate)) {
		return nil, model.NewReturnDateBeforeIssueError()
	}

	// ガード付きUPDATE: actual_return_dateがNULLの行のみ更新されるため、
	// 並行する返却リクエストは片方だけが成功する
	updated, err := s.loanRepo.MarkReturned(ctx, loanID, returnDate)
	if err != nil {
		return nil, fmt.Errorf("返却の記録に失敗しました: %w", err)
	}
	if !updated {
		return nil, model.NewLoanAlreadyReturnedError(loanID)
	}

	loan.ActualReturnDate = &returnDate
	s.recordLoanReturned()
	return loan, nil
}

// Get は指定IDの貸出を返す。見つからない場合はLOAN_NOT_FOUNDエラーを返す。
func (s *Service) Get(ctx context.Context, loanID string) (*model.Loan, error) {
	loan, err := s.loanRepo.FindByID(ctx, loanID)
	if err != nil {
		return nil, fmt.Errorf("貸出の取得に失敗しました: %w", err)
	}
	if loan == nil {
		return nil, model.NewLoanNotFoundError(loanID)
	}
	return loan, nil
}

// List は全貸出を返す。
func (s *Service) List(ctx context.Context) ([]*model.Loan, error) {
	return s.loanRepo.List(ctx)
}

// ListActive はアクティブな貸出の一覧を返す。
func (s *Service) ListActive(ctx context.Context) ([]*model.Loan, error) {
	return s.loanRepo.ListActive(ctx)
}

// ListByBook は指定蔵書の貸出履歴を貸出日降順で返す。
// 蔵書が存在しない場合はBOOK_NOT_FOUNDエラーを返す。
func (s *Service) ListByBook(ctx context.Context, bookID string) ([]*model.Loan, error) {
	book, err := s.bookRepo.FindByID(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("蔵書の取得に失敗しました: %w", err)
	}
	if book == nil {
		return nil, model.NewBookNotFoundError(bookID)
	}
	return s.loanRepo.ListByBook(ctx, bookID)
}

// ListOverdue は今日時点で延滞中の貸出の一覧を返す。
func (s *Service) ListOverdue(ctx context.Context) ([]*model.Loan, error) {
	return s.loanRepo.ListOverdue(ctx, model.DateOf(s.Now()))
}

func (s *Service) recordLoanIssued() {
	if s.metrics != nil {
		s.metrics.RecordLoanIssued()
	}
}

func (s *Service) recordLoanReturned() {
	if s.metrics != nil {
		s.metrics.RecordLoanReturned()
	}
}

func (s *Service) recordIssueConflict() {
	if s.metrics != nil {
		s.metrics.RecordIssueConflict()
	}
}
