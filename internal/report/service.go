// Package report は蔵書・貸出の読み取り専用の集計レポートを提供する。
// 集計はすべてスナップショット読み取りであり、貸出の不変条件には関与しない。
package report

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/hitoshi/toshokan/internal/availability"
	"github.com/hitoshi/toshokan/internal/model"
	"github.com/hitoshi/toshokan/internal/repository"
)

const (
	// DefaultTopAuthorsLimit は総ページ数上位著者のデフォルト件数。
	DefaultTopAuthorsLimit = 5
	// DefaultPopularBookMinLoans は人気書籍とみなす最低貸出数。
	DefaultPopularBookMinLoans = 3
	// PagesPerHour は読了時間の推定に使うページ/時の読書速度。
	PagesPerHour = 50

	// 「最近の大著」レポートの既定条件
	recentBooksAfterYear = 2010
	recentBooksMinPages  = 300
)

// BookReportRow は蔵書の貸出統計に読了時間の推定を加えたレポート行。
type BookReportRow struct {
	repository.BookLoanStats
	EstimatedReadingHours float64
}

// PopularBookRow は人気書籍のレポート行。
type PopularBookRow struct {
	repository.PopularBook
	EstimatedReadingHours float64
}

// LibraryStatistics は図書館全体の統計レポート。
type LibraryStatistics struct {
	RecentThickBooksCount int
	RecentThickBooks      []*model.Book
	AuthorsStatistics     []repository.AuthorWithBookCount
	TopAuthors            []repository.AuthorWithTotalPages
	OverdueReaders        []*model.Reader
	BooksAvailability     map[model.BookStatus]int
}

// Service はレポートのサービス層。
type Service struct {
	reportRepo repository.ReportRepository
	bookRepo   repository.BookRepository

	// Now は現在時刻を返す関数。テストで差し替えられる。
	Now func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(reportRepo repository.ReportRepository, bookRepo repository.BookRepository) *Service {
	return &Service{
		reportRepo: reportRepo,
		bookRepo:   bookRepo,
		Now:        time.Now,
	}
}

// AuthorsWithBookCount は各著者の蔵書数を蔵書数降順で返す。
func (s *Service) AuthorsWithBookCount(ctx context.Context) ([]repository.AuthorWithBookCount, error) {
	return s.reportRepo.AuthorsWithBookCount(ctx)
}

// TopAuthors は蔵書の総ページ数が多い著者を上位limit件返す。
// limitが0以下の場合はDefaultTopAuthorsLimitを使用する。
func (s *Service) TopAuthors(ctx context.Context, limit int) ([]repository.AuthorWithTotalPages, error) {
	if limit <= 0 {
		limit = DefaultTopAuthorsLimit
	}
	return s.reportRepo.TopAuthorsByTotalPages(ctx, limit)
}

// ReadersWithOverdueLoans は今日時点で延滞中の貸出を持つ利用者を返す。
func (s *Service) ReadersWithOverdueLoans(ctx context.Context) ([]*model.Reader, error) {
	return s.reportRepo.ReadersWithOverdueLoans(ctx, model.DateOf(s.Now()))
}

// ReadersWithActiveLoans はアクティブな貸出を持つ利用者を貸出数降順で返す。
func (s *Service) ReadersWithActiveLoans(ctx context.Context) ([]repository.ReaderWithActiveLoanCount, error) {
	return s.reportRepo.ReadersWithActiveLoans(ctx)
}

// BookLoanStatistics は各蔵書の貸出統計を読了時間の推定付きで返す。
func (s *Service) BookLoanStatistics(ctx context.Context) ([]BookReportRow, error) {
	stats, err := s.reportRepo.BookLoanStatistics(ctx, model.DateOf(s.Now()))
	if err != nil {
		return nil, fmt.Errorf("貸出統計の取得に失敗しました: %w", err)
	}

	rows := make([]BookReportRow, 0, len(stats))
	for _, stat := range stats {
		rows = append(rows, BookReportRow{
			BookLoanStats:         stat,
			EstimatedReadingHours: EstimateReadingHours(stat.Pages),
		})
	}
	return rows, nil
}

// PopularBooks は累計貸出数がminLoans以上の蔵書を貸出数降順で返す。
// minLoansが0以下の場合はDefaultPopularBookMinLoansを使用する。
func (s *Service) PopularBooks(ctx context.Context, minLoans int) ([]PopularBookRow, error) {
	if minLoans <= 0 {
		minLoans = DefaultPopularBookMinLoans
	}
	books, err := s.reportRepo.PopularBooks(ctx, minLoans)
	if err != nil {
		return nil, fmt.Errorf("人気書籍の取得に失敗しました: %w", err)
	}

	rows := make([]PopularBookRow, 0, len(books))
	for _, book := range books {
		rows = append(rows, PopularBookRow{
			PopularBook:           book,
			EstimatedReadingHours: EstimateReadingHours(book.Pages),
		})
	}
	return rows, nil
}

// LibraryStatistics は図書館全体の統計レポートを生成する。
// 各集計は同一トランザクションではなく個別に読み取るため、
// 更新と並行する場合は集計間で厳密な整合は保証されない。
func (s *Service) LibraryStatistics(ctx context.Context) (*LibraryStatistics, error) {
	today := model.DateOf(s.Now())

	recentBooks, err := s.bookRepo.ListPublishedAfter(ctx, recentBooksAfterYear, recentBooksMinPages)
	if err != nil {
		return nil, fmt.Errorf("最近の蔵書の取得に失敗しました: %w", err)
	}

	authorsStats, err := s.reportRepo.AuthorsWithBookCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("著者統計の取得に失敗しました: %w", err)
	}

	topAuthors, err := s.reportRepo.TopAuthorsByTotalPages(ctx, DefaultTopAuthorsLimit)
	if err != nil {
		return nil, fmt.Errorf("上位著者の取得に失敗しました: %w", err)
	}

	overdueReaders, err := s.reportRepo.ReadersWithOverdueLoans(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("延滞中利用者の取得に失敗しました: %w", err)
	}

	booksWithLoans, err := s.bookRepo.ListWithLoans(ctx)
	if err != nil {
		return nil, fmt.Errorf("蔵書一覧の取得に失敗しました: %w", err)
	}

	byStatus := map[model.BookStatus]int{
		model.BookStatusAvailable: 0,
		model.BookStatusOnLoan:    0,
		model.BookStatusOverdue:   0,
	}
	for _, bwl := range booksWithLoans {
		byStatus[availability.BookStatus(bwl.Loans, today)]++
	}

	return &LibraryStatistics{
		RecentThickBooksCount: len(recentBooks),
		RecentThickBooks:      recentBooks,
		AuthorsStatistics:     authorsStats,
		TopAuthors:            topAuthors,
		OverdueReaders:        overdueReaders,
		BooksAvailability:     byStatus,
	}, nil
}

// EstimateReadingHours はページ数から読了時間を推定する。
// 読書速度を毎時PagesPerHourページとし、小数第2位に丸める。
func EstimateReadingHours(pages int) float64 {
	hours := float64(pages) / PagesPerHour
	return math.Round(hours*100) / 100
}
