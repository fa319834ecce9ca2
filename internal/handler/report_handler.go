package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/toshokan/internal/model"
	"github.com/hitoshi/toshokan/internal/report"
	"github.com/hitoshi/toshokan/internal/repository"
)

// ReportServiceInterface はレポートハンドラーが必要とするサービスインターフェース。
type ReportServiceInterface interface {
	AuthorsWithBookCount(ctx context.Context) ([]repository.AuthorWithBookCount, error)
	TopAuthors(ctx context.Context, limit int) ([]repository.AuthorWithTotalPages, error)
	ReadersWithOverdueLoans(ctx context.Context) ([]*model.Reader, error)
	ReadersWithActiveLoans(ctx context.Context) ([]repository.ReaderWithActiveLoanCount, error)
	BookLoanStatistics(ctx context.Context) ([]report.BookReportRow, error)
	PopularBooks(ctx context.Context, minLoans int) ([]report.PopularBookRow, error)
	LibraryStatistics(ctx context.Context) (*report.LibraryStatistics, error)
}

// ReportHandler は集計レポートのHTTPハンドラー。
type ReportHandler struct {
	service ReportServiceInterface
}

// NewReportHandler はReportHandlerを生成する。
func NewReportHandler(service ReportServiceInterface) *ReportHandler {
	return &ReportHandler{service: service}
}

// authorStatsResponse は著者と蔵書数のAPIレスポンス。
type authorStatsResponse struct {
	authorResponse
	BooksCount int `json:"books_count"`
}

// topAuthorResponse は著者と総ページ数のAPIレスポンス。
type topAuthorResponse struct {
	authorResponse
	TotalPages int `json:"total_pages"`
}

// readerActiveLoansResponse は利用者とアクティブな貸出数のAPIレスポンス。
type readerActiveLoansResponse struct {
	readerResponse
	ActiveLoansCount int `json:"active_loans_count"`
}

// bookStatsResponse は蔵書の貸出統計のAPIレスポンス。
type bookStatsResponse struct {
	bookResponse
	TotalLoans            int     `json:"total_loans"`
	ActiveLoans           int     `json:"active_loans"`
	OverdueLoans          int     `json:"overdue_loans"`
	EstimatedReadingHours float64 `json:"estimated_reading_hours"`
}

// popularBookResponse は人気書籍のAPIレスポンス。
type popularBookResponse struct {
	bookResponse
	LoanCount             int     `json:"loan_count"`
	EstimatedReadingHours float64 `json:"estimated_reading_hours"`
}

// libraryStatisticsResponse は図書館全体の統計レポートのAPIレスポンス。
type libraryStatisticsResponse struct {
	RecentThickBooksCount int                   `json:"recent_thick_books_count"`
	RecentThickBooks      []bookResponse        `json:"recent_thick_books"`
	AuthorsStatistics     []authorStatsResponse `json:"authors_statistics"`
	TopAuthors            []topAuthorResponse   `json:"top_authors"`
	OverdueReaders        []readerResponse      `json:"overdue_readers"`
	BooksAvailability     map[string]int        `json:"books_availability"`
}

// AuthorsStatistics は各著者の蔵書数を取得する。
// GET /api/authors/statistics
func (h *ReportHandler) AuthorsStatistics(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.AuthorsWithBookCount(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAuthorStatsResponses(rows))
}

// TopAuthors は蔵書の総ページ数が多い著者を取得する。
// GET /api/authors/top?limit=5
func (h *ReportHandler) TopAuthors(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.TopAuthors(r.Context(), queryInt(r, "limit", 0))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTopAuthorResponses(rows))
}

// OverdueReaders は延滞中の貸出を持つ利用者を取得する。
// GET /api/readers/overdue
func (h *ReportHandler) OverdueReaders(w http.ResponseWriter, r *http.Request) {
	readers, err := h.service.ReadersWithOverdueLoans(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]readerResponse, len(readers))
	for i, rd := range readers {
		results[i] = toReaderResponse(rd)
	}
	writeJSON(w, http.StatusOK, results)
}

// ReadersWithActiveLoans はアクティブな貸出を持つ利用者を取得する。
// GET /api/readers/with-active-loans
func (h *ReportHandler) ReadersWithActiveLoans(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.ReadersWithActiveLoans(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]readerActiveLoansResponse, len(rows))
	for i := range rows {
		results[i] = readerActiveLoansResponse{
			readerResponse:   toReaderResponse(&rows[i].Reader),
			ActiveLoansCount: rows[i].ActiveLoansCount,
		}
	}
	writeJSON(w, http.StatusOK, results)
}

// BooksStatistics は各蔵書の貸出統計を取得する。
// GET /api/books/statistics
func (h *ReportHandler) BooksStatistics(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.BookLoanStatistics(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]bookStatsResponse, len(rows))
	for i := range rows {
		results[i] = bookStatsResponse{
			bookResponse:          toBookResponse(&rows[i].Book),
			TotalLoans:            rows[i].TotalLoans,
			ActiveLoans:           rows[i].ActiveLoans,
			OverdueLoans:          rows[i].OverdueLoans,
			EstimatedReadingHours: rows[i].EstimatedReadingHours,
		}
	}
	writeJSON(w, http.StatusOK, results)
}

// PopularBooks は累計貸出数の多い蔵書を取得する。
// GET /api/books/popular?min_loans=3
func (h *ReportHandler) PopularBooks(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.PopularBooks(r.Context(), queryInt(r, "min_loans", 0))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]popularBookResponse, len(rows))
	for i := range rows {
		results[i] = popularBookResponse{
			bookResponse:          toBookResponse(&rows[i].Book),
			LoanCount:             rows[i].LoanCount,
			EstimatedReadingHours: rows[i].EstimatedReadingHours,
		}
	}
	writeJSON(w, http.StatusOK, results)
}

// LibraryStatistics は図書館全体の統計レポートを取得する。
// GET /api/reports/library
func (h *ReportHandler) LibraryStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.LibraryStatistics(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	recentBooks := make([]bookResponse, len(stats.RecentThickBooks))
	for i, b := range stats.RecentThickBooks {
		recentBooks[i] = toBookResponse(b)
	}

	overdueReaders := make([]readerResponse, len(stats.OverdueReaders))
	for i, rd := range stats.OverdueReaders {
		overdueReaders[i] = toReaderResponse(rd)
	}

	availability := make(map[string]int, len(stats.BooksAvailability))
	for status, count := range stats.BooksAvailability {
		availability[string(status)] = count
	}

	writeJSON(w, http.StatusOK, libraryStatisticsResponse{
		RecentThickBooksCount: stats.RecentThickBooksCount,
		RecentThickBooks:      recentBooks,
		AuthorsStatistics:     toAuthorStatsResponses(stats.AuthorsStatistics),
		TopAuthors:            toTopAuthorResponses(stats.TopAuthors),
		OverdueReaders:        overdueReaders,
		BooksAvailability:     availability,
	})
}

func toAuthorStatsResponses(rows []repository.AuthorWithBookCount) []authorStatsResponse {
	results := make([]authorStatsResponse, len(rows))
	for i := range rows {
		results[i] = authorStatsResponse{
			authorResponse: toAuthorResponse(&rows[i].Author),
			BooksCount:     rows[i].BooksCount,
		}
	}
	return results
}

func toTopAuthorResponses(rows []repository.AuthorWithTotalPages) []topAuthorResponse {
	results := make([]topAuthorResponse, len(rows))
	for i := range rows {
		results[i] = topAuthorResponse{
			authorResponse: toAuthorResponse(&rows[i].Author),
			TotalPages:     rows[i].TotalPages,
		}
	}
	return results
}
