package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/toshokan/internal/model"
	"github.com/hitoshi/toshokan/internal/report"
	"github.com/hitoshi/toshokan/internal/repository"
)

// --- モック定義 ---

// mockReportService はReportServiceInterfaceのモック実装。
type mockReportService struct {
	authorsWithBookCountFn    func(ctx context.Context) ([]repository.AuthorWithBookCount, error)
	topAuthorsFn              func(ctx context.Context, limit int) ([]repository.AuthorWithTotalPages, error)
	readersWithOverdueLoansFn func(ctx context.Context) ([]*model.Reader, error)
	readersWithActiveLoansFn  func(ctx context.Context) ([]repository.ReaderWithActiveLoanCount, error)
	bookLoanStatisticsFn      func(ctx context.Context) ([]report.BookReportRow, error)
	popularBooksFn            func(ctx context.Context, minLoans int) ([]report.PopularBookRow, error)
	libraryStatisticsFn       func(ctx context.Context) (*report.LibraryStatistics, error)
}

func (m *mockReportService) AuthorsWithBookCount(ctx context.Context) ([]repository.AuthorWithBookCount, error) {
	if m.authorsWithBookCountFn != nil {
		return m.authorsWithBookCountFn(ctx)
	}
	return nil, nil
}

func (m *mockReportService) TopAuthors(ctx context.Context, limit int) ([]repository.AuthorWithTotalPages, error) {
	if m.topAuthorsFn != nil {
		return m.topAuthorsFn(ctx, limit)
	}
	return nil, nil
}

func (m *mockReportService) ReadersWithOverdueLoans(ctx context.Context) ([]*model.Reader, error) {
	if m.readersWithOverdueLoansFn != nil {
		return m.readersWithOverdueLoansFn(ctx)
	}
	return nil, nil
}

func (m *mockReportService) ReadersWithActiveLoans(ctx context.Context) ([]repository.ReaderWithActiveLoanCount, error) {
	if m.readersWithActiveLoansFn != nil {
		return m.readersWithActiveLoansFn(ctx)
	}
	return nil, nil
}

func (m *mockReportService) BookLoanStatistics(ctx context.Context) ([]report.BookReportRow, error) {
	if m.bookLoanStatisticsFn != nil {
		return m.bookLoanStatisticsFn(ctx)
	}
	return nil, nil
}

func (m *mockReportService) PopularBooks(ctx context.Context, minLoans int) ([]report.PopularBookRow, error) {
	if m.popularBooksFn != nil {
		return m.popularBooksFn(ctx, minLoans)
	}
	return nil, nil
}

func (m *mockReportService) LibraryStatistics(ctx context.Context) (*report.LibraryStatistics, error) {
	if m.libraryStatisticsFn != nil {
		return m.libraryStatisticsFn(ctx)
	}
	return &report.LibraryStatistics{}, nil
}

// --- GET /api/authors/statistics テスト ---

func TestReportHandler_AuthorsStatistics_Success(t *testing.T) {
	svc := &mockReportService{
		authorsWithBookCountFn: func(ctx context.Context) ([]repository.AuthorWithBookCount, error) {
			return []repository.AuthorWithBookCount{
				{Author: model.Author{ID: "author-1", Name: "夏目漱石"}, BooksCount: 3},
			}, nil
		},
	}
	h := NewReportHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/authors/statistics", nil)
	w := httptest.NewRecorder()

	h.AuthorsStatistics(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var result []map[string]interface{}
	decodeJSONBody(t, w, &result)
	if len(result) != 1 {
		t.Fatalf("result length = %d, want 1", len(result))
	}
	if result[0]["name"] != "夏目漱石" {
		t.Errorf("name = %v, want %q", result[0]["name"], "夏目漱石")
	}
	if int(result[0]["books_count"].(float64)) != 3 {
		t.Errorf("books_count = %v, want 3", result[0]["books_count"])
	}
}

// --- GET /api/authors/top テスト ---

func TestReportHandler_TopAuthors_PassesLimit(t *testing.T) {
	svc := &mockReportService{
		topAuthorsFn: func(ctx context.Context, limit int) ([]repository.AuthorWithTotalPages, error) {
			if limit != 3 {
				t.Errorf("limit = %d, want 3", limit)
			}
			return []repository.AuthorWithTotalPages{
				{Author: model.Author{ID: "author-1"}, TotalPages: 1200},
			}, nil
		},
	}
	h := NewReportHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/authors/top?limit=3", nil)
	w := httptest.NewRecorder()

	h.TopAuthors(w, req)

	var result []map[string]interface{}
	decodeJSONBody(t, w, &result)
	if int(result[0]["total_pages"].(float64)) != 1200 {
		t.Errorf("total_pages = %v, want 1200", result[0]["total_pages"])
	}
}

func TestReportHandler_TopAuthors_DefaultLimitDelegated(t *testing.T) {
	svc := &mockReportService{
		topAuthorsFn: func(ctx context.Context, limit int) ([]repository.AuthorWithTotalPages, error) {
			// limit未指定時は0を渡し、デフォルト値の決定はサービス層に委ねる
			if limit != 0 {
				t.Errorf("limit = %d, want 0", limit)
			}
			return nil, nil
		},
	}
	h := NewReportHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/authors/top", nil)
	w := httptest.NewRecorder()

	h.TopAuthors(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

// --- GET /api/books/statistics テスト ---

func TestReportHandler_BooksStatistics_Success(t *testing.T) {
	svc := &mockReportService{
		bookLoanStatisticsFn: func(ctx context.Context) ([]report.BookReportRow, error) {
			return []report.BookReportRow{
				{
					BookLoanStats: repository.BookLoanStats{
						Book:         model.Book{ID: "book-1", Pages: 320},
						TotalLoans:   5,
						ActiveLoans:  1,
						OverdueLoans: 1,
					},
					EstimatedReadingHours: 6.4,
				},
			}, nil
		},
	}
	h := NewReportHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/books/statistics", nil)
	w := httptest.NewRecorder()

	h.BooksStatistics(w, req)

	var result []map[string]interface{}
	decodeJSONBody(t, w, &result)
	if len(result) != 1 {
		t.Fatalf("result length = %d, want 1", len(result))
	}
	if int(result[0]["total_loans"].(float64)) != 5 {
		t.Errorf("total_loans = %v, want 5", result[0]["total_loans"])
	}
	if result[0]["estimated_reading_hours"].(float64) != 6.4 {
		t.Errorf("estimated_reading_hours = %v, want 6.4", result[0]["estimated_reading_hours"])
	}
}

// --- GET /api/books/popular テスト ---

func TestReportHandler_PopularBooks_Success(t *testing.T) {
	svc := &mockReportService{
		popularBooksFn: func(ctx context.Context, minLoans int) ([]report.PopularBookRow, error) {
			return []report.PopularBookRow{
				{
					PopularBook:           repository.PopularBook{Book: model.Book{ID: "book-1"}, LoanCount: 7},
					EstimatedReadingHours: 6.4,
				},
			}, nil
		},
	}
	h := NewReportHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/books/popular", nil)
	w := httptest.NewRecorder()

	h.PopularBooks(w, req)

	var result []map[string]interface{}
	decodeJSONBody(t, w, &result)
	if int(result[0]["loan_count"].(float64)) != 7 {
		t.Errorf("loan_count = %v, want 7", result[0]["loan_count"])
	}
}

// --- GET /api/readers/with-active-loans テスト ---

func TestReportHandler_ReadersWithActiveLoans_Success(t *testing.T) {
	svc := &mockReportService{
		readersWithActiveLoansFn: func(ctx context.Context) ([]repository.ReaderWithActiveLoanCount, error) {
			return []repository.ReaderWithActiveLoanCount{
				{
					Reader:           model.Reader{ID: "reader-1", Name: "山田太郎", RegistrationDate: date(t, "2025-01-15")},
					ActiveLoansCount: 2,
				},
			}, nil
		},
	}
	h := NewReportHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/readers/with-active-loans", nil)
	w := httptest.NewRecorder()

	h.ReadersWithActiveLoans(w, req)

	var result []map[string]interface{}
	decodeJSONBody(t, w, &result)
	if int(result[0]["active_loans_count"].(float64)) != 2 {
		t.Errorf("active_loans_count = %v, want 2", result[0]["active_loans_count"])
	}
}

// --- GET /api/reports/library テスト ---

func TestReportHandler_LibraryStatistics_Success(t *testing.T) {
	svc := &mockReportService{
		libraryStatisticsFn: func(ctx context.Context) (*report.LibraryStatistics, error) {
			return &report.LibraryStatistics{
				RecentThickBooksCount: 1,
				RecentThickBooks: []*model.Book{
					{ID: "book-1", Title: "大著", PublicationYear: 2020, Pages: 800},
				},
				AuthorsStatistics: []repository.AuthorWithBookCount{
					{Author: model.Author{ID: "author-1"}, BooksCount: 4},
				},
				TopAuthors: []repository.AuthorWithTotalPages{
					{Author: model.Author{ID: "author-1"}, TotalPages: 2400},
				},
				OverdueReaders: []*model.Reader{
					{ID: "reader-1", RegistrationDate: date(t, "2025-01-15")},
				},
				BooksAvailability: map[model.BookStatus]int{
					model.BookStatusAvailable: 10,
					model.BookStatusOnLoan:    3,
					model.BookStatusOverdue:   1,
				},
			}, nil
		},
	}
	h := NewReportHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/library", nil)
	w := httptest.NewRecorder()

	h.LibraryStatistics(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var result map[string]interface{}
	decodeJSONBody(t, w, &result)
	if int(result["recent_thick_books_count"].(float64)) != 1 {
		t.Errorf("recent_thick_books_count = %v, want 1", result["recent_thick_books_count"])
	}

	availability, ok := result["books_availability"].(map[string]interface{})
	if !ok {
		t.Fatalf("books_availability is not an object: %v", result["books_availability"])
	}
	if int(availability["available"].(float64)) != 10 {
		t.Errorf("available = %v, want 10", availability["available"])
	}
	if int(availability["overdue"].(float64)) != 1 {
		t.Errorf("overdue = %v, want 1", availability["overdue"])
	}
}

func TestReportHandler_LibraryStatistics_InternalError(t *testing.T) {
	svc := &mockReportService{
		libraryStatisticsFn: func(ctx context.Context) (*report.LibraryStatistics, error) {
			return nil, errors.New("db connection lost")
		},
	}
	h := NewReportHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/library", nil)
	w := httptest.NewRecorder()

	h.LibraryStatistics(w, req)

	// APIError以外のエラーは詳細を隠して500で返す
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}

	result := parseAPIErrorResponse(t, w)
	if result["code"] != "INTERNAL_ERROR" {
		t.Errorf("code = %q, want %q", result["code"], "INTERNAL_ERROR")
	}
}
