package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/toshokan/internal/model"
)

// LoanServiceInterface は貸出ハンドラーが必要とするサービスインターフェース。
type LoanServiceInterface interface {
	Issue(ctx context.Context, bookID, readerID string, plannedReturn time.Time) (*model.Loan, error)
	Return(ctx context.Context, loanID string, actualReturn *time.Time) (*model.Loan, error)
	Get(ctx context.Context, loanID string) (*model.Loan, error)
	List(ctx context.Context) ([]*model.Loan, error)
	ListActive(ctx context.Context) ([]*model.Loan, error)
	ListOverdue(ctx context.Context) ([]*model.Loan, error)
	ListByBook(ctx context.Context, bookID string) ([]*model.Loan, error)
}

// LoanHandler は貸出・返却のHTTPハンドラー。
type LoanHandler struct {
	service LoanServiceInterface
}

// NewLoanHandler はLoanHandlerを生成する。
func NewLoanHandler(service LoanServiceInterface) *LoanHandler {
	return &LoanHandler{service: service}
}

// issueRequest は貸出リクエストのボディ。
type issueRequest struct {
	BookID            string `json:"book_id"`
	ReaderID          string `json:"reader_id"`
	PlannedReturnDate string `json:"planned_return_date"`
}

// returnRequest は返却リクエストのボディ。
// actual_return_dateを省略した場合は今日の日付で返却される。
type returnRequest struct {
	ActualReturnDate *string `json:"actual_return_date,omitempty"`
}

// loanResponse は貸出情報のAPIレスポンス。
type loanResponse struct {
	ID                string    `json:"id"`
	BookID            string    `json:"book_id"`
	ReaderID          string    `json:"reader_id"`
	IssueDate         string    `json:"issue_date"`
	PlannedReturnDate string    `json:"planned_return_date"`
	ActualReturnDate  *string   `json:"actual_return_date,omitempty"`
	Active            bool      `json:"active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func toLoanResponse(l *model.Loan) loanResponse {
	return loanResponse{
		ID:                l.ID,
		BookID:            l.BookID,
		ReaderID:          l.ReaderID,
		IssueDate:         formatDate(l.IssueDate),
		PlannedReturnDate: formatDate(l.PlannedReturnDate),
		ActualReturnDate:  formatDatePtr(l.ActualReturnDate),
		Active:            l.IsActive(),
		CreatedAt:         l.CreatedAt,
		UpdatedAt:         l.UpdatedAt,
	}
}

func toLoanResponses(loans []*model.Loan) []loanResponse {
	results := make([]loanResponse, len(loans))
	for i, l := range loans {
		results[i] = toLoanResponse(l)
	}
	return results
}

// Issue は蔵書を利用者に貸し出す。
// POST /api/loans
func (h *LoanHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	planned, err := parseDate(req.PlannedReturnDate)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidFieldError("返却予定日はYYYY-MM-DD形式で指定してください"))
		return
	}

	loan, err := h.service.Issue(r.Context(), req.BookID, req.ReaderID, planned)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toLoanResponse(loan))
}

// Return は貸出に返却を記録する。
// POST /api/loans/:id/return
func (h *LoanHandler) Return(w http.ResponseWriter, r *http.Request) {
	var req returnRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeInvalidRequestBody(w)
			return
		}
	}

	var actualReturn *time.Time
	if req.ActualReturnDate != nil {
		parsed, err := parseDate(*req.ActualReturnDate)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest,
				model.NewInvalidFieldError("返却日はYYYY-MM-DD形式で指定してください"))
			return
		}
		actualReturn = &parsed
	}

	loan, err := h.service.Return(r.Context(), chi.URLParam(r, "id"), actualReturn)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toLoanResponse(loan))
}

// Get は貸出を1件取得する。
// GET /api/loans/:id
func (h *LoanHandler) Get(w http.ResponseWriter, r *http.Request) {
	loan, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toLoanResponse(loan))
}

// List は全貸出を取得する。
// GET /api/loans
func (h *LoanHandler) List(w http.ResponseWriter, r *http.Request) {
	loans, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toLoanResponses(loans))
}

// ListActive はアクティブな貸出の一覧を取得する。
// GET /api/loans/active
func (h *LoanHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	loans, err := h.service.ListActive(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toLoanResponses(loans))
}

// ListOverdue は延滞中の貸出の一覧を取得する。
// GET /api/loans/overdue
func (h *LoanHandler) ListOverdue(w http.ResponseWriter, r *http.Request) {
	loans, err := h.service.ListOverdue(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toLoanResponses(loans))
}

// ListByBook は指定蔵書の貸出履歴を取得する。
// GET /api/books/:id/loans
func (h *LoanHandler) ListByBook(w http.ResponseWriter, r *http.Request) {
	loans, err := h.service.ListByBook(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toLoanResponses(loans))
}
