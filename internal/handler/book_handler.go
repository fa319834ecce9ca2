package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/toshokan/internal/book"
	"github.com/hitoshi/toshokan/internal/lookup"
	"github.com/hitoshi/toshokan/internal/model"
)

// BookServiceInterface は蔵書ハンドラーが必要とするサービスインターフェース。
type BookServiceInterface interface {
	Create(ctx context.Context, input book.Input) (*model.Book, error)
	Get(ctx context.Context, id string) (*model.Book, error)
	List(ctx context.Context) ([]*model.Book, error)
	ListPublishedAfter(ctx context.Context, year, minPages int) ([]*model.Book, error)
	Update(ctx context.Context, id string, input book.Input) (*model.Book, error)
	Delete(ctx context.Context, id string) error
	GetStatus(ctx context.Context, id string) (*book.WithStatus, error)
	ListWithStatus(ctx context.Context) ([]book.WithStatus, error)
	ListAvailable(ctx context.Context) ([]model.Book, error)
	ListOnLoan(ctx context.Context) ([]model.Book, error)
}

// LookupServiceInterface はISBN書誌メタデータ検索のインターフェース。
type LookupServiceInterface interface {
	Lookup(ctx context.Context, isbn string) (*lookup.Metadata, error)
}

// BookHandler は蔵書管理のHTTPハンドラー。
type BookHandler struct {
	service BookServiceInterface
	lookup  LookupServiceInterface
}

// NewBookHandler はBookHandlerを生成する。
func NewBookHandler(service BookServiceInterface, lookupSvc LookupServiceInterface) *BookHandler {
	return &BookHandler{service: service, lookup: lookupSvc}
}

// bookRequest は蔵書の作成・更新リクエストのボディ。
type bookRequest struct {
	Title           string `json:"title"`
	ISBN            string `json:"isbn"`
	PublicationYear int    `json:"publication_year"`
	Pages           int    `json:"pages"`
	Genre           string `json:"genre"`
	AuthorID        string `json:"author_id"`
}

// bookResponse は蔵書情報のAPIレスポンス。
type bookResponse struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	ISBN            string    `json:"isbn"`
	PublicationYear int       `json:"publication_year"`
	Pages           int       `json:"pages"`
	Genre           string    `json:"genre"`
	AuthorID        string    `json:"author_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// bookStatusResponse は蔵書と現在の貸出状態のAPIレスポンス。
type bookStatusResponse struct {
	bookResponse
	Status string `json:"status"`
}

// lookupResponse はISBN検索結果のAPIレスポンス。
type lookupResponse struct {
	ISBN            string `json:"isbn"`
	Title           string `json:"title"`
	Pages           int    `json:"pages,omitempty"`
	PublicationYear int    `json:"publication_year,omitempty"`
	AuthorName      string `json:"author_name,omitempty"`
}

func toBookResponse(b *model.Book) bookResponse {
	return bookResponse{
		ID:              b.ID,
		Title:           b.Title,
		ISBN:            b.ISBN,
		PublicationYear: b.PublicationYear,
		Pages:           b.Pages,
		Genre:           string(b.Genre),
		AuthorID:        b.AuthorID,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func toBookInput(req bookRequest) book.Input {
	return book.Input{
		Title:           req.Title,
		ISBN:            req.ISBN,
		PublicationYear: req.PublicationYear,
		Pages:           req.Pages,
		Genre:           model.Genre(req.Genre),
		AuthorID:        req.AuthorID,
	}
}

// Create は蔵書を新規登録する。
// POST /api/books
func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	created, err := h.service.Create(r.Context(), toBookInput(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toBookResponse(created))
}

// Get は蔵書を1件取得する。
// GET /api/books/:id
func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	found, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBookResponse(found))
}

// List は全蔵書を取得する。
// GET /api/books
func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]bookResponse, len(books))
	for i, b := range books {
		results[i] = toBookResponse(b)
	}
	writeJSON(w, http.StatusOK, results)
}

// ListRecent は指定年より後に出版された一定ページ数超の蔵書を取得する。
// GET /api/books/recent?year=2010&min_pages=300
func (h *BookHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	year := queryInt(r, "year", 2010)
	minPages := queryInt(r, "min_pages", 300)

	books, err := h.service.ListPublishedAfter(r.Context(), year, minPages)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]bookResponse, len(books))
	for i, b := range books {
		results[i] = toBookResponse(b)
	}
	writeJSON(w, http.StatusOK, results)
}

// Update は蔵書情報を更新する。
// PUT /api/books/:id
func (h *BookHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	updated, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), toBookInput(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBookResponse(updated))
}

// Delete は蔵書を削除する。
// DELETE /api/books/:id
func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetStatus は蔵書の現在の貸出状態を取得する。
// GET /api/books/:id/status
func (h *BookHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.GetStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, bookStatusResponse{
		bookResponse: toBookResponse(&result.Book),
		Status:       string(result.Status),
	})
}

// ListWithStatus は全蔵書を貸出状態付きで取得する。
// GET /api/books/with-status
func (h *BookHandler) ListWithStatus(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.ListWithStatus(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]bookStatusResponse, len(books))
	for i := range books {
		results[i] = bookStatusResponse{
			bookResponse: toBookResponse(&books[i].Book),
			Status:       string(books[i].Status),
		}
	}
	writeJSON(w, http.StatusOK, results)
}

// ListAvailable は貸出可能な蔵書の一覧を取得する。
// GET /api/books/available
func (h *BookHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.ListAvailable(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]bookResponse, len(books))
	for i := range books {
		results[i] = toBookResponse(&books[i])
	}
	writeJSON(w, http.StatusOK, results)
}

// ListOnLoan は貸出中（延滞中を含む）の蔵書の一覧を取得する。
// GET /api/books/on-loan
func (h *BookHandler) ListOnLoan(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.ListOnLoan(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]bookResponse, len(books))
	for i := range books {
		results[i] = toBookResponse(&books[i])
	}
	writeJSON(w, http.StatusOK, results)
}

// Lookup はISBNで書誌メタデータを外部検索する。
// GET /api/books/lookup/:isbn
func (h *BookHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	meta, err := h.lookup.Lookup(r.Context(), chi.URLParam(r, "isbn"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, lookupResponse{
		ISBN:            meta.ISBN,
		Title:           meta.Title,
		Pages:           meta.Pages,
		PublicationYear: meta.PublicationYear,
		AuthorName:      meta.AuthorName,
	})
}

// queryInt はクエリパラメータを整数として解析する。
// 未指定または解析不能の場合はデフォルト値を返す。
func queryInt(r *http.Request, name string, defaultValue int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return v
}
