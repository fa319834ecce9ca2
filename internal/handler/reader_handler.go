package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/toshokan/internal/model"
	"github.com/hitoshi/toshokan/internal/reader"
)

// ReaderServiceInterface は利用者ハンドラーが必要とするサービスインターフェース。
type ReaderServiceInterface interface {
	Create(ctx context.Context, input reader.Input) (*model.Reader, error)
	Get(ctx context.Context, id string) (*model.Reader, error)
	List(ctx context.Context) ([]*model.Reader, error)
	Update(ctx context.Context, id string, input reader.Input) (*model.Reader, error)
	Delete(ctx context.Context, id string) error
}

// ReaderHandler は利用者管理のHTTPハンドラー。
type ReaderHandler struct {
	service ReaderServiceInterface
}

// NewReaderHandler はReaderHandlerを生成する。
func NewReaderHandler(service ReaderServiceInterface) *ReaderHandler {
	return &ReaderHandler{service: service}
}

// readerRequest は利用者の作成・更新リクエストのボディ。
// 登録日はサーバー側で決定するため含まない。
type readerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// readerResponse は利用者情報のAPIレスポンス。
type readerResponse struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	RegistrationDate string    `json:"registration_date"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func toReaderResponse(rd *model.Reader) readerResponse {
	return readerResponse{
		ID:               rd.ID,
		Name:             rd.Name,
		Email:            rd.Email,
		RegistrationDate: formatDate(rd.RegistrationDate),
		CreatedAt:        rd.CreatedAt,
		UpdatedAt:        rd.UpdatedAt,
	}
}

// Create は利用者を新規登録する。
// POST /api/readers
func (h *ReaderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req readerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	created, err := h.service.Create(r.Context(), reader.Input{Name: req.Name, Email: req.Email})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toReaderResponse(created))
}

// Get は利用者を1件取得する。
// GET /api/readers/:id
func (h *ReaderHandler) Get(w http.ResponseWriter, r *http.Request) {
	found, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toReaderResponse(found))
}

// List は全利用者を取得する。
// GET /api/readers
func (h *ReaderHandler) List(w http.ResponseWriter, r *http.Request) {
	readers, err := h.service.List(r.Context())
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

// Update は利用者の名前とメールアドレスを更新する。
// PUT /api/readers/:id
func (h *ReaderHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req readerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	updated, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), reader.Input{Name: req.Name, Email: req.Email})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toReaderResponse(updated))
}

// Delete は利用者を削除する。
// DELETE /api/readers/:id
func (h *ReaderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
