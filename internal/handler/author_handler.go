package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/toshokan/internal/author"
	"github.com/hitoshi/toshokan/internal/model"
)

// AuthorServiceInterface は著者ハンドラーが必要とするサービスインターフェース。
type AuthorServiceInterface interface {
	Create(ctx context.Context, input author.Input) (*model.Author, error)
	Get(ctx context.Context, id string) (*model.Author, error)
	List(ctx context.Context) ([]*model.Author, error)
	Update(ctx context.Context, id string, input author.Input) (*model.Author, error)
	Delete(ctx context.Context, id string) error
}

// AuthorHandler は著者管理のHTTPハンドラー。
type AuthorHandler struct {
	service AuthorServiceInterface
}

// NewAuthorHandler はAuthorHandlerを生成する。
func NewAuthorHandler(service AuthorServiceInterface) *AuthorHandler {
	return &AuthorHandler{service: service}
}

// authorRequest は著者の作成・更新リクエストのボディ。
type authorRequest struct {
	Name      string  `json:"name"`
	Country   string  `json:"country"`
	BirthDate *string `json:"birth_date,omitempty"`
}

// authorResponse は著者情報のAPIレスポンス。
type authorResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Country   string    `json:"country"`
	BirthDate *string   `json:"birth_date,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toAuthorResponse(a *model.Author) authorResponse {
	return authorResponse{
		ID:        a.ID,
		Name:      a.Name,
		Country:   a.Country,
		BirthDate: formatDatePtr(a.BirthDate),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// toAuthorInput はリクエストボディをサービス入力へ変換する。
func toAuthorInput(req authorRequest) (author.Input, *model.APIError) {
	input := author.Input{
		Name:    req.Name,
		Country: req.Country,
	}
	if req.BirthDate != nil {
		birth, err := parseDate(*req.BirthDate)
		if err != nil {
			return author.Input{}, model.NewInvalidFieldError("生年月日はYYYY-MM-DD形式で指定してください")
		}
		input.BirthDate = &birth
	}
	return input, nil
}

// Create は著者を新規作成する。
// POST /api/authors
func (h *AuthorHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req authorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	input, apiErr := toAuthorInput(req)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	created, err := h.service.Create(r.Context(), input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAuthorResponse(created))
}

// Get は著者を1件取得する。
// GET /api/authors/:id
func (h *AuthorHandler) Get(w http.ResponseWriter, r *http.Request) {
	found, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAuthorResponse(found))
}

// List は全著者を取得する。
// GET /api/authors
func (h *AuthorHandler) List(w http.ResponseWriter, r *http.Request) {
	authors, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]authorResponse, len(authors))
	for i, a := range authors {
		results[i] = toAuthorResponse(a)
	}
	writeJSON(w, http.StatusOK, results)
}

// Update は著者情報を更新する。
// PUT /api/authors/:id
func (h *AuthorHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req authorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	input, apiErr := toAuthorInput(req)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	updated, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAuthorResponse(updated))
}

// Delete は著者を削除する。
// DELETE /api/authors/:id
func (h *AuthorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
