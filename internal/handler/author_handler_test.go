package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/toshokan/internal/author"
	"github.com/hitoshi/toshokan/internal/model"
)

// --- モック定義 ---

// mockAuthorService はAuthorServiceInterfaceのモック実装。
type mockAuthorService struct {
	createFn func(ctx context.Context, input author.Input) (*model.Author, error)
	getFn    func(ctx context.Context, id string) (*model.Author, error)
	listFn   func(ctx context.Context) ([]*model.Author, error)
	updateFn func(ctx context.Context, id string, input author.Input) (*model.Author, error)
	deleteFn func(ctx context.Context, id string) error
}

func (m *mockAuthorService) Create(ctx context.Context, input author.Input) (*model.Author, error) {
	if m.createFn != nil {
		return m.createFn(ctx, input)
	}
	return nil, nil
}

func (m *mockAuthorService) Get(ctx context.Context, id string) (*model.Author, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, nil
}

func (m *mockAuthorService) List(ctx context.Context) ([]*model.Author, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockAuthorService) Update(ctx context.Context, id string, input author.Input) (*model.Author, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, input)
	}
	return nil, nil
}

func (m *mockAuthorService) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// --- POST /api/authors テスト ---

func TestAuthorHandler_Create_Success(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	svc := &mockAuthorService{
		createFn: func(ctx context.Context, input author.Input) (*model.Author, error) {
			if input.Name != "夏目漱石" {
				t.Errorf("name = %q, want %q", input.Name, "夏目漱石")
			}
			if input.BirthDate == nil || !input.BirthDate.Equal(date(t, "1867-02-09")) {
				t.Errorf("birth date = %v, want 1867-02-09", input.BirthDate)
			}
			return &model.Author{
				ID:        "author-1",
				Name:      input.Name,
				Country:   input.Country,
				BirthDate: input.BirthDate,
				CreatedAt: now,
				UpdatedAt: now,
			}, nil
		},
	}

	h := NewAuthorHandler(svc)

	body := bytes.NewBufferString(`{"name":"夏目漱石","country":"日本","birth_date":"1867-02-09"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/authors", body)
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}

	var result map[string]interface{}
	decodeJSONBody(t, w, &result)
	if result["id"] != "author-1" {
		t.Errorf("id = %v, want %q", result["id"], "author-1")
	}
	if result["birth_date"] != "1867-02-09" {
		t.Errorf("birth_date = %v, want %q", result["birth_date"], "1867-02-09")
	}
}

func TestAuthorHandler_Create_InvalidJSON(t *testing.T) {
	h := NewAuthorHandler(&mockAuthorService{})

	req := httptest.NewRequest(http.MethodPost, "/api/authors", bytes.NewBufferString(`{invalid`))
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	result := parseAPIErrorResponse(t, w)
	if result["code"] != "INVALID_REQUEST" {
		t.Errorf("code = %q, want %q", result["code"], "INVALID_REQUEST")
	}
}

func TestAuthorHandler_Create_InvalidBirthDateFormat(t *testing.T) {
	svc := &mockAuthorService{
		createFn: func(ctx context.Context, input author.Input) (*model.Author, error) {
			t.Error("Create should not be called")
			return nil, nil
		},
	}
	h := NewAuthorHandler(svc)

	body := bytes.NewBufferString(`{"name":"夏目漱石","birth_date":"02/09/1867"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/authors", body)
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	result := parseAPIErrorResponse(t, w)
	if result["code"] != model.ErrCodeInvalidField {
		t.Errorf("code = %q, want %q", result["code"], model.ErrCodeInvalidField)
	}
}

func TestAuthorHandler_Create_ValidationError(t *testing.T) {
	svc := &mockAuthorService{
		createFn: func(ctx context.Context, input author.Input) (*model.Author, error) {
			return nil, model.NewInvalidFieldError("著者名は必須です")
		},
	}
	h := NewAuthorHandler(svc)

	body := bytes.NewBufferString(`{"name":""}`)
	req := httptest.NewRequest(http.MethodPost, "/api/authors", body)
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	result := parseAPIErrorResponse(t, w)
	if result["category"] != model.CategoryValidation {
		t.Errorf("category = %q, want %q", result["category"], model.CategoryValidation)
	}
}

// --- GET /api/authors/:id テスト ---

func TestAuthorHandler_Get_NotFound(t *testing.T) {
	svc := &mockAuthorService{
		getFn: func(ctx context.Context, id string) (*model.Author, error) {
			return nil, model.NewAuthorNotFoundError(id)
		},
	}
	h := NewAuthorHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/authors/missing", nil)
	req = withChiURLParam(req, "id", "missing")
	w := httptest.NewRecorder()

	h.Get(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}

	result := parseAPIErrorResponse(t, w)
	if result["code"] != model.ErrCodeAuthorNotFound {
		t.Errorf("code = %q, want %q", result["code"], model.ErrCodeAuthorNotFound)
	}
}

// --- GET /api/authors テスト ---

func TestAuthorHandler_List_BirthDateOmittedWhenNil(t *testing.T) {
	svc := &mockAuthorService{
		listFn: func(ctx context.Context) ([]*model.Author, error) {
			return []*model.Author{
				{ID: "author-1", Name: "著者A", Country: "日本"},
			}, nil
		},
	}
	h := NewAuthorHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/authors", nil)
	w := httptest.NewRecorder()

	h.List(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var result []map[string]interface{}
	decodeJSONBody(t, w, &result)
	if len(result) != 1 {
		t.Fatalf("result length = %d, want 1", len(result))
	}
	// 生年月日が未設定の著者ではフィールド自体を省略する
	if _, exists := result[0]["birth_date"]; exists {
		t.Errorf("birth_date should be omitted, got %v", result[0]["birth_date"])
	}
}

// --- PUT /api/authors/:id テスト ---

func TestAuthorHandler_Update_Success(t *testing.T) {
	svc := &mockAuthorService{
		updateFn: func(ctx context.Context, id string, input author.Input) (*model.Author, error) {
			if id != "author-1" {
				t.Errorf("id = %q, want %q", id, "author-1")
			}
			return &model.Author{ID: id, Name: input.Name, Country: input.Country}, nil
		},
	}
	h := NewAuthorHandler(svc)

	body := bytes.NewBufferString(`{"name":"新しい名前","country":"日本"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/authors/author-1", body)
	req = withChiURLParam(req, "id", "author-1")
	w := httptest.NewRecorder()

	h.Update(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

// --- DELETE /api/authors/:id テスト ---

func TestAuthorHandler_Delete_Success(t *testing.T) {
	called := false
	svc := &mockAuthorService{
		deleteFn: func(ctx context.Context, id string) error {
			called = true
			if id != "author-1" {
				t.Errorf("id = %q, want %q", id, "author-1")
			}
			return nil
		},
	}
	h := NewAuthorHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/authors/author-1", nil)
	req = withChiURLParam(req, "id", "author-1")
	w := httptest.NewRecorder()

	h.Delete(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if !called {
		t.Error("Delete should be called")
	}
}
