package author

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/toshokan/internal/model"
)

// --- モック ---

type mockAuthorRepo struct {
	findByIDFn   func(ctx context.Context, id string) (*model.Author, error)
	createFn     func(ctx context.Context, author *model.Author) error
	updateFn     func(ctx context.Context, author *model.Author) error
	deleteByIDFn func(ctx context.Context, id string) error
}

func (m *mockAuthorRepo) FindByID(ctx context.Context, id string) (*model.Author, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return &model.Author{ID: id, Name: "夏目漱石"}, nil
}
func (m *mockAuthorRepo) List(ctx context.Context) ([]*model.Author, error) {
	return nil, nil
}
func (m *mockAuthorRepo) Create(ctx context.Context, author *model.Author) error {
	if m.createFn != nil {
		return m.createFn(ctx, author)
	}
	return nil
}
func (m *mockAuthorRepo) Update(ctx context.Context, author *model.Author) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, author)
	}
	return nil
}
func (m *mockAuthorRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

func assertInvalidField(t *testing.T, err error) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %T: %v", err, err)
	}
	if apiErr.Code != model.ErrCodeInvalidField {
		t.Fatalf("error code = %q, want %q", apiErr.Code, model.ErrCodeInvalidField)
	}
}

// --- テスト ---

// TestService_Create は著者作成の基本ケースを検証する。
func TestService_Create(t *testing.T) {
	var created *model.Author
	repo := &mockAuthorRepo{
		createFn: func(ctx context.Context, author *model.Author) error {
			created = author
			return nil
		},
	}
	svc := NewService(repo)

	birth := time.Date(1867, 2, 9, 0, 0, 0, 0, time.UTC)
	author, err := svc.Create(context.Background(), Input{
		Name:      "  夏目漱石  ",
		Country:   "日本",
		BirthDate: &birth,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created == nil {
		t.Fatal("expected repository Create to be called")
	}
	if author.ID == "" {
		t.Error("expected author ID to be assigned")
	}
	if author.Name != "夏目漱石" {
		t.Errorf("Name = %q, want trimmed name", author.Name)
	}
}

// TestService_Create_EmptyName は著者名が空の場合のバリデーションを検証する。
func TestService_Create_EmptyName(t *testing.T) {
	svc := NewService(&mockAuthorRepo{})

	_, err := svc.Create(context.Background(), Input{Name: "   "})
	assertInvalidField(t, err)
}

// TestService_Create_FutureBirthDate は未来の生年月日が拒否されることを検証する。
func TestService_Create_FutureBirthDate(t *testing.T) {
	svc := NewService(&mockAuthorRepo{})
	future := time.Now().AddDate(1, 0, 0)

	_, err := svc.Create(context.Background(), Input{Name: "夏目漱石", BirthDate: &future})
	assertInvalidField(t, err)
}

// TestService_Get_NotFound は存在しない著者の取得を検証する。
func TestService_Get_NotFound(t *testing.T) {
	repo := &mockAuthorRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Author, error) {
			return nil, nil
		},
	}
	svc := NewService(repo)

	_, err := svc.Get(context.Background(), "no-such-author")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeAuthorNotFound {
		t.Fatalf("expected AUTHOR_NOT_FOUND, got %v", err)
	}
}

// TestService_Update は著者更新を検証する。
func TestService_Update(t *testing.T) {
	var updated *model.Author
	repo := &mockAuthorRepo{
		updateFn: func(ctx context.Context, author *model.Author) error {
			updated = author
			return nil
		},
	}
	svc := NewService(repo)

	author, err := svc.Update(context.Background(), "author-1", Input{Name: "森鴎外", Country: "日本"})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated == nil {
		t.Fatal("expected repository Update to be called")
	}
	if author.Name != "森鴎外" {
		t.Errorf("Name = %q, want %q", author.Name, "森鴎外")
	}
}

// TestService_Delete_NotFound は存在しない著者の削除を検証する。
func TestService_Delete_NotFound(t *testing.T) {
	deleteCalled := false
	repo := &mockAuthorRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Author, error) {
			return nil, nil
		},
		deleteByIDFn: func(ctx context.Context, id string) error {
			deleteCalled = true
			return nil
		},
	}
	svc := NewService(repo)

	err := svc.Delete(context.Background(), "no-such-author")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeAuthorNotFound {
		t.Fatalf("expected AUTHOR_NOT_FOUND, got %v", err)
	}
	if deleteCalled {
		t.Error("expected DeleteByID not to be called")
	}
}
