package repository

import (
	"testing"

	"github.com/hitoshi/toshokan/internal/model"
)

// PostgresBookRepoはBookRepositoryインターフェースを満たすことを検証
func TestPostgresBookRepo_ImplementsInterface(t *testing.T) {
	var _ BookRepository = (*PostgresBookRepo)(nil)
}

// NewPostgresBookRepoが正しく初期化されることを検証
func TestNewPostgresBookRepo_Initializes(t *testing.T) {
	repo := NewPostgresBookRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// Bookモデルのフィールドが正しく構築されることを検証
func TestPostgresBookRepo_BookModel_Fields(t *testing.T) {
	book := &model.Book{
		ID:              "book-id-1",
		Title:           "吾輩は猫である",
		ISBN:            "9784101010014",
		PublicationYear: 1905,
		Pages:           624,
		Genre:           model.GenreFiction,
		AuthorID:        "author-id-1",
	}

	if book.ISBN != "9784101010014" {
		t.Errorf("book.ISBN = %q, want %q", book.ISBN, "9784101010014")
	}
	if book.Genre != model.GenreFiction {
		t.Errorf("book.Genre = %q, want %q", book.Genre, model.GenreFiction)
	}
	if book.Pages != 624 {
		t.Errorf("book.Pages = %d, want %d", book.Pages, 624)
	}
}

// 集計行がモデルを埋め込んで構築されることを検証
func TestPostgresBookRepo_BookLoanStats_EmbedsBook(t *testing.T) {
	stats := &BookLoanStats{
		Book:        model.Book{ID: "book-id-2", Title: "坊っちゃん"},
		TotalLoans:  5,
		ActiveLoans: 1,
	}

	if stats.ID != "book-id-2" {
		t.Errorf("stats.ID = %q, want %q", stats.ID, "book-id-2")
	}
	if stats.TotalLoans != 5 {
		t.Errorf("stats.TotalLoans = %d, want %d", stats.TotalLoans, 5)
	}
}
