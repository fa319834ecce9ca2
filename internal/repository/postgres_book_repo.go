package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/toshokan/internal/model"
)

// pqUniqueViolation はPostgreSQLの一意制約違反のエラーコード。
const pqUniqueViolation = "23505"

// PostgresBookRepo はPostgreSQLを使用した蔵書リポジトリ。
type PostgresBookRepo struct {
	db *sql.DB
}

// NewPostgresBookRepo はPostgresBookRepoを生成する。
func NewPostgresBookRepo(db *sql.DB) *PostgresBookRepo {
	return &PostgresBookRepo{db: db}
}

// bookColumns はbooksテーブルのSELECT対象カラム。
const bookColumns = `id, title, isbn, publication_year, pages, genre, author_id, created_at, updated_at`

// scanBook は1行分の蔵書を読み取る。
func scanBook(scanner interface{ Scan(dest ...any) error }) (*model.Book, error) {
	book := &model.Book{}
	err := scanner.Scan(
		&book.ID, &book.Title, &book.ISBN, &book.PublicationYear,
		&book.Pages, &book.Genre, &book.AuthorID, &book.CreatedAt, &book.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return book, nil
}

// FindByID は指定IDの蔵書を取得する。見つからない場合はnilを返す。
func (r *PostgresBookRepo) FindByID(ctx context.Context, id string) (*model.Book, error) {
	book, err := scanBook(r.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("蔵書の取得に失敗しました: %w", err)
	}
	return book, nil
}

// FindByISBN はISBNで蔵書を検索する。見つからない場合はnilを返す。
func (r *PostgresBookRepo) FindByISBN(ctx context.Context, isbn string) (*model.Book, error) {
	book, err := scanBook(r.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE isbn = $1`, isbn))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ISBNによる蔵書の検索に失敗しました: %w", err)
	}
	return book, nil
}

// List は全蔵書を出版年降順・タイトル順で返す。
func (r *PostgresBookRepo) List(ctx context.Context) ([]*model.Book, error) {
	return r.list(ctx,
		`SELECT `+bookColumns+` FROM books ORDER BY publication_year DESC, title`)
}

// ListPublishedAfter は指定年より後に出版され、かつページ数がminPagesを
// 超える蔵書を返す。
func (r *PostgresBookRepo) ListPublishedAfter(ctx context.Context, year, minPages int) ([]*model.Book, error) {
	return r.list(ctx,
		`SELECT `+bookColumns+` FROM books
		 WHERE publication_year > $1 AND pages > $2
		 ORDER BY publication_year DESC, title`,
		year, minPages)
}

// list はクエリを実行して蔵書のスライスを返す共通処理。
func (r *PostgresBookRepo) list(ctx context.Context, query string, args ...any) ([]*model.Book, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("蔵書一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var books []*model.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("蔵書一覧の読み取りに失敗しました: %w", err)
		}
		books = append(books, book)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("蔵書一覧の走査に失敗しました: %w", err)
	}

	return books, nil
}

// FindWithLoans は蔵書とその全貸出履歴を取得する。
// 蔵書が見つからない場合はnilを返す。
func (r *PostgresBookRepo) FindWithLoans(ctx context.Context, id string) (*model.BookWithLoans, error) {
	book, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, nil
	}

	loans, err := r.loansByBook(ctx, id)
	if err != nil {
		return nil, err
	}

	return &model.BookWithLoans{Book: *book, Loans: loans}, nil
}

// ListWithLoans は全蔵書をそれぞれの全貸出履歴付きで返す。
// 蔵書と貸出を別クエリで取得し、メモリ上でJOINする。
func (r *PostgresBookRepo) ListWithLoans(ctx context.Context) ([]model.BookWithLoans, error) {
	books, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, book_id, reader_id, issue_date, planned_return_date,
		        actual_return_date, created_at, updated_at
		 FROM loans ORDER BY issue_date DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("貸出一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	loansByBook := make(map[string][]model.Loan)
	for rows.Next() {
		loan := model.Loan{}
		var actualReturn sql.NullTime

		if err := rows.Scan(
			&loan.ID, &loan.BookID, &loan.ReaderID, &loan.IssueDate,
			&loan.PlannedReturnDate, &actualReturn, &loan.CreatedAt, &loan.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("貸出一覧の読み取りに失敗しました: %w", err)
		}

		loan.ActualReturnDate = nullTimeValue(actualReturn)
		loansByBook[loan.BookID] = append(loansByBook[loan.BookID], loan)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("貸出一覧の走査に失敗しました: %w", err)
	}

	results := make([]model.BookWithLoans, len(books))
	for i, book := range books {
		results[i] = model.BookWithLoans{Book: *book, Loans: loansByBook[book.ID]}
	}

	return results, nil
}

// loansByBook は指定蔵書の全貸出を取得する。
func (r *PostgresBookRepo) loansByBook(ctx context.Context, bookID string) ([]model.Loan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, book_id, reader_id, issue_date, planned_return_date,
		        actual_return_date, created_at, updated_at
		 FROM loans WHERE book_id = $1 ORDER BY issue_date DESC`,
		bookID,
	)
	if err != nil {
		return nil, fmt.Errorf("蔵書の貸出履歴の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var loans []model.Loan
	for rows.Next() {
		loan := model.Loan{}
		var actualReturn sql.NullTime

		if err := rows.Scan(
			&loan.ID, &loan.BookID, &loan.ReaderID, &loan.IssueDate,
			&loan.PlannedReturnDate, &actualReturn, &loan.CreatedAt, &loan.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("蔵書の貸出履歴の読み取りに失敗しました: %w", err)
		}

		loan.ActualReturnDate = nullTimeValue(actualReturn)
		loans = append(loans, loan)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("蔵書の貸出履歴の走査に失敗しました: %w", err)
	}

	return loans, nil
}

// Create は蔵書を作成する。ISBN重複はDUPLICATE_ISBNエラーとして返す。
func (r *PostgresBookRepo) Create(ctx context.Context, book *model.Book) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO books (id, title, isbn, publication_year, pages, genre, author_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		book.ID, book.Title, book.ISBN, book.PublicationYear,
		book.Pages, book.Genre, book.AuthorID, book.CreatedAt, book.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "books_isbn_key") {
			return model.NewDuplicateISBNError(book.ISBN)
		}
		return fmt.Errorf("蔵書の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は蔵書情報を更新する。ISBN重複はDUPLICATE_ISBNエラーとして返す。
func (r *PostgresBookRepo) Update(ctx context.Context, book *model.Book) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE books SET title = $2, isbn = $3, publication_year = $4,
		        pages = $5, genre = $6, author_id = $7, updated_at = now()
		 WHERE id = $1`,
		book.ID, book.Title, book.ISBN, book.PublicationYear,
		book.Pages, book.Genre, book.AuthorID,
	)
	if err != nil {
		if isUniqueViolation(err, "books_isbn_key") {
			return model.NewDuplicateISBNError(book.ISBN)
		}
		return fmt.Errorf("蔵書の更新に失敗しました: %w", err)
	}
	return nil
}

// DeleteByID は指定IDの蔵書を削除する。関連するloansはCASCADE削除される。
func (r *PostgresBookRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("蔵書の削除に失敗しました: %w", err)
	}
	return nil
}

// isUniqueViolation はエラーが指定した制約の一意制約違反かどうかを判定する。
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return string(pqErr.Code) == pqUniqueViolation && pqErr.Constraint == constraint
}

// compile-time interface check
var _ BookRepository = (*PostgresBookRepo)(nil)
