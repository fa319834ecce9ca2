package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/toshokan/internal/model"
)

// PostgresReportRepo はPostgreSQLを使用した集計クエリリポジトリ。
// すべて読み取り専用で、単一クエリのスナップショット読み取りのみを行う。
type PostgresReportRepo struct {
	db *sql.DB
}

// NewPostgresReportRepo はPostgresReportRepoを生成する。
func NewPostgresReportRepo(db *sql.DB) *PostgresReportRepo {
	return &PostgresReportRepo{db: db}
}

// AuthorsWithBookCount は各著者の蔵書数を蔵書数降順で返す。
func (r *PostgresReportRepo) AuthorsWithBookCount(ctx context.Context) ([]AuthorWithBookCount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.id, a.name, a.country, a.birth_date, a.created_at, a.updated_at,
		        COUNT(b.id) AS books_count
		 FROM authors a
		 LEFT JOIN books b ON b.author_id = a.id
		 GROUP BY a.id
		 ORDER BY books_count DESC, a.name`,
	)
	if err != nil {
		return nil, fmt.Errorf("著者別蔵書数の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var results []AuthorWithBookCount
	for rows.Next() {
		row := AuthorWithBookCount{}
		var birthDate sql.NullTime

		if err := rows.Scan(&row.ID, &row.Name, &row.Country, &birthDate,
			&row.CreatedAt, &row.UpdatedAt, &row.BooksCount); err != nil {
			return nil, fmt.Errorf("著者別蔵書数の読み取りに失敗しました: %w", err)
		}

		row.BirthDate = nullTimeValue(birthDate)
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("著者別蔵書数の走査に失敗しました: %w", err)
	}

	return results, nil
}

// TopAuthorsByTotalPages は蔵書の総ページ数が多い著者を上位limit件返す。
// 蔵書を持たない著者は総ページ数0として扱う。
func (r *PostgresReportRepo) TopAuthorsByTotalPages(ctx context.Context, limit int) ([]AuthorWithTotalPages, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.id, a.name, a.country, a.birth_date, a.created_at, a.updated_at,
		        COALESCE(SUM(b.pages), 0) AS total_pages
		 FROM authors a
		 LEFT JOIN books b ON b.author_id = a.id
		 GROUP BY a.id
		 ORDER BY total_pages DESC, a.name
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("著者別総ページ数の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var results []AuthorWithTotalPages
	for rows.Next() {
		row := AuthorWithTotalPages{}
		var birthDate sql.NullTime

		if err := rows.Scan(&row.ID, &row.Name, &row.Country, &birthDate,
			&row.CreatedAt, &row.UpdatedAt, &row.TotalPages); err != nil {
			return nil, fmt.Errorf("著者別総ページ数の読み取りに失敗しました: %w", err)
		}

		row.BirthDate = nullTimeValue(birthDate)
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("著者別総ページ数の走査に失敗しました: %w", err)
	}

	return results, nil
}

// ReadersWithOverdueLoans は基準日時点で延滞中の貸出を持つ利用者を返す。
func (r *PostgresReportRepo) ReadersWithOverdueLoans(ctx context.Context, today time.Time) ([]*model.Reader, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT r.id, r.name, r.email, r.registration_date, r.created_at, r.updated_at
		 FROM readers r
		 INNER JOIN loans l ON l.reader_id = r.id
		 WHERE l.actual_return_date IS NULL AND l.planned_return_date < $1
		 ORDER BY r.name`,
		model.DateOf(today),
	)
	if err != nil {
		return nil, fmt.Errorf("延滞利用者の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var readers []*model.Reader
	for rows.Next() {
		reader := &model.Reader{}
		if err := rows.Scan(&reader.ID, &reader.Name, &reader.Email,
			&reader.RegistrationDate, &reader.CreatedAt, &reader.UpdatedAt); err != nil {
			return nil, fmt.Errorf("延滞利用者の読み取りに失敗しました: %w", err)
		}
		readers = append(readers, reader)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("延滞利用者の走査に失敗しました: %w", err)
	}

	return readers, nil
}

// ReadersWithActiveLoans はアクティブな貸出を1件以上持つ利用者を
// 貸出数降順で返す。
func (r *PostgresReportRepo) ReadersWithActiveLoans(ctx context.Context) ([]ReaderWithActiveLoanCount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT r.id, r.name, r.email, r.registration_date, r.created_at, r.updated_at,
		        COUNT(l.id) AS active_loans_count
		 FROM readers r
		 INNER JOIN loans l ON l.reader_id = r.id AND l.actual_return_date IS NULL
		 GROUP BY r.id
		 HAVING COUNT(l.id) > 0
		 ORDER BY active_loans_count DESC, r.name`,
	)
	if err != nil {
		return nil, fmt.Errorf("貸出中利用者の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var results []ReaderWithActiveLoanCount
	for rows.Next() {
		row := ReaderWithActiveLoanCount{}
		if err := rows.Scan(&row.ID, &row.Name, &row.Email,
			&row.RegistrationDate, &row.CreatedAt, &row.UpdatedAt,
			&row.ActiveLoansCount); err != nil {
			return nil, fmt.Errorf("貸出中利用者の読み取りに失敗しました: %w", err)
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("貸出中利用者の走査に失敗しました: %w", err)
	}

	return results, nil
}

// BookLoanStatistics は各蔵書の累計・アクティブ・延滞の貸出数を返す。
func (r *PostgresReportRepo) BookLoanStatistics(ctx context.Context, today time.Time) ([]BookLoanStats, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT b.id, b.title, b.isbn, b.publication_year, b.pages, b.genre,
		        b.author_id, b.created_at, b.updated_at,
		        COUNT(l.id) AS total_loans,
		        COUNT(l.id) FILTER (WHERE l.actual_return_date IS NULL) AS active_loans,
		        COUNT(l.id) FILTER (WHERE l.actual_return_date IS NULL
		                              AND l.planned_return_date < $1) AS overdue_loans
		 FROM books b
		 LEFT JOIN loans l ON l.book_id = b.id
		 GROUP BY b.id
		 ORDER BY b.publication_year DESC, b.title`,
		model.DateOf(today),
	)
	if err != nil {
		return nil, fmt.Errorf("蔵書別貸出統計の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var results []BookLoanStats
	for rows.Next() {
		row := BookLoanStats{}
		if err := rows.Scan(&row.ID, &row.Title, &row.ISBN, &row.PublicationYear,
			&row.Pages, &row.Genre, &row.AuthorID, &row.CreatedAt, &row.UpdatedAt,
			&row.TotalLoans, &row.ActiveLoans, &row.OverdueLoans); err != nil {
			return nil, fmt.Errorf("蔵書別貸出統計の読み取りに失敗しました: %w", err)
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("蔵書別貸出統計の走査に失敗しました: %w", err)
	}

	return results, nil
}

// PopularBooks は累計貸出数がminLoans以上の蔵書を貸出数降順で返す。
func (r *PostgresReportRepo) PopularBooks(ctx context.Context, minLoans int) ([]PopularBook, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT b.id, b.title, b.isbn, b.publication_year, b.pages, b.genre,
		        b.author_id, b.created_at, b.updated_at,
		        COUNT(l.id) AS loan_count
		 FROM books b
		 INNER JOIN loans l ON l.book_id = b.id
		 GROUP BY b.id
		 HAVING COUNT(l.id) >= $1
		 ORDER BY loan_count DESC, b.title`,
		minLoans,
	)
	if err != nil {
		return nil, fmt.Errorf("人気蔵書の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var results []PopularBook
	for rows.Next() {
		row := PopularBook{}
		if err := rows.Scan(&row.ID, &row.Title, &row.ISBN, &row.PublicationYear,
			&row.Pages, &row.Genre, &row.AuthorID, &row.CreatedAt, &row.UpdatedAt,
			&row.LoanCount); err != nil {
			return nil, fmt.Errorf("人気蔵書の読み取りに失敗しました: %w", err)
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("人気蔵書の走査に失敗しました: %w", err)
	}

	return results, nil
}

// compile-time interface check
var _ ReportRepository = (*PostgresReportRepo)(nil)
