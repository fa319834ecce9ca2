package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/toshokan/internal/model"
)

// PostgresAuthorRepo はPostgreSQLを使用した著者リポジトリ。
type PostgresAuthorRepo struct {
	db *sql.DB
}

// NewPostgresAuthorRepo はPostgresAuthorRepoを生成する。
func NewPostgresAuthorRepo(db *sql.DB) *PostgresAuthorRepo {
	return &PostgresAuthorRepo{db: db}
}

// FindByID は指定IDの著者を取得する。見つからない場合はnilを返す。
func (r *PostgresAuthorRepo) FindByID(ctx context.Context, id string) (*model.Author, error) {
	author := &model.Author{}
	var birthDate sql.NullTime

	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, country, birth_date, created_at, updated_at
		 FROM authors WHERE id = $1`,
		id,
	).Scan(&author.ID, &author.Name, &author.Country, &birthDate, &author.CreatedAt, &author.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("著者の取得に失敗しました: %w", err)
	}

	author.BirthDate = nullTimeValue(birthDate)
	return author, nil
}

// List は全著者を名前順で返す。
func (r *PostgresAuthorRepo) List(ctx context.Context) ([]*model.Author, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, country, birth_date, created_at, updated_at
		 FROM authors ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("著者一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var authors []*model.Author
	for rows.Next() {
		author := &model.Author{}
		var birthDate sql.NullTime

		if err := rows.Scan(&author.ID, &author.Name, &author.Country, &birthDate, &author.CreatedAt, &author.UpdatedAt); err != nil {
			return nil, fmt.Errorf("著者一覧の読み取りに失敗しました: %w", err)
		}

		author.BirthDate = nullTimeValue(birthDate)
		authors = append(authors, author)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("著者一覧の走査に失敗しました: %w", err)
	}

	return authors, nil
}

// Create は著者を作成する。
func (r *PostgresAuthorRepo) Create(ctx context.Context, author *model.Author) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO authors (id, name, country, birth_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		author.ID, author.Name, author.Country, nullTime(author.BirthDate),
		author.CreatedAt, author.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("著者の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は著者情報を更新する。
func (r *PostgresAuthorRepo) Update(ctx context.Context, author *model.Author) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE authors SET name = $2, country = $3, birth_date = $4, updated_at = now()
		 WHERE id = $1`,
		author.ID, author.Name, author.Country, nullTime(author.BirthDate),
	)
	if err != nil {
		return fmt.Errorf("著者の更新に失敗しました: %w", err)
	}
	return nil
}

// DeleteByID は指定IDの著者を削除する。
// 関連するbooks、loansはCASCADE削除される。
func (r *PostgresAuthorRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM authors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("著者の削除に失敗しました: %w", err)
	}
	return nil
}

// nullTime は*time.Timeをsql.NullTimeに変換する。
func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// nullTimeValue はsql.NullTimeから*time.Timeを取得する。
func nullTimeValue(nt sql.NullTime) *time.Time {
	if nt.Valid {
		t := nt.Time
		return &t
	}
	return nil
}

// compile-time interface check
var _ AuthorRepository = (*PostgresAuthorRepo)(nil)
