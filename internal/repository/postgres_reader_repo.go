package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/toshokan/internal/model"
)

// PostgresReaderRepo はPostgreSQLを使用した利用者リポジトリ。
type PostgresReaderRepo struct {
	db *sql.DB
}

// NewPostgresReaderRepo はPostgresReaderRepoを生成する。
func NewPostgresReaderRepo(db *sql.DB) *PostgresReaderRepo {
	return &PostgresReaderRepo{db: db}
}

// FindByID は指定IDの利用者を取得する。見つからない場合はnilを返す。
func (r *PostgresReaderRepo) FindByID(ctx context.Context, id string) (*model.Reader, error) {
	reader := &model.Reader{}

	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, registration_date, created_at, updated_at
		 FROM readers WHERE id = $1`,
		id,
	).Scan(&reader.ID, &reader.Name, &reader.Email, &reader.RegistrationDate,
		&reader.CreatedAt, &reader.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("利用者の取得に失敗しました: %w", err)
	}

	return reader, nil
}

// List は全利用者を名前順で返す。
func (r *PostgresReaderRepo) List(ctx context.Context) ([]*model.Reader, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, email, registration_date, created_at, updated_at
		 FROM readers ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("利用者一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var readers []*model.Reader
	for rows.Next() {
		reader := &model.Reader{}
		if err := rows.Scan(&reader.ID, &reader.Name, &reader.Email,
			&reader.RegistrationDate, &reader.CreatedAt, &reader.UpdatedAt); err != nil {
			return nil, fmt.Errorf("利用者一覧の読み取りに失敗しました: %w", err)
		}
		readers = append(readers, reader)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("利用者一覧の走査に失敗しました: %w", err)
	}

	return readers, nil
}

// Create は利用者を作成する。registration_dateはこの時点で確定する。
// メールアドレス重複はDUPLICATE_EMAILエラーとして返す。
func (r *PostgresReaderRepo) Create(ctx context.Context, reader *model.Reader) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO readers (id, name, email, registration_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		reader.ID, reader.Name, reader.Email, reader.RegistrationDate,
		reader.CreatedAt, reader.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "readers_email_key") {
			return model.NewDuplicateEmailError(reader.Email)
		}
		return fmt.Errorf("利用者の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は利用者の名前とメールアドレスを更新する。
// registration_dateは更新対象に含めない。
func (r *PostgresReaderRepo) Update(ctx context.Context, reader *model.Reader) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE readers SET name = $2, email = $3, updated_at = now() WHERE id = $1`,
		reader.ID, reader.Name, reader.Email,
	)
	if err != nil {
		if isUniqueViolation(err, "readers_email_key") {
			return model.NewDuplicateEmailError(reader.Email)
		}
		return fmt.Errorf("利用者の更新に失敗しました: %w", err)
	}
	return nil
}

// DeleteByID は指定IDの利用者を削除する。関連するloansはCASCADE削除される。
func (r *PostgresReaderRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM readers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("利用者の削除に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ReaderRepository = (*PostgresReaderRepo)(nil)
