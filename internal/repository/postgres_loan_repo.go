package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/toshokan/internal/model"
)

// PostgresLoanRepo はPostgreSQLを使用した貸出リポジトリ。
type PostgresLoanRepo struct {
	db *sql.DB
}

// NewPostgresLoanRepo はPostgresLoanRepoを生成する。
func NewPostgresLoanRepo(db *sql.DB) *PostgresLoanRepo {
	return &PostgresLoanRepo{db: db}
}

// loanColumns はloansテーブルのSELECT対象カラム。
const loanColumns = `id, book_id, reader_id, issue_date, planned_return_date,
        actual_return_date, created_at, updated_at`

// scanLoan は1行分の貸出を読み取る。
func scanLoan(scanner interface{ Scan(dest ...any) error }) (*model.Loan, error) {
	loan := &model.Loan{}
	var actualReturn sql.NullTime

	err := scanner.Scan(
		&loan.ID, &loan.BookID, &loan.ReaderID, &loan.IssueDate,
		&loan.PlannedReturnDate, &actualReturn, &loan.CreatedAt, &loan.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	loan.ActualReturnDate = nullTimeValue(actualReturn)
	return loan, nil
}

// FindByID は指定IDの貸出を取得する。見つからない場合はnilを返す。
func (r *PostgresLoanRepo) FindByID(ctx context.Context, id string) (*model.Loan, error) {
	loan, err := scanLoan(r.db.QueryRowContext(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("貸出の取得に失敗しました: %w", err)
	}
	return loan, nil
}

// FindActiveByBook は指定蔵書のアクティブな貸出を取得する。
// 存在しない場合はnilを返す。
func (r *PostgresLoanRepo) FindActiveByBook(ctx context.Context, bookID string) (*model.Loan, error) {
	loan, err := scanLoan(r.db.QueryRowContext(ctx,
		`SELECT `+loanColumns+` FROM loans
		 WHERE book_id = $1 AND actual_return_date IS NULL
		 ORDER BY issue_date, id
		 LIMIT 1`,
		bookID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("アクティブな貸出の検索に失敗しました: %w", err)
	}
	return loan, nil
}

// List は全貸出を貸出日降順で返す。
func (r *PostgresLoanRepo) List(ctx context.Context) ([]*model.Loan, error) {
	return r.list(ctx, `SELECT `+loanColumns+` FROM loans ORDER BY issue_date DESC`)
}

// ListByBook は指定蔵書の全貸出を貸出日降順で返す。
func (r *PostgresLoanRepo) ListByBook(ctx context.Context, bookID string) ([]*model.Loan, error) {
	return r.list(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE book_id = $1 ORDER BY issue_date DESC`,
		bookID)
}

// ListActive はアクティブな貸出を貸出日降順で返す。
func (r *PostgresLoanRepo) ListActive(ctx context.Context) ([]*model.Loan, error) {
	return r.list(ctx,
		`SELECT `+loanColumns+` FROM loans
		 WHERE actual_return_date IS NULL
		 ORDER BY issue_date DESC`)
}

// ListOverdue は基準日時点で延滞中の貸出を返す。
func (r *PostgresLoanRepo) ListOverdue(ctx context.Context, today time.Time) ([]*model.Loan, error) {
	return r.list(ctx,
		`SELECT `+loanColumns+` FROM loans
		 WHERE actual_return_date IS NULL AND planned_return_date < $1
		 ORDER BY planned_return_date`,
		model.DateOf(today))
}

// list はクエリを実行して貸出のスライスを返す共通処理。
func (r *PostgresLoanRepo) list(ctx context.Context, query string, args ...any) ([]*model.Loan, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("貸出一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var loans []*model.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("貸出一覧の読み取りに失敗しました: %w", err)
		}
		loans = append(loans, loan)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("貸出一覧の走査に失敗しました: %w", err)
	}

	return loans, nil
}

// CreateActive はアクティブな貸出を作成する。
// loans_one_active_per_book_idx（book_id WHERE actual_return_date IS NULL の
// 部分一意インデックス）により、同一蔵書に対する二重貸出は
// 並行リクエストであってもINSERT時点で拒否される。
// 事前チェックとINSERTの間に他のリクエストが割り込んでも
// 不変条件が破れないのはこのインデックスによる。
func (r *PostgresLoanRepo) CreateActive(ctx context.Context, loan *model.Loan) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO loans (id, book_id, reader_id, issue_date, planned_return_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		loan.ID, loan.BookID, loan.ReaderID, loan.IssueDate,
		loan.PlannedReturnDate, loan.CreatedAt, loan.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "loans_one_active_per_book_idx") {
			return model.NewBookAlreadyOnLoanError(loan.BookID)
		}
		return fmt.Errorf("貸出の作成に失敗しました: %w", err)
	}
	return nil
}

// MarkReturned は貸出に返却日を設定しRETURNED状態へ遷移させる。
// actual_return_dateがNULLの行のみを更新するガード付きUPDATEのため、
// 並行する返却リクエストのうち1つだけが成功する。
// 既に返却済みの場合はfalseを返す。
func (r *PostgresLoanRepo) MarkReturned(ctx context.Context, loanID string, returnDate time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE loans SET actual_return_date = $2, updated_at = now()
		 WHERE id = $1 AND actual_return_date IS NULL`,
		loanID, model.DateOf(returnDate),
	)
	if err != nil {
		return false, fmt.Errorf("返却の記録に失敗しました: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("返却の更新件数の取得に失敗しました: %w", err)
	}

	return affected == 1, nil
}

// compile-time interface check
var _ LoanRepository = (*PostgresLoanRepo)(nil)
