// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/toshokan/internal/model"
)

// AuthorRepository は著者データの永続化インターフェース。
type AuthorRepository interface {
	// FindByID は指定IDの著者を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Author, error)

	// List は全著者を名前順で返す。
	List(ctx context.Context) ([]*model.Author, error)

	// Create は著者を作成する。
	Create(ctx context.Context, author *model.Author) error

	// Update は著者情報を更新する。
	Update(ctx context.Context, author *model.Author) error

	// DeleteByID は指定IDの著者を削除する。
	// 関連するbooks、loansはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// BookRepository は蔵書データの永続化インターフェース。
type BookRepository interface {
	// FindByID は指定IDの蔵書を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Book, error)

	// FindByISBN はISBNで蔵書を検索する。見つからない場合はnilを返す。
	FindByISBN(ctx context.Context, isbn string) (*model.Book, error)

	// List は全蔵書を出版年降順・タイトル順で返す。
	List(ctx context.Context) ([]*model.Book, error)

	// ListPublishedAfter は指定年より後に出版され、かつページ数が
	// minPagesを超える蔵書を返す。
	ListPublishedAfter(ctx context.Context, year, minPages int) ([]*model.Book, error)

	// FindWithLoans は蔵書とその全貸出履歴を取得する。
	// 蔵書が見つからない場合はnilを返す。
	FindWithLoans(ctx context.Context, id string) (*model.BookWithLoans, error)

	// ListWithLoans は全蔵書をそれぞれの全貸出履歴付きで返す。
	ListWithLoans(ctx context.Context) ([]model.BookWithLoans, error)

	// Create は蔵書を作成する。
	// ISBNが重複している場合はDUPLICATE_ISBNエラーを返す。
	Create(ctx context.Context, book *model.Book) error

	// Update は蔵書情報を更新する。
	// ISBNが他の蔵書と重複する場合はDUPLICATE_ISBNエラーを返す。
	Update(ctx context.Context, book *model.Book) error

	// DeleteByID は指定IDの蔵書を削除する。関連するloansはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// ReaderRepository は利用者データの永続化インターフェース。
type ReaderRepository interface {
	// FindByID は指定IDの利用者を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Reader, error)

	// List は全利用者を名前順で返す。
	List(ctx context.Context) ([]*model.Reader, error)

	// Create は利用者を作成する。registration_dateはこの時点で確定する。
	// メールアドレスが重複している場合はDUPLICATE_EMAILエラーを返す。
	Create(ctx context.Context, reader *model.Reader) error

	// Update は利用者の名前とメールアドレスを更新する。
	// registration_dateは更新対象に含めない（登録時に1回だけ設定される）。
	Update(ctx context.Context, reader *model.Reader) error

	// DeleteByID は指定IDの利用者を削除する。関連するloansはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// LoanRepository は貸出データの永続化インターフェース。
type LoanRepository interface {
	// FindByID は指定IDの貸出を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Loan, error)

	// FindActiveByBook は指定蔵書のアクティブな貸出を取得する。
	// 存在しない場合はnilを返す。
	FindActiveByBook(ctx context.Context, bookID string) (*model.Loan, error)

	// List は全貸出を貸出日降順で返す。
	List(ctx context.Context) ([]*model.Loan, error)

	// ListByBook は指定蔵書の全貸出を貸出日降順で返す。
	ListByBook(ctx context.Context, bookID string) ([]*model.Loan, error)

	// ListActive はアクティブな貸出を貸出日降順で返す。
	ListActive(ctx context.Context) ([]*model.Loan, error)

	// ListOverdue は基準日時点で延滞中の貸出を返す。
	// actual_return_dateがNULLかつplanned_return_date < todayの貸出が対象。
	ListOverdue(ctx context.Context, today time.Time) ([]*model.Loan, error)

	// CreateActive はアクティブな貸出を作成する。
	// 部分一意インデックス（book_id WHERE actual_return_date IS NULL）により
	// 同一蔵書への二重貸出はINSERT時点で拒否され、
	// BOOK_ALREADY_ON_LOANエラーとして返す。
	CreateActive(ctx context.Context, loan *model.Loan) error

	// MarkReturned は貸出に返却日を設定しRETURNED状態へ遷移させる。
	// actual_return_dateがNULLの行のみを更新するガード付きUPDATEで、
	// 既に返却済みの場合はfalseを返す（更新は行われない）。
	MarkReturned(ctx context.Context, loanID string, returnDate time.Time) (bool, error)
}

// AuthorWithBookCount は著者と蔵書数を結合した集計行。
type AuthorWithBookCount struct {
	model.Author
	BooksCount int
}

// AuthorWithTotalPages は著者と蔵書の総ページ数を結合した集計行。
type AuthorWithTotalPages struct {
	model.Author
	TotalPages int
}

// ReaderWithActiveLoanCount は利用者とアクティブな貸出数を結合した集計行。
type ReaderWithActiveLoanCount struct {
	model.Reader
	ActiveLoansCount int
}

// BookLoanStats は蔵書と貸出統計を結合した集計行。
type BookLoanStats struct {
	model.Book
	TotalLoans   int
	ActiveLoans  int
	OverdueLoans int
}

// PopularBook は蔵書と累計貸出数を結合した集計行。
type PopularBook struct {
	model.Book
	LoanCount int
}

// ReportRepository は読み取り専用の集計クエリのインターフェース。
// 集計はすべてスナップショット読み取りで、追加の不変条件は持たない。
type ReportRepository interface {
	// AuthorsWithBookCount は各著者の蔵書数を蔵書数降順で返す。
	AuthorsWithBookCount(ctx context.Context) ([]AuthorWithBookCount, error)

	// TopAuthorsByTotalPages は蔵書の総ページ数が多い著者を上位limit件返す。
	TopAuthorsByTotalPages(ctx context.Context, limit int) ([]AuthorWithTotalPages, error)

	// ReadersWithOverdueLoans は基準日時点で延滞中の貸出を持つ利用者を返す。
	ReadersWithOverdueLoans(ctx context.Context, today time.Time) ([]*model.Reader, error)

	// ReadersWithActiveLoans はアクティブな貸出を1件以上持つ利用者を
	// 貸出数降順で返す。
	ReadersWithActiveLoans(ctx context.Context) ([]ReaderWithActiveLoanCount, error)

	// BookLoanStatistics は各蔵書の累計・アクティブ・延滞の貸出数を返す。
	BookLoanStatistics(ctx context.Context, today time.Time) ([]BookLoanStats, error)

	// PopularBooks は累計貸出数がminLoans以上の蔵書を貸出数降順で返す。
	PopularBooks(ctx context.Context, minLoans int) ([]PopularBook, error)
}
