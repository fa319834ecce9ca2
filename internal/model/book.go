// Package model はドメインモデルを定義する。
package model

import "time"

// Book は蔵書を表す。
type Book struct {
	ID              string
	Title           string
	ISBN            string
	PublicationYear int
	Pages           int
	Genre           Genre
	AuthorID        string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Genre は書籍のジャンルを表す。
type Genre string

const (
	// GenreFiction は文芸書。
	GenreFiction Genre = "fiction"
	// GenreNonFiction はノンフィクション。
	GenreNonFiction Genre = "non_fiction"
	// GenreFantasy はファンタジー。
	GenreFantasy Genre = "fantasy"
	// GenreSciFi はSF。
	GenreSciFi Genre = "sci_fi"
	// GenreMystery はミステリー。
	GenreMystery Genre = "mystery"
	// GenreRomance はロマンス。
	GenreRomance Genre = "romance"
	// GenreThriller はスリラー。
	GenreThriller Genre = "thriller"
	// GenreBiography は伝記。
	GenreBiography Genre = "biography"
	// GenreHistory は歴史書。
	GenreHistory Genre = "history"
	// GenreOther はその他。
	GenreOther Genre = "other"
)

// validGenres は受け付けるジャンルの集合。
var validGenres = map[Genre]bool{
	GenreFiction:    true,
	GenreNonFiction: true,
	GenreFantasy:    true,
	GenreSciFi:      true,
	GenreMystery:    true,
	GenreRomance:    true,
	GenreThriller:   true,
	GenreBiography:  true,
	GenreHistory:    true,
	GenreOther:      true,
}

// IsValidGenre はジャンル文字列が定義済みの値かどうかを返す。
func IsValidGenre(g Genre) bool {
	return validGenres[g]
}

// BookStatus は蔵書の貸出状態を表す。
// available（在架）、on_loan（貸出中）、overdue（延滞中）のいずれか1つに
// 必ず分類される。
type BookStatus string

const (
	// BookStatusAvailable は貸出可能な状態。アクティブな貸出が存在しない。
	BookStatusAvailable BookStatus = "available"
	// BookStatusOnLoan は貸出中の状態。返却予定日を過ぎていない。
	BookStatusOnLoan BookStatus = "on_loan"
	// BookStatusOverdue は延滞中の状態。返却予定日を過ぎている。
	BookStatusOverdue BookStatus = "overdue"
)

// BookWithLoans は蔵書とその全貸出履歴を結合したビュー。
// 貸出状態の判定に使用する。
type BookWithLoans struct {
	Book  Book
	Loans []Loan
}
