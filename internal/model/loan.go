// Package model はドメインモデルを定義する。
package model

import "time"

// Loan は蔵書の貸出を表す。
// ActualReturnDateがnilの間はアクティブ（貸出中）であり、
// 返却により1回だけ設定された後は変更されない（終端状態）。
type Loan struct {
	ID                string
	BookID            string
	ReaderID          string
	IssueDate         time.Time
	PlannedReturnDate time.Time
	ActualReturnDate  *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsActive は貸出がアクティブ（未返却）かどうかを返す。
func (l *Loan) IsActive() bool {
	return l.ActualReturnDate == nil
}
