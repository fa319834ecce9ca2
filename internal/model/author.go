// Package model はドメインモデルを定義する。
package model

import "time"

// Author は書籍の著者を表す。
type Author struct {
	ID        string
	Name      string
	Country   string
	BirthDate *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
