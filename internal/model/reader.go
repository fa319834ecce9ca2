// Package model はドメインモデルを定義する。
package model

import "time"

// Reader は図書館の利用者を表す。
// RegistrationDateは登録時に1回だけ設定され、以後変更されない。
type Reader struct {
	ID               string
	Name             string
	Email            string
	RegistrationDate time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
