// Package model はドメインモデルを定義する。
package model

import "time"

// DateOf は時刻から時分秒を落とし、UTCの日付（0時0分0秒）に正規化する。
// 貸出関連の日付はすべてDATE精度で比較するため、比較前にこの関数で揃える。
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
