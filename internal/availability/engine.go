// Package availability は蔵書の貸出状態を判定する純粋関数群を提供する。
// 現在日付は隠れたクロックから読まず、すべての関数に引数として渡す。
package availability

import (
	"time"

	"github.com/hitoshi/toshokan/internal/model"
)

// LoanIsActive は貸出がアクティブ（未返却）かどうかを返す。
func LoanIsActive(loan *model.Loan) bool {
	return loan.ActualReturnDate == nil
}

// LoanIsOverdue は貸出が延滞中かどうかを返す。
// 返却済みの貸出は返却がどれだけ遅れていても延滞とはみなさない。
// 返却予定日当日はまだ延滞ではない（today > plannedの厳密比較）。
func LoanIsOverdue(loan *model.Loan, today time.Time) bool {
	if loan.ActualReturnDate != nil {
		return false
	}
	return model.DateOf(today).After(model.DateOf(loan.PlannedReturnDate))
}

// ActiveLoan は貸出履歴からアクティブな貸出を1件選んで返す。
// アクティブな貸出が存在しない場合はnilを返す。
//
// アクティブな貸出は蔵書ごとに最大1件という不変条件があるが、
// データ不整合で複数存在した場合もクラッシュせず、貸出日が最も古いもの
// （同日の場合はIDの辞書順で最小のもの）を決定的に選び、
// 第2戻り値で不整合を報告する。
func ActiveLoan(loans []model.Loan) (*model.Loan, bool) {
	var picked *model.Loan
	activeCount := 0

	for i := range loans {
		loan := &loans[i]
		if !LoanIsActive(loan) {
			continue
		}
		activeCount++

		if picked == nil {
			picked = loan
			continue
		}

		pickedDate := model.DateOf(picked.IssueDate)
		loanDate := model.DateOf(loan.IssueDate)
		if loanDate.Before(pickedDate) || (loanDate.Equal(pickedDate) && loan.ID < picked.ID) {
			picked = loan
		}
	}

	return picked, activeCount > 1
}

// BookStatus は貸出履歴と基準日から蔵書の状態を計算する。
// アクティブな貸出がなければavailable、返却予定日を過ぎていればoverdue、
// それ以外はon_loanを返す。必ずいずれか1つに分類される。
func BookStatus(loans []model.Loan, today time.Time) model.BookStatus {
	active, _ := ActiveLoan(loans)
	if active == nil {
		return model.BookStatusAvailable
	}
	if LoanIsOverdue(active, today) {
		return model.BookStatusOverdue
	}
	return model.BookStatusOnLoan
}

// AvailableBooks は貸出可能な蔵書のみを返す。
func AvailableBooks(books []model.BookWithLoans, today time.Time) []model.Book {
	var results []model.Book
	for _, b := range books {
		if BookStatus(b.Loans, today) == model.BookStatusAvailable {
			results = append(results, b.Book)
		}
	}
	return results
}

// OnLoanBooks は貸出中の蔵書を返す。延滞中の蔵書も含む。
func OnLoanBooks(books []model.BookWithLoans, today time.Time) []model.Book {
	var results []model.Book
	for _, b := range books {
		if BookStatus(b.Loans, today) != model.BookStatusAvailable {
			results = append(results, b.Book)
		}
	}
	return results
}
