// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, conflict, not_found, lookup, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// エラーカテゴリ。入力を修正すれば再試行できるvalidation、
// 現在のデータ状態では遷移できないconflict、参照先が存在しないnot_found、
// 外部メタデータ取得に関するlookup、それ以外のsystemに分類する。
const (
	CategoryValidation = "validation"
	CategoryConflict   = "conflict"
	CategoryNotFound   = "not_found"
	CategoryLookup     = "lookup"
	CategorySystem     = "system"
)

// 定義済みエラーコード
const (
	ErrCodeBookAlreadyOnLoan      = "BOOK_ALREADY_ON_LOAN"
	ErrCodeLoanAlreadyReturned    = "LOAN_ALREADY_RETURNED"
	ErrCodeDuplicateISBN          = "DUPLICATE_ISBN"
	ErrCodeDuplicateEmail         = "DUPLICATE_EMAIL"
	ErrCodePlannedReturnNotFuture = "PLANNED_RETURN_NOT_FUTURE"
	ErrCodeLoanPeriodExceeded     = "LOAN_PERIOD_EXCEEDED"
	ErrCodeReturnDateInFuture     = "RETURN_DATE_IN_FUTURE"
	ErrCodeReturnDateBeforeIssue  = "RETURN_DATE_BEFORE_ISSUE"
	ErrCodeInvalidField           = "INVALID_FIELD"
	ErrCodeAuthorNotFound         = "AUTHOR_NOT_FOUND"
	ErrCodeBookNotFound           = "BOOK_NOT_FOUND"
	ErrCodeReaderNotFound         = "READER_NOT_FOUND"
	ErrCodeLoanNotFound           = "LOAN_NOT_FOUND"
	ErrCodeLookupFailed           = "LOOKUP_FAILED"
	ErrCodeLookupNotFound         = "LOOKUP_NOT_FOUND"
)

// NewBookAlreadyOnLoanError は貸出中の蔵書への重複貸出エラーを生成する。
func NewBookAlreadyOnLoanError(bookID string) *APIError {
	return &APIError{
		Code:     ErrCodeBookAlreadyOnLoan,
		Message:  fmt.Sprintf("この蔵書は既に貸出中です: %s", bookID),
		Category: CategoryConflict,
		Action:   "返却を待つか、他の蔵書を選択してください。",
	}
}

// NewLoanAlreadyReturnedError は返却済み貸出への再返却エラーを生成する。
func NewLoanAlreadyReturnedError(loanID string) *APIError {
	return &APIError{
		Code:     ErrCodeLoanAlreadyReturned,
		Message:  fmt.Sprintf("この貸出は既に返却済みです: %s", loanID),
		Category: CategoryConflict,
		Action:   "貸出IDを確認してください。返却は1回のみ実行できます。",
	}
}

// NewDuplicateISBNError はISBN重複エラーを生成する。
func NewDuplicateISBNError(isbn string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateISBN,
		Message:  fmt.Sprintf("同じISBNの蔵書が既に登録されています: %s", isbn),
		Category: CategoryConflict,
		Action:   "ISBNを確認してください。",
	}
}

// NewDuplicateEmailError はメールアドレス重複エラーを生成する。
func NewDuplicateEmailError(email string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateEmail,
		Message:  fmt.Sprintf("同じメールアドレスの利用者が既に登録されています: %s", email),
		Category: CategoryConflict,
		Action:   "メールアドレスを確認してください。",
	}
}

// NewPlannedReturnNotFutureError は返却予定日が未来でないエラーを生成する。
func NewPlannedReturnNotFutureError() *APIError {
	return &APIError{
		Code:     ErrCodePlannedReturnNotFuture,
		Message:  "返却予定日は貸出日より後の日付を指定してください。",
		Category: CategoryValidation,
		Action:   "明日以降の日付を指定してください。",
	}
}

// NewLoanPeriodExceededError は貸出期間超過エラーを生成する。
func NewLoanPeriodExceededError(maxDays int) *APIError {
	return &APIError{
		Code:     ErrCodeLoanPeriodExceeded,
		Message:  fmt.Sprintf("貸出期間が上限（%d日）を超えています。", maxDays),
		Category: CategoryValidation,
		Action:   fmt.Sprintf("返却予定日は貸出日から%d日以内で指定してください。", maxDays),
	}
}

// NewReturnDateInFutureError は未来日付での返却エラーを生成する。
func NewReturnDateInFutureError() *APIError {
	return &APIError{
		Code:     ErrCodeReturnDateInFuture,
		Message:  "返却日に未来の日付は指定できません。",
		Category: CategoryValidation,
		Action:   "今日以前の日付を指定してください。",
	}
}

// NewReturnDateBeforeIssueError は貸出日より前の返却エラーを生成する。
func NewReturnDateBeforeIssueError() *APIError {
	return &APIError{
		Code:     ErrCodeReturnDateBeforeIssue,
		Message:  "返却日に貸出日より前の日付は指定できません。",
		Category: CategoryValidation,
		Action:   "貸出日以降の日付を指定してください。",
	}
}

// NewInvalidFieldError はフィールド単位のバリデーションエラーを生成する。
func NewInvalidFieldError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidField,
		Message:  fmt.Sprintf("入力値が不正です: %s", reason),
		Category: CategoryValidation,
		Action:   "入力値を修正して再度お試しください。",
	}
}

// NewAuthorNotFoundError は著者未検出エラーを生成する。
func NewAuthorNotFoundError(authorID string) *APIError {
	return &APIError{
		Code:     ErrCodeAuthorNotFound,
		Message:  fmt.Sprintf("指定された著者が見つかりません: %s", authorID),
		Category: CategoryNotFound,
		Action:   "著者IDを確認してください。",
	}
}

// NewBookNotFoundError は蔵書未検出エラーを生成する。
func NewBookNotFoundError(bookID string) *APIError {
	return &APIError{
		Code:     ErrCodeBookNotFound,
		Message:  fmt.Sprintf("指定された蔵書が見つかりません: %s", bookID),
		Category: CategoryNotFound,
		Action:   "蔵書IDを確認してください。",
	}
}

// NewReaderNotFoundError は利用者未検出エラーを生成する。
func NewReaderNotFoundError(readerID string) *APIError {
	return &APIError{
		Code:     ErrCodeReaderNotFound,
		Message:  fmt.Sprintf("指定された利用者が見つかりません: %s", readerID),
		Category: CategoryNotFound,
		Action:   "利用者IDを確認してください。",
	}
}

// NewLoanNotFoundError は貸出未検出エラーを生成する。
func NewLoanNotFoundError(loanID string) *APIError {
	return &APIError{
		Code:     ErrCodeLoanNotFound,
		Message:  fmt.Sprintf("指定された貸出が見つかりません: %s", loanID),
		Category: CategoryNotFound,
		Action:   "貸出IDを確認してください。",
	}
}

// NewLookupFailedError は書誌メタデータ取得失敗エラーを生成する。
func NewLookupFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeLookupFailed,
		Message:  fmt.Sprintf("書誌メタデータの取得に失敗しました: %s", reason),
		Category: CategoryLookup,
		Action:   "しばらく待ってから再度お試しいただくか、手動で入力してください。",
	}
}

// NewLookupNotFoundError は書誌メタデータ未検出エラーを生成する。
func NewLookupNotFoundError(isbn string) *APIError {
	return &APIError{
		Code:     ErrCodeLookupNotFound,
		Message:  fmt.Sprintf("指定されたISBNの書誌メタデータが見つかりません: %s", isbn),
		Category: CategoryLookup,
		Action:   "ISBNを確認するか、手動で入力してください。",
	}
}
