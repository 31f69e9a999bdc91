// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, conflict, not_found, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeWorkLogNotFound     = "WORKLOG_NOT_FOUND"
	ErrCodeWorkLogForbidden    = "WORKLOG_FORBIDDEN"
	ErrCodeTimerNotFound       = "TIMER_NOT_FOUND"
	ErrCodeTimerAlreadyRunning = "TIMER_ALREADY_RUNNING"
	ErrCodeTimerNotRunning     = "TIMER_NOT_RUNNING"
	ErrCodeDuplicateEmail      = "DUPLICATE_EMAIL"
	ErrCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeUserNotFound        = "USER_NOT_FOUND"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
)

// NewWorkLogNotFoundError はWorkLog未検出エラーを生成する。
// 所有権がない場合も同じエラーを返し、他ユーザーのデータの存在を漏らさない。
func NewWorkLogNotFoundError(workLogID string) *APIError {
	return &APIError{
		Code:     ErrCodeWorkLogNotFound,
		Message:  fmt.Sprintf("指定されたワークログが見つかりません: %s", workLogID),
		Category: "not_found",
		Action:   "ワークログIDを確認してください。",
	}
}

// NewWorkLogForbiddenError はWorkLogへのアクセス拒否エラーを生成する。
// 対象の存在・非存在は区別しない。
func NewWorkLogForbiddenError(workLogID string) *APIError {
	return &APIError{
		Code:     ErrCodeWorkLogForbidden,
		Message:  fmt.Sprintf("ワークログへのアクセス権がありません: %s", workLogID),
		Category: "auth",
		Action:   "自分が作成したワークログのみ操作できます。",
	}
}

// NewTimerNotFoundError はタイマー未検出エラーを生成する。
func NewTimerNotFoundError(timerID string) *APIError {
	return &APIError{
		Code:     ErrCodeTimerNotFound,
		Message:  fmt.Sprintf("指定されたタイマーが見つかりません: %s", timerID),
		Category: "not_found",
		Action:   "タイマーIDを確認してください。",
	}
}

// NewActiveTimerNotFoundError は稼働中タイマー未検出エラーを生成する。
func NewActiveTimerNotFoundError(workLogID string) *APIError {
	return &APIError{
		Code:     ErrCodeTimerNotFound,
		Message:  fmt.Sprintf("稼働中のタイマーがありません: %s", workLogID),
		Category: "not_found",
		Action:   "タイマーを開始してから操作してください。",
	}
}

// NewTimerAlreadyRunningError はタイマー重複起動エラーを生成する。
// 1つのワークログにつき稼働中タイマーは最大1つ。
func NewTimerAlreadyRunningError(workLogID string) *APIError {
	return &APIError{
		Code:     ErrCodeTimerAlreadyRunning,
		Message:  fmt.Sprintf("このワークログでは既にタイマーが稼働中です: %s", workLogID),
		Category: "conflict",
		Action:   "稼働中のタイマーを停止してから開始してください。",
	}
}

// NewTimerNotRunningError は停止済みタイマーへの停止要求エラーを生成する。
func NewTimerNotRunningError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeTimerNotRunning,
		Message:  fmt.Sprintf("タイマーは稼働中ではありません: %s", id),
		Category: "conflict",
		Action:   "停止できるのは稼働中のタイマーのみです。",
	}
}

// NewDuplicateEmailError はメールアドレス重複登録エラーを生成する。
func NewDuplicateEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateEmail,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "conflict",
		Action:   "別のメールアドレスで登録するか、ログインしてください。",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// ユーザー不存在とパスワード不一致は区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewValidationError は入力検証エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("入力内容が不正です: %s", reason),
		Category: "validation",
		Action:   "入力内容を修正して再度お試しください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}
