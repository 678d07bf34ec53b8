// Package model はドメインモデルを定義する。
package model

import "fmt"

// FieldError は入力フィールド単位のバリデーションエラーを表す。
type FieldError struct {
	Field   string
	Message string
}

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string       // エラーコード
	Message  string       // エラーメッセージ
	Category string       // カテゴリ: auth, validation, post, user, system
	Action   string       // ユーザー向け対処方法
	Errors   []FieldError // フィールド単位の詳細（バリデーションエラー時のみ）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation         = "VALIDATION_FAILED"
	ErrCodeInvalidQuery       = "INVALID_QUERY"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodePostNotFound       = "POST_NOT_FOUND"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeDuplicateEmail     = "DUPLICATE_EMAIL"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// NewValidationError は入力値検証エラーを生成する。
func NewValidationError(fields ...FieldError) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  "Validation failed",
		Category: "validation",
		Action:   "入力内容を確認してください。",
		Errors:   fields,
	}
}

// NewInvalidQueryError は検索クエリが短すぎる場合のエラーを生成する。
func NewInvalidQueryError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidQuery,
		Message:  fmt.Sprintf("Search query must be at least %d characters long", SearchQueryMinLen),
		Category: "validation",
		Action:   "検索キーワードを2文字以上入力してください。",
	}
}

// NewUnauthorizedError は認証情報が無い・無効な場合のエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Token is not valid",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewInvalidCredentialsError はログイン失敗エラーを生成する。
// メールアドレスとパスワードのどちらが誤っているかは明かさない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Invalid credentials",
		Category: "auth",
		Action:   "メールアドレスとパスワードを確認してください。",
	}
}

// NewForbiddenError は所有者以外による変更操作のエラーを生成する。
func NewForbiddenError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  message,
		Category: "auth",
		Action:   "自分が所有するリソースのみ操作できます。",
	}
}

// NewPostNotFoundError は投稿が見つからない場合のエラーを生成する。
func NewPostNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodePostNotFound,
		Message:  "Post not found",
		Category: "post",
		Action:   "投稿IDを確認してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "User not found",
		Category: "user",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewDuplicateEmailError は登録済みメールアドレスでの登録エラーを生成する。
func NewDuplicateEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateEmail,
		Message:  "User already exists with this email",
		Category: "auth",
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログのみに記録すること。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "Server error",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
