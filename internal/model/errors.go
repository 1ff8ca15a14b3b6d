package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, certificate, sync, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeCertificateNotFound = "CERTIFICATE_NOT_FOUND"
	ErrCodeInvalidCertificate  = "INVALID_CERTIFICATE"
	ErrCodeInvalidRequest      = "INVALID_REQUEST"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeSyncFailed          = "SYNC_FAILED"
	ErrCodeRateLimitExceeded   = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal            = "INTERNAL_ERROR"
)

// NewCertificateNotFoundError は修了証未検出エラーを生成する。
func NewCertificateNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeCertificateNotFound,
		Message:  fmt.Sprintf("指定された修了証が見つかりません: %s", id),
		Category: "certificate",
		Action:   "修了証のURLを確認してください。",
	}
}

// NewInvalidCertificateError は修了証の入力値が不正な場合のエラーを生成する。
func NewInvalidCertificateError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCertificate,
		Message:  fmt.Sprintf("修了証の入力内容が不正です: %s", reason),
		Category: "validation",
		Action:   "受講者名、コース名、修了日（YYYY-MM-DD）を入力してください。",
	}
}

// NewInvalidRequestError はリクエストの解析に失敗した場合のエラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "フォーム形式（multipart/form-data または application/x-www-form-urlencoded）で送信してください。",
	}
}

// NewUnauthorizedError は同期トークンが不正な場合のエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証に失敗しました。",
		Category: "auth",
		Action:   "正しい同期トークンを指定してください。",
	}
}

// NewSyncFailedError はNotion同期が失敗した場合のエラーを生成する。
func NewSyncFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeSyncFailed,
		Message:  "Notionデータの同期に失敗しました。",
		Category: "sync",
		Action:   "Notionの連携設定とデータベースIDを確認してから再度お試しください。",
	}
}

// NewRateLimitExceededError はレート制限超過エラーを生成する。
func NewRateLimitExceededError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimitExceeded,
		Message:  "リクエストが多すぎます。",
		Category: "system",
		Action:   "Retry-Afterの秒数だけ待ってから再度お試しください。",
	}
}

// NewInternalError は内部エラーを生成する。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
