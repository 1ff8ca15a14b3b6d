package middleware

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/hitoshi/certgen/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// ハンドラーとミドルウェアのどちらで発生したエラーも同じ形で返す。
type ErrorResponseBody struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

func newErrorResponseBody(apiErr *model.APIError) ErrorResponseBody {
	return ErrorResponseBody{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	}
}

// WriteErrorResponse はAPIErrorを統一エラーフォーマットで書き込む。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(newErrorResponseBody(apiErr))
}

// WriteUnauthorized は同期トークン不一致時の401レスポンスを書き込む。
func WriteUnauthorized(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
}

// WriteRateLimitExceeded は429レスポンスを書き込む。
// Retry-Afterは秒単位に切り上げ、最低1秒とする。
func WriteRateLimitExceeded(w http.ResponseWriter, retryAfter time.Duration) {
	sec := int(math.Ceil(retryAfter.Seconds()))
	if sec < 1 {
		sec = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(sec))
	WriteErrorResponse(w, http.StatusTooManyRequests, model.NewRateLimitExceededError())
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録する。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
}
