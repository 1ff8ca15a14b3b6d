package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
)

// NewSyncTokenMiddleware はクエリパラメータtokenを同期トークンと照合するミドルウェアを返す。
// トークンが未設定の場合はすべてのリクエストを拒否する。
func NewSyncTokenMiddleware(token string, logger *slog.Logger) func(next http.Handler) http.Handler {
	expected := []byte(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			given := []byte(r.URL.Query().Get("token"))
			if len(expected) == 0 || subtle.ConstantTimeCompare(given, expected) != 1 {
				logger.Warn("同期トークンが不正です",
					slog.String("path", r.URL.Path),
					slog.String("remote_addr", clientIP(r)),
					slog.Bool("token_present", len(given) > 0),
				)
				WriteUnauthorized(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
