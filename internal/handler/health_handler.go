package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// healthCheckTimeout はDB疎通確認のタイムアウト。
const healthCheckTimeout = 2 * time.Second

// HealthChecker はDB疎通確認のインターフェース。*sql.DBが実装する。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// HealthHandler はヘルスチェックのHTTPハンドラー。
type HealthHandler struct {
	checker HealthChecker
	logger  *slog.Logger
}

// NewHealthHandler はHealthHandlerを生成する。
func NewHealthHandler(checker HealthChecker, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{checker: checker, logger: logger}
}

// Health はDBに疎通できれば200、できなければ503を返す。
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if err := h.checker.PingContext(ctx); err != nil {
		h.logger.Warn("health check failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
