package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/certgen/internal/model"
)

// syncWriteTimeout は同期トリガーのレスポンス書き込み期限。
// サーバー全体のWriteTimeoutより長い同期でも集計結果を返せるよう、ルート単位で延長する。
const syncWriteTimeout = 15 * time.Minute

// SyncServiceInterface は同期ハンドラーが必要とするインターフェース。
// reconcile.Reconcilerが実装する。
type SyncServiceInterface interface {
	RunSync(ctx context.Context) (model.SyncSummary, error)
}

// SyncHandler はNotion同期トリガーのHTTPハンドラー。
type SyncHandler struct {
	syncer SyncServiceInterface
	logger *slog.Logger
	now    func() time.Time
}

// NewSyncHandler はSyncHandlerを生成する。
func NewSyncHandler(syncer SyncServiceInterface, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{
		syncer: syncer,
		logger: logger,
		now:    time.Now,
	}
}

// syncResponse は同期結果のAPIレスポンス。
type syncResponse struct {
	Message string `json:"message"`
	model.SyncSummary
}

// manualSyncResponse は手動同期結果のAPIレスポンス。所要時間を含む。
type manualSyncResponse struct {
	Message string `json:"message"`
	model.SyncSummary
	SyncDuration string `json:"syncDuration"`
}

// SyncNotion は同期を実行して集計結果を返す。
// GET /api/sync-notion
func (h *SyncHandler) SyncNotion(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.run(w, r, "sync-notion")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, syncResponse{
		Message:     "Notionデータの同期が完了しました。",
		SyncSummary: summary,
	})
}

// ManualSync はトークン認証済みの手動同期を実行する。
// POST /api/manual-sync?token=...
func (h *SyncHandler) ManualSync(w http.ResponseWriter, r *http.Request) {
	start := h.now()
	summary, ok := h.run(w, r, "manual-sync")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, manualSyncResponse{
		Message:      "手動同期が完了しました。",
		SyncSummary:  summary,
		SyncDuration: h.now().Sub(start).Round(time.Millisecond).String(),
	})
}

// run は同期を実行する。失敗時はエラーレスポンスを書き込みfalseを返す。
// 呼び出し元が切断しても同期は最後の行まで実行する。
func (h *SyncHandler) run(w http.ResponseWriter, r *http.Request, trigger string) (model.SyncSummary, bool) {
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Now().Add(syncWriteTimeout)); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.logger.Warn("failed to extend write deadline",
			slog.String("trigger", trigger),
			slog.String("error", err.Error()),
		)
	}

	summary, err := h.syncer.RunSync(context.WithoutCancel(r.Context()))
	if err != nil {
		h.logger.Error("sync request failed",
			slog.String("trigger", trigger),
			slog.String("error", err.Error()),
		)
		writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewSyncFailedError())
		return model.SyncSummary{}, false
	}
	return summary, true
}
