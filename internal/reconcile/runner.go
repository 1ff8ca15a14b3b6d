package reconcile

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/certgen/internal/model"
)

// Syncer は同期1回分の実行インターフェース。
type Syncer interface {
	RunSync(ctx context.Context) (model.SyncSummary, error)
}

// Runner は一定間隔で同期を実行する。
// 失敗した回はログに記録して次の周期を待つ（回内での再試行はしない）。
type Runner struct {
	syncer Syncer
	logger *slog.Logger
}

// NewRunner はRunnerの新しいインスタンスを生成する。
func NewRunner(syncer Syncer, logger *slog.Logger) *Runner {
	return &Runner{
		syncer: syncer,
		logger: logger,
	}
}

// Start は指定間隔のティッカーで同期を起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (r *Runner) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info("同期ワーカーを開始しました",
		slog.Duration("interval", interval),
	)

	// 起動直後に1回実行
	r.runAndLog(ctx)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("同期ワーカーを停止しました")
			return
		case <-ticker.C:
			r.runAndLog(ctx)
		}
	}
}

// RunOnce は同期を1回実行する。
func (r *Runner) RunOnce(ctx context.Context) error {
	_, err := r.syncer.RunSync(ctx)
	return err
}

func (r *Runner) runAndLog(ctx context.Context) {
	if err := r.RunOnce(ctx); err != nil {
		r.logger.Error("同期の実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}
}
