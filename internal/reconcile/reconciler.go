// Package reconcile はNotionデータベースと修了証テーブルの同期処理を提供する。
// 同期はNotionを正とする一方向で、行ごとに独立して作成・更新・書き戻しを行う。
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/certgen/internal/model"
	"github.com/hitoshi/certgen/internal/notion"
	"github.com/hitoshi/certgen/internal/repository"
)

// RowSource は同期元の行データを提供するインターフェース。
// notion.Clientが実装する。
type RowSource interface {
	RetrieveDatabase(ctx context.Context, databaseID string) (*notion.Database, error)
	QueryDatabase(ctx context.Context, databaseID string) ([]notion.Page, error)
	UpdatePageURL(ctx context.Context, pageID, property, value string) error
}

// SyncRecorder は同期結果の記録インターフェース。
type SyncRecorder interface {
	RecordSyncRun(summary model.SyncSummary, duration time.Duration)
	RecordSyncFailure()
}

// Config は同期処理の設定。
type Config struct {
	Enabled    bool   // Notion連携の有効/無効
	DatabaseID string // 同期元のNotionデータベースID
	AppURL     string // 書き戻すURLのベース
}

// Reconciler はNotionの行を修了証として取り込む。
// 同時実行の排他は行わない（呼び出し側の責務）。
type Reconciler struct {
	source   RowSource
	repo     repository.CertificateRepository
	recorder SyncRecorder
	logger   *slog.Logger
	cfg      Config
	newID    func() string
}

// NewReconciler はReconcilerの新しいインスタンスを生成する。
// recorderがnilの場合は記録を行わない。
func NewReconciler(
	source RowSource,
	repo repository.CertificateRepository,
	recorder SyncRecorder,
	logger *slog.Logger,
	cfg Config,
) *Reconciler {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Reconciler{
		source:   source,
		repo:     repo,
		recorder: recorder,
		logger:   logger,
		cfg:      cfg,
		newID:    func() string { return uuid.New().String() },
	}
}

// rowOutcome は1行の処理結果。
type rowOutcome int

const (
	outcomeSkipped rowOutcome = iota
	outcomeCreated
	outcomeUpdated
)

// RunSync は同期を1回実行し、集計結果を返す。
// 連携が無効な場合は外部呼び出しを一切行わずゼロ値を返す。
// データベースの存在確認・クエリに失敗した場合は行を処理する前にエラーを返す。
// 行単位の失敗はerrorsに計上して処理を継続する。
func (r *Reconciler) RunSync(ctx context.Context) (model.SyncSummary, error) {
	var summary model.SyncSummary

	if !r.cfg.Enabled {
		r.logger.Info("Notion連携が無効のため同期をスキップします")
		return summary, nil
	}

	start := time.Now()
	r.logger.Info("Notion同期を開始します",
		slog.String("database_id", r.cfg.DatabaseID),
	)

	if _, err := r.source.RetrieveDatabase(ctx, r.cfg.DatabaseID); err != nil {
		r.recorder.RecordSyncFailure()
		return summary, fmt.Errorf("Notionデータベースを参照できません: %w", err)
	}

	pages, err := r.source.QueryDatabase(ctx, r.cfg.DatabaseID)
	if err != nil {
		r.recorder.RecordSyncFailure()
		return summary, fmt.Errorf("Notionデータベースの行を取得できません: %w", err)
	}

	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			r.logger.Warn("Notion同期を中断しました",
				slog.Int("processed_rows", summary.ProcessedRows),
				slog.Int("total_rows", len(pages)),
			)
			r.recorder.RecordSyncRun(summary, time.Since(start))
			return summary, err
		}

		outcome, rowErr := r.processRow(ctx, page)
		switch outcome {
		case outcomeCreated:
			summary.Created++
		case outcomeUpdated:
			summary.Updated++
		}
		if rowErr != nil {
			summary.Errors++
		}
		summary.ProcessedRows++
	}

	duration := time.Since(start)
	r.recorder.RecordSyncRun(summary, duration)
	r.logger.Info("Notion同期が完了しました",
		slog.Int("processed_rows", summary.ProcessedRows),
		slog.Int("created", summary.Created),
		slog.Int("updated", summary.Updated),
		slog.Int("errors", summary.Errors),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return summary, nil
}

var errMissingFields = errors.New("required fields are missing")

// processRow は1行を取り込み、書き戻しまで行う。
// ローカルへの書き込みが成功した後に書き戻しが失敗した場合は、
// 作成/更新の結果とエラーの両方を返す。
func (r *Reconciler) processRow(ctx context.Context, page notion.Page) (rowOutcome, error) {
	fields, present := extract(page)
	if page.ID == "" || !allPresent(present) {
		fieldAttrs := make([]any, 0, len(requiredProps))
		for _, name := range requiredProps {
			fieldAttrs = append(fieldAttrs, slog.Bool(name, present[name]))
		}
		r.logger.Warn("必須項目が不足している行をスキップします",
			slog.String("page_id", page.ID),
			slog.Group("fields", fieldAttrs...),
		)
		return outcomeSkipped, errMissingFields
	}

	cert, outcome, err := r.upsert(ctx, page.ID, fields)
	if err != nil {
		r.logger.Error("修了証の保存に失敗しました",
			slog.String("page_id", page.ID),
			slog.String("error", err.Error()),
		)
		return outcomeSkipped, err
	}

	certURL := model.CertificateURL(r.cfg.AppURL, cert.ID)
	if err := r.source.UpdatePageURL(ctx, page.ID, PropCertificateURL, certURL); err != nil {
		r.logger.Error("修了証URLの書き戻しに失敗しました",
			slog.String("page_id", page.ID),
			slog.String("certificate_id", cert.ID),
			slog.String("error", err.Error()),
		)
		return outcome, err
	}

	return outcome, nil
}

// upsert は外部IDで既存の修了証を探し、あれば5項目を置き換え、なければ作成する。
func (r *Reconciler) upsert(ctx context.Context, pageID string, fields model.CertificateFields) (*model.Certificate, rowOutcome, error) {
	existing, err := r.repo.FindByExternalID(ctx, pageID)
	if err != nil {
		return nil, outcomeSkipped, err
	}

	if existing != nil {
		updated, err := r.repo.UpdateByExternalID(ctx, pageID, fields)
		if err != nil {
			return nil, outcomeSkipped, err
		}
		if updated == nil {
			return nil, outcomeSkipped, fmt.Errorf("certificate for page %s disappeared during update", pageID)
		}
		return updated, outcomeUpdated, nil
	}

	cert := &model.Certificate{
		ID:               r.newID(),
		ExternalSourceID: pageID,
	}
	fields.Apply(cert)
	if err := r.repo.Create(ctx, cert); err != nil {
		return nil, outcomeSkipped, err
	}
	return cert, outcomeCreated, nil
}

func allPresent(present map[string]bool) bool {
	for _, ok := range present {
		if !ok {
			return false
		}
	}
	return true
}

type nopRecorder struct{}

func (nopRecorder) RecordSyncRun(model.SyncSummary, time.Duration) {}
func (nopRecorder) RecordSyncFailure()                             {}
