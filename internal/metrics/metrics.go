// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hitoshi/certgen/internal/model"
)

// Collector はPrometheusメトリクスを収集する実装。
// reconcile.SyncRecorder、certificate.CreationRecorder、middleware.StatusRecorderを満たす。
type Collector struct {
	syncRuns        *prometheus.CounterVec
	syncRows        *prometheus.CounterVec
	syncDuration    prometheus.Histogram
	lastSyncSuccess prometheus.Gauge
	certsCreated    *prometheus.CounterVec
	httpStatus      *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		syncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "certgen_sync_runs_total",
			Help: "Notion同期の実行回数（result=success|failure）",
		}, []string{"result"}),
		syncRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "certgen_sync_rows_total",
			Help: "Notion同期で処理した行数（outcome=processed|created|updated|error）",
		}, []string{"outcome"}),
		syncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "certgen_sync_duration_seconds",
			Help:    "Notion同期1回あたりの所要時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		lastSyncSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "certgen_sync_last_success_timestamp_seconds",
			Help: "最後にNotion同期が完了した時刻（UNIX秒）",
		}),
		certsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "certgen_certificates_created_total",
			Help: "作成された修了証の数（source=manual|notion）",
		}, []string{"source"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "certgen_http_responses_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.syncRuns,
		c.syncRows,
		c.syncDuration,
		c.lastSyncSuccess,
		c.certsCreated,
		c.httpStatus,
	)

	return c
}

// RecordSyncRun は完了した同期の集計結果を記録する。
func (c *Collector) RecordSyncRun(summary model.SyncSummary, duration time.Duration) {
	c.syncRuns.WithLabelValues("success").Inc()
	c.syncRows.WithLabelValues("processed").Add(float64(summary.ProcessedRows))
	c.syncRows.WithLabelValues("created").Add(float64(summary.Created))
	c.syncRows.WithLabelValues("updated").Add(float64(summary.Updated))
	c.syncRows.WithLabelValues("error").Add(float64(summary.Errors))
	c.certsCreated.WithLabelValues("notion").Add(float64(summary.Created))
	c.syncDuration.Observe(duration.Seconds())
	c.lastSyncSuccess.SetToCurrentTime()
}

// RecordSyncFailure は行の処理前に失敗した同期を記録する。
func (c *Collector) RecordSyncFailure() {
	c.syncRuns.WithLabelValues("failure").Inc()
}

// RecordCertificateCreated は修了証の作成を記録する。
func (c *Collector) RecordCertificateCreated(source string) {
	c.certsCreated.WithLabelValues(source).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
