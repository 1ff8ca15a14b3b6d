package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/certgen/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	StatusRecorder    middleware.StatusRecorder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	ManualSyncToken   string
	// trueの場合のみX-Forwarded-For等のヘッダーからクライアントIPを決定する。
	// リバースプロキシ配下でない場合に有効にするとレート制限を回避される。
	TrustProxyHeaders bool

	// ヘルスチェック・メトリクス
	HealthChecker  HealthChecker
	MetricsHandler http.Handler

	// 修了証
	CertificateService CertificateServiceInterface
	Renderer           PageRenderer
	AppURL             string

	// 同期
	SyncService SyncServiceInterface
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	(RealIP) → Logging → Recovery → SecurityHeaders → CORS → RateLimit(General)
//
// RealIPはTrustProxyHeadersが有効な場合のみ適用する。
// 同期トリガーには同期専用のレート制限を追加し、手動同期はさらにトークン認証を行う。
// /health と /metrics はレート制限の対象外とする。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	if deps.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.NewLoggingMiddleware(logger, deps.StatusRecorder))
	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	healthHandler := NewHealthHandler(deps.HealthChecker, logger)
	certHandler := NewCertificateHandler(deps.CertificateService, deps.Renderer, deps.AppURL, logger)
	viewHandler := NewViewHandler(deps.CertificateService, deps.Renderer, deps.AppURL, logger)
	syncHandler := NewSyncHandler(deps.SyncService, logger)

	// --- レート制限なし ---
	r.Get("/health", healthHandler.Health)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- レート制限あり ---
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// HTMLページ
		r.Get("/", viewHandler.Form)
		r.Get("/certificates/{id}", viewHandler.Certificate)

		// 修了証API
		r.Route("/api/certificates", func(r chi.Router) {
			r.Post("/", certHandler.Create)
			r.Get("/{id}", certHandler.Get)
		})

		// 同期トリガー（同期専用レート制限を追加）
		r.Group(func(r chi.Router) {
			r.Use(deps.RateLimiter.SyncMiddleware())

			r.Get("/api/sync-notion", syncHandler.SyncNotion)
			r.With(middleware.NewSyncTokenMiddleware(deps.ManualSyncToken, logger)).
				Post("/api/manual-sync", syncHandler.ManualSync)
		})
	})

	return r
}
