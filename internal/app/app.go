package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/certgen/internal/certificate"
	"github.com/hitoshi/certgen/internal/config"
	"github.com/hitoshi/certgen/internal/database"
	"github.com/hitoshi/certgen/internal/handler"
	"github.com/hitoshi/certgen/internal/logger"
	"github.com/hitoshi/certgen/internal/metrics"
	"github.com/hitoshi/certgen/internal/middleware"
	"github.com/hitoshi/certgen/internal/notion"
	"github.com/hitoshi/certgen/internal/reconcile"
	"github.com/hitoshi/certgen/internal/render"
	"github.com/hitoshi/certgen/internal/repository"
	"github.com/hitoshi/certgen/internal/security"
)

const (
	// shutdownTimeout はグレースフルシャットダウンで処理中リクエストを待つ上限。
	shutdownTimeout = 30 * time.Second
	// dbConnectTimeout は起動時のDB疎通確認の上限。
	dbConnectTimeout = 10 * time.Second
)

// Init はアプリケーションの初期化を行う。
// .envを読み込んだうえで環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. .envファイルと環境変数から設定を読み込む
	config.LoadEnvFiles()
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.SetLevel(cfg.LogLevel)
	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("app_url", cfg.AppURL),
		slog.Bool("notion_integration_enabled", cfg.NotionIntegrationEnabled),
	)

	switch cmd {
	case CommandWorker:
		return runWorker(cfg)
	case CommandSync:
		return runSync(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// components はサブコマンド間で共有する依存関係。
type components struct {
	db         *sql.DB
	repo       *repository.PostgresCertificateRepo
	registry   *prometheus.Registry
	collector  *metrics.Collector
	reconciler *reconcile.Reconciler
}

// wire はDB接続を開き、同期処理までの依存関係を組み立てる。
// 呼び出し側はdb.Closeを行うこと。
func wire(cfg *config.Config) (*components, error) {
	// 1. DB接続
	db, err := database.Connect(context.Background(), cfg.DatabaseURL, dbConnectTimeout)
	if err != nil {
		return nil, err
	}
	slog.Info("database connection established")

	// 2. リポジトリ
	repo := repository.NewPostgresCertificateRepo(db)

	// 3. メトリクス
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	// 4. Notionクライアント（送信先を検証済みのHTTPクライアントを使う）
	guard := security.NewOutboundGuard()
	if err := guard.ValidateURL(cfg.NotionAPIBaseURL); err != nil {
		db.Close()
		return nil, fmt.Errorf("invalid NOTION_API_BASE_URL: %w", err)
	}
	notionClient := notion.NewClient(
		guard.NewClient(cfg.NotionTimeout),
		logger.Component("notion"),
		cfg.NotionAPIKey,
		cfg.NotionAPIBaseURL,
	)

	// 5. 同期
	reconciler := reconcile.NewReconciler(notionClient, repo, collector, logger.Component("reconcile"), reconcile.Config{
		Enabled:    cfg.NotionIntegrationEnabled,
		DatabaseID: cfg.NotionDatabaseID,
		AppURL:     cfg.AppURL,
	})

	return &components{
		db:         db,
		repo:       repo,
		registry:   registry,
		collector:  collector,
		reconciler: reconciler,
	}, nil
}

// runServe はAPIサーバーモードで起動する。
// 全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	c, err := wire(cfg)
	if err != nil {
		return err
	}
	defer c.db.Close()

	renderer, err := render.New()
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	certService := certificate.NewService(c.repo, security.NewTextSanitizer(), c.collector)

	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitSync),
		logger.Component("ratelimit"),
	)
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:             logger.Component("http"),
		StatusRecorder:     c.collector,
		CORSAllowedOrigin:  cfg.CORSAllowedOrigin,
		RateLimiter:        rateLimiter,
		ManualSyncToken:    cfg.ManualSyncToken,
		TrustProxyHeaders:  cfg.TrustProxyHeaders,
		HealthChecker:      c.db,
		MetricsHandler:     metrics.Handler(c.registry),
		CertificateService: certService,
		Renderer:           renderer,
		AppURL:             cfg.AppURL,
		SyncService:        c.reconciler,
	})

	if cfg.ManualSyncToken == "" {
		slog.Warn("MANUAL_SYNC_TOKEN is not set; manual sync endpoint rejects every request")
	}

	// HTTPサーバーの起動
	// 同期トリガーは行数に比例して長くなるため、ハンドラー側で書き込み期限を延長する。
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server listen error: %w", err)
	case <-stop:
	}
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// 起動直後とSYNC_INTERVALごとにNotion同期を実行する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	c, err := wire(cfg)
	if err != nil {
		return err
	}
	defer c.db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("worker starting",
		slog.Duration("sync_interval", cfg.SyncInterval),
	)

	// メインgoroutineで実行（ブロッキング）
	reconcile.NewRunner(c.reconciler, logger.Component("worker")).Start(ctx, cfg.SyncInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runSync はNotion同期を1回実行する。
// 行単位のエラーは集計に含めて正常終了とし、
// 同期自体が実行できなかった場合のみエラーを返す。
func runSync(cfg *config.Config) error {
	c, err := wire(cfg)
	if err != nil {
		return err
	}
	defer c.db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, err := c.reconciler.RunSync(ctx)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	slog.Info("sync command completed",
		slog.Int("processed_rows", summary.ProcessedRows),
		slog.Int("created", summary.Created),
		slog.Int("updated", summary.Updated),
		slog.Int("errors", summary.Errors),
	)
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	version, err := database.RunMigrations(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully", slog.Uint64("version", uint64(version)))
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	return checkHealth(fmt.Sprintf("http://localhost:%s/health", port))
}

func checkHealth(target string) error {
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(target)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
// 解析できない場合は全体を伏せる。
func maskDatabaseURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
