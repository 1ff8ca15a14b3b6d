package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig はレート制限の設定を保持する。
type RateLimiterConfig struct {
	GeneralRate     rate.Limit    // API全般のレート（req/sec）
	GeneralBurst    int           // API全般のバーストサイズ
	SyncRate        rate.Limit    // 同期トリガーのレート（req/sec）
	SyncBurst       int           // 同期トリガーのバーストサイズ
	CleanupInterval time.Duration // 期限切れエントリのクリーンアップ間隔
}

// NewRateLimiterConfig は1分あたりのリクエスト数から設定を組み立てる。
// 0以下の値はそれぞれ120 req/min、6 req/minとして扱う。
func NewRateLimiterConfig(generalPerMinute, syncPerMinute int) RateLimiterConfig {
	if generalPerMinute <= 0 {
		generalPerMinute = 120
	}
	if syncPerMinute <= 0 {
		syncPerMinute = 6
	}
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(float64(generalPerMinute) / 60.0),
		GeneralBurst:    generalPerMinute,
		SyncRate:        rate.Limit(float64(syncPerMinute) / 60.0),
		SyncBurst:       syncPerMinute,
		CleanupInterval: 5 * time.Minute,
	}
}

// clientLimiter はクライアントごとのレートリミッターとアクセス時刻を保持する。
type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// limiterTier は1種類のレート制限（API全般、同期トリガー）を表す。
type limiterTier struct {
	name  string
	limit rate.Limit
	burst int

	mu      sync.Mutex
	clients map[string]*clientLimiter
}

func newLimiterTier(name string, limit rate.Limit, burst int) *limiterTier {
	return &limiterTier{
		name:    name,
		limit:   limit,
		burst:   burst,
		clients: make(map[string]*clientLimiter),
	}
}

// get はクライアントのリミッターを取得または作成する。
func (t *limiterTier) get(key string, now time.Time) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()

	cl, ok := t.clients[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.clients[key] = cl
	}
	cl.lastAccess = now
	return cl.limiter
}

// evict は最終アクセスからttlを超えたエントリを削除する。
func (t *limiterTier) evict(now time.Time, ttl time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, cl := range t.clients {
		if now.Sub(cl.lastAccess) > ttl {
			delete(t.clients, key)
		}
	}
}

func (t *limiterTier) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.clients)
}

// RateLimiter はクライアントIPごとのレート制限を管理する。
// API全般と同期トリガーの2種類を独立に提供する。
type RateLimiter struct {
	config  RateLimiterConfig
	general *limiterTier
	sync    *limiterTier
	logger  *slog.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewRateLimiter は新しいRateLimiterを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewRateLimiter(config RateLimiterConfig, logger *slog.Logger) *RateLimiter {
	rl := &RateLimiter{
		config:  config,
		general: newLimiterTier("general", config.GeneralRate, config.GeneralBurst),
		sync:    newLimiterTier("sync", config.SyncRate, config.SyncBurst),
		logger:  logger,
		stopCh:  make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。複数回呼んでもよい。
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// GeneralMiddleware はAPI全般のレート制限ミドルウェアを返す。
func (rl *RateLimiter) GeneralMiddleware() func(next http.Handler) http.Handler {
	return rl.middleware(rl.general)
}

// SyncMiddleware は同期トリガー専用のレート制限ミドルウェアを返す。
// API全般のレート制限とは独立に動作する。
func (rl *RateLimiter) SyncMiddleware() func(next http.Handler) http.Handler {
	return rl.middleware(rl.sync)
}

// GeneralLimiterCount は現在管理されているAPI全般リミッターのエントリ数を返す。
func (rl *RateLimiter) GeneralLimiterCount() int {
	return rl.general.count()
}

// SyncLimiterCount は現在管理されている同期トリガーリミッターのエントリ数を返す。
func (rl *RateLimiter) SyncLimiterCount() int {
	return rl.sync.count()
}

func (rl *RateLimiter) middleware(tier *limiterTier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)
			if !tier.get(key, time.Now()).Allow() {
				WriteRateLimitExceeded(w, refillInterval(tier.limit))
				rl.logger.Warn("rate limit exceeded",
					slog.String("client_ip", key),
					slog.String("limit_type", tier.name),
				)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// cleanupLoop はバックグラウンドで期限切れエントリを定期的にクリーンアップする。
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup(time.Now())
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup は最終アクセス時刻がCleanupIntervalの2倍を超えたエントリを削除する。
func (rl *RateLimiter) cleanup(now time.Time) {
	ttl := rl.config.CleanupInterval * 2
	rl.general.evict(now, ttl)
	rl.sync.evict(now, ttl)
}

// clientIP はリクエスト元のIPアドレスを返す。
// RemoteAddrのみを参照する。プロキシヘッダーの反映はルーター側で明示的に有効化する。
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// refillInterval はトークンが1つ補充されるまでの時間を返す。
func refillInterval(r rate.Limit) time.Duration {
	if r <= 0 || r == rate.Inf {
		return time.Second
	}
	return time.Duration(float64(time.Second) / float64(r))
}
