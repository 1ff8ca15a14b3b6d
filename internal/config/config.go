package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// envFiles は起動時に読み込む.envファイル。先に読み込んだ値が優先される。
// 既にプロセス環境に設定されている変数は上書きしない。
var envFiles = []string{".env.local", ".env"}

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Notion
	NotionIntegrationEnabled bool
	NotionAPIKey             string
	NotionDatabaseID         string
	NotionAPIBaseURL         string
	NotionTimeout            time.Duration

	// Sync
	ManualSyncToken string
	SyncInterval    time.Duration

	// Rate Limit（req/min/client）
	RateLimitGeneral int
	RateLimitSync    int

	// Logging
	LogLevel slog.Level

	// Server
	ServerPort string
	AppURL     string

	// CORS
	CORSAllowedOrigin string

	// リバースプロキシのX-Forwarded-For等を信頼するか
	TrustProxyHeaders bool
}

// LoadEnvFiles は.envファイルが存在すれば環境変数に読み込む。
// ファイルが存在しない場合は何もしない。
func LoadEnvFiles() {
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		_ = godotenv.Load(f)
	}
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
// Notion連携が有効な場合のみNOTION_API_KEYとNOTION_DATABASE_IDを必須とする。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.AppURL = strings.TrimRight(os.Getenv("APP_URL"), "/")
	if cfg.AppURL == "" {
		missing = append(missing, "APP_URL")
	}

	cfg.NotionIntegrationEnabled = getEnvBool("NOTION_INTEGRATION_ENABLED", false)
	cfg.NotionAPIKey = os.Getenv("NOTION_API_KEY")
	cfg.NotionDatabaseID = os.Getenv("NOTION_DATABASE_ID")
	if cfg.NotionIntegrationEnabled {
		if cfg.NotionAPIKey == "" {
			missing = append(missing, "NOTION_API_KEY")
		}
		if cfg.NotionDatabaseID == "" {
			missing = append(missing, "NOTION_DATABASE_ID")
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.NotionAPIBaseURL = strings.TrimRight(getEnvString("NOTION_API_BASE_URL", "https://api.notion.com/v1"), "/")
	cfg.NotionTimeout = getEnvDuration("NOTION_TIMEOUT", 30*time.Second)
	cfg.ManualSyncToken = os.Getenv("MANUAL_SYNC_TOKEN")
	cfg.SyncInterval = getEnvDuration("SYNC_INTERVAL", time.Hour)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitSync = getEnvInt("RATE_LIMIT_SYNC", 6)
	cfg.LogLevel = getEnvLevel("LOG_LEVEL", slog.LevelInfo)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")
	cfg.TrustProxyHeaders = getEnvBool("TRUST_PROXY_HEADERS", false)

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "":
		return defaultVal
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func getEnvLevel(key string, defaultVal slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		return defaultVal
	}
	return level
}
