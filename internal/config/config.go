package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ストアのバックエンド種別。
const (
	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Store
	StoreBackend string

	// Database
	DatabaseURL       string
	DBMaxOpenConns    int
	DBConnectTimeout  time.Duration
	DBConnMaxIdleTime time.Duration

	// Auth
	JWTSecret    string
	JWTExpiresIn time.Duration
	BcryptCost   int

	// Feed
	FeedMaxLimit int

	// Server
	ServerPort string
	AppEnv     string

	// Logging
	LogLevel string

	// CORS
	CORSAllowedOrigin string
}

// IsMemoryStore はインメモリストアで起動する設定かどうかを返す。
func (c *Config) IsMemoryStore() bool {
	return c.StoreBackend == StoreBackendMemory
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はまとめて1つのエラーとして返す。
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.StoreBackend = strings.ToLower(getEnvString("STORE_BACKEND", StoreBackendPostgres))
	if cfg.StoreBackend != StoreBackendPostgres && cfg.StoreBackend != StoreBackendMemory {
		return nil, fmt.Errorf("STORE_BACKEND must be %q or %q, got %q",
			StoreBackendPostgres, StoreBackendMemory, cfg.StoreBackend)
	}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" && cfg.StoreBackend == StoreBackendPostgres {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	cfg.DBConnectTimeout = getEnvDuration("DB_CONNECT_TIMEOUT", 5*time.Second)
	cfg.DBConnMaxIdleTime = getEnvDuration("DB_CONN_MAX_IDLE_TIME", 45*time.Second)
	cfg.JWTExpiresIn = getEnvDuration("JWT_EXPIRES_IN", 7*24*time.Hour)
	cfg.BcryptCost = getEnvInt("BCRYPT_COST", 12)
	cfg.FeedMaxLimit = getEnvInt("FEED_MAX_LIMIT", 50)
	cfg.ServerPort = getEnvString("SERVER_PORT", "5000")
	cfg.AppEnv = getEnvString("APP_ENV", "production")
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

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
