package config

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres  = "postgres"
	StoreDriverMemory    = "memory"
	StoreDriverFirestore = "firestore"
)

const defaultAdminPassword = "musicmom"

// R2Config - настройки выгрузки сеток в Cloudflare R2. Пустая конфигурация отключает выгрузку.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicBaseURL   string
}

func (c R2Config) Enabled() bool {
	return c.AccountID != ""
}

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	ServerPort int
	LogLevel   slog.Level

	StoreDriver              string
	DatabaseURL              string
	FirestoreProjectID       string
	FirestoreCredentialsFile string

	AdminPassword string
	SessionSecret string
	SessionTTL    time.Duration
	CookieSecure  bool
	// TrustProxy: сервер стоит за прокси, который сам выставляет X-Forwarded-For.
	TrustProxy bool

	CORSAllowedOrigins []string
	RedisURL           string
	VoteRateLimit      int
	SentryDSN          string

	R2 R2Config
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	// Отсутствие .env не ошибка.
	_ = godotenv.Load()

	cfg := &Config{
		StoreDriver:              getEnv("STORE_DRIVER", StoreDriverPostgres),
		DatabaseURL:              os.Getenv("DATABASE_URL"),
		FirestoreProjectID:       os.Getenv("FIRESTORE_PROJECT_ID"),
		FirestoreCredentialsFile: os.Getenv("FIRESTORE_CREDENTIALS_FILE"),
		AdminPassword:            getEnv("ADMIN_PASSWORD", defaultAdminPassword),
		SessionSecret:            os.Getenv("SESSION_SECRET"),
		RedisURL:                 os.Getenv("REDIS_URL"),
		SentryDSN:                os.Getenv("SENTRY_DSN"),
		CORSAllowedOrigins:       splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),
		R2: R2Config{
			AccountID:       os.Getenv("R2_ACCOUNT_ID"),
			AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
			BucketName:      os.Getenv("R2_BUCKET_NAME"),
			PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
		},
	}

	var err error
	if cfg.ServerPort, err = getInt("SERVER_PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.ServerPort <= 0 || cfg.ServerPort > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", cfg.ServerPort)
	}
	if cfg.LogLevel, err = parseLogLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}

	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
		}
	case StoreDriverFirestore:
		if cfg.FirestoreProjectID == "" {
			return nil, fmt.Errorf("FIRESTORE_PROJECT_ID environment variable is not set")
		}
	case StoreDriverMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q: expected postgres, memory or firestore", cfg.StoreDriver)
	}

	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET environment variable is not set")
	}
	if cfg.SessionTTL, err = time.ParseDuration(getEnv("SESSION_TTL", "24h")); err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL environment variable: %w", err)
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive, got %s", cfg.SessionTTL)
	}
	if cfg.CookieSecure, err = getBool("COOKIE_SECURE", false); err != nil {
		return nil, err
	}
	if cfg.TrustProxy, err = getBool("TRUST_PROXY", false); err != nil {
		return nil, err
	}
	if cfg.VoteRateLimit, err = getInt("VOTE_RATE_LIMIT", 30); err != nil {
		return nil, err
	}
	if cfg.VoteRateLimit <= 0 {
		return nil, fmt.Errorf("VOTE_RATE_LIMIT must be positive, got %d", cfg.VoteRateLimit)
	}

	if err := cfg.R2.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate: R2_* задаются все вместе или не задаются вовсе.
func (c R2Config) validate() error {
	fields := map[string]string{
		"R2_ACCOUNT_ID":        c.AccountID,
		"R2_ACCESS_KEY_ID":     c.AccessKeyID,
		"R2_SECRET_ACCESS_KEY": c.SecretAccessKey,
		"R2_BUCKET_NAME":       c.BucketName,
		"R2_PUBLIC_BASE_URL":   c.PublicBaseURL,
	}
	var set, missing []string
	for name, value := range fields {
		if value == "" {
			missing = append(missing, name)
		} else {
			set = append(set, name)
		}
	}
	if len(set) > 0 && len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("incomplete R2 configuration: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func getBool(key string, fallback bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func parseLogLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q: %w", raw, err)
	}
	return level, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

