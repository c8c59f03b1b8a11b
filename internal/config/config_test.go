package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"APP_ENV":              "",
		"PORT":                 "",
		"DATABASE_URL":         "postgres://localhost:5432/quotes",
		"REDIS_URL":            "redis://localhost:6379/0",
		"DB_MAX_CONNS":         "",
		"DB_CONNECT_TIMEOUT":   "",
		"CORS_ALLOWED_ORIGINS": "",
		"IDEMPOTENCY_TTL":      "",
		"RATE_LIMIT_WINDOW":    "",
		"RATE_LIMIT_MAX":       "",
	})
	require.NoError(t, err)
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, int32(10), cfg.DBMaxConns)
	require.Equal(t, 5*time.Second, cfg.DBConnectTimeout)
	require.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	require.Empty(t, cfg.CORSAllowedOrigins)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"APP_ENV":              "production",
		"PORT":                 "9000",
		"DATABASE_URL":         "postgres://db:5432/quotes",
		"REDIS_URL":            "redis://cache:6379/1",
		"DB_MAX_CONNS":         "32",
		"DB_CONNECT_TIMEOUT":   "10s",
		"CORS_ALLOWED_ORIGINS": "https://a.example.com, https://b.example.com",
		"IDEMPOTENCY_TTL":      "1h",
		"RATE_LIMIT_WINDOW":    "30s",
		"RATE_LIMIT_MAX":       "50",
	})
	require.NoError(t, err)
	require.Equal(t, "production", cfg.AppEnv)
	require.Equal(t, ":9000", cfg.HTTPAddr())
	require.Equal(t, int32(32), cfg.DBMaxConns)
	require.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)
	require.Equal(t, 30*time.Second, cfg.RateLimitWindow)
	require.Equal(t, 50, cfg.RateLimitMax)
}
