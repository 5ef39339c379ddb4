package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/pharmacy")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, time.Minute, cfg.BatchCacheTTL)
	assert.Equal(t, "IN", cfg.DefaultPhoneRegion)
	assert.True(t, cfg.IdempotencyEnabled)
	assert.True(t, cfg.ClosedPeriodUntil.IsZero())
	assert.Equal(t, 30, cfg.ExpiryWarnDays)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db/pharmacy")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("IDEMPOTENCY_ENABLED", "false")
	t.Setenv("EXPIRY_SCAN_INTERVAL", "15m")
	t.Setenv("CLOSED_PERIOD_UNTIL", "2026-04-01")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.IdempotencyEnabled)
	assert.Equal(t, 15*time.Minute, cfg.ExpiryScanInterval)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), cfg.ClosedPeriodUntil)
	assert.Equal(t, 3, cfg.RedisDB)
}

func TestValidate(t *testing.T) {
	cfg := &Config{AppEnv: "production", JWTSecret: defaultJWTSecret, ExpiryWarnDays: 30}

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "DATABASE_URL is required")
	assert.ErrorContains(t, err, "JWT_SECRET must be set")

	cfg.DatabaseURL = "postgres://x"
	cfg.JWTSecret = "s"
	assert.NoError(t, cfg.Validate())
}

func TestLoad_BadClosedPeriod(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://x")
	t.Setenv("CLOSED_PERIOD_UNTIL", "April")

	_, err := Load()
	assert.ErrorContains(t, err, "CLOSED_PERIOD_UNTIL")
}
