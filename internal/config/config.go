// Package config loads server and worker settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "change-me-in-production"

// Config holds all runtime settings.
type Config struct {
	AppEnv   string
	Port     string
	LogLevel string

	DatabaseURL string
	DBMaxConns  int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret string
	JWTTTL    time.Duration

	CORSAllowedOrigins []string
	IdempotencyEnabled bool
	BatchCacheTTL      time.Duration
	DefaultPhoneRegion string

	// BillingRules holds extra CEL rules as "name=expr;name2=expr2".
	BillingRules string

	// ClosedPeriodUntil blocks posting documents dated before it. Zero means open.
	ClosedPeriodUntil time.Time

	ExpiryWarnDays     int
	ExpiryScanInterval time.Duration
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		Port:     getEnv("APP_PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		DBMaxConns:  getEnvInt("DB_MAX_CONNS", 25),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		JWTSecret: getEnv("JWT_SECRET", defaultJWTSecret),
		JWTTTL:    getEnvDuration("JWT_TTL", 15*time.Minute),

		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		IdempotencyEnabled: getEnvBool("IDEMPOTENCY_ENABLED", true),
		BatchCacheTTL:      getEnvDuration("BATCH_CACHE_TTL", time.Minute),
		DefaultPhoneRegion: getEnv("DEFAULT_PHONE_REGION", "IN"),
		BillingRules:       getEnv("BILLING_RULES", ""),

		ExpiryWarnDays:     getEnvInt("EXPIRY_WARN_DAYS", 30),
		ExpiryScanInterval: getEnvDuration("EXPIRY_SCAN_INTERVAL", time.Hour),
	}

	if v := getEnv("CLOSED_PERIOD_UNTIL", ""); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return nil, fmt.Errorf("CLOSED_PERIOD_UNTIL: %w", err)
		}
		cfg.ClosedPeriodUntil = t
	}

	return cfg, cfg.Validate()
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// IsDevelopment reports whether APP_ENV is development.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.IsProduction() && c.JWTSecret == defaultJWTSecret {
		errs = append(errs, errors.New("JWT_SECRET must be set in production"))
	}
	if c.ExpiryWarnDays <= 0 {
		errs = append(errs, errors.New("EXPIRY_WARN_DAYS must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
