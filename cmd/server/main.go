// Package main is the entry point for the pharmacy API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"pharmacy/internal/config"
	"pharmacy/internal/core/lock"
	"pharmacy/internal/domain/auth"
	"pharmacy/internal/domain/catalogs/contact"
	"pharmacy/internal/domain/posting"
	"pharmacy/internal/domain/rules"
	"pharmacy/internal/infrastructure/cache"
	v1 "pharmacy/internal/infrastructure/http/v1"
	"pharmacy/internal/infrastructure/http/v1/handlers"
	"pharmacy/internal/infrastructure/http/v1/middleware"
	"pharmacy/internal/infrastructure/numerator"
	"pharmacy/internal/infrastructure/storage/postgres"
	"pharmacy/internal/infrastructure/storage/postgres/auth_repo"
	"pharmacy/pkg/logger"
)

const idempotencyTTL = 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx := context.Background()
	log.Infow("starting pharmacy server", "env", cfg.AppEnv)

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.MaxConns = int32(cfg.DBMaxConns)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	txm := postgres.NewTxManager(pool)
	log.Info("database connection established")

	// --- Redis: locks, batch cache, idempotency ---
	rdb, err := cache.NewClient(ctx, cache.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Fatalw("failed to connect to redis", "error", err)
	}
	defer rdb.Close()

	var idem middleware.IdempotencyStore
	if cfg.IdempotencyEnabled {
		idem = cache.NewIdempotencyStore(rdb, idempotencyTTL)
	}

	// --- Domain infrastructure ---
	contact.SetDefaultRegion(cfg.DefaultPhoneRegion)

	extra, err := rules.Parse(cfg.BillingRules)
	if err != nil {
		log.Fatalw("invalid BILLING_RULES", "error", err)
	}
	ruleEngine, err := rules.NewDefault(extra...)
	if err != nil {
		log.Fatalw("failed to compile billing rules", "error", err)
	}
	log.Infow("billing rules loaded", "rules", ruleEngine.Names())

	recorder, err := postgres.NewAuditRecorder(txm)
	if err != nil {
		log.Fatalw("failed to create audit recorder", "error", err)
	}

	var policy posting.PeriodPolicy = posting.OpenPolicy{}
	if !cfg.ClosedPeriodUntil.IsZero() {
		policy = posting.NewClosedPeriodPolicy(cfg.ClosedPeriodUntil)
		log.Infow("closed period policy active", "closed_until", cfg.ClosedPeriodUntil.Format(time.DateOnly))
	}

	// --- Auth ---
	jwtConfig := auth.DefaultJWTConfig(cfg.JWTSecret)
	jwtConfig.AccessTokenTTL = cfg.JWTTTL
	authService := auth.NewService(
		auth_repo.NewUserRepo(txm),
		auth_repo.NewTokenRepo(txm),
		txm,
		auth.NewJWTService(jwtConfig),
		auth.DefaultServiceConfig(),
	)

	// --- Router ---
	var locker lock.Locker = cache.NewLocker(rdb)
	router := v1.NewRouter(v1.RouterConfig{
		TxManager:    txm,
		Logger:       log,
		AuthService:  authService,
		Numerator:    numerator.New(pool),
		Locker:       locker,
		Audit:        recorder,
		AuditHistory: recorder,
		Rules:        ruleEngine,
		BatchCache:   cache.NewBatchCache(rdb, cfg.BatchCacheTTL),
		Idempotency:  idem,
		PeriodPolicy: policy,
		CORSOrigins:  cfg.CORSAllowedOrigins,
		HealthChecks: map[string]handlers.Pinger{
			"database": pool,
			"redis":    redisPinger(rdb),
		},
		Development: cfg.IsDevelopment(),
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}
	postgres.LogPoolStats(shutdownCtx, pool.Pool)

	log.Info("server stopped")
}

func redisPinger(client *redis.Client) handlers.PingFunc {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
