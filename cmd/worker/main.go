// Package main is the entry point for the pharmacy background worker.
// It warns about batches nearing expiry and purges expired refresh tokens.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"pharmacy/internal/config"
	"pharmacy/internal/domain/registers/stock"
	"pharmacy/internal/infrastructure/storage/postgres"
	"pharmacy/internal/infrastructure/storage/postgres/auth_repo"
	"pharmacy/internal/infrastructure/storage/postgres/register_repo"
	"pharmacy/pkg/logger"
	"pharmacy/pkg/notify"
)

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting pharmacy worker")

	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.MaxConns = 5
	poolCfg.MinConns = 1
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	txm := postgres.NewTxManager(pool)

	stockService := stock.NewService(register_repo.NewStockRepo(txm), txm)
	worker := NewWorker(WorkerConfig{
		Batches:      stockService,
		Tokens:       auth_repo.NewTokenRepo(txm),
		Notifier:     notify.NewLogNotifier(log),
		Log:          log,
		WarnWithin:   time.Duration(cfg.ExpiryWarnDays) * 24 * time.Hour,
		ScanInterval: cfg.ExpiryScanInterval,
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}
