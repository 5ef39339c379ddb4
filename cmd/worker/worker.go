package main

import (
	"context"
	"fmt"
	"time"

	"pharmacy/internal/domain/registers/stock"
	"pharmacy/pkg/logger"
	"pharmacy/pkg/notify"
)

// ExpiringLister lists stocked batches expiring within a window.
type ExpiringLister interface {
	ExpiringBatches(ctx context.Context, within time.Duration) ([]*stock.Batch, error)
}

// TokenCleaner deletes expired refresh tokens.
type TokenCleaner interface {
	CleanupExpiredTokens(ctx context.Context) (int, error)
}

// WorkerConfig wires the worker.
type WorkerConfig struct {
	Batches  ExpiringLister
	Tokens   TokenCleaner
	Notifier notify.Notifier
	Log      *logger.Logger

	WarnWithin   time.Duration
	ScanInterval time.Duration
	Now          func() time.Time
}

// Worker runs the periodic jobs.
type Worker struct {
	cfg WorkerConfig
	log *logger.Logger

	// batch id -> last day it was reported
	warned map[string]string
}

// NewWorker creates a worker.
func NewWorker(cfg WorkerConfig) *Worker {
	if cfg.Log == nil {
		cfg.Log = logger.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.ScanInterval <= 0 {
		cfg.ScanInterval = time.Hour
	}
	return &Worker{
		cfg:    cfg,
		log:    cfg.Log.WithComponent("worker"),
		warned: make(map[string]string),
	}
}

// Run scans immediately and then on every tick until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.ScanInterval)
	defer ticker.Stop()

	cleanupTicker := time.NewTicker(time.Hour)
	defer cleanupTicker.Stop()

	w.ScanExpiring(ctx)
	w.CleanupTokens(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.ScanExpiring(ctx)
		case <-cleanupTicker.C:
			w.CleanupTokens(ctx)
		}
	}
}

// ScanExpiring sends one warning per batch per day and returns how many were sent.
func (w *Worker) ScanExpiring(ctx context.Context) int {
	batches, err := w.cfg.Batches.ExpiringBatches(ctx, w.cfg.WarnWithin)
	if err != nil {
		w.log.Errorw("expiry scan failed", "error", err)
		return 0
	}

	now := w.cfg.Now()
	today := now.Format(time.DateOnly)
	sent := 0
	for _, b := range batches {
		if b.ExpiryDate == nil || b.Quantity <= 0 {
			continue
		}
		key := b.ID.String()
		if w.warned[key] == today {
			continue
		}
		w.warned[key] = today

		level := notify.LevelWarning
		days := int(b.ExpiryDate.Sub(now).Hours() / 24)
		msg := fmt.Sprintf("%s batch %s: %d units expire in %d days (%s)",
			b.ItemName, b.BatchNo, b.Quantity, days, b.ExpiryDate.Format(time.DateOnly))
		if !b.ExpiryDate.After(now) {
			level = notify.LevelError
			msg = fmt.Sprintf("%s batch %s: %d units expired on %s",
				b.ItemName, b.BatchNo, b.Quantity, b.ExpiryDate.Format(time.DateOnly))
		}
		w.cfg.Notifier.Notify(ctx, level, msg)
		sent++
	}

	if sent > 0 {
		w.log.Infow("expiry scan complete", "batches", len(batches), "warnings", sent)
	}
	return sent
}

// CleanupTokens purges expired refresh tokens.
func (w *Worker) CleanupTokens(ctx context.Context) {
	if w.cfg.Tokens == nil {
		return
	}
	n, err := w.cfg.Tokens.CleanupExpiredTokens(ctx)
	if err != nil {
		w.log.Errorw("token cleanup failed", "error", err)
		return
	}
	if n > 0 {
		w.log.Infow("cleaned up expired refresh tokens", "count", n)
	}
}
