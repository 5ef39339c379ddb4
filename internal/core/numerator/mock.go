// Package numerator provides domain contracts for document auto-numbering.
package numerator

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockGenerator is a test implementation of Generator.
// Without GetNextNumberFunc it counts per prefix (and year when the config
// includes it), so repeated calls produce "GRN-2026-00001", "GRN-2026-00002".
type MockGenerator struct {
	GetNextNumberFunc func(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)
	SetNextNumberFunc func(ctx context.Context, cfg Config, period time.Time, value int64) error

	mu       sync.Mutex
	counters map[string]int64
}

// GetNextNumber implements Generator.
func (m *MockGenerator) GetNextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error) {
	if m.GetNextNumberFunc != nil {
		return m.GetNextNumberFunc(ctx, cfg, opts, period)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counters == nil {
		m.counters = make(map[string]int64)
	}
	key := mockKey(cfg, period)
	m.counters[key]++
	if !cfg.IncludeYear {
		return fmt.Sprintf("%s-%05d", cfg.Prefix, m.counters[key]), nil
	}
	return fmt.Sprintf("%s-%d-%05d", cfg.Prefix, period.Year(), m.counters[key]), nil
}

// SetNextNumber implements Generator.
func (m *MockGenerator) SetNextNumber(ctx context.Context, cfg Config, period time.Time, value int64) error {
	if m.SetNextNumberFunc != nil {
		return m.SetNextNumberFunc(ctx, cfg, period, value)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counters == nil {
		m.counters = make(map[string]int64)
	}
	m.counters[mockKey(cfg, period)] = value - 1
	return nil
}

func mockKey(cfg Config, period time.Time) string {
	if !cfg.IncludeYear {
		return cfg.Prefix
	}
	return fmt.Sprintf("%s_%d", cfg.Prefix, period.Year())
}

// Ensure compile-time interface compliance.
var _ Generator = (*MockGenerator)(nil)
