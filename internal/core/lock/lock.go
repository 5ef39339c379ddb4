// Package lock defines the distributed mutex contract used around stock
// mutations. The Redis implementation lives in infrastructure/cache.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrNotObtained is returned when the key is held by someone else.
var ErrNotObtained = errors.New("lock not obtained")

// Lock is a held lock.
type Lock interface {
	Release(ctx context.Context) error
}

// Locker obtains locks by key.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

// Key builds a lock key such as "batch:<id>".
func Key(kind string, parts ...any) string {
	k := kind
	for _, p := range parts {
		k += fmt.Sprintf(":%v", p)
	}
	return k
}

// WithLock runs fn while holding key.
func WithLock(ctx context.Context, l Locker, key string, ttl time.Duration, fn func(ctx context.Context) error) error {
	held, err := l.Obtain(ctx, key, ttl)
	if err != nil {
		return err
	}
	defer func() { _ = held.Release(context.WithoutCancel(ctx)) }()
	return fn(ctx)
}

// Local is an in-process Locker for single-instance deployments and tests.
// TTL is ignored; a lock is held until released.
type Local struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewLocal creates an in-process locker.
func NewLocal() *Local {
	return &Local{held: make(map[string]struct{})}
}

// Obtain implements Locker. It fails fast instead of waiting.
func (l *Local) Obtain(_ context.Context, key string, _ time.Duration) (Lock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[key]; busy {
		return nil, ErrNotObtained
	}
	l.held[key] = struct{}{}
	return &localLock{owner: l, key: key}, nil
}

type localLock struct {
	owner *Local
	key   string
	once  sync.Once
}

func (h *localLock) Release(context.Context) error {
	h.once.Do(func() {
		h.owner.mu.Lock()
		delete(h.owner.held, h.key)
		h.owner.mu.Unlock()
	})
	return nil
}
