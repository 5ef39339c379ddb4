package cache

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"pharmacy/internal/core/lock"
)

// Locker obtains locks through redislock.
type Locker struct {
	client *redislock.Client
}

// NewLocker creates a Redis locker.
func NewLocker(client *redis.Client) *Locker {
	return &Locker{client: redislock.New(client)}
}

// Obtain implements lock.Locker. It does not retry: a held key fails fast
// with lock.ErrNotObtained.
func (l *Locker) Obtain(ctx context.Context, key string, ttl time.Duration) (lock.Lock, error) {
	held, err := l.client.Obtain(ctx, "pharmacy:lock:"+key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, lock.ErrNotObtained
	}
	if err != nil {
		return nil, err
	}
	return redisLock{held}, nil
}

type redisLock struct {
	l *redislock.Lock
}

func (r redisLock) Release(ctx context.Context) error {
	err := r.l.Release(ctx)
	if errors.Is(err, redislock.ErrLockNotHeld) {
		return nil
	}
	return err
}

var _ lock.Locker = (*Locker)(nil)
