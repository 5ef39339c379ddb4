package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"pharmacy/internal/core/id"
	"pharmacy/internal/domain/registers/stock"
)

const batchKeyPrefix = "pharmacy:batches:"

// BatchCache keeps available batches per item in Redis.
type BatchCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewBatchCache creates the cache. A zero ttl defaults to one minute.
func NewBatchCache(client *redis.Client, ttl time.Duration) *BatchCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &BatchCache{client: client, ttl: ttl}
}

func batchKey(itemID id.ID) string {
	return batchKeyPrefix + itemID.String()
}

// Get implements stock.BatchCache.
func (c *BatchCache) Get(ctx context.Context, itemID id.ID) ([]*stock.Batch, bool, error) {
	val, err := c.client.Get(ctx, batchKey(itemID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var batches []*stock.Batch
	if err := json.Unmarshal(val, &batches); err != nil {
		return nil, false, err
	}
	return batches, true, nil
}

// Set implements stock.BatchCache.
func (c *BatchCache) Set(ctx context.Context, itemID id.ID, batches []*stock.Batch) error {
	payload, err := json.Marshal(batches)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, batchKey(itemID), payload, c.ttl).Err()
}

// Invalidate implements stock.BatchCache.
func (c *BatchCache) Invalidate(ctx context.Context, itemIDs ...id.ID) error {
	if len(itemIDs) == 0 {
		return nil
	}
	keys := make([]string, len(itemIDs))
	for i, itemID := range itemIDs {
		keys[i] = batchKey(itemID)
	}
	return c.client.Del(ctx, keys...).Err()
}

var _ stock.BatchCache = (*BatchCache)(nil)
