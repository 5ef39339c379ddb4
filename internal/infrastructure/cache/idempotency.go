package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"pharmacy/internal/core/apperror"
)

// IdempotencyStatus is the state of a keyed request.
type IdempotencyStatus string

const (
	IdempotencyPending IdempotencyStatus = "pending"
	IdempotencySuccess IdempotencyStatus = "success"
	IdempotencyFailed  IdempotencyStatus = "failed"
)

const (
	idempotencyPrefix = "pharmacy:idem:"
	stalePending      = time.Minute
)

// IdempotencyRecord is stored as JSON under the request key.
type IdempotencyRecord struct {
	UserID      string            `json:"userId"`
	Operation   string            `json:"operation"`
	RequestHash string            `json:"requestHash"`
	Status      IdempotencyStatus `json:"status"`
	StatusCode  int               `json:"statusCode,omitempty"`
	ContentType string            `json:"contentType,omitempty"`
	Response    []byte            `json:"response,omitempty"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// Replay is a stored response to send back for a repeated request.
type Replay struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// IdempotencyStore keeps idempotency keys in Redis.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewIdempotencyStore creates the store. Keys expire after ttl.
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{client: client, ttl: ttl, now: time.Now}
}

func idempotencyKey(key string) string {
	return idempotencyPrefix + key
}

// AcquireKey claims key for a request.
//   - (nil, nil): the caller owns the key and must complete or fail it
//   - (replay, nil): the request already finished; send replay
//   - (nil, err): the key is in flight or was used for a different request
func (s *IdempotencyStore) AcquireKey(ctx context.Context, key, userID, operation, requestHash string) (*Replay, error) {
	rec := IdempotencyRecord{
		UserID:      userID,
		Operation:   operation,
		RequestHash: requestHash,
		Status:      IdempotencyPending,
		UpdatedAt:   s.now().UTC(),
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}

	ok, err := s.client.SetNX(ctx, idempotencyKey(key), payload, s.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire idempotency key: %w", err)
	}
	if ok {
		return nil, nil
	}

	stored, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		// Expired between SETNX and GET; try once more.
		return s.AcquireKey(ctx, key, userID, operation, requestHash)
	}

	return s.decide(ctx, key, stored, rec, payload)
}

func (s *IdempotencyStore) decide(ctx context.Context, key string, stored *IdempotencyRecord, req IdempotencyRecord, payload []byte) (*Replay, error) {
	if stored.UserID != req.UserID || stored.Operation != req.Operation || stored.RequestHash != req.RequestHash {
		return nil, apperror.NewIdempotencyMismatch(key).
			WithDetail("stored_operation", stored.Operation).
			WithDetail("request_operation", req.Operation)
	}

	switch stored.Status {
	case IdempotencySuccess, IdempotencyFailed:
		return stored.replay(), nil
	case IdempotencyPending:
		if req.UpdatedAt.Sub(stored.UpdatedAt) > stalePending {
			// Likely a crashed request: take the key over.
			if err := s.client.Set(ctx, idempotencyKey(key), payload, s.ttl).Err(); err != nil {
				return nil, fmt.Errorf("reclaim stale key: %w", err)
			}
			return nil, nil
		}
		return nil, apperror.NewIdempotencyConflict(key)
	}
	return nil, nil
}

func (r *IdempotencyRecord) replay() *Replay {
	status, ct := r.StatusCode, r.ContentType
	if status == 0 {
		status = http.StatusOK
	}
	if ct == "" && status != http.StatusNoContent {
		ct = "application/json"
	}
	return &Replay{StatusCode: status, ContentType: ct, Body: r.Response}
}

func (s *IdempotencyStore) load(ctx context.Context, key string) (*IdempotencyRecord, error) {
	val, err := s.client.Get(ctx, idempotencyKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load idempotency key: %w", err)
	}
	var rec IdempotencyRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, fmt.Errorf("decode idempotency key: %w", err)
	}
	return &rec, nil
}

// CompleteKey stores the successful response for replay.
func (s *IdempotencyStore) CompleteKey(ctx context.Context, key string, statusCode int, contentType string, response any) error {
	return s.finish(ctx, key, IdempotencySuccess, statusCode, contentType, response)
}

// FailKey stores the error response for replay.
func (s *IdempotencyStore) FailKey(ctx context.Context, key string, statusCode int, contentType string, response any) error {
	return s.finish(ctx, key, IdempotencyFailed, statusCode, contentType, response)
}

func (s *IdempotencyStore) finish(ctx context.Context, key string, status IdempotencyStatus, statusCode int, contentType string, response any) error {
	rec, err := s.load(ctx, key)
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}

	if response != nil {
		body, err := json.Marshal(response)
		if err != nil {
			body, _ = json.Marshal(map[string]string{"error": err.Error()})
		}
		rec.Response = body
	}
	rec.Status = status
	rec.StatusCode = statusCode
	rec.ContentType = contentType
	rec.UpdatedAt = s.now().UTC()

	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, idempotencyKey(key), payload, redis.KeepTTL).Err()
}
