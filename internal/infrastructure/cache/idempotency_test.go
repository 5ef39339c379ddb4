package cache

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/id"
)

func TestRecordReplay_Defaults(t *testing.T) {
	r := (&IdempotencyRecord{Status: IdempotencySuccess, Response: []byte(`{"id":"1"}`)}).replay()
	assert.Equal(t, http.StatusOK, r.StatusCode)
	assert.Equal(t, "application/json", r.ContentType)

	r = (&IdempotencyRecord{Status: IdempotencySuccess, StatusCode: http.StatusNoContent}).replay()
	assert.Equal(t, http.StatusNoContent, r.StatusCode)
	assert.Empty(t, r.ContentType)
}

func TestDecide(t *testing.T) {
	s := &IdempotencyStore{ttl: time.Hour, now: time.Now}
	now := time.Now()
	req := IdempotencyRecord{UserID: "u1", Operation: "POST /billing/create-invoice", RequestHash: "h", UpdatedAt: now}

	t.Run("different body", func(t *testing.T) {
		stored := req
		stored.RequestHash = "other"
		_, err := s.decide(context.Background(), "k", &stored, req, nil)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeIdempotency, appErr.Code)
	})

	t.Run("finished request replays", func(t *testing.T) {
		stored := req
		stored.Status = IdempotencySuccess
		stored.StatusCode = http.StatusCreated
		stored.Response = []byte(`{"id":"x"}`)
		replay, err := s.decide(context.Background(), "k", &stored, req, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, replay.StatusCode)
		assert.JSONEq(t, `{"id":"x"}`, string(replay.Body))
	})

	t.Run("in flight", func(t *testing.T) {
		stored := req
		stored.Status = IdempotencyPending
		_, err := s.decide(context.Background(), "k", &stored, req, nil)
		assert.Error(t, err)
	})
}

func TestKeys(t *testing.T) {
	itemID := id.New()
	assert.Equal(t, "pharmacy:batches:"+itemID.String(), batchKey(itemID))
	assert.Equal(t, "pharmacy:idem:abc", idempotencyKey("abc"))
}
