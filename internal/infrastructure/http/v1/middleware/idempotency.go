package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"pharmacy/internal/core/apperror"
	appctx "pharmacy/internal/core/context"
	"pharmacy/internal/infrastructure/cache"
)

const (
	HeaderIdempotencyKey   = "X-Idempotency-Key"
	HeaderIdempotentReplay = "X-Idempotent-Replay"

	maxIdempotencyBodyBytes = 1 << 20

	ctxIdempotencyKey   = "idempotency_key"
	ctxIdempotencyStore = "idempotency_store"
)

// IdempotencyStore remembers the response of a keyed mutating request.
type IdempotencyStore interface {
	AcquireKey(ctx context.Context, key, userID, operation, requestHash string) (*cache.Replay, error)
	CompleteKey(ctx context.Context, key string, statusCode int, contentType string, response any) error
	FailKey(ctx context.Context, key string, statusCode int, contentType string, response any) error
}

// Idempotency replays the stored response when a POST or PUT arrives again
// with the same X-Idempotency-Key. Requests without the header pass through.
func Idempotency(store IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut {
			c.Next()
			return
		}
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxIdempotencyBodyBytes+1))
		if err != nil {
			_ = c.Error(apperror.NewValidation("cannot read request body"))
			c.Abort()
			return
		}
		if len(body) > maxIdempotencyBodyBytes {
			appErr := apperror.NewValidation("request body too large for idempotency")
			appErr.HTTPStatus = http.StatusRequestEntityTooLarge
			_ = c.Error(appErr.WithDetail("max_bytes", maxIdempotencyBodyBytes))
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		sum := sha256.Sum256(body)

		ctx := c.Request.Context()
		operation := c.Request.Method + " " + c.FullPath()
		replay, err := store.AcquireKey(ctx, key, appctx.GetUserID(ctx), operation, hex.EncodeToString(sum[:]))
		if err != nil {
			if _, ok := apperror.AsAppError(err); !ok {
				err = apperror.NewInternal(err).WithDetail("component", "idempotency")
			}
			_ = c.Error(err)
			c.Abort()
			return
		}
		if replay != nil {
			c.Header(HeaderIdempotentReplay, "true")
			if replay.StatusCode == http.StatusNoContent {
				c.Status(http.StatusNoContent)
			} else {
				c.Data(replay.StatusCode, replay.ContentType, replay.Body)
			}
			c.Abort()
			return
		}

		c.Set(ctxIdempotencyKey, key)
		c.Set(ctxIdempotencyStore, store)
		c.Next()
	}
}

// failIdempotency stores an error response under the request key.
func failIdempotency(c *gin.Context, status int, body any) {
	key := c.GetString(ctxIdempotencyKey)
	if key == "" {
		return
	}
	if store, ok := c.Get(ctxIdempotencyStore); ok {
		if s, ok := store.(IdempotencyStore); ok {
			_ = s.FailKey(c.Request.Context(), key, status, "application/json", body)
		}
	}
}
