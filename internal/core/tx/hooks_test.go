package tx

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAfterCommit(t *testing.T) {
	ctx := context.Background()

	t.Run("runs after commit", func(t *testing.T) {
		var calls []string
		err := Nop{}.RunInTransaction(ctx, func(ctx context.Context) error {
			AfterCommit(ctx, func(context.Context) { calls = append(calls, "hook") })
			calls = append(calls, "body")
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, []string{"body", "hook"}, calls)
	})

	t.Run("dropped on rollback", func(t *testing.T) {
		ran := false
		err := Nop{}.RunInTransaction(ctx, func(ctx context.Context) error {
			AfterCommit(ctx, func(context.Context) { ran = true })
			return errors.New("boom")
		})
		assert.Error(t, err)
		assert.False(t, ran)
	})

	t.Run("nested waits for the outer transaction", func(t *testing.T) {
		var calls []string
		err := Nop{}.RunInTransaction(ctx, func(ctx context.Context) error {
			_ = Nop{}.RunInTransaction(ctx, func(ctx context.Context) error {
				AfterCommit(ctx, func(context.Context) { calls = append(calls, "hook") })
				return nil
			})
			calls = append(calls, "outer")
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, []string{"outer", "hook"}, calls)
	})

	t.Run("outside a transaction runs now", func(t *testing.T) {
		ran := false
		AfterCommit(ctx, func(context.Context) { ran = true })
		assert.True(t, ran)
	})
}
