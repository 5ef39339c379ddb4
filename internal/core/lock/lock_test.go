package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_ObtainRelease(t *testing.T) {
	ctx := context.Background()
	l := NewLocal()

	first, err := l.Obtain(ctx, Key("batch", "A1"), time.Second)
	require.NoError(t, err)

	_, err = l.Obtain(ctx, "batch:A1", time.Second)
	assert.ErrorIs(t, err, ErrNotObtained)

	require.NoError(t, first.Release(ctx))
	require.NoError(t, first.Release(ctx))

	_, err = l.Obtain(ctx, "batch:A1", time.Second)
	assert.NoError(t, err)
}

func TestWithLock_ReleasesOnError(t *testing.T) {
	ctx := context.Background()
	l := NewLocal()

	err := WithLock(ctx, l, "adj:1", time.Second, func(context.Context) error {
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	held, err := l.Obtain(ctx, "adj:1", time.Second)
	require.NoError(t, err)
	_ = held.Release(ctx)
}
