package postgres

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "pharmacy/internal/core/context"
	"pharmacy/internal/core/id"
	"pharmacy/internal/domain/audit"
)

func TestAuditRecorder_PrepareCompressesLargePayloads(t *testing.T) {
	r, err := NewAuditRecorder(nil)
	require.NoError(t, err)
	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "u-1", Username: "pharmacist"})

	small, err := r.prepare(ctx, audit.Entry{
		EntityType: "batch", EntityID: id.New(), Action: audit.ActionStockAdjust,
		Changes: map[string]any{"delta": -2},
	})
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, small.CompressionAlgo)
	assert.JSONEq(t, `{"delta":-2}`, string(small.Changes))
	assert.Equal(t, "u-1", small.UserID)
	assert.Equal(t, "pharmacist", small.Username)

	big, err := r.prepare(ctx, audit.Entry{
		EntityType: "invoice", EntityID: id.New(), Action: audit.ActionPaymentReturn,
		Changes: map[string]any{"reason": strings.Repeat("damaged strip ", 400)},
	})
	require.NoError(t, err)
	assert.Equal(t, CompressionZstd, big.CompressionAlgo)
	assert.Nil(t, big.Changes)
	assert.NotEmpty(t, big.ChangesCompressed)

	require.NoError(t, r.inflate(&big))
	assert.Contains(t, string(big.Changes), "damaged strip")
	assert.Nil(t, big.ChangesCompressed)
}
