// Package stock provides the batch-level stock register.
package stock

import (
	"context"
	"time"

	"pharmacy/internal/core/entity"
	"pharmacy/internal/core/id"
	"pharmacy/internal/core/types"
	"pharmacy/internal/domain"
)

// Repository defines operations for the stock register.
type Repository interface {
	// CreateMovements batch inserts movements (used during posting)
	CreateMovements(ctx context.Context, movements []entity.StockMovement) error

	// GetMovementsByRecorder retrieves all movements of a document
	GetMovementsByRecorder(ctx context.Context, recorderID id.ID) ([]entity.StockMovement, error)

	// DeleteMovementsByRecorder removes movements with recorder_version < beforeVersion
	DeleteMovementsByRecorder(ctx context.Context, recorderID id.ID, beforeVersion int) error

	// GetBatchForUpdate returns the batch with a row lock, NotFound if absent
	GetBatchForUpdate(ctx context.Context, key BatchKey) (*Batch, error)

	// SaveBatch inserts or updates a batch including its quantity
	SaveBatch(ctx context.Context, b *Batch) error

	// ListBatches backs the stock management view
	ListBatches(ctx context.Context, filter ListFilter) (domain.ListResult[*Batch], error)

	// AvailableBatches returns sellable batches of an item, earliest expiry first
	AvailableBatches(ctx context.Context, itemID id.ID, asOf time.Time) ([]*Batch, error)

	// ExpiringBatches returns batches with stock that expire before until
	ExpiringBatches(ctx context.Context, until time.Time) ([]*Batch, error)

	// Movements returns movements ordered by period and creation time
	Movements(ctx context.Context, filter LedgerFilter) ([]entity.StockMovement, error)

	// OpeningBalances sums signed quantities per item before filter.From
	OpeningBalances(ctx context.Context, filter LedgerFilter) (map[id.ID]int64, error)

	// SupplierEntries lists vendor documents in [from, to]
	SupplierEntries(ctx context.Context, vendorID id.ID, from, to time.Time) ([]SupplierEntry, error)

	// SupplierBalanceBefore returns credit minus debit before from
	SupplierBalanceBefore(ctx context.Context, vendorID id.ID, from time.Time) (types.Money, error)
}

// BatchCache caches available batches per item.
type BatchCache interface {
	Get(ctx context.Context, itemID id.ID) ([]*Batch, bool, error)
	Set(ctx context.Context, itemID id.ID, batches []*Batch) error
	Invalidate(ctx context.Context, itemIDs ...id.ID) error
}

type nopCache struct{}

func (nopCache) Get(context.Context, id.ID) ([]*Batch, bool, error) { return nil, false, nil }
func (nopCache) Set(context.Context, id.ID, []*Batch) error         { return nil }
func (nopCache) Invalidate(context.Context, ...id.ID) error         { return nil }
