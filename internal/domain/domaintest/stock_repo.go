package domaintest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/entity"
	"pharmacy/internal/core/id"
	"pharmacy/internal/core/types"
	"pharmacy/internal/domain"
	"pharmacy/internal/domain/registers/stock"
)

// StockRepo is a map-backed stock.Repository. Batches are copied on the way
// in and out so a failed posting leaves stored state untouched.
type StockRepo struct {
	mu        sync.Mutex
	batches   map[stock.BatchKey]*stock.Batch
	movements []entity.StockMovement
	supplier  map[id.ID][]stock.SupplierEntry
}

// NewStockRepo creates an empty register.
func NewStockRepo() *StockRepo {
	return &StockRepo{
		batches:  make(map[stock.BatchKey]*stock.Batch),
		supplier: make(map[id.ID][]stock.SupplierEntry),
	}
}

// PutBatch seeds a batch.
func (r *StockRepo) PutBatch(b *stock.Batch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id.IsNil(b.ID) {
		b.ID = id.New()
	}
	cp := *b
	r.batches[b.Key()] = &cp
}

// Quantity returns the stored quantity of a batch, 0 if absent.
func (r *StockRepo) Quantity(key stock.BatchKey) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.batches[key]; ok {
		return b.Quantity
	}
	return 0
}

// AllMovements returns a copy of stored movements.
func (r *StockRepo) AllMovements() []entity.StockMovement {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entity.StockMovement(nil), r.movements...)
}

// AddSupplierEntry seeds a supplier ledger event.
func (r *StockRepo) AddSupplierEntry(vendorID id.ID, e stock.SupplierEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.supplier[vendorID] = append(r.supplier[vendorID], e)
}

func (r *StockRepo) CreateMovements(_ context.Context, movements []entity.StockMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movements = append(r.movements, movements...)
	return nil
}

func (r *StockRepo) GetMovementsByRecorder(_ context.Context, recorderID id.ID) ([]entity.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.StockMovement
	for _, m := range r.movements {
		if m.RecorderID == recorderID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *StockRepo) DeleteMovementsByRecorder(_ context.Context, recorderID id.ID, beforeVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.movements[:0]
	for _, m := range r.movements {
		if m.RecorderID == recorderID && m.RecorderVersion < beforeVersion {
			continue
		}
		kept = append(kept, m)
	}
	r.movements = kept
	return nil
}

func (r *StockRepo) GetBatchForUpdate(_ context.Context, key stock.BatchKey) (*stock.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.batches[key]
	if !ok {
		return nil, apperror.NewNotFound("batch", key.String())
	}
	cp := *b
	return &cp, nil
}

func (r *StockRepo) SaveBatch(_ context.Context, b *stock.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *b
	r.batches[b.Key()] = &cp
	return nil
}

func (r *StockRepo) ListBatches(_ context.Context, f stock.ListFilter) (domain.ListResult[*stock.Batch], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*stock.Batch
	for _, b := range r.batches {
		if f.ItemID != nil && b.ItemID != *f.ItemID {
			continue
		}
		if f.LocationID != nil && b.LocationID != *f.LocationID {
			continue
		}
		if !f.IncludeEmpty && b.Quantity == 0 {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(b.ItemName+" "+b.BatchNo), strings.ToLower(f.Search)) {
			continue
		}
		cp := *b
		items = append(items, &cp)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Key().String() < items[j].Key().String() })
	total := len(items)
	if f.Offset < len(items) {
		items = items[f.Offset:]
	} else {
		items = nil
	}
	if f.Limit > 0 && len(items) > f.Limit {
		items = items[:f.Limit]
	}
	return domain.ListResult[*stock.Batch]{Items: items, TotalCount: int64(total), Limit: f.Limit, Offset: f.Offset}, nil
}

func (r *StockRepo) AvailableBatches(_ context.Context, itemID id.ID, asOf time.Time) ([]*stock.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*stock.Batch
	for _, b := range r.batches {
		if b.ItemID == itemID && b.IsAvailable(asOf) {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *StockRepo) ExpiringBatches(_ context.Context, until time.Time) ([]*stock.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*stock.Batch
	for _, b := range r.batches {
		if b.Quantity > 0 && b.ExpiryDate != nil && b.ExpiryDate.Before(until) {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *StockRepo) matches(m entity.StockMovement, f stock.LedgerFilter) bool {
	if f.ItemID != nil && m.ItemID != *f.ItemID {
		return false
	}
	if f.LocationID != nil && m.LocationID != *f.LocationID {
		return false
	}
	return f.BatchNo == "" || m.BatchNo == f.BatchNo
}

func (r *StockRepo) Movements(_ context.Context, f stock.LedgerFilter) ([]entity.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.StockMovement
	for _, m := range r.movements {
		if !r.matches(m, f) {
			continue
		}
		if f.From != nil && m.Period.Before(*f.From) {
			continue
		}
		if f.To != nil && m.Period.After(*f.To) {
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Period.Before(out[j].Period) })
	return out, nil
}

func (r *StockRepo) OpeningBalances(_ context.Context, f stock.LedgerFilter) (map[id.ID]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[id.ID]int64)
	for _, m := range r.movements {
		if r.matches(m, f) && f.From != nil && m.Period.Before(*f.From) {
			out[m.ItemID] += m.SignedQuantity()
		}
	}
	return out, nil
}

func (r *StockRepo) SupplierEntries(_ context.Context, vendorID id.ID, from, to time.Time) ([]stock.SupplierEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []stock.SupplierEntry
	for _, e := range r.supplier[vendorID] {
		if !e.Date.Before(from) && !e.Date.After(to) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *StockRepo) SupplierBalanceBefore(_ context.Context, vendorID id.ID, from time.Time) (types.Money, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bal := decimal.Zero
	for _, e := range r.supplier[vendorID] {
		if e.Date.Before(from) {
			bal = bal.Add(e.Credit).Sub(e.Debit)
		}
	}
	return bal, nil
}

var _ stock.Repository = (*StockRepo)(nil)
