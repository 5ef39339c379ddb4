package domaintest

import (
	"context"
	"sort"
	"sync"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/id"
	"pharmacy/internal/domain/documents/invoice"
)

// AdjustmentRepo is a map-backed invoice.AdjustmentRepository.
type AdjustmentRepo struct {
	mu    sync.Mutex
	items map[id.ID]invoice.Adjustment
}

// NewAdjustmentRepo creates an empty repository.
func NewAdjustmentRepo() *AdjustmentRepo {
	return &AdjustmentRepo{items: make(map[id.ID]invoice.Adjustment)}
}

func (r *AdjustmentRepo) Create(_ context.Context, a *invoice.Adjustment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[a.ID] = *a
	return nil
}

func (r *AdjustmentRepo) GetByID(_ context.Context, adjID id.ID) (*invoice.Adjustment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[adjID]
	if !ok {
		return nil, apperror.NewNotFound("adjustment", adjID.String())
	}
	return &a, nil
}

func (r *AdjustmentRepo) GetForUpdate(ctx context.Context, adjID id.ID) (*invoice.Adjustment, error) {
	return r.GetByID(ctx, adjID)
}

func (r *AdjustmentRepo) Update(_ context.Context, a *invoice.Adjustment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[a.ID]; !ok {
		return apperror.NewNotFound("adjustment", a.ID.String())
	}
	r.items[a.ID] = *a
	return nil
}

func (r *AdjustmentRepo) ListByInvoice(_ context.Context, invoiceID id.ID) ([]*invoice.Adjustment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*invoice.Adjustment
	for _, a := range r.items {
		if a.InvoiceID == invoiceID {
			cp := a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
