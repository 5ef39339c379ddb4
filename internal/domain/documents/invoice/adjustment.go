package invoice

import (
	"context"
	"time"

	"pharmacy/internal/core/id"
	"pharmacy/internal/domain/reconcile"
)

// AdjustmentRecorderType is the recorder type of adjustment movements.
const AdjustmentRecorderType = "invoice_adjustment"

// Adjustment is a requested change of an invoiced line quantity. Raising the
// quantity takes more stock from the line's batch, lowering it returns stock.
type Adjustment struct {
	ID          id.ID           `db:"id" json:"id"`
	InvoiceID   id.ID           `db:"invoice_id" json:"invoiceId"`
	LineID      id.ID           `db:"line_id" json:"lineId"`
	ItemID      id.ID           `db:"item_id" json:"itemId"`
	ItemName    string          `db:"item_name" json:"itemName"`
	BatchNo     string          `db:"batch_no" json:"batchNo"`
	LocationID  id.ID           `db:"location_id" json:"locationId"`
	OriginalQty int64           `db:"original_qty" json:"originalQty"`
	NewQty      int64           `db:"new_qty" json:"newQty"`
	State       reconcile.State `db:"state" json:"state"`
	Reason      string          `db:"reason" json:"reason,omitempty"`
	CreatedBy   string          `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updatedAt"`
}

// Delta is the signed quantity change.
func (a *Adjustment) Delta() int64 {
	return a.NewQty - a.OriginalQty
}

// Open reports whether the adjustment can still change stock.
func (a *Adjustment) Open() bool {
	return !a.State.Terminal()
}

func (a *Adjustment) machine() *reconcile.Machine {
	return &reconcile.Machine{State: a.State, OriginalQty: a.OriginalQty, NewQty: a.NewQty}
}

// AdjustmentRepository stores adjustments.
type AdjustmentRepository interface {
	Create(ctx context.Context, a *Adjustment) error
	GetByID(ctx context.Context, adjID id.ID) (*Adjustment, error)

	// GetForUpdate retrieves the adjustment with a row lock
	GetForUpdate(ctx context.Context, adjID id.ID) (*Adjustment, error)
	Update(ctx context.Context, a *Adjustment) error
	ListByInvoice(ctx context.Context, invoiceID id.ID) ([]*Adjustment, error)
}
