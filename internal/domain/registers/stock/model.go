package stock

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/id"
	"pharmacy/internal/core/types"
)

// Recorder types for movements that are not produced by a posted document.
const (
	RecorderAdjustment = "stock_adjustment"
	RecorderOpening    = "opening_stock"
)

// BatchKey identifies a batch: an item lot kept at one location.
type BatchKey struct {
	ItemID     id.ID
	BatchNo    string
	LocationID id.ID
}

// String is used for lock keys and log fields.
func (k BatchKey) String() string {
	return fmt.Sprintf("%s:%s:%s", k.ItemID, k.BatchNo, k.LocationID)
}

// Batch is a dated lot of one item at one location with its remaining quantity.
type Batch struct {
	ID         id.ID       `db:"id" json:"id"`
	ItemID     id.ID       `db:"item_id" json:"itemId"`
	ItemName   string      `db:"item_name" json:"itemName"`
	BatchNo    string      `db:"batch_no" json:"batchNo"`
	LocationID id.ID       `db:"location_id" json:"locationId"`
	ExpiryDate *time.Time  `db:"expiry_date" json:"expiryDate,omitempty"`
	Quantity   int64       `db:"quantity" json:"remainingQty"`
	UnitCost   types.Money `db:"unit_cost" json:"unitCost"`
	MRP        types.Money `db:"mrp" json:"mrp"`
	VendorID   *id.ID      `db:"vendor_id" json:"vendorId,omitempty"`
	CreatedAt  time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time   `db:"updated_at" json:"updatedAt"`
}

// Key returns the batch key.
func (b *Batch) Key() BatchKey {
	return BatchKey{ItemID: b.ItemID, BatchNo: b.BatchNo, LocationID: b.LocationID}
}

// IsExpired reports whether the batch expired before now.
func (b *Batch) IsExpired(now time.Time) bool {
	return b.ExpiryDate != nil && b.ExpiryDate.Before(now)
}

// WillExpireWithin reports whether the batch expires before now+d.
func (b *Batch) WillExpireWithin(d time.Duration, now time.Time) bool {
	return b.ExpiryDate != nil && b.ExpiryDate.Before(now.Add(d))
}

// DaysUntilExpiry returns whole days left, or -1 without an expiry date.
func (b *Batch) DaysUntilExpiry(now time.Time) int {
	if b.ExpiryDate == nil {
		return -1
	}
	return int(b.ExpiryDate.Sub(now).Hours() / 24)
}

// IsAvailable reports whether the batch can be sold.
func (b *Batch) IsAvailable(now time.Time) bool {
	return b.Quantity > 0 && !b.IsExpired(now)
}

// Deduct removes qty or fails naming the item and what is left.
func (b *Batch) Deduct(qty int64) error {
	if qty > b.Quantity {
		return apperror.NewInsufficientStock(b.ItemName, b.BatchNo, qty, b.Quantity)
	}
	b.Quantity -= qty
	return nil
}

// Add puts qty back.
func (b *Batch) Add(qty int64) {
	b.Quantity += qty
}

// StockValue is remaining quantity at unit cost.
func (b *Batch) StockValue() types.Money {
	return b.UnitCost.Mul(decimal.NewFromInt(b.Quantity))
}

// AdjustRequest changes a batch quantity by a signed delta.
type AdjustRequest struct {
	ItemID     id.ID
	BatchNo    string
	LocationID id.ID
	Delta      int64
	Reason     string
}

// Validate checks the request.
func (r AdjustRequest) Validate() error {
	if id.IsNil(r.ItemID) {
		return apperror.NewValidation("item is required").WithDetail("field", "itemId")
	}
	if id.IsNil(r.LocationID) {
		return apperror.NewValidation("location is required").WithDetail("field", "locationId")
	}
	if r.Delta == 0 {
		return apperror.NewValidation("adjustment quantity cannot be zero").WithDetail("field", "delta")
	}
	if r.Reason == "" {
		return apperror.NewValidation("reason is required").WithDetail("field", "reason")
	}
	return nil
}

// AddBatchRequest opens a batch with initial stock.
type AddBatchRequest struct {
	ItemID     id.ID
	ItemName   string
	BatchNo    string
	LocationID id.ID
	ExpiryDate *time.Time
	Quantity   int64
	UnitCost   types.Money
	MRP        types.Money
	VendorID   *id.ID
}

// Validate checks the request.
func (r AddBatchRequest) Validate() error {
	switch {
	case id.IsNil(r.ItemID):
		return apperror.NewValidation("item is required").WithDetail("field", "itemId")
	case r.BatchNo == "":
		return apperror.NewValidation("batch number is required").WithDetail("field", "batchNo")
	case id.IsNil(r.LocationID):
		return apperror.NewValidation("location is required").WithDetail("field", "locationId")
	case r.Quantity <= 0:
		return apperror.NewValidation("quantity must be positive").WithDetail("field", "quantity")
	case r.UnitCost.IsNegative() || r.MRP.IsNegative():
		return apperror.NewValidation("rates cannot be negative").WithDetail("field", "unitCost")
	}
	return nil
}

// ListFilter selects batches for stock management.
type ListFilter struct {
	ItemID     *id.ID
	LocationID *id.ID
	Search     string

	// ExpiringWithinDays keeps batches expiring in the next N days
	ExpiringWithinDays *int

	// LowStockOnly keeps batches of items at or below their reorder level
	LowStockOnly bool

	IncludeEmpty bool
	Limit        int
	Offset       int
}

// LedgerFilter selects movements for the stock ledger.
type LedgerFilter struct {
	ItemID     *id.ID
	LocationID *id.ID
	BatchNo    string
	From       *time.Time
	To         *time.Time
	Limit      int
}

// LedgerEntry is one ledger row with the running balance of its item.
type LedgerEntry struct {
	Date           time.Time   `json:"date"`
	DocumentType   string      `json:"documentType"`
	DocumentNumber string      `json:"documentNumber"`
	ItemID         id.ID       `json:"itemId"`
	ItemName       string      `json:"itemName"`
	BatchNo        string      `json:"batchNo"`
	LocationID     id.ID       `json:"locationId"`
	In             int64       `json:"in"`
	Out            int64       `json:"out"`
	Balance        int64       `json:"balance"`
	Rate           types.Money `json:"rate"`
}

// SupplierEntry is a raw supplier ledger event before balances are applied.
type SupplierEntry struct {
	Date           time.Time   `db:"date" json:"date"`
	DocumentType   string      `db:"document_type" json:"documentType"`
	DocumentNumber string      `db:"document_number" json:"documentNumber"`
	Debit          types.Money `db:"debit" json:"debit"`
	Credit         types.Money `db:"credit" json:"credit"`
}

// SupplierLedgerEntry adds the running balance (amount owed to the vendor).
type SupplierLedgerEntry struct {
	SupplierEntry
	Balance types.Money `json:"balance"`
}

// SupplierLedger is the statement of one vendor for a period.
type SupplierLedger struct {
	VendorID       id.ID                 `json:"vendorId"`
	OpeningBalance types.Money           `json:"openingBalance"`
	Entries        []SupplierLedgerEntry `json:"entries"`
	TotalDebit     types.Money           `json:"totalDebit"`
	TotalCredit    types.Money           `json:"totalCredit"`
	ClosingBalance types.Money           `json:"closingBalance"`
}
