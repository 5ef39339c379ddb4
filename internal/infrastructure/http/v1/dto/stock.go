package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"pharmacy/internal/core/id"
	"pharmacy/internal/domain/registers/stock"
)

// StockListQuery filters the batch list of stock management.
type StockListQuery struct {
	ItemID       string `form:"itemId" binding:"omitempty,uuid"`
	LocationID   string `form:"locationId" binding:"omitempty,uuid"`
	Search       string `form:"search"`
	ExpiringDays *int   `form:"expiringWithinDays" binding:"omitempty,min=0,max=3650"`
	LowStock     bool   `form:"lowStock"`
	IncludeEmpty bool   `form:"includeEmpty"`
	Limit        int    `form:"limit" binding:"min=0,max=1000"`
	Offset       int    `form:"offset" binding:"min=0"`
}

// ToFilter converts the query to a stock filter.
func (q StockListQuery) ToFilter() (stock.ListFilter, error) {
	f := stock.ListFilter{
		Search:             q.Search,
		ExpiringWithinDays: q.ExpiringDays,
		LowStockOnly:       q.LowStock,
		IncludeEmpty:       q.IncludeEmpty,
		Limit:              q.Limit,
		Offset:             q.Offset,
	}
	if f.Limit == 0 {
		f.Limit = 50
	}
	var err error
	if f.ItemID, err = ParseOptionalID(q.ItemID); err != nil {
		return f, err
	}
	if f.LocationID, err = ParseOptionalID(q.LocationID); err != nil {
		return f, err
	}
	return f, nil
}

// StockAdjustRequest changes the quantity of a batch.
type StockAdjustRequest struct {
	ItemID     id.ID  `json:"itemId" binding:"required"`
	BatchNo    string `json:"batchNo"`
	LocationID id.ID  `json:"locationId" binding:"required"`
	Delta      int64  `json:"delta" binding:"required"`
	Reason     string `json:"reason" binding:"required,max=500"`
}

// ToAdjust converts to the register request.
func (r StockAdjustRequest) ToAdjust() stock.AdjustRequest {
	return stock.AdjustRequest{
		ItemID:     r.ItemID,
		BatchNo:    r.BatchNo,
		LocationID: r.LocationID,
		Delta:      r.Delta,
		Reason:     r.Reason,
	}
}

// AddBatchStockRequest opens a batch with stock.
type AddBatchStockRequest struct {
	ItemID     id.ID           `json:"itemId" binding:"required"`
	ItemName   string          `json:"itemName"`
	BatchNo    string          `json:"batchNo" binding:"required,max=64"`
	LocationID id.ID           `json:"locationId" binding:"required"`
	ExpiryDate *DateOnly       `json:"expiryDate"`
	Quantity   int64           `json:"quantity" binding:"required,min=1"`
	UnitCost   decimal.Decimal `json:"unitCost"`
	MRP        decimal.Decimal `json:"mrp"`
	VendorID   *id.ID          `json:"vendorId"`
}

// ToAddBatch converts to the register request.
func (r AddBatchStockRequest) ToAddBatch() stock.AddBatchRequest {
	return stock.AddBatchRequest{
		ItemID:     r.ItemID,
		ItemName:   r.ItemName,
		BatchNo:    r.BatchNo,
		LocationID: r.LocationID,
		ExpiryDate: r.ExpiryDate.Ptr(),
		Quantity:   r.Quantity,
		UnitCost:   r.UnitCost,
		MRP:        r.MRP,
		VendorID:   r.VendorID,
	}
}

// LedgerQuery selects stock ledger movements.
type LedgerQuery struct {
	ItemID     string     `form:"itemId" binding:"omitempty,uuid"`
	LocationID string     `form:"locationId" binding:"omitempty,uuid"`
	BatchNo    string     `form:"batchNo"`
	From       *time.Time `form:"from" time_format:"2006-01-02"`
	To         *time.Time `form:"to" time_format:"2006-01-02"`
	Limit      int        `form:"limit" binding:"min=0,max=10000"`
}

// ToFilter converts the query to a ledger filter.
func (q LedgerQuery) ToFilter() (stock.LedgerFilter, error) {
	f := stock.LedgerFilter{BatchNo: q.BatchNo, From: q.From, Limit: q.Limit}
	if q.To != nil {
		t := q.To.Add(24*time.Hour - time.Nanosecond)
		f.To = &t
	}
	var err error
	if f.ItemID, err = ParseOptionalID(q.ItemID); err != nil {
		return f, err
	}
	if f.LocationID, err = ParseOptionalID(q.LocationID); err != nil {
		return f, err
	}
	return f, nil
}

// SupplierLedgerQuery selects one vendor statement. The period defaults
// to the current month.
type SupplierLedgerQuery struct {
	VendorID string     `form:"vendorId" binding:"required,uuid"`
	From     *time.Time `form:"from" time_format:"2006-01-02"`
	To       *time.Time `form:"to" time_format:"2006-01-02"`
}

// Period returns the resolved [from, to] range.
func (q SupplierLedgerQuery) Period(now time.Time) (time.Time, time.Time) {
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := now
	if q.From != nil {
		from = q.From.UTC()
	}
	if q.To != nil {
		to = q.To.UTC().Add(24*time.Hour - time.Nanosecond)
	}
	return from, to
}
