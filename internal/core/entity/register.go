package entity

import (
	"time"

	"pharmacy/internal/core/id"
	"pharmacy/internal/core/types"
)

// RecordType defines movement direction for the stock register.
type RecordType string

const (
	// RecordTypeReceipt increases the batch balance
	RecordTypeReceipt RecordType = "receipt"
	// RecordTypeExpense decreases the batch balance
	RecordTypeExpense RecordType = "expense"
)

// MovementBase contains common fields for all register movements.
// Movements are immutable - they are never updated, only deleted and recreated.
type MovementBase struct {
	// LineID is unique identifier for this movement line (UUIDv7)
	LineID id.ID `db:"line_id" json:"lineId"`

	// RecorderID is the document that created this movement
	RecorderID id.ID `db:"recorder_id" json:"recorderId"`

	// RecorderType is the document type (e.g., "goods_receipt", "invoice")
	RecorderType string `db:"recorder_type" json:"recorderType"`

	// RecorderNumber is the human document number shown in the ledger
	RecorderNumber string `db:"recorder_number" json:"recorderNumber"`

	// RecorderVersion tracks which posting iteration created this movement
	RecorderVersion int `db:"recorder_version" json:"recorderVersion"`

	// Period is the business date for the movement
	Period time.Time `db:"period" json:"period"`

	RecordType RecordType `db:"record_type" json:"recordType"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewMovementBase creates a new movement base with generated LineID.
func NewMovementBase(recorderID id.ID, recorderType string, recorderVersion int, period time.Time, recordType RecordType) MovementBase {
	return MovementBase{
		LineID:          id.New(),
		RecorderID:      recorderID,
		RecorderType:    recorderType,
		RecorderVersion: recorderVersion,
		Period:          period,
		RecordType:      recordType,
		CreatedAt:       time.Now().UTC(),
	}
}

// StockMovement is one line of the batch-level stock register.
// Dimensions are item, batch and location; the resource is an integer quantity.
type StockMovement struct {
	MovementBase

	// Dimensions
	ItemID     id.ID  `db:"item_id" json:"itemId"`
	ItemName   string `db:"item_name" json:"itemName"`
	BatchNo    string `db:"batch_no" json:"batchNo"`
	LocationID id.ID  `db:"location_id" json:"locationId"`

	// Resources
	Quantity int64       `db:"quantity" json:"quantity"`
	Rate     types.Money `db:"rate" json:"rate"`

	// Batch attributes carried by receipts so the batch can be created.
	ExpiryDate *time.Time  `db:"expiry_date" json:"expiryDate,omitempty"`
	MRP        types.Money `db:"mrp" json:"mrp"`
	VendorID   *id.ID      `db:"vendor_id" json:"vendorId,omitempty"`
}

// SignedQuantity returns quantity with sign based on record type.
// Receipt = positive, Expense = negative.
func (m *StockMovement) SignedQuantity() int64 {
	if m.RecordType == RecordTypeExpense {
		return -m.Quantity
	}
	return m.Quantity
}

// Inverse returns a movement that undoes m.
func (m StockMovement) Inverse() StockMovement {
	inv := m
	inv.LineID = id.New()
	if m.RecordType == RecordTypeExpense {
		inv.RecordType = RecordTypeReceipt
	} else {
		inv.RecordType = RecordTypeExpense
	}
	return inv
}
