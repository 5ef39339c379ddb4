// Package goods_receipt provides the goods receipt note (GRN): stock arriving
// from a vendor, batch by batch.
package goods_receipt

import (
	"context"
	"fmt"
	"time"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/entity"
	"pharmacy/internal/core/id"
	"pharmacy/internal/core/types"
	"pharmacy/internal/domain/documents"
	"pharmacy/internal/domain/posting"
)

// DocumentType is the recorder type of GRN movements.
const DocumentType = "goods_receipt"

// GoodsReceipt records goods received from a vendor into a location.
type GoodsReceipt struct {
	entity.Document
	documents.Amounts

	VendorID   id.ID `db:"vendor_id" json:"vendorId"`
	LocationID id.ID `db:"location_id" json:"locationId"`

	// PurchaseOrderID links the order this receipt fulfils
	PurchaseOrderID *id.ID `db:"purchase_order_id" json:"purchaseOrderId,omitempty"`

	// Vendor's invoice reference
	SupplierInvoiceNo   string     `db:"supplier_invoice_no" json:"supplierInvoiceNo,omitempty"`
	SupplierInvoiceDate *time.Time `db:"supplier_invoice_date" json:"supplierInvoiceDate,omitempty"`

	// PaidAmount is paid to the vendor on receipt; the rest stays on the supplier ledger
	PaidAmount types.Money `db:"paid_amount" json:"paidAmount"`

	Lines documents.Lines `db:"-" json:"lines"`
}

// NewGoodsReceipt creates a new goods receipt.
func NewGoodsReceipt(vendorID, locationID id.ID) *GoodsReceipt {
	return &GoodsReceipt{
		Document:   entity.NewDocument(),
		VendorID:   vendorID,
		LocationID: locationID,
		PaidAmount: types.Zero(),
	}
}

// Validate implements entity.Validatable.
func (g *GoodsReceipt) Validate(ctx context.Context) error {
	if err := g.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(g.VendorID) {
		return apperror.NewValidation("vendor is required").
			WithDetail("field", "vendorId")
	}

	if id.IsNil(g.LocationID) {
		return apperror.NewValidation("location is required").
			WithDetail("field", "locationId")
	}

	if g.PaidAmount.IsNegative() {
		return apperror.NewValidation("paid amount cannot be negative").
			WithDetail("field", "paidAmount")
	}

	if err := g.Lines.Validate(true); err != nil {
		return err
	}

	for i, line := range g.Lines {
		if line.ExpiryDate == nil {
			return apperror.NewValidation(fmt.Sprintf("line %d: expiry date is required", i+1)).
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if line.ExpiryDate.Before(g.Date) {
			return apperror.NewValidation(fmt.Sprintf("line %d: batch %s is already expired", i+1, line.BatchNo)).
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
	}

	if g.PaidAmount.GreaterThan(g.Lines.Totals().Total) {
		return apperror.NewValidation("paid amount exceeds the receipt total").
			WithDetail("field", "paidAmount")
	}

	return nil
}

func (g *GoodsReceipt) GetLines() documents.Lines { return g.Lines }

func (g *GoodsReceipt) SetLines(ls documents.Lines) {
	g.Lines = ls
	g.Amounts = ls.Totals()
}

// GetDocumentType returns the document type name.
func (g *GoodsReceipt) GetDocumentType() string {
	return DocumentType
}

// GenerateMovements creates one receipt per line. The movement carries the
// batch attributes so a new batch can be opened.
func (g *GoodsReceipt) GenerateMovements(ctx context.Context) (*posting.MovementSet, error) {
	movements := posting.NewMovementSet()
	vendorID := g.VendorID

	for _, line := range g.Lines {
		movements.AddStock(entity.StockMovement{
			MovementBase: entity.NewMovementBase(g.ID, DocumentType, g.PostedVersion, g.Date, entity.RecordTypeReceipt),
			ItemID:       line.ItemID,
			ItemName:     line.ItemName,
			BatchNo:      line.BatchNo,
			LocationID:   g.LocationID,
			Quantity:     line.Quantity,
			Rate:         line.Rate,
			ExpiryDate:   line.ExpiryDate,
			MRP:          line.MRP,
			VendorID:     &vendorID,
		})
	}

	return movements, nil
}

// Ensure interface compliance at compile time.
var _ posting.Postable = (*GoodsReceipt)(nil)
