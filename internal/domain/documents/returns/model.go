// Package returns provides customer returns, returns to vendors and
// disposal of damaged or expired stock.
package returns

import (
	"context"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/entity"
	"pharmacy/internal/core/id"
	"pharmacy/internal/domain/documents"
	"pharmacy/internal/domain/posting"
)

// DocumentType is the recorder type of return movements.
const DocumentType = "return"

// Kind of return.
type Kind string

const (
	// KindCustomer puts sold stock back into its batch
	KindCustomer Kind = "customer_return"
	// KindVendor sends stock back to the vendor
	KindVendor Kind = "vendor_return"
	// KindDisposal writes stock off
	KindDisposal Kind = "disposal"
)

// Valid reports whether k is known.
func (k Kind) Valid() bool {
	return k == KindCustomer || k == KindVendor || k == KindDisposal
}

// Return moves stock back in (customer) or out (vendor, disposal).
type Return struct {
	entity.Document
	documents.Amounts

	Kind       Kind   `db:"kind" json:"kind"`
	InvoiceID  *id.ID `db:"invoice_id" json:"invoiceId,omitempty"`
	VendorID   *id.ID `db:"vendor_id" json:"vendorId,omitempty"`
	LocationID id.ID  `db:"location_id" json:"locationId"`
	Reason     string `db:"reason" json:"reason"`

	Lines documents.Lines `db:"-" json:"lines"`
}

// NewReturn creates a return of the given kind.
func NewReturn(kind Kind, locationID id.ID) *Return {
	return &Return{
		Document:   entity.NewDocument(),
		Kind:       kind,
		LocationID: locationID,
	}
}

// Validate implements entity.Validatable.
func (r *Return) Validate(ctx context.Context) error {
	if err := r.Document.Validate(ctx); err != nil {
		return err
	}
	if !r.Kind.Valid() {
		return apperror.NewValidation("unknown return kind").
			WithDetail("field", "kind").
			WithDetail("value", string(r.Kind))
	}
	if id.IsNil(r.LocationID) {
		return apperror.NewValidation("location is required").WithDetail("field", "locationId")
	}
	switch r.Kind {
	case KindCustomer:
		if r.InvoiceID == nil || id.IsNil(*r.InvoiceID) {
			return apperror.NewValidation("invoice is required for a customer return").WithDetail("field", "invoiceId")
		}
	case KindVendor:
		if r.VendorID == nil || id.IsNil(*r.VendorID) {
			return apperror.NewValidation("vendor is required for a vendor return").WithDetail("field", "vendorId")
		}
	}
	if r.Reason == "" && r.Kind == KindDisposal {
		return apperror.NewValidation("reason is required for a disposal").WithDetail("field", "reason")
	}
	return r.Lines.Validate(true)
}

func (r *Return) GetLines() documents.Lines { return r.Lines }

func (r *Return) SetLines(ls documents.Lines) {
	r.Lines = ls
	r.Amounts = ls.Totals()
}

// GetDocumentType returns the document type name.
func (r *Return) GetDocumentType() string {
	return DocumentType
}

// GenerateMovements receives customer returns and issues the other kinds.
func (r *Return) GenerateMovements(ctx context.Context) (*posting.MovementSet, error) {
	rt := entity.RecordTypeExpense
	if r.Kind == KindCustomer {
		rt = entity.RecordTypeReceipt
	}

	movements := posting.NewMovementSet()
	for _, line := range r.Lines {
		movements.AddStock(entity.StockMovement{
			MovementBase: entity.NewMovementBase(r.ID, DocumentType, r.PostedVersion, r.Date, rt),
			ItemID:       line.ItemID,
			ItemName:     line.ItemName,
			BatchNo:      line.BatchNo,
			LocationID:   r.LocationID,
			Quantity:     line.Quantity,
			Rate:         line.Rate,
			ExpiryDate:   line.ExpiryDate,
			MRP:          line.MRP,
			VendorID:     r.VendorID,
		})
	}
	return movements, nil
}

var _ posting.Postable = (*Return)(nil)
