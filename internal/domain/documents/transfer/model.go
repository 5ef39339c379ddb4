// Package transfer provides external transfers: stock leaving a location for
// a branch or another party.
package transfer

import (
	"context"
	"strings"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/entity"
	"pharmacy/internal/core/id"
	"pharmacy/internal/domain/documents"
	"pharmacy/internal/domain/posting"
)

// DocumentType is the recorder type of transfer movements.
const DocumentType = "external_transfer"

// Transfer issues stock from FromLocationID to an external destination.
type Transfer struct {
	entity.Document
	documents.Amounts

	FromLocationID id.ID  `db:"from_location_id" json:"fromLocationId"`
	Destination    string `db:"destination" json:"destination"`
	VehicleNo      string `db:"vehicle_no" json:"vehicleNo,omitempty"`

	Lines documents.Lines `db:"-" json:"lines"`
}

// NewTransfer creates a transfer.
func NewTransfer(from id.ID, destination string) *Transfer {
	return &Transfer{
		Document:       entity.NewDocument(),
		FromLocationID: from,
		Destination:    destination,
	}
}

// Validate implements entity.Validatable.
func (t *Transfer) Validate(ctx context.Context) error {
	if err := t.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(t.FromLocationID) {
		return apperror.NewValidation("source location is required").WithDetail("field", "fromLocationId")
	}
	t.Destination = strings.TrimSpace(t.Destination)
	if t.Destination == "" {
		return apperror.NewValidation("destination is required").WithDetail("field", "destination")
	}
	t.VehicleNo = strings.ToUpper(strings.TrimSpace(t.VehicleNo))
	return t.Lines.Validate(true)
}

func (t *Transfer) GetLines() documents.Lines { return t.Lines }

func (t *Transfer) SetLines(ls documents.Lines) {
	t.Lines = ls
	t.Amounts = ls.Totals()
}

// GetDocumentType returns the document type name.
func (t *Transfer) GetDocumentType() string {
	return DocumentType
}

// GenerateMovements issues every line from the source location.
func (t *Transfer) GenerateMovements(ctx context.Context) (*posting.MovementSet, error) {
	movements := posting.NewMovementSet()
	for _, line := range t.Lines {
		movements.AddStock(entity.StockMovement{
			MovementBase: entity.NewMovementBase(t.ID, DocumentType, t.PostedVersion, t.Date, entity.RecordTypeExpense),
			ItemID:       line.ItemID,
			ItemName:     line.ItemName,
			BatchNo:      line.BatchNo,
			LocationID:   t.FromLocationID,
			Quantity:     line.Quantity,
			Rate:         line.Rate,
		})
	}
	return movements, nil
}

var _ posting.Postable = (*Transfer)(nil)
