// Package consumption provides consumption issues: stock used internally by
// a department.
package consumption

import (
	"context"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/entity"
	"pharmacy/internal/core/id"
	"pharmacy/internal/domain/documents"
	"pharmacy/internal/domain/posting"
)

// DocumentType is the recorder type of consumption movements.
const DocumentType = "consumption_issue"

// Issue hands stock from a location to a department.
type Issue struct {
	entity.Document
	documents.Amounts

	LocationID   id.ID  `db:"location_id" json:"locationId"`
	DepartmentID id.ID  `db:"department_id" json:"departmentId"`
	IssuedTo     string `db:"issued_to" json:"issuedTo"`

	Lines documents.Lines `db:"-" json:"lines"`
}

// NewIssue creates a consumption issue.
func NewIssue(locationID, departmentID id.ID) *Issue {
	return &Issue{
		Document:     entity.NewDocument(),
		LocationID:   locationID,
		DepartmentID: departmentID,
	}
}

// Validate implements entity.Validatable.
func (c *Issue) Validate(ctx context.Context) error {
	if err := c.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(c.LocationID) {
		return apperror.NewValidation("location is required").WithDetail("field", "locationId")
	}
	if id.IsNil(c.DepartmentID) {
		return apperror.NewValidation("department is required").WithDetail("field", "departmentId")
	}
	return c.Lines.Validate(true)
}

func (c *Issue) GetLines() documents.Lines { return c.Lines }

func (c *Issue) SetLines(ls documents.Lines) {
	c.Lines = ls
	c.Amounts = ls.Totals()
}

// GetDocumentType returns the document type name.
func (c *Issue) GetDocumentType() string {
	return DocumentType
}

// GenerateMovements issues every line from the location.
func (c *Issue) GenerateMovements(ctx context.Context) (*posting.MovementSet, error) {
	movements := posting.NewMovementSet()
	for _, line := range c.Lines {
		movements.AddStock(entity.StockMovement{
			MovementBase: entity.NewMovementBase(c.ID, DocumentType, c.PostedVersion, c.Date, entity.RecordTypeExpense),
			ItemID:       line.ItemID,
			ItemName:     line.ItemName,
			BatchNo:      line.BatchNo,
			LocationID:   c.LocationID,
			Quantity:     line.Quantity,
			Rate:         line.Rate,
		})
	}
	return movements, nil
}

var _ posting.Postable = (*Issue)(nil)
