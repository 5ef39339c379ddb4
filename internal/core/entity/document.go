package entity

import (
	"context"
	"time"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/id"
)

// Document is the base type for business transactions.
// Examples: GoodsReceipt, Invoice, Return, Transfer.
type Document struct {
	BaseDocument

	// Number is the document number (auto-generated, unique within type+period)
	Number string `db:"number" json:"number"`

	// Date is the business date of the document
	Date time.Time `db:"date" json:"date"`

	// Status is the document-specific workflow state (draft, approved, ...)
	Status string `db:"status" json:"status"`

	// Posted indicates if document movements are recorded in the stock register
	Posted bool `db:"posted" json:"posted"`

	// PostedVersion tracks posting iterations for movement reconciliation
	PostedVersion int `db:"posted_version" json:"postedVersion"`

	Comment string `db:"comment" json:"comment,omitempty"`
}

// NewDocument creates a new Document dated now.
func NewDocument() Document {
	return Document{
		BaseDocument: NewBaseDocument(),
		Date:         time.Now().UTC(),
	}
}

// Validate implements Validatable interface.
func (d *Document) Validate(ctx context.Context) error {
	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	return nil
}

// CanModify checks if document can be modified.
// Posted documents require unposting first.
func (d *Document) CanModify() error {
	if d.Posted {
		return apperror.NewBusinessRule(
			apperror.CodeDocumentPosted,
			"Cannot modify posted document. Unpost first.",
		).WithDetail("document_id", d.ID.String())
	}
	return nil
}

// MarkPosted sets the posted flag and starts a new posting iteration.
// The row version is left to the repository's optimistic lock.
func (d *Document) MarkPosted() {
	d.Posted = true
	d.PostedVersion++
	d.UpdatedAt = time.Now().UTC()
}

// MarkUnposted clears the posted flag.
func (d *Document) MarkUnposted() {
	d.Posted = false
	d.UpdatedAt = time.Now().UTC()
}

// RestorePosting puts back a posting state captured before a failed post.
func (d *Document) RestorePosting(posted bool, version int) {
	d.Posted = posted
	d.PostedVersion = version
}

// SetNumber assigns the generated number.
func (d *Document) SetNumber(n string) { d.Number = n }

// GetDate returns the business date.
func (d *Document) GetDate() time.Time { return d.Date }

// --- Postable defaults ---
// Document types only need GetDocumentType() and GenerateMovements().

// GetID returns the document ID.
func (d *Document) GetID() id.ID {
	return d.ID
}

// GetNumber returns the document number.
func (d *Document) GetNumber() string {
	return d.Number
}

// GetPostedVersion returns the current posting version.
func (d *Document) GetPostedVersion() int {
	return d.PostedVersion
}

// IsPosted returns true if document is currently posted.
func (d *Document) IsPosted() bool {
	return d.Posted
}

// CanPost validates if document can be posted.
func (d *Document) CanPost(ctx context.Context) error {
	return d.Validate(ctx)
}
