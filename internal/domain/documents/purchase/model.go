// Package purchase provides purchase requests (PR) and purchase orders (PO).
// Neither moves stock; a PO is marked received by the goods receipt that
// references it.
package purchase

import (
	"context"
	"time"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/entity"
	"pharmacy/internal/core/id"
	"pharmacy/internal/domain/documents"
)

// Workflow states.
const (
	StatusDraft    = "draft"
	StatusApproved = "approved"
	StatusOrdered  = "ordered"
	StatusReceived = "received"
)

// Request is a department's request to buy items (PR).
type Request struct {
	entity.Document
	documents.Amounts

	DepartmentID id.ID      `db:"department_id" json:"departmentId"`
	LocationID   id.ID      `db:"location_id" json:"locationId"`
	RequiredBy   *time.Time `db:"required_by" json:"requiredBy,omitempty"`

	// OrderID is set once the request is converted
	OrderID *id.ID `db:"order_id" json:"orderId,omitempty"`

	Lines documents.Lines `db:"-" json:"lines"`
}

// NewRequest creates a draft request.
func NewRequest(departmentID, locationID id.ID) *Request {
	r := &Request{
		Document:     entity.NewDocument(),
		DepartmentID: departmentID,
		LocationID:   locationID,
	}
	r.Status = StatusDraft
	return r
}

// Validate implements entity.Validatable.
func (r *Request) Validate(ctx context.Context) error {
	if err := r.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(r.DepartmentID) {
		return apperror.NewValidation("department is required").WithDetail("field", "departmentId")
	}
	if id.IsNil(r.LocationID) {
		return apperror.NewValidation("location is required").WithDetail("field", "locationId")
	}
	if r.RequiredBy != nil && r.RequiredBy.Before(r.Date.Truncate(24*time.Hour)) {
		return apperror.NewValidation("required-by date is before the request date").WithDetail("field", "requiredBy")
	}
	return r.Lines.Validate(false)
}

func (r *Request) GetLines() documents.Lines { return r.Lines }

func (r *Request) SetLines(ls documents.Lines) {
	r.Lines = ls
	r.Amounts = ls.Totals()
}

// Approve moves a draft request to approved.
func (r *Request) Approve() error {
	if r.Status != StatusDraft {
		return apperror.NewInvalidTransition("purchase request", r.Status, "approve")
	}
	r.Status = StatusApproved
	return nil
}

// MarkOrdered records the order created from this request.
func (r *Request) MarkOrdered(orderID id.ID) error {
	if r.Status != StatusApproved {
		return apperror.NewInvalidTransition("purchase request", r.Status, "convert")
	}
	r.Status = StatusOrdered
	r.OrderID = &orderID
	return nil
}

// Order is a purchase order sent to a vendor (PO).
type Order struct {
	entity.Document
	documents.Amounts

	VendorID   id.ID  `db:"vendor_id" json:"vendorId"`
	LocationID id.ID  `db:"location_id" json:"locationId"`
	RequestID  *id.ID `db:"request_id" json:"requestId,omitempty"`

	Lines documents.Lines `db:"-" json:"lines"`
}

// NewOrder creates a draft order.
func NewOrder(vendorID, locationID id.ID) *Order {
	o := &Order{
		Document:   entity.NewDocument(),
		VendorID:   vendorID,
		LocationID: locationID,
	}
	o.Status = StatusDraft
	return o
}

// Validate implements entity.Validatable.
func (o *Order) Validate(ctx context.Context) error {
	if err := o.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(o.VendorID) {
		return apperror.NewValidation("vendor is required").WithDetail("field", "vendorId")
	}
	if id.IsNil(o.LocationID) {
		return apperror.NewValidation("location is required").WithDetail("field", "locationId")
	}
	return o.Lines.Validate(false)
}

func (o *Order) GetLines() documents.Lines { return o.Lines }

func (o *Order) SetLines(ls documents.Lines) {
	o.Lines = ls
	o.Amounts = ls.Totals()
}

// Approve moves a draft order to approved.
func (o *Order) Approve() error {
	if o.Status != StatusDraft {
		return apperror.NewInvalidTransition("purchase order", o.Status, "approve")
	}
	o.Status = StatusApproved
	return nil
}

// MarkReceived closes the order once goods arrived.
func (o *Order) MarkReceived() error {
	if o.Status == StatusReceived {
		return apperror.NewInvalidTransition("purchase order", o.Status, "receive")
	}
	if o.Status != StatusApproved {
		return apperror.NewBusinessRule(apperror.CodeInvalidTransition, "purchase order must be approved before goods are received").
			WithDetail("status", o.Status)
	}
	o.Status = StatusReceived
	return nil
}

// OrderFromRequest copies the request lines into a new draft order.
func OrderFromRequest(r *Request, vendorID id.ID) *Order {
	o := NewOrder(vendorID, r.LocationID)
	o.RequestID = &r.ID
	o.Comment = r.Comment
	lines := make(documents.Lines, len(r.Lines))
	for i, l := range r.Lines {
		l.LineID = id.Nil()
		lines[i] = l
	}
	o.Lines = lines
	return o
}
