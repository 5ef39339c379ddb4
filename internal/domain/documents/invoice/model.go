// Package invoice provides billing: sales invoices, payment returns and
// approved quantity adjustments of invoiced lines.
package invoice

import (
	"context"
	"strings"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/entity"
	"pharmacy/internal/core/id"
	"pharmacy/internal/core/types"
	"pharmacy/internal/domain/documents"
	"pharmacy/internal/domain/posting"
)

// DocumentType is the recorder type of invoice movements.
const DocumentType = "invoice"

// Payment modes.
const (
	PaymentCash   = "cash"
	PaymentCard   = "card"
	PaymentUPI    = "upi"
	PaymentCredit = "credit"
)

// Payment statuses.
const (
	PaymentUnpaid   = "unpaid"
	PaymentPartial  = "partial"
	PaymentPaid     = "paid"
	PaymentReturned = "returned"
)

// Invoice is a sale to a registered customer or a walk-in.
type Invoice struct {
	entity.Document
	documents.Amounts

	CustomerID   *id.ID `db:"customer_id" json:"customerId,omitempty"`
	CustomerName string `db:"customer_name" json:"customerName"`
	LocationID   id.ID  `db:"location_id" json:"locationId"`

	PaymentMode    string      `db:"payment_mode" json:"paymentMode"`
	PaidAmount     types.Money `db:"paid_amount" json:"paidAmount"`
	RefundedAmount types.Money `db:"refunded_amount" json:"refundedAmount"`
	PaymentStatus  string      `db:"payment_status" json:"paymentStatus"`

	Lines documents.Lines `db:"-" json:"lines"`
}

// NewInvoice creates an invoice for a location.
func NewInvoice(locationID id.ID) *Invoice {
	return &Invoice{
		Document:       entity.NewDocument(),
		LocationID:     locationID,
		PaymentMode:    PaymentCash,
		PaidAmount:     types.Zero(),
		RefundedAmount: types.Zero(),
	}
}

// Validate implements entity.Validatable.
func (inv *Invoice) Validate(ctx context.Context) error {
	if err := inv.Document.Validate(ctx); err != nil {
		return err
	}
	inv.CustomerName = strings.TrimSpace(inv.CustomerName)
	if (inv.CustomerID == nil || id.IsNil(*inv.CustomerID)) && inv.CustomerName == "" {
		return apperror.NewValidation("customer or walk-in name is required").
			WithDetail("field", "customerName")
	}
	if id.IsNil(inv.LocationID) {
		return apperror.NewValidation("location is required").
			WithDetail("field", "locationId")
	}
	switch inv.PaymentMode {
	case PaymentCash, PaymentCard, PaymentUPI, PaymentCredit:
	default:
		return apperror.NewValidation("unknown payment mode").
			WithDetail("field", "paymentMode").
			WithDetail("value", inv.PaymentMode)
	}
	if inv.PaidAmount.IsNegative() {
		return apperror.NewValidation("paid amount cannot be negative").
			WithDetail("field", "paidAmount")
	}
	return inv.Lines.Validate(true)
}

func (inv *Invoice) GetLines() documents.Lines { return inv.Lines }

// SetLines replaces the lines, recomputes totals and the payment status.
func (inv *Invoice) SetLines(ls documents.Lines) {
	inv.Lines = ls
	inv.Amounts = ls.Totals()
	inv.refreshPaymentStatus()
}

func (inv *Invoice) refreshPaymentStatus() {
	if inv.PaymentStatus == PaymentReturned {
		return
	}
	switch {
	case inv.PaidAmount.IsZero() && inv.Total.IsPositive():
		inv.PaymentStatus = PaymentUnpaid
	case inv.PaidAmount.LessThan(inv.Total):
		inv.PaymentStatus = PaymentPartial
	default:
		inv.PaymentStatus = PaymentPaid
	}
}

// Refundable is what was paid and not yet returned.
func (inv *Invoice) Refundable() types.Money {
	return inv.PaidAmount.Sub(inv.RefundedAmount)
}

// ReturnPayment refunds amount and marks the invoice returned.
func (inv *Invoice) ReturnPayment(amount types.Money) error {
	if !amount.IsPositive() {
		return apperror.NewValidation("refund amount must be positive").WithDetail("field", "amount")
	}
	if amount.GreaterThan(inv.Refundable()) {
		return apperror.NewValidation("refund exceeds the amount paid").
			WithDetail("field", "amount").
			WithDetail("refundable", types.Format(inv.Refundable()))
	}
	inv.RefundedAmount = inv.RefundedAmount.Add(amount)
	inv.PaymentStatus = PaymentReturned
	return nil
}

// GetDocumentType returns the document type name.
func (inv *Invoice) GetDocumentType() string {
	return DocumentType
}

// GenerateMovements issues every line from its batch.
func (inv *Invoice) GenerateMovements(ctx context.Context) (*posting.MovementSet, error) {
	movements := posting.NewMovementSet()
	for _, line := range inv.Lines {
		movements.AddStock(entity.StockMovement{
			MovementBase: entity.NewMovementBase(inv.ID, DocumentType, inv.PostedVersion, inv.Date, entity.RecordTypeExpense),
			ItemID:       line.ItemID,
			ItemName:     line.ItemName,
			BatchNo:      line.BatchNo,
			LocationID:   inv.LocationID,
			Quantity:     line.Quantity,
			Rate:         line.Rate,
		})
	}
	return movements, nil
}

var _ posting.Postable = (*Invoice)(nil)
