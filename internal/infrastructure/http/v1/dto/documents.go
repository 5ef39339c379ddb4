package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"pharmacy/internal/core/entity"
	"pharmacy/internal/core/id"
	"pharmacy/internal/domain/documents"
	"pharmacy/internal/domain/documents/consumption"
	"pharmacy/internal/domain/documents/goods_receipt"
	"pharmacy/internal/domain/documents/invoice"
	"pharmacy/internal/domain/documents/purchase"
	"pharmacy/internal/domain/documents/returns"
	"pharmacy/internal/domain/documents/transfer"
)

// LineRequest is one item row of a document body.
type LineRequest struct {
	ItemID     id.ID           `json:"itemId" binding:"required"`
	ItemName   string          `json:"itemName"`
	BatchNo    string          `json:"batchNo"`
	ExpiryDate *DateOnly       `json:"expiryDate"`
	Quantity   int64           `json:"quantity" binding:"min=0"`
	Rate       decimal.Decimal `json:"rate"`
	TaxRate    decimal.Decimal `json:"taxRate"`
	MRP        decimal.Decimal `json:"mrp"`
}

// ToLines converts request lines to document lines.
func ToLines(in []LineRequest) documents.Lines {
	out := make(documents.Lines, len(in))
	for i, l := range in {
		out[i] = documents.Line{
			ItemID:     l.ItemID,
			ItemName:   l.ItemName,
			BatchNo:    l.BatchNo,
			ExpiryDate: l.ExpiryDate.Ptr(),
			Quantity:   l.Quantity,
			Rate:       l.Rate,
			TaxRate:    l.TaxRate,
			MRP:        l.MRP,
		}
	}
	return out
}

// DocumentHeader carries the fields every document body shares.
type DocumentHeader struct {
	Date    *DateOnly `json:"date"`
	Comment string    `json:"comment" binding:"max=1000"`
}

func (h DocumentHeader) apply(d *entity.Document) {
	if t := h.Date.Ptr(); t != nil {
		d.Date = *t
	}
	d.Comment = h.Comment
}

// --- Purchase ---

// PurchaseRequestBody creates a purchase request (PR).
type PurchaseRequestBody struct {
	DocumentHeader
	DepartmentID id.ID         `json:"departmentId" binding:"required"`
	LocationID   id.ID         `json:"locationId" binding:"required"`
	RequiredBy   *DateOnly     `json:"requiredBy"`
	Lines        []LineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ToRequest builds the purchase request.
func (b PurchaseRequestBody) ToRequest() *purchase.Request {
	r := purchase.NewRequest(b.DepartmentID, b.LocationID)
	b.apply(&r.Document)
	r.RequiredBy = b.RequiredBy.Ptr()
	r.Lines = ToLines(b.Lines)
	return r
}

// ConvertRequestBody names the vendor of the order created from a PR.
type ConvertRequestBody struct {
	VendorID id.ID `json:"vendorId" binding:"required"`
}

// PurchaseOrderBody creates a purchase order (PO).
type PurchaseOrderBody struct {
	DocumentHeader
	VendorID   id.ID         `json:"vendorId" binding:"required"`
	LocationID id.ID         `json:"locationId" binding:"required"`
	RequestID  *id.ID        `json:"requestId"`
	Lines      []LineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ToOrder builds the purchase order.
func (b PurchaseOrderBody) ToOrder() *purchase.Order {
	o := purchase.NewOrder(b.VendorID, b.LocationID)
	b.apply(&o.Document)
	o.RequestID = b.RequestID
	o.Lines = ToLines(b.Lines)
	return o
}

// --- Goods receipt ---

// GoodsReceiptBody creates a GRN.
type GoodsReceiptBody struct {
	DocumentHeader
	VendorID            id.ID           `json:"vendorId" binding:"required"`
	LocationID          id.ID           `json:"locationId" binding:"required"`
	PurchaseOrderID     *id.ID          `json:"purchaseOrderId"`
	SupplierInvoiceNo   string          `json:"supplierInvoiceNo" binding:"max=64"`
	SupplierInvoiceDate *DateOnly       `json:"supplierInvoiceDate"`
	PaidAmount          decimal.Decimal `json:"paidAmount"`
	Lines               []LineRequest   `json:"lines" binding:"required,min=1,dive"`
}

// ToGoodsReceipt builds the receipt.
func (b GoodsReceiptBody) ToGoodsReceipt() *goods_receipt.GoodsReceipt {
	g := goods_receipt.NewGoodsReceipt(b.VendorID, b.LocationID)
	b.apply(&g.Document)
	g.PurchaseOrderID = b.PurchaseOrderID
	g.SupplierInvoiceNo = b.SupplierInvoiceNo
	g.SupplierInvoiceDate = b.SupplierInvoiceDate.Ptr()
	g.PaidAmount = b.PaidAmount
	g.Lines = ToLines(b.Lines)
	return g
}

// --- Invoice ---

// InvoiceBody creates a sale.
type InvoiceBody struct {
	DocumentHeader
	CustomerID   *id.ID          `json:"customerId"`
	CustomerName string          `json:"customerName" binding:"max=200"`
	LocationID   id.ID           `json:"locationId" binding:"required"`
	PaymentMode  string          `json:"paymentMode" binding:"omitempty,oneof=cash card upi credit"`
	PaidAmount   decimal.Decimal `json:"paidAmount"`
	Lines        []LineRequest   `json:"lines" binding:"required,min=1,dive"`
}

// ToInvoice builds the invoice.
func (b InvoiceBody) ToInvoice() *invoice.Invoice {
	inv := invoice.NewInvoice(b.LocationID)
	b.apply(&inv.Document)
	inv.CustomerID = b.CustomerID
	inv.CustomerName = b.CustomerName
	if b.PaymentMode != "" {
		inv.PaymentMode = b.PaymentMode
	}
	inv.PaidAmount = b.PaidAmount
	inv.Lines = ToLines(b.Lines)
	return inv
}

// ReturnPaymentBody refunds part or all of an invoice.
type ReturnPaymentBody struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason" binding:"required,max=500"`
}

// AdjustmentBody requests a new quantity for an invoice line.
type AdjustmentBody struct {
	LineID id.ID  `json:"lineId" binding:"required"`
	NewQty int64  `json:"newQty" binding:"min=0"`
	Reason string `json:"reason" binding:"max=500"`
}

// AdjustmentResponse is an adjustment with the transition just attempted.
type AdjustmentResponse struct {
	Adjustment *invoice.Adjustment `json:"adjustment"`
	From       string              `json:"from,omitempty"`
	To         string              `json:"to,omitempty"`
}

// --- Return ---

// ReturnBody creates a customer return, vendor return or disposal.
type ReturnBody struct {
	DocumentHeader
	Kind       returns.Kind  `json:"kind" binding:"required,oneof=customer_return vendor_return disposal"`
	InvoiceID  *id.ID        `json:"invoiceId"`
	VendorID   *id.ID        `json:"vendorId"`
	LocationID id.ID         `json:"locationId" binding:"required"`
	Reason     string        `json:"reason" binding:"max=500"`
	Lines      []LineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ToReturn builds the return.
func (b ReturnBody) ToReturn() *returns.Return {
	r := returns.NewReturn(b.Kind, b.LocationID)
	b.apply(&r.Document)
	r.InvoiceID = b.InvoiceID
	r.VendorID = b.VendorID
	r.Reason = b.Reason
	r.Lines = ToLines(b.Lines)
	return r
}

// --- Transfer ---

// TransferBody creates an external transfer.
type TransferBody struct {
	DocumentHeader
	FromLocationID id.ID         `json:"fromLocationId" binding:"required"`
	Destination    string        `json:"destination" binding:"required,max=200"`
	VehicleNo      string        `json:"vehicleNo" binding:"max=32"`
	Lines          []LineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ToTransfer builds the transfer.
func (b TransferBody) ToTransfer() *transfer.Transfer {
	t := transfer.NewTransfer(b.FromLocationID, b.Destination)
	b.apply(&t.Document)
	t.VehicleNo = b.VehicleNo
	t.Lines = ToLines(b.Lines)
	return t
}

// --- Consumption ---

// ConsumptionBody creates a consumption issue.
type ConsumptionBody struct {
	DocumentHeader
	LocationID   id.ID         `json:"locationId" binding:"required"`
	DepartmentID id.ID         `json:"departmentId" binding:"required"`
	IssuedTo     string        `json:"issuedTo" binding:"max=200"`
	Lines        []LineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ToIssue builds the consumption issue.
func (b ConsumptionBody) ToIssue() *consumption.Issue {
	c := consumption.NewIssue(b.LocationID, b.DepartmentID)
	b.apply(&c.Document)
	c.IssuedTo = b.IssuedTo
	c.Lines = ToLines(b.Lines)
	return c
}

// ToListFilter converts the query to a document filter.
func (q DocumentListQuery) ToListFilter() (documents.ListFilter, error) {
	f := documents.ListFilter{}
	f.Search = q.Search
	f.OrderBy = q.OrderBy
	f.Limit = q.Limit
	if f.Limit == 0 {
		f.Limit = 50
	}
	f.Offset = q.Offset
	f.Status = q.Status
	f.Posted = q.Posted
	f.Kind = q.Kind
	if q.DateFrom != nil {
		t := q.DateFrom.UTC()
		f.DateFrom = &t
	}
	if q.DateTo != nil {
		// inclusive end of day
		t := q.DateTo.UTC().Add(24*time.Hour - time.Nanosecond)
		f.DateTo = &t
	}
	var err error
	if f.CounterpartyID, err = ParseOptionalID(q.CounterpartyID); err != nil {
		return f, err
	}
	if f.LocationID, err = ParseOptionalID(q.LocationID); err != nil {
		return f, err
	}
	return f, nil
}
