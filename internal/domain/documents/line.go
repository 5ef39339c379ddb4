// Package documents holds what every pharmacy document shares: the item
// line, totals, list filters and the create/post service skeleton.
package documents

import (
	"fmt"
	"strings"
	"time"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/id"
	"pharmacy/internal/core/types"
	"pharmacy/internal/domain/totals"
)

// Line is one item row of a document.
type Line struct {
	LineID     id.ID       `db:"line_id" json:"lineId"`
	LineNo     int         `db:"line_no" json:"lineNo"`
	ItemID     id.ID       `db:"item_id" json:"itemId"`
	ItemName   string      `db:"item_name" json:"itemName"`
	BatchNo    string      `db:"batch_no" json:"batchNo,omitempty"`
	ExpiryDate *time.Time  `db:"expiry_date" json:"expiryDate,omitempty"`
	Quantity   int64       `db:"quantity" json:"quantity"`
	Rate       types.Money `db:"rate" json:"rate"`
	TaxRate    types.Rate  `db:"tax_rate" json:"taxRate"`
	MRP        types.Money `db:"mrp" json:"mrp"`

	// Derived
	TaxAmount types.Money `db:"tax_amount" json:"taxAmount"`
	Amount    types.Money `db:"amount" json:"amount"`
}

// Recalculate derives TaxAmount and Amount from quantity, rate and tax rate.
func (l *Line) Recalculate() {
	_, tax, amount := totals.LineAmounts(l.totalsLine())
	l.TaxAmount = types.Round2(tax)
	l.Amount = types.Round2(amount)
}

func (l *Line) totalsLine() totals.Line {
	return totals.Line{Qty: l.Quantity, Rate: l.Rate, TaxRate: l.TaxRate}
}

// Lines is the table part of a document.
type Lines []Line

// Normalize numbers the lines, assigns missing ids and recalculates amounts.
func (ls Lines) Normalize() {
	for i := range ls {
		if id.IsNil(ls[i].LineID) {
			ls[i].LineID = id.New()
		}
		ls[i].LineNo = i + 1
		ls[i].ItemName = strings.TrimSpace(ls[i].ItemName)
		ls[i].BatchNo = strings.TrimSpace(ls[i].BatchNo)
		ls[i].Recalculate()
	}
}

// Totals sums the lines through totals.Compute and rounds for storage.
func (ls Lines) Totals() Amounts {
	in := make([]totals.Line, len(ls))
	for i := range ls {
		in[i] = ls[i].totalsLine()
	}
	t := totals.Compute(in).Rounded()
	return Amounts{Subtotal: t.Subtotal, TaxTotal: t.Tax, Total: t.Total}
}

// Quantity returns the total quantity of an item across lines.
func (ls Lines) Quantity(itemID id.ID, batchNo string) int64 {
	var q int64
	for _, l := range ls {
		if l.ItemID == itemID && l.BatchNo == batchNo {
			q += l.Quantity
		}
	}
	return q
}

// Find returns the line with the given id.
func (ls Lines) Find(lineID id.ID) (*Line, bool) {
	for i := range ls {
		if ls[i].LineID == lineID {
			return &ls[i], true
		}
	}
	return nil, false
}

// Validate checks every line. Stock-moving documents require a batch.
func (ls Lines) Validate(requireBatch bool) error {
	if len(ls) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}
	for i, l := range ls {
		lineNo := i + 1
		fail := func(msg string) error {
			return apperror.NewValidation(fmt.Sprintf("line %d: %s", lineNo, msg)).
				WithDetail("field", "lines").
				WithDetail("lineNo", lineNo)
		}
		switch {
		case id.IsNil(l.ItemID):
			return fail("item is required")
		case l.Quantity <= 0:
			return fail("quantity must be positive")
		case l.Rate.IsNegative():
			return fail("rate cannot be negative")
		case !types.ValidPercent(l.TaxRate):
			return fail("tax rate must be between 0 and 100")
		case l.MRP.IsNegative():
			return fail("MRP cannot be negative")
		case requireBatch && l.BatchNo == "":
			return fail("batch number is required")
		}
	}
	return nil
}

// Amounts are the stored document totals.
type Amounts struct {
	Subtotal types.Money `db:"subtotal" json:"subtotal"`
	TaxTotal types.Money `db:"tax_total" json:"taxTotal"`
	Total    types.Money `db:"total" json:"total"`
}
