// Package totals computes document line totals.
//
// Tax is a percentage of the line base (qty × rate). Amounts are kept at
// full precision and rounded half-up to two decimals only for display.
package totals

import (
	"github.com/shopspring/decimal"

	"pharmacy/internal/core/types"
)

// Line is the minimal shape needed to price one document line.
type Line struct {
	Qty     int64
	Rate    types.Money
	TaxRate types.Rate
}

// Totals is the result of Compute.
type Totals struct {
	Subtotal types.Money `json:"subtotal"`
	Tax      types.Money `json:"tax"`
	Total    types.Money `json:"total"`
}

// Display is Totals rendered with exactly two decimals.
type Display struct {
	Subtotal string `json:"subtotal"`
	Tax      string `json:"tax"`
	Total    string `json:"total"`
}

// LineAmounts returns the base (qty × rate), the tax on it, and their sum.
func LineAmounts(l Line) (base, tax, amount types.Money) {
	base = l.Rate.Mul(decimal.NewFromInt(l.Qty))
	tax = types.PercentOf(base, l.TaxRate)
	return base, tax, base.Add(tax)
}

// Compute sums every line independently. An empty slice yields zeros.
func Compute(lines []Line) Totals {
	t := Totals{Subtotal: types.Zero(), Tax: types.Zero()}
	for _, l := range lines {
		base, tax, _ := LineAmounts(l)
		t.Subtotal = t.Subtotal.Add(base)
		t.Tax = t.Tax.Add(tax)
	}
	t.Total = t.Subtotal.Add(t.Tax)
	return t
}

// Rounded returns the totals rounded to two decimals.
// Total is derived from the unrounded sum so it never drifts by a cent
// from what Compute produced.
func (t Totals) Rounded() Totals {
	return Totals{
		Subtotal: types.Round2(t.Subtotal),
		Tax:      types.Round2(t.Tax),
		Total:    types.Round2(t.Total),
	}
}

// Display formats the totals for presentation.
func (t Totals) Display() Display {
	return Display{
		Subtotal: types.Format(t.Subtotal),
		Tax:      types.Format(t.Tax),
		Total:    types.Format(t.Total),
	}
}
