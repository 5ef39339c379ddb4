package totals

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pharmacy/internal/core/types"
)

func line(qty int64, rate, tax string) Line {
	return Line{Qty: qty, Rate: types.MustMoney(rate), TaxRate: types.MustMoney(tax)}
}

func TestCompute_SingleLine(t *testing.T) {
	got := Compute([]Line{line(2, "1000", "5")}).Display()

	assert.Equal(t, Display{Subtotal: "2000.00", Tax: "100.00", Total: "2100.00"}, got)
}

func TestCompute_MixedRates(t *testing.T) {
	got := Compute([]Line{
		line(3, "250.50", "0"),
		line(1, "99.99", "12"),
	})

	assert.True(t, got.Subtotal.Equal(types.MustMoney("851.49")))
	assert.True(t, got.Tax.Equal(types.MustMoney("11.9988")))
	assert.True(t, got.Total.Equal(types.MustMoney("863.4888")))
	assert.Equal(t, Display{Subtotal: "851.49", Tax: "12.00", Total: "863.49"}, got.Display())
}

func TestCompute_Empty(t *testing.T) {
	got := Compute(nil)

	assert.True(t, got.Subtotal.IsZero())
	assert.True(t, got.Tax.IsZero())
	assert.True(t, got.Total.IsZero())
	assert.Equal(t, "0.00", got.Display().Total)
}

func TestCompute_DuplicatesSummedIndependently(t *testing.T) {
	l := line(1, "10", "18")
	got := Compute([]Line{l, l})

	assert.True(t, got.Subtotal.Equal(types.MustMoney("20")))
	assert.True(t, got.Tax.Equal(types.MustMoney("3.6")))
}

func TestCompute_Idempotent(t *testing.T) {
	lines := []Line{line(3, "250.50", "0"), line(1, "99.99", "12")}

	first := Compute(lines)
	second := Compute(lines)

	assert.True(t, first.Total.Equal(second.Total))
	assert.Equal(t, first.Display(), second.Display())
}

func TestLineAmounts(t *testing.T) {
	base, tax, amount := LineAmounts(line(4, "12.50", "12"))

	assert.Equal(t, "50.00", types.Format(base))
	assert.Equal(t, "6.00", types.Format(tax))
	assert.Equal(t, "56.00", types.Format(amount))
}

func TestRounded(t *testing.T) {
	r := Compute([]Line{line(1, "99.99", "12")}).Rounded()

	assert.Equal(t, "11.9988", Compute([]Line{line(1, "99.99", "12")}).Tax.String())
	assert.Equal(t, "12", r.Tax.String())
	assert.Equal(t, "111.99", r.Total.String())
}
