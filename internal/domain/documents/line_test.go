package documents

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/id"
)

func TestLines_NormalizeAndTotals(t *testing.T) {
	ls := Lines{
		{ItemID: id.New(), ItemName: " Paracetamol ", BatchNo: " B1 ", Quantity: 3, Rate: decimal.RequireFromString("2.50"), TaxRate: decimal.NewFromInt(12)},
		{ItemID: id.New(), Quantity: 1, Rate: decimal.RequireFromString("0.333")},
	}
	ls.Normalize()

	assert.Equal(t, 1, ls[0].LineNo)
	assert.Equal(t, 2, ls[1].LineNo)
	assert.False(t, id.IsNil(ls[1].LineID))
	assert.Equal(t, "Paracetamol", ls[0].ItemName)
	assert.Equal(t, "B1", ls[0].BatchNo)
	assert.Equal(t, "0.90", ls[0].TaxAmount.StringFixed(2))
	assert.Equal(t, "8.40", ls[0].Amount.StringFixed(2))

	total := ls.Totals()
	assert.Equal(t, "7.83", total.Subtotal.StringFixed(2))
	assert.Equal(t, "0.90", total.TaxTotal.StringFixed(2))
	assert.Equal(t, "8.73", total.Total.StringFixed(2))
}

func TestLines_Validate(t *testing.T) {
	assert.Error(t, Lines{}.Validate(false))

	ok := Line{ItemID: id.New(), Quantity: 1, BatchNo: "B"}
	assert.NoError(t, Lines{ok}.Validate(true))

	cases := map[string]Line{
		"item is required":          {Quantity: 1},
		"quantity must be positive": {ItemID: id.New()},
		"rate cannot be negative":   {ItemID: id.New(), Quantity: 1, Rate: decimal.NewFromInt(-1)},
		"tax rate must be between":  {ItemID: id.New(), Quantity: 1, TaxRate: decimal.NewFromInt(101)},
		"batch number is required":  {ItemID: id.New(), Quantity: 1},
	}
	for msg, l := range cases {
		err := Lines{ok, l}.Validate(true)
		require.Error(t, err, msg)
		assert.Contains(t, err.Error(), "line 2: "+msg)
		appErr, _ := apperror.AsAppError(err)
		assert.Equal(t, 2, appErr.Details["lineNo"])
	}
}

func TestLines_QuantityAndFind(t *testing.T) {
	item := id.New()
	ls := Lines{
		{LineID: id.New(), ItemID: item, BatchNo: "B1", Quantity: 2},
		{LineID: id.New(), ItemID: item, BatchNo: "B1", Quantity: 3},
		{LineID: id.New(), ItemID: item, BatchNo: "B2", Quantity: 5},
	}
	assert.Equal(t, int64(5), ls.Quantity(item, "B1"))
	assert.Equal(t, int64(0), ls.Quantity(id.New(), "B1"))

	l, ok := ls.Find(ls[2].LineID)
	require.True(t, ok)
	l.Quantity = 9
	assert.Equal(t, int64(9), ls[2].Quantity)

	_, ok = ls.Find(id.New())
	assert.False(t, ok)
}
