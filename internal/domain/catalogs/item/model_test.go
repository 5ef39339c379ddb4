package item

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/types"
)

func TestItem_Validate(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*Item)
		field   string
		wantErr bool
	}{
		{name: "valid", mutate: func(*Item) {}},
		{name: "missing name", mutate: func(i *Item) { i.Name = " " }, field: "name", wantErr: true},
		{name: "bad hsn", mutate: func(i *Item) { i.HSNCode = "30049" }, field: "hsnCode", wantErr: true},
		{name: "six digit hsn", mutate: func(i *Item) { i.HSNCode = "300490" }},
		{name: "tax over 100", mutate: func(i *Item) { i.TaxRate = types.MustMoney("101") }, field: "taxRate", wantErr: true},
		{name: "sale above mrp", mutate: func(i *Item) { i.SaleRate = types.MustMoney("60") }, field: "saleRate", wantErr: true},
		{name: "no mrp allows any sale rate", mutate: func(i *Item) { i.MRP = types.Zero(); i.SaleRate = types.MustMoney("60") }},
		{name: "negative purchase rate", mutate: func(i *Item) { i.PurchaseRate = types.MustMoney("-1") }, field: "purchaseRate", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := NewItem("ITM-00001", "Paracetamol 500mg")
			it.MRP = types.MustMoney("50")
			it.SaleRate = types.MustMoney("45")
			it.TaxRate = types.MustMoney("12")
			tt.mutate(it)

			err := it.Validate(ctx)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
			assert.Equal(t, tt.field, appErr.Details["field"])
		})
	}
}
