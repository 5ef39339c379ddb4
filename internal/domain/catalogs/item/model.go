// Package item provides the Item catalog: the medicines and consumables that
// are bought, stocked and sold.
package item

import (
	"context"
	"regexp"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/entity"
	"pharmacy/internal/core/id"
	"pharmacy/internal/core/types"
)

var hsnRE = regexp.MustCompile(`^(\d{4}|\d{6}|\d{8})$`)

// Item is a stock-keeping unit.
type Item struct {
	entity.Catalog

	// HSNCode is the tax classification code (4, 6 or 8 digits)
	HSNCode  string `db:"hsn_code" json:"hsnCode,omitempty"`
	Category string `db:"category" json:"category,omitempty"`

	UOMID     *id.ID `db:"uom_id" json:"uomId,omitempty"`
	TaxCodeID *id.ID `db:"tax_code_id" json:"taxCodeId,omitempty"`

	// TaxRate is a percentage applied to qty × rate
	TaxRate types.Rate `db:"tax_rate" json:"taxRate"`

	MRP          types.Money `db:"mrp" json:"mrp"`
	SaleRate     types.Money `db:"sale_rate" json:"saleRate"`
	PurchaseRate types.Money `db:"purchase_rate" json:"purchaseRate"`

	// ReorderLevel drives the low-stock filter of stock management
	ReorderLevel int64 `db:"reorder_level" json:"reorderLevel"`

	BatchTracked bool   `db:"batch_tracked" json:"batchTracked"`
	Barcode      string `db:"barcode" json:"barcode,omitempty"`
}

// NewItem creates an item with zero prices; batch tracking is on by default.
func NewItem(code, name string) *Item {
	return &Item{
		Catalog:      entity.NewCatalog(code, name),
		TaxRate:      types.Zero(),
		MRP:          types.Zero(),
		SaleRate:     types.Zero(),
		PurchaseRate: types.Zero(),
		BatchTracked: true,
	}
}

// Validate implements entity.Validatable interface.
func (i *Item) Validate(ctx context.Context) error {
	if err := i.Catalog.Validate(ctx); err != nil {
		return err
	}

	if i.HSNCode != "" && !hsnRE.MatchString(i.HSNCode) {
		return apperror.NewValidation("HSN code must have 4, 6 or 8 digits").
			WithDetail("field", "hsnCode").
			WithDetail("value", i.HSNCode)
	}

	if !types.ValidPercent(i.TaxRate) {
		return apperror.NewValidation("tax rate must be between 0 and 100").
			WithDetail("field", "taxRate")
	}

	for field, v := range map[string]types.Money{"mrp": i.MRP, "saleRate": i.SaleRate, "purchaseRate": i.PurchaseRate} {
		if v.IsNegative() {
			return apperror.NewValidation("rate cannot be negative").WithDetail("field", field)
		}
	}

	if i.MRP.IsPositive() && i.SaleRate.GreaterThan(i.MRP) {
		return apperror.NewValidation("sale rate cannot exceed MRP").
			WithDetail("field", "saleRate").
			WithDetail("mrp", i.MRP.String())
	}

	if i.ReorderLevel < 0 {
		return apperror.NewValidation("reorder level cannot be negative").
			WithDetail("field", "reorderLevel")
	}

	return nil
}
