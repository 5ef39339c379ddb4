// Package taxcode provides the Tax catalog (GST slabs and the like).
package taxcode

import (
	"context"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/entity"
	"pharmacy/internal/core/types"
)

// TaxCode is a named tax percentage.
type TaxCode struct {
	entity.Catalog

	// Rate is a percentage (5 means 5%)
	Rate        types.Rate `db:"rate" json:"rate"`
	Description string     `db:"description" json:"description,omitempty"`
}

// NewTaxCode creates a tax code.
func NewTaxCode(code, name string, rate types.Rate) *TaxCode {
	return &TaxCode{
		Catalog: entity.NewCatalog(code, name),
		Rate:    rate,
	}
}

// Validate implements entity.Validatable interface.
func (t *TaxCode) Validate(ctx context.Context) error {
	if err := t.Catalog.Validate(ctx); err != nil {
		return err
	}
	if !types.ValidPercent(t.Rate) {
		return apperror.NewValidation("tax rate must be between 0 and 100").
			WithDetail("field", "rate")
	}
	return nil
}
