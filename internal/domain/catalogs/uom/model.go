// Package uom provides the Unit of Measure catalog (tablet, strip, box...).
package uom

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/entity"
	"pharmacy/internal/core/id"
)

// UOM is a unit of measure. A derived unit points at its base unit and
// holds how many base units it contains (STRIP = 10 × TAB).
type UOM struct {
	entity.Catalog

	Symbol           string          `db:"symbol" json:"symbol"`
	ConversionFactor decimal.Decimal `db:"conversion_factor" json:"conversionFactor"`
	BaseUOMID        *id.ID          `db:"base_uom_id" json:"baseUomId,omitempty"`
}

// NewUOM creates a base unit with factor 1.
func NewUOM(code, name, symbol string) *UOM {
	return &UOM{
		Catalog:          entity.NewCatalog(code, name),
		Symbol:           symbol,
		ConversionFactor: decimal.NewFromInt(1),
	}
}

// Validate implements entity.Validatable interface.
func (u *UOM) Validate(ctx context.Context) error {
	if err := u.Catalog.Validate(ctx); err != nil {
		return err
	}

	if strings.TrimSpace(u.Symbol) == "" {
		return apperror.NewValidation("symbol is required").
			WithDetail("field", "symbol")
	}

	if !u.ConversionFactor.IsPositive() {
		return apperror.NewValidation("conversion factor must be positive").
			WithDetail("field", "conversionFactor")
	}

	if u.BaseUOMID != nil && *u.BaseUOMID == u.ID {
		return apperror.NewValidation("unit cannot be its own base").
			WithDetail("field", "baseUomId")
	}

	return nil
}

// ToBase converts qty of this unit into base units.
func (u *UOM) ToBase(qty int64) decimal.Decimal {
	return decimal.NewFromInt(qty).Mul(u.ConversionFactor)
}
