package uom

import (
	"context"

	"pharmacy/internal/domain"
)

// Repository defines the interface for UOM persistence.
type Repository interface {
	domain.CatalogRepository[*UOM]

	// FindBySymbol retrieves a unit by symbol.
	FindBySymbol(ctx context.Context, symbol string) (*UOM, error)
}
