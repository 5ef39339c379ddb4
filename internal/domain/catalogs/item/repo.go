package item

import (
	"context"

	"pharmacy/internal/domain"
)

// Repository defines the interface for Item persistence.
type Repository interface {
	domain.CatalogRepository[*Item]

	// FindByBarcode retrieves an item by its barcode.
	FindByBarcode(ctx context.Context, barcode string) (*Item, error)

	// FindByName retrieves a non-deleted item by exact name.
	FindByName(ctx context.Context, name string) (*Item, error)
}
