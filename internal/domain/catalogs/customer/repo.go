package customer

import (
	"context"

	"pharmacy/internal/domain"
)

// Repository defines the interface for Customer persistence.
type Repository interface {
	domain.CatalogRepository[*Customer]

	// FindByPhone retrieves a customer by normalized phone.
	FindByPhone(ctx context.Context, phone string) (*Customer, error)
}
