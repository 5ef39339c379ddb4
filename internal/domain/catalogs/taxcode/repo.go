package taxcode

import "pharmacy/internal/domain"

// Repository defines the interface for TaxCode persistence.
type Repository interface {
	domain.CatalogRepository[*TaxCode]
}
