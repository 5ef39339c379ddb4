package department

import "pharmacy/internal/domain"

// Repository defines the interface for Department persistence.
type Repository interface {
	domain.CatalogRepository[*Department]
}
