package location

import (
	"pharmacy/internal/core/numerator"
	"pharmacy/internal/core/tx"
	"pharmacy/internal/domain"
)

// Service provides business logic for the Location catalog.
type Service struct {
	*domain.CatalogService[*Location]
}

// NewService creates a new Location service.
func NewService(repo Repository, txm tx.Manager, gen numerator.Generator) *Service {
	return &Service{
		CatalogService: domain.NewCatalogService(domain.CatalogServiceConfig[*Location]{
			Repo:       repo,
			TxManager:  txm,
			Numerator:  gen,
			EntityName: "location",
			CodePrefix: "LOC",
		}),
	}
}
