package taxcode

import (
	"pharmacy/internal/core/numerator"
	"pharmacy/internal/core/tx"
	"pharmacy/internal/domain"
)

// Service provides business logic for the Tax catalog.
type Service struct {
	*domain.CatalogService[*TaxCode]
}

// NewService creates a new TaxCode service.
func NewService(repo Repository, txm tx.Manager, gen numerator.Generator) *Service {
	return &Service{
		CatalogService: domain.NewCatalogService(domain.CatalogServiceConfig[*TaxCode]{
			Repo:       repo,
			TxManager:  txm,
			Numerator:  gen,
			EntityName: "tax",
			CodePrefix: "TAX",
		}),
	}
}
