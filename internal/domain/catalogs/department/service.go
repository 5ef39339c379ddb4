package department

import (
	"pharmacy/internal/core/numerator"
	"pharmacy/internal/core/tx"
	"pharmacy/internal/domain"
)

type Service struct {
	*domain.CatalogService[*Department]
}

func NewService(repo Repository, txm tx.Manager, gen numerator.Generator) *Service {
	return &Service{
		CatalogService: domain.NewCatalogService(domain.CatalogServiceConfig[*Department]{
			Repo:       repo,
			TxManager:  txm,
			Numerator:  gen,
			EntityName: "department",
			CodePrefix: "DEP",
		}),
	}
}
