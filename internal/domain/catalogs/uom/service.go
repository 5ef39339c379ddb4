package uom

import (
	"context"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/id"
	"pharmacy/internal/core/numerator"
	"pharmacy/internal/core/tx"
	"pharmacy/internal/domain"
)

// Service provides business logic for the UOM catalog.
type Service struct {
	*domain.CatalogService[*UOM]
	repo Repository
}

// NewService creates a new UOM service.
func NewService(repo Repository, txm tx.Manager, gen numerator.Generator) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*UOM]{
		Repo:       repo,
		TxManager:  txm,
		Numerator:  gen,
		EntityName: "uom",
		CodePrefix: "UOM",
	})

	svc := &Service{CatalogService: base, repo: repo}

	base.Hooks().OnBeforeCreate(svc.checkSymbol)
	base.Hooks().OnBeforeUpdate(svc.checkSymbol)

	return svc
}

func (s *Service) checkSymbol(ctx context.Context, u *UOM) error {
	if exists, _ := s.symbolTaken(ctx, u.Symbol, u.ID); exists {
		return apperror.NewConflict("unit with this symbol already exists").
			WithDetail("symbol", u.Symbol)
	}
	return nil
}

// FindBySymbol retrieves a unit by symbol.
func (s *Service) FindBySymbol(ctx context.Context, symbol string) (*UOM, error) {
	return s.repo.FindBySymbol(ctx, symbol)
}

func (s *Service) symbolTaken(ctx context.Context, symbol string, excludeID id.ID) (bool, error) {
	existing, err := s.repo.FindBySymbol(ctx, symbol)
	if err != nil {
		return false, nil
	}
	return existing.ID != excludeID, nil
}
