package item

import (
	"context"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/id"
	"pharmacy/internal/core/numerator"
	"pharmacy/internal/core/tx"
	"pharmacy/internal/domain"
	"pharmacy/internal/domain/catalogs/taxcode"
)

// Service provides business logic for the Item catalog.
type Service struct {
	*domain.CatalogService[*Item]
	repo  Repository
	taxes taxcode.Repository
}

// NewService creates a new Item service. taxes may be nil.
func NewService(repo Repository, taxes taxcode.Repository, txm tx.Manager, gen numerator.Generator) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Item]{
		Repo:       repo,
		TxManager:  txm,
		Numerator:  gen,
		EntityName: "item",
		CodePrefix: "ITM",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		taxes:          taxes,
	}

	base.Hooks().OnBeforeCreate(svc.prepare)
	base.Hooks().OnBeforeUpdate(svc.prepare)

	return svc
}

// prepare copies the rate of the referenced tax code and keeps barcodes unique.
func (s *Service) prepare(ctx context.Context, it *Item) error {
	if it.TaxCodeID != nil && s.taxes != nil {
		tc, err := s.taxes.GetByID(ctx, *it.TaxCodeID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewValidation("tax code not found").
					WithDetail("field", "taxCodeId")
			}
			return err
		}
		it.TaxRate = tc.Rate
	}

	if it.Barcode != "" {
		existing, err := s.repo.FindByBarcode(ctx, it.Barcode)
		if err == nil && existing.ID != it.ID {
			return apperror.NewDuplicate("item", "barcode", it.Barcode)
		}
	}
	return nil
}

// FindByBarcode retrieves an item by barcode.
func (s *Service) FindByBarcode(ctx context.Context, barcode string) (*Item, error) {
	return s.repo.FindByBarcode(ctx, barcode)
}

// Resolve finds an item by ID when ref parses as one, otherwise by name.
func (s *Service) Resolve(ctx context.Context, ref string) (*Item, error) {
	if itemID, err := id.Parse(ref); err == nil {
		return s.GetByID(ctx, itemID)
	}
	it, err := s.repo.FindByName(ctx, ref)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("item", ref)
		}
		return nil, err
	}
	return it, nil
}
