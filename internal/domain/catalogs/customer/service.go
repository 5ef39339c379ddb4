package customer

import (
	"context"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/id"
	"pharmacy/internal/core/numerator"
	"pharmacy/internal/core/tx"
	"pharmacy/internal/domain"
	"pharmacy/internal/domain/catalogs/contact"
	"pharmacy/pkg/logger"
)

// Service provides business logic for the Customer catalog.
type Service struct {
	*domain.CatalogService[*Customer]
	repo Repository
}

// NewService creates a new Customer service.
func NewService(repo Repository, txm tx.Manager, gen numerator.Generator) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Customer]{
		Repo:       repo,
		TxManager:  txm,
		Numerator:  gen,
		EntityName: "customer",
		CodePrefix: "CUS",
	})

	svc := &Service{CatalogService: base, repo: repo}
	base.Hooks().OnBeforeCreate(svc.prepare)
	base.Hooks().OnBeforeUpdate(svc.prepare)

	return svc
}

func (s *Service) prepare(ctx context.Context, c *Customer) error {
	phone, err := contact.NormalizePhone(c.Phone)
	if err != nil {
		return err
	}
	c.Phone = phone

	if c.Phone != "" {
		existing, err := s.repo.FindByPhone(ctx, c.Phone)
		if err == nil && existing.ID != c.ID {
			return apperror.NewDuplicate("customer", "phone", c.Phone)
		}
	}
	return nil
}

// SetStatus activates or deactivates a customer.
func (s *Service) SetStatus(ctx context.Context, customerID id.ID, status Status) (*Customer, error) {
	c, err := s.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if c.Status == status {
		return c, nil
	}
	if err := c.SetStatus(status); err != nil {
		return nil, err
	}
	if err := s.Update(ctx, c); err != nil {
		return nil, err
	}
	logger.Info(ctx, "customer status changed", "customer_id", c.ID, "status", status)
	return c, nil
}
