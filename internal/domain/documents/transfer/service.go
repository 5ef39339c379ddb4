package transfer

import (
	"context"

	"pharmacy/internal/core/id"
	"pharmacy/internal/core/numerator"
	"pharmacy/internal/core/tx"
	"pharmacy/internal/domain"
	"pharmacy/internal/domain/documents"
	"pharmacy/internal/domain/posting"
	"pharmacy/pkg/logger"
)

// Prefix of transfer numbers.
const Prefix = "ETR"

// Repository defines storage for transfers.
type Repository = documents.Repository[*Transfer]

// Service provides business operations for external transfers.
type Service struct {
	documents.Base[*Transfer]
}

// NewService creates the transfer service.
func NewService(repo Repository, engine *posting.Engine, gen numerator.Generator, txm tx.Manager) *Service {
	s := &Service{Base: documents.NewBase[*Transfer](repo, gen, txm, engine, Prefix, "external transfer")}
	s.Strategy = numerator.StrategyCached
	return s
}

// Create stores and posts a transfer.
func (s *Service) Create(ctx context.Context, t *Transfer) error {
	if err := s.CreateAndPost(ctx, t); err != nil {
		return err
	}
	logger.Info(ctx, "external transfer created", "id", t.ID, "number", t.Number, "destination", t.Destination)
	return nil
}

func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Transfer, error) {
	return s.Get(ctx, docID)
}

func (s *Service) ListTransfers(ctx context.Context, filter documents.ListFilter) (domain.ListResult[*Transfer], error) {
	return s.List(ctx, filter)
}
