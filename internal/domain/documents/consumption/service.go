package consumption

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

// Prefix of consumption issue numbers.
const Prefix = "CIS"

// Repository defines storage for consumption issues.
type Repository = documents.Repository[*Issue]

// Service provides business operations for consumption issues.
type Service struct {
	documents.Base[*Issue]
}

// NewService creates the consumption service.
func NewService(repo Repository, engine *posting.Engine, gen numerator.Generator, txm tx.Manager) *Service {
	s := &Service{Base: documents.NewBase[*Issue](repo, gen, txm, engine, Prefix, "consumption issue")}
	s.Strategy = numerator.StrategyCached
	return s
}

// Create stores and posts an issue.
func (s *Service) Create(ctx context.Context, c *Issue) error {
	if err := s.CreateAndPost(ctx, c); err != nil {
		return err
	}
	logger.Info(ctx, "consumption issued", "id", c.ID, "number", c.Number, "department_id", c.DepartmentID)
	return nil
}

func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Issue, error) {
	return s.Get(ctx, docID)
}

func (s *Service) ListIssues(ctx context.Context, filter documents.ListFilter) (domain.ListResult[*Issue], error) {
	return s.List(ctx, filter)
}
