// Package domain provides core business logic interfaces and types.
package domain

import (
	"context"
	"fmt"
	"time"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/entity"
	"pharmacy/internal/core/id"
	"pharmacy/internal/core/numerator"
	"pharmacy/internal/core/tx"
	"pharmacy/pkg/logger"
)

// Coded is implemented by catalogs whose code can be generated.
type Coded interface {
	GetCode() string
	SetCode(code string)
}

// CatalogService provides business logic for catalog entities.
type CatalogService[T entity.Validatable] struct {
	repo      CatalogRepository[T]
	txManager tx.Manager
	numerator numerator.Generator
	hooks     *HookRegistry[T]

	// entityName for error messages
	entityName string
	// codePrefix is used when a code has to be generated
	codePrefix string
}

// CatalogServiceConfig configures the catalog service.
type CatalogServiceConfig[T entity.Validatable] struct {
	Repo       CatalogRepository[T]
	TxManager  tx.Manager
	Numerator  numerator.Generator
	EntityName string
	CodePrefix string
}

// NewCatalogService creates a new catalog service.
func NewCatalogService[T entity.Validatable](cfg CatalogServiceConfig[T]) *CatalogService[T] {
	txm := cfg.TxManager
	if txm == nil {
		txm = tx.Nop{}
	}
	return &CatalogService[T]{
		repo:       cfg.Repo,
		txManager:  txm,
		numerator:  cfg.Numerator,
		hooks:      NewHookRegistry[T](),
		entityName: cfg.EntityName,
		codePrefix: cfg.CodePrefix,
	}
}

// Hooks returns the hook registry for external registration.
func (s *CatalogService[T]) Hooks() *HookRegistry[T] {
	return s.hooks
}

// EntityName returns the human name used in errors.
func (s *CatalogService[T]) EntityName() string {
	return s.entityName
}

func (s *CatalogService[T]) normalizeValidationErr(err error) error {
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewValidation(err.Error())
}

func (s *CatalogService[T]) normalizeGetErr(err error, idOrCode any) error {
	if err == nil {
		return nil
	}
	// Keep not-found but name the right entity.
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(s.entityName, idOrCode)
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewInternal(err).WithDetail("entity", s.entityName).WithDetail("id", idOrCode)
}

// assignCode generates a code when the entity has none and checks uniqueness
// of the final code.
func (s *CatalogService[T]) assignCode(ctx context.Context, e T) error {
	coded, ok := any(e).(Coded)
	if !ok {
		return nil
	}
	if coded.GetCode() == "" {
		if s.numerator == nil || s.codePrefix == "" {
			return apperror.NewValidation("code is required").WithDetail("field", "code")
		}
		cfg := numerator.DefaultConfig(s.codePrefix)
		cfg.IncludeYear = false
		code, err := s.numerator.GetNextNumber(ctx, cfg, nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate %s code: %w", s.entityName, err)
		}
		coded.SetCode(code)
		return nil
	}
	exists, err := s.repo.ExistsByCode(ctx, coded.GetCode())
	if err != nil {
		return fmt.Errorf("check %s code: %w", s.entityName, err)
	}
	if exists {
		return apperror.NewDuplicate(s.entityName, "code", coded.GetCode())
	}
	return nil
}

// Create creates a new catalog entity.
func (s *CatalogService[T]) Create(ctx context.Context, e T) error {
	if err := e.Validate(ctx); err != nil {
		return s.normalizeValidationErr(err)
	}

	if err := s.hooks.RunBeforeCreate(ctx, e); err != nil {
		return err
	}

	if err := s.assignCode(ctx, e); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, e); err != nil {
			return fmt.Errorf("create %s: %w", s.entityName, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Entity is already stored; after-hooks only log.
	if err := s.hooks.RunAfterCreate(ctx, e); err != nil {
		logger.Warn(ctx, "after-create hook failed", "entity", s.entityName, "error", err)
	}

	return nil
}

// GetByID retrieves entity by ID.
func (s *CatalogService[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	e, err := s.repo.GetByID(ctx, entityID)
	if err != nil {
		return e, s.normalizeGetErr(err, entityID.String())
	}
	return e, nil
}

// GetByCode retrieves entity by code.
func (s *CatalogService[T]) GetByCode(ctx context.Context, code string) (T, error) {
	e, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return e, s.normalizeGetErr(err, code)
	}
	return e, nil
}

// Update updates an existing entity.
func (s *CatalogService[T]) Update(ctx context.Context, e T) error {
	if err := e.Validate(ctx); err != nil {
		return s.normalizeValidationErr(err)
	}

	if err := s.hooks.RunBeforeUpdate(ctx, e); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, e); err != nil {
			return fmt.Errorf("update %s: %w", s.entityName, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.hooks.RunAfterUpdate(ctx, e); err != nil {
		logger.Warn(ctx, "after-update hook failed", "entity", s.entityName, "error", err)
	}

	return nil
}

// Delete performs soft delete.
func (s *CatalogService[T]) Delete(ctx context.Context, entityID id.ID) error {
	e, err := s.repo.GetByID(ctx, entityID)
	if err != nil {
		return s.normalizeGetErr(err, entityID.String())
	}

	if err := s.hooks.RunBeforeDelete(ctx, e); err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.SetDeletionMark(ctx, entityID, true); err != nil {
			return fmt.Errorf("delete %s: %w", s.entityName, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.hooks.RunAfterDelete(ctx, e); err != nil {
		logger.Warn(ctx, "after-delete hook failed", "entity", s.entityName, "error", err)
	}

	return nil
}

// SetDeletionMark sets or clears the soft-delete flag.
func (s *CatalogService[T]) SetDeletionMark(ctx context.Context, entityID id.ID, marked bool) error {
	return s.repo.SetDeletionMark(ctx, entityID, marked)
}

// List retrieves entities with filtering.
func (s *CatalogService[T]) List(ctx context.Context, filter ListFilter) (ListResult[T], error) {
	return s.repo.List(ctx, filter)
}

// Exists checks if entity exists.
func (s *CatalogService[T]) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	return s.repo.Exists(ctx, entityID)
}
