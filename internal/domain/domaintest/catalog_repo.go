// Package domaintest holds in-memory implementations of domain contracts
// for service tests.
package domaintest

import (
	"context"
	"sort"
	"strings"
	"sync"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/entity"
	"pharmacy/internal/core/id"
	"pharmacy/internal/domain"
)

// CatalogEntity is what the memory repository needs from a catalog.
type CatalogEntity interface {
	entity.Validatable
	GetID() id.ID
	GetCode() string
	GetName() string
	MarkDeleted()
	Undelete()
	IsDeleted() bool
}

// CatalogRepo is a map-backed domain.CatalogRepository.
type CatalogRepo[T CatalogEntity] struct {
	mu    sync.RWMutex
	items map[id.ID]T
	// Err, when set, is returned by every write.
	Err error
}

// NewCatalogRepo creates an empty repository.
func NewCatalogRepo[T CatalogEntity]() *CatalogRepo[T] {
	return &CatalogRepo[T]{items: make(map[id.ID]T)}
}

func (r *CatalogRepo[T]) Create(_ context.Context, e T) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[e.GetID()] = e
	return nil
}

func (r *CatalogRepo[T]) GetByID(_ context.Context, entityID id.ID) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.items[entityID]
	if !ok {
		var zero T
		return zero, apperror.NewNotFound("entity", entityID.String())
	}
	return e, nil
}

func (r *CatalogRepo[T]) GetByCode(_ context.Context, code string) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.items {
		if e.GetCode() == code {
			return e, nil
		}
	}
	var zero T
	return zero, apperror.NewNotFound("entity", code)
}

func (r *CatalogRepo[T]) Update(_ context.Context, e T) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[e.GetID()]; !ok {
		return apperror.NewNotFound("entity", e.GetID().String())
	}
	r.items[e.GetID()] = e
	return nil
}

func (r *CatalogRepo[T]) Delete(_ context.Context, entityID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, entityID)
	return nil
}

func (r *CatalogRepo[T]) SetDeletionMark(_ context.Context, entityID id.ID, marked bool) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.items[entityID]
	if !ok {
		return apperror.NewNotFound("entity", entityID.String())
	}
	if marked {
		e.MarkDeleted()
	} else {
		e.Undelete()
	}
	return nil
}

func (r *CatalogRepo[T]) List(_ context.Context, f domain.ListFilter) (domain.ListResult[T], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	search := strings.ToLower(f.Search)
	var out []T
	for _, e := range r.items {
		if e.IsDeleted() && !f.IncludeDeleted {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(e.GetName()), search) &&
			!strings.Contains(strings.ToLower(e.GetCode()), search) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GetName() < out[j].GetName() })
	return domain.ListResult[T]{Items: out, TotalCount: int64(len(out)), Limit: f.Limit, Offset: f.Offset}, nil
}

func (r *CatalogRepo[T]) Exists(_ context.Context, entityID id.ID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.items[entityID]
	return ok, nil
}

func (r *CatalogRepo[T]) ExistsByCode(ctx context.Context, code string) (bool, error) {
	_, err := r.GetByCode(ctx, code)
	return err == nil, nil
}

// Len returns the number of stored entities, deleted included.
func (r *CatalogRepo[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
