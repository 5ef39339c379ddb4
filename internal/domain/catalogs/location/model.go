// Package location provides the Location catalog: stores, warehouses and
// counters that hold stock.
package location

import (
	"context"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/entity"
)

// Kind of location.
type Kind string

const (
	KindStore     Kind = "store"
	KindWarehouse Kind = "warehouse"
	KindCounter   Kind = "counter"
)

// Location is a place where batches are kept.
type Location struct {
	entity.Catalog

	Kind    Kind   `db:"kind" json:"kind"`
	Address string `db:"address" json:"address,omitempty"`
}

// NewLocation creates a location.
func NewLocation(code, name string, kind Kind) *Location {
	return &Location{
		Catalog: entity.NewCatalog(code, name),
		Kind:    kind,
	}
}

// Validate implements entity.Validatable interface.
func (l *Location) Validate(ctx context.Context) error {
	if err := l.Catalog.Validate(ctx); err != nil {
		return err
	}
	switch l.Kind {
	case KindStore, KindWarehouse, KindCounter:
		return nil
	}
	return apperror.NewValidation("invalid location kind").
		WithDetail("field", "kind").
		WithDetail("value", string(l.Kind))
}
