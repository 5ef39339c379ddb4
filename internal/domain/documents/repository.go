package documents

import (
	"context"
	"time"

	"pharmacy/internal/core/entity"
	"pharmacy/internal/core/id"
	"pharmacy/internal/domain"
)

// Doc is what the shared service needs from a document header.
type Doc interface {
	entity.Validatable
	GetID() id.ID
	GetNumber() string
	SetNumber(n string)
	GetDate() time.Time
	GetLines() Lines
	SetLines(ls Lines)
}

// Repository defines storage for one document type and its lines.
type Repository[T Doc] interface {
	Create(ctx context.Context, doc T) error
	GetByID(ctx context.Context, docID id.ID) (T, error)

	// GetForUpdate retrieves the header with a row lock
	GetForUpdate(ctx context.Context, docID id.ID) (T, error)

	// Update saves the header with optimistic locking
	Update(ctx context.Context, doc T) error

	GetLines(ctx context.Context, docID id.ID) (Lines, error)

	// SaveLines replaces the lines of a document
	SaveLines(ctx context.Context, docID id.ID, lines Lines) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[T], error)
}

// ListFilter is shared by all document lists.
type ListFilter struct {
	domain.ListFilter

	DateFrom *time.Time
	DateTo   *time.Time

	// CounterpartyID matches the vendor or customer column of the document
	CounterpartyID *id.ID
	LocationID     *id.ID
	Status         string
	Posted         *bool

	// Kind narrows returns to one kind
	Kind string
}
