package documents

import (
	"context"
	"fmt"

	"pharmacy/internal/core/id"
	"pharmacy/internal/core/numerator"
	"pharmacy/internal/core/tx"
	"pharmacy/internal/domain"
	"pharmacy/internal/domain/audit"
	"pharmacy/internal/domain/posting"
	"pharmacy/pkg/logger"
)

// Base is the create/load skeleton embedded by document services.
type Base[T Doc] struct {
	Repo      Repository[T]
	Numerator numerator.Generator
	TxManager tx.Manager
	Engine    *posting.Engine

	// Prefix is the number prefix, e.g. "GRN"
	Prefix string
	// Strategy picks strict numbering for accounting documents
	Strategy numerator.Strategy
	// Name is used in log messages
	Name string
}

// NewBase creates a service skeleton. txm may be nil in tests.
func NewBase[T Doc](repo Repository[T], gen numerator.Generator, txm tx.Manager, engine *posting.Engine, prefix, name string) Base[T] {
	if txm == nil {
		txm = tx.Nop{}
	}
	return Base[T]{
		Repo:      repo,
		Numerator: gen,
		TxManager: txm,
		Engine:    engine,
		Prefix:    prefix,
		Strategy:  numerator.StrategyStrict,
		Name:      name,
	}
}

// Prepare normalizes lines, validates, assigns a number and the creator.
func (b *Base[T]) Prepare(ctx context.Context, doc T) error {
	lines := doc.GetLines()
	lines.Normalize()
	doc.SetLines(lines)

	if err := doc.Validate(ctx); err != nil {
		return err
	}

	if doc.GetNumber() == "" {
		cfg := numerator.DefaultConfig(b.Prefix)
		number, err := b.Numerator.GetNextNumber(ctx, cfg, &numerator.Options{Strategy: b.Strategy}, doc.GetDate())
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		doc.SetNumber(number)
	}

	audit.EnrichCreatedBy(ctx, doc)
	return nil
}

// CreateDraft stores a document that does not move stock.
func (b *Base[T]) CreateDraft(ctx context.Context, doc T, after ...posting.SaveFunc) error {
	if err := b.Prepare(ctx, doc); err != nil {
		return err
	}
	err := b.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return b.insert(ctx, doc, after)
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, b.Name+" created", "id", doc.GetID(), "number", doc.GetNumber())
	return nil
}

// CreateAndPost stores the document and records its movements in one
// transaction. after runs inside the same transaction once the document is
// saved.
func (b *Base[T]) CreateAndPost(ctx context.Context, doc T, after ...posting.SaveFunc) error {
	p, ok := any(doc).(posting.Postable)
	if !ok {
		return fmt.Errorf("%s is not postable", b.Name)
	}
	if err := b.Prepare(ctx, doc); err != nil {
		return err
	}
	return b.Engine.Post(ctx, p, func(ctx context.Context) error {
		return b.insert(ctx, doc, after)
	})
}

func (b *Base[T]) insert(ctx context.Context, doc T, after []posting.SaveFunc) error {
	if err := b.Repo.Create(ctx, doc); err != nil {
		return fmt.Errorf("create %s: %w", b.Name, err)
	}
	if err := b.Repo.SaveLines(ctx, doc.GetID(), doc.GetLines()); err != nil {
		return fmt.Errorf("save lines: %w", err)
	}
	for _, fn := range after {
		if err := fn(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Get loads a document with its lines.
func (b *Base[T]) Get(ctx context.Context, docID id.ID) (T, error) {
	doc, err := b.Repo.GetByID(ctx, docID)
	if err != nil {
		var zero T
		return zero, err
	}
	lines, err := b.Repo.GetLines(ctx, docID)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("get lines: %w", err)
	}
	doc.SetLines(lines)
	return doc, nil
}

// List returns document headers.
func (b *Base[T]) List(ctx context.Context, filter ListFilter) (domain.ListResult[T], error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return b.Repo.List(ctx, filter)
}

// Unpost reverses the movements of a posted document.
func (b *Base[T]) Unpost(ctx context.Context, docID id.ID) (T, error) {
	doc, err := b.Get(ctx, docID)
	if err != nil {
		return doc, err
	}
	p, ok := any(doc).(posting.Postable)
	if !ok {
		return doc, fmt.Errorf("%s is not postable", b.Name)
	}
	err = b.Engine.Unpost(ctx, p, func(ctx context.Context) error {
		return b.SaveHeader(ctx, doc)
	})
	return doc, err
}

// SaveHeader updates the header after a status change.
func (b *Base[T]) SaveHeader(ctx context.Context, doc T) error {
	audit.EnrichUpdatedBy(ctx, doc)
	return b.Repo.Update(ctx, doc)
}
