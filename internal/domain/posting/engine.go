// Package posting records document movements in the stock register.
//
// Posting is transactional: movements of the previous posting iteration are
// reversed, the new ones recorded and the document saved in one transaction.
// If anything fails the in-memory document gets its previous posting state
// back.
package posting

import (
	"context"
	"fmt"
	"time"

	"pharmacy/internal/core/entity"
	"pharmacy/internal/core/id"
	"pharmacy/internal/core/tx"
	"pharmacy/pkg/logger"
)

// Postable is implemented by documents that move stock.
type Postable interface {
	GetID() id.ID
	GetNumber() string
	GetDocumentType() string
	GetPostedVersion() int
	GetDate() time.Time
	IsPosted() bool
	CanPost(ctx context.Context) error
	MarkPosted()
	MarkUnposted()
	RestorePosting(posted bool, version int)
	GenerateMovements(ctx context.Context) (*MovementSet, error)
}

// MovementSet collects the register movements of one document.
type MovementSet struct {
	Stock []entity.StockMovement
}

// NewMovementSet creates an empty set.
func NewMovementSet() *MovementSet {
	return &MovementSet{}
}

// AddStock appends stock movements.
func (s *MovementSet) AddStock(m ...entity.StockMovement) {
	s.Stock = append(s.Stock, m...)
}

// Len returns the number of movements.
func (s *MovementSet) Len() int {
	return len(s.Stock)
}

// StockRecorder is the stock register as seen by the engine.
type StockRecorder interface {
	RecordMovements(ctx context.Context, movements []entity.StockMovement) error
	ReverseMovements(ctx context.Context, recorderID id.ID, beforeVersion int) error
}

// SaveFunc persists the document inside the posting transaction.
type SaveFunc func(ctx context.Context) error

// Engine posts and unposts documents.
type Engine struct {
	stock     StockRecorder
	txManager tx.Manager
	policy    PeriodPolicy
}

// NewEngine creates a posting engine with an open period policy.
func NewEngine(stock StockRecorder, txm tx.Manager) *Engine {
	if txm == nil {
		txm = tx.Nop{}
	}
	return &Engine{stock: stock, txManager: txm, policy: OpenPolicy{}}
}

// WithPolicy sets the period policy checked before posting and unposting.
func (e *Engine) WithPolicy(p PeriodPolicy) *Engine {
	if p != nil {
		e.policy = p
	}
	return e
}

// Post records doc's movements and saves it.
func (e *Engine) Post(ctx context.Context, doc Postable, save SaveFunc) error {
	if err := doc.CanPost(ctx); err != nil {
		return err
	}
	if err := e.policy.CanPost(ctx, doc.GetDate()); err != nil {
		return err
	}

	wasPosted, prevVersion := doc.IsPosted(), doc.GetPostedVersion()

	err := e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc.MarkPosted()

		if wasPosted {
			if err := e.stock.ReverseMovements(ctx, doc.GetID(), doc.GetPostedVersion()); err != nil {
				return fmt.Errorf("reverse previous movements: %w", err)
			}
		}

		set, err := doc.GenerateMovements(ctx)
		if err != nil {
			return fmt.Errorf("generate movements: %w", err)
		}
		stamp(doc, set.Stock)

		if err := e.stock.RecordMovements(ctx, set.Stock); err != nil {
			return err
		}

		return save(ctx)
	})
	if err != nil {
		doc.RestorePosting(wasPosted, prevVersion)
		return err
	}

	logger.Info(ctx, "document posted",
		"type", doc.GetDocumentType(),
		"id", doc.GetID(),
		"number", doc.GetNumber(),
		"posted_version", doc.GetPostedVersion(),
	)
	return nil
}

// Unpost reverses doc's movements and saves it.
func (e *Engine) Unpost(ctx context.Context, doc Postable, save SaveFunc) error {
	if !doc.IsPosted() {
		return nil
	}
	if err := e.policy.CanUnpost(ctx, doc.GetDate()); err != nil {
		return err
	}
	prevVersion := doc.GetPostedVersion()

	err := e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := e.stock.ReverseMovements(ctx, doc.GetID(), prevVersion+1); err != nil {
			return fmt.Errorf("reverse movements: %w", err)
		}
		doc.MarkUnposted()
		return save(ctx)
	})
	if err != nil {
		doc.RestorePosting(true, prevVersion)
		return err
	}

	logger.Info(ctx, "document unposted", "type", doc.GetDocumentType(), "id", doc.GetID())
	return nil
}

func stamp(doc Postable, movements []entity.StockMovement) {
	for i := range movements {
		m := &movements[i]
		if id.IsNil(m.LineID) {
			m.LineID = id.New()
		}
		m.RecorderID = doc.GetID()
		m.RecorderType = doc.GetDocumentType()
		m.RecorderNumber = doc.GetNumber()
		m.RecorderVersion = doc.GetPostedVersion()
	}
}
