package invoice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/entity"
	"pharmacy/internal/core/id"
	"pharmacy/internal/core/lock"
	"pharmacy/internal/core/numerator"
	"pharmacy/internal/core/tx"
	"pharmacy/internal/core/types"
	"pharmacy/internal/domain"
	"pharmacy/internal/domain/audit"
	"pharmacy/internal/domain/documents"
	"pharmacy/internal/domain/posting"
	"pharmacy/internal/domain/registers/stock"
	"pharmacy/internal/domain/rules"
	"pharmacy/pkg/logger"
)

// Prefix of invoice numbers.
const Prefix = "INV"

const lockTTL = 30 * time.Second

// StockRegister is the part of the stock service billing depends on.
type StockRegister interface {
	AvailableBatches(ctx context.Context, itemID id.ID) ([]*stock.Batch, error)
	GetBatch(ctx context.Context, key stock.BatchKey) (*stock.Batch, error)
	RecordMovements(ctx context.Context, movements []entity.StockMovement) error
}

// RuleChecker evaluates billing rules.
type RuleChecker interface {
	Check(doc rules.Doc, lines []rules.Line) error
}

// Service provides billing operations.
type Service struct {
	documents.Base[*Invoice]
	adjustments AdjustmentRepository
	stock       StockRegister
	rules       RuleChecker
	locker      lock.Locker
	audit       audit.Recorder
	now         func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithRules sets the billing rules. Without it no rules are checked.
func WithRules(r RuleChecker) Option { return func(s *Service) { s.rules = r } }

// WithLocker sets the lock used around payment returns and adjustments.
func WithLocker(l lock.Locker) Option { return func(s *Service) { s.locker = l } }

// WithAudit sets the audit trail.
func WithAudit(r audit.Recorder) Option { return func(s *Service) { s.audit = r } }

// NewService creates the billing service.
func NewService(
	repo Repository,
	adjustments AdjustmentRepository,
	engine *posting.Engine,
	stockRegister StockRegister,
	gen numerator.Generator,
	txm tx.Manager,
	opts ...Option,
) *Service {
	s := &Service{
		Base:        documents.NewBase[*Invoice](repo, gen, txm, engine, Prefix, "invoice"),
		adjustments: adjustments,
		stock:       stockRegister,
		locker:      lock.NewLocal(),
		audit:       audit.Nop{},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create bills the invoice lines from their batches. Quantities are checked
// against available batches and the billing rules before anything is
// written; the stock register checks again under row locks while posting.
func (s *Service) Create(ctx context.Context, inv *Invoice) error {
	if err := inv.Validate(ctx); err != nil {
		return err
	}

	batches, err := s.batchesFor(ctx, inv.Lines)
	if err != nil {
		return err
	}

	fillFromBatches(inv.LocationID, inv.Lines, batches)

	if err := ValidateAgainstBatches(inv.LocationID, inv.Lines, batches); err != nil {
		return err
	}

	inv.Lines.Normalize()
	inv.SetLines(inv.Lines)

	if s.rules != nil {
		if err := s.rules.Check(ruleDoc(inv), ruleLines(inv.LocationID, inv.Lines, batches)); err != nil {
			return err
		}
	}

	if err := s.CreateAndPost(ctx, inv); err != nil {
		return err
	}

	logger.Info(ctx, "invoice created",
		"id", inv.ID,
		"number", inv.Number,
		"lines", len(inv.Lines),
		"total", inv.Total.StringFixed(2),
		"payment_status", inv.PaymentStatus,
	)
	return nil
}

func (s *Service) batchesFor(ctx context.Context, lines documents.Lines) ([]*stock.Batch, error) {
	seen := make(map[id.ID]struct{})
	var out []*stock.Batch
	for _, l := range lines {
		if id.IsNil(l.ItemID) {
			continue
		}
		if _, ok := seen[l.ItemID]; ok {
			continue
		}
		seen[l.ItemID] = struct{}{}
		b, err := s.stock.AvailableBatches(ctx, l.ItemID)
		if err != nil {
			return nil, fmt.Errorf("available batches: %w", err)
		}
		out = append(out, b...)
	}
	return out, nil
}

// fillFromBatches completes lines from their batch: name, MRP and, when the
// rate is left empty, a sale at MRP.
func fillFromBatches(locationID id.ID, lines documents.Lines, batches []*stock.Batch) {
	byKey := make(map[stock.BatchKey]*stock.Batch, len(batches))
	for _, b := range batches {
		byKey[b.Key()] = b
	}
	for i := range lines {
		b, ok := byKey[stock.BatchKey{ItemID: lines[i].ItemID, BatchNo: lines[i].BatchNo, LocationID: locationID}]
		if !ok {
			continue
		}
		if lines[i].ItemName == "" {
			lines[i].ItemName = b.ItemName
		}
		if lines[i].MRP.IsZero() {
			lines[i].MRP = b.MRP
		}
		if lines[i].Rate.IsZero() {
			lines[i].Rate = b.MRP
		}
		if lines[i].ExpiryDate == nil {
			lines[i].ExpiryDate = b.ExpiryDate
		}
	}
}

func ruleDoc(inv *Invoice) rules.Doc {
	return rules.Doc{Subtotal: inv.Subtotal, Tax: inv.TaxTotal, Total: inv.Total, Paid: inv.PaidAmount}
}

func ruleLines(locationID id.ID, lines documents.Lines, batches []*stock.Batch) []rules.Line {
	available := make(map[stock.BatchKey]int64, len(batches))
	for _, b := range batches {
		available[b.Key()] = b.Quantity
	}
	out := make([]rules.Line, len(lines))
	for i, l := range lines {
		out[i] = rules.Line{
			Item:      l.ItemName,
			Qty:       l.Quantity,
			Rate:      l.Rate,
			MRP:       l.MRP,
			TaxRate:   l.TaxRate,
			Available: available[stock.BatchKey{ItemID: l.ItemID, BatchNo: l.BatchNo, LocationID: locationID}],
		}
	}
	return out
}

// GetByID retrieves an invoice with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Invoice, error) {
	return s.Get(ctx, docID)
}

// ListInvoices retrieves invoices with filtering.
func (s *Service) ListInvoices(ctx context.Context, filter documents.ListFilter) (domain.ListResult[*Invoice], error) {
	return s.List(ctx, filter)
}

// AvailableBatches lists what can be billed for an item.
func (s *Service) AvailableBatches(ctx context.Context, itemID id.ID) ([]*stock.Batch, error) {
	return s.stock.AvailableBatches(ctx, itemID)
}

// ReturnPayment refunds amount (everything refundable when zero) and marks
// the invoice returned.
func (s *Service) ReturnPayment(ctx context.Context, docID id.ID, amount types.Money, reason string) (*Invoice, error) {
	var inv *Invoice
	err := lock.WithLock(ctx, s.locker, lock.Key("invoice", docID), lockTTL, func(ctx context.Context) error {
		return s.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
			var err error
			inv, err = s.Repo.GetForUpdate(ctx, docID)
			if err != nil {
				return err
			}
			if amount.IsZero() {
				amount = inv.Refundable()
			}
			before := inv.RefundedAmount
			if err := inv.ReturnPayment(amount); err != nil {
				return err
			}
			if err := s.SaveHeader(ctx, inv); err != nil {
				return err
			}
			return s.audit.Record(ctx, audit.Entry{
				EntityType: DocumentType,
				EntityID:   inv.ID,
				Action:     audit.ActionPaymentReturn,
				Changes: map[string]any{
					"number":          inv.Number,
					"amount":          types.Format(amount),
					"refunded_before": types.Format(before),
					"refunded_after":  types.Format(inv.RefundedAmount),
					"reason":          reason,
				},
			})
		})
	})
	if err != nil {
		return nil, lockError(err, "invoice")
	}

	logger.Info(ctx, "invoice payment returned", "id", inv.ID, "number", inv.Number, "amount", types.Format(amount))
	return inv, nil
}

func lockError(err error, what string) error {
	if errors.Is(err, lock.ErrNotObtained) {
		return apperror.NewConflict(what + " is being changed by another user")
	}
	return err
}
