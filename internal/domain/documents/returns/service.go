package returns

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/id"
	"pharmacy/internal/core/lock"
	"pharmacy/internal/core/numerator"
	"pharmacy/internal/core/tx"
	"pharmacy/internal/domain"
	"pharmacy/internal/domain/documents"
	"pharmacy/internal/domain/documents/invoice"
	"pharmacy/internal/domain/posting"
	"pharmacy/pkg/logger"
)

// Prefix of return numbers.
const Prefix = "RET"

const lockTTL = 30 * time.Second

// Repository defines storage for returns.
type Repository interface {
	documents.Repository[*Return]

	// ReturnedQuantity sums posted customer returns of one invoiced batch
	ReturnedQuantity(ctx context.Context, invoiceID, itemID id.ID, batchNo string) (int64, error)
}

// InvoiceReader loads the invoice a customer return refers to.
type InvoiceReader interface {
	GetByID(ctx context.Context, docID id.ID) (*invoice.Invoice, error)
}

// Service provides business operations for returns.
type Service struct {
	documents.Base[*Return]
	repo     Repository
	invoices InvoiceReader
	locker   lock.Locker
}

// Option configures the Service.
type Option func(*Service)

// WithLocker sets the lock taken on the invoice while a customer return
// is checked and posted.
func WithLocker(l lock.Locker) Option { return func(s *Service) { s.locker = l } }

// NewService creates the returns service.
func NewService(repo Repository, engine *posting.Engine, gen numerator.Generator, txm tx.Manager, invoices InvoiceReader, opts ...Option) *Service {
	s := &Service{
		Base:     documents.NewBase[*Return](repo, gen, txm, engine, Prefix, "return"),
		repo:     repo,
		invoices: invoices,
		locker:   lock.NewLocal(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores and posts a return. Customer returns are matched against
// the invoice and its earlier returns under the invoice lock.
func (s *Service) Create(ctx context.Context, r *Return) error {
	var err error
	if r.Kind == KindCustomer && r.InvoiceID != nil {
		err = lock.WithLock(ctx, s.locker, lock.Key("invoice", *r.InvoiceID), lockTTL, func(ctx context.Context) error {
			if err := s.matchInvoice(ctx, r); err != nil {
				return err
			}
			return s.CreateAndPost(ctx, r)
		})
		if errors.Is(err, lock.ErrNotObtained) {
			err = apperror.NewConflict("invoice is being changed by another user")
		}
	} else {
		err = s.CreateAndPost(ctx, r)
	}
	if err != nil {
		return err
	}

	logger.Info(ctx, "return created",
		"id", r.ID,
		"number", r.Number,
		"kind", r.Kind,
		"total", r.Total.StringFixed(2),
	)
	return nil
}

// matchInvoice checks a customer return against the invoice: same location,
// invoiced batches only and no more than was invoiced less what earlier
// returns already took back. Missing prices are taken from the invoice line.
func (s *Service) matchInvoice(ctx context.Context, r *Return) error {
	inv, err := s.invoices.GetByID(ctx, *r.InvoiceID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewValidation("invoice not found").WithDetail("field", "invoiceId")
		}
		return err
	}
	if inv.LocationID != r.LocationID {
		return apperror.NewValidation("return location differs from the invoice location").
			WithDetail("field", "locationId")
	}

	returned := make(map[string]int64)
	for i := range r.Lines {
		l := &r.Lines[i]
		invoiced := inv.Lines.Quantity(l.ItemID, l.BatchNo)
		if invoiced == 0 {
			return apperror.NewValidation(fmt.Sprintf("line %d: batch %s is not on invoice %s", i+1, l.BatchNo, inv.Number)).
				WithDetail("lineNo", i+1)
		}

		key := l.ItemID.String() + "/" + l.BatchNo
		if _, seen := returned[key]; !seen {
			earlier, err := s.repo.ReturnedQuantity(ctx, inv.ID, l.ItemID, l.BatchNo)
			if err != nil {
				return fmt.Errorf("returned quantity: %w", err)
			}
			returned[key] = earlier
		}
		returned[key] += l.Quantity
		if returned[key] > invoiced {
			return apperror.NewValidation(fmt.Sprintf("line %d: only %d invoiced, %d already returned", i+1, invoiced, returned[key]-l.Quantity)).
				WithDetail("lineNo", i+1).
				WithDetail("invoiced", invoiced).
				WithDetail("returned", returned[key]-l.Quantity)
		}

		for _, il := range inv.Lines {
			if il.ItemID != l.ItemID || il.BatchNo != l.BatchNo {
				continue
			}
			if l.ItemName == "" {
				l.ItemName = il.ItemName
			}
			if l.Rate.IsZero() {
				l.Rate = il.Rate
				l.TaxRate = il.TaxRate
			}
			if l.MRP.IsZero() {
				l.MRP = il.MRP
			}
			break
		}
	}
	return nil
}

// GetByID retrieves a return with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Return, error) {
	return s.Get(ctx, docID)
}

// ListReturns retrieves returns with filtering.
func (s *Service) ListReturns(ctx context.Context, filter documents.ListFilter) (domain.ListResult[*Return], error) {
	return s.List(ctx, filter)
}
