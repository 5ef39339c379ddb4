package stock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/entity"
	"pharmacy/internal/core/id"
	"pharmacy/internal/core/lock"
	"pharmacy/internal/core/tx"
	"pharmacy/internal/core/types"
	"pharmacy/internal/domain"
	"pharmacy/internal/domain/audit"
	"pharmacy/pkg/logger"
)

var tracer = otel.Tracer("pharmacy/stock")

const lockTTL = 30 * time.Second

// Service provides business operations for the stock register.
// RecordMovements and ReverseMovements expect the caller's transaction
// (the posting engine); the remaining mutations open their own.
type Service struct {
	repo      Repository
	txManager tx.Manager
	cache     BatchCache
	locker    lock.Locker
	audit     audit.Recorder
	now       func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithCache sets the available-batches cache.
func WithCache(c BatchCache) Option { return func(s *Service) { s.cache = c } }

// WithLocker sets the lock used around manual adjustments.
func WithLocker(l lock.Locker) Option { return func(s *Service) { s.locker = l } }

// WithAudit sets the audit trail.
func WithAudit(r audit.Recorder) Option { return func(s *Service) { s.audit = r } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// NewService creates a new stock register service.
func NewService(repo Repository, txm tx.Manager, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		txManager: txm,
		cache:     nopCache{},
		locker:    lock.NewLocal(),
		audit:     audit.Nop{},
		now:       time.Now,
	}
	if s.txManager == nil {
		s.txManager = tx.Nop{}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordMovements applies movements to their batches and stores them.
// Receipts create the batch when needed. Expenses require enough stock in
// the locked batch.
func (s *Service) RecordMovements(ctx context.Context, movements []entity.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}
	ctx, span := tracer.Start(ctx, "stock.RecordMovements")
	defer span.End()
	span.SetAttributes(attribute.Int("movements", len(movements)))

	for i, m := range movements {
		if m.Quantity <= 0 {
			return apperror.NewValidation(fmt.Sprintf("movement %d: quantity must be positive", i+1)).
				WithDetail("lineNo", i+1)
		}
		if id.IsNil(m.RecorderID) {
			return apperror.NewValidation(fmt.Sprintf("movement %d: recorder is required", i+1))
		}
		if id.IsNil(m.ItemID) || id.IsNil(m.LocationID) {
			return apperror.NewValidation(fmt.Sprintf("movement %d: item and location are required", i+1)).
				WithDetail("lineNo", i+1)
		}
	}

	if err := s.apply(ctx, movements); err != nil {
		return err
	}

	if err := s.repo.CreateMovements(ctx, movements); err != nil {
		return fmt.Errorf("create movements: %w", err)
	}

	s.invalidate(ctx, movements)

	logger.Info(ctx, "recorded stock movements",
		"count", len(movements),
		"recorder_id", movements[0].RecorderID,
		"recorder_type", movements[0].RecorderType,
	)
	return nil
}

// ReverseMovements undoes the batch effect of a document's movements older
// than beforeVersion and deletes them.
func (s *Service) ReverseMovements(ctx context.Context, recorderID id.ID, beforeVersion int) error {
	existing, err := s.repo.GetMovementsByRecorder(ctx, recorderID)
	if err != nil {
		return fmt.Errorf("get movements: %w", err)
	}

	var inverse []entity.StockMovement
	for _, m := range existing {
		if m.RecorderVersion < beforeVersion {
			inverse = append(inverse, m.Inverse())
		}
	}
	if len(inverse) == 0 {
		return nil
	}

	if err := s.apply(ctx, inverse); err != nil {
		return err
	}
	if err := s.repo.DeleteMovementsByRecorder(ctx, recorderID, beforeVersion); err != nil {
		return fmt.Errorf("delete movements: %w", err)
	}

	s.invalidate(ctx, inverse)

	logger.Info(ctx, "reversed stock movements",
		"recorder_id", recorderID,
		"before_version", beforeVersion,
		"count", len(inverse),
	)
	return nil
}

// apply changes batch quantities. Batches are locked in key order so two
// documents touching the same batches cannot deadlock.
func (s *Service) apply(ctx context.Context, movements []entity.StockMovement) error {
	ordered := make([]entity.StockMovement, len(movements))
	copy(ordered, movements)
	sort.SliceStable(ordered, func(i, j int) bool {
		return keyOf(ordered[i]).String() < keyOf(ordered[j]).String()
	})

	batches := make(map[BatchKey]*Batch)
	for _, m := range ordered {
		key := keyOf(m)
		b, ok := batches[key]
		if !ok {
			var err error
			b, err = s.repo.GetBatchForUpdate(ctx, key)
			if err != nil && !apperror.IsNotFound(err) {
				return fmt.Errorf("lock batch %s: %w", key, err)
			}
			if b == nil {
				if m.RecordType == entity.RecordTypeExpense {
					return apperror.NewInsufficientStock(m.ItemName, m.BatchNo, m.Quantity, 0)
				}
				b = newBatchFrom(m, s.now())
			}
			batches[key] = b
		}

		if m.RecordType == entity.RecordTypeExpense {
			if err := b.Deduct(m.Quantity); err != nil {
				return err
			}
			continue
		}
		b.Add(m.Quantity)
		mergeBatchAttributes(b, m)
	}

	for _, b := range batches {
		b.UpdatedAt = s.now().UTC()
		if err := s.repo.SaveBatch(ctx, b); err != nil {
			return fmt.Errorf("save batch %s: %w", b.Key(), err)
		}
	}
	return nil
}

func keyOf(m entity.StockMovement) BatchKey {
	return BatchKey{ItemID: m.ItemID, BatchNo: m.BatchNo, LocationID: m.LocationID}
}

func newBatchFrom(m entity.StockMovement, now time.Time) *Batch {
	return &Batch{
		ID:         id.New(),
		ItemID:     m.ItemID,
		ItemName:   m.ItemName,
		BatchNo:    m.BatchNo,
		LocationID: m.LocationID,
		ExpiryDate: m.ExpiryDate,
		UnitCost:   m.Rate,
		MRP:        m.MRP,
		VendorID:   m.VendorID,
		CreatedAt:  now.UTC(),
	}
}

// mergeBatchAttributes fills attributes a receipt knows and the batch lacks.
func mergeBatchAttributes(b *Batch, m entity.StockMovement) {
	if b.ExpiryDate == nil && m.ExpiryDate != nil {
		b.ExpiryDate = m.ExpiryDate
	}
	if b.MRP.IsZero() && m.MRP.IsPositive() {
		b.MRP = m.MRP
	}
	if b.UnitCost.IsZero() && m.Rate.IsPositive() {
		b.UnitCost = m.Rate
	}
	if b.VendorID == nil && m.VendorID != nil {
		b.VendorID = m.VendorID
	}
	if b.ItemName == "" {
		b.ItemName = m.ItemName
	}
}

// invalidate drops the cached batches of the moved items once the
// transaction commits, so a concurrent read cannot re-cache old quantities.
func (s *Service) invalidate(ctx context.Context, movements []entity.StockMovement) {
	seen := make(map[id.ID]struct{})
	var ids []id.ID
	for _, m := range movements {
		if _, ok := seen[m.ItemID]; !ok {
			seen[m.ItemID] = struct{}{}
			ids = append(ids, m.ItemID)
		}
	}
	tx.AfterCommit(ctx, func(ctx context.Context) {
		if err := s.cache.Invalidate(ctx, ids...); err != nil {
			logger.Warn(ctx, "batch cache invalidation failed", "error", err)
		}
	})
}

// AvailableBatches returns sellable batches of an item, earliest expiry first.
func (s *Service) AvailableBatches(ctx context.Context, itemID id.ID) ([]*Batch, error) {
	if cached, ok, err := s.cache.Get(ctx, itemID); err != nil {
		logger.Warn(ctx, "batch cache read failed", "item_id", itemID, "error", err)
	} else if ok {
		return cached, nil
	}

	batches, err := s.repo.AvailableBatches(ctx, itemID, s.now())
	if err != nil {
		return nil, fmt.Errorf("available batches: %w", err)
	}
	sortFEFO(batches)

	if err := s.cache.Set(ctx, itemID, batches); err != nil {
		logger.Warn(ctx, "batch cache write failed", "item_id", itemID, "error", err)
	}
	return batches, nil
}

// sortFEFO orders by expiry; batches without expiry go last.
func sortFEFO(batches []*Batch) {
	sort.SliceStable(batches, func(i, j int) bool {
		a, b := batches[i].ExpiryDate, batches[j].ExpiryDate
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
}

// Adjust records a manual correction of a batch. It runs under a lock on the
// batch and is written to the audit trail.
func (s *Service) Adjust(ctx context.Context, req AdjustRequest) (*Batch, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	key := BatchKey{ItemID: req.ItemID, BatchNo: req.BatchNo, LocationID: req.LocationID}

	var result *Batch
	err := lock.WithLock(ctx, s.locker, lock.Key("batch", key), lockTTL, func(ctx context.Context) error {
		return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			before, err := s.repo.GetBatchForUpdate(ctx, key)
			if err != nil {
				if apperror.IsNotFound(err) {
					return apperror.NewNotFound("batch", req.BatchNo)
				}
				return err
			}
			beforeQty := before.Quantity

			m := entity.StockMovement{
				MovementBase: entity.NewMovementBase(id.New(), RecorderAdjustment, 1, s.now().UTC(), entity.RecordTypeReceipt),
				ItemID:       req.ItemID,
				ItemName:     before.ItemName,
				BatchNo:      req.BatchNo,
				LocationID:   req.LocationID,
				Quantity:     req.Delta,
				Rate:         before.UnitCost,
			}
			m.RecorderNumber = req.Reason
			if req.Delta < 0 {
				m.RecordType = entity.RecordTypeExpense
				m.Quantity = -req.Delta
			}

			if err := s.RecordMovements(ctx, []entity.StockMovement{m}); err != nil {
				return err
			}

			after, err := s.repo.GetBatchForUpdate(ctx, key)
			if err != nil {
				return err
			}
			result = after

			return s.audit.Record(ctx, audit.Entry{
				EntityType: "batch",
				EntityID:   after.ID,
				Action:     audit.ActionStockAdjust,
				Changes: map[string]any{
					"batch_no": req.BatchNo,
					"before":   beforeQty,
					"after":    after.Quantity,
					"delta":    req.Delta,
					"reason":   req.Reason,
				},
			})
		})
	})
	if err != nil {
		if errors.Is(err, lock.ErrNotObtained) {
			return nil, apperror.NewConflict("batch is being adjusted by another user").
				WithDetail("batch_no", req.BatchNo)
		}
		return nil, err
	}

	logger.Info(ctx, "stock adjusted", "batch", key.String(), "delta", req.Delta, "quantity", result.Quantity)
	return result, nil
}

// AddBatchStock opens a batch with initial stock outside the purchase flow.
func (s *Service) AddBatchStock(ctx context.Context, req AddBatchRequest) (*Batch, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	key := BatchKey{ItemID: req.ItemID, BatchNo: req.BatchNo, LocationID: req.LocationID}

	var result *Batch
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		m := entity.StockMovement{
			MovementBase: entity.NewMovementBase(id.New(), RecorderOpening, 1, s.now().UTC(), entity.RecordTypeReceipt),
			ItemID:       req.ItemID,
			ItemName:     req.ItemName,
			BatchNo:      req.BatchNo,
			LocationID:   req.LocationID,
			Quantity:     req.Quantity,
			Rate:         req.UnitCost,
			ExpiryDate:   req.ExpiryDate,
			MRP:          req.MRP,
			VendorID:     req.VendorID,
		}
		if err := s.RecordMovements(ctx, []entity.StockMovement{m}); err != nil {
			return err
		}
		b, err := s.repo.GetBatchForUpdate(ctx, key)
		result = b
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetBatch returns the current state of a batch without locking.
func (s *Service) GetBatch(ctx context.Context, key BatchKey) (*Batch, error) {
	var b *Batch
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		b, err = s.repo.GetBatchForUpdate(ctx, key)
		return err
	})
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("batch", key.BatchNo)
		}
		return nil, err
	}
	return b, nil
}

// List backs the stock management view.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Batch], error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	return s.repo.ListBatches(ctx, filter)
}

// Ledger returns movements with a running balance per item.
func (s *Service) Ledger(ctx context.Context, filter LedgerFilter) ([]LedgerEntry, error) {
	opening := map[id.ID]int64{}
	if filter.From != nil {
		var err error
		opening, err = s.repo.OpeningBalances(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("opening balances: %w", err)
		}
	}
	movements, err := s.repo.Movements(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("movements: %w", err)
	}
	return BuildLedger(opening, movements), nil
}

// SupplierLedger returns the statement of a vendor for [from, to].
func (s *Service) SupplierLedger(ctx context.Context, vendorID id.ID, from, to time.Time) (SupplierLedger, error) {
	if id.IsNil(vendorID) {
		return SupplierLedger{}, apperror.NewValidation("vendor is required").WithDetail("field", "vendorId")
	}
	if to.Before(from) {
		return SupplierLedger{}, apperror.NewValidation("period end is before its start").WithDetail("field", "to")
	}
	var (
		opening types.Money
		entries []SupplierEntry
	)
	err := s.readOnly(ctx, func(ctx context.Context) error {
		var err error
		if opening, err = s.repo.SupplierBalanceBefore(ctx, vendorID, from); err != nil {
			return fmt.Errorf("opening balance: %w", err)
		}
		if entries, err = s.repo.SupplierEntries(ctx, vendorID, from, to); err != nil {
			return fmt.Errorf("supplier entries: %w", err)
		}
		return nil
	})
	if err != nil {
		return SupplierLedger{}, err
	}
	return BuildSupplierLedger(vendorID, opening, entries), nil
}

// readOnly runs fn on one read snapshot when the manager supports it.
func (s *Service) readOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	if ro, ok := s.txManager.(tx.ReadOnlyManager); ok {
		return ro.ReadOnly(ctx, fn)
	}
	return s.txManager.RunInTransaction(ctx, fn)
}

// ExpiringBatches returns batches with stock expiring within d.
func (s *Service) ExpiringBatches(ctx context.Context, within time.Duration) ([]*Batch, error) {
	batches, err := s.repo.ExpiringBatches(ctx, s.now().Add(within))
	if err != nil {
		return nil, err
	}
	sortFEFO(batches)
	return batches, nil
}
