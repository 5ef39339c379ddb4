package invoice

import (
	"context"
	"fmt"

	"pharmacy/internal/core/apperror"
	appctx "pharmacy/internal/core/context"
	"pharmacy/internal/core/entity"
	"pharmacy/internal/core/id"
	"pharmacy/internal/core/lock"
	"pharmacy/internal/domain/audit"
	"pharmacy/internal/domain/reconcile"
	"pharmacy/internal/domain/registers/stock"
	"pharmacy/pkg/logger"
)

// RequestAdjustment opens a pending change of an invoiced line quantity.
// Only one open adjustment per line is allowed; the check and the insert
// run under the line lock.
func (s *Service) RequestAdjustment(ctx context.Context, invoiceID, lineID id.ID, newQty int64, reason string) (*Adjustment, error) {
	if newQty < 0 {
		return nil, apperror.NewValidation("quantity cannot be negative").WithDetail("field", "newQty")
	}

	inv, err := s.Get(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if !inv.Posted {
		return nil, apperror.NewBusinessRule(apperror.CodeInvalidTransition, "invoice is not posted")
	}
	line, ok := inv.Lines.Find(lineID)
	if !ok {
		return nil, apperror.NewNotFound("invoice line", lineID.String())
	}
	if line.Quantity == newQty {
		return nil, apperror.NewValidation("quantity is unchanged").WithDetail("field", "newQty")
	}

	now := s.now().UTC()
	a := &Adjustment{
		ID:          id.New(),
		InvoiceID:   invoiceID,
		LineID:      lineID,
		ItemID:      line.ItemID,
		ItemName:    line.ItemName,
		BatchNo:     line.BatchNo,
		LocationID:  inv.LocationID,
		OriginalQty: line.Quantity,
		NewQty:      newQty,
		State:       reconcile.StatePending,
		Reason:      reason,
		CreatedBy:   appctx.GetUserID(ctx),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = lock.WithLock(ctx, s.locker, lock.Key("invoice_line", lineID), lockTTL, func(ctx context.Context) error {
		existing, err := s.adjustments.ListByInvoice(ctx, invoiceID)
		if err != nil {
			return err
		}
		for _, open := range existing {
			if open.LineID == lineID && open.Open() {
				return apperror.NewConflict("line already has an open adjustment").
					WithDetail("adjustment_id", open.ID.String())
			}
		}
		if err := s.adjustments.Create(ctx, a); err != nil {
			return fmt.Errorf("create adjustment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, lockError(err, "invoice line")
	}

	logger.Info(ctx, "invoice adjustment requested",
		"invoice", inv.Number, "batch_no", a.BatchNo, "delta", a.Delta())
	return a, nil
}

// ListAdjustments returns the adjustments of an invoice.
func (s *Service) ListAdjustments(ctx context.Context, invoiceID id.ID) ([]*Adjustment, error) {
	return s.adjustments.ListByInvoice(ctx, invoiceID)
}

// ApproveAdjustment moves a pending adjustment to approved.
func (s *Service) ApproveAdjustment(ctx context.Context, adjID id.ID) (*Adjustment, reconcile.Result, error) {
	return s.transition(ctx, adjID, "", func(ctx context.Context, a *Adjustment, m *reconcile.Machine) reconcile.Result {
		return m.Approve()
	})
}

// TakeAdjustment draws the increase from the line's batch, raises the line
// quantity and closes the adjustment, all in one transaction.
func (s *Service) TakeAdjustment(ctx context.Context, adjID id.ID) (*Adjustment, reconcile.Result, error) {
	return s.transition(ctx, adjID, audit.ActionTake, func(ctx context.Context, a *Adjustment, m *reconcile.Machine) reconcile.Result {
		snap := reconcile.Snapshot{BatchNo: a.BatchNo, ItemName: a.ItemName}
		b, err := s.stock.GetBatch(ctx, stock.BatchKey{ItemID: a.ItemID, BatchNo: a.BatchNo, LocationID: a.LocationID})
		switch {
		case err == nil:
			snap.Available = b.Quantity
		case !apperror.IsNotFound(err):
			return reconcile.Result{From: m.State, To: m.State, Err: err}
		}
		return m.Take(ctx, snap, s.executor(a, entity.RecordTypeExpense))
	})
}

// ReturnAdjustment puts the decrease back into the line's batch and lowers
// the line quantity.
func (s *Service) ReturnAdjustment(ctx context.Context, adjID id.ID) (*Adjustment, reconcile.Result, error) {
	return s.transition(ctx, adjID, audit.ActionReturn, func(ctx context.Context, a *Adjustment, m *reconcile.Machine) reconcile.Result {
		return m.Return(ctx, s.executor(a, entity.RecordTypeReceipt))
	})
}

type step func(ctx context.Context, a *Adjustment, m *reconcile.Machine) reconcile.Result

// transition runs one machine step under the adjustment lock. A failed step
// rolls the transaction back; the stored state is unchanged.
func (s *Service) transition(ctx context.Context, adjID id.ID, action string, fn step) (*Adjustment, reconcile.Result, error) {
	var (
		a   *Adjustment
		res reconcile.Result
	)
	err := lock.WithLock(ctx, s.locker, lock.Key("adjustment", adjID), lockTTL, func(ctx context.Context) error {
		return s.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
			var err error
			a, err = s.adjustments.GetForUpdate(ctx, adjID)
			if err != nil {
				return err
			}

			m := a.machine()
			res = fn(ctx, a, m)
			if res.Err != nil {
				return res.Err
			}

			a.State = m.State
			a.UpdatedAt = s.now().UTC()
			if err := s.adjustments.Update(ctx, a); err != nil {
				return fmt.Errorf("update adjustment: %w", err)
			}

			if action == "" {
				return nil
			}
			return s.audit.Record(ctx, audit.Entry{
				EntityType: "invoice_adjustment",
				EntityID:   a.ID,
				Action:     action,
				Changes: map[string]any{
					"invoice_id":   a.InvoiceID.String(),
					"batch_no":     a.BatchNo,
					"original_qty": a.OriginalQty,
					"new_qty":      a.NewQty,
					"from":         string(res.From),
					"to":           string(res.To),
				},
			})
		})
	})
	if err != nil {
		return a, res, lockError(err, "adjustment")
	}

	logger.Info(ctx, "invoice adjustment "+string(res.To),
		"adjustment_id", a.ID, "from", res.From, "batch_no", a.BatchNo, "delta", a.Delta())
	return a, res, nil
}

// executor moves qty units for the adjustment and rewrites the invoice line.
func (s *Service) executor(a *Adjustment, rt entity.RecordType) reconcile.Executor {
	return func(ctx context.Context, qty int64) error {
		inv, err := s.Get(ctx, a.InvoiceID)
		if err != nil {
			return err
		}
		line, ok := inv.Lines.Find(a.LineID)
		if !ok {
			return apperror.NewNotFound("invoice line", a.LineID.String())
		}

		m := entity.StockMovement{
			MovementBase: entity.NewMovementBase(a.ID, AdjustmentRecorderType, 1, s.now().UTC(), rt),
			ItemID:       a.ItemID,
			ItemName:     a.ItemName,
			BatchNo:      a.BatchNo,
			LocationID:   a.LocationID,
			Quantity:     qty,
			Rate:         line.Rate,
		}
		m.RecorderNumber = inv.Number
		if err := s.stock.RecordMovements(ctx, []entity.StockMovement{m}); err != nil {
			return err
		}

		line.Quantity = a.NewQty
		line.Recalculate()
		inv.SetLines(inv.Lines)

		if err := s.Repo.SaveLines(ctx, inv.ID, inv.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return s.SaveHeader(ctx, inv)
	}
}
