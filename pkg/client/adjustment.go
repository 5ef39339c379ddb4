package client

import (
	"context"
	"net/http"

	"pharmacy/internal/core/id"
	"pharmacy/internal/domain/documents/invoice"
	"pharmacy/internal/domain/reconcile"
	"pharmacy/internal/infrastructure/http/v1/dto"
	"pharmacy/pkg/notify"
)

// LineEdit is a quantity change on a saved invoice line, tracked locally
// by a reconcile machine and mirrored on the server as an adjustment.
type LineEdit struct {
	Adjustment *invoice.Adjustment
	Machine    *reconcile.Machine
}

// AdjustmentFlow drives approve/take/return for edited invoice lines.
// Local state only advances when the server call succeeds.
type AdjustmentFlow struct {
	client   *Client
	notifier notify.Notifier
}

// NewAdjustmentFlow creates an adjustment flow.
func NewAdjustmentFlow(c *Client, n notify.Notifier) *AdjustmentFlow {
	if n == nil {
		n = notify.NewCenter()
	}
	return &AdjustmentFlow{client: c, notifier: n}
}

// Edit records a new quantity for an invoice line. The edit starts pending.
func (f *AdjustmentFlow) Edit(ctx context.Context, invoiceID, lineID id.ID, newQty int64, reason string) (*LineEdit, error) {
	var resp dto.AdjustmentResponse
	body := dto.AdjustmentBody{LineID: lineID, NewQty: newQty, Reason: reason}
	if err := f.client.do(ctx, http.MethodPost, "/billing/invoices/"+invoiceID.String()+"/adjustments", body, &resp); err != nil {
		notify.Error(ctx, f.notifier, ErrorMessage(err))
		return nil, err
	}
	a := resp.Adjustment
	return &LineEdit{
		Adjustment: a,
		Machine:    &reconcile.Machine{State: a.State, OriginalQty: a.OriginalQty, NewQty: a.NewQty},
	}, nil
}

// Approve moves a pending edit to approved.
func (f *AdjustmentFlow) Approve(ctx context.Context, e *LineEdit) reconcile.Result {
	res := e.Machine.Approve()
	if res.Err != nil {
		notify.Error(ctx, f.notifier, ErrorMessage(res.Err))
		return res
	}
	if err := f.step(ctx, e, "approve"); err != nil {
		e.Machine.State = res.From
		notify.Error(ctx, f.notifier, ErrorMessage(err))
		return reconcile.Result{From: res.From, To: res.From, Err: err}
	}
	notify.Success(ctx, f.notifier, "Adjustment approved")
	return res
}

// Take draws the extra quantity from the batch. snap is the batch as last
// fetched; the server re-checks under lock.
func (f *AdjustmentFlow) Take(ctx context.Context, e *LineEdit, snap reconcile.Snapshot) reconcile.Result {
	res := e.Machine.Take(ctx, snap, func(ctx context.Context, _ int64) error {
		return f.step(ctx, e, "take")
	})
	f.report(ctx, res, "Stock taken")
	return res
}

// Return gives the removed quantity back to the batch.
func (f *AdjustmentFlow) Return(ctx context.Context, e *LineEdit) reconcile.Result {
	res := e.Machine.Return(ctx, func(ctx context.Context, _ int64) error {
		return f.step(ctx, e, "return")
	})
	f.report(ctx, res, "Stock returned")
	return res
}

func (f *AdjustmentFlow) step(ctx context.Context, e *LineEdit, action string) error {
	var resp dto.AdjustmentResponse
	if err := f.client.do(ctx, http.MethodPost, "/billing/adjustments/"+e.Adjustment.ID.String()+"/"+action, nil, &resp); err != nil {
		return err
	}
	if resp.Adjustment != nil {
		e.Adjustment = resp.Adjustment
	}
	return nil
}

func (f *AdjustmentFlow) report(ctx context.Context, res reconcile.Result, success string) {
	if res.Err != nil {
		notify.Error(ctx, f.notifier, ErrorMessage(res.Err))
		return
	}
	notify.Success(ctx, f.notifier, success)
}
