package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"pharmacy/internal/core/id"
	"pharmacy/internal/domain/documents"
	"pharmacy/internal/domain/documents/invoice"
	"pharmacy/internal/domain/registers/stock"
	"pharmacy/internal/infrastructure/http/v1/dto"
	"pharmacy/pkg/notify"
)

// BillingFlow is the billing page: batch lookup, running totals and
// invoice submission.
type BillingFlow struct {
	client   *Client
	notifier notify.Notifier

	mu      sync.Mutex
	batches map[id.ID][]*stock.Batch
}

// NewBillingFlow creates a billing flow.
func NewBillingFlow(c *Client, n notify.Notifier) *BillingFlow {
	if n == nil {
		n = notify.NewCenter()
	}
	return &BillingFlow{client: c, notifier: n, batches: make(map[id.ID][]*stock.Batch)}
}

// AvailableBatches fetches sellable batches of an item and remembers them
// for the pre-submit check.
func (f *BillingFlow) AvailableBatches(ctx context.Context, itemID id.ID) ([]*stock.Batch, error) {
	var page listEnvelope[*stock.Batch]
	if err := f.client.do(ctx, http.MethodGet, "/billing/available-batches/"+itemID.String(), nil, &page); err != nil {
		notify.Error(ctx, f.notifier, ErrorMessage(err))
		return nil, err
	}
	f.mu.Lock()
	f.batches[itemID] = page.Items
	f.mu.Unlock()
	return page.Items, nil
}

// Totals computes the running totals shown under the line grid.
func (f *BillingFlow) Totals(body dto.InvoiceBody) documents.Amounts {
	return dto.ToLines(body.Lines).Totals()
}

// Submit checks every line against the cached batches and creates the
// invoice. Nothing is sent when a line exceeds its batch.
func (f *BillingFlow) Submit(ctx context.Context, body dto.InvoiceBody) (*invoice.Invoice, error) {
	if err := invoice.ValidateAgainstBatches(body.LocationID, dto.ToLines(body.Lines), f.snapshot()); err != nil {
		notify.Error(ctx, f.notifier, ErrorMessage(err))
		return nil, err
	}

	var inv invoice.Invoice
	err := f.client.do(ctx, http.MethodPost, "/billing/create-invoice", body, &inv,
		withHeader("X-Idempotency-Key", uuid.NewString()))
	if err != nil {
		notify.Error(ctx, f.notifier, ErrorMessage(err))
		return nil, err
	}

	f.mu.Lock()
	for _, l := range body.Lines {
		delete(f.batches, l.ItemID)
	}
	f.mu.Unlock()

	notify.Success(ctx, f.notifier, fmt.Sprintf("Invoice %s created", inv.Number))
	return &inv, nil
}

// ReturnPayment refunds amount (zero refunds everything refundable).
func (f *BillingFlow) ReturnPayment(ctx context.Context, invoiceID id.ID, body dto.ReturnPaymentBody) (*invoice.Invoice, error) {
	var inv invoice.Invoice
	if err := f.client.do(ctx, http.MethodPut, "/billing/return-payment/"+invoiceID.String(), body, &inv); err != nil {
		notify.Error(ctx, f.notifier, ErrorMessage(err))
		return nil, err
	}
	notify.Success(ctx, f.notifier, "Payment returned")
	return &inv, nil
}

func (f *BillingFlow) snapshot() []*stock.Batch {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*stock.Batch
	for _, bs := range f.batches {
		out = append(out, bs...)
	}
	return out
}
