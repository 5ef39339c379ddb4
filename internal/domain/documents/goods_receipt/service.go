package goods_receipt

import (
	"context"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/id"
	"pharmacy/internal/core/numerator"
	"pharmacy/internal/core/tx"
	"pharmacy/internal/domain"
	"pharmacy/internal/domain/documents"
	"pharmacy/internal/domain/posting"
	"pharmacy/pkg/logger"
)

// Prefix of GRN numbers.
const Prefix = "GRN"

// OrderReceiver closes the purchase order a receipt fulfils.
type OrderReceiver interface {
	MarkReceived(ctx context.Context, orderID, vendorID, locationID id.ID) error
}

// Service provides business operations for goods receipts.
type Service struct {
	documents.Base[*GoodsReceipt]
	orders OrderReceiver
}

// NewService creates a new goods receipt service. orders may be nil when
// receipts never reference purchase orders.
func NewService(repo Repository, engine *posting.Engine, gen numerator.Generator, txm tx.Manager, orders OrderReceiver) *Service {
	return &Service{
		Base:   documents.NewBase[*GoodsReceipt](repo, gen, txm, engine, Prefix, "goods receipt"),
		orders: orders,
	}
}

// Create stores and posts a receipt. Batches are opened or topped up and the
// referenced purchase order is marked received in the same transaction.
func (s *Service) Create(ctx context.Context, doc *GoodsReceipt) error {
	var after []posting.SaveFunc
	if doc.PurchaseOrderID != nil {
		if s.orders == nil {
			return apperror.NewValidation("purchase orders are not available").WithDetail("field", "purchaseOrderId")
		}
		orderID := *doc.PurchaseOrderID
		after = append(after, func(ctx context.Context) error {
			return s.orders.MarkReceived(ctx, orderID, doc.VendorID, doc.LocationID)
		})
	}

	if err := s.CreateAndPost(ctx, doc, after...); err != nil {
		return err
	}

	logger.Info(ctx, "goods receipt created",
		"id", doc.ID,
		"number", doc.Number,
		"vendor_id", doc.VendorID,
		"lines", len(doc.Lines),
		"total", doc.Total.StringFixed(2),
	)
	return nil
}

// GetByID retrieves a goods receipt with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*GoodsReceipt, error) {
	return s.Get(ctx, docID)
}

// Cancel unposts a receipt. It fails when stock of its batches was already
// issued.
func (s *Service) Cancel(ctx context.Context, docID id.ID) (*GoodsReceipt, error) {
	return s.Unpost(ctx, docID)
}

// ListReceipts retrieves goods receipts with filtering.
func (s *Service) ListReceipts(ctx context.Context, filter documents.ListFilter) (domain.ListResult[*GoodsReceipt], error) {
	return s.List(ctx, filter)
}
