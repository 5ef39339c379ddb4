package purchase

import (
	"context"
	"fmt"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/id"
	"pharmacy/internal/core/numerator"
	"pharmacy/internal/core/tx"
	"pharmacy/internal/domain"
	"pharmacy/internal/domain/documents"
	"pharmacy/pkg/logger"
)

// Prefixes of document numbers.
const (
	RequestPrefix = "PR"
	OrderPrefix   = "PO"
)

// RequestRepository stores purchase requests.
type RequestRepository = documents.Repository[*Request]

// OrderRepository stores purchase orders.
type OrderRepository = documents.Repository[*Order]

// Service manages purchase requests and orders.
type Service struct {
	requests documents.Base[*Request]
	orders   documents.Base[*Order]
	tx       tx.Manager
}

// NewService creates the purchase service.
func NewService(requests RequestRepository, orders OrderRepository, gen numerator.Generator, txm tx.Manager) *Service {
	s := &Service{
		requests: documents.NewBase[*Request](requests, gen, txm, nil, RequestPrefix, "purchase request"),
		orders:   documents.NewBase[*Order](orders, gen, txm, nil, OrderPrefix, "purchase order"),
	}
	s.requests.Strategy = numerator.StrategyCached
	s.orders.Strategy = numerator.StrategyCached
	s.tx = s.orders.TxManager
	return s
}

func (s *Service) CreateRequest(ctx context.Context, r *Request) error {
	r.Status = StatusDraft
	return s.requests.CreateDraft(ctx, r)
}

func (s *Service) GetRequest(ctx context.Context, docID id.ID) (*Request, error) {
	return s.requests.Get(ctx, docID)
}

func (s *Service) ListRequests(ctx context.Context, f documents.ListFilter) (domain.ListResult[*Request], error) {
	return s.requests.List(ctx, f)
}

// ApproveRequest moves a draft request to approved.
func (s *Service) ApproveRequest(ctx context.Context, docID id.ID) (*Request, error) {
	var r *Request
	err := s.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		r, err = s.requests.Repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if err := r.Approve(); err != nil {
			return err
		}
		return s.requests.SaveHeader(ctx, r)
	})
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "purchase request approved", "id", r.ID, "number", r.Number)
	return r, nil
}

// ConvertRequest creates a draft order for vendorID from an approved request
// and marks the request ordered.
func (s *Service) ConvertRequest(ctx context.Context, docID, vendorID id.ID) (*Order, error) {
	if id.IsNil(vendorID) {
		return nil, apperror.NewValidation("vendor is required").WithDetail("field", "vendorId")
	}

	var order *Order
	err := s.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		r, err := s.requests.Get(ctx, docID)
		if err != nil {
			return err
		}
		if r.Status != StatusApproved {
			return apperror.NewInvalidTransition("purchase request", r.Status, "convert")
		}

		order = OrderFromRequest(r, vendorID)
		if err := s.orders.CreateDraft(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		if err := r.MarkOrdered(order.ID); err != nil {
			return err
		}
		return s.requests.SaveHeader(ctx, r)
	})
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "purchase request converted", "request_id", docID, "order_number", order.Number)
	return order, nil
}

func (s *Service) CreateOrder(ctx context.Context, o *Order) error {
	o.Status = StatusDraft
	return s.orders.CreateDraft(ctx, o)
}

func (s *Service) GetOrder(ctx context.Context, docID id.ID) (*Order, error) {
	return s.orders.Get(ctx, docID)
}

func (s *Service) ListOrders(ctx context.Context, f documents.ListFilter) (domain.ListResult[*Order], error) {
	return s.orders.List(ctx, f)
}

// ApproveOrder moves a draft order to approved.
func (s *Service) ApproveOrder(ctx context.Context, docID id.ID) (*Order, error) {
	var o *Order
	err := s.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		o, err = s.orders.Repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if err := o.Approve(); err != nil {
			return err
		}
		return s.orders.SaveHeader(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "purchase order approved", "id", o.ID, "number", o.Number)
	return o, nil
}

// MarkReceived closes an order for goods arriving from vendorID into
// locationID. It runs inside the goods receipt transaction.
func (s *Service) MarkReceived(ctx context.Context, orderID, vendorID, locationID id.ID) error {
	o, err := s.orders.Repo.GetForUpdate(ctx, orderID)
	if err != nil {
		return err
	}
	if o.VendorID != vendorID {
		return apperror.NewValidation("purchase order belongs to another vendor").
			WithDetail("field", "purchaseOrderId")
	}
	if o.LocationID != locationID {
		return apperror.NewValidation("purchase order is for another location").
			WithDetail("field", "purchaseOrderId")
	}
	if err := o.MarkReceived(); err != nil {
		return err
	}
	if err := s.orders.SaveHeader(ctx, o); err != nil {
		return err
	}
	logger.Info(ctx, "purchase order received", "id", o.ID, "number", o.Number)
	return nil
}
