package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"pharmacy/internal/core/id"
	"pharmacy/internal/domain/documents/invoice"
	"pharmacy/internal/domain/reconcile"
	"pharmacy/internal/infrastructure/http/v1/dto"
)

// BillingHandler serves invoices, refunds and invoice line adjustments.
type BillingHandler struct {
	*BaseHandler
	service *invoice.Service

	Invoices *DocumentHandler[*invoice.Invoice, dto.InvoiceBody]
}

// NewBillingHandler creates the billing handler.
func NewBillingHandler(base *BaseHandler, service *invoice.Service) *BillingHandler {
	return &BillingHandler{
		BaseHandler: base,
		service:     service,
		Invoices: NewDocumentHandler(base, DocumentHandlerConfig[*invoice.Invoice, dto.InvoiceBody]{
			EntityName: "invoice",
			Create:     service.Create,
			Get:        service.GetByID,
			List:       service.ListInvoices,
			MapBody:    dto.InvoiceBody.ToInvoice,
		}),
	}
}

// AvailableBatches handles GET /billing/available-batches/:item and
// returns sellable batches, earliest expiry first.
func (h *BillingHandler) AvailableBatches(c *gin.Context) {
	itemID, ok := h.ParamID(c, "item")
	if !ok {
		return
	}
	batches, err := h.service.AvailableBatches(c.Request.Context(), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}
	List(c, batches, int64(len(batches)), 0, 0)
}

// ReturnPayment handles PUT /billing/return-payment/:id. A zero amount
// refunds everything still refundable.
func (h *BillingHandler) ReturnPayment(c *gin.Context) {
	docID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var body dto.ReturnPaymentBody
	if !h.BindJSON(c, &body) {
		return
	}
	inv, err := h.service.ReturnPayment(c.Request.Context(), docID, body.Amount, body.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, inv)
}

// RequestAdjustment handles POST /billing/invoices/:id/adjustments
func (h *BillingHandler) RequestAdjustment(c *gin.Context) {
	invoiceID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var body dto.AdjustmentBody
	if !h.BindJSON(c, &body) {
		return
	}
	a, err := h.service.RequestAdjustment(c.Request.Context(), invoiceID, body.LineID, body.NewQty, body.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.AdjustmentResponse{Adjustment: a, To: string(a.State)})
}

// ListAdjustments handles GET /billing/invoices/:id/adjustments
func (h *BillingHandler) ListAdjustments(c *gin.Context) {
	invoiceID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	items, err := h.service.ListAdjustments(c.Request.Context(), invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}
	List(c, items, int64(len(items)), 0, 0)
}

// ApproveAdjustment handles POST /billing/adjustments/:adjId/approve
func (h *BillingHandler) ApproveAdjustment(c *gin.Context) {
	h.transition(c, h.service.ApproveAdjustment)
}

// TakeAdjustment handles POST /billing/adjustments/:adjId/take
func (h *BillingHandler) TakeAdjustment(c *gin.Context) {
	h.transition(c, h.service.TakeAdjustment)
}

// ReturnAdjustment handles POST /billing/adjustments/:adjId/return
func (h *BillingHandler) ReturnAdjustment(c *gin.Context) {
	h.transition(c, h.service.ReturnAdjustment)
}

type adjustmentStep func(ctx context.Context, adjID id.ID) (*invoice.Adjustment, reconcile.Result, error)

func (h *BillingHandler) transition(c *gin.Context, step adjustmentStep) {
	adjID, ok := h.ParamID(c, "adjId")
	if !ok {
		return
	}
	a, res, err := step(c.Request.Context(), adjID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.AdjustmentResponse{Adjustment: a, From: string(res.From), To: string(res.To)})
}
