package handlers

import (
	"github.com/gin-gonic/gin"

	"pharmacy/internal/domain/documents/purchase"
	"pharmacy/internal/infrastructure/http/v1/dto"
)

// PurchaseHandler serves purchase requests and orders.
type PurchaseHandler struct {
	*BaseHandler
	service *purchase.Service

	Requests *DocumentHandler[*purchase.Request, dto.PurchaseRequestBody]
	Orders   *DocumentHandler[*purchase.Order, dto.PurchaseOrderBody]
}

// NewPurchaseHandler creates the purchase handler.
func NewPurchaseHandler(base *BaseHandler, service *purchase.Service) *PurchaseHandler {
	return &PurchaseHandler{
		BaseHandler: base,
		service:     service,
		Requests: NewDocumentHandler(base, DocumentHandlerConfig[*purchase.Request, dto.PurchaseRequestBody]{
			EntityName: "purchase request",
			Create:     service.CreateRequest,
			Get:        service.GetRequest,
			List:       service.ListRequests,
			MapBody:    dto.PurchaseRequestBody.ToRequest,
		}),
		Orders: NewDocumentHandler(base, DocumentHandlerConfig[*purchase.Order, dto.PurchaseOrderBody]{
			EntityName: "purchase order",
			Create:     service.CreateOrder,
			Get:        service.GetOrder,
			List:       service.ListOrders,
			MapBody:    dto.PurchaseOrderBody.ToOrder,
		}),
	}
}

// ApproveRequest handles POST /purchase/pr/:id/approve
func (h *PurchaseHandler) ApproveRequest(c *gin.Context) {
	docID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	r, err := h.service.ApproveRequest(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, r)
}

// ConvertRequest handles POST /purchase/pr/:id/convert and returns the new order.
func (h *PurchaseHandler) ConvertRequest(c *gin.Context) {
	docID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var body dto.ConvertRequestBody
	if !h.BindJSON(c, &body) {
		return
	}
	order, err := h.service.ConvertRequest(c.Request.Context(), docID, body.VendorID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, order)
}

// ApproveOrder handles POST /purchase/po/:id/approve
func (h *PurchaseHandler) ApproveOrder(c *gin.Context) {
	docID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	o, err := h.service.ApproveOrder(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, o)
}
