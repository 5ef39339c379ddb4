package handlers

import (
	"github.com/gin-gonic/gin"

	"pharmacy/internal/domain/catalogs/customer"
	"pharmacy/internal/infrastructure/http/v1/dto"
)

// CustomerHandler adds status changes to the customer catalog endpoints.
type CustomerHandler struct {
	*CatalogHandler[*customer.Customer, dto.CustomerRequest]
	service *customer.Service
}

// NewCustomerHandler creates the customer handler.
func NewCustomerHandler(base *BaseHandler, service *customer.Service) *CustomerHandler {
	return &CustomerHandler{
		CatalogHandler: NewCatalogHandler(base, CatalogHandlerConfig[*customer.Customer, dto.CustomerRequest]{
			Service:    service.CatalogService,
			EntityName: "customer",
			MapCreate:  dto.CustomerRequest.ToCustomer,
			MapUpdate:  dto.CustomerRequest.ApplyToCustomer,
		}),
		service: service,
	}
}

// SetStatus handles PUT /customers/:id/status
func (h *CustomerHandler) SetStatus(c *gin.Context) {
	customerID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.CustomerStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cust, err := h.service.SetStatus(c.Request.Context(), customerID, req.Status)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, cust)
}
