package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/id"
	"pharmacy/internal/domain"
	"pharmacy/internal/domain/catalogs/vendor"
	"pharmacy/internal/domain/registers/stock"
	"pharmacy/internal/infrastructure/export"
	"pharmacy/internal/infrastructure/http/v1/dto"
)

// StockService is the stock register as seen by the API.
type StockService interface {
	List(ctx context.Context, filter stock.ListFilter) (domain.ListResult[*stock.Batch], error)
	Adjust(ctx context.Context, req stock.AdjustRequest) (*stock.Batch, error)
	AddBatchStock(ctx context.Context, req stock.AddBatchRequest) (*stock.Batch, error)
	Ledger(ctx context.Context, filter stock.LedgerFilter) ([]stock.LedgerEntry, error)
	SupplierLedger(ctx context.Context, vendorID id.ID, from, to time.Time) (stock.SupplierLedger, error)
}

// VendorReader resolves the vendor shown on a supplier statement.
type VendorReader interface {
	GetByID(ctx context.Context, vendorID id.ID) (*vendor.Vendor, error)
}

// StockHandler serves stock management and the ledgers.
type StockHandler struct {
	*BaseHandler
	stock   StockService
	vendors VendorReader
	now     func() time.Time
}

// NewStockHandler creates the stock handler.
func NewStockHandler(base *BaseHandler, s StockService, vendors VendorReader) *StockHandler {
	return &StockHandler{BaseHandler: base, stock: s, vendors: vendors, now: time.Now}
}

// List handles GET /stocks
//
// Query: itemId, locationId, search, expiringWithinDays, lowStock,
// includeEmpty, limit, offset.
func (h *StockHandler) List(c *gin.Context) {
	var q dto.StockListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	f, err := q.ToFilter()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id in filter").WithDetail("error", err.Error()))
		return
	}
	result, err := h.stock.List(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	List(c, result.Items, result.TotalCount, result.Limit, result.Offset)
}

// Adjust handles POST /stocks/adjust
func (h *StockHandler) Adjust(c *gin.Context) {
	var req dto.StockAdjustRequest
	if !h.BindJSON(c, &req) {
		return
	}
	b, err := h.stock.Adjust(c.Request.Context(), req.ToAdjust())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, b)
}

// AddBatchStock handles POST /stocks/add-batch-stock
func (h *StockHandler) AddBatchStock(c *gin.Context) {
	var req dto.AddBatchStockRequest
	if !h.BindJSON(c, &req) {
		return
	}
	b, err := h.stock.AddBatchStock(c.Request.Context(), req.ToAddBatch())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, b)
}

// Ledger handles GET /stocks/ledger
func (h *StockHandler) Ledger(c *gin.Context) {
	entries, ok := h.ledger(c)
	if !ok {
		return
	}
	List(c, entries, int64(len(entries)), 0, 0)
}

// ExportLedger handles GET /stocks/ledger/export
func (h *StockHandler) ExportLedger(c *gin.Context) {
	entries, ok := h.ledger(c)
	if !ok {
		return
	}
	data, err := export.LedgerWorkbook(entries)
	if err != nil {
		h.Error(c, apperror.NewInternal(err))
		return
	}
	h.attachment(c, fmt.Sprintf("stock-ledger-%s.xlsx", h.now().Format("20060102")), data)
}

func (h *StockHandler) ledger(c *gin.Context) ([]stock.LedgerEntry, bool) {
	var q dto.LedgerQuery
	if !h.BindQuery(c, &q) {
		return nil, false
	}
	f, err := q.ToFilter()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id in filter").WithDetail("error", err.Error()))
		return nil, false
	}
	entries, err := h.stock.Ledger(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return nil, false
	}
	return entries, true
}

// SupplierLedger handles GET /stocks/supplier-ledger
func (h *StockHandler) SupplierLedger(c *gin.Context) {
	l, _, ok := h.supplierLedger(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, l)
}

// ExportSupplierLedger handles GET /stocks/supplier-ledger/export
func (h *StockHandler) ExportSupplierLedger(c *gin.Context) {
	l, v, ok := h.supplierLedger(c)
	if !ok {
		return
	}
	data, err := export.SupplierLedgerWorkbook(v.Name, l)
	if err != nil {
		h.Error(c, apperror.NewInternal(err))
		return
	}
	h.attachment(c, fmt.Sprintf("supplier-ledger-%s.xlsx", v.Code), data)
}

func (h *StockHandler) supplierLedger(c *gin.Context) (stock.SupplierLedger, *vendor.Vendor, bool) {
	var q dto.SupplierLedgerQuery
	if !h.BindQuery(c, &q) {
		return stock.SupplierLedger{}, nil, false
	}
	vendorID, err := id.Parse(q.VendorID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid vendorId"))
		return stock.SupplierLedger{}, nil, false
	}

	ctx := c.Request.Context()
	v, err := h.vendors.GetByID(ctx, vendorID)
	if err != nil {
		h.Error(c, err)
		return stock.SupplierLedger{}, nil, false
	}
	from, to := q.Period(h.now().UTC())
	l, err := h.stock.SupplierLedger(ctx, vendorID, from, to)
	if err != nil {
		h.Error(c, err)
		return stock.SupplierLedger{}, nil, false
	}
	return l, v, true
}

func (h *StockHandler) attachment(c *gin.Context, filename string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, export.ContentType, data)
}
