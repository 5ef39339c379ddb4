package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/id"
	"pharmacy/internal/domain"
	"pharmacy/internal/domain/documents"
	"pharmacy/internal/infrastructure/http/v1/dto"
)

// DocumentHandler serves create, get and list of one document type.
// Stock-moving documents are posted by their service on create.
type DocumentHandler[T any, Body any] struct {
	*BaseHandler
	entityName string

	create func(ctx context.Context, doc T) error
	get    func(ctx context.Context, docID id.ID) (T, error)
	list   func(ctx context.Context, f documents.ListFilter) (domain.ListResult[T], error)
	cancel func(ctx context.Context, docID id.ID) (T, error)
	mapDoc func(body Body) T
}

// DocumentHandlerConfig wires a document service into the handler.
type DocumentHandlerConfig[T any, Body any] struct {
	EntityName string
	Create     func(ctx context.Context, doc T) error
	Get        func(ctx context.Context, docID id.ID) (T, error)
	List       func(ctx context.Context, f documents.ListFilter) (domain.ListResult[T], error)
	// Cancel reverses a posted document. Optional.
	Cancel  func(ctx context.Context, docID id.ID) (T, error)
	MapBody func(body Body) T
}

// NewDocumentHandler creates a document handler.
func NewDocumentHandler[T any, Body any](base *BaseHandler, cfg DocumentHandlerConfig[T, Body]) *DocumentHandler[T, Body] {
	return &DocumentHandler[T, Body]{
		BaseHandler: base,
		entityName:  cfg.EntityName,
		create:      cfg.Create,
		get:         cfg.Get,
		list:        cfg.List,
		cancel:      cfg.Cancel,
		mapDoc:      cfg.MapBody,
	}
}

// List handles GET on the document collection.
//
// Query: search (by number), dateFrom, dateTo, counterpartyId, locationId,
// status, posted, kind, orderBy, limit, offset.
func (h *DocumentHandler[T, Body]) List(c *gin.Context) {
	var q dto.DocumentListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	f, err := q.ToListFilter()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id in filter").WithDetail("error", err.Error()))
		return
	}

	result, err := h.list(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	List(c, result.Items, result.TotalCount, result.Limit, result.Offset)
}

// Get handles GET on one document with its lines.
func (h *DocumentHandler[T, Body]) Get(c *gin.Context) {
	docID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	doc, err := h.get(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// Create handles POST of a new document.
func (h *DocumentHandler[T, Body]) Create(c *gin.Context) {
	var body Body
	if !h.BindJSON(c, &body) {
		return
	}
	doc := h.mapDoc(body)
	if err := h.create(c.Request.Context(), doc); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, doc)
}

// Cancel handles POST on /:id/cancel. The document's movements are reversed
// and it is left unposted.
func (h *DocumentHandler[T, Body]) Cancel(c *gin.Context) {
	if h.cancel == nil {
		h.Error(c, apperror.NewValidation(h.entityName+" cannot be cancelled"))
		return
	}
	docID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	doc, err := h.cancel(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}
