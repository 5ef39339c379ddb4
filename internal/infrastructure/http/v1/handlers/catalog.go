package handlers

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/entity"
	"pharmacy/internal/domain"
	domainFilter "pharmacy/internal/domain/filter"
	"pharmacy/internal/infrastructure/http/v1/dto"
)

// CatalogHandler serves the CRUD endpoints of one catalog.
type CatalogHandler[T entity.Validatable, Req any] struct {
	*BaseHandler
	service    *domain.CatalogService[T]
	entityName string

	mapCreate func(req Req) T
	mapUpdate func(req Req, existing T) T
}

// CatalogHandlerConfig configures the catalog handler.
type CatalogHandlerConfig[T entity.Validatable, Req any] struct {
	Service    *domain.CatalogService[T]
	EntityName string
	MapCreate  func(req Req) T
	MapUpdate  func(req Req, existing T) T
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler[T entity.Validatable, Req any](base *BaseHandler, cfg CatalogHandlerConfig[T, Req]) *CatalogHandler[T, Req] {
	return &CatalogHandler[T, Req]{
		BaseHandler: base,
		service:     cfg.Service,
		entityName:  cfg.EntityName,
		mapCreate:   cfg.MapCreate,
		mapUpdate:   cfg.MapUpdate,
	}
}

// List handles GET /{catalog}. limit=0 returns every record.
//
// Query: search, limit, offset, orderBy (name, -name, code...),
// includeDeleted, filter (JSON array of {field, operator, value}).
func (h *CatalogHandler[T, Req]) List(c *gin.Context) {
	filter := domain.DefaultListFilter()
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", filter.Limit)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "name")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

	if raw := c.Query("filter"); raw != "" {
		var adv []domainFilter.Item
		if err := json.Unmarshal([]byte(raw), &adv); err != nil {
			h.Error(c, apperror.NewValidation("invalid filter format (json expected)"))
			return
		}
		filter.AdvancedFilters = adv
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	List(c, result.Items, result.TotalCount, result.Limit, result.Offset)
}

// Get handles GET /{catalog}/:id
func (h *CatalogHandler[T, Req]) Get(c *gin.Context) {
	entityID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	e, err := h.service.GetByID(c.Request.Context(), entityID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, e)
}

// Create handles POST /{catalog}
func (h *CatalogHandler[T, Req]) Create(c *gin.Context) {
	var req Req
	if !h.BindJSON(c, &req) {
		return
	}
	e := h.mapCreate(req)
	if err := h.service.Create(c.Request.Context(), e); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, e)
}

// Update handles PUT /{catalog}/:id. A version in the body is checked
// against the stored one.
func (h *CatalogHandler[T, Req]) Update(c *gin.Context) {
	entityID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req Req
	if !h.BindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	existing, err := h.service.GetByID(ctx, entityID)
	if err != nil {
		h.Error(c, err)
		return
	}
	updated := h.mapUpdate(req, existing)
	if err := h.service.Update(ctx, updated); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, updated)
}

// Delete handles DELETE /{catalog}/:id by setting the deletion mark.
func (h *CatalogHandler[T, Req]) Delete(c *gin.Context) {
	entityID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), entityID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// SetDeletionMark handles POST /{catalog}/:id/deletion-mark
func (h *CatalogHandler[T, Req]) SetDeletionMark(c *gin.Context) {
	entityID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.SetDeletionMarkRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.service.SetDeletionMark(c.Request.Context(), entityID, req.Marked); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, h.entityName+" deletion mark updated")
}
