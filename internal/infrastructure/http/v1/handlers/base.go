// Package handlers provides the HTTP handlers of the pharmacy API.
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pharmacy/internal/core/apperror"
	appctx "pharmacy/internal/core/context"
	"pharmacy/internal/core/id"
	"pharmacy/internal/infrastructure/http/v1/dto"
)

// idempotencyCompleter is the part of the idempotency store a handler needs
// to save its successful response.
type idempotencyCompleter interface {
	CompleteKey(ctx context.Context, key string, statusCode int, contentType string, response any) error
}

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds and validates the JSON body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// BindQuery binds and validates query parameters.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid query parameters").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error registers the error on the gin context and aborts. The JSON body
// is written by middleware.ErrorHandler.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ParamID parses a path parameter as an id.
func (h *BaseHandler) ParamID(c *gin.Context, name string) (id.ID, bool) {
	v, err := id.Parse(c.Param(name))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format").WithDetail("param", name))
		return id.Nil(), false
	}
	return v, true
}

// ParseIntQuery parses integer query parameter with default value.
func (h *BaseHandler) ParseIntQuery(c *gin.Context, key string, defaultVal int) int {
	val := c.Query(key)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// GetUserID returns the id of the calling user.
func (h *BaseHandler) GetUserID(c *gin.Context) string {
	return appctx.GetUserID(c.Request.Context())
}

// CompleteIdempotency stores the response under the request's idempotency
// key so that a retry replays the same status, content type and body.
func (h *BaseHandler) CompleteIdempotency(c *gin.Context, statusCode int, contentType string, response any) {
	key := c.GetString("idempotency_key")
	if key == "" {
		return
	}
	if store, ok := c.Get("idempotency_store"); ok {
		if s, ok := store.(idempotencyCompleter); ok {
			_ = s.CompleteKey(c.Request.Context(), key, statusCode, contentType, response)
		}
	}
}

// Created sends 201 with the created resource.
func (h *BaseHandler) Created(c *gin.Context, data any) {
	h.CompleteIdempotency(c, http.StatusCreated, "application/json", data)
	c.JSON(http.StatusCreated, data)
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	h.CompleteIdempotency(c, http.StatusOK, "application/json", data)
	c.JSON(http.StatusOK, data)
}

// NoContent sends 204 response.
func (h *BaseHandler) NoContent(c *gin.Context) {
	h.CompleteIdempotency(c, http.StatusNoContent, "", nil)
	c.Status(http.StatusNoContent)
}

// Success sends success response.
func (h *BaseHandler) Success(c *gin.Context, message string) {
	response := dto.SuccessResponse{Success: true, Message: message}
	h.CompleteIdempotency(c, http.StatusOK, "application/json", response)
	c.JSON(http.StatusOK, response)
}

// List sends a page of results.
func List[T any](c *gin.Context, items []T, total int64, limit, offset int) {
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, dto.ListResponse{Items: items, TotalCount: total, Limit: limit, Offset: offset})
}
