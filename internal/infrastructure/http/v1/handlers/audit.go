package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/id"
	"pharmacy/internal/infrastructure/storage/postgres"
)

// AuditHistory reads the audit trail of a single entity.
type AuditHistory interface {
	History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]postgres.AuditEntry, error)
}

var auditedTypes = map[string]bool{
	"batch":              true,
	"invoice":            true,
	"invoice_adjustment": true,
}

// AuditHandler exposes the audit trail.
type AuditHandler struct {
	*BaseHandler
	history AuditHistory
}

// NewAuditHandler creates the audit handler.
func NewAuditHandler(base *BaseHandler, history AuditHistory) *AuditHandler {
	return &AuditHandler{BaseHandler: base, history: history}
}

// History handles GET /audit/:type/:id?limit=
func (h *AuditHandler) History(c *gin.Context) {
	entityType := c.Param("type")
	if !auditedTypes[entityType] {
		h.Error(c, apperror.NewValidation("unknown audited entity type").WithDetail("type", entityType))
		return
	}
	entityID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	entries, err := h.history.History(c.Request.Context(), entityType, entityID, h.ParseIntQuery(c, "limit", 50))
	if err != nil {
		h.Error(c, err)
		return
	}
	if entries == nil {
		entries = []postgres.AuditEntry{}
	}
	h.OK(c, gin.H{"items": entries})
}
