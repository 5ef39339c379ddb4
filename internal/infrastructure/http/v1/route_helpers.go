// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"pharmacy/internal/domain/auth"
	"pharmacy/internal/infrastructure/http/v1/middleware"
)

// CatalogRouteHandler is implemented by every catalog handler.
type CatalogRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	SetDeletionMark(c *gin.Context)
}

// DocumentRouteHandler is implemented by every document handler.
type DocumentRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
}

// RegisterCatalogRoutes registers the CRUD routes of a catalog. Reads need
// catalog:read, changes need catalog:write.
//
// Usage:
//
//	RegisterCatalogRoutes(api.Group("/items"), itemHandler)
func RegisterCatalogRoutes(group *gin.RouterGroup, handler CatalogRouteHandler) {
	read := middleware.RequirePermission(auth.PermCatalogRead)
	write := middleware.RequirePermission(auth.PermCatalogWrite)

	group.GET("", read, handler.List)
	group.GET("/", read, handler.List)
	group.POST("", write, handler.Create)
	group.GET("/:id", read, handler.Get)
	group.PUT("/:id", write, handler.Update)
	group.DELETE("/:id", write, handler.Delete)
	group.POST("/:id/deletion-mark", write, handler.SetDeletionMark)
}

// RegisterDocumentRoutes registers list, create and get of a document
// under the collection path.
func RegisterDocumentRoutes(group *gin.RouterGroup, handler DocumentRouteHandler, readPerm, writePerm string) {
	read := middleware.RequirePermission(readPerm)
	write := middleware.RequirePermission(writePerm)

	group.GET("", read, handler.List)
	group.GET("/", read, handler.List)
	group.POST("", write, handler.Create)
	group.POST("/", write, handler.Create)
	group.GET("/:id", read, handler.Get)
}
