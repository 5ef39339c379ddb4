// Package middleware provides the gin middleware of the pharmacy API.
package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"pharmacy/internal/core/apperror"
	"pharmacy/pkg/logger"
)

// Recovery turns a panic into an internal error. The stack is logged and
// never sent to the client.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(c.Request.Context(), "panic recovered",
					"error", r,
					"stack", string(debug.Stack()),
				)
				_ = c.Error(
					apperror.NewInternal(fmt.Errorf("panic: %v", r)).
						WithDetail("request_id", c.GetString("request_id")),
				)
				c.Abort()
			}
		}()
		c.Next()
	}
}
