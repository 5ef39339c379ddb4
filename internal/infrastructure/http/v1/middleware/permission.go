package middleware

import (
	"github.com/gin-gonic/gin"

	"pharmacy/internal/core/apperror"
	appctx "pharmacy/internal/core/context"
)

// RequirePermission checks that the user holds the permission.
// Admins hold every permission.
func RequirePermission(permission string) gin.HandlerFunc {
	return RequireAnyPermission(permission)
}

// RequireAnyPermission checks that the user holds at least one permission.
func RequireAnyPermission(permissions ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		user := appctx.GetUser(ctx)
		if user == nil {
			abortUnauthorized(c, "authentication required")
			return
		}
		if user.IsAdmin {
			c.Next()
			return
		}
		for _, p := range permissions {
			if appctx.HasPermission(ctx, p) {
				c.Next()
				return
			}
		}

		detail := any(permissions)
		if len(permissions) == 1 {
			detail = permissions[0]
		}
		_ = c.Error(apperror.NewForbidden("insufficient permissions").WithDetail("required_permission", detail))
		c.Abort()
	}
}
