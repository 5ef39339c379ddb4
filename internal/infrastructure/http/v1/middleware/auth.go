package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"pharmacy/internal/core/apperror"
	appctx "pharmacy/internal/core/context"
)

// TokenValidator checks an access token and returns the user it carries.
type TokenValidator interface {
	ValidateToken(tokenString string) (*appctx.UserContext, error)
}

// Auth requires a valid bearer token and puts the user into the context.
func Auth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			abortUnauthorized(c, "missing or malformed authorization header")
			return
		}

		user, err := validator.ValidateToken(token)
		if err != nil || user == nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		setUser(c, user)
		c.Next()
	}
}

// OptionalAuth sets the user when a valid token is present and lets the
// request through otherwise.
func OptionalAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if user, err := validator.ValidateToken(token); err == nil && user != nil {
				setUser(c, user)
			}
		}
		c.Next()
	}
}

// RequireRole lets through users having any of the roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if appctx.GetUser(ctx) == nil {
			abortUnauthorized(c, "authentication required")
			return
		}
		for _, r := range roles {
			if appctx.HasRole(ctx, r) {
				c.Next()
				return
			}
		}
		_ = c.Error(apperror.NewForbidden("insufficient permissions").WithDetail("required_roles", roles))
		c.Abort()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func setUser(c *gin.Context, user *appctx.UserContext) {
	c.Request = c.Request.WithContext(appctx.WithUser(c.Request.Context(), user))
	c.Set("user_id", user.UserID)
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
