package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pharmacy/internal/core/apperror"
	"pharmacy/pkg/logger"
)

// ErrorHandler renders the last error of the request as JSON. Internal
// causes are logged and hidden from the client.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		status := http.StatusInternalServerError
		var body gin.H
		if appErr, ok := apperror.AsAppError(err); ok {
			if appErr.Err != nil {
				logger.Error(c.Request.Context(), "request error", "code", appErr.Code, "cause", appErr.Err)
			}
			status = appErr.HTTPStatus
			body = gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
				"details": appErr.Details,
			}
		} else {
			logger.Error(c.Request.Context(), "unhandled error", "error", err)
			body = gin.H{
				"code":    apperror.CodeInternal,
				"message": "Internal server error",
				"details": map[string]any{"request_id": c.GetString("request_id")},
			}
		}

		failIdempotency(c, status, body)
		c.JSON(status, body)
	}
}
