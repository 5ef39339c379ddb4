package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"pharmacy/pkg/logger"
)

// Logger logs every request with its status and latency. Client errors are
// logged at warn, server errors at error.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		fields := []any{
			"method", c.Request.Method,
			"path", path,
			"query", query,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "error", c.Errors.Last().Error())
		}

		l := log.WithContext(c.Request.Context())
		switch {
		case status >= 500:
			l.Errorw("http request", fields...)
		case status >= 400:
			l.Warnw("http request", fields...)
		default:
			l.Infow("http request", fields...)
		}
	}
}
