package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	appctx "pharmacy/internal/core/context"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderTraceID   = "X-Trace-ID"
)

var tracer = otel.Tracer("pharmacy/http")

// Trace starts a server span for the request and stores the trace and
// request ids in the context. An incoming X-Trace-ID wins when no tracer
// provider is installed.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx, span := tracer.Start(c.Request.Context(), c.Request.Method+" "+c.FullPath(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Request.Method),
				attribute.String("http.route", c.FullPath()),
				attribute.String("request.id", requestID),
			),
		)
		defer span.End()

		tc := &appctx.TraceContext{RequestID: requestID}
		if sc := span.SpanContext(); sc.IsValid() {
			tc.TraceID = sc.TraceID().String()
			tc.SpanID = sc.SpanID().String()
		} else {
			tc.TraceID = c.GetHeader(HeaderTraceID)
			if tc.TraceID == "" {
				tc.TraceID = uuid.New().String()
			}
			tc.SpanID = uuid.New().String()[:16]
		}

		c.Request = c.Request.WithContext(appctx.WithTrace(ctx, tc))
		c.Set("trace_id", tc.TraceID)
		c.Set("request_id", requestID)

		c.Header(HeaderRequestID, requestID)
		c.Header(HeaderTraceID, tc.TraceID)

		c.Next()

		span.SetAttributes(attribute.Int("http.status_code", c.Writer.Status()))
	}
}
