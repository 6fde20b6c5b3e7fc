package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/examiner-backend/internal/pkg/ctxutil"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"

	maxCorrelationIDLen = 128
)

// AttachTraceContext stores trace and request ids on the request context and
// echoes them as response headers. A missing trace id is taken from the
// active span.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := clientID(c.GetHeader(headerRequestID))
		if reqID == "" {
			reqID = uuid.NewString()
		}
		traceID := clientID(c.GetHeader(headerTraceID))
		if traceID == "" {
			traceID = spanTraceID(c)
		}

		ctx := ctxutil.WithTraceData(c.Request.Context(), &ctxutil.TraceData{
			TraceID:   traceID,
			RequestID: reqID,
		})
		trace.SpanFromContext(ctx).SetAttributes(attribute.String("request.id", reqID))
		c.Request = c.Request.WithContext(ctx)

		h := c.Writer.Header()
		h.Set(headerTraceID, traceID)
		h.Set(headerRequestID, reqID)
		c.Next()
	}
}

// clientID returns "" for empty values and for values that are too long or
// span lines.
func clientID(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || len(v) > maxCorrelationIDLen || strings.ContainsAny(v, "\r\n") {
		return ""
	}
	return v
}

func spanTraceID(c *gin.Context) string {
	if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return uuid.NewString()
}
