package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/tutorstudio-backend/internal/platform/ctxutil"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"
)

// AttachTraceContext assigns trace and request ids and records which
// test, subject, level or fine-tune job the matched route addresses, so
// request logs and spans can be filtered by them.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := strings.TrimSpace(c.GetHeader(headerRequestID))
		if reqID == "" {
			reqID = uuid.New().String()
		}
		span := trace.SpanFromContext(c.Request.Context())
		traceID := strings.TrimSpace(c.GetHeader(headerTraceID))
		if traceID == "" && span.SpanContext().HasTraceID() {
			traceID = span.SpanContext().TraceID().String()
		}
		if traceID == "" {
			traceID = uuid.New().String()
		}

		td := &ctxutil.TraceData{
			TraceID:   traceID,
			RequestID: reqID,
			TestID:    c.Param("test_id"),
			SubjectID: c.Param("subject_id"),
			Level:     c.Param("level"),
			JobID:     c.Param("job_id"),
		}
		if span.IsRecording() {
			span.SetAttributes(scopeAttributes(td)...)
		}

		c.Request = c.Request.WithContext(ctxutil.WithTraceData(c.Request.Context(), td))
		c.Set("trace_id", traceID)
		c.Set("request_id", reqID)
		c.Writer.Header().Set(headerTraceID, traceID)
		c.Writer.Header().Set(headerRequestID, reqID)
		c.Next()
	}
}

func scopeAttributes(td *ctxutil.TraceData) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	fields := td.ScopeFields()
	for i := 0; i+1 < len(fields); i += 2 {
		attrs = append(attrs, attribute.String("tutor."+fields[i].(string), fields[i+1].(string)))
	}
	return attrs
}
