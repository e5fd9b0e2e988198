package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stoalearn/stoa-backend/internal/platform/ctxutil"
	"github.com/stoalearn/stoa-backend/internal/platform/logger"
)

// RequestLogger writes one line per request after the handler chain
// finishes. The level follows the response class, and identity fields
// pass through the logger's scrubbing like any other kv pair.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if log == nil {
			return
		}

		status := c.Writer.Status()
		fields := requestFields(c, status, time.Since(start))

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}

// requestFields flattens one request into log kv pairs. The route
// template keeps path cardinality down; the raw URL appears only when
// gin matched no route.
func requestFields(c *gin.Context, status int, took time.Duration) []interface{} {
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	fields := []interface{}{
		"method", strings.ToUpper(c.Request.Method),
		"path", path,
		"status", status,
		"duration_ms", took.Milliseconds(),
	}
	if td := ctxutil.GetTraceData(c.Request.Context()); td != nil {
		if td.TraceID != "" {
			fields = append(fields, "trace_id", td.TraceID)
		}
		if td.RequestID != "" {
			fields = append(fields, "request_id", td.RequestID)
		}
	}
	if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil {
		if rd.UserID != uuid.Nil {
			fields = append(fields, "user_id", rd.UserID.String())
		}
		if rd.SessionID != uuid.Nil {
			fields = append(fields, "session_id", rd.SessionID.String())
		}
	}
	if len(c.Errors) > 0 {
		fields = append(fields, "errors", c.Errors.String())
	}
	return fields
}
