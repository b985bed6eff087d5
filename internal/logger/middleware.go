package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the per-request correlation id
const RequestIDHeader = "X-Request-ID"

// GinMiddleware logs one line per request with its method, path, status,
// latency and request id. A request id supplied by the client is reused.
func GinMiddleware(l *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		switch {
		case status >= 500:
			l.Error("%s %s %d %s request_id=%s errors=%q", c.Request.Method, path, status, latency, requestID, c.Errors.String())
		case status >= 400:
			l.Warning("%s %s %d %s request_id=%s", c.Request.Method, path, status, latency, requestID)
		default:
			l.Info("%s %s %d %s request_id=%s", c.Request.Method, path, status, latency, requestID)
		}
	}
}
