package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader carries the request id in and out
	RequestIDHeader = "X-Request-ID"
	// ContextKey is the gin context key holding the request-scoped logger
	ContextKey = "logger"
)

// Middleware tags each request with an id and logs it once it completes
func Middleware(l *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)

		reqLog := l.WithRequest(requestID)
		c.Set(ContextKey, reqLog)

		c.Next()

		status := c.Writer.Status()
		kv := []interface{}{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			kv = append(kv, "errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			reqLog.Error("request failed", kv...)
		case status >= 400:
			reqLog.Warn("request rejected", kv...)
		default:
			reqLog.Info("request served", kv...)
		}
	}
}

// FromContext returns the request-scoped logger, or fallback when the
// middleware did not run
func FromContext(c *gin.Context, fallback *Logger) *Logger {
	if v, ok := c.Get(ContextKey); ok {
		if l, ok := v.(*Logger); ok {
			return l
		}
	}
	return fallback
}
