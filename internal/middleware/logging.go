// Package middleware holds the gin middleware shared by every route.
package middleware

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/postboard/internal/apperr"
	"github.com/postboard/internal/observability"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// RequestID echoes a valid incoming X-Request-ID or generates one, and stores
// it on both the gin and the request context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(observability.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// RequestLogger writes one structured line per finished request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.String("route", c.FullPath()),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
		}
		if uid, ok := UserID(c); ok {
			attrs = append(attrs, slog.Uint64("user_id", uint64(uid)))
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("errors", c.Errors.String()))
		}

		logger := observability.FromContext(c.Request.Context())
		switch {
		case status >= 500:
			logger.Error("request completed", attrs...)
		case status >= 400:
			logger.Warn("request completed", attrs...)
		default:
			logger.Info("request completed", attrs...)
		}
	}
}

// Metrics records request latency by route template.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		observability.ObserveRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), start)
	}
}

// Recovery turns panics into the standard INTERNAL_ERROR envelope.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		observability.FromContext(c.Request.Context()).Error("panic recovered", slog.Any("panic", recovered))
		abortWithError(c, apperr.Internal(nil))
	})
}

func abortWithError(c *gin.Context, err error) {
	appErr := apperr.From(err)
	c.AbortWithStatusJSON(appErr.Status, apperr.Payload(appErr))
}
