// Package observability provides structured logging and metrics.
package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gorm.io/gorm/logger"
)

// Logger is the process-wide structured logger. Replaced by NewLogger at startup.
var Logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

type contextKey string

const requestIDKey contextKey = "request_id"

// ParseLevel maps a textual level to slog, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds a JSON logger writing to w and installs it as the default.
func NewLogger(w io.Writer, level string) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	l := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
	Logger = l
	slog.SetDefault(l)
	return l
}

// WithRequestID stores the request id on ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID extracts the request id stored by WithRequestID.
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// FromContext returns Logger annotated with the request id, if any.
func FromContext(ctx context.Context) *slog.Logger {
	if id := RequestID(ctx); id != "" {
		return Logger.With(slog.String("request_id", id))
	}
	return Logger
}

type gormWriter struct {
	l *slog.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.l.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)), slog.String("component", "gorm"))
}

// GormLogger routes slow queries and errors from gorm into the slog logger.
func GormLogger(l *slog.Logger) logger.Interface {
	if l == nil {
		l = Logger
	}
	return logger.New(gormWriter{l: l}, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
