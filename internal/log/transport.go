package log

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// ContextKey type for context keys
type ContextKey string

const (
	// LoggerContextKey is the context key for the logger
	LoggerContextKey ContextKey = "logger"
)

// WithLogger returns a context carrying the logger.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext extracts a logger from the context
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	// Return default logger if not found
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// Transport is an http.RoundTripper that logs every outgoing request
// with its method, path, status and duration.
type Transport struct {
	Base   http.RoundTripper
	Logger *Logger
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	logger := t.Logger
	if logger == nil {
		logger = FromContext(req.Context())
	}

	start := time.Now()
	resp, err := base.RoundTrip(req)
	elapsed := time.Since(start)

	if err != nil {
		logger.ErrorContext(req.Context(), "HTTP request failed",
			FieldMethod, req.Method,
			FieldPath, req.URL.Path,
			FieldDuration, elapsed.Milliseconds(),
			FieldError, err.Error(),
		)
		return nil, err
	}

	logger.DebugContext(req.Context(), "HTTP request completed",
		FieldMethod, req.Method,
		FieldPath, req.URL.Path,
		FieldStatusCode, resp.StatusCode,
		FieldDuration, elapsed.Milliseconds(),
		FieldSuccess, resp.StatusCode < 400,
	)
	return resp, nil
}
