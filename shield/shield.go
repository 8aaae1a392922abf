// Package shield provides the HTTP middleware stack for the splitter API:
// security headers, per-request trace IDs with structured logging, panic
// recovery, and per-IP rate limiting.
//
// Usage:
//
//	r := chi.NewRouter()
//	for _, mw := range shield.APIStack() {
//	    r.Use(mw)
//	}
//	r.Use(shield.NewRateLimiter(rules).Middleware)
package shield

import (
	"context"
	"log/slog"
	"net/http"
)

type contextKey string

const (
	// TraceIDKey is the context key for the per-request trace ID.
	TraceIDKey contextKey = "shield_trace_id"

	// LoggerKey is the context key for the per-request structured logger.
	LoggerKey contextKey = "shield_logger"
)

// APIStack returns the standard middleware stack for the JSON API, ordered
// Recover → SecurityHeaders → TraceID. Rate limiting is separate because it
// carries state.
func APIStack() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		Recover,
		SecurityHeaders(DefaultHeaders()),
		TraceID,
	}
}

// GetTraceID retrieves the trace ID from the request context, or "".
func GetTraceID(ctx context.Context) string {
	v, _ := ctx.Value(TraceIDKey).(string)
	return v
}

// GetLogger retrieves the per-request logger from the context.
// Returns slog.Default() if no logger was set.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(LoggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
