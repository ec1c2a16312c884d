// Package middleware carries the per-request correlation id from the HTTP
// edge through to the queue consumers, so one ingestion can be followed
// across both halves of the system.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type contextKey int

// CorrelationKey holds the request's correlation id in the context.
const CorrelationKey contextKey = iota

const correlationHeader = "X-Correlation-ID"

// CorrelationID tags every request with an id, reusing the caller's
// X-Correlation-ID header when present. The id is echoed back in the
// response headers and logged on entry and exit.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(correlationHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(correlationHeader, id)

		start := time.Now()
		slog.Info("request received", "method", r.Method, "path", r.URL.Path, "correlation_id", id)

		next.ServeHTTP(w, r.WithContext(WithCorrelationID(r.Context(), id)))

		slog.Info("request completed", "method", r.Method, "path", r.URL.Path, "correlation_id", id, "duration", time.Since(start))
	})
}

// CorrelationFromContext reports the correlation id, if one was set.
func CorrelationFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(CorrelationKey).(string)
	return id, ok && id != ""
}

// GetCorrelationID returns the correlation id, or "unknown" when the
// context never passed through the middleware.
func GetCorrelationID(ctx context.Context) string {
	if id, ok := CorrelationFromContext(ctx); ok {
		return id
	}
	return "unknown"
}

// WithCorrelationID stamps an id onto a context that did not come from an
// HTTP request, such as a queue message carrying the producer's id.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationKey, id)
}
