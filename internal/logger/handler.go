// Package logger decorates slog handlers with request-scoped attributes.
package logger

import (
	"context"
	"log/slog"

	"bizassist/internal/middleware"
)

// CorrelationHandler adds the context's correlation id to every record, so
// HTTP handlers and queue consumers log under the same id without passing
// it explicitly.
type CorrelationHandler struct {
	next slog.Handler
}

func NewCorrelationHandler(next slog.Handler) *CorrelationHandler {
	return &CorrelationHandler{next: next}
}

func (h *CorrelationHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle stamps the correlation id, when present, onto the record before
// delegating. Records logged outside a request or consumer context pass
// through untouched.
func (h *CorrelationHandler) Handle(ctx context.Context, r slog.Record) error {
	if id, ok := middleware.CorrelationFromContext(ctx); ok {
		r.AddAttrs(slog.String("correlation_id", id))
	}
	return h.next.Handle(ctx, r)
}

func (h *CorrelationHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CorrelationHandler{next: h.next.WithAttrs(attrs)}
}

func (h *CorrelationHandler) WithGroup(name string) slog.Handler {
	return &CorrelationHandler{next: h.next.WithGroup(name)}
}
