// Package observability holds the structured logger, request tracing and the
// Prometheus collectors shared by the salesquery binaries.
package observability

import (
	"context"
	"io"
	"log/slog"

	"github.com/salesquery/salesquery/internal/config"
)

type traceIDContextKey struct{}

// NewLogger returns a text or JSON logger tagged with the service and profile.
// A nil writer discards output.
func NewLogger(cfg config.Config, w io.Writer) *slog.Logger {
	if w == nil {
		w = io.Discard
	}
	opts := &slog.HandlerOptions{Level: cfg.Observability.LogLevel}

	var handler slog.Handler = slog.NewTextHandler(w, opts)
	if cfg.Observability.JSON() {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler).With(
		slog.String("service", cfg.Service.Name),
		slog.String("profile", string(cfg.Profile)),
	)
}

func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDContextKey{}, traceID)
}

// TraceIDFromContext returns "" outside a traced request.
func TraceIDFromContext(ctx context.Context) string {
	traceID, _ := ctx.Value(traceIDContextKey{}).(string)
	return traceID
}
