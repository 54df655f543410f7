// Package logger builds the service's structured logger and carries it through contexts.
package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// New returns a JSON logger writing to w at the given level. Unknown levels fall back to info.
func New(level string, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stdout
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano
	return zerolog.New(w).Level(lvl).With().Timestamp().Str("service", "order-placement").Logger()
}

// WithContext stores l in ctx.
func WithContext(ctx context.Context, l zerolog.Logger) context.Context {
	return l.WithContext(ctx)
}

// enrichedKey marks the span whose ids the stored logger already carries.
type enrichedKey struct{}

// FromContext returns the logger stored in ctx, enriched with trace and span ids when a
// recording span is active. Without a stored logger it returns a disabled logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx)
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return l
	}
	if id, ok := ctx.Value(enrichedKey{}).(trace.SpanID); ok && id == sc.SpanID() {
		return l
	}
	enriched := l.With().
		Str("trace_id", sc.TraceID().String()).
		Str("span_id", sc.SpanID().String()).
		Logger()
	return &enriched
}

// With derives a logger from the one in ctx, adds fields and stores it back in ctx.
// Trace and span ids are added at most once per span.
func With(ctx context.Context, fields func(zerolog.Context) zerolog.Context) (context.Context, zerolog.Logger) {
	l := fields(FromContext(ctx).With()).Logger()
	ctx = l.WithContext(ctx)
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		ctx = context.WithValue(ctx, enrichedKey{}, sc.SpanID())
	}
	return ctx, l
}
