// Package logger provides adapters for the logging interface.
package logger

import (
	"context"

	golog "github.com/MyCarrier-DevOps/goLibMyCarrier/logger"
	"go.opentelemetry.io/otel/trace"
)

// ZapAdapter adapts the shared zap logger to the logging interfaces declared
// by the use cases and adapters. Entries logged inside a recording span carry
// trace_id and span_id fields.
type ZapAdapter struct {
	log golog.Logger
}

// NewZapAdapter creates a new ZapAdapter wrapping the given logger.
func NewZapAdapter(log golog.Logger) *ZapAdapter {
	return &ZapAdapter{log: log}
}

// With returns an adapter that adds fields to every entry.
func (a *ZapAdapter) With(fields map[string]any) *ZapAdapter {
	if len(fields) == 0 {
		return a
	}
	return &ZapAdapter{log: a.log.WithFields(fields)}
}

// Info logs an info message.
func (a *ZapAdapter) Info(ctx context.Context, msg string, fields map[string]any) {
	a.log.Info(ctx, msg, withTrace(ctx, fields))
}

// Debug logs a debug message.
func (a *ZapAdapter) Debug(ctx context.Context, msg string, fields map[string]any) {
	a.log.Debug(ctx, msg, withTrace(ctx, fields))
}

// Warn logs a warning message.
func (a *ZapAdapter) Warn(ctx context.Context, msg string, fields map[string]any) {
	a.log.Warn(ctx, msg, withTrace(ctx, fields))
}

// Error logs an error message.
func (a *ZapAdapter) Error(ctx context.Context, msg string, err error, fields map[string]any) {
	a.log.Error(ctx, msg, err, withTrace(ctx, fields))
}

// withTrace returns fields plus the span identifiers found in ctx.
// The caller's map is never modified.
func withTrace(ctx context.Context, fields map[string]any) map[string]any {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return fields
	}

	out := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		out[k] = v
	}
	out["trace_id"] = sc.TraceID().String()
	out["span_id"] = sc.SpanID().String()
	return out
}

// NopLogger discards every entry. Used before configuration is loaded and in tests.
type NopLogger struct{}

func (NopLogger) Info(context.Context, string, map[string]any)         {}
func (NopLogger) Debug(context.Context, string, map[string]any)        {}
func (NopLogger) Warn(context.Context, string, map[string]any)         {}
func (NopLogger) Error(context.Context, string, error, map[string]any) {}
