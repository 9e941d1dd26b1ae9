package logger

import (
	"context"
	"errors"
	"testing"

	golog "github.com/MyCarrier-DevOps/goLibMyCarrier/logger"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
)

// mockLogger implements golog.Logger for testing.
type mockLogger struct {
	level      string
	lastMsg    string
	lastFields map[string]interface{}
	lastErr    error
	withFields map[string]interface{}
}

func (m *mockLogger) record(level, msg string, fields map[string]interface{}) {
	m.level = level
	m.lastMsg = msg
	m.lastFields = fields
}

func (m *mockLogger) Info(_ context.Context, msg string, fields map[string]interface{}) {
	m.record("info", msg, fields)
}

func (m *mockLogger) Debug(_ context.Context, msg string, fields map[string]interface{}) {
	m.record("debug", msg, fields)
}

func (m *mockLogger) Warn(_ context.Context, msg string, fields map[string]interface{}) {
	m.record("warn", msg, fields)
}

func (m *mockLogger) Warning(_ context.Context, msg string, fields map[string]interface{}) {
	m.record("warn", msg, fields)
}

func (m *mockLogger) Error(_ context.Context, msg string, err error, fields map[string]interface{}) {
	m.record("error", msg, fields)
	m.lastErr = err
}

func (m *mockLogger) WithFields(fields map[string]interface{}) golog.Logger {
	m.withFields = fields
	return m
}

func TestZapAdapter_Levels(t *testing.T) {
	tests := []struct {
		name      string
		log       func(a *ZapAdapter, ctx context.Context, fields map[string]any)
		wantLevel string
	}{
		{
			name:      "info",
			log:       func(a *ZapAdapter, ctx context.Context, f map[string]any) { a.Info(ctx, "msg", f) },
			wantLevel: "info",
		},
		{
			name:      "debug",
			log:       func(a *ZapAdapter, ctx context.Context, f map[string]any) { a.Debug(ctx, "msg", f) },
			wantLevel: "debug",
		},
		{
			name:      "warn",
			log:       func(a *ZapAdapter, ctx context.Context, f map[string]any) { a.Warn(ctx, "msg", f) },
			wantLevel: "warn",
		},
		{
			name:      "error",
			log:       func(a *ZapAdapter, ctx context.Context, f map[string]any) { a.Error(ctx, "msg", nil, f) },
			wantLevel: "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockLogger{}
			fields := map[string]any{"branch": "main"}

			tt.log(NewZapAdapter(mock), context.Background(), fields)

			assert.Equal(t, tt.wantLevel, mock.level)
			assert.Equal(t, "msg", mock.lastMsg)
			assert.Equal(t, fields, mock.lastFields)
		})
	}
}

func TestZapAdapter_ErrorPassesError(t *testing.T) {
	mock := &mockLogger{}
	testErr := errors.New("boom")

	NewZapAdapter(mock).Error(context.Background(), "failed", testErr, nil)

	assert.Equal(t, testErr, mock.lastErr)
	assert.Nil(t, mock.lastFields)
}

func TestZapAdapter_AddsTraceFields(t *testing.T) {
	mock := &mockLogger{}
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x01, 0x02},
		SpanID:     trace.SpanID{0x03},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	fields := map[string]any{"branch": "main"}

	NewZapAdapter(mock).Info(ctx, "msg", fields)

	assert.Equal(t, "main", mock.lastFields["branch"])
	assert.Equal(t, sc.TraceID().String(), mock.lastFields["trace_id"])
	assert.Equal(t, sc.SpanID().String(), mock.lastFields["span_id"])
	assert.NotContains(t, fields, "trace_id", "caller fields are not modified")
}

func TestZapAdapter_With(t *testing.T) {
	mock := &mockLogger{}
	adapter := NewZapAdapter(mock)

	assert.Same(t, adapter, adapter.With(nil))

	scoped := adapter.With(map[string]any{"project_dir": "/repo"})
	assert.NotSame(t, adapter, scoped)
	assert.Equal(t, map[string]interface{}{"project_dir": "/repo"}, mock.withFields)
}

func TestNopLogger(t *testing.T) {
	var log NopLogger
	assert.NotPanics(t, func() {
		log.Info(context.Background(), "msg", nil)
		log.Debug(context.Background(), "msg", nil)
		log.Warn(context.Background(), "msg", nil)
		log.Error(context.Background(), "msg", errors.New("x"), nil)
	})
}
