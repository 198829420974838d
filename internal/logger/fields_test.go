package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStringFields(t *testing.T) {
	fields := StringFields(
		StringField{Key: "  provider  ", Value: "  openai  "},
		StringField{Key: "ignored", Value: "   "},
		StringField{Key: "   ", Value: "empty key"},
	)

	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}

	if fields[0].Key != "provider" || fields[0].String != "openai" {
		t.Fatalf("unexpected provider field: %+v", fields[0])
	}

	if empty := StringFields(); len(empty) != 0 {
		t.Fatalf("expected empty fields, got %d", len(empty))
	}
}

func TestProviderFields(t *testing.T) {
	fields := ProviderFields("  local  ", "hashing-256")
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}

	if fields[0].Key != FieldProvider || fields[0].String != "local" {
		t.Fatalf("unexpected provider field: %+v", fields[0])
	}

	if fields[1].Key != FieldModel || fields[1].String != "hashing-256" {
		t.Fatalf("unexpected model field: %+v", fields[1])
	}

	if empty := ProviderFields("", ""); len(empty) != 0 {
		t.Fatalf("expected empty fields, got %d", len(empty))
	}
}

func TestWithHelpers(t *testing.T) {
	tests := []struct {
		name   string
		enrich func(*zap.Logger) *zap.Logger
		expect map[string]any
	}{
		{
			name:   "plain fields",
			enrich: func(l *zap.Logger) *zap.Logger { return WithFields(l, zap.String("foo", "bar")) },
			expect: map[string]any{"foo": "bar"},
		},
		{
			name:   "provider and model",
			enrich: func(l *zap.Logger) *zap.Logger { return WithProvider(l, "gemini", "gemini-2.5-flash") },
			expect: map[string]any{FieldProvider: "gemini", FieldModel: "gemini-2.5-flash"},
		},
		{
			name:   "session",
			enrich: func(l *zap.Logger) *zap.Logger { return WithSession(l, "abc") },
			expect: map[string]any{FieldSession: "abc"},
		},
		{
			name:   "empty session adds nothing",
			enrich: func(l *zap.Logger) *zap.Logger { return WithSession(l, "") },
			expect: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, observed := observer.New(zapcore.InfoLevel)
			tt.enrich(zap.New(core)).Info("test log")

			entries := observed.All()
			if len(entries) != 1 {
				t.Fatalf("expected 1 entry, got %d", len(entries))
			}

			ctx := entries[0].ContextMap()
			if len(ctx) != len(tt.expect) {
				t.Fatalf("unexpected fields: %v", ctx)
			}
			for k, v := range tt.expect {
				if ctx[k] != v {
					t.Fatalf("expected %s=%v, got %v", k, v, ctx[k])
				}
			}
		})
	}

	// A nil logger falls back to a no-op logger.
	WithProvider(nil, "gemini", "x").Info("another log")
	WithSession(nil, "abc").Info("another log")
}
