package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_KeyValueFields(t *testing.T) {
	core, logs := observer.New(LevelDebug)
	logger := FromZap(zap.New(core)).With("component", "waiver")

	logger.Info("settled league", "league_id", "l1", "results", 2, "err", errors.New("boom"), "dangling")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["component"] != "waiver" || fields["league_id"] != "l1" || fields["results"] != int64(2) {
		t.Fatalf("unexpected fields: %v", fields)
	}
	if fields["err"] != "boom" {
		t.Fatalf("expected error field, got %v", fields["err"])
	}
	if _, ok := fields["dangling"]; !ok {
		t.Fatalf("expected dangling key to be kept: %v", fields)
	}
}

func TestLogger_ContextAddsTraceIDs(t *testing.T) {
	core, logs := observer.New(LevelInfo)
	logger := FromZap(zap.New(core))

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), spanCtx)

	logger.InfoContext(ctx, "finalized")
	logger.DebugContext(ctx, "filtered out")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["trace_id"] != traceID.String() || fields["span_id"] != spanID.String() {
		t.Fatalf("unexpected trace fields: %v", fields)
	}
}

func TestNew_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Level: LevelInfo, Format: FormatJSON, Output: &buf})

	logger.Info("draft completed", "league_id", "l9")

	out := buf.String()
	if !strings.Contains(out, `"msg":"draft completed"`) || !strings.Contains(out, `"league_id":"l9"`) {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{"debug": LevelDebug, "": LevelInfo, "WARNING": LevelWarn, "error": LevelError}
	for raw, want := range tests {
		got, err := ParseLevel(raw)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", raw, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestNilLoggerFallsBackToDefault(t *testing.T) {
	var logger *Logger
	logger.Info("no panic")
	if logger.With("k", "v") == nil {
		t.Fatalf("expected nop logger")
	}
}

func TestSetMirror_ReceivesEnabledRecords(t *testing.T) {
	type mirrored struct {
		level Level
		msg   string
		args  []any
	}
	var got []mirrored
	SetMirror(func(_ context.Context, level Level, msg string, args ...any) {
		got = append(got, mirrored{level: level, msg: msg, args: args})
	})
	t.Cleanup(func() { SetMirror(nil) })

	core, _ := observer.New(LevelInfo)
	logger := FromZap(zap.New(core))
	logger.Debug("filtered by level")
	logger.WarnContext(context.Background(), "waiver settlement failed", "league_id", "l1")

	if len(got) != 1 {
		t.Fatalf("expected 1 mirrored record, got %d", len(got))
	}
	if got[0].level != LevelWarn || got[0].msg != "waiver settlement failed" {
		t.Fatalf("unexpected mirrored record: %+v", got[0])
	}
	if len(got[0].args) != 2 || got[0].args[1] != "l1" {
		t.Fatalf("unexpected mirrored args: %v", got[0].args)
	}

	SetMirror(nil)
	logger.Info("not mirrored")
	if len(got) != 1 {
		t.Fatalf("mirror must stop after SetMirror(nil)")
	}
}
