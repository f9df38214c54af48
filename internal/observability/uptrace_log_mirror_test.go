package observability

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/riskibarqy/castaway-league/internal/platform/logging"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/embedded"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordingOTelLogger struct {
	embedded.Logger

	mu       sync.Mutex
	minLevel otellog.Severity
	records  []otellog.Record
}

func (l *recordingOTelLogger) Emit(_ context.Context, record otellog.Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, record.Clone())
}

func (l *recordingOTelLogger) Enabled(_ context.Context, param otellog.EnabledParameters) bool {
	return param.Severity >= l.minLevel
}

func TestIsIdleRun(t *testing.T) {
	if !isIdleRun("waiver run finished", []any{"units", 0, "settled", 0}) {
		t.Fatalf("expected empty waiver run to be idle")
	}
	if isIdleRun("waiver run finished", []any{"units", 3, "settled", 3}) {
		t.Fatalf("did not expect a waiver run with units to be idle")
	}
	if !isIdleRun("auto-draft run finished", []any{"leagues", 0}) {
		t.Fatalf("expected empty auto-draft run to be idle")
	}
	if isIdleRun("waiver settlement completed", []any{"units", 0}) {
		t.Fatalf("did not expect other messages to be idle")
	}
}

func TestBuildOTelLogAttributes(t *testing.T) {
	attrs := buildOTelLogAttributes([]any{"league_id", "l1", "claims", 2, "payload"})
	if len(attrs) != 3 {
		t.Fatalf("expected 3 attributes, got %d", len(attrs))
	}
	if attrs[0].Key != "league_id" || attrs[0].Value.AsString() != "l1" {
		t.Fatalf("unexpected league_id attribute")
	}
	if attrs[1].Key != "claims" || attrs[1].Value.AsInt64() != 2 {
		t.Fatalf("unexpected claims attribute")
	}
	if attrs[2].Key != "payload" || attrs[2].Value.Kind() != otellog.KindEmpty {
		t.Fatalf("unexpected payload attribute")
	}
}

func TestToOTelLogValue(t *testing.T) {
	m := toOTelLogValue(map[string]any{"claims": 1, "episode_id": "e1"}, 0)
	if m.Kind() != otellog.KindMap || len(m.AsMap()) != 2 {
		t.Fatalf("expected 2 item map, got %s", m.Kind())
	}

	s := toOTelLogValue([]string{"Z", "W"}, 0)
	if s.Kind() != otellog.KindSlice || len(s.AsSlice()) != 2 || s.AsSlice()[1].AsString() != "W" {
		t.Fatalf("unexpected slice value: %v", s)
	}

	if v := toOTelLogValue(errors.New("boom"), 0); v.AsString() != "boom" {
		t.Fatalf("expected error text, got %v", v)
	}

	var missing *int
	if v := toOTelLogValue(missing, 0); v.Kind() != otellog.KindEmpty {
		t.Fatalf("expected nil pointer to be empty, got %s", v.Kind())
	}
}

func TestLogMirror_EmitsThroughLogger(t *testing.T) {
	otelLogger := &recordingOTelLogger{minLevel: otellog.SeverityInfo}
	logging.SetMirror(newLogMirror(otelLogger))
	t.Cleanup(func() { logging.SetMirror(nil) })

	core, _ := observer.New(logging.LevelDebug)
	logger := logging.FromZap(zap.New(core))

	logger.Debug("below otel level")
	logger.Info("waiver run finished", "units", 0, "settled", 0)
	logger.ErrorContext(context.Background(), "waiver settlement failed", "league_id", "l1", "episode_id", "e2")

	otelLogger.mu.Lock()
	defer otelLogger.mu.Unlock()
	if len(otelLogger.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(otelLogger.records))
	}

	record := otelLogger.records[0]
	if record.Severity() != otellog.SeverityError || record.SeverityText() != "ERROR" {
		t.Fatalf("unexpected severity: %v %q", record.Severity(), record.SeverityText())
	}
	if record.EventName() != "waiver settlement failed" || record.Body().AsString() != "waiver settlement failed" {
		t.Fatalf("unexpected event: %q", record.EventName())
	}

	attrs := map[string]string{}
	record.WalkAttributes(func(kv otellog.KeyValue) bool {
		attrs[kv.Key] = kv.Value.AsString()
		return true
	})
	if attrs["league_id"] != "l1" || attrs["episode_id"] != "e2" {
		t.Fatalf("unexpected attributes: %v", attrs)
	}
}
