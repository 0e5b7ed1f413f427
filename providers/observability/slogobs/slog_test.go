package slogobs

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/leofalp/chatlog/providers/observability"
)

func newTestObserver(buf *bytes.Buffer, level slog.Level) *Observer {
	return New(WithOutput(buf), WithLevel(level), WithFormat(FormatCompact), WithColors(false))
}

func TestObserver_ImplementsProvider(t *testing.T) {
	var _ observability.Provider = (*Observer)(nil)
}

func TestObserver_StartSpan(t *testing.T) {
	var buf bytes.Buffer
	obs := newTestObserver(&buf, slog.LevelDebug)

	ctx, span := obs.StartSpan(context.Background(), "history.export",
		observability.String(observability.AttrExportFormat, "json"),
	)
	if span == nil {
		t.Fatal("StartSpan returned nil span")
	}
	if observability.SpanFromContext(ctx) != span {
		t.Error("span not attached to returned context")
	}

	output := buf.String()
	if !strings.Contains(output, "history.export") {
		t.Errorf("expected span name in output, got: %s", output)
	}
	if !strings.Contains(output, "span.start") {
		t.Errorf("expected span.start event in output, got: %s", output)
	}
}

func TestObserver_SpanEndCarriesAttributes(t *testing.T) {
	var buf bytes.Buffer
	obs := newTestObserver(&buf, slog.LevelDebug)

	_, span := obs.StartSpan(context.Background(), "history.load")
	span.SetAttributes(observability.Int(observability.AttrMessagesCount, 7))
	span.SetStatus(observability.StatusOK, "loaded")
	buf.Reset()

	span.End()

	output := buf.String()
	for _, want := range []string{"span.end", "duration", observability.AttrMessagesCount, `"status":"ok"`, "loaded"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestObserver_RecordError(t *testing.T) {
	var buf bytes.Buffer
	obs := newTestObserver(&buf, slog.LevelError)

	_, span := obs.StartSpan(context.Background(), "history.load")
	span.RecordError(nil)
	if buf.Len() != 0 {
		t.Fatalf("nil error should not log, got: %s", buf.String())
	}

	span.RecordError(errors.New("connection refused"))
	output := buf.String()
	if !strings.Contains(output, "ERROR") || !strings.Contains(output, "connection refused") {
		t.Errorf("expected error record, got: %s", output)
	}
}

func TestObserver_CounterAccumulates(t *testing.T) {
	var buf bytes.Buffer
	obs := newTestObserver(&buf, slog.LevelDebug)
	ctx := context.Background()

	obs.Counter(observability.MetricSkippedToolCalls).Add(ctx, 2)
	obs.Counter(observability.MetricSkippedToolCalls).Add(ctx, 3)

	if got := obs.CounterValue(observability.MetricSkippedToolCalls); got != 5 {
		t.Errorf("CounterValue = %d, want 5", got)
	}
	if got := obs.CounterValue("never.used"); got != 0 {
		t.Errorf("CounterValue for unknown counter = %d, want 0", got)
	}
	if !strings.Contains(buf.String(), `"value":5`) {
		t.Errorf("expected running total in output, got: %s", buf.String())
	}
}

func TestObserver_Histogram(t *testing.T) {
	var buf bytes.Buffer
	obs := newTestObserver(&buf, slog.LevelDebug)

	obs.Histogram("history.export.bytes").Record(context.Background(), 1024)

	output := buf.String()
	if !strings.Contains(output, "histogram") || !strings.Contains(output, "1024") {
		t.Errorf("expected histogram record, got: %s", output)
	}
}

func TestObserver_LevelFiltering(t *testing.T) {
	tests := []struct {
		name    string
		level   slog.Level
		log     func(o *Observer)
		visible bool
	}{
		{"trace hidden at debug", slog.LevelDebug, func(o *Observer) { o.Trace(context.Background(), "t") }, false},
		{"trace shown at trace", LevelTrace, func(o *Observer) { o.Trace(context.Background(), "t") }, true},
		{"debug hidden at info", slog.LevelInfo, func(o *Observer) { o.Debug(context.Background(), "d") }, false},
		{"info shown at info", slog.LevelInfo, func(o *Observer) { o.Info(context.Background(), "i") }, true},
		{"warn shown at info", slog.LevelInfo, func(o *Observer) { o.Warn(context.Background(), "w") }, true},
		{"error shown at warn", slog.LevelWarn, func(o *Observer) { o.Error(context.Background(), "e") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			obs := newTestObserver(&buf, tt.level)
			tt.log(obs)
			if got := buf.Len() > 0; got != tt.visible {
				t.Errorf("visible = %v, want %v (output: %q)", got, tt.visible, buf.String())
			}
		})
	}
}

func TestObserver_WithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	obs := New(WithLogger(logger), WithFormat(FormatJSON))

	if obs.Logger() != logger {
		t.Fatal("WithLogger should take precedence over handler options")
	}
	obs.Info(context.Background(), "hello", observability.String("k", "v"))
	if !strings.Contains(buf.String(), "k=v") {
		t.Errorf("expected text handler output, got: %s", buf.String())
	}
}
