package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func newTestSlogEmitter(buf *bytes.Buffer) *SlogEmitter {
	logger := slog.New(slog.NewTextHandler(buf, nil))
	return NewSlogEmitter(logger)
}

func TestSlogEmitterWritesRunAndStepIDs(t *testing.T) {
	var buf bytes.Buffer
	e := newTestSlogEmitter(&buf)

	e.Emit(Event{RunID: "run-1", StepID: "step-1", Msg: "step.ran", Meta: map[string]any{"op": "StepRun"}})

	out := buf.String()
	if !strings.Contains(out, "run_id=run-1") || !strings.Contains(out, "step_id=step-1") {
		t.Fatalf("log output missing run/step ids: %s", out)
	}
}

func TestSlogEmitterOmitsEmptyStepID(t *testing.T) {
	var buf bytes.Buffer
	e := newTestSlogEmitter(&buf)

	e.Emit(Event{RunID: "run-1", Msg: "cycle.start"})

	if strings.Contains(buf.String(), "step_id=") {
		t.Fatalf("expected no step_id attribute for a run-level event: %s", buf.String())
	}
}

func TestSlogEmitterEmitBatchPreservesOrder(t *testing.T) {
	var buf bytes.Buffer
	e := newTestSlogEmitter(&buf)

	err := e.EmitBatch(context.Background(), []Event{{Msg: "first"}, {Msg: "second"}})
	if err != nil {
		t.Fatalf("EmitBatch: %v", err)
	}

	out := buf.String()
	if strings.Index(out, "first") > strings.Index(out, "second") {
		t.Fatalf("expected first before second in: %s", out)
	}
}

func TestNewSlogEmitterNilLoggerFallsBackToDefault(t *testing.T) {
	e := NewSlogEmitter(nil)
	if e.logger == nil {
		t.Fatal("expected a non-nil default logger")
	}
}
