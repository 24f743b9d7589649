package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTestTracer(t *testing.T) (*tracetest.SpanRecorder, *OTelEmitter) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := trace.NewTracerProvider(trace.WithSpanProcessor(sr))
	return sr, NewOTelEmitter(tp.Tracer("test"))
}

func TestOTelEmitterEmitRecordsSpan(t *testing.T) {
	sr, e := newTestTracer(t)

	e.Emit(Event{RunID: "run-1", StepID: "step-1", Msg: "step.ran", Meta: map[string]any{"attempt": 2}})

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("len(spans) = %d, want 1", len(spans))
	}
	if spans[0].Name() != "step.ran" {
		t.Fatalf("span name = %q, want step.ran", spans[0].Name())
	}
}

func TestOTelEmitterEmitBatchRecordsEachEvent(t *testing.T) {
	sr, e := newTestTracer(t)

	err := e.EmitBatch(context.Background(), []Event{{Msg: "a"}, {Msg: "b"}})
	if err != nil {
		t.Fatalf("EmitBatch: %v", err)
	}
	if len(sr.Ended()) != 2 {
		t.Fatalf("len(spans) = %d, want 2", len(sr.Ended()))
	}
}

func TestOTelEmitterAnnotatesErrorStatus(t *testing.T) {
	sr, e := newTestTracer(t)

	e.Emit(Event{Msg: "step.failed", Meta: map[string]any{"error": "boom"}})

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("len(spans) = %d, want 1", len(spans))
	}
	if spans[0].Status().Description != "boom" {
		t.Fatalf("status description = %q, want boom", spans[0].Status().Description)
	}
}
