package telemetry

import (
	"context"
	"log/slog"
)

// SlogEmitter implements Emitter over a structured log/slog.Logger. Unlike
// the teacher's text/JSON LogEmitter, structured logging is handled by the
// slog.Handler the caller configures (text, JSON, or otherwise).
type SlogEmitter struct {
	logger *slog.Logger
}

// NewSlogEmitter wraps logger. A nil logger falls back to slog.Default().
func NewSlogEmitter(logger *slog.Logger) *SlogEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogEmitter{logger: logger}
}

func (s *SlogEmitter) Emit(event Event) {
	attrs := []any{"run_id", event.RunID}
	if event.StepID != "" {
		attrs = append(attrs, "step_id", event.StepID)
	}
	for k, v := range event.Meta {
		attrs = append(attrs, k, v)
	}
	s.logger.Info(event.Msg, attrs...)
}

func (s *SlogEmitter) EmitBatch(_ context.Context, events []Event) error {
	for _, e := range events {
		s.Emit(e)
	}
	return nil
}

// Flush is a no-op: slog writes synchronously through its handler.
func (s *SlogEmitter) Flush(context.Context) error { return nil }
