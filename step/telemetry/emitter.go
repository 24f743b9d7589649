// Package telemetry provides observability for a step execution engine:
// a pluggable Emitter interface plus slog, OpenTelemetry, and Prometheus
// backed implementations.
package telemetry

import "context"

// Emitter receives observability events from an execution cycle.
//
// Implementations must be non-blocking and safe for concurrent use: Emit
// can be called from the handler goroutine and the engine goroutine (which
// also runs checkpoint flushes) within the same cycle.
type Emitter interface {
	// Emit sends one observability event. It must not block or panic.
	Emit(event Event)

	// EmitBatch sends several events as one operation, preserving order.
	EmitBatch(ctx context.Context, events []Event) error

	// Flush blocks until all buffered events have been delivered, or ctx
	// is done.
	Flush(ctx context.Context) error
}
