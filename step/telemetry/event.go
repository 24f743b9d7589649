package telemetry

// Event is one observability record emitted during a cycle.
type Event struct {
	// RunID identifies the run that produced this event.
	RunID string

	// StepID is the hashed step id, when the event concerns one step.
	// Empty for run-level events (cycle start, function-resolved, etc).
	StepID string

	// Msg is a short, stable, human-readable description, e.g.
	// "step.ran", "checkpoint.flush", "nondeterminism.nested_step".
	Msg string

	// Meta carries event-specific structured data. Common keys:
	//   - "op": the OpCode as a string
	//   - "duration_ms": execution duration
	//   - "error": error message
	//   - "status": flush outcome ("ok" or "failed")
	//   - "count": number of ops in a flush
	Meta map[string]any
}
