package step

import (
	"context"
	"encoding/json"
)

// StepFunc is the body of a locally-executable step (run, sendEvent). It is
// invoked at most once per (run, step id), directly by the Engine — never
// by the blocked handler goroutine — which is what lets a single completed
// step feed a CheckpointBuffer without ever resuming user code.
type StepFunc func(ctx context.Context) (json.RawMessage, error)

// stepOutcome is the single value carried over a foundStep's outcome
// channel: either data or an error, never both.
type stepOutcome struct {
	data json.RawMessage
	err  error
}

// foundStep is the internal record of one step the handler has requested
// during the current cycle but that has not yet been fulfilled by
// memoization (spec section 3, "FoundStep").
type foundStep struct {
	rawID       string
	hashedID    string
	op          OpCode
	opts        json.RawMessage
	displayName string
	name        string
	input       []json.RawMessage

	// fn is nil for steps the Executor itself resolves asynchronously
	// (Sleep, WaitForEvent, InvokeFunction, AiGateway): the SDK has no
	// local body to run for those. Run and SendEvent always carry one.
	fn StepFunc

	// hasStepState is true when the step had a memoized entry with input
	// but no output yet — it was planned in an earlier cycle.
	hasStepState bool

	// discoveryIndex records enqueue order, used to break ties when
	// sorting steps for a steps-found result (spec invariant 1/4).
	discoveryIndex int

	outcome  chan stepOutcome
	resolved bool // true once outcome has been (or will immediately be) sent

	// handled is not set or read by the Engine. At-most-once execution
	// within a cycle follows from the scheduler handing each foundStep to
	// the engine in exactly one steps-found checkpoint.
	handled bool
}

// newResolvedFoundStep builds a foundStep whose outcome is already known
// from memoization — used only to carry enough information for a Future to
// return immediately without registering with the scheduler.
func newResolvedFoundStep(rawID, hashedID string, mem *MemoizedOp) *foundStep {
	fs := &foundStep{
		rawID:    rawID,
		hashedID: hashedID,
		outcome:  make(chan stepOutcome, 1),
		resolved: true,
	}
	if mem.Error != nil {
		fs.outcome <- stepOutcome{err: &MemoizedStepError{StepError: &StepError{RawID: rawID, Err: mem.Error}}}
	} else {
		fs.outcome <- stepOutcome{data: mem.Data}
	}
	return fs
}

// outgoingOp renders this foundStep as the wire-visible descriptor for a
// step that has been discovered but not (yet) executed this cycle.
func (fs *foundStep) outgoingOp() OutgoingOp {
	return OutgoingOp{
		ID:          fs.hashedID,
		Op:          fs.op,
		DisplayName: fs.displayName,
		Name:        fs.name,
		Opts:        fs.opts,
	}
}

// Future is the awaitable handle returned by every Tools primitive. It is
// the Go realization of spec section 9's "deferred promise" pattern: a
// resolvable future/resolver pair backed by a length-1 channel.
type Future struct {
	step  *foundStep
	sched *scheduler
}

// Await blocks the calling goroutine until this step's value is known, or
// until ctx is cancelled. When the owning cycle ends, Engine.Start cancels
// the context it handed the handler, so an Await on that context returns
// ctx.Err(); anything the handler reports after that is dropped by the
// closed scheduler and never reaches the cycle's ExecutionResult.
func (f *Future) Await(ctx context.Context) (json.RawMessage, error) {
	if !f.step.resolved && f.sched != nil {
		f.sched.reportNow()
	}
	select {
	case o := <-f.step.outcome:
		f.step.outcome <- o // leave a copy for any second Await on the same Future
		return o.data, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// HashedID exposes the canonical id this Future resolves, primarily for
// diagnostics and tests.
func (f *Future) HashedID() string { return f.step.hashedID }
