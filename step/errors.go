package step

import (
	"errors"
	"fmt"
)

// EngineError is a structured, machine-classifiable engine failure,
// following the small Code+Message+Cause shape used throughout this
// package's ancestry.
type EngineError struct {
	Message string
	Code    string
	Cause   error
}

func (e *EngineError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

func (e *EngineError) Unwrap() error { return e.Cause }

// ErrInvalidRetryPolicy is returned by RetryPolicy.Validate.
var ErrInvalidRetryPolicy = errors.New("invalid retry policy")

// ErrNestedStep names the diagnostic (non-fatal) condition of a step tool
// being invoked from within another step's body. Spec section 4.3 treats
// this as a user bug: the tools layer warns but does not abort. No code in
// this package returns it; the engine's default nested-step reporter emits
// a NonDeterminismWarning through the Emitter instead.
var ErrNestedStep = errors.New("step: nested step call detected")

// ErrStepTargetTimeout backs a step-not-found outcome when the Executor's
// targetStepId never appears within the scheduler's bound (spec section 4.4).
var ErrStepTargetTimeout = errors.New("step: target step did not appear before timeout")

// NonRetriableError marks a step failure that must never be retried.
// Step bodies return this (or wrap it) to force ExecutionResult.Retriable
// to false, per spec section 4.7.
type NonRetriableError struct {
	Cause error
}

func (e *NonRetriableError) Error() string {
	if e.Cause == nil {
		return "non-retriable error"
	}
	return "non-retriable error: " + e.Cause.Error()
}

func (e *NonRetriableError) Unwrap() error { return e.Cause }

// RetryAfterError marks a step failure that should be retried, but not
// before the given delay has elapsed.
type RetryAfterError struct {
	Delay string
	Cause error
}

func (e *RetryAfterError) Error() string {
	if e.Cause == nil {
		return "retry after " + e.Delay
	}
	return fmt.Sprintf("retry after %s: %s", e.Delay, e.Cause.Error())
}

func (e *RetryAfterError) Unwrap() error { return e.Cause }

// StepError is the tagged error surfaced to user handler code when a step's
// awaitable resolves to a memoized or freshly-produced failure. It pairs the
// raw id with the underlying error so handlers can pattern-match on it.
type StepError struct {
	RawID string
	Err   *SerializedError
}

func (e *StepError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("step %q failed", e.RawID)
	}
	return fmt.Sprintf("step %q failed: %s", e.RawID, e.Err.Message)
}

// ParseError is returned by the wire-decoding layer when an Executor
// request body fails validation; the adapter turns this into a 500 response
// with a descriptive body (spec section 7). Engine.Start returns it when the
// request's steps map cannot be turned into an OpStack.
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string { return "parse error: " + e.Message }

// CheckpointFlushError wraps the terminal failure of a Checkpointer flush.
// It is never raised to the handler; the engine downgrades the cycle's
// result to a fallback steps-found instead (spec section 4.8).
type CheckpointFlushError struct {
	Cause error
}

func (e *CheckpointFlushError) Error() string {
	return "checkpoint flush failed: " + e.Cause.Error()
}

func (e *CheckpointFlushError) Unwrap() error { return e.Cause }

// classifyError maps a step body error to the (OpCode, Retriable) pair the
// engine emits for a step-ran/function-rejected result, per spec section 4.7.
func classifyError(err error, attempt, maxAttempts int) (OpCode, Retriable) {
	var memoized *MemoizedStepError
	if errors.As(err, &memoized) {
		return OpStepFailed, RetriableFalse()
	}
	var nonRetriable *NonRetriableError
	if errors.As(err, &nonRetriable) {
		return OpStepFailed, RetriableFalse()
	}
	if maxAttempts > 0 && attempt+1 >= maxAttempts {
		return OpStepFailed, RetriableFalse()
	}
	var retryAfter *RetryAfterError
	if errors.As(err, &retryAfter) {
		return OpStepError, RetriableAfter(retryAfter.Delay)
	}
	return OpStepError, RetriableTrue()
}

// MemoizedStepError wraps a step failure that was replayed from the
// OpStack rather than freshly produced — the distinction matters to
// handlers that want to tell "failed just now" apart from "failed on a
// prior attempt and is being replayed".
type MemoizedStepError struct {
	*StepError
}

// NonDeterminismWarning describes (never fatally) handler behavior that
// would break replay determinism. The engine's default nested-step reporter
// builds one when a step tool is invoked from within another step's body
// and emits it through the Emitter; no other condition produces it.
type NonDeterminismWarning struct {
	Message string
}

func (e *NonDeterminismWarning) Error() string { return "nondeterminism: " + e.Message }

// serializeError converts a Go error into the wire SerializedError shape.
func serializeError(err error) *SerializedError {
	if err == nil {
		return nil
	}
	var stepErr *StepError
	if errors.As(err, &stepErr) && stepErr.Err != nil {
		return stepErr.Err
	}
	return &SerializedError{
		Name:    fmt.Sprintf("%T", err),
		Message: err.Error(),
	}
}
