package step

import "encoding/json"

// OpCode identifies the kind of operation an OutgoingOp or MemoizedOp
// represents. These are stable wire values shared with the Executor.
type OpCode string

// Stable wire opcodes, per spec section 3 ("Op opcode").
const (
	OpStepPlanned    OpCode = "StepPlanned"
	OpStepRun        OpCode = "StepRun"
	OpStepError      OpCode = "StepError"
	OpStepFailed     OpCode = "StepFailed"
	OpStepNotFound   OpCode = "StepNotFound"
	OpSleep          OpCode = "Sleep"
	OpWaitForEvent   OpCode = "WaitForEvent"
	OpInvokeFunction OpCode = "InvokeFunction"
	OpAiGateway      OpCode = "AiGateway"
	OpRunComplete    OpCode = "RunComplete"
)

// SerializedError is the wire shape of an error carried by a MemoizedOp or
// OutgoingOp.
type SerializedError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// MemoizedOp is the per-run memoized state of one step, keyed by hashed id.
// It is populated from the Executor's request body. Tools does not mutate
// it: discovery is tracked in the OpStack's remaining set, and Seen and
// Fulfilled are not set by this package.
type MemoizedOp struct {
	ID        string           `json:"id"`
	Data      json.RawMessage  `json:"data,omitempty"`
	Error     *SerializedError `json:"error,omitempty"`
	Input     []json.RawMessage `json:"input,omitempty"`
	Seen      bool             `json:"-"`
	Fulfilled bool             `json:"-"`
}

// hasOutput reports whether this memoized op carries a settled outcome
// (either data or an error) as opposed to only memoized input.
func (m *MemoizedOp) hasOutput() bool {
	return m != nil && (m.Data != nil || m.Error != nil)
}

// OutgoingOp is the externally visible description of a step produced
// during a cycle; it is what the engine actually returns to the Executor.
type OutgoingOp struct {
	ID          string           `json:"id"`
	Op          OpCode           `json:"op"`
	DisplayName string           `json:"displayName"`
	Name        string           `json:"name"`
	Opts        json.RawMessage  `json:"opts,omitempty"`
	Data        json.RawMessage  `json:"data,omitempty"`
	Error       *SerializedError `json:"error,omitempty"`
	Userland    *Userland        `json:"userland,omitempty"`
}

// Userland carries SDK-private bookkeeping that rides alongside an
// OutgoingOp without being interpreted by the Executor.
type Userland struct {
	Index *int `json:"index,omitempty"`
}

// ResultKind tags the variant of an ExecutionResult. Go has no native
// tagged unions; ResultKind plus the mutually-exclusive fields below model
// the five-way ExecutionResult from spec section 3.
type ResultKind string

const (
	ResultFunctionResolved ResultKind = "function-resolved"
	ResultFunctionRejected ResultKind = "function-rejected"
	ResultStepsFound       ResultKind = "steps-found"
	ResultStepRan          ResultKind = "step-ran"
	ResultStepNotFound     ResultKind = "step-not-found"
)

// Retriable describes the retriability of a function-rejected result: a
// plain bool, or a retry-after delay string (spec section 4.7).
type Retriable struct {
	Bool    bool
	Delay   string
	HasDelay bool
}

// RetriableTrue, RetriableFalse and RetriableAfter construct Retriable values.
func RetriableTrue() Retriable  { return Retriable{Bool: true} }
func RetriableFalse() Retriable { return Retriable{Bool: false} }
func RetriableAfter(delay string) Retriable {
	return Retriable{Bool: true, Delay: delay, HasDelay: true}
}

// ExecutionResult is the stable-shape outcome of one execution cycle.
type ExecutionResult struct {
	Kind ResultKind

	// function-resolved
	Data json.RawMessage

	// function-rejected
	Error     *SerializedError
	Retriable Retriable

	// steps-found
	Steps []OutgoingOp

	// step-ran / step-not-found
	Step *OutgoingOp
}

// FunctionResolved builds a function-resolved ExecutionResult.
func FunctionResolved(data json.RawMessage) ExecutionResult {
	return ExecutionResult{Kind: ResultFunctionResolved, Data: data}
}

// FunctionRejected builds a function-rejected ExecutionResult.
func FunctionRejected(err *SerializedError, retriable Retriable) ExecutionResult {
	return ExecutionResult{Kind: ResultFunctionRejected, Error: err, Retriable: retriable}
}

// StepsFound builds a steps-found ExecutionResult. steps must be non-empty.
func StepsFound(steps []OutgoingOp) ExecutionResult {
	return ExecutionResult{Kind: ResultStepsFound, Steps: steps}
}

// StepRan builds a step-ran ExecutionResult.
func StepRan(op OutgoingOp, retriable *Retriable) ExecutionResult {
	r := ExecutionResult{Kind: ResultStepRan, Step: &op}
	if retriable != nil {
		r.Retriable = *retriable
	}
	return r
}

// StepNotFoundResult builds a step-not-found ExecutionResult.
func StepNotFoundResult(op OutgoingOp) ExecutionResult {
	return ExecutionResult{Kind: ResultStepNotFound, Step: &op}
}
