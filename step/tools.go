package step

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

type executingStepKeyType struct{}

var executingStepKey = executingStepKeyType{}

// WithExecutingStep marks ctx as running inside the body of the named step,
// so that Tools calls made from within it can be flagged as nested
// (spec section 4.3, "nested step calls").
func WithExecutingStep(ctx context.Context, hashedID string) context.Context {
	return context.WithValue(ctx, executingStepKey, hashedID)
}

func executingStep(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(executingStepKey).(string)
	return v, ok
}

// NestedStepReporter receives a notification whenever a step tool is called
// from within another step's body. Tools never aborts on this condition; it
// only reports it, mirroring spec section 4.3's "warn but continue".
type NestedStepReporter func(outer, inner string)

// Tools is the handler-facing surface bound to one cycle's scheduler and
// OpStack. It has no exported constructor outside the package: the engine
// builds one per cycle and hands it to the handler.
type Tools struct {
	sched   *scheduler
	opStack *OpStack

	mu           sync.Mutex
	nextIndex    map[string]int
	onNestedStep NestedStepReporter

	eventSender EventSender
}

func newTools(sched *scheduler, opStack *OpStack, sender EventSender, onNestedStep NestedStepReporter) *Tools {
	return &Tools{
		sched:        sched,
		opStack:      opStack,
		nextIndex:    make(map[string]int),
		onNestedStep: onNestedStep,
		eventSender:  sender,
	}
}

// EventSender is the narrow interface Tools needs to execute a sendEvent
// step inline (spec section 6, "event-send interface").
type EventSender interface {
	Send(ctx context.Context, payloads []json.RawMessage) (json.RawMessage, error)
}

func (t *Tools) disambiguated(rawIDBase string) string {
	t.mu.Lock()
	idx := t.nextIndex[rawIDBase]
	t.nextIndex[rawIDBase] = idx + 1
	t.mu.Unlock()
	return disambiguate(rawIDBase, idx)
}

func (t *Tools) checkNested(ctx context.Context, rawID string) {
	if outer, ok := executingStep(ctx); ok && t.onNestedStep != nil {
		t.onNestedStep(outer, rawID)
	}
}

// register performs the common discovery bookkeeping for every tool
// primitive: disambiguate the raw id, hash it, consult the OpStack, and
// either return an already-resolved Future or enqueue a new foundStep.
func (t *Tools) register(ctx context.Context, rawIDBase string, op OpCode, opts any, displayName string, fn StepFunc, input []json.RawMessage) *Future {
	rawID := t.disambiguated(rawIDBase)
	t.checkNested(ctx, rawID)
	hashedID := HashID(rawID)

	optsJSON, _ := json.Marshal(opts)

	mem := t.opStack.Lookup(hashedID)
	if mem.hasOutput() {
		t.opStack.MarkSeen(hashedID)
		fs := newResolvedFoundStep(rawID, hashedID, mem)
		return &Future{step: fs}
	}

	fs := &foundStep{
		rawID:        rawID,
		hashedID:     hashedID,
		op:           op,
		opts:         optsJSON,
		displayName:  displayName,
		name:         rawIDBase,
		fn:           fn,
		input:        input,
		hasStepState: mem != nil,
		outcome:      make(chan stepOutcome, 1),
	}
	if mem != nil {
		t.opStack.MarkSeen(hashedID)
	}
	t.sched.register(fs)
	return &Future{step: fs, sched: t.sched}
}

// Run schedules a locally-executable step. fn runs at most once, invoked
// directly by the engine when it selects this step for execution — never
// on the handler goroutine.
func (t *Tools) Run(ctx context.Context, id string, fn func(ctx context.Context) (json.RawMessage, error)) *Future {
	return t.register(ctx, id, OpStepPlanned, struct{}{}, id, fn, nil)
}

// SleepOpts carries the duration for a Sleep step.
type SleepOpts struct {
	Duration string `json:"duration"`
}

// Sleep schedules a durable sleep. It has no local body: the Executor owns
// the timer and the next cycle arrives with the step memoized.
func (t *Tools) Sleep(ctx context.Context, id string, d time.Duration) *Future {
	return t.register(ctx, id, OpSleep, SleepOpts{Duration: d.String()}, id, nil, nil)
}

// SleepUntilOpts carries the absolute wake time for a SleepUntil step.
type SleepUntilOpts struct {
	Until string `json:"until"`
}

// SleepUntil schedules a durable sleep to an absolute time.
func (t *Tools) SleepUntil(ctx context.Context, id string, until time.Time) *Future {
	return t.register(ctx, id, OpSleep, SleepUntilOpts{Until: until.UTC().Format(time.RFC3339)}, id, nil, nil)
}

// WaitForEventOpts carries the event name, timeout, and optional match
// expression for a WaitForEvent step.
type WaitForEventOpts struct {
	Event   string `json:"event"`
	Timeout string `json:"timeout"`
	If      string `json:"if,omitempty"`
}

// WaitForEvent schedules a durable wait for a matching event. match, when
// non-empty, is sugar for an "if" expression: it is interpolated into
// event.<match> == async.<match> (spec section 4.3). match is always a
// field-path string here; the grammar for non-scalar comparison values is
// left to the Executor, which evaluates the expression against live JSON —
// out of scope for this SDK (spec section 9, open question 2).
func (t *Tools) WaitForEvent(ctx context.Context, id, event string, timeout time.Duration, match string) (*Future, error) {
	opts := WaitForEventOpts{Event: event, Timeout: timeout.String()}
	if match != "" {
		opts.If = fmt.Sprintf("event.%s == async.%s", match, match)
	}
	return t.register(ctx, id, OpWaitForEvent, opts, id, nil, nil), nil
}

// InvokeOpts carries the target function id, payload, and optional timeout
// for an InvokeFunction step.
type InvokeOpts struct {
	FunctionID string          `json:"function_id"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Timeout    string          `json:"timeout,omitempty"`
}

// Invoke schedules a call into another durable function, executed and
// memoized entirely by the Executor.
func (t *Tools) Invoke(ctx context.Context, id, functionID string, payload json.RawMessage, timeout time.Duration) *Future {
	opts := InvokeOpts{FunctionID: functionID, Payload: payload}
	if timeout > 0 {
		opts.Timeout = timeout.String()
	}
	return t.register(ctx, id, OpInvokeFunction, opts, id, nil, nil)
}

// AiInferOpts carries the opaque inference request body for an AiGateway
// step (spec section 4.3, domain-stack AI gateway wiring — see
// stepflow/aigateway).
type AiInferOpts struct {
	Body json.RawMessage `json:"body"`
}

// AiInfer schedules a model inference call through the Executor's AI
// gateway proxy. The actual provider call is made by the Executor, not the
// SDK, so — like Sleep/WaitForEvent/Invoke — it has no local body.
func (t *Tools) AiInfer(ctx context.Context, id string, body json.RawMessage) *Future {
	return t.register(ctx, id, OpAiGateway, AiInferOpts{Body: body}, id, nil, nil)
}

// SendEvent schedules the publication of one or more events. It is sugar
// over Run: the send itself happens inline, inside the step body the
// engine invokes, using the EventSender supplied at engine construction
// (spec section 6, "event-send interface").
func (t *Tools) SendEvent(ctx context.Context, id string, payloads []json.RawMessage) *Future {
	sender := t.eventSender
	fn := func(ctx context.Context) (json.RawMessage, error) {
		if sender == nil {
			return nil, &NonRetriableError{Cause: fmt.Errorf("step: sendEvent %q has no EventSender configured", id)}
		}
		return sender.Send(ctx, payloads)
	}
	return t.register(ctx, id, OpStepPlanned, struct{}{}, id, fn, nil)
}
