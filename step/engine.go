package step

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/corestepio/corestep-go/step/telemetry"
)

// Handler is user code: it receives the run's event payload and a Tools
// bound to this cycle, and returns the function's final result.
type Handler func(ctx context.Context, tools *Tools, in HandlerInput) (json.RawMessage, error)

// Engine drives one execution cycle of a durable function: replay against
// an OpStack, discover and optionally execute steps, and produce exactly
// one ExecutionResult (spec sections 3-5).
type Engine struct {
	cfg engineConfig
}

// New builds an Engine from functional options.
func New(opts ...Option) (*Engine, error) {
	cfg := newEngineConfig()
	for _, o := range opts {
		if err := o(&cfg); err != nil {
			return nil, err
		}
	}
	if cfg.checkpointFlush.Validate() != nil {
		return nil, ErrInvalidRetryPolicy
	}
	return &Engine{cfg: cfg}, nil
}

// Start runs handler once to completion of one cycle against req, honoring
// targetStepID (empty when the Executor left step selection to the SDK).
// It never returns before exactly one ExecutionResult is produced, except
// when ctx itself is cancelled.
func (e *Engine) Start(ctx context.Context, req Request, targetStepID string, handler Handler) (ExecutionResult, error) {
	opStack, err := buildOpStack(req.Steps)
	if err != nil {
		return ExecutionResult{}, &ParseError{Message: err.Error()}
	}

	sched := newScheduler(targetStepID, e.cfg.targetStepTimeout)
	defer sched.close()

	handlerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	mw := NewMiddlewareStack(e.cfg.hooks...)

	exec := &Execution{Instance: req.Ctx.RunID}
	runCtx := withExecution(handlerCtx, exec)

	in := HandlerInput{Event: req.Event, Events: req.Events, RunID: req.Ctx.RunID, Attempt: req.Ctx.Attempt}
	mw.transformInput(runCtx, &in)

	mw.beforeMemoization(runCtx)
	mw.afterMemoization(runCtx)

	nestedReporter := e.cfg.onNestedStep
	if nestedReporter == nil {
		nestedReporter = func(outer, inner string) {
			warn := &NonDeterminismWarning{Message: fmt.Sprintf("step %q invoked from within step %q", inner, outer)}
			e.cfg.emitter.Emit(telemetry.Event{Msg: "nondeterminism.nested_step", StepID: inner, Meta: map[string]any{"outer": outer, "warning": warn.Error()}})
		}
	}
	tools := newTools(sched, opStack, e.cfg.eventSender, nestedReporter)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				sched.finishRejected(fmt.Errorf("step: handler panic: %v", r))
			}
		}()
		data, herr := handler(runCtx, tools, in)
		if herr != nil {
			sched.finishRejected(herr)
			return
		}
		sched.finishResolved(data)
	}()

	mw.beforeExecution(runCtx)

	var buffer *checkpointBuffer
	checkpointing := e.cfg.checkpointer != nil
	if checkpointing {
		buffer = newCheckpointBuffer(e.cfg.checkpointer, e.cfg.checkpointBufferSize, e.cfg.checkpointFlush, e.cfg.emitter)
	}

	result, rerr := e.loop(runCtx, handlerCtx, sched, targetStepID, buffer, checkpointing, req.Ctx.Attempt)

	mw.afterExecution(runCtx)
	if rerr == nil {
		out := HandlerOutput{Data: result.Data, Err: nil}
		if result.Kind == ResultFunctionRejected {
			out.Err = fmt.Errorf("%s", result.Error.Message)
		}
		mw.transformOutput(runCtx, &out)
		if result.Kind == ResultFunctionResolved {
			result.Data = out.Data
		}
		mw.beforeResponse(runCtx)
		mw.finished(runCtx, result)
	}
	return result, rerr
}

func (e *Engine) loop(runCtx, handlerCtx context.Context, sched *scheduler, targetStepID string, buffer *checkpointBuffer, checkpointing bool, attempt int) (ExecutionResult, error) {
	for {
		select {
		case cp := <-sched.checkpoints:
			switch cp.kind {
			case ckFunctionResolved:
				if checkpointing && buffer != nil {
					op := OutgoingOp{Op: OpRunComplete, Data: cp.data}
					buffer.add(op)
					snapshot := buffer.snapshot()
					_ = buffer.flush(runCtx)
					return StepsFound(snapshot), nil
				}
				return FunctionResolved(cp.data), nil

			case ckFunctionRejected:
				serr := serializeError(cp.err)
				_, retriable := classifyError(cp.err, attempt, e.cfg.maxAttempts)
				if checkpointing && buffer != nil {
					snapshot := buffer.snapshot()
					if ferr := buffer.flush(runCtx); ferr != nil {
						return StepsFound(snapshot), nil
					}
					return FunctionRejected(serr, retriable), nil
				}
				return FunctionRejected(serr, retriable), nil

			case ckStepNotFound:
				return StepNotFoundResult(OutgoingOp{ID: targetStepID, Op: OpStepNotFound}), nil

			case ckStepsFound:
				result, done, rerr := e.handleStepsFound(runCtx, cp.steps, targetStepID, buffer, checkpointing, attempt)
				if done {
					return result, rerr
				}
				// checkpointing mode resolved everything executable and
				// is waiting for the handler to make further progress.
			}

		case <-handlerCtx.Done():
			return ExecutionResult{}, handlerCtx.Err()
		}
	}
}

// handleStepsFound applies spec section 4.5's per-batch decision: execute
// a targeted or eligible step, or report the batch as steps-found. done
// reports whether the cycle is over.
func (e *Engine) handleStepsFound(ctx context.Context, steps []*foundStep, targetStepID string, buffer *checkpointBuffer, checkpointing bool, attempt int) (ExecutionResult, bool, error) {
	sort.Slice(steps, func(i, j int) bool { return steps[i].discoveryIndex < steps[j].discoveryIndex })

	if checkpointing {
		for _, fs := range steps {
			if fs.fn == nil {
				continue // Sleep/WaitForEvent/Invoke/AiGateway: Executor-resolved, just report below
			}
			op, retriable, err := e.executeStep(ctx, fs, attempt)
			buffer.add(op)
			if err != nil {
				snapshot := buffer.snapshot()
				_ = buffer.flush(ctx)
				return StepsFound(snapshot), true, nil
			}
			fs.outcome <- stepOutcome{data: op.Data}
			_ = retriable
		}
		for _, fs := range steps {
			if fs.fn == nil {
				buffer.add(fs.outgoingOp())
			}
		}
		if buffer.bufferSize > 0 && len(buffer.snapshot()) >= buffer.bufferSize {
			snapshot := buffer.snapshot()
			if ferr := buffer.flush(ctx); ferr != nil {
				return StepsFound(snapshot), true, nil
			}
		}
		return ExecutionResult{}, false, nil
	}

	if targetStepID != "" {
		for _, fs := range steps {
			if fs.hashedID == targetStepID && fs.fn != nil {
				op, retriable, _ := e.executeStep(ctx, fs, attempt)
				if op.Error != nil {
					return StepRan(op, &retriable), true, nil
				}
				return StepRan(op, nil), true, nil
			}
		}
		return ExecutionResult{}, false, nil
	}

	if !e.cfg.disableImmediateExec {
		var onlyPlanned *foundStep
		plannedCount := 0
		for _, fs := range steps {
			if fs.fn != nil {
				plannedCount++
				onlyPlanned = fs
			}
		}
		if plannedCount == 1 && len(steps) == 1 {
			op, retriable, _ := e.executeStep(ctx, onlyPlanned, attempt)
			if op.Error != nil {
				return StepRan(op, &retriable), true, nil
			}
			return StepRan(op, nil), true, nil
		}
	}

	ops := make([]OutgoingOp, 0, len(steps))
	for _, fs := range steps {
		ops = append(ops, fs.outgoingOp())
	}
	return StepsFound(ops), true, nil
}

// executeStep invokes a locally-executable foundStep's body directly on the
// engine goroutine — never on the (possibly now-abandoned) handler
// goroutine — and renders its outcome as an OutgoingOp.
func (e *Engine) executeStep(ctx context.Context, fs *foundStep, attempt int) (OutgoingOp, Retriable, error) {
	stepCtx := WithExecutingStep(ctx, fs.hashedID)
	if exec, ok := ctx.Value(executionKey).(*Execution); ok && exec != nil {
		stepCtx = withExecution(stepCtx, exec.withExecutingStep(&ExecutingStepInfo{ID: fs.hashedID, Name: fs.name}))
	}
	start := time.Now()
	data, err := fs.fn(stepCtx)
	latency := time.Since(start)

	if err != nil {
		op, retriable := classifyError(err, attempt, e.cfg.maxAttempts)
		outOp := OutgoingOp{
			ID: fs.hashedID, Op: op, DisplayName: fs.displayName, Name: fs.name,
			Opts: fs.opts, Error: serializeError(err),
		}
		e.cfg.emitter.Emit(telemetry.Event{StepID: fs.hashedID, Msg: "step.errored", Meta: map[string]any{
			"op": string(op), "duration_ms": latency.Milliseconds(),
		}})
		return outOp, retriable, err
	}

	outOp := OutgoingOp{
		ID: fs.hashedID, Op: OpStepRun, DisplayName: fs.displayName, Name: fs.name,
		Opts: fs.opts, Data: data,
	}
	e.cfg.emitter.Emit(telemetry.Event{StepID: fs.hashedID, Msg: "step.ran", Meta: map[string]any{
		"duration_ms": latency.Milliseconds(),
	}})
	return outOp, Retriable{}, nil
}
