package step

import (
	"context"
	"sync"
)

// ExecutingStepInfo names the step currently running on the engine
// goroutine, when CurrentExecution is read from inside a step body.
type ExecutingStepInfo struct {
	ID   string
	Name string
}

// Execution is the ambient per-run context exposed by CurrentExecution
// (spec section 4.9). App is an opaque handle this package never
// interprets; the engine leaves it nil and sets Instance to the run id.
type Execution struct {
	App           any
	Instance      string
	ExecutingStep *ExecutingStepInfo
}

type executionKeyType struct{}

var executionKey = executionKeyType{}

// withExecution attaches exec to ctx for the duration of one cycle.
func withExecution(ctx context.Context, exec *Execution) context.Context {
	return context.WithValue(ctx, executionKey, exec)
}

var warnOnce sync.Once

// WarnOnceAbsentExecution is invoked by CurrentExecution the first time it
// is called with no ambient Execution in scope. It is a package-level
// variable so the stepflow layer can redirect it to its configured Emitter;
// left nil, the condition is silently ignored.
var WarnOnceAbsentExecution func()

// CurrentExecution returns the ambient Execution for ctx, or false if none
// is in scope — for example because the caller is running on a goroutine
// that never received the cycle's context (spec section 4.9: "best-effort;
// absent on async hops the propagation mechanism cannot follow").
func CurrentExecution(ctx context.Context) (*Execution, bool) {
	exec, ok := ctx.Value(executionKey).(*Execution)
	if !ok || exec == nil {
		warnOnce.Do(func() {
			if WarnOnceAbsentExecution != nil {
				WarnOnceAbsentExecution()
			}
		})
		return nil, false
	}
	return exec, true
}

// withExecutingStep returns a copy of exec tagged with the step currently
// running, for use while the engine invokes a foundStep's fn.
func (e *Execution) withExecutingStep(info *ExecutingStepInfo) *Execution {
	cp := *e
	cp.ExecutingStep = info
	return &cp
}
