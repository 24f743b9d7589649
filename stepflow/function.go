package stepflow

import (
	"context"

	"github.com/corestepio/corestep-go/step"
)

// Trigger is one event or cron trigger a Function registers for.
type Trigger struct {
	Event string `json:"event,omitempty"`
	Cron  string `json:"cron,omitempty"`
}

// CancelClause describes an event that should abort an in-flight run.
type CancelClause struct {
	Event   string `json:"event"`
	If      string `json:"if,omitempty"`
	Timeout string `json:"timeout,omitempty"`
}

// Throttle bounds how often a function may start a new run.
type Throttle struct {
	Limit  int    `json:"limit"`
	Period string `json:"period"`
	Key    string `json:"key,omitempty"`
}

// Concurrency bounds how many runs of a function may be in flight at once.
type Concurrency struct {
	Limit int    `json:"limit"`
	Key   string `json:"key,omitempty"`
	Scope string `json:"scope,omitempty"`
}

// FunctionConfig is the descriptor the serve adapter registers with the
// Executor on PUT (spec section 6, "describe() -> FunctionConfig").
// stepflow never performs that registration itself.
type FunctionConfig struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Triggers    []Trigger     `json:"triggers"`
	Idempotency string        `json:"idempotency,omitempty"`
	Throttle    *Throttle     `json:"throttle,omitempty"`
	Concurrency []Concurrency `json:"concurrency,omitempty"`
	Cancel      []CancelClause `json:"cancel,omitempty"`
}

// Function binds a FunctionConfig to a step.Handler and the step.Engine
// that drives one execution cycle of it.
type Function struct {
	config  FunctionConfig
	handler step.Handler
	engine  *step.Engine
}

// NewFunction builds a Function from its descriptor and handler, wiring an
// Engine from opts (see step.Option — WithCheckpointer, WithEventSender,
// WithEmitter, and so on).
func NewFunction(cfg FunctionConfig, handler step.Handler, opts ...step.Option) (*Function, error) {
	engine, err := step.New(opts...)
	if err != nil {
		return nil, err
	}
	return &Function{config: cfg, handler: handler, engine: engine}, nil
}

// Describe returns this function's registration descriptor.
func (f *Function) Describe() FunctionConfig { return f.config }

// Serve runs one execution cycle of the function against req and
// targetStepID, the adapter-decoded form of the Executor's HTTP request
// (spec section 6). The HTTP encode/decode and signature verification
// happen in the adapter, out of scope for this package.
func (f *Function) Serve(ctx context.Context, req step.Request, targetStepID string) (step.ExecutionResult, error) {
	return f.engine.Start(ctx, req, targetStepID, f.handler)
}
