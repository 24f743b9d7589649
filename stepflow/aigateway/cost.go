package aigateway

import (
	"sync"
	"time"
)

// ModelPricing is USD cost per 1M tokens, input and output priced
// separately.
type ModelPricing struct {
	InputPer1M  float64
	OutputPer1M float64
}

// defaultPricing covers the models the three provider adapters in this
// package default to or commonly select. Callers needing another model
// priced should call CostTracker.SetPricing.
var defaultPricing = map[string]ModelPricing{
	"gpt-4o":                     {InputPer1M: 2.50, OutputPer1M: 10.00},
	"gpt-4o-mini":                {InputPer1M: 0.15, OutputPer1M: 0.60},
	"claude-sonnet-4-5-20250929": {InputPer1M: 3.00, OutputPer1M: 15.00},
	"claude-3-5-haiku-20241022":  {InputPer1M: 0.80, OutputPer1M: 4.00},
	"gemini-2.5-flash":           {InputPer1M: 0.075, OutputPer1M: 0.30},
	"gemini-2.5-pro":             {InputPer1M: 1.25, OutputPer1M: 5.00},
}

// Call is one recorded inference, priced against a model's pricing entry.
type Call struct {
	StepID       string
	Model        string
	InputTokens  int
	OutputTokens int
	CostUSD      float64
	Timestamp    time.Time
}

// CostTracker accumulates inference cost for one run, attributed per step.
// Safe for concurrent use by steps running inside the same Engine.
type CostTracker struct {
	mu      sync.Mutex
	pricing map[string]ModelPricing
	calls   []Call
	total   float64
}

func NewCostTracker() *CostTracker {
	return &CostTracker{pricing: defaultPricing, calls: make([]Call, 0, 8)}
}

// SetPricing overrides or adds a model's pricing entry.
func (t *CostTracker) SetPricing(model string, pricing ModelPricing) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pricing == nil {
		t.pricing = make(map[string]ModelPricing)
	}
	t.pricing[model] = pricing
}

// Record prices and stores one inference call. An unpriced model is
// recorded at zero cost rather than rejected, since billing is Executor
// and provider-side, and the tracker exists for observability.
func (t *CostTracker) Record(stepID, model string, inputTokens, outputTokens int) Call {
	t.mu.Lock()
	defer t.mu.Unlock()

	pricing := t.pricing[model]
	cost := (float64(inputTokens)/1_000_000.0)*pricing.InputPer1M +
		(float64(outputTokens)/1_000_000.0)*pricing.OutputPer1M

	call := Call{
		StepID:       stepID,
		Model:        model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		CostUSD:      cost,
		Timestamp:    time.Now(),
	}
	t.calls = append(t.calls, call)
	t.total += cost
	return call
}

func (t *CostTracker) TotalCost() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}

func (t *CostTracker) Calls() []Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Call, len(t.calls))
	copy(out, t.calls)
	return out
}
