package step

import "encoding/json"

// Request is the Executor-to-SDK HTTP request body consumed by the engine
// (spec section 6). The adapter that decodes HTTP into this struct, and
// re-encodes ExecutionResult into an HTTP response with the matching
// status code, lives outside this package (out of scope per spec section 1).
type Request struct {
	Version int                        `json:"version"`
	Event   json.RawMessage            `json:"event"`
	Events  []json.RawMessage          `json:"events"`
	Steps   map[string]json.RawMessage `json:"steps"`
	Ctx     RequestCtx                 `json:"ctx"`
	UseAPI  bool                       `json:"use_api,omitempty"`
}

// RequestCtx is the run-scoped metadata attached to a Request.
type RequestCtx struct {
	RunID                   string     `json:"run_id"`
	Attempt                 int        `json:"attempt"`
	Stack                   *StackCtx  `json:"stack,omitempty"`
	DisableImmediateExec    bool       `json:"disable_immediate_execution,omitempty"`
	UseAPI                  bool       `json:"use_api,omitempty"`
	TargetStepID            string     `json:"-"` // populated by the adapter, not the wire body
}

// StackCtx mirrors the Executor's notion of the current step stack.
type StackCtx struct {
	Stack   []string `json:"stack"`
	Current int      `json:"current"`
}

// normalizedStep is the three accepted on-wire shapes for steps[hashed_id],
// projected into {type, data, error}.
type normalizedStep struct {
	Type  string           `json:"type"`
	Data  json.RawMessage  `json:"data,omitempty"`
	Error *SerializedError `json:"error,omitempty"`
}

type wrappedData struct {
	Data json.RawMessage `json:"data"`
}

type wrappedError struct {
	Error *SerializedError `json:"error"`
}

// normalizeMemoizedStep projects one of the raw wire shapes accepted for a
// steps[hashed_id] entry into {type, data, error}, per spec section 6:
//
//   - {"data": ...}                -> {type: "data", data: ...}
//   - {"error": {...}}             -> {type: "error", error: ...}
//   - null                         -> {type: "data", data: null}
//   - a bare event payload         -> {type: "data", data: <payload>}
func normalizeMemoizedStep(raw json.RawMessage) (normalizedStep, error) {
	if raw == nil || string(raw) == "null" {
		return normalizedStep{Type: "data", Data: json.RawMessage("null")}, nil
	}

	var wd wrappedData
	if err := json.Unmarshal(raw, &wd); err == nil && wd.Data != nil {
		return normalizedStep{Type: "data", Data: wd.Data}, nil
	}

	var we wrappedError
	if err := json.Unmarshal(raw, &we); err == nil && we.Error != nil {
		return normalizedStep{Type: "error", Error: we.Error}, nil
	}

	// Neither {"data":...} nor {"error":...}: treat the whole payload as a
	// bare event, the waitForEvent-result shorthand.
	return normalizedStep{Type: "data", Data: raw}, nil
}

// buildOpStack reconstructs an OpStack from a Request's steps map.
func buildOpStack(steps map[string]json.RawMessage) (*OpStack, error) {
	ops := make(map[string]*MemoizedOp, len(steps))
	for id, raw := range steps {
		norm, err := normalizeMemoizedStep(raw)
		if err != nil {
			return nil, err
		}
		op := &MemoizedOp{ID: id}
		switch norm.Type {
		case "data":
			op.Data = norm.Data
		case "error":
			op.Error = norm.Error
		}
		ops[id] = op
	}
	return NewOpStack(ops), nil
}
