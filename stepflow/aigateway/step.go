package aigateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/corestepio/corestep-go/step"
)

// Step builds a locally-executable inference call for use with tools.Run.
// The AiGateway opcode itself (tools.AiInfer) has no local body — the
// Executor proxies the provider call in production — but a dev-server or
// test harness running a Function outside the Executor needs somewhere to
// actually perform the call. Step is that somewhere: it runs client
// in-process, records cost against tracker if one is given, and returns the
// marshaled InferResponse as the step's output.
func Step(client InferenceClient, req InferRequest, tracker *CostTracker) func(ctx context.Context, tools *step.Tools, id string) *step.Future {
	return func(ctx context.Context, tools *step.Tools, id string) *step.Future {
		return tools.Run(ctx, id, func(ctx context.Context) (json.RawMessage, error) {
			resp, err := client.Infer(ctx, req)
			if err != nil {
				return nil, fmt.Errorf("aigateway: infer step %q: %w", id, err)
			}
			if tracker != nil {
				tracker.Record(id, req.Model, resp.InputTokens, resp.OutputTokens)
			}
			return json.Marshal(resp)
		})
	}
}
