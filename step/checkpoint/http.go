// Package checkpoint provides transport-level Checkpointer implementations.
// The buffering and retry policy around a Checkpointer lives in the step
// package itself; this package only ships completed ops over the wire.
package checkpoint

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/corestepio/corestep-go/step"
)

// HTTPCheckpointer posts a batch of completed ops to the Executor's
// checkpoint endpoint ahead of the final HTTP response (spec section 4.8).
// It satisfies step.Checkpointer.
type HTTPCheckpointer struct {
	client *resty.Client
	url    string
	runID  string
}

// NewHTTPCheckpointer builds a checkpointer posting to url for the given
// run. A nil client gets a fresh resty.Client with sane defaults.
func NewHTTPCheckpointer(client *resty.Client, url, runID string) *HTTPCheckpointer {
	if client == nil {
		client = resty.New()
	}
	return &HTTPCheckpointer{client: client, url: url, runID: runID}
}

type flushRequest struct {
	RunID string          `json:"run_id"`
	Ops   []step.OutgoingOp `json:"ops"`
}

// Flush implements step.Checkpointer.
func (h *HTTPCheckpointer) Flush(ctx context.Context, ops []step.OutgoingOp) error {
	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(flushRequest{RunID: h.runID, Ops: ops}).
		Post(h.url)
	if err != nil {
		return fmt.Errorf("checkpoint: flush request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("checkpoint: flush rejected with status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
