package stepflow

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/corestepio/corestep-go/step"
)

// Event is the payload shape accepted by Client.SendEvent(s). Name and Data
// are caller-supplied; ID and Timestamp are filled in when absent.
type Event struct {
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"ts,omitempty"`
}

// ErrNoEventSender is returned by Client.SendEvent(s) when no
// step.EventSender was supplied to NewClient.
var ErrNoEventSender = errors.New("stepflow: client has no EventSender configured")

// Client is a thin wrapper over step.EventSender for use outside a step
// body (e.g. an HTTP handler publishing an event that a function reacts
// to). Inside a handler, prefer Tools.SendEvent so the publish is itself a
// durable, memoized step.
type Client struct {
	sender step.EventSender
}

// NewClient wraps sender. sender is typically the same EventSender
// instance passed to step.WithEventSender when constructing Functions.
func NewClient(sender step.EventSender) *Client {
	return &Client{sender: sender}
}

// SendEvent publishes a single event, assigning it a uuid when the caller
// left ID empty.
func (c *Client) SendEvent(ctx context.Context, evt Event) (json.RawMessage, error) {
	return c.SendEvents(ctx, []Event{evt})
}

// SendEvents publishes a batch of events in one call.
func (c *Client) SendEvents(ctx context.Context, events []Event) (json.RawMessage, error) {
	if c.sender == nil {
		return nil, ErrNoEventSender
	}

	payloads := make([]json.RawMessage, len(events))
	for i, evt := range events {
		if evt.ID == "" {
			evt.ID = uuid.NewString()
		}
		if evt.Timestamp == 0 {
			evt.Timestamp = time.Now().UnixMilli()
		}
		raw, err := json.Marshal(evt)
		if err != nil {
			return nil, err
		}
		payloads[i] = raw
	}
	return c.sender.Send(ctx, payloads)
}
