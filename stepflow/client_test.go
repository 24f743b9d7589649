package stepflow_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/corestepio/corestep-go/stepflow"
)

type fakeSender struct {
	gotPayloads []json.RawMessage
}

func (f *fakeSender) Send(_ context.Context, payloads []json.RawMessage) (json.RawMessage, error) {
	f.gotPayloads = payloads
	return json.RawMessage(`{"ids":["evt_1"]}`), nil
}

func TestClientSendEventAssignsID(t *testing.T) {
	sender := &fakeSender{}
	client := stepflow.NewClient(sender)

	_, err := client.SendEvent(context.Background(), stepflow.Event{Name: "demo/go"})
	if err != nil {
		t.Fatalf("SendEvent: %v", err)
	}
	if len(sender.gotPayloads) != 1 {
		t.Fatalf("got %d payloads, want 1", len(sender.gotPayloads))
	}

	var decoded stepflow.Event
	if err := json.Unmarshal(sender.gotPayloads[0], &decoded); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if decoded.ID == "" {
		t.Fatal("expected a generated event ID")
	}
}

func TestClientSendEventsNoSenderErrors(t *testing.T) {
	client := stepflow.NewClient(nil)
	if _, err := client.SendEvents(context.Background(), []stepflow.Event{{Name: "demo/go"}}); err != stepflow.ErrNoEventSender {
		t.Fatalf("err = %v, want ErrNoEventSender", err)
	}
}
