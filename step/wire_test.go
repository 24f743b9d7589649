package step

import (
	"encoding/json"
	"testing"
)

func TestNormalizeMemoizedStepShapes(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want normalizedStep
	}{
		{"null", `null`, normalizedStep{Type: "data", Data: json.RawMessage("null")}},
		{"wrapped data", `{"data":{"ok":true}}`, normalizedStep{Type: "data", Data: json.RawMessage(`{"ok":true}`)}},
		{"wrapped error", `{"error":{"name":"Err","message":"boom"}}`, normalizedStep{Type: "error", Error: &SerializedError{Name: "Err", Message: "boom"}}},
		{"bare event payload", `{"id":"evt_1","name":"demo/event"}`, normalizedStep{Type: "data", Data: json.RawMessage(`{"id":"evt_1","name":"demo/event"}`)}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := normalizeMemoizedStep(json.RawMessage(c.raw))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Type != c.want.Type {
				t.Fatalf("Type = %q, want %q", got.Type, c.want.Type)
			}
			if c.want.Error != nil {
				if got.Error == nil || *got.Error != *c.want.Error {
					t.Fatalf("Error = %+v, want %+v", got.Error, c.want.Error)
				}
			}
			if c.want.Data != nil && string(got.Data) != string(c.want.Data) {
				t.Fatalf("Data = %s, want %s", got.Data, c.want.Data)
			}
		})
	}
}

func TestBuildOpStack(t *testing.T) {
	hashed := HashID("step-a")
	steps := map[string]json.RawMessage{
		hashed: json.RawMessage(`{"data":42}`),
	}
	stack, err := buildOpStack(steps)
	if err != nil {
		t.Fatalf("buildOpStack: %v", err)
	}
	mem := stack.Lookup(hashed)
	if mem == nil || string(mem.Data) != "42" {
		t.Fatalf("Lookup(%q) = %+v, want Data=42", hashed, mem)
	}
}
