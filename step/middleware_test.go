package step

import (
	"context"
	"encoding/json"
	"testing"
)

func TestMiddlewareStackRunsHooksInRegistrationOrder(t *testing.T) {
	var order []string
	record := func(name string) func(context.Context) {
		return func(context.Context) { order = append(order, name) }
	}

	stack := NewMiddlewareStack(
		Hooks{BeforeExecution: record("first")},
		Hooks{BeforeExecution: record("second")},
	)

	stack.beforeExecution(context.Background())

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("order = %v, want [first second]", order)
	}
}

func TestMiddlewareStackTransformInputMutatesValue(t *testing.T) {
	stack := NewMiddlewareStack(Hooks{
		TransformInput: func(_ context.Context, in *HandlerInput) {
			in.RunID = "rewritten"
		},
	})

	in := &HandlerInput{RunID: "original"}
	stack.transformInput(context.Background(), in)

	if in.RunID != "rewritten" {
		t.Fatalf("RunID = %q, want rewritten", in.RunID)
	}
}

func TestMiddlewareStackTransformOutputMutatesValue(t *testing.T) {
	stack := NewMiddlewareStack(Hooks{
		TransformOutput: func(_ context.Context, out *HandlerOutput) {
			out.Data = json.RawMessage(`"patched"`)
		},
	})

	out := &HandlerOutput{Data: json.RawMessage(`"original"`)}
	stack.transformOutput(context.Background(), out)

	if string(out.Data) != `"patched"` {
		t.Fatalf("Data = %s, want patched", out.Data)
	}
}

func TestMiddlewareStackFinishedRunsEveryHook(t *testing.T) {
	calls := 0
	stack := NewMiddlewareStack(
		Hooks{Finished: func(context.Context, ExecutionResult) { calls++ }},
		Hooks{Finished: func(context.Context, ExecutionResult) { calls++ }},
	)

	stack.finished(context.Background(), ExecutionResult{})

	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestMiddlewareStackNilIsANoop(t *testing.T) {
	var stack *MiddlewareStack
	stack.beforeExecution(context.Background())
	stack.transformInput(context.Background(), &HandlerInput{})
	stack.finished(context.Background(), ExecutionResult{})
}

func TestMiddlewareStackSkipsNilHookFields(t *testing.T) {
	stack := NewMiddlewareStack(Hooks{})
	stack.beforeExecution(context.Background())
	stack.afterExecution(context.Background())
	stack.beforeMemoization(context.Background())
	stack.afterMemoization(context.Background())
	stack.beforeResponse(context.Background())
}
