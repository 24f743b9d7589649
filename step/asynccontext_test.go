package step

import (
	"context"
	"sync"
	"testing"
)

func TestCurrentExecutionAbsentReturnsFalse(t *testing.T) {
	_, ok := CurrentExecution(context.Background())
	if ok {
		t.Fatal("expected no ambient Execution on a bare context")
	}
}

func TestCurrentExecutionPresentRoundTrips(t *testing.T) {
	exec := &Execution{Instance: "worker-1"}
	ctx := withExecution(context.Background(), exec)

	got, ok := CurrentExecution(ctx)
	if !ok {
		t.Fatal("expected an ambient Execution")
	}
	if got.Instance != "worker-1" {
		t.Fatalf("Instance = %q, want worker-1", got.Instance)
	}
}

func TestExecutionWithExecutingStepDoesNotMutateOriginal(t *testing.T) {
	exec := &Execution{Instance: "worker-1"}
	tagged := exec.withExecutingStep(&ExecutingStepInfo{ID: "abc", Name: "do-thing"})

	if exec.ExecutingStep != nil {
		t.Fatal("original Execution should be untouched")
	}
	if tagged.ExecutingStep == nil || tagged.ExecutingStep.ID != "abc" {
		t.Fatalf("tagged.ExecutingStep = %+v, want ID=abc", tagged.ExecutingStep)
	}
}

func TestWarnOnceAbsentExecutionFiresOnce(t *testing.T) {
	prev := WarnOnceAbsentExecution
	defer func() { WarnOnceAbsentExecution = prev; warnOnce = sync.Once{} }()

	calls := 0
	WarnOnceAbsentExecution = func() { calls++ }
	warnOnce = sync.Once{}

	CurrentExecution(context.Background())
	CurrentExecution(context.Background())

	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (sync.Once should fire only once)", calls)
	}
}
