package step

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/corestepio/corestep-go/step/telemetry"
)

type recordingCheckpointer struct {
	mu        sync.Mutex
	failUntil int
	attempts  int
	lastOps   []OutgoingOp
}

func (r *recordingCheckpointer) Flush(ctx context.Context, ops []OutgoingOp) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts++
	r.lastOps = ops
	if r.attempts <= r.failUntil {
		return errors.New("transient flush failure")
	}
	return nil
}

func TestCheckpointBufferAddReportsBufferFull(t *testing.T) {
	b := newCheckpointBuffer(nil, 2, DefaultRetryPolicy(), telemetry.NullEmitter{})

	if full := b.add(OutgoingOp{ID: "a"}); full {
		t.Fatal("expected buffer not yet full after first add")
	}
	if full := b.add(OutgoingOp{ID: "b"}); !full {
		t.Fatal("expected buffer full after second add with bufferSize=2")
	}
}

func TestCheckpointBufferEmpty(t *testing.T) {
	b := newCheckpointBuffer(nil, 0, DefaultRetryPolicy(), telemetry.NullEmitter{})
	if !b.empty() {
		t.Fatal("expected a fresh buffer to be empty")
	}
	b.add(OutgoingOp{ID: "a"})
	if b.empty() {
		t.Fatal("expected buffer to be non-empty after add")
	}
}

func TestCheckpointBufferFlushSucceedsAndClears(t *testing.T) {
	cp := &recordingCheckpointer{}
	b := newCheckpointBuffer(cp, 0, DefaultRetryPolicy(), telemetry.NullEmitter{})
	b.add(OutgoingOp{ID: "a"})

	if err := b.flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if !b.empty() {
		t.Fatal("expected buffer to be cleared after a successful flush")
	}
	if cp.attempts != 1 {
		t.Fatalf("attempts = %d, want 1", cp.attempts)
	}
}

func TestCheckpointBufferFlushRetriesOnFailure(t *testing.T) {
	cp := &recordingCheckpointer{failUntil: 2}
	policy := RetryPolicy{MaxAttempts: 4, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond}
	b := newCheckpointBuffer(cp, 0, policy, telemetry.NullEmitter{})
	b.add(OutgoingOp{ID: "a"})

	if err := b.flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if cp.attempts != 3 {
		t.Fatalf("attempts = %d, want 3 (2 failures then a success)", cp.attempts)
	}
}

func TestCheckpointBufferFlushExhaustionLeavesBufferIntact(t *testing.T) {
	cp := &recordingCheckpointer{failUntil: 100}
	policy := RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond}
	b := newCheckpointBuffer(cp, 0, policy, telemetry.NullEmitter{})
	b.add(OutgoingOp{ID: "a"})

	err := b.flush(context.Background())
	if err == nil {
		t.Fatal("expected a CheckpointFlushError after exhausting retries")
	}
	var flushErr *CheckpointFlushError
	if !errors.As(err, &flushErr) {
		t.Fatalf("err = %v (%T), want *CheckpointFlushError", err, err)
	}
	if b.empty() {
		t.Fatal("expected the buffer to retain ops after an exhausted flush")
	}
}

func TestCheckpointBufferFlushNoopWithoutCheckpointer(t *testing.T) {
	b := newCheckpointBuffer(nil, 0, DefaultRetryPolicy(), telemetry.NullEmitter{})
	b.add(OutgoingOp{ID: "a"})

	if err := b.flush(context.Background()); err != nil {
		t.Fatalf("flush with no checkpointer configured: %v", err)
	}
}
