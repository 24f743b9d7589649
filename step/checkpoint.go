package step

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/corestepio/corestep-go/step/telemetry"
)

// Checkpointer delivers a batch of completed ops to the Executor out of
// band, ahead of the final HTTP response (spec section 4.8). Implementations
// live outside this package; step/checkpoint provides an HTTP-backed one.
type Checkpointer interface {
	Flush(ctx context.Context, ops []OutgoingOp) error
}

// checkpointBuffer accumulates OutgoingOps produced mid-cycle and flushes
// them to a Checkpointer, either when bufferSize is reached or when the
// engine forces a flush (function end, buffer-full, or cycle abandonment).
//
// Flush failures never surface to the handler: per spec section 4.8, a
// failed flush after retryPolicy is exhausted downgrades the cycle's result
// to steps-found over whatever is still buffered, so no step completion is
// ever silently lost.
type checkpointBuffer struct {
	mu           sync.Mutex
	ops          []OutgoingOp
	bufferSize   int
	checkpointer Checkpointer
	retryPolicy  RetryPolicy
	emitter      telemetry.Emitter
	rng          *rand.Rand
}

func newCheckpointBuffer(cp Checkpointer, bufferSize int, policy RetryPolicy, emitter telemetry.Emitter) *checkpointBuffer {
	return &checkpointBuffer{
		checkpointer: cp,
		bufferSize:   bufferSize,
		retryPolicy:  policy,
		emitter:      emitter,
	}
}

// add appends op to the buffer and reports whether the configured
// bufferSize has been reached (a hint the engine should force a flush).
func (b *checkpointBuffer) add(op OutgoingOp) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ops = append(b.ops, op)
	if b.emitter != nil {
		b.emitter.Emit(telemetry.Event{StepID: op.ID, Msg: "checkpoint.buffered", Meta: map[string]any{"op": string(op.Op)}})
	}
	return b.bufferSize > 0 && len(b.ops) >= b.bufferSize
}

func (b *checkpointBuffer) snapshot() []OutgoingOp {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]OutgoingOp(nil), b.ops...)
}

func (b *checkpointBuffer) empty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.ops) == 0
}

// flush attempts to deliver the current buffer, retrying under retryPolicy.
// On success it clears the buffer. On exhaustion it leaves the buffer
// intact and returns a *CheckpointFlushError, which the engine treats as
// "fall back to reporting this snapshot as steps-found" rather than data
// loss.
func (b *checkpointBuffer) flush(ctx context.Context) error {
	b.mu.Lock()
	ops := append([]OutgoingOp(nil), b.ops...)
	b.mu.Unlock()

	if len(ops) == 0 || b.checkpointer == nil {
		return nil
	}

	policy := b.retryPolicy
	if policy.MaxAttempts < 1 {
		policy = DefaultRetryPolicy()
	}

	var lastErr error
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := computeBackoff(attempt-1, policy.BaseDelay, policy.MaxDelay, b.rng)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return &CheckpointFlushError{Cause: ctx.Err()}
			}
		}
		lastErr = b.checkpointer.Flush(ctx, ops)
		if lastErr == nil {
			b.mu.Lock()
			b.ops = nil
			b.mu.Unlock()
			if b.emitter != nil {
				b.emitter.Emit(telemetry.Event{Msg: "checkpoint.flush", Meta: map[string]any{"status": "ok", "count": len(ops)}})
			}
			return nil
		}
	}
	if b.emitter != nil {
		b.emitter.Emit(telemetry.Event{Msg: "checkpoint.flush", Meta: map[string]any{"status": "failed", "count": len(ops), "error": lastErr.Error()}})
	}
	return &CheckpointFlushError{Cause: lastErr}
}
