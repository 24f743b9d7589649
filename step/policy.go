package step

import (
	"math/rand"
	"time"
)

// RetryPolicy configures the CheckpointBuffer's flush retries (spec section
// 4.8). It follows the same exponential-backoff-with-jitter shape the
// engine's step-failure retriability already exposes to the Executor, but
// here the retrying party is the SDK itself, against its own Checkpointer.
type RetryPolicy struct {
	// MaxAttempts is the maximum number of flush attempts, including the
	// first. Must be >= 1.
	MaxAttempts int

	// BaseDelay is the base delay for exponential backoff between attempts.
	// The actual delay is min(BaseDelay*2^attempt, MaxDelay) + jitter(0, BaseDelay).
	BaseDelay time.Duration

	// MaxDelay caps the exponential growth. Must be >= BaseDelay when both
	// are nonzero; MaxDelay == 0 means uncapped.
	MaxDelay time.Duration
}

// DefaultRetryPolicy is five attempts with a 100ms base delay, capped at
// thirty seconds.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, BaseDelay: 100 * time.Millisecond, MaxDelay: 30 * time.Second}
}

// Validate reports whether the policy is usable.
func (rp RetryPolicy) Validate() error {
	if rp.MaxAttempts < 1 {
		return ErrInvalidRetryPolicy
	}
	if rp.MaxDelay > 0 && rp.BaseDelay > 0 && rp.MaxDelay < rp.BaseDelay {
		return ErrInvalidRetryPolicy
	}
	return nil
}

// computeBackoff calculates the delay before the next flush attempt:
//
//	delay = min(base * 2^attempt, maxDelay) + jitter(0, base)
//
// attempt is zero-based (0 = delay before the second overall attempt).
func computeBackoff(attempt int, base, maxDelay time.Duration, rng *rand.Rand) time.Duration {
	if base <= 0 {
		return 0
	}
	exponential := base * (1 << attempt)
	if maxDelay > 0 && exponential > maxDelay {
		exponential = maxDelay
	}

	var jitter time.Duration
	if rng != nil {
		jitter = time.Duration(rng.Int63n(int64(base)))
	} else {
		jitter = time.Duration(rand.Int63n(int64(base))) //nolint:gosec // retry timing jitter, not security-sensitive
	}
	return exponential + jitter
}
