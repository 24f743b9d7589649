package step

import (
	"math/rand"
	"testing"
	"time"
)

func TestComputeBackoffCapsAtMaxDelay(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	base := time.Second
	maxDelay := 5 * time.Second

	d := computeBackoff(10, base, maxDelay, rng)
	if d < maxDelay || d > maxDelay+base {
		t.Fatalf("computeBackoff(10) = %v, want within [%v, %v]", d, maxDelay, maxDelay+base)
	}
}

func TestComputeBackoffGrowsExponentially(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	base := 100 * time.Millisecond
	maxDelay := 10 * time.Second

	prev := time.Duration(0)
	for attempt := 0; attempt < 4; attempt++ {
		d := computeBackoff(attempt, base, maxDelay, rng)
		if d <= prev {
			t.Fatalf("attempt %d: delay %v did not exceed previous %v", attempt, d, prev)
		}
		prev = d
	}
}

func TestRetryPolicyValidate(t *testing.T) {
	cases := []struct {
		name string
		p    RetryPolicy
		ok   bool
	}{
		{"zero max attempts", RetryPolicy{MaxAttempts: 0}, false},
		{"max delay below base", RetryPolicy{MaxAttempts: 1, BaseDelay: 2 * time.Second, MaxDelay: time.Second}, false},
		{"valid", RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 30 * time.Second}, true},
		{"unbounded max delay", RetryPolicy{MaxAttempts: 1, BaseDelay: time.Second}, true},
	}
	for _, c := range cases {
		err := c.p.Validate()
		if (err == nil) != c.ok {
			t.Errorf("%s: Validate() error = %v, want ok=%v", c.name, err, c.ok)
		}
	}
}
