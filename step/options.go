package step

import (
	"time"

	"github.com/corestepio/corestep-go/step/telemetry"
)

// Option configures an Engine. Functional options keep New's signature
// stable as configuration grows (spec section 4.1's engine construction
// surface).
type Option func(*engineConfig) error

type engineConfig struct {
	eventSender          EventSender
	hooks                []Hooks
	checkpointer         Checkpointer
	checkpointFlush      RetryPolicy
	checkpointBufferSize int
	targetStepTimeout    time.Duration
	disableImmediateExec bool
	emitter              telemetry.Emitter
	onNestedStep         NestedStepReporter
	maxAttempts          int
}

func newEngineConfig() engineConfig {
	return engineConfig{
		checkpointFlush:   DefaultRetryPolicy(),
		targetStepTimeout: 5 * time.Second,
		emitter:           telemetry.NullEmitter{},
	}
}

// WithEventSender supplies the interface Tools.SendEvent uses to publish
// events inline (spec section 6).
func WithEventSender(s EventSender) Option {
	return func(c *engineConfig) error {
		c.eventSender = s
		return nil
	}
}

// WithMiddleware appends one middleware's Hooks to the engine's stack, in
// call order.
func WithMiddleware(h Hooks) Option {
	return func(c *engineConfig) error {
		c.hooks = append(c.hooks, h)
		return nil
	}
}

// WithCheckpointer enables checkpointing mode: completed steps accumulate
// in a CheckpointBuffer and are flushed to the Checkpointer instead of
// returned one at a time (spec section 4.8). Without a Checkpointer the
// engine runs in classic one-step-per-cycle mode.
func WithCheckpointer(c Checkpointer) Option {
	return func(cfg *engineConfig) error {
		cfg.checkpointer = c
		return nil
	}
}

// WithCheckpointFlushPolicy overrides the retry policy the Checkpointer is
// called under. Defaults to DefaultRetryPolicy.
func WithCheckpointFlushPolicy(p RetryPolicy) Option {
	return func(c *engineConfig) error {
		if err := p.Validate(); err != nil {
			return err
		}
		c.checkpointFlush = p
		return nil
	}
}

// WithCheckpointBufferSize sets how many completed steps accumulate before
// a forced flush. Zero means "flush only at cycle end".
func WithCheckpointBufferSize(n int) Option {
	return func(c *engineConfig) error {
		c.checkpointBufferSize = n
		return nil
	}
}

// WithTargetStepTimeout bounds how long the scheduler waits for a
// requested targetStepId to appear before reporting step-not-found
// (spec section 4.4).
func WithTargetStepTimeout(d time.Duration) Option {
	return func(c *engineConfig) error {
		c.targetStepTimeout = d
		return nil
	}
}

// WithDisableImmediateExecution disables the single-unfulfilled-planned-step
// elision described in spec section 4.5 step 7, forcing every newly
// discovered step through a steps-found round trip.
func WithDisableImmediateExecution() Option {
	return func(c *engineConfig) error {
		c.disableImmediateExec = true
		return nil
	}
}

// WithEmitter attaches the Emitter used for engine-internal observability
// (spec section 4.9 / step/telemetry).
func WithEmitter(e telemetry.Emitter) Option {
	return func(c *engineConfig) error {
		if e != nil {
			c.emitter = e
		}
		return nil
	}
}

// WithMaxAttempts bounds how many times the Executor will retry a failed
// step before the engine forces OpStepFailed (non-retriable), per spec
// section 4.7. Zero means unlimited (subject only to NonRetriableError).
func WithMaxAttempts(n int) Option {
	return func(c *engineConfig) error {
		c.maxAttempts = n
		return nil
	}
}

// WithNestedStepReporter overrides how the engine reports a step tool being
// invoked from within another step's body. Defaults to emitting a
// NonDeterminismWarning via the configured Emitter.
func WithNestedStepReporter(r NestedStepReporter) Option {
	return func(c *engineConfig) error {
		c.onNestedStep = r
		return nil
	}
}
