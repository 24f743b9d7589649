package step

import (
	"context"
	"testing"
	"time"

	"github.com/corestepio/corestep-go/step/telemetry"
)

func applyOptions(t *testing.T, opts ...Option) engineConfig {
	t.Helper()
	cfg := newEngineConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			t.Fatalf("applying option: %v", err)
		}
	}
	return cfg
}

func TestNewEngineConfigDefaults(t *testing.T) {
	cfg := newEngineConfig()
	if cfg.targetStepTimeout != 5*time.Second {
		t.Fatalf("targetStepTimeout = %v, want 5s", cfg.targetStepTimeout)
	}
	if _, ok := cfg.emitter.(telemetry.NullEmitter); !ok {
		t.Fatalf("emitter = %T, want telemetry.NullEmitter", cfg.emitter)
	}
}

func TestWithMiddlewareAppendsInOrder(t *testing.T) {
	cfg := applyOptions(t, WithMiddleware(Hooks{}), WithMiddleware(Hooks{}))
	if len(cfg.hooks) != 2 {
		t.Fatalf("len(hooks) = %d, want 2", len(cfg.hooks))
	}
}

type fakeCheckpointer struct{}

func (fakeCheckpointer) Flush(ctx context.Context, ops []OutgoingOp) error { return nil }

func TestWithCheckpointerEnablesCheckpointingMode(t *testing.T) {
	cfg := applyOptions(t, WithCheckpointer(fakeCheckpointer{}))
	if cfg.checkpointer == nil {
		t.Fatal("expected checkpointer to be set")
	}
}

func TestWithCheckpointFlushPolicyRejectsInvalid(t *testing.T) {
	cfg := newEngineConfig()
	err := WithCheckpointFlushPolicy(RetryPolicy{MaxAttempts: 0})(&cfg)
	if err == nil {
		t.Fatal("expected an error for an invalid retry policy")
	}
}

func TestWithCheckpointFlushPolicyAcceptsValid(t *testing.T) {
	cfg := applyOptions(t, WithCheckpointFlushPolicy(RetryPolicy{MaxAttempts: 2, BaseDelay: time.Second}))
	if cfg.checkpointFlush.MaxAttempts != 2 {
		t.Fatalf("MaxAttempts = %d, want 2", cfg.checkpointFlush.MaxAttempts)
	}
}

func TestWithEmitterIgnoresNil(t *testing.T) {
	cfg := applyOptions(t, WithEmitter(nil))
	if _, ok := cfg.emitter.(telemetry.NullEmitter); !ok {
		t.Fatalf("emitter = %T, want unchanged telemetry.NullEmitter", cfg.emitter)
	}
}

func TestWithMaxAttemptsAndDisableImmediateExecution(t *testing.T) {
	cfg := applyOptions(t, WithMaxAttempts(7), WithDisableImmediateExecution())
	if cfg.maxAttempts != 7 {
		t.Fatalf("maxAttempts = %d, want 7", cfg.maxAttempts)
	}
	if !cfg.disableImmediateExec {
		t.Fatal("expected disableImmediateExec to be true")
	}
}

func TestWithTargetStepTimeout(t *testing.T) {
	cfg := applyOptions(t, WithTargetStepTimeout(2*time.Minute))
	if cfg.targetStepTimeout != 2*time.Minute {
		t.Fatalf("targetStepTimeout = %v, want 2m", cfg.targetStepTimeout)
	}
}

func TestWithNestedStepReporterOverride(t *testing.T) {
	called := false
	cfg := applyOptions(t, WithNestedStepReporter(func(outer, inner string) { called = true }))
	cfg.onNestedStep("outer", "inner")
	if !called {
		t.Fatal("expected the custom reporter to run")
	}
}
