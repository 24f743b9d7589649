package stepflow

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/corestepio/corestep-go/step"
)

// Config is the SDK-side configuration surface: Executor/dev-server
// overrides, signing keys, and checkpointing thresholds (spec section 6,
// "Environment inputs"). Loaded defaults -> TOML file -> env vars, env
// wins, following the same layering as the config pack example.
type Config struct {
	ExecutorBaseURL   string `toml:"executor_base_url"`
	DevServerHost     string `toml:"dev_server_host"`
	SigningKey        string `toml:"signing_key"`
	SigningKeyFallback string `toml:"signing_key_fallback"`

	// AsyncContextDisabled mirrors the "experimental async context
	// disabled" environment fallback (spec section 6).
	AsyncContextDisabled bool `toml:"async_context_disabled"`

	// Checkpointing thresholds, applied via step.Option when constructing
	// a Function's Engine.
	BufferedSteps    int    `toml:"buffered_steps"`
	RetryBaseDelay   string `toml:"retry_base_delay"`
	RetryMaxDelay    string `toml:"retry_max_delay"`
	RetryMaxAttempts int    `toml:"retry_max_attempts"`
}

// Default returns a Config with the core's own defaults applied.
func Default() Config {
	return Config{
		ExecutorBaseURL:  "https://api.inngest.com",
		BufferedSteps:    0,
		RetryBaseDelay:   "100ms",
		RetryMaxDelay:    "30s",
		RetryMaxAttempts: 5,
	}
}

// Load reads config: defaults -> TOML file at path -> env var overrides.
// A missing or unreadable file is silently ignored, leaving defaults in
// place.
func Load(path string) Config {
	cfg := Default()

	if path == "" {
		path = "stepflow.toml"
	}
	if data, err := os.ReadFile(path); err == nil {
		_ = toml.Unmarshal(data, &cfg)
	}

	if v := os.Getenv("STEPFLOW_EXECUTOR_BASE_URL"); v != "" {
		cfg.ExecutorBaseURL = v
	}
	if v := os.Getenv("STEPFLOW_DEV_SERVER_HOST"); v != "" {
		cfg.DevServerHost = v
	}
	if v := os.Getenv("STEPFLOW_SIGNING_KEY"); v != "" {
		cfg.SigningKey = v
	}
	if v := os.Getenv("STEPFLOW_SIGNING_KEY_FALLBACK"); v != "" {
		cfg.SigningKeyFallback = v
	}
	if os.Getenv("STEPFLOW_ASYNC_CONTEXT_DISABLED") == "true" {
		cfg.AsyncContextDisabled = true
	}

	return cfg
}

// RetryPolicy parses the string-form delays into a step.RetryPolicy,
// falling back to step.DefaultRetryPolicy on a parse error or zero value.
func (c Config) RetryPolicy() step.RetryPolicy {
	base, err := time.ParseDuration(c.RetryBaseDelay)
	if err != nil || base <= 0 {
		return step.DefaultRetryPolicy()
	}
	maxDelay, err := time.ParseDuration(c.RetryMaxDelay)
	if err != nil || maxDelay <= 0 {
		maxDelay = 30 * time.Second
	}
	maxAttempts := c.RetryMaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return step.RetryPolicy{MaxAttempts: maxAttempts, BaseDelay: base, MaxDelay: maxDelay}
}
