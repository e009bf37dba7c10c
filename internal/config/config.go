// Package config loads the typed application configuration from viper.
package config

import (
	"fmt"
	"time"

	"github.com/Veraticus/absher-session/internal/common"
	"github.com/spf13/viper"
)

// Verification failure modes the mock provider can be told to simulate.
const (
	FailNone                = ""
	FailSessionExpired      = "session_expired"
	FailUpstreamUnavailable = "upstream_unavailable"
)

// Config is the complete application configuration.
type Config struct {
	Logging      LoggingConfig
	LLM          LLMConfig
	Verification VerificationConfig
	Session      SessionConfig
	// CatalogPath points at a YAML data catalog; empty uses the built-in one.
	CatalogPath string
	MetricsAddr string
}

// LoggingConfig configures slog output.
type LoggingConfig struct {
	Level  string
	Format string
}

// SessionConfig configures the session state machine.
type SessionConfig struct {
	// SubjectID overrides the profile's national ID for verification fetches.
	SubjectID       string
	TotalFee        float64
	ProcessingDelay time.Duration
}

// VerificationConfig configures the verification cache and mock provider.
type VerificationConfig struct {
	FailWith        string
	FreshnessWindow time.Duration
	Latency         time.Duration
	RetryDelay      time.Duration
	MaxAttempts     int
}

// LLMConfig configures the streaming response engine.
type LLMConfig struct {
	ModelPath           string
	TokenDelay          time.Duration
	ArtifactLoadLatency time.Duration
	DemoLoadLatency     time.Duration
	RequireArtifact     bool
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Session: SessionConfig{
			TotalFee:        2700,
			ProcessingDelay: 500 * time.Millisecond,
		},
		Verification: VerificationConfig{
			FreshnessWindow: 15 * time.Minute,
			Latency:         850 * time.Millisecond,
			MaxAttempts:     1,
			RetryDelay:      200 * time.Millisecond,
		},
		LLM: LLMConfig{
			ModelPath:           "~/.cache/absher/model",
			TokenDelay:          20 * time.Millisecond,
			ArtifactLoadLatency: 100 * time.Millisecond,
			DemoLoadLatency:     50 * time.Millisecond,
		},
	}
}

// Load reads the configuration from v, falling back to defaults for every
// key that is not set.
func Load(v *viper.Viper) (Config, error) {
	cfg := Default()

	if v.IsSet("logging.level") {
		cfg.Logging.Level = v.GetString("logging.level")
	}
	if v.IsSet("logging.format") {
		cfg.Logging.Format = v.GetString("logging.format")
	}

	if v.IsSet("session.subject_id") {
		cfg.Session.SubjectID = v.GetString("session.subject_id")
	}
	if v.IsSet("session.total_fee") {
		cfg.Session.TotalFee = v.GetFloat64("session.total_fee")
	}
	if v.IsSet("session.processing_delay") {
		cfg.Session.ProcessingDelay = v.GetDuration("session.processing_delay")
	}

	if v.IsSet("verification.freshness_window") {
		cfg.Verification.FreshnessWindow = v.GetDuration("verification.freshness_window")
	}
	if v.IsSet("verification.latency") {
		cfg.Verification.Latency = v.GetDuration("verification.latency")
	}
	if v.IsSet("verification.fail_with") {
		cfg.Verification.FailWith = v.GetString("verification.fail_with")
	}
	if v.IsSet("verification.max_attempts") {
		cfg.Verification.MaxAttempts = v.GetInt("verification.max_attempts")
	}
	if v.IsSet("verification.retry_delay") {
		cfg.Verification.RetryDelay = v.GetDuration("verification.retry_delay")
	}

	if v.IsSet("llm.model_path") {
		cfg.LLM.ModelPath = ExpandPath(v.GetString("llm.model_path"))
	}
	if v.IsSet("llm.require_artifact") {
		cfg.LLM.RequireArtifact = v.GetBool("llm.require_artifact")
	}
	if v.IsSet("llm.token_delay") {
		cfg.LLM.TokenDelay = v.GetDuration("llm.token_delay")
	}
	if v.IsSet("llm.artifact_load_latency") {
		cfg.LLM.ArtifactLoadLatency = v.GetDuration("llm.artifact_load_latency")
	}
	if v.IsSet("llm.demo_load_latency") {
		cfg.LLM.DemoLoadLatency = v.GetDuration("llm.demo_load_latency")
	}

	if v.IsSet("data.catalog") {
		cfg.CatalogPath = ExpandPath(v.GetString("data.catalog"))
	}
	if v.IsSet("metrics.addr") {
		cfg.MetricsAddr = v.GetString("metrics.addr")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the session cannot run with.
func (c Config) Validate() error {
	if _, err := common.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: invalid log format %q", common.ErrInvalidConfig, c.Logging.Format)
	}

	if c.Session.TotalFee < 0 {
		return fmt.Errorf("%w: session.total_fee must not be negative", common.ErrInvalidConfig)
	}

	durations := map[string]time.Duration{
		"session.processing_delay":      c.Session.ProcessingDelay,
		"verification.freshness_window": c.Verification.FreshnessWindow,
		"verification.latency":          c.Verification.Latency,
		"verification.retry_delay":      c.Verification.RetryDelay,
		"llm.token_delay":               c.LLM.TokenDelay,
		"llm.artifact_load_latency":     c.LLM.ArtifactLoadLatency,
		"llm.demo_load_latency":         c.LLM.DemoLoadLatency,
	}
	for key, d := range durations {
		if d < 0 {
			return fmt.Errorf("%w: %s must not be negative", common.ErrInvalidConfig, key)
		}
	}

	if c.Verification.MaxAttempts < 1 {
		return fmt.Errorf("%w: verification.max_attempts must be at least 1", common.ErrInvalidConfig)
	}

	switch c.Verification.FailWith {
	case FailNone, FailSessionExpired, FailUpstreamUnavailable:
	default:
		return fmt.Errorf("%w: unknown verification.fail_with %q", common.ErrInvalidConfig, c.Verification.FailWith)
	}

	return nil
}
