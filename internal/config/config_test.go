package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/absher-session/internal/common"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.InDelta(t, 2700, cfg.Session.TotalFee, 0)
	assert.Equal(t, 15*time.Minute, cfg.Verification.FreshnessWindow)
	assert.Equal(t, 20*time.Millisecond, cfg.LLM.TokenDelay)
}

func TestLoadOverrides(t *testing.T) {
	v := viper.New()
	v.Set("session.total_fee", 300.0)
	v.Set("session.processing_delay", "10ms")
	v.Set("verification.freshness_window", "1m")
	v.Set("verification.fail_with", FailSessionExpired)
	v.Set("llm.token_delay", "1ms")
	v.Set("llm.require_artifact", true)
	v.Set("logging.format", "json")
	v.Set("data.catalog", "/tmp/catalog.yaml")
	v.Set("metrics.addr", ":9090")

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.InDelta(t, 300, cfg.Session.TotalFee, 0)
	assert.Equal(t, 10*time.Millisecond, cfg.Session.ProcessingDelay)
	assert.Equal(t, time.Minute, cfg.Verification.FreshnessWindow)
	assert.Equal(t, FailSessionExpired, cfg.Verification.FailWith)
	assert.Equal(t, time.Millisecond, cfg.LLM.TokenDelay)
	assert.True(t, cfg.LLM.RequireArtifact)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "/tmp/catalog.yaml", cfg.CatalogPath)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("session:\n  total_fee: 1500\nllm:\n  demo_load_latency: 5ms\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.InDelta(t, 1500, cfg.Session.TotalFee, 0)
	assert.Equal(t, 5*time.Millisecond, cfg.LLM.DemoLoadLatency)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		mutate func(*Config)
		name   string
	}{
		{name: "negative fee", mutate: func(c *Config) { c.Session.TotalFee = -1 }},
		{name: "negative delay", mutate: func(c *Config) { c.LLM.TokenDelay = -time.Second }},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "loud" }},
		{name: "bad log format", mutate: func(c *Config) { c.Logging.Format = "xml" }},
		{name: "unknown failure mode", mutate: func(c *Config) { c.Verification.FailWith = "sometimes" }},
		{name: "zero attempts", mutate: func(c *Config) { c.Verification.MaxAttempts = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("ABSHER_TEST_DIR", "/opt/models")

	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, filepath.Join(home, "model"), ExpandPath("~/model"))
	assert.Equal(t, "/opt/models/phi", ExpandPath("$ABSHER_TEST_DIR/phi"))
}
