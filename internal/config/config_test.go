package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "http://localhost:8089", cfg.ServerURL)
	assert.Equal(t, "claude-3-5-sonnet", cfg.Model)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 90*time.Second, cfg.StreamIdleTimeout)
	assert.NotEmpty(t, cfg.DataDir)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("CCHAT_SERVER_URL", "http://example.test:9999")
	t.Setenv("CCHAT_MODEL", "claude-3-opus")
	t.Setenv("CCHAT_LOG_LEVEL", "debug")
	t.Setenv("CCHAT_DEV", "true")
	t.Setenv("CCHAT_REQUEST_TIMEOUT", "10s")
	t.Setenv("CCHAT_STREAM_IDLE_TIMEOUT", "2m")

	cfg := Default()
	applyEnv(cfg)

	assert.Equal(t, "http://example.test:9999", cfg.ServerURL)
	assert.Equal(t, "claude-3-opus", cfg.Model)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Dev)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 2*time.Minute, cfg.StreamIdleTimeout)
}

func TestTitleDelays(t *testing.T) {
	t.Run("DefaultSchedule", func(t *testing.T) {
		cfg := Default()
		assert.Equal(t, []time.Duration{0, 2 * time.Second, 5 * time.Second, 10 * time.Second}, cfg.TitleDelays())
	})

	t.Run("EnvOverride", func(t *testing.T) {
		t.Setenv("CCHAT_TITLE_POLL_DELAYS", "1s, 3s")
		cfg := Default()
		applyEnv(cfg)
		assert.Equal(t, []time.Duration{time.Second, 3 * time.Second}, cfg.TitleDelays())
	})

	t.Run("InvalidEntriesDropped", func(t *testing.T) {
		cfg := Default()
		cfg.TitlePollDelays = "bogus,2s,"
		assert.Equal(t, []time.Duration{2 * time.Second}, cfg.TitleDelays())
	})

	t.Run("EmptyDisablesPolling", func(t *testing.T) {
		cfg := Default()
		cfg.TitlePollDelays = ""
		assert.Empty(t, cfg.TitleDelays())
	})
}

func TestApplyEnvIgnoresInvalidDurations(t *testing.T) {
	t.Setenv("CCHAT_REQUEST_TIMEOUT", "not a duration")

	cfg := Default()
	applyEnv(cfg)
	require.Equal(t, 30*time.Second, cfg.RequestTimeout)
}
