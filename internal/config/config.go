// Package config resolves client configuration from defaults, an optional
// YAML file, an optional .env file, and environment variables, in that
// order of increasing precedence.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const envPrefix = "CCHAT_"

// Config holds everything the client needs at runtime.
type Config struct {
	// ServerURL is the chat backend base URL.
	ServerURL string `yaml:"server_url"`
	// Model requested for new conversations.
	Model string `yaml:"model"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// Dev switches on pretty console logging.
	Dev bool `yaml:"dev"`
	// RequestTimeout bounds CRUD requests. Streams are not subject to it.
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// StreamIdleTimeout fails a stream that delivers no bytes for this long.
	StreamIdleTimeout time.Duration `yaml:"stream_idle_timeout"`
	// TitlePollDelays is the schedule of post-turn title re-fetches, as
	// comma-separated durations.
	TitlePollDelays string `yaml:"title_poll_delays"`
	// DataDir is where client state (config file, drafts) lives.
	DataDir string `yaml:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		ServerURL:         "http://localhost:8089",
		Model:             "claude-3-5-sonnet",
		LogLevel:          "info",
		RequestTimeout:    30 * time.Second,
		StreamIdleTimeout: 90 * time.Second,
		TitlePollDelays:   "0s,2s,5s,10s",
		DataDir:           filepath.Join(home, ".cchat"),
	}
}

// Load resolves the effective configuration.
func Load() (*Config, error) {
	// .env is optional; ignore its absence.
	_ = godotenv.Load()

	cfg := Default()

	path := filepath.Join(cfg.DataDir, "config.yaml")
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(envPrefix + "SERVER_URL"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv(envPrefix + "MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv(envPrefix + "LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(envPrefix + "DEV"); v == "true" || v == "1" {
		cfg.Dev = true
	}
	if v := os.Getenv(envPrefix + "REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RequestTimeout = d
		}
	}
	if v := os.Getenv(envPrefix + "STREAM_IDLE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.StreamIdleTimeout = d
		}
	}
	if v := os.Getenv(envPrefix + "TITLE_POLL_DELAYS"); v != "" {
		cfg.TitlePollDelays = v
	}
}

// TitleDelays parses TitlePollDelays, dropping entries that are not valid
// durations. An empty result disables title polling.
func (c *Config) TitleDelays() []time.Duration {
	var out []time.Duration
	for _, part := range strings.Split(c.TitlePollDelays, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if d, err := time.ParseDuration(part); err == nil {
			out = append(out, d)
		}
	}
	return out
}
