/*-------------------------------------------------------------------------
 *
 * config.go
 *    Daemon configuration
 *
 * Explicit configuration struct passed into the daemon at construction.
 * Values resolve in order: built-in defaults, YAML config file,
 * environment variables, credentials file, command-line flags.
 *
 * Copyright (c) 2024-2026, ClawbackX, Inc. <support@clawbackx.com>
 *
 * IDENTIFICATION
 *    approval-relay/internal/config/config.go
 *
 *-------------------------------------------------------------------------
 */

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

/* Duration accepts "5s" style values in YAML */
type Duration time.Duration

/* UnmarshalYAML parses a Go duration string */
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("bad duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

/* MarshalYAML writes the duration string back */
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

/* Std returns the standard library duration */
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

/* Mode selects what the daemon does with a new user message */
type Mode string

const (
	/* ModeRelay forwards the message to the agent (webhook or inbox) */
	ModeRelay Mode = "relay"
	/* ModeRespond generates a reply and posts it back to the gateway */
	ModeRespond Mode = "respond"
)

/* ProviderConfig describes one LLM provider for respond mode. Providers
 * are selected by explicit table lookup, never by model-name matching. */
type ProviderConfig struct {
	BaseURL   string `yaml:"base_url,omitempty"`
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
}

/* ResponderConfig configures reply generation for respond mode */
type ResponderConfig struct {
	Provider  string                    `yaml:"provider,omitempty"`
	MaxTokens int                       `yaml:"max_tokens,omitempty"`
	Providers map[string]ProviderConfig `yaml:"providers,omitempty"`
}

/* OpsConfig configures the operational HTTP endpoint */
type OpsConfig struct {
	Listen string `yaml:"listen,omitempty"`
}

/* LoggingConfig configures log output */
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

/* Config is the full daemon configuration */
type Config struct {
	Workspace       string        `yaml:"workspace"`
	CredentialsFile string        `yaml:"credentials_file,omitempty"`
	APIBase         string        `yaml:"api_base,omitempty"`
	BotToken        string        `yaml:"-"`
	AgentID         string        `yaml:"agent_id,omitempty"`
	NotifyURL       string        `yaml:"notify_url,omitempty"`
	Mode            Mode          `yaml:"mode"`
	PollInterval    Duration      `yaml:"poll_interval"`
	StateFile       string        `yaml:"state_file,omitempty"`
	InboxFile       string        `yaml:"inbox_file,omitempty"`

	Responder ResponderConfig `yaml:"responder,omitempty"`
	Ops       OpsConfig       `yaml:"ops,omitempty"`
	Logging   LoggingConfig   `yaml:"logging"`
}

/* DefaultConfig returns the built-in defaults */
func DefaultConfig() *Config {
	return &Config{
		Workspace:    "/data/.openclaw/workspace",
		Mode:         ModeRelay,
		PollInterval: Duration(5 * time.Second),
		Responder: ResponderConfig{
			MaxTokens: 512,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

/* LoadConfig reads a YAML config file over the defaults */
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}

/* LoadFromEnv overlays RELAY_* environment variables */
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("RELAY_WORKSPACE"); v != "" {
		cfg.Workspace = v
	}
	if v := os.Getenv("RELAY_API_BASE"); v != "" {
		cfg.APIBase = v
	}
	if v := os.Getenv("RELAY_BOT_TOKEN"); v != "" {
		cfg.BotToken = v
	}
	if v := os.Getenv("RELAY_AGENT_ID"); v != "" {
		cfg.AgentID = v
	}
	if v := os.Getenv("RELAY_NOTIFY_URL"); v != "" {
		cfg.NotifyURL = v
	}
	if v := os.Getenv("RELAY_MODE"); v != "" {
		cfg.Mode = Mode(strings.ToLower(v))
	}
	if v := os.Getenv("RELAY_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.PollInterval = Duration(d)
		}
	}
	if v := os.Getenv("RELAY_OPS_LISTEN"); v != "" {
		cfg.Ops.Listen = v
	}
	if v := os.Getenv("RELAY_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("RELAY_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

/* ResolvePaths fills in the workspace-derived file defaults */
func (c *Config) ResolvePaths() {
	if c.StateFile == "" {
		c.StateFile = filepath.Join(c.Workspace, "memory", "approval-relay-state.json")
	}
	if c.InboxFile == "" {
		c.InboxFile = filepath.Join(c.Workspace, "memory", "approval-inbox.jsonl")
	}
	if c.CredentialsFile == "" {
		c.CredentialsFile = DefaultCredentialsFile(c.Workspace)
	}
}

/* Validate checks the configuration is runnable */
func (c *Config) Validate() error {
	if c.APIBase == "" {
		return fmt.Errorf("api_base is required")
	}
	if c.BotToken == "" {
		return fmt.Errorf("bot token is required")
	}
	if c.AgentID == "" {
		return fmt.Errorf("agent_id is required")
	}
	if c.Mode != ModeRelay && c.Mode != ModeRespond {
		return fmt.Errorf("unknown mode %q (want relay or respond)", c.Mode)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval.Std())
	}
	return nil
}
