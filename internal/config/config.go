// Package config loads and saves tmuxctl's connection settings.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sergeknystautas/tmuxctl/internal/version"
)

var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrInvalidConfig  = errors.New("invalid config")
)

const (
	// DefaultTerminalWidth and DefaultTerminalHeight seed the refresh-client
	// call ControlSession.AttachSession sends right after attaching.
	DefaultTerminalWidth  = 80
	DefaultTerminalHeight = 24

	// DefaultCommandTimeoutMs is the default for Config.CommandTimeoutMs. No
	// code in this module reads that setting: control-mode commands are
	// written without waiting for their %begin/%end envelope.
	DefaultCommandTimeoutMs = 10000

	// DefaultSessionName is used when the user doesn't name a session.
	DefaultSessionName = "tmuxctl"
)

// Remote describes how to reach a remote tmux server over ssh, instead of
// spawning a local tmux directly. Non-goal: this module stops at invoking an
// external shell-tunneling command; it does not manage remote provisioning.
type Remote struct {
	Host string   `json:"host"`
	Args []string `json:"args,omitempty"` // extra args passed to the ssh invocation
}

// Config is tmuxctl's on-disk settings file: the handful of values needed to
// open a control-mode session, nothing about workspaces, repos, or UI state.
type Config struct {
	SessionName      string  `json:"session_name"`
	Remote           *Remote `json:"remote,omitempty"`
	TerminalWidth    int     `json:"terminal_width,omitempty"`
	TerminalHeight   int     `json:"terminal_height,omitempty"`
	CommandTimeoutMs int     `json:"command_timeout_ms,omitempty"`

	// ConfigVersion records the tmuxctl build that last wrote this file.
	ConfigVersion string `json:"config_version,omitempty"`

	// path is where this config was loaded from / should be saved to.
	path string
}

// CreateDefault returns a Config with tmuxctl's defaults, bound to configPath
// for a subsequent Save.
func CreateDefault(configPath string) *Config {
	return &Config{
		SessionName:      DefaultSessionName,
		TerminalWidth:    DefaultTerminalWidth,
		TerminalHeight:   DefaultTerminalHeight,
		CommandTimeoutMs: DefaultCommandTimeoutMs,
		ConfigVersion:    version.Version,
		path:             configPath,
	}
}

// Load reads the configuration from configPath.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	cfg.path = configPath

	if cfg.SessionName == "" {
		cfg.SessionName = DefaultSessionName
	}
	if cfg.TerminalWidth <= 0 {
		cfg.TerminalWidth = DefaultTerminalWidth
	}
	if cfg.TerminalHeight <= 0 {
		cfg.TerminalHeight = DefaultTerminalHeight
	}
	if cfg.CommandTimeoutMs <= 0 {
		cfg.CommandTimeoutMs = DefaultCommandTimeoutMs
	}

	return &cfg, nil
}

// Save writes the config to the path it was loaded from or created with.
func (c *Config) Save() error {
	if c.path == "" {
		return fmt.Errorf("config path not set: use Load() or CreateDefault() with a path")
	}

	c.ConfigVersion = version.Version

	dir := filepath.Dir(c.path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// DefaultPath returns the standard location of tmuxctl's config file.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(dir, "tmuxctl", "config.json"), nil
}

// LoadDefault loads the config from DefaultPath, returning a fresh in-memory
// default (not yet saved) if none exists yet.
func LoadDefault() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}

	cfg, err := Load(path)
	if err != nil {
		if errors.Is(err, ErrConfigNotFound) {
			return CreateDefault(path), nil
		}
		return nil, err
	}
	return cfg, nil
}

// Path returns the file this config was (or will be) saved to.
func (c *Config) Path() string {
	return c.path
}
