// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for pdfchat.
//
// Configuration is TOML at ~/.pdfchat/config.toml, with built-in defaults
// and environment variable overrides applied last.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/pdfchat-tui/internal/util"
)

// Environment variables recognized by ApplyEnvOverrides.
const (
	EnvServerURL  = "PDFCHAT_SERVER_URL"
	EnvSessionDir = "PDFCHAT_SESSION_DIR"
	EnvWatchDir   = "PDFCHAT_WATCH_DIR"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete pdfchat configuration.
type Config struct {
	// ServerURL is the base URL of the backend server
	ServerURL string `toml:"server_url"`

	// TimeoutSecs is the request timeout for non-streaming calls in seconds
	TimeoutSecs int `toml:"timeout_secs"`

	// PollIntervalMS is the upload job poll interval in milliseconds
	PollIntervalMS int `toml:"poll_interval_ms"`

	// HistoryLimit is the maximum number of messages fetched when resuming
	HistoryLimit int `toml:"history_limit"`

	// WatchDir is the drop directory for automatic uploads ("" disables)
	WatchDir string `toml:"watch_dir"`

	// Archive configuration
	Archive ArchiveConfig `toml:"archive"`

	// UI configuration
	UI UIConfig `toml:"ui"`
}

// ArchiveConfig controls the local conversation archive.
type ArchiveConfig struct {
	// Enabled controls whether conversations are archived locally
	Enabled bool `toml:"enabled"`
	// Path is the SQLite database path (empty = default ~/.pdfchat/archive.db)
	Path string `toml:"path"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme"`
	// ShowReferences displays source references under assistant answers
	ShowReferences bool `toml:"show_references"`
	// CompactMode uses a more compact UI layout
	CompactMode bool `toml:"compact_mode"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		ServerURL:      "http://localhost:8000",
		TimeoutSecs:    60,
		PollIntervalMS: 2000,
		HistoryLimit:   50,
		WatchDir:       "",

		Archive: ArchiveConfig{
			Enabled: true,
			Path:    "",
		},

		UI: UIConfig{
			Theme:          "dark",
			ShowReferences: true,
			CompactMode:    false,
		},
	}
}

// PollInterval returns the poll interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// Timeout returns the request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the pdfchat configuration directory path.
// PDFCHAT_SESSION_DIR overrides the default ~/.pdfchat.
func ConfigDir() (string, error) {
	if dir := os.Getenv(EnvSessionDir); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".pdfchat"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ArchivePath returns the SQLite archive path, honoring the config override.
func (c *Config) ArchivePath() (string, error) {
	if c.Archive.Path != "" {
		return c.Archive.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "archive.db"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD AND SAVE
// =============================================================================

// Load loads configuration from the config file, falling back to defaults
// when the file does not exist. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific file path with full
// validation. A missing file is not an error: defaults are used.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnvOverrides applies environment variable overrides.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv(EnvServerURL); v != "" {
		c.ServerURL = v
	}
	if v := os.Getenv(EnvWatchDir); v != "" {
		c.WatchDir = v
	}
}

// SetDefaults fills in zero values with defaults after loading.
func (c *Config) SetDefaults() {
	defaults := Default()
	if c.ServerURL == "" {
		c.ServerURL = defaults.ServerURL
	}
	if c.TimeoutSecs <= 0 {
		c.TimeoutSecs = defaults.TimeoutSecs
	}
	if c.PollIntervalMS <= 0 {
		c.PollIntervalMS = defaults.PollIntervalMS
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = defaults.HistoryLimit
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
}

// Save saves the configuration to the default TOML file.
// The write is atomic with fsync so a crash never leaves a torn file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveToPath(cfg, path)
}

// SaveToPath saves the configuration to a specific TOML file.
func SaveToPath(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("# pdfchat configuration file\n")
	sb.WriteString("# Generated by pdfchat - edit with care\n\n")
	encoder := toml.NewEncoder(&sb)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, []byte(sb.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ValidationError{Field: "server_url", Message: "must be an absolute http(s) URL"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ValidationError{Field: "server_url", Message: "scheme must be http or https"}
	}
	if c.PollIntervalMS < 100 {
		return ValidationError{Field: "poll_interval_ms", Message: "must be at least 100"}
	}
	switch c.UI.Theme {
	case "dark", "light", "auto":
	default:
		return ValidationError{Field: "ui.theme", Message: "must be dark, light, or auto"}
	}
	return nil
}

// =============================================================================
// KEY ACCESS (config show / config set)
// =============================================================================

// Keys lists the settable configuration keys.
func Keys() []string {
	return []string{
		"server_url",
		"timeout_secs",
		"poll_interval_ms",
		"history_limit",
		"watch_dir",
		"archive.enabled",
		"archive.path",
		"ui.theme",
		"ui.show_references",
		"ui.compact_mode",
	}
}

// Get returns the value of a configuration key as a string.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "server_url":
		return c.ServerURL, nil
	case "timeout_secs":
		return strconv.Itoa(c.TimeoutSecs), nil
	case "poll_interval_ms":
		return strconv.Itoa(c.PollIntervalMS), nil
	case "history_limit":
		return strconv.Itoa(c.HistoryLimit), nil
	case "watch_dir":
		return c.WatchDir, nil
	case "archive.enabled":
		return strconv.FormatBool(c.Archive.Enabled), nil
	case "archive.path":
		return c.Archive.Path, nil
	case "ui.theme":
		return c.UI.Theme, nil
	case "ui.show_references":
		return strconv.FormatBool(c.UI.ShowReferences), nil
	case "ui.compact_mode":
		return strconv.FormatBool(c.UI.CompactMode), nil
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
}

// Set updates a configuration key from its string representation.
// The updated config is validated before Set returns.
func (c *Config) Set(key, value string) error {
	switch key {
	case "server_url":
		c.ServerURL = value
	case "timeout_secs":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("timeout_secs: %w", err)
		}
		c.TimeoutSecs = n
	case "poll_interval_ms":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("poll_interval_ms: %w", err)
		}
		c.PollIntervalMS = n
	case "history_limit":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("history_limit: %w", err)
		}
		c.HistoryLimit = n
	case "watch_dir":
		c.WatchDir = value
	case "archive.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("archive.enabled: %w", err)
		}
		c.Archive.Enabled = b
	case "archive.path":
		c.Archive.Path = value
	case "ui.theme":
		c.UI.Theme = value
	case "ui.show_references":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("ui.show_references: %w", err)
		}
		c.UI.ShowReferences = b
	case "ui.compact_mode":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("ui.compact_mode: %w", err)
		}
		c.UI.CompactMode = b
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	c.SetDefaults()
	return c.Validate()
}
