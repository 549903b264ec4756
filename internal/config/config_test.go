// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.ServerURL != "http://localhost:8000" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.PollInterval() != 2000*time.Millisecond {
		t.Errorf("PollInterval = %v", cfg.PollInterval())
	}
	if cfg.Timeout() != 60*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.ServerURL != Default().ServerURL {
		t.Errorf("ServerURL = %q, want default", cfg.ServerURL)
	}
}

func TestLoadFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
server_url = "http://example.com:9000"
poll_interval_ms = 500

[ui]
theme = "light"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.ServerURL != "http://example.com:9000" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.PollIntervalMS != 500 {
		t.Errorf("PollIntervalMS = %d", cfg.PollIntervalMS)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("Theme = %q", cfg.UI.Theme)
	}
	// Unset values fall back to defaults.
	if cfg.TimeoutSecs != 60 {
		t.Errorf("TimeoutSecs = %d, want default 60", cfg.TimeoutSecs)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvServerURL, "http://override:8080")
	t.Setenv(EnvWatchDir, "/tmp/drops")

	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.ServerURL != "http://override:8080" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.WatchDir != "/tmp/drops" {
		t.Errorf("WatchDir = %q", cfg.WatchDir)
	}
}

func TestConfigDirEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvSessionDir, dir)

	got, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir: %v", err)
	}
	if got != dir {
		t.Errorf("ConfigDir = %q, want %q", got, dir)
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.ServerURL = "https://pdfchat.example.com"
	cfg.HistoryLimit = 10
	cfg.UI.CompactMode = true

	if err := SaveToPath(cfg, path); err != nil {
		t.Fatalf("SaveToPath: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("config file permissions = %o, want 0600", info.Mode().Perm())
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if loaded.ServerURL != cfg.ServerURL {
		t.Errorf("ServerURL = %q", loaded.ServerURL)
	}
	if loaded.HistoryLimit != 10 || !loaded.UI.CompactMode {
		t.Errorf("reloaded config = %+v", loaded)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"default", func(c *Config) {}, true},
		{"https url", func(c *Config) { c.ServerURL = "https://host" }, true},
		{"relative url", func(c *Config) { c.ServerURL = "localhost:8000" }, false},
		{"bad scheme", func(c *Config) { c.ServerURL = "ftp://host" }, false},
		{"empty url", func(c *Config) { c.ServerURL = "" }, false},
		{"poll too fast", func(c *Config) { c.PollIntervalMS = 50 }, false},
		{"bad theme", func(c *Config) { c.UI.Theme = "neon" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.valid && err != nil {
				t.Errorf("Validate: %v", err)
			}
			if !tt.valid && err == nil {
				t.Error("Validate accepted an invalid config")
			}
		})
	}
}

func TestGetSet(t *testing.T) {
	cfg := Default()

	if err := cfg.Set("server_url", "http://other:8000"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, _ := cfg.Get("server_url"); got != "http://other:8000" {
		t.Errorf("Get = %q", got)
	}

	if err := cfg.Set("ui.show_references", "false"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if cfg.UI.ShowReferences {
		t.Error("ui.show_references not updated")
	}

	if err := cfg.Set("poll_interval_ms", "banana"); err == nil {
		t.Error("Set accepted a non-numeric poll interval")
	}
	if err := cfg.Set("ui.theme", "neon"); err == nil {
		t.Error("Set accepted an invalid theme")
	}
	if err := cfg.Set("no_such_key", "x"); err == nil {
		t.Error("Set accepted an unknown key")
	}
	if _, err := cfg.Get("no_such_key"); err == nil {
		t.Error("Get accepted an unknown key")
	}

	// Every advertised key round-trips through Get.
	for _, key := range Keys() {
		if _, err := cfg.Get(key); err != nil {
			t.Errorf("Get(%q): %v", key, err)
		}
	}
}
