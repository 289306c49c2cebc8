// Copyright (c) 2025 AAStar Community
//
// This file is part of go-hostbridge.
//
// go-hostbridge is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@aastar.community for commercial licensing options.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestLoad_Success tests successful loading of a valid config file
func TestLoad_Success(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: "debug"
  format: "json"

bridge:
  ready_timeout: 5s
  ready_escalation: 1.0
  channel_timeout: 15s
  refresh_settle: 1s

simulation:
  profile: "arm"
  verify_delay: 500ms
  challenge_ttl: 1m
  token_secret: "test-secret"

relying_party:
  name: "Example"
  id: "example.com"
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if cfg == nil {
		t.Fatal("Load() returned nil config")
	}

	// Validate logging
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %v, want debug", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %v, want json", cfg.Logging.Format)
	}

	// Validate bridge policy
	if cfg.Bridge.ReadyTimeout != 5*time.Second {
		t.Errorf("Bridge.ReadyTimeout = %v, want 5s", cfg.Bridge.ReadyTimeout)
	}
	if cfg.Bridge.ReadyEscalation != 1.0 {
		t.Errorf("Bridge.ReadyEscalation = %v, want 1.0", cfg.Bridge.ReadyEscalation)
	}
	if cfg.Bridge.ChannelTimeout != 15*time.Second {
		t.Errorf("Bridge.ChannelTimeout = %v, want 15s", cfg.Bridge.ChannelTimeout)
	}
	if cfg.Bridge.RefreshSettle != time.Second {
		t.Errorf("Bridge.RefreshSettle = %v, want 1s", cfg.Bridge.RefreshSettle)
	}

	// Validate simulation
	if cfg.Simulation.Profile != "arm" {
		t.Errorf("Simulation.Profile = %v, want arm", cfg.Simulation.Profile)
	}
	if cfg.Simulation.VerifyDelay != 500*time.Millisecond {
		t.Errorf("Simulation.VerifyDelay = %v, want 500ms", cfg.Simulation.VerifyDelay)
	}
	if cfg.Simulation.ChallengeTTL != time.Minute {
		t.Errorf("Simulation.ChallengeTTL = %v, want 1m", cfg.Simulation.ChallengeTTL)
	}
	if cfg.Simulation.TokenSecret != "test-secret" {
		t.Errorf("Simulation.TokenSecret = %v, want test-secret", cfg.Simulation.TokenSecret)
	}

	// Validate relying party
	if cfg.RelyingParty.Name != "Example" {
		t.Errorf("RelyingParty.Name = %v, want Example", cfg.RelyingParty.Name)
	}
	if cfg.RelyingParty.ID != "example.com" {
		t.Errorf("RelyingParty.ID = %v, want example.com", cfg.RelyingParty.ID)
	}
}

// TestLoad_PartialFile tests that omitted sections keep their defaults
func TestLoad_PartialFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: "warn"
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %v, want warn", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format = %v, want default text", cfg.Logging.Format)
	}
	if cfg.Bridge.ReadyTimeout != 10*time.Second {
		t.Errorf("Bridge.ReadyTimeout = %v, want default 10s", cfg.Bridge.ReadyTimeout)
	}
	if cfg.RelyingParty.ID != "localhost" {
		t.Errorf("RelyingParty.ID = %v, want default localhost", cfg.RelyingParty.ID)
	}
}

// TestLoad_FileNotFound tests loading a non-existent config file
func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("Load() error = nil, want error for missing file")
	}
}

// TestLoad_InvalidYAML tests loading a file with invalid YAML
func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("logging: [not: valid"), 0644); err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() error = nil, want parse error")
	}
}

// TestLoad_EnvOverrides tests environment variable overrides
func TestLoad_EnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: "info"
  format: "text"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}

	t.Setenv("HOSTBRIDGE_LOG_LEVEL", "debug")
	t.Setenv("HOSTBRIDGE_LOG_FORMAT", "json")
	t.Setenv("HOSTBRIDGE_READY_TIMEOUT", "3s")
	t.Setenv("HOSTBRIDGE_CHANNEL_TIMEOUT", "7s")
	t.Setenv("HOSTBRIDGE_SIM_PROFILE", "x86")
	t.Setenv("HOSTBRIDGE_TOKEN_SECRET", "env-secret")
	t.Setenv("HOSTBRIDGE_RP_NAME", "EnvName")
	t.Setenv("HOSTBRIDGE_RP_ID", "env.example.com")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %v, want debug from env", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %v, want json from env", cfg.Logging.Format)
	}
	if cfg.Bridge.ReadyTimeout != 3*time.Second {
		t.Errorf("Bridge.ReadyTimeout = %v, want 3s from env", cfg.Bridge.ReadyTimeout)
	}
	if cfg.Bridge.ChannelTimeout != 7*time.Second {
		t.Errorf("Bridge.ChannelTimeout = %v, want 7s from env", cfg.Bridge.ChannelTimeout)
	}
	if cfg.Simulation.Profile != "x86" {
		t.Errorf("Simulation.Profile = %v, want x86 from env", cfg.Simulation.Profile)
	}
	if cfg.Simulation.TokenSecret != "env-secret" {
		t.Errorf("Simulation.TokenSecret = %v, want env-secret from env", cfg.Simulation.TokenSecret)
	}
	if cfg.RelyingParty.Name != "EnvName" {
		t.Errorf("RelyingParty.Name = %v, want EnvName from env", cfg.RelyingParty.Name)
	}
	if cfg.RelyingParty.ID != "env.example.com" {
		t.Errorf("RelyingParty.ID = %v, want env.example.com from env", cfg.RelyingParty.ID)
	}
}

// TestLoad_InvalidEnvDuration tests that a malformed duration override is
// ignored in favor of the configured value
func TestLoad_InvalidEnvDuration(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("bridge:\n  ready_timeout: 4s\n"), 0644); err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}

	t.Setenv("HOSTBRIDGE_READY_TIMEOUT", "not-a-duration")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if cfg.Bridge.ReadyTimeout != 4*time.Second {
		t.Errorf("Bridge.ReadyTimeout = %v, want 4s from file", cfg.Bridge.ReadyTimeout)
	}
}

// TestValidate tests configuration validation rules
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: true,
		},
		{
			name:    "log level case insensitive",
			mutate:  func(c *Config) { c.Logging.Level = "DEBUG" },
			wantErr: false,
		},
		{
			name:    "invalid log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: true,
		},
		{
			name:    "zero ready timeout",
			mutate:  func(c *Config) { c.Bridge.ReadyTimeout = 0 },
			wantErr: true,
		},
		{
			name:    "negative channel timeout",
			mutate:  func(c *Config) { c.Bridge.ChannelTimeout = -time.Second },
			wantErr: true,
		},
		{
			name:    "negative ready escalation",
			mutate:  func(c *Config) { c.Bridge.ReadyEscalation = -0.5 },
			wantErr: true,
		},
		{
			name:    "zero ready escalation allowed",
			mutate:  func(c *Config) { c.Bridge.ReadyEscalation = 0 },
			wantErr: false,
		},
		{
			name:    "arm profile",
			mutate:  func(c *Config) { c.Simulation.Profile = "arm" },
			wantErr: false,
		},
		{
			name:    "x86 profile",
			mutate:  func(c *Config) { c.Simulation.Profile = "x86" },
			wantErr: false,
		},
		{
			name:    "unknown profile",
			mutate:  func(c *Config) { c.Simulation.Profile = "riscv" },
			wantErr: true,
		},
		{
			name:    "zero challenge ttl",
			mutate:  func(c *Config) { c.Simulation.ChallengeTTL = 0 },
			wantErr: true,
		},
		{
			name:    "missing relying party id",
			mutate:  func(c *Config) { c.RelyingParty.ID = "" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
