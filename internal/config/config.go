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
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete bridge configuration
type Config struct {
	Logging      LoggingConfig      `yaml:"logging"`
	Bridge       BridgeConfig       `yaml:"bridge"`
	Simulation   SimulationConfig   `yaml:"simulation"`
	RelyingParty RelyingPartyConfig `yaml:"relying_party"`
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// BridgeConfig tunes transport resolution and retry policy
type BridgeConfig struct {
	ReadyTimeout    time.Duration `yaml:"ready_timeout"`
	ReadyEscalation float64       `yaml:"ready_escalation"`
	ChannelTimeout  time.Duration `yaml:"channel_timeout"`
	RefreshSettle   time.Duration `yaml:"refresh_settle"`
}

// SimulationConfig selects and tunes the local simulation engine
type SimulationConfig struct {
	Profile      string        `yaml:"profile"` // arm, x86, or empty for auto
	VerifyDelay  time.Duration `yaml:"verify_delay"`
	ChallengeTTL time.Duration `yaml:"challenge_ttl"`
	TokenSecret  string        `yaml:"token_secret"`
}

// RelyingPartyConfig identifies the WebAuthn relying party
type RelyingPartyConfig struct {
	Name string `yaml:"name"`
	ID   string `yaml:"id"`
}

// DefaultConfig returns the configuration used when no file is supplied
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Bridge: BridgeConfig{
			ReadyTimeout:    10 * time.Second,
			ReadyEscalation: 0.5,
			ChannelTimeout:  30 * time.Second,
			RefreshSettle:   2 * time.Second,
		},
		Simulation: SimulationConfig{
			VerifyDelay:  1500 * time.Millisecond,
			ChallengeTTL: 2 * time.Minute,
		},
		RelyingParty: RelyingPartyConfig{
			Name: "AAStar",
			ID:   "localhost",
		},
	}
}

// Load reads configuration from a YAML file and applies environment variable overrides
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	// #nosec G304 - Config file path is provided by admin/user
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration
func applyEnvOverrides(cfg *Config) {
	if level := os.Getenv("HOSTBRIDGE_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if format := os.Getenv("HOSTBRIDGE_LOG_FORMAT"); format != "" {
		cfg.Logging.Format = format
	}

	if timeout := os.Getenv("HOSTBRIDGE_READY_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			log.Printf("Warning: invalid HOSTBRIDGE_READY_TIMEOUT value %q, using default %s: %v",
				timeout, cfg.Bridge.ReadyTimeout, err)
		} else {
			cfg.Bridge.ReadyTimeout = d
		}
	}
	if timeout := os.Getenv("HOSTBRIDGE_CHANNEL_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			log.Printf("Warning: invalid HOSTBRIDGE_CHANNEL_TIMEOUT value %q, using default %s: %v",
				timeout, cfg.Bridge.ChannelTimeout, err)
		} else {
			cfg.Bridge.ChannelTimeout = d
		}
	}

	if profile := os.Getenv("HOSTBRIDGE_SIM_PROFILE"); profile != "" {
		cfg.Simulation.Profile = profile
	}
	if secret := os.Getenv("HOSTBRIDGE_TOKEN_SECRET"); secret != "" {
		cfg.Simulation.TokenSecret = secret
	}

	if name := os.Getenv("HOSTBRIDGE_RP_NAME"); name != "" {
		cfg.RelyingParty.Name = name
	}
	if id := os.Getenv("HOSTBRIDGE_RP_ID"); id != "" {
		cfg.RelyingParty.ID = id
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true,
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, error, or fatal)", c.Logging.Level)
	}

	validFormats := map[string]bool{
		"json": true, "text": true,
	}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("invalid log format: %s (must be json or text)", c.Logging.Format)
	}

	if c.Bridge.ReadyTimeout <= 0 {
		return fmt.Errorf("bridge ready_timeout must be positive")
	}
	if c.Bridge.ChannelTimeout <= 0 {
		return fmt.Errorf("bridge channel_timeout must be positive")
	}
	if c.Bridge.ReadyEscalation < 0 {
		return fmt.Errorf("bridge ready_escalation must not be negative")
	}

	switch c.Simulation.Profile {
	case "", "arm", "x86":
	default:
		return fmt.Errorf("invalid simulation profile: %s (must be arm or x86)", c.Simulation.Profile)
	}
	if c.Simulation.ChallengeTTL <= 0 {
		return fmt.Errorf("simulation challenge_ttl must be positive")
	}

	if c.RelyingParty.ID == "" {
		return fmt.Errorf("relying_party id must be specified")
	}

	return nil
}
