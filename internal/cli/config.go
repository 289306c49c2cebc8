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

package cli

import (
	"time"

	"github.com/AAStarCommunity/go-hostbridge/internal/config"
	"github.com/AAStarCommunity/go-hostbridge/pkg/bridge"
	"github.com/AAStarCommunity/go-hostbridge/pkg/host"
	"github.com/AAStarCommunity/go-hostbridge/pkg/logging"
	"github.com/AAStarCommunity/go-hostbridge/pkg/simulation"
	"github.com/AAStarCommunity/go-hostbridge/pkg/types"
)

// Config holds global CLI configuration
type Config struct {
	// ConfigFile is the path to the configuration file
	ConfigFile string

	// Profile overrides the simulated hardware profile (arm, x86)
	Profile string

	// OutputFormat controls output formatting (json, text)
	OutputFormat string

	// Verbose enables verbose logging
	Verbose bool
}

// NewConfig returns a Config with defaults
func NewConfig() *Config {
	return &Config{
		OutputFormat: "text",
	}
}

// buildBridge constructs a bridge over a null host, so every command is
// served by the simulation engine. Useful for exercising the command
// surface without a native shell.
func buildBridge(cliCfg *Config) (*bridge.Bridge, error) {
	cfg := config.DefaultConfig()
	if cliCfg.ConfigFile != "" {
		loaded, err := config.Load(cliCfg.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	logger := logging.NewLogger(cliCfg.Verbose)

	profile := cfg.Simulation.Profile
	if cliCfg.Profile != "" {
		profile = cliCfg.Profile
	}

	opts := []simulation.Option{
		simulation.WithLogger(logger),
		simulation.WithRelyingParty(types.RelyingParty{
			Name: cfg.RelyingParty.Name,
			ID:   cfg.RelyingParty.ID,
		}, "http://"+cfg.RelyingParty.ID),
		simulation.WithChallengeTTL(cfg.Simulation.ChallengeTTL),
	}
	if profile != "" {
		opts = append(opts, simulation.WithProfileName(profile))
	}
	if cfg.Simulation.VerifyDelay > 0 {
		opts = append(opts, simulation.WithVerifyDelay(cfg.Simulation.VerifyDelay))
	} else {
		// Keep CLI verify calls snappy
		opts = append(opts, simulation.WithVerifyDelay(time.Millisecond))
	}
	if cfg.Simulation.TokenSecret != "" {
		issuer, err := simulation.NewTokenIssuer(simulation.TokenIssuerConfig{
			Secret: []byte(cfg.Simulation.TokenSecret),
		})
		if err != nil {
			return nil, err
		}
		opts = append(opts, simulation.WithTokenIssuer(issuer))
	}

	return bridge.New(bridge.Params{
		Host:      host.Null(),
		Simulator: simulation.NewEngine(opts...),
		Policy: bridge.Policy{
			ReadyTimeout:    cfg.Bridge.ReadyTimeout,
			ReadyEscalation: cfg.Bridge.ReadyEscalation,
			ChannelTimeout:  cfg.Bridge.ChannelTimeout,
			RefreshSettle:   cfg.Bridge.RefreshSettle,
		},
		Logger: logger,
	})
}
