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

// Package env implements the environment detector: the prioritized sequence
// of checks that decides whether a trusted native execution context is
// reachable from the current process. The result is memoized until
// explicitly invalidated, and detection never fails; probe errors are
// negative signals, not faults.
package env

import (
	"context"
	"sync"

	"github.com/AAStarCommunity/go-hostbridge/pkg/host"
	"github.com/AAStarCommunity/go-hostbridge/pkg/logging"
	"github.com/AAStarCommunity/go-hostbridge/pkg/types"
)

// Signal identifies which detection check fired first.
type Signal string

const (
	// SignalMarker is the explicit boolean marker set at process start.
	SignalMarker Signal = "marker"
	// SignalBinding is the presence of the official invoke-capable handle.
	SignalBinding Signal = "binding"
	// SignalInternals is the presence of the internal API handle.
	SignalInternals Signal = "internals"
	// SignalChannel is the presence of a raw message channel.
	SignalChannel Signal = "channel"
	// SignalScheme is a custom URL scheme implying a native shell.
	SignalScheme Signal = "scheme"
	// SignalLoadedBinding is a successful dynamic binding load plus probe.
	SignalLoadedBinding Signal = "loaded_binding"
	// SignalNone means no check fired.
	SignalNone Signal = "none"
)

// State is the process-wide environment state owned by the bridge.
// BridgeReady can only be true while NativeContextPresent is true; the
// simulation route never marks the bridge ready.
type State struct {
	NativeContextPresent bool
	BridgeReady          bool
}

// Option configures a Detector.
type Option func(*Detector)

// WithSchemes overrides the URL schemes treated as native-shell schemes.
func WithSchemes(schemes ...string) Option {
	return func(d *Detector) {
		d.schemes = schemes
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(d *Detector) {
		d.logger = logger
	}
}

// Detector resolves and caches whether a native context is present.
// It is safe for concurrent use.
type Detector struct {
	mu      sync.Mutex
	host    host.Host
	logger  *logging.Logger
	schemes []string
	done    bool
	state   State
	signal  Signal
}

// NewDetector creates a detector over the given host surface.
func NewDetector(h host.Host, opts ...Option) *Detector {
	d := &Detector{
		host:    h,
		logger:  logging.DefaultLogger(),
		schemes: []string{"tauri", "asset"},
		signal:  SignalNone,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NativeContextPresent reports whether a native context is reachable. The
// first call runs the detection sequence; subsequent calls return the
// memoized answer until Invalidate.
func (d *Detector) NativeContextPresent(ctx context.Context) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.done {
		return d.state.NativeContextPresent
	}

	present, signal := d.detect(ctx)
	d.done = true
	d.state.NativeContextPresent = present
	d.signal = signal
	if !present {
		d.state.BridgeReady = false
	}
	d.logger.Debug("environment detection complete",
		"native_context", present, "signal", string(signal))
	return present
}

// Signal returns the detection signal that fired, or SignalNone.
func (d *Detector) Signal() Signal {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.signal
}

// State returns a copy of the current environment state.
func (d *Detector) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// SetBridgeReady records whether the active transport has confirmed it can
// accept calls. Readiness is refused while no native context is present.
func (d *Detector) SetBridgeReady(ready bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if ready && !(d.done && d.state.NativeContextPresent) {
		return
	}
	d.state.BridgeReady = ready
}

// Invalidate discards the memoized detection result and readiness state.
// The next NativeContextPresent call re-runs the sequence.
func (d *Detector) Invalidate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.done = false
	d.state = State{}
	d.signal = SignalNone
}

// detect runs the prioritized check sequence. First match wins. Callers hold
// the mutex; the only blocking step is the dynamic binding probe, which is
// bounded by the caller's context.
func (d *Detector) detect(ctx context.Context) (present bool, signal Signal) {
	// Probe errors and panics are negative signals, never faults.
	defer func() {
		if r := recover(); r != nil {
			d.logger.Debug("detection probe panicked, treating as negative", "panic", r)
			present, signal = false, SignalNone
		}
	}()

	if d.host.MarkerFlag() {
		return true, SignalMarker
	}
	if d.host.Binding() != nil {
		return true, SignalBinding
	}
	if d.host.Internals() != nil {
		return true, SignalInternals
	}
	if d.host.Channel() != nil {
		return true, SignalChannel
	}
	scheme := d.host.LocationScheme()
	for _, s := range d.schemes {
		if scheme == s {
			return true, SignalScheme
		}
	}
	if invoke, err := d.host.LoadBinding(ctx); err == nil && invoke != nil {
		if _, err := invoke(ctx, host.ProbeCommand, types.Args{}); err == nil {
			return true, SignalLoadedBinding
		}
	}
	return false, SignalNone
}
