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

// Package bridge implements the command bridge: the call layer that resolves
// which transport carries a named command into the native context, applies
// the readiness-wait and refresh retry policy, and falls back to the local
// simulation engine when no native context exists or every transport is
// exhausted. Callers never need to know which path served a call.
//
// Within one invocation, transport attempts are strictly sequential, so an
// idempotent-unsafe command can never reach the native side twice. Domain
// errors returned by the native context propagate verbatim; only
// transport-level failures drive the internal retry and fallback machinery.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/AAStarCommunity/go-hostbridge/pkg/env"
	"github.com/AAStarCommunity/go-hostbridge/pkg/host"
	"github.com/AAStarCommunity/go-hostbridge/pkg/logging"
	"github.com/AAStarCommunity/go-hostbridge/pkg/metrics"
	"github.com/AAStarCommunity/go-hostbridge/pkg/simulation"
	"github.com/AAStarCommunity/go-hostbridge/pkg/transport"
	"github.com/AAStarCommunity/go-hostbridge/pkg/types"
)

// Policy bundles the tunables that differed between historical variants of
// the invoke layer. Differences are configuration here, not code paths.
type Policy struct {
	// ReadyTimeout bounds the first readiness wait.
	ReadyTimeout time.Duration

	// ReadyEscalation grows the readiness timeout per successive wait:
	// timeout * (1 + min(attempt, 3) * ReadyEscalation).
	ReadyEscalation float64

	// ChannelTimeout bounds one message-channel round trip.
	ChannelTimeout time.Duration

	// RefreshSettle is how long the bridge gives the native shell to
	// re-establish bindings after a rebind request.
	RefreshSettle time.Duration
}

// DefaultPolicy returns the production policy.
func DefaultPolicy() Policy {
	return Policy{
		ReadyTimeout:    10 * time.Second,
		ReadyEscalation: 0.5,
		ChannelTimeout:  transport.DefaultChannelTimeout,
		RefreshSettle:   2 * time.Second,
	}
}

func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.ReadyTimeout <= 0 {
		p.ReadyTimeout = d.ReadyTimeout
	}
	if p.ReadyEscalation <= 0 {
		p.ReadyEscalation = d.ReadyEscalation
	}
	if p.ChannelTimeout <= 0 {
		p.ChannelTimeout = d.ChannelTimeout
	}
	if p.RefreshSettle <= 0 {
		p.RefreshSettle = d.RefreshSettle
	}
	return p
}

// Params contains dependencies for creating a Bridge.
type Params struct {
	// Host is the ambient process surface (required).
	Host host.Host

	// Simulator serves calls when no native path is live. Defaults to a
	// fresh simulation engine.
	Simulator *simulation.Engine

	// Detector resolves native-context presence. Defaults to a detector
	// over Host.
	Detector *env.Detector

	// Transports overrides the transport priority order. Defaults to
	// binding, internals, channel.
	Transports []transport.Transport

	// Policy tunes timeouts and retry behavior.
	Policy Policy

	// Logger defaults to logging.DefaultLogger().
	Logger *logging.Logger
}

// Bridge resolves and dispatches named commands.
type Bridge struct {
	host       host.Host
	detector   *env.Detector
	transports []transport.Transport
	sim        *simulation.Engine
	policy     Policy
	logger     *logging.Logger

	// readiness waits collapse into one shared wait; waitAttempts escalates
	// the timeout across successive unsuccessful waits.
	ready        singleflight.Group
	waitAttempts atomic.Int32
}

// New creates a Bridge.
func New(params Params) (*Bridge, error) {
	if params.Host == nil {
		return nil, errors.New("host is required")
	}
	logger := params.Logger
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	policy := params.Policy.withDefaults()

	sim := params.Simulator
	if sim == nil {
		sim = simulation.NewEngine(simulation.WithLogger(logger))
	}
	detector := params.Detector
	if detector == nil {
		detector = env.NewDetector(params.Host, env.WithLogger(logger))
	}
	transports := params.Transports
	if transports == nil {
		transports = []transport.Transport{
			transport.NewBindingTransport(params.Host),
			transport.NewInternalsTransport(params.Host),
			transport.NewChannelTransport(params.Host,
				transport.WithTimeout(policy.ChannelTimeout),
				transport.WithChannelLogger(logger)),
		}
	}

	return &Bridge{
		host:       params.Host,
		detector:   detector,
		transports: transports,
		sim:        sim,
		policy:     policy,
		logger:     logger,
	}, nil
}

// State returns the current environment state.
func (b *Bridge) State() env.State {
	return b.detector.State()
}

// Simulator returns the engine serving fallback calls.
func (b *Bridge) Simulator() *simulation.Engine {
	return b.sim
}

// Invoke dispatches one named command and returns its raw result or its
// domain error. Transport failures and timeouts never surface here; after
// the full retry sequence the call is served by the simulation engine
// instead, an availability-over-correctness policy that keeps the UI alive
// while the native shell is slow to initialize.
func (b *Bridge) Invoke(ctx context.Context, command string, args types.Args) (json.RawMessage, error) {
	started := time.Now()

	if !b.detector.NativeContextPresent(ctx) {
		b.logger.Debug("no native context, simulating", "command", command)
		metrics.RecordFallback(metrics.ReasonNoNativeContext)
		res, err := b.sim.Invoke(ctx, command, args)
		metrics.RecordInvocation(command, metrics.RouteSimulation, err, started)
		return res, err
	}

	// First pass over the transport sequence.
	res, err, served := b.attemptTransports(ctx, command, args)

	// One shared readiness wait, then a second pass.
	if !served {
		b.waitForReady(ctx)
		res, err, served = b.attemptTransports(ctx, command, args)
	}

	// Ask the shell to re-establish bindings, then a final pass.
	if !served {
		b.refresh(ctx)
		res, err, served = b.attemptTransports(ctx, command, args)
	}

	if served {
		metrics.RecordInvocation(command, metrics.RouteNative, err, started)
		return res, err
	}

	b.logger.Warn("transports exhausted, falling back to simulation", "command", command)
	metrics.RecordFallback(metrics.ReasonTransportExhausted)
	res, err = b.sim.Invoke(ctx, command, args)
	metrics.RecordInvocation(command, metrics.RouteSimulation, err, started)
	return res, err
}

// attemptTransports walks the transport priority order once. served is true
// when a transport produced a terminal answer: a result, or a domain error
// that must propagate. Transport-level failures advance to the next
// transport instead.
func (b *Bridge) attemptTransports(ctx context.Context, command string, args types.Args) (json.RawMessage, error, bool) {
	for _, t := range b.transports {
		if !t.Available() {
			continue
		}
		res, err := t.Invoke(ctx, command, args)
		metrics.RecordTransportAttempt(t.Name(), err)
		if err == nil {
			b.detector.SetBridgeReady(true)
			return res, nil, true
		}
		if transport.IsTransportError(err) {
			b.logger.Debug("transport attempt failed",
				"transport", t.Name(), "command", command, "error", err.Error())
			continue
		}
		// Domain error: terminal, never retried, never triggers fallback.
		return nil, err, true
	}
	return nil, nil, false
}

// waitForReady blocks until the native API announces readiness or the
// escalated timeout elapses. Concurrent callers collapse into a single
// underlying wait; calls issued while a wait is in progress queue behind it
// rather than starting their own timers.
func (b *Bridge) waitForReady(ctx context.Context) bool {
	ready, _, _ := b.ready.Do("ready", func() (any, error) {
		timeout := b.escalatedReadyTimeout()
		b.logger.Debug("waiting for native api readiness", "timeout", timeout.String())

		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case <-b.host.Ready():
			b.waitAttempts.Store(0)
			return true, nil
		case <-timer.C:
			b.waitAttempts.Add(1)
			return false, nil
		case <-ctx.Done():
			return false, nil
		}
	})

	ok := ready.(bool)
	metrics.RecordReadinessWait(ok)
	return ok
}

func (b *Bridge) escalatedReadyTimeout() time.Duration {
	attempt := math.Min(float64(b.waitAttempts.Load()), 3)
	return time.Duration(float64(b.policy.ReadyTimeout) * (1 + attempt*b.policy.ReadyEscalation))
}

// refresh asks the native shell to re-establish its bindings and gives it a
// bounded settle window. Errors are negative signals only.
func (b *Bridge) refresh(ctx context.Context) {
	b.logger.Debug("requesting native binding refresh")
	if err := b.host.RequestRebind(); err != nil {
		b.logger.Debug("rebind request failed", "error", err.Error())
		return
	}

	timer := time.NewTimer(b.policy.RefreshSettle)
	defer timer.Stop()
	select {
	case <-b.host.Ready():
	case <-timer.C:
	case <-ctx.Done():
	}
}

// Listen subscribes to a named native event. In a native context the
// subscription is backed by the host's event surface; otherwise the caller
// gets a silent subscription whose cancel closes the stream, so UI code can
// register listeners unconditionally.
func (b *Bridge) Listen(ctx context.Context, event string) (<-chan json.RawMessage, func(), error) {
	if b.detector.NativeContextPresent(ctx) {
		if ch, cancel, ok := b.host.Subscribe(event); ok {
			return ch, cancel, nil
		}
	}

	b.logger.Debug("creating simulated event subscription", "event", event)
	ch := make(chan json.RawMessage)
	var once sync.Once
	cancel := func() {
		once.Do(func() { close(ch) })
	}
	return ch, cancel, nil
}
