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

// Package host models the ambient process surface a UI process probes to
// discover a native execution context. A Host exposes the marker flag, the
// invoke-capable binding handles, the raw message channel, and the
// readiness/rebind signals that the environment detector and the command
// bridge consume. Implementations wrap a real shell's injected surface;
// ScriptedHost provides a fully in-memory stand-in for tests.
package host

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/AAStarCommunity/go-hostbridge/pkg/types"
)

// ErrNoBinding is returned by LoadBinding when no binding module can be
// loaded in the current process.
var ErrNoBinding = errors.New("host: no binding module available")

// ProbeCommand is the no-op capability probe issued against a dynamically
// loaded binding. A native context answers it without side effects.
const ProbeCommand = "ping"

// InvokeFunc is a direct entry point into the native context. Domain
// failures are returned as ordinary errors; implementations signal a broken
// or missing binding by panicking or returning a transport-level error,
// which the caller recovers from and treats as unavailability.
type InvokeFunc func(ctx context.Context, command string, args types.Args) (json.RawMessage, error)

// MessageChannel is the lowest-level call surface: a postMessage-style
// duplex byte channel with no built-in correlation. The channel transport
// layers request/response matching on top of it.
type MessageChannel interface {
	// Post sends one outbound frame.
	Post(payload []byte) error

	// Receive returns the stream of inbound frames. The channel is closed
	// when the peer goes away.
	Receive() <-chan []byte
}

// Host is the ambient surface of the current process. Accessors return their
// zero value (nil, false, "") when the corresponding handle is absent; they
// never block and never fail.
type Host interface {
	// MarkerFlag reports the explicit native-context marker set at process
	// start, the highest-priority detection signal.
	MarkerFlag() bool

	// Binding returns the official invoke-capable API handle, or nil.
	Binding() InvokeFunc

	// Internals returns the secondary internal API handle, or nil.
	Internals() InvokeFunc

	// Channel returns the raw message channel, or nil.
	Channel() MessageChannel

	// LocationScheme returns the URL scheme the process was loaded from.
	LocationScheme() string

	// LoadBinding attempts a dynamic load of the official binding module.
	// Callers follow a successful load with a ProbeCommand call; any error
	// from either step is a negative detection signal, not a fault.
	LoadBinding(ctx context.Context) (InvokeFunc, error)

	// Ready returns a channel that receives a value (or is closed) when the
	// native API announces it is ready to accept calls.
	Ready() <-chan struct{}

	// RequestRebind asks the native shell to re-establish its bindings.
	RequestRebind() error

	// Subscribe registers for a named native event. It returns the event
	// payload stream and a cancel function, or ok=false when the host has no
	// event surface.
	Subscribe(event string) (payloads <-chan json.RawMessage, cancel func(), ok bool)
}

// Null returns a Host with nothing present: no marker, no bindings, no
// channel. Detection against it always resolves to "no native context",
// routing every call to the simulation engine. This is the host of record
// for plain CLI and test processes.
func Null() Host {
	return nullHost{ready: make(chan struct{})}
}

type nullHost struct {
	ready chan struct{}
}

func (nullHost) MarkerFlag() bool          { return false }
func (nullHost) Binding() InvokeFunc       { return nil }
func (nullHost) Internals() InvokeFunc     { return nil }
func (nullHost) Channel() MessageChannel   { return nil }
func (nullHost) LocationScheme() string    { return "https" }
func (h nullHost) Ready() <-chan struct{}  { return h.ready }
func (nullHost) RequestRebind() error      { return nil }

func (nullHost) LoadBinding(ctx context.Context) (InvokeFunc, error) {
	return nil, ErrNoBinding
}

func (nullHost) Subscribe(string) (<-chan json.RawMessage, func(), bool) {
	return nil, nil, false
}
