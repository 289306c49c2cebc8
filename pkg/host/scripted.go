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

package host

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/AAStarCommunity/go-hostbridge/pkg/types"
)

// ScriptedHost is a fully in-memory Host whose surface is assembled by the
// caller. Every handle starts absent; tests attach exactly the signals the
// scenario needs. It is safe for concurrent use.
type ScriptedHost struct {
	mu        sync.Mutex
	marker    bool
	binding   InvokeFunc
	internals InvokeFunc
	channel   MessageChannel
	scheme    string
	loader    func(ctx context.Context) (InvokeFunc, error)
	ready     chan struct{}
	rebind    func() error
	events    map[string][]chan json.RawMessage
}

// NewScriptedHost creates a ScriptedHost with nothing present and an https
// location scheme.
func NewScriptedHost() *ScriptedHost {
	return &ScriptedHost{
		scheme: "https",
		ready:  make(chan struct{}, 1),
		events: make(map[string][]chan json.RawMessage),
	}
}

// SetMarkerFlag sets the explicit native-context marker.
func (h *ScriptedHost) SetMarkerFlag(v bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.marker = v
}

// SetBinding attaches (or detaches, with nil) the official API handle.
func (h *ScriptedHost) SetBinding(f InvokeFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.binding = f
}

// SetInternals attaches the secondary internal API handle.
func (h *ScriptedHost) SetInternals(f InvokeFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.internals = f
}

// SetChannel attaches the raw message channel.
func (h *ScriptedHost) SetChannel(c MessageChannel) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.channel = c
}

// SetLocationScheme overrides the URL scheme.
func (h *ScriptedHost) SetLocationScheme(scheme string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.scheme = scheme
}

// SetLoader installs the dynamic binding loader.
func (h *ScriptedHost) SetLoader(f func(ctx context.Context) (InvokeFunc, error)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.loader = f
}

// SetRebind installs the rebind handler invoked by RequestRebind.
func (h *ScriptedHost) SetRebind(f func() error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rebind = f
}

// SignalReady announces that the native API is ready. Signals sent while no
// waiter is pending are buffered (depth 1) so a wait that starts just after
// the signal still observes it.
func (h *ScriptedHost) SignalReady() {
	select {
	case h.ready <- struct{}{}:
	default:
	}
}

// Emit publishes a payload to every subscriber of the named event.
func (h *ScriptedHost) Emit(event string, payload json.RawMessage) {
	h.mu.Lock()
	subs := make([]chan json.RawMessage, len(h.events[event]))
	copy(subs, h.events[event])
	h.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- payload:
		default:
		}
	}
}

func (h *ScriptedHost) MarkerFlag() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.marker
}

func (h *ScriptedHost) Binding() InvokeFunc {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.binding
}

func (h *ScriptedHost) Internals() InvokeFunc {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.internals
}

func (h *ScriptedHost) Channel() MessageChannel {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.channel
}

func (h *ScriptedHost) LocationScheme() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.scheme
}

func (h *ScriptedHost) LoadBinding(ctx context.Context) (InvokeFunc, error) {
	h.mu.Lock()
	loader := h.loader
	h.mu.Unlock()

	if loader == nil {
		return nil, ErrNoBinding
	}
	return loader(ctx)
}

func (h *ScriptedHost) Ready() <-chan struct{} {
	return h.ready
}

func (h *ScriptedHost) RequestRebind() error {
	h.mu.Lock()
	rebind := h.rebind
	h.mu.Unlock()

	if rebind == nil {
		return nil
	}
	return rebind()
}

func (h *ScriptedHost) Subscribe(event string) (<-chan json.RawMessage, func(), bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan json.RawMessage, 8)
	h.events[event] = append(h.events[event], ch)

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		subs := h.events[event]
		for i, s := range subs {
			if s == ch {
				h.events[event] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}
	return ch, cancel, true
}

// InvokerFunc adapts a plain function into an InvokeFunc. Useful for
// scripting binding handles in tests.
func InvokerFunc(f func(command string, args types.Args) (any, error)) InvokeFunc {
	return func(ctx context.Context, command string, args types.Args) (json.RawMessage, error) {
		v, err := f(command, args)
		if err != nil {
			return nil, err
		}
		if raw, ok := v.(json.RawMessage); ok {
			return raw, nil
		}
		return json.Marshal(v)
	}
}
