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

package transport

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/AAStarCommunity/go-hostbridge/pkg/host"
	"github.com/AAStarCommunity/go-hostbridge/pkg/types"
)

// BindingTransport carries commands over the host's official invoke-capable
// API handle. Highest-priority transport.
type BindingTransport struct {
	host host.Host
}

// NewBindingTransport creates a BindingTransport over the given host.
func NewBindingTransport(h host.Host) *BindingTransport {
	return &BindingTransport{host: h}
}

func (t *BindingTransport) Name() string { return "binding" }

func (t *BindingTransport) Available() bool { return t.host.Binding() != nil }

func (t *BindingTransport) Invoke(ctx context.Context, command string, args types.Args) (json.RawMessage, error) {
	return callHandle(ctx, t.host.Binding(), command, args)
}

// InternalsTransport carries commands over the secondary internal API
// handle, tried when the official binding is absent or broken.
type InternalsTransport struct {
	host host.Host
}

// NewInternalsTransport creates an InternalsTransport over the given host.
func NewInternalsTransport(h host.Host) *InternalsTransport {
	return &InternalsTransport{host: h}
}

func (t *InternalsTransport) Name() string { return "internals" }

func (t *InternalsTransport) Available() bool { return t.host.Internals() != nil }

func (t *InternalsTransport) Invoke(ctx context.Context, command string, args types.Args) (json.RawMessage, error) {
	return callHandle(ctx, t.host.Internals(), command, args)
}

// callHandle invokes a host handle, translating an absent handle and any
// panic raised inside it into ErrUnavailable so the bridge advances instead
// of failing the whole invocation.
func callHandle(ctx context.Context, f host.InvokeFunc, command string, args types.Args) (result json.RawMessage, err error) {
	if f == nil {
		return nil, ErrUnavailable
	}
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: handle panicked: %v", ErrUnavailable, r)
		}
	}()
	return f(ctx, command, args)
}
