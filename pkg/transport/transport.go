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

// Package transport defines the Transport capability interface and the three
// concrete call paths into a native context: the direct binding, the
// internal handle, and the correlated message channel. Transport-level
// failures are reported through the ErrUnavailable and ErrTimeout sentinels
// so the bridge can distinguish them from domain errors, which pass through
// untouched.
package transport

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/AAStarCommunity/go-hostbridge/pkg/types"
)

var (
	// ErrUnavailable is returned when a transport cannot carry the call at
	// all: missing handle, broken binding, closed channel. The bridge
	// advances to the next transport.
	ErrUnavailable = errors.New("transport: not available")

	// ErrTimeout is returned when a message-channel attempt exceeds its
	// bounded wait. The timeout is terminal for that attempt; the bridge
	// advances rather than retrying the same transport.
	ErrTimeout = errors.New("transport: request timed out")
)

// IsTransportError reports whether err is a transport-level failure the
// bridge recovers from internally, as opposed to a domain error that must
// propagate verbatim to the caller.
func IsTransportError(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrTimeout)
}

// Transport is one call path into the native context.
type Transport interface {
	// Name identifies the transport in logs and metrics.
	Name() string

	// Available reports whether the transport's underlying handle is
	// currently present. A true answer does not guarantee Invoke succeeds.
	Available() bool

	// Invoke dispatches one named command. Transport failures are reported
	// via ErrUnavailable/ErrTimeout; any other error is the command's own
	// domain error.
	Invoke(ctx context.Context, command string, args types.Args) (json.RawMessage, error)
}
