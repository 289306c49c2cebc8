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
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AAStarCommunity/go-hostbridge/pkg/host"
	"github.com/AAStarCommunity/go-hostbridge/pkg/logging"
	"github.com/AAStarCommunity/go-hostbridge/pkg/types"
)

// frameKind marks outbound channel frames as bridge invocations.
const frameKind = "invoke"

// DefaultChannelTimeout bounds one message-channel round trip.
const DefaultChannelTimeout = 30 * time.Second

// requestFrame is the wire shape of one outbound invocation.
type requestFrame struct {
	Kind    string     `json:"cmd"`
	ID      string     `json:"id"`
	Command string     `json:"command"`
	Args    types.Args `json:"args,omitempty"`
}

// responseFrame is the wire shape of one inbound reply.
type responseFrame struct {
	ID      string          `json:"id"`
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// ChannelTransport carries commands over the raw message channel, adding
// request/response correlation on top of the uncorrelated byte stream.
// Outbound requests carry a generated unique token; inbound frames are
// matched by token, and unmatched or stale frames are ignored. Each attempt
// is bounded by a timeout, which is terminal for that attempt.
type ChannelTransport struct {
	host    host.Host
	timeout time.Duration
	logger  *logging.Logger

	mu      sync.Mutex
	pending map[string]chan responseFrame
	reading bool
}

// ChannelOption configures a ChannelTransport.
type ChannelOption func(*ChannelTransport)

// WithTimeout overrides the per-attempt round-trip timeout.
func WithTimeout(d time.Duration) ChannelOption {
	return func(t *ChannelTransport) {
		t.timeout = d
	}
}

// WithChannelLogger sets the logger.
func WithChannelLogger(logger *logging.Logger) ChannelOption {
	return func(t *ChannelTransport) {
		t.logger = logger
	}
}

// NewChannelTransport creates a ChannelTransport over the given host.
func NewChannelTransport(h host.Host, opts ...ChannelOption) *ChannelTransport {
	t := &ChannelTransport{
		host:    h,
		timeout: DefaultChannelTimeout,
		logger:  logging.DefaultLogger(),
		pending: make(map[string]chan responseFrame),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *ChannelTransport) Name() string { return "channel" }

func (t *ChannelTransport) Available() bool { return t.host.Channel() != nil }

func (t *ChannelTransport) Invoke(ctx context.Context, command string, args types.Args) (json.RawMessage, error) {
	ch := t.host.Channel()
	if ch == nil {
		return nil, ErrUnavailable
	}
	t.ensureReader(ch)

	// Fresh token per attempt; a retry never reuses a request ID, so a late
	// reply to an abandoned attempt can never satisfy a newer call.
	id := "req_" + uuid.NewString()
	waiter := make(chan responseFrame, 1)

	t.mu.Lock()
	t.pending[id] = waiter
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		delete(t.pending, id)
		t.mu.Unlock()
	}()

	payload, err := json.Marshal(requestFrame{
		Kind:    frameKind,
		ID:      id,
		Command: command,
		Args:    args,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := ch.Post(payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	timer := time.NewTimer(t.timeout)
	defer timer.Stop()

	select {
	case resp := <-waiter:
		if !resp.Success {
			if resp.Error == "" {
				return nil, errors.New("command failed")
			}
			return nil, errors.New(resp.Error)
		}
		return resp.Data, nil
	case <-timer.C:
		t.logger.Debug("channel attempt timed out", "command", command, "request_id", id)
		return nil, fmt.Errorf("%w: command %s", ErrTimeout, command)
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
	}
}

// ensureReader starts the single inbound dispatch loop the first time the
// transport sees a channel. Frames that do not parse, or whose token has no
// pending waiter, are dropped; they are not errors for unrelated calls.
func (t *ChannelTransport) ensureReader(ch host.MessageChannel) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.reading {
		return
	}
	t.reading = true

	go func() {
		for frame := range ch.Receive() {
			var resp responseFrame
			if err := json.Unmarshal(frame, &resp); err != nil || resp.ID == "" {
				continue
			}
			t.mu.Lock()
			waiter, ok := t.pending[resp.ID]
			if ok {
				delete(t.pending, resp.ID)
			}
			t.mu.Unlock()
			if !ok {
				t.logger.Debug("discarding unmatched channel frame", "request_id", resp.ID)
				continue
			}
			waiter <- resp
		}
		t.mu.Lock()
		t.reading = false
		t.mu.Unlock()
	}()
}
