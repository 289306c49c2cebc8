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
	"errors"
	"sync"
)

// ErrChannelClosed is returned by Post after the channel has been closed.
var ErrChannelClosed = errors.New("host: message channel closed")

// LoopbackChannel is an in-memory MessageChannel whose peer is a handler
// function. Each posted frame is handed to the responder on its own
// goroutine; whatever frames the responder emits are delivered on the
// receive stream. The responder may emit zero frames (a silent peer), one
// response, or extra unsolicited frames, which makes stale-response and
// timeout behavior testable without a real shell.
type LoopbackChannel struct {
	mu        sync.Mutex
	closed    bool
	responder func(frame []byte) [][]byte
	inbound   chan []byte
}

// NewLoopbackChannel creates a LoopbackChannel with the given responder.
// A nil responder swallows every frame.
func NewLoopbackChannel(responder func(frame []byte) [][]byte) *LoopbackChannel {
	return &LoopbackChannel{
		responder: responder,
		inbound:   make(chan []byte, 16),
	}
}

// Post sends one frame to the responder.
func (c *LoopbackChannel) Post(payload []byte) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrChannelClosed
	}
	responder := c.responder
	c.mu.Unlock()

	if responder == nil {
		return nil
	}

	// Deliver asynchronously so Post never blocks the caller, matching the
	// fire-and-forget postMessage contract.
	go func() {
		for _, out := range responder(payload) {
			c.Deliver(out)
		}
	}()
	return nil
}

// Receive returns the inbound frame stream.
func (c *LoopbackChannel) Receive() <-chan []byte {
	return c.inbound
}

// Deliver injects an inbound frame directly, bypassing the responder.
// Frames delivered after Close, or while the buffer is full, are dropped.
func (c *LoopbackChannel) Deliver(frame []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.inbound <- frame:
	default:
	}
}

// Close shuts the channel down. Subsequent Posts fail and the receive
// stream is closed.
func (c *LoopbackChannel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.inbound)
}
