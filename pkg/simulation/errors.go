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

package simulation

import (
	"errors"
	"fmt"
)

// Domain errors returned by the simulation engine. Every engine branch ends
// in either a success value or one of these; the engine never panics and
// never surfaces an internal error type.
var (
	// ErrTEENotSupported is returned by TEE commands when the selected
	// profile has no trusted execution environment.
	ErrTEENotSupported = errors.New("TEE not supported on this device")

	// ErrWalletNotFound is returned by wallet-dependent operations before a
	// wallet has been created.
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrInvalidOperation is returned when perform_tee_operation receives an
	// operation argument that cannot be parsed.
	ErrInvalidOperation = errors.New("invalid TEE operation")

	// ErrMissingChallenge is returned by verify_passkey without a challenge.
	ErrMissingChallenge = errors.New("missing challenge parameter")

	// ErrMissingUsername is returned by webauthn_start_registration without
	// a username.
	ErrMissingUsername = errors.New("missing username parameter")

	// ErrMissingUserID is returned by commands that require a user_id.
	ErrMissingUserID = errors.New("missing user_id parameter")

	// ErrMissingResponse is returned by finish commands without a response.
	ErrMissingResponse = errors.New("missing response parameter")

	// ErrInvalidUserID is returned when a finish command names a user id
	// with no pending challenge, or whose challenge has expired. A challenge
	// is consumed exactly once; a second finish for the same user id fails
	// with this error.
	ErrInvalidUserID = errors.New("invalid user id or expired challenge")

	// ErrUserNotRegistered is returned by webauthn_start_authentication for
	// a user id with no completed registration.
	ErrUserNotRegistered = errors.New("no credentials registered for user")

	// ErrInvalidResponse is returned when a ceremony response cannot be
	// parsed.
	ErrInvalidResponse = errors.New("invalid response format")

	// ErrUnimplementedCommand is returned for any command name the engine
	// does not recognize. The simulation never silently succeeds on unknown
	// commands.
	ErrUnimplementedCommand = errors.New("unimplemented command")
)

// EngineError wraps a domain error with the command that produced it.
type EngineError struct {
	Op  string // Command that failed
	Err error  // Underlying error
}

// Error returns the error message.
func (e *EngineError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches.
func (e *EngineError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapError wraps an error with a command name if it's not nil.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &EngineError{Op: op, Err: err}
}
