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

package ceremony

import (
	"context"
	"errors"

	"github.com/go-webauthn/webauthn/protocol"
)

var (
	// ErrCeremonyCancelled indicates the user declined the platform prompt.
	// The UI should offer a retry, not report a system failure.
	ErrCeremonyCancelled = errors.New("credential ceremony cancelled")

	// ErrCeremonyFailed indicates the platform could not complete the
	// ceremony, such as when no authenticator is available. Distinct from
	// bridge and transport failures.
	ErrCeremonyFailed = errors.New("credential ceremony failed")
)

// Authenticator abstracts the platform public-key credential API. The
// ceremony waits on user action (a biometric prompt), so implementations
// honor ctx but impose no timeout of their own beyond the platform's.
//
// Implementations report user refusal by wrapping ErrCeremonyCancelled and
// every other platform rejection by wrapping ErrCeremonyFailed.
type Authenticator interface {
	// CreateCredential performs a registration ceremony.
	CreateCredential(ctx context.Context, req *protocol.CredentialCreation) (*PlatformCredential, error)

	// GetAssertion performs an authentication ceremony.
	GetAssertion(ctx context.Context, req *protocol.CredentialAssertion) (*PlatformCredential, error)
}

// Cancelled reports whether err represents the user declining the prompt.
func Cancelled(err error) bool {
	return errors.Is(err, ErrCeremonyCancelled)
}
