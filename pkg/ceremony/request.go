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
	"errors"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/protocol/webauthncose"

	"github.com/AAStarCommunity/go-hostbridge/pkg/types"
)

// ErrMissingChallenge indicates a request builder was called without
// challenge bytes. This is a caller error, rejected before any platform
// API is touched.
var ErrMissingChallenge = errors.New("challenge is required")

// DefaultTimeoutMillis bounds the platform credential prompt.
const DefaultTimeoutMillis = 60000

// BuildRegistrationRequest maps a native-issued challenge and user metadata
// into the credential-creation options the platform authenticator API
// expects. Algorithm preference is ES256 with an RS256 fallback, the
// authenticator attachment is platform-bound, and user verification is
// preferred rather than required so devices without biometrics can still
// complete the ceremony.
func BuildRegistrationRequest(challenge []byte, rp types.RelyingParty, username, userID string) (*protocol.CredentialCreation, error) {
	if len(challenge) == 0 {
		return nil, ErrMissingChallenge
	}

	return &protocol.CredentialCreation{
		Response: protocol.PublicKeyCredentialCreationOptions{
			Challenge: protocol.URLEncodedBase64(challenge),
			RelyingParty: protocol.RelyingPartyEntity{
				CredentialEntity: protocol.CredentialEntity{Name: rp.Name},
				ID:               rp.ID,
			},
			User: protocol.UserEntity{
				CredentialEntity: protocol.CredentialEntity{Name: username},
				DisplayName:      username,
				ID:               protocol.URLEncodedBase64(userID),
			},
			Parameters: []protocol.CredentialParameter{
				{Type: protocol.PublicKeyCredentialType, Algorithm: webauthncose.AlgES256},
				{Type: protocol.PublicKeyCredentialType, Algorithm: webauthncose.AlgRS256},
			},
			AuthenticatorSelection: protocol.AuthenticatorSelection{
				AuthenticatorAttachment: protocol.Platform,
				ResidentKey:             protocol.ResidentKeyRequirementDiscouraged,
				UserVerification:        protocol.VerificationPreferred,
			},
			Timeout:     DefaultTimeoutMillis,
			Attestation: protocol.PreferNoAttestation,
		},
	}, nil
}

// BuildAuthenticationRequest maps a native-issued challenge into the
// assertion options the platform authenticator API expects. allowed lists
// the credential IDs the user may assert with; an empty list lets the
// platform offer any discoverable credential for the relying party.
func BuildAuthenticationRequest(challenge []byte, rp types.RelyingParty, allowed [][]byte) (*protocol.CredentialAssertion, error) {
	if len(challenge) == 0 {
		return nil, ErrMissingChallenge
	}

	descriptors := make([]protocol.CredentialDescriptor, len(allowed))
	for i, id := range allowed {
		descriptors[i] = protocol.CredentialDescriptor{
			Type:         protocol.PublicKeyCredentialType,
			CredentialID: id,
		}
	}

	return &protocol.CredentialAssertion{
		Response: protocol.PublicKeyCredentialRequestOptions{
			Challenge:          protocol.URLEncodedBase64(challenge),
			RelyingPartyID:     rp.ID,
			AllowedCredentials: descriptors,
			UserVerification:   protocol.VerificationPreferred,
			Timeout:            DefaultTimeoutMillis,
		},
	}, nil
}
