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

import "errors"

// ErrMissingResponse indicates a platform credential carried neither an
// attestation object nor an assertion signature.
var ErrMissingResponse = errors.New("credential has no attestation or assertion response")

// PlatformCredential holds the raw binary fields a platform authenticator
// returns from a create or get ceremony. A registration ceremony populates
// AttestationObject; an authentication ceremony populates AuthenticatorData
// and Signature, plus UserHandle when the credential is discoverable.
type PlatformCredential struct {
	ID                []byte
	ClientDataJSON    []byte
	AttestationObject []byte
	AuthenticatorData []byte
	Signature         []byte
	UserHandle        []byte
}

// TransportResponse is the encoded response section of a credential on the
// wire. Exactly one of the two field groups is populated.
type TransportResponse struct {
	ClientDataJSON    string `json:"clientDataJSON"`
	AttestationObject string `json:"attestationObject,omitempty"`
	AuthenticatorData string `json:"authenticatorData,omitempty"`
	Signature         string `json:"signature,omitempty"`
	UserHandle        string `json:"userHandle,omitempty"`
}

// TransportCredential is the transport-safe form of a platform credential,
// every binary field base64url-encoded without padding.
type TransportCredential struct {
	ID       string            `json:"id"`
	RawID    string            `json:"rawId"`
	Type     string            `json:"type"`
	Response TransportResponse `json:"response"`
}

// FormatCredential encodes a platform credential for return to the native
// side. Which response fields are present decides the shape: an attestation
// object marks a registration response, authenticator data plus signature
// mark an authentication response. UserHandle is included only when
// non-empty.
func FormatCredential(cred PlatformCredential) (*TransportCredential, error) {
	out := &TransportCredential{
		ID:    EncodeTransport(cred.ID),
		RawID: EncodeTransport(cred.ID),
		Type:  "public-key",
		Response: TransportResponse{
			ClientDataJSON: EncodeTransport(cred.ClientDataJSON),
		},
	}

	switch {
	case len(cred.AttestationObject) > 0:
		out.Response.AttestationObject = EncodeTransport(cred.AttestationObject)
	case len(cred.AuthenticatorData) > 0 && len(cred.Signature) > 0:
		out.Response.AuthenticatorData = EncodeTransport(cred.AuthenticatorData)
		out.Response.Signature = EncodeTransport(cred.Signature)
		if len(cred.UserHandle) > 0 {
			out.Response.UserHandle = EncodeTransport(cred.UserHandle)
		}
	default:
		return nil, ErrMissingResponse
	}

	return out, nil
}
