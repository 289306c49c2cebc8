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
	"encoding/json"
	"fmt"

	"github.com/AAStarCommunity/go-hostbridge/pkg/logging"
	"github.com/AAStarCommunity/go-hostbridge/pkg/types"
)

// Invoker dispatches a named command with arguments. Satisfied by the
// command bridge.
type Invoker interface {
	Invoke(ctx context.Context, command string, args types.Args) (json.RawMessage, error)
}

// Adapter drives full registration and authentication ceremonies: it pulls
// a challenge from the native side through the Invoker, runs the platform
// ceremony through the Authenticator, and returns the formatted credential
// to the native side for verification.
type Adapter struct {
	invoker       Invoker
	authenticator Authenticator
	logger        *logging.Logger
}

// NewAdapter creates an Adapter. Both the invoker and the authenticator are
// required.
func NewAdapter(invoker Invoker, authenticator Authenticator, logger *logging.Logger) *Adapter {
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	return &Adapter{
		invoker:       invoker,
		authenticator: authenticator,
		logger:        logger,
	}
}

// Register runs a complete registration ceremony for username.
func (a *Adapter) Register(ctx context.Context, username string) (*types.RegistrationResult, error) {
	raw, err := a.invoker.Invoke(ctx, types.CmdWebAuthnStartRegistration, types.Args{"username": username})
	if err != nil {
		return nil, err
	}
	var challenge types.RegistrationChallenge
	if err := json.Unmarshal(raw, &challenge); err != nil {
		return nil, fmt.Errorf("decoding registration challenge: %w", err)
	}

	req, err := BuildRegistrationRequest(
		challengeBytes(challenge.Challenge.Challenge),
		challenge.Challenge.RP,
		username,
		challenge.UserID,
	)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("starting platform registration ceremony", "username", username)
	cred, err := a.authenticator.CreateCredential(ctx, req)
	if err != nil {
		return nil, err
	}
	formatted, err := FormatCredential(*cred)
	if err != nil {
		return nil, err
	}
	response, err := json.Marshal(formatted)
	if err != nil {
		return nil, fmt.Errorf("encoding credential: %w", err)
	}

	raw, err = a.invoker.Invoke(ctx, types.CmdWebAuthnFinishRegistration, types.Args{
		"user_id":  challenge.UserID,
		"response": json.RawMessage(response),
	})
	if err != nil {
		return nil, err
	}
	var result types.RegistrationResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decoding registration result: %w", err)
	}
	return &result, nil
}

// Authenticate runs a complete authentication ceremony for a registered
// user. rp must match the relying party the credential was registered
// under.
func (a *Adapter) Authenticate(ctx context.Context, userID string, rp types.RelyingParty) (*types.AuthenticationResult, error) {
	raw, err := a.invoker.Invoke(ctx, types.CmdWebAuthnStartAuthentication, types.Args{"user_id": userID})
	if err != nil {
		return nil, err
	}
	var challenge types.AuthenticationChallenge
	if err := json.Unmarshal(raw, &challenge); err != nil {
		return nil, fmt.Errorf("decoding authentication challenge: %w", err)
	}

	req, err := BuildAuthenticationRequest(challengeBytes(challenge.Challenge), rp, nil)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("starting platform authentication ceremony", "user_id", userID)
	cred, err := a.authenticator.GetAssertion(ctx, req)
	if err != nil {
		return nil, err
	}
	formatted, err := FormatCredential(*cred)
	if err != nil {
		return nil, err
	}
	response, err := json.Marshal(formatted)
	if err != nil {
		return nil, fmt.Errorf("encoding credential: %w", err)
	}

	raw, err = a.invoker.Invoke(ctx, types.CmdWebAuthnFinishAuthentication, types.Args{
		"user_id":  challenge.UserID,
		"response": json.RawMessage(response),
	})
	if err != nil {
		return nil, err
	}
	var result types.AuthenticationResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decoding authentication result: %w", err)
	}
	return &result, nil
}

// challengeBytes decodes a transport-encoded challenge. Challenges that are
// not valid base64url are passed through as raw bytes so the ceremony can
// proceed against shells that issue plain-text challenges.
func challengeBytes(challenge string) []byte {
	data, err := DecodeTransport(challenge)
	if err != nil {
		return []byte(challenge)
	}
	return data
}
