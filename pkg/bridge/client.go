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

package bridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/AAStarCommunity/go-hostbridge/pkg/types"
)

// invokeAs dispatches a command and decodes its result into T.
func invokeAs[T any](ctx context.Context, b *Bridge, command string, args types.Args) (*T, error) {
	raw, err := b.Invoke(ctx, command, args)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decoding %s result: %w", command, err)
	}
	return &out, nil
}

// DetectHardware reports CPU and TEE capabilities of the device.
func (b *Bridge) DetectHardware(ctx context.Context) (*types.HardwareInfo, error) {
	return invokeAs[types.HardwareInfo](ctx, b, types.CmdDetectHardware, nil)
}

// CheckHardware is the legacy alias for DetectHardware.
func (b *Bridge) CheckHardware(ctx context.Context) (*types.HardwareInfo, error) {
	return invokeAs[types.HardwareInfo](ctx, b, types.CmdCheckHardware, nil)
}

// TEEStatus reports the trusted execution environment state.
func (b *Bridge) TEEStatus(ctx context.Context) (*types.TEEStatus, error) {
	return invokeAs[types.TEEStatus](ctx, b, types.CmdGetTEEStatus, nil)
}

// InitializeTEE transitions the TEE into its initialized state. The
// transition is one-way and idempotent.
func (b *Bridge) InitializeTEE(ctx context.Context) (bool, error) {
	ok, err := invokeAs[bool](ctx, b, types.CmdInitializeTEE, nil)
	if err != nil {
		return false, err
	}
	return *ok, nil
}

// PerformTEEOperation executes one named TEE operation. payload carries
// operation input, such as the transaction to sign, and may be empty.
func (b *Bridge) PerformTEEOperation(ctx context.Context, op types.TEEOperation, payload string) (*types.TEEResult, error) {
	var operation any = string(op)
	if payload != "" {
		operation = map[string]any{string(op): payload}
	}
	return invokeAs[types.TEEResult](ctx, b, types.CmdPerformTEEOperation, types.Args{"operation": operation})
}

// VerifyPasskey performs a passkey verification for the given challenge.
func (b *Bridge) VerifyPasskey(ctx context.Context, challenge string) (*types.PasskeyVerification, error) {
	return invokeAs[types.PasskeyVerification](ctx, b, types.CmdVerifyPasskey, types.Args{"challenge": challenge})
}

// WebAuthnSupported reports whether the active context supports WebAuthn.
func (b *Bridge) WebAuthnSupported(ctx context.Context) (bool, error) {
	ok, err := invokeAs[bool](ctx, b, types.CmdWebAuthnSupported, nil)
	if err != nil {
		return false, err
	}
	return *ok, nil
}

// BiometricSupported reports whether a platform biometric authenticator is
// available.
func (b *Bridge) BiometricSupported(ctx context.Context) (bool, error) {
	ok, err := invokeAs[bool](ctx, b, types.CmdWebAuthnBiometricSupported, nil)
	if err != nil {
		return false, err
	}
	return *ok, nil
}

// StartRegistration opens a registration ceremony for username and returns
// the challenge the authenticator must answer.
func (b *Bridge) StartRegistration(ctx context.Context, username string) (*types.RegistrationChallenge, error) {
	return invokeAs[types.RegistrationChallenge](ctx, b, types.CmdWebAuthnStartRegistration, types.Args{"username": username})
}

// FinishRegistration completes a registration ceremony. response is the
// JSON-encoded authenticator attestation response.
func (b *Bridge) FinishRegistration(ctx context.Context, userID, response string) (*types.RegistrationResult, error) {
	return invokeAs[types.RegistrationResult](ctx, b, types.CmdWebAuthnFinishRegistration, types.Args{
		"user_id":  userID,
		"response": json.RawMessage(response),
	})
}

// StartAuthentication opens an authentication ceremony for a registered
// user.
func (b *Bridge) StartAuthentication(ctx context.Context, userID string) (*types.AuthenticationChallenge, error) {
	return invokeAs[types.AuthenticationChallenge](ctx, b, types.CmdWebAuthnStartAuthentication, types.Args{"user_id": userID})
}

// FinishAuthentication completes an authentication ceremony. response is
// the JSON-encoded authenticator assertion response.
func (b *Bridge) FinishAuthentication(ctx context.Context, userID, response string) (*types.AuthenticationResult, error) {
	return invokeAs[types.AuthenticationResult](ctx, b, types.CmdWebAuthnFinishAuthentication, types.Args{
		"user_id":  userID,
		"response": json.RawMessage(response),
	})
}

// Credentials lists the credentials registered for a user.
func (b *Bridge) Credentials(ctx context.Context, userID string) (*types.CredentialList, error) {
	return invokeAs[types.CredentialList](ctx, b, types.CmdWebAuthnGetCredentials, types.Args{"user_id": userID})
}
