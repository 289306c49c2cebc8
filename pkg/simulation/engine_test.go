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
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AAStarCommunity/go-hostbridge/pkg/types"
)

func newARMEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	return NewEngine(append([]Option{
		WithProfileName(ProfileARM),
		WithVerifyDelay(0),
	}, opts...)...)
}

func newX86Engine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(WithProfileName(ProfileX86), WithVerifyDelay(0))
}

func invoke[T any](t *testing.T, e *Engine, command string, args types.Args) T {
	t.Helper()
	raw, err := e.Invoke(context.Background(), command, args)
	require.NoError(t, err)
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestDetectHardwareReturnsProfile(t *testing.T) {
	tests := []struct {
		name    string
		profile string
		isARM   bool
		teeType string
	}{
		{"arm profile", ProfileARM, true, types.TEETypeSecureEnclave},
		{"x86 profile", ProfileX86, false, types.TEETypeNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(WithProfileName(tt.profile), WithVerifyDelay(0))

			info := invoke[types.HardwareInfo](t, e, types.CmdDetectHardware, nil)
			assert.Equal(t, tt.isARM, info.CPU.IsARM)
			assert.Equal(t, tt.teeType, info.TEE.TEEType)
			assert.Greater(t, info.CPU.Cores, uint32(0))

			// Legacy alias returns the same schema
			alias := invoke[types.HardwareInfo](t, e, types.CmdCheckHardware, nil)
			assert.Equal(t, info, alias)
		})
	}
}

func TestTEEGatingOnX86(t *testing.T) {
	e := newX86Engine(t)
	ctx := context.Background()

	teeCommands := []struct {
		command string
		args    types.Args
	}{
		{types.CmdGetTEEStatus, nil},
		{types.CmdInitializeTEE, nil},
		{types.CmdPerformTEEOperation, types.Args{"operation": "CreateWallet"}},
	}
	for _, tc := range teeCommands {
		t.Run(tc.command, func(t *testing.T) {
			_, err := e.Invoke(ctx, tc.command, tc.args)
			require.ErrorIs(t, err, ErrTEENotSupported)
			assert.Equal(t, "TEE not supported on this device", ErrTEENotSupported.Error())
		})
	}
}

func TestTEELifecycle(t *testing.T) {
	e := newARMEngine(t)

	status := invoke[types.TEEStatus](t, e, types.CmdGetTEEStatus, nil)
	assert.True(t, status.Available)
	assert.False(t, status.Initialized)
	assert.False(t, status.WalletCreated)
	assert.Equal(t, types.TEETypeSecureEnclave, status.TypeName)

	ok := invoke[bool](t, e, types.CmdInitializeTEE, nil)
	assert.True(t, ok)

	status = invoke[types.TEEStatus](t, e, types.CmdGetTEEStatus, nil)
	assert.True(t, status.Initialized)

	// Re-initialization is a no-op success; the transition is one-way
	ok = invoke[bool](t, e, types.CmdInitializeTEE, nil)
	assert.True(t, ok)
	status = invoke[types.TEEStatus](t, e, types.CmdGetTEEStatus, nil)
	assert.True(t, status.Initialized)
}

func TestWalletOperations(t *testing.T) {
	e := newARMEngine(t)

	result := invoke[types.TEEResult](t, e, types.CmdPerformTEEOperation,
		types.Args{"operation": "CreateWallet"})
	require.True(t, result.Success)
	assert.Equal(t, "wallet created successfully", result.Message)

	status := invoke[types.TEEStatus](t, e, types.CmdGetTEEStatus, nil)
	assert.True(t, status.WalletCreated)

	// Creating again reports the existing wallet
	result = invoke[types.TEEResult](t, e, types.CmdPerformTEEOperation,
		types.Args{"operation": "CreateWallet"})
	require.True(t, result.Success)
	assert.Equal(t, "wallet already exists", result.Message)

	result = invoke[types.TEEResult](t, e, types.CmdPerformTEEOperation,
		types.Args{"operation": "GetPublicKey"})
	require.True(t, result.Success)
	require.NotNil(t, result.Data)
	var pub map[string]string
	require.NoError(t, json.Unmarshal([]byte(*result.Data), &pub))
	assert.NotEmpty(t, pub["public_key"])

	result = invoke[types.TEEResult](t, e, types.CmdPerformTEEOperation,
		types.Args{"operation": map[string]any{"SignTransaction": "tx-data"}})
	require.True(t, result.Success)
	require.NotNil(t, result.Data)
	var sig map[string]string
	require.NoError(t, json.Unmarshal([]byte(*result.Data), &sig))
	assert.NotEmpty(t, sig["signature"])

	// In-process callers pass the payload variant as a concrete string map
	result = invoke[types.TEEResult](t, e, types.CmdPerformTEEOperation,
		types.Args{"operation": map[string]string{"SignTransaction": "tx-data"}})
	require.True(t, result.Success)
}

func TestWalletOperationsBeforeCreation(t *testing.T) {
	e := newARMEngine(t)

	for _, op := range []string{"GetPublicKey", "SignTransaction"} {
		args := types.Args{"operation": op}
		if op == "SignTransaction" {
			args = types.Args{"operation": map[string]any{op: "tx"}}
		}
		_, err := e.Invoke(context.Background(), types.CmdPerformTEEOperation, args)
		require.ErrorIs(t, err, ErrWalletNotFound, op)
	}
}

func TestUnsupportedTEEOperation(t *testing.T) {
	e := newARMEngine(t)

	result := invoke[types.TEEResult](t, e, types.CmdPerformTEEOperation,
		types.Args{"operation": "ExportWallet"})
	assert.False(t, result.Success)
	assert.Equal(t, "operation not supported", result.Message)
}

func TestVerifyPasskey(t *testing.T) {
	e := newARMEngine(t)

	v := invoke[types.PasskeyVerification](t, e, types.CmdVerifyPasskey,
		types.Args{"challenge": "abcdefghijklmnop"})
	assert.True(t, v.Success)
	assert.Equal(t, "MOCK_SIGNATURE:abcdefghij...", v.Signature)
	assert.Equal(t, "webauthn.get", v.ClientDataJSON.Type)
	assert.Equal(t, "abcdefghijklmnop", v.ClientDataJSON.Challenge)
	assert.NotEmpty(t, v.Platform)
	_, err := time.Parse(time.RFC3339, v.Timestamp)
	assert.NoError(t, err)
}

func TestVerifyPasskeyMissingChallenge(t *testing.T) {
	e := newARMEngine(t)

	_, err := e.Invoke(context.Background(), types.CmdVerifyPasskey, nil)
	require.ErrorIs(t, err, ErrMissingChallenge)

	_, err = e.Invoke(context.Background(), types.CmdVerifyPasskey, types.Args{"challenge": ""})
	require.ErrorIs(t, err, ErrMissingChallenge)
}

func TestVerifyPasskeyHonorsContext(t *testing.T) {
	e := NewEngine(WithProfileName(ProfileARM), WithVerifyDelay(5*time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Invoke(ctx, types.CmdVerifyPasskey, types.Args{"challenge": "x"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRegistrationHappyPath(t *testing.T) {
	e := newARMEngine(t)

	challenge := invoke[types.RegistrationChallenge](t, e, types.CmdWebAuthnStartRegistration,
		types.Args{"username": "alice"})
	require.NotEmpty(t, challenge.UserID)
	require.NotEmpty(t, challenge.Challenge.Challenge)
	assert.NotEmpty(t, challenge.Challenge.RP.ID)

	response := `{"id":"cred-1","rawId":"cred-1","type":"public-key","response":{"clientDataJSON":"e30","attestationObject":"e30"}}`
	result := invoke[types.RegistrationResult](t, e, types.CmdWebAuthnFinishRegistration,
		types.Args{"user_id": challenge.UserID, "response": response})
	assert.Equal(t, "success", result.Status)
	assert.Equal(t, "cred-1", result.CredentialID)
	assert.NotEmpty(t, result.Token)

	list := invoke[types.CredentialList](t, e, types.CmdWebAuthnGetCredentials,
		types.Args{"user_id": challenge.UserID})
	require.Len(t, list.Credentials, 1)
	assert.Equal(t, "cred-1", list.Credentials[0].ID)
	assert.Equal(t, "public-key", list.Credentials[0].Type)
}

func TestExactlyOnceChallengeConsumption(t *testing.T) {
	e := newARMEngine(t)

	challenge := invoke[types.RegistrationChallenge](t, e, types.CmdWebAuthnStartRegistration,
		types.Args{"username": "alice"})
	response := `{"id":"cred-1","type":"public-key"}`
	args := types.Args{"user_id": challenge.UserID, "response": response}

	invoke[types.RegistrationResult](t, e, types.CmdWebAuthnFinishRegistration, args)

	// A second finish with the same user id must fail: the pending
	// challenge was consumed by the first success
	_, err := e.Invoke(context.Background(), types.CmdWebAuthnFinishRegistration, args)
	require.ErrorIs(t, err, ErrInvalidUserID)
	assert.Equal(t, "invalid user id or expired challenge", ErrInvalidUserID.Error())
}

func TestMalformedResponseDoesNotConsumeChallenge(t *testing.T) {
	e := newARMEngine(t)

	challenge := invoke[types.RegistrationChallenge](t, e, types.CmdWebAuthnStartRegistration,
		types.Args{"username": "alice"})

	// Missing credential id cannot complete the ceremony
	_, err := e.Invoke(context.Background(), types.CmdWebAuthnFinishRegistration,
		types.Args{"user_id": challenge.UserID, "response": `{"type":"public-key"}`})
	require.ErrorIs(t, err, ErrInvalidResponse)

	// The challenge is still pending, so a well-formed retry succeeds
	result := invoke[types.RegistrationResult](t, e, types.CmdWebAuthnFinishRegistration,
		types.Args{"user_id": challenge.UserID, "response": `{"id":"cred-1"}`})
	assert.Equal(t, "success", result.Status)
}

func TestFinishRegistrationUnknownUser(t *testing.T) {
	e := newARMEngine(t)

	_, err := e.Invoke(context.Background(), types.CmdWebAuthnFinishRegistration,
		types.Args{"user_id": "nobody", "response": `{"id":"cred-1"}`})
	require.ErrorIs(t, err, ErrInvalidUserID)
}

func TestChallengeExpiry(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	e := newARMEngine(t, WithChallengeTTL(time.Minute), WithClock(func() time.Time { return clock() }))

	challenge := invoke[types.RegistrationChallenge](t, e, types.CmdWebAuthnStartRegistration,
		types.Args{"username": "alice"})

	clock = func() time.Time { return now.Add(2 * time.Minute) }

	_, err := e.Invoke(context.Background(), types.CmdWebAuthnFinishRegistration,
		types.Args{"user_id": challenge.UserID, "response": `{"id":"cred-1"}`})
	require.ErrorIs(t, err, ErrInvalidUserID)
}

func TestAuthenticationHappyPath(t *testing.T) {
	e := newARMEngine(t)

	reg := invoke[types.RegistrationChallenge](t, e, types.CmdWebAuthnStartRegistration,
		types.Args{"username": "alice"})
	invoke[types.RegistrationResult](t, e, types.CmdWebAuthnFinishRegistration,
		types.Args{"user_id": reg.UserID, "response": `{"id":"cred-1"}`})

	auth := invoke[types.AuthenticationChallenge](t, e, types.CmdWebAuthnStartAuthentication,
		types.Args{"user_id": reg.UserID})
	require.NotEmpty(t, auth.Challenge)
	assert.Equal(t, reg.UserID, auth.UserID)

	assertion := `{"id":"cred-1","type":"public-key","response":{"authenticatorData":"e30","signature":"e30"}}`
	result := invoke[types.AuthenticationResult](t, e, types.CmdWebAuthnFinishAuthentication,
		types.Args{"user_id": reg.UserID, "response": assertion})
	assert.Equal(t, "success", result.Status)
	assert.Equal(t, reg.UserID, result.UserID)
	assert.Equal(t, uint32(1), result.Counter)
	assert.NotEmpty(t, result.Token)

	// Counter increments per successful assertion
	invoke[types.AuthenticationChallenge](t, e, types.CmdWebAuthnStartAuthentication,
		types.Args{"user_id": reg.UserID})
	result = invoke[types.AuthenticationResult](t, e, types.CmdWebAuthnFinishAuthentication,
		types.Args{"user_id": reg.UserID, "response": assertion})
	assert.Equal(t, uint32(2), result.Counter)
}

func TestAuthenticationRequiresRegistration(t *testing.T) {
	e := newARMEngine(t)

	_, err := e.Invoke(context.Background(), types.CmdWebAuthnStartAuthentication,
		types.Args{"user_id": "nobody"})
	require.ErrorIs(t, err, ErrUserNotRegistered)
}

func TestCredentialsUnknownUserReturnsEmptyList(t *testing.T) {
	e := newARMEngine(t)

	list := invoke[types.CredentialList](t, e, types.CmdWebAuthnGetCredentials,
		types.Args{"user_id": "nobody"})
	assert.NotNil(t, list.Credentials)
	assert.Empty(t, list.Credentials)
}

func TestWebAuthnSupportFlags(t *testing.T) {
	arm := newARMEngine(t)
	assert.True(t, invoke[bool](t, arm, types.CmdWebAuthnSupported, nil))
	assert.True(t, invoke[bool](t, arm, types.CmdWebAuthnBiometricSupported, nil))

	x86 := newX86Engine(t)
	assert.True(t, invoke[bool](t, x86, types.CmdWebAuthnSupported, nil))
	assert.False(t, invoke[bool](t, x86, types.CmdWebAuthnBiometricSupported, nil))
}

func TestUnknownCommandFails(t *testing.T) {
	e := newARMEngine(t)

	_, err := e.Invoke(context.Background(), "no_such_command", nil)
	require.ErrorIs(t, err, ErrUnimplementedCommand)
	assert.Contains(t, err.Error(), "no_such_command")
}

func TestMissingArguments(t *testing.T) {
	e := newARMEngine(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		command string
		args    types.Args
		wantErr error
	}{
		{"registration without username", types.CmdWebAuthnStartRegistration, nil, ErrMissingUsername},
		{"finish without user id", types.CmdWebAuthnFinishRegistration, types.Args{"response": `{}`}, ErrMissingUserID},
		{"finish without response", types.CmdWebAuthnFinishRegistration, types.Args{"user_id": "u"}, ErrMissingResponse},
		{"credentials without user id", types.CmdWebAuthnGetCredentials, nil, ErrMissingUserID},
		{"operation missing", types.CmdPerformTEEOperation, nil, ErrInvalidOperation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Invoke(ctx, tt.command, tt.args)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}
