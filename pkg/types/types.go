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

// Package types defines the shared data model for the host bridge: the
// command surface carried between the UI process and the native secure
// execution context, hardware and TEE schemas, and the WebAuthn ceremony
// payloads exchanged during registration and authentication.
package types

// Args is the argument map attached to a command invocation. Values must be
// JSON-serializable; the bridge treats them as opaque.
type Args map[string]any

// Command names understood by the native context and the simulation engine.
const (
	// CmdDetectHardware returns the HardwareInfo schema for the host.
	CmdDetectHardware = "detect_hardware"

	// CmdCheckHardware is the legacy alias for CmdDetectHardware, kept for
	// callers that predate the command rename.
	CmdCheckHardware = "check_hardware"

	// CmdGetTEEStatus returns the current TEEStatus.
	CmdGetTEEStatus = "get_tee_status"

	// CmdInitializeTEE initializes the TEE environment. Returns bool.
	CmdInitializeTEE = "initialize_tee"

	// CmdPerformTEEOperation executes a TEE operation. Returns TEEResult.
	CmdPerformTEEOperation = "perform_tee_operation"

	// CmdVerifyPasskey signs a challenge with the platform passkey.
	CmdVerifyPasskey = "verify_passkey"

	// CmdWebAuthnSupported reports whether WebAuthn is available. Returns bool.
	CmdWebAuthnSupported = "webauthn_supported"

	// CmdWebAuthnBiometricSupported reports whether a biometric platform
	// authenticator is available. Returns bool.
	CmdWebAuthnBiometricSupported = "webauthn_biometric_supported"

	// CmdWebAuthnStartRegistration begins a registration ceremony.
	CmdWebAuthnStartRegistration = "webauthn_start_registration"

	// CmdWebAuthnFinishRegistration completes a registration ceremony.
	CmdWebAuthnFinishRegistration = "webauthn_finish_registration"

	// CmdWebAuthnStartAuthentication begins an authentication ceremony.
	CmdWebAuthnStartAuthentication = "webauthn_start_authentication"

	// CmdWebAuthnFinishAuthentication completes an authentication ceremony.
	CmdWebAuthnFinishAuthentication = "webauthn_finish_authentication"

	// CmdWebAuthnGetCredentials lists the credentials registered for a user.
	CmdWebAuthnGetCredentials = "webauthn_get_credentials"
)

// TEE type names reported in TEESupport.TEEType.
const (
	TEETypeNone          = "none"
	TEETypeSGX           = "SGX"
	TEETypeTrustZone     = "TrustZone"
	TEETypeSecureEnclave = "SecureEnclave"
)

// CPUInfo describes the host processor.
type CPUInfo struct {
	Architecture string `json:"architecture"`
	ModelName    string `json:"model_name"`
	Cores        uint32 `json:"cores"`
	IsARM        bool   `json:"is_arm"`
}

// TEESupport describes which trusted execution environments the hardware
// exposes. TEEType is "none" when no TEE is present, in which case every
// *Supported flag is false and TEE-dependent commands are disabled.
type TEESupport struct {
	TEEType                string `json:"tee_type"`
	SGXSupported           bool   `json:"sgx_supported"`
	TrustZoneSupported     bool   `json:"trustzone_supported"`
	SecureEnclaveSupported bool   `json:"secure_enclave_supported"`
}

// Available reports whether any TEE is present.
func (t TEESupport) Available() bool {
	return t.TEEType != TEETypeNone && t.TEEType != ""
}

// HardwareInfo is the schema returned by detect_hardware. Memory is in MB.
type HardwareInfo struct {
	CPU    CPUInfo    `json:"cpu"`
	Memory uint64     `json:"memory"`
	TEE    TEESupport `json:"tee"`
}

// TEEStatus describes the lifecycle state of the TEE environment.
// Initialized and WalletCreated transition false to true exactly once per
// process lifetime; there is no native uninitialize.
type TEEStatus struct {
	Available     bool   `json:"available"`
	Initialized   bool   `json:"initialized"`
	TypeName      string `json:"type_name"`
	Version       string `json:"version"`
	WalletCreated bool   `json:"wallet_created"`
}

// TEEOperation identifies an operation executed inside the TEE.
type TEEOperation string

// Operations accepted by perform_tee_operation.
const (
	OpCreateWallet    TEEOperation = "CreateWallet"
	OpSignTransaction TEEOperation = "SignTransaction"
	OpVerifySignature TEEOperation = "VerifySignature"
	OpGetPublicKey    TEEOperation = "GetPublicKey"
	OpExportWallet    TEEOperation = "ExportWallet"
	OpImportWallet    TEEOperation = "ImportWallet"
)

// TEEResult is the outcome of a TEE operation. Data, when present, is a
// JSON-encoded string whose shape depends on the operation.
type TEEResult struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Data    *string `json:"data"`
}

// ClientData is the parsed clientDataJSON echoed back by verify_passkey.
type ClientData struct {
	Type      string `json:"type"`
	Challenge string `json:"challenge"`
	Origin    string `json:"origin"`
}

// PasskeyVerification is the result of verify_passkey.
type PasskeyVerification struct {
	Success           bool       `json:"success"`
	Signature         string     `json:"signature"`
	AuthenticatorData string     `json:"authenticatorData"`
	ClientDataJSON    ClientData `json:"clientDataJSON"`
	Platform          string     `json:"platform"`
	Timestamp         string     `json:"timestamp"`
}

// RelyingParty identifies the WebAuthn relying party.
type RelyingParty struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// ChallengeInfo carries a registration challenge plus relying-party metadata.
type ChallengeInfo struct {
	Challenge string       `json:"challenge"`
	RP        RelyingParty `json:"rp"`
}

// RegistrationChallenge is returned by webauthn_start_registration. The
// UserID it carries must be supplied unchanged to
// webauthn_finish_registration; the native side is the sole source of truth
// for whether the challenge is still pending.
type RegistrationChallenge struct {
	Challenge ChallengeInfo `json:"challenge"`
	UserID    string        `json:"user_id"`
}

// RegistrationResult is returned by webauthn_finish_registration.
type RegistrationResult struct {
	Status       string `json:"status"`
	CredentialID string `json:"credential_id"`
	UserID       string `json:"user_id,omitempty"`
	Token        string `json:"token,omitempty"`
}

// AuthenticationChallenge is returned by webauthn_start_authentication.
type AuthenticationChallenge struct {
	Challenge string `json:"challenge"`
	UserID    string `json:"user_id"`
}

// AuthenticationResult is returned by webauthn_finish_authentication.
// Counter is the credential's signature counter after the assertion.
type AuthenticationResult struct {
	Status  string `json:"status"`
	UserID  string `json:"user_id"`
	Counter uint32 `json:"counter"`
	Token   string `json:"token,omitempty"`
}

// CredentialSummary is one entry returned by webauthn_get_credentials.
type CredentialSummary struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Created  string `json:"created"`
	LastUsed string `json:"lastUsed"`
}

// CredentialList is returned by webauthn_get_credentials. Unknown user ids
// yield an empty list rather than an error.
type CredentialList struct {
	Credentials []CredentialSummary `json:"credentials"`
}
