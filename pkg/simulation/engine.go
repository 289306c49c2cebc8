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

// Package simulation implements the local simulation engine: a
// deterministic, stateful stand-in for the native secure-enclave backend,
// used whenever no native context is reachable or after the bridge exhausts
// its transports. The engine mirrors the native command surface command for
// command, including the one-way TEE state machine and an in-memory
// WebAuthn registry with exactly-once challenge consumption.
package simulation

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AAStarCommunity/go-hostbridge/pkg/logging"
	"github.com/AAStarCommunity/go-hostbridge/pkg/types"
)

const (
	teeVersion = "1.0"

	// DefaultVerifyDelay approximates the biometric prompt latency so UI
	// loading states are observable. Tests set it to zero.
	DefaultVerifyDelay = 1500 * time.Millisecond

	// DefaultChallengeTTL bounds how long a pending ceremony challenge stays
	// valid before finish calls fail with ErrInvalidUserID.
	DefaultChallengeTTL = 2 * time.Minute
)

type pendingChallenge struct {
	challenge string
	username  string
	issued    time.Time
}

type registration struct {
	credentialID string
	username     string
	credential   json.RawMessage
	created      time.Time
	lastUsed     time.Time
	counter      uint32
}

// Engine is the in-process native-backend stand-in. All state is confined
// to the engine and mutated atomically per invocation; a failed command
// never leaves a partial state transition behind.
type Engine struct {
	mu     sync.Mutex
	logger *logging.Logger

	profile     types.HardwareInfo
	rp          types.RelyingParty
	origin      string
	verifyDelay time.Duration
	ttl         time.Duration
	now         func() time.Time
	newID       func() string
	tokens      *TokenIssuer

	teeInitialized bool
	walletCreated  bool
	wallet         *ecdsa.PrivateKey

	pendingReg    map[string]pendingChallenge
	pendingAuth   map[string]pendingChallenge
	registrations map[string]*registration
}

// Option configures an Engine.
type Option func(*Engine)

// WithProfile selects the hardware profile returned by detect_hardware and
// gating every TEE command.
func WithProfile(profile types.HardwareInfo) Option {
	return func(e *Engine) {
		e.profile = profile
	}
}

// WithProfileName selects a canonical profile by name ("arm" or "x86").
func WithProfileName(name string) Option {
	return func(e *Engine) {
		e.profile = ProfileByName(name)
	}
}

// WithVerifyDelay overrides the synthetic verify_passkey delay.
func WithVerifyDelay(d time.Duration) Option {
	return func(e *Engine) {
		e.verifyDelay = d
	}
}

// WithChallengeTTL overrides how long pending challenges stay valid.
func WithChallengeTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		e.ttl = ttl
	}
}

// WithRelyingParty sets the relying-party identity and origin echoed in
// ceremony payloads.
func WithRelyingParty(rp types.RelyingParty, origin string) Option {
	return func(e *Engine) {
		e.rp = rp
		e.origin = origin
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithTokenIssuer overrides the session-token issuer. A nil issuer disables
// token issuance.
func WithTokenIssuer(issuer *TokenIssuer) Option {
	return func(e *Engine) {
		e.tokens = issuer
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithIDSource overrides the user-id generator.
func WithIDSource(newID func() string) Option {
	return func(e *Engine) {
		e.newID = newID
	}
}

// NewEngine creates a simulation engine. Without options it selects the
// profile matching the build architecture, a random-secret token issuer,
// and the default delays.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		logger:        logging.DefaultLogger(),
		profile:       DefaultProfile(),
		rp:            types.RelyingParty{Name: "AAStar", ID: "localhost"},
		origin:        "http://localhost",
		verifyDelay:   DefaultVerifyDelay,
		ttl:           DefaultChallengeTTL,
		now:           time.Now,
		newID:         uuid.NewString,
		pendingReg:    make(map[string]pendingChallenge),
		pendingAuth:   make(map[string]pendingChallenge),
		registrations: make(map[string]*registration),
	}
	issuer, err := NewTokenIssuer(TokenIssuerConfig{})
	if err == nil {
		e.tokens = issuer
	} else {
		e.logger.Warn("session tokens disabled", "error", err)
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Profile returns the selected hardware profile.
func (e *Engine) Profile() types.HardwareInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.profile
}

// Invoke executes one simulated command. Every branch resolves to a value
// or a typed domain error; unknown commands fail with
// ErrUnimplementedCommand.
func (e *Engine) Invoke(ctx context.Context, command string, args types.Args) (json.RawMessage, error) {
	e.logger.Debug("simulating command", "command", command)

	res, err := e.dispatch(ctx, command, args)
	if err != nil {
		return nil, WrapError(command, err)
	}
	return res, nil
}

func (e *Engine) dispatch(ctx context.Context, command string, args types.Args) (json.RawMessage, error) {
	switch command {
	case types.CmdDetectHardware, types.CmdCheckHardware:
		return marshal(e.Profile())
	case types.CmdGetTEEStatus:
		return e.teeStatus()
	case types.CmdInitializeTEE:
		return e.initializeTEE()
	case types.CmdPerformTEEOperation:
		return e.performTEEOperation(args)
	case types.CmdVerifyPasskey:
		return e.verifyPasskey(ctx, args)
	case types.CmdWebAuthnSupported:
		return marshal(true)
	case types.CmdWebAuthnBiometricSupported:
		p := e.Profile()
		return marshal(p.TEE.SecureEnclaveSupported || p.TEE.TrustZoneSupported)
	case types.CmdWebAuthnStartRegistration:
		return e.startRegistration(args)
	case types.CmdWebAuthnFinishRegistration:
		return e.finishRegistration(args)
	case types.CmdWebAuthnStartAuthentication:
		return e.startAuthentication(args)
	case types.CmdWebAuthnFinishAuthentication:
		return e.finishAuthentication(args)
	case types.CmdWebAuthnGetCredentials:
		return e.credentials(args)
	default:
		return nil, ErrUnimplementedCommand
	}
}

func (e *Engine) teeStatus() (json.RawMessage, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.profile.TEE.Available() {
		return nil, ErrTEENotSupported
	}
	return marshal(types.TEEStatus{
		Available:     true,
		Initialized:   e.teeInitialized,
		TypeName:      e.profile.TEE.TEEType,
		Version:       teeVersion,
		WalletCreated: e.walletCreated,
	})
}

func (e *Engine) initializeTEE() (json.RawMessage, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.profile.TEE.Available() {
		return nil, ErrTEENotSupported
	}
	// One-way transition; re-initialization is a no-op success.
	e.teeInitialized = true
	return marshal(true)
}

func (e *Engine) performTEEOperation(args types.Args) (json.RawMessage, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.profile.TEE.Available() {
		return nil, ErrTEENotSupported
	}

	op, payload, err := parseOperation(args["operation"])
	if err != nil {
		return nil, err
	}

	switch op {
	case types.OpCreateWallet:
		return e.createWallet()
	case types.OpGetPublicKey:
		return e.walletPublicKey()
	case types.OpSignTransaction:
		return e.signTransaction(payload)
	default:
		return marshal(types.TEEResult{
			Success: false,
			Message: "operation not supported",
		})
	}
}

func (e *Engine) createWallet() (json.RawMessage, error) {
	if e.walletCreated {
		return marshal(types.TEEResult{Success: true, Message: "wallet already exists"})
	}
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("create wallet: %w", err)
	}
	// State changes only after the key exists, so a failed creation leaves
	// wallet_created untouched.
	e.wallet = key
	e.walletCreated = true
	return marshal(types.TEEResult{Success: true, Message: "wallet created successfully"})
}

func (e *Engine) walletPublicKey() (json.RawMessage, error) {
	if e.wallet == nil {
		return nil, ErrWalletNotFound
	}
	pub := elliptic.MarshalCompressed(e.wallet.Curve, e.wallet.PublicKey.X, e.wallet.PublicKey.Y)
	data, err := encodeData(map[string]string{"public_key": hex.EncodeToString(pub)})
	if err != nil {
		return nil, err
	}
	return marshal(types.TEEResult{Success: true, Message: "public key retrieved", Data: &data})
}

func (e *Engine) signTransaction(payload string) (json.RawMessage, error) {
	if e.wallet == nil {
		return nil, ErrWalletNotFound
	}
	if payload == "" {
		return marshal(types.TEEResult{Success: false, Message: "missing transaction data"})
	}
	digest := sha256.Sum256([]byte(payload))
	sig, err := ecdsa.SignASN1(rand.Reader, e.wallet, digest[:])
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	data, err := encodeData(map[string]string{
		"signature": base64.StdEncoding.EncodeToString(sig),
	})
	if err != nil {
		return nil, err
	}
	return marshal(types.TEEResult{Success: true, Message: "transaction signed", Data: &data})
}

func (e *Engine) verifyPasskey(ctx context.Context, args types.Args) (json.RawMessage, error) {
	challenge := stringArg(args, "challenge")
	if challenge == "" {
		return nil, ErrMissingChallenge
	}

	// Simulated biometric prompt latency.
	if e.verifyDelay > 0 {
		timer := time.NewTimer(e.verifyDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	echo := challenge
	if len(echo) > 10 {
		echo = echo[:10]
	}
	e.mu.Lock()
	origin := e.origin
	now := e.now()
	e.mu.Unlock()

	return marshal(types.PasskeyVerification{
		Success:           true,
		Signature:         "MOCK_SIGNATURE:" + echo + "...",
		AuthenticatorData: "simulated_authenticator_data",
		ClientDataJSON: types.ClientData{
			Type:      "webauthn.get",
			Challenge: challenge,
			Origin:    origin,
		},
		Platform:  runtime.GOOS,
		Timestamp: now.UTC().Format(time.RFC3339),
	})
}

func (e *Engine) startRegistration(args types.Args) (json.RawMessage, error) {
	username := stringArg(args, "username")
	if username == "" {
		return nil, ErrMissingUsername
	}

	challenge, err := newChallenge()
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	userID := e.newID()
	e.pendingReg[userID] = pendingChallenge{
		challenge: challenge,
		username:  username,
		issued:    e.now(),
	}
	return marshal(types.RegistrationChallenge{
		Challenge: types.ChallengeInfo{Challenge: challenge, RP: e.rp},
		UserID:    userID,
	})
}

func (e *Engine) finishRegistration(args types.Args) (json.RawMessage, error) {
	userID := stringArg(args, "user_id")
	if userID == "" {
		return nil, ErrMissingUserID
	}
	raw, err := responseArg(args)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	pending, ok := e.lookupPending(e.pendingReg, userID)
	if !ok {
		return nil, ErrInvalidUserID
	}

	credID, err := credentialID(raw)
	if err != nil {
		// Parse failures do not consume the challenge; the caller may retry
		// with a well-formed response.
		return nil, err
	}

	now := e.now()
	e.registrations[userID] = &registration{
		credentialID: credID,
		username:     pending.username,
		credential:   raw,
		created:      now,
		lastUsed:     now,
	}
	delete(e.pendingReg, userID)

	result := types.RegistrationResult{Status: "success", CredentialID: credID, UserID: userID}
	if e.tokens != nil {
		if token, err := e.tokens.Issue(userID, pending.username); err == nil {
			result.Token = token
		}
	}
	return marshal(result)
}

func (e *Engine) startAuthentication(args types.Args) (json.RawMessage, error) {
	userID := stringArg(args, "user_id")
	if userID == "" {
		return nil, ErrMissingUserID
	}

	challenge, err := newChallenge()
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	reg, ok := e.registrations[userID]
	if !ok {
		return nil, ErrUserNotRegistered
	}
	e.pendingAuth[userID] = pendingChallenge{
		challenge: challenge,
		username:  reg.username,
		issued:    e.now(),
	}
	return marshal(types.AuthenticationChallenge{Challenge: challenge, UserID: userID})
}

func (e *Engine) finishAuthentication(args types.Args) (json.RawMessage, error) {
	userID := stringArg(args, "user_id")
	if userID == "" {
		return nil, ErrMissingUserID
	}
	raw, err := responseArg(args)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.lookupPending(e.pendingAuth, userID); !ok {
		return nil, ErrInvalidUserID
	}
	if !json.Valid(raw) {
		return nil, ErrInvalidResponse
	}
	reg, ok := e.registrations[userID]
	if !ok {
		return nil, ErrInvalidUserID
	}

	reg.counter++
	reg.lastUsed = e.now()
	delete(e.pendingAuth, userID)

	result := types.AuthenticationResult{
		Status:  "success",
		UserID:  userID,
		Counter: reg.counter,
	}
	if e.tokens != nil {
		if token, err := e.tokens.Issue(userID, reg.username); err == nil {
			result.Token = token
		}
	}
	return marshal(result)
}

func (e *Engine) credentials(args types.Args) (json.RawMessage, error) {
	userID := stringArg(args, "user_id")
	if userID == "" {
		return nil, ErrMissingUserID
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	list := types.CredentialList{Credentials: []types.CredentialSummary{}}
	if reg, ok := e.registrations[userID]; ok {
		list.Credentials = append(list.Credentials, types.CredentialSummary{
			ID:       reg.credentialID,
			Type:     "public-key",
			Created:  reg.created.UTC().Format(time.RFC3339),
			LastUsed: reg.lastUsed.UTC().Format(time.RFC3339),
		})
	}
	return marshal(list)
}

// lookupPending finds a pending challenge, enforcing the TTL. Expired
// entries are removed and reported as absent. The entry is deleted by the
// caller once the ceremony completes, keeping consumption exactly-once
// while letting malformed responses retry. Callers hold the mutex.
func (e *Engine) lookupPending(m map[string]pendingChallenge, userID string) (pendingChallenge, bool) {
	p, ok := m[userID]
	if !ok {
		return pendingChallenge{}, false
	}
	if e.ttl > 0 && e.now().Sub(p.issued) > e.ttl {
		delete(m, userID)
		return pendingChallenge{}, false
	}
	return p, true
}

func marshal(v any) (json.RawMessage, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return raw, nil
}

func encodeData(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode operation data: %w", err)
	}
	return string(raw), nil
}

func stringArg(args types.Args, key string) string {
	if args == nil {
		return ""
	}
	s, _ := args[key].(string)
	return s
}

// responseArg extracts the ceremony response, accepting either a JSON string
// or an already-decoded object.
func responseArg(args types.Args) (json.RawMessage, error) {
	if args == nil {
		return nil, ErrMissingResponse
	}
	switch v := args["response"].(type) {
	case nil:
		return nil, ErrMissingResponse
	case string:
		if v == "" {
			return nil, ErrMissingResponse
		}
		return json.RawMessage(v), nil
	case json.RawMessage:
		if len(v) == 0 {
			return nil, ErrMissingResponse
		}
		return v, nil
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, ErrInvalidResponse
		}
		return raw, nil
	}
}

// credentialID pulls the credential id out of a formatted ceremony response.
func credentialID(raw json.RawMessage) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil || resp.ID == "" {
		return "", ErrInvalidResponse
	}
	return resp.ID, nil
}

// parseOperation accepts the operation argument in either of its wire
// shapes: a bare string for unit variants ("CreateWallet") or a single-key
// object for payload variants ({"SignTransaction": "<data>"}).
func parseOperation(v any) (types.TEEOperation, string, error) {
	switch op := v.(type) {
	case string:
		if op == "" {
			return "", "", ErrInvalidOperation
		}
		return types.TEEOperation(op), "", nil
	case map[string]any:
		if len(op) != 1 {
			return "", "", ErrInvalidOperation
		}
		for name, payload := range op {
			s, _ := payload.(string)
			return types.TEEOperation(name), s, nil
		}
		return "", "", ErrInvalidOperation
	case map[string]string:
		// In-process callers hand the args map over without a JSON round
		// trip, so the payload variant keeps its concrete map type.
		if len(op) != 1 {
			return "", "", ErrInvalidOperation
		}
		for name, payload := range op {
			return types.TEEOperation(name), payload, nil
		}
		return "", "", ErrInvalidOperation
	default:
		return "", "", ErrInvalidOperation
	}
}

// newChallenge generates a fresh base64url-encoded 32-byte challenge.
func newChallenge() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate challenge: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
