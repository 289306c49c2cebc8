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
	"crypto/rand"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer mints the session tokens the simulation returns after a
// completed registration or authentication ceremony.
type TokenIssuer struct {
	secret    []byte
	issuer    string
	expiresIn time.Duration
	now       func() time.Time
}

// TokenIssuerConfig configures a TokenIssuer. Zero values get defaults:
// a random per-process secret, issuer "go-hostbridge", one hour validity.
type TokenIssuerConfig struct {
	Secret    []byte
	Issuer    string
	ExpiresIn time.Duration
}

// NewTokenIssuer creates a TokenIssuer.
func NewTokenIssuer(cfg TokenIssuerConfig) (*TokenIssuer, error) {
	secret := cfg.Secret
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate token secret: %w", err)
		}
	}
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = "go-hostbridge"
	}
	expiresIn := cfg.ExpiresIn
	if expiresIn == 0 {
		expiresIn = time.Hour
	}
	return &TokenIssuer{
		secret:    secret,
		issuer:    issuer,
		expiresIn: expiresIn,
		now:       time.Now,
	}, nil
}

// Issue creates a signed session token for the given user.
func (t *TokenIssuer) Issue(userID, username string) (string, error) {
	now := t.now()
	claims := jwt.MapClaims{
		"iss":  t.issuer,
		"sub":  userID,
		"name": username,
		"iat":  now.Unix(),
		"nbf":  now.Unix(),
		"exp":  now.Add(t.expiresIn).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a previously issued token, returning the
// subject claim.
func (t *TokenIssuer) Verify(token string) (string, error) {
	parsed, err := jwt.Parse(token, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithIssuer(t.issuer), jwt.WithTimeFunc(func() time.Time { return t.now() }))
	if err != nil {
		return "", err
	}
	return parsed.Claims.GetSubject()
}
