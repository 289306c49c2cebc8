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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssueAndVerify(t *testing.T) {
	issuer, err := NewTokenIssuer(TokenIssuerConfig{})
	require.NoError(t, err)

	token, err := issuer.Issue("user-1", "alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	subject, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", subject)
}

func TestTokenRejectedAcrossIssuers(t *testing.T) {
	a, err := NewTokenIssuer(TokenIssuerConfig{})
	require.NoError(t, err)
	b, err := NewTokenIssuer(TokenIssuerConfig{})
	require.NoError(t, err)

	// Each issuer gets its own random secret
	token, err := a.Issue("user-1", "alice")
	require.NoError(t, err)

	_, err = b.Verify(token)
	require.Error(t, err)
}

func TestTokenExpiry(t *testing.T) {
	issuer, err := NewTokenIssuer(TokenIssuerConfig{
		Secret:    []byte("0123456789abcdef0123456789abcdef"),
		ExpiresIn: time.Minute,
	})
	require.NoError(t, err)

	token, err := issuer.Issue("user-1", "alice")
	require.NoError(t, err)

	issuer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = issuer.Verify(token)
	require.Error(t, err)
}

func TestTokenGarbageRejected(t *testing.T) {
	issuer, err := NewTokenIssuer(TokenIssuerConfig{})
	require.NoError(t, err)

	_, err = issuer.Verify("not-a-token")
	require.Error(t, err)
}
