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

// Package ceremony adapts between native-issued WebAuthn challenges and
// platform credential APIs: it builds credential-creation and assertion
// requests from raw challenges, formats the resulting credentials for the
// transport-safe encoding the native side expects, and orchestrates full
// registration and authentication ceremonies over any command invoker.
package ceremony

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// EncodeTransport encodes binary data with the URL-safe base64 alphabet,
// padding stripped. This is the only encoding accepted on the wire for
// credential fields.
func EncodeTransport(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeTransport is the inverse of EncodeTransport. It tolerates input
// that arrives with padding intact, since some native shells round-trip
// through standard base64url.
func DecodeTransport(s string) ([]byte, error) {
	data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return nil, fmt.Errorf("decoding transport value: %w", err)
	}
	return data, nil
}
