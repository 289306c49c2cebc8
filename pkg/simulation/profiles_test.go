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

	"github.com/stretchr/testify/assert"

	"github.com/AAStarCommunity/go-hostbridge/pkg/types"
)

func TestProfileInvariants(t *testing.T) {
	arm := ARMProfile()
	assert.True(t, arm.CPU.IsARM)
	assert.True(t, arm.TEE.Available())
	assert.True(t, arm.TEE.SecureEnclaveSupported)

	x86 := X86Profile()
	assert.False(t, x86.CPU.IsARM)
	assert.False(t, x86.TEE.Available())
	// tee_type "none" implies every support flag is false
	assert.Equal(t, types.TEETypeNone, x86.TEE.TEEType)
	assert.False(t, x86.TEE.SGXSupported)
	assert.False(t, x86.TEE.TrustZoneSupported)
	assert.False(t, x86.TEE.SecureEnclaveSupported)
}

func TestProfileByName(t *testing.T) {
	assert.Equal(t, ARMProfile(), ProfileByName(ProfileARM))
	assert.Equal(t, X86Profile(), ProfileByName(ProfileX86))
	assert.Equal(t, X86Profile(), ProfileByName("riscv"))
}
