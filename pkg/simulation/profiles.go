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
	"runtime"

	"github.com/AAStarCommunity/go-hostbridge/pkg/types"
)

// Canonical profile names.
const (
	ProfileARM = "arm"
	ProfileX86 = "x86"
)

// ARMProfile is the TEE-capable reference profile: an Apple Silicon machine
// with a Secure Enclave.
func ARMProfile() types.HardwareInfo {
	return types.HardwareInfo{
		CPU: types.CPUInfo{
			Architecture: "aarch64",
			ModelName:    "Apple M4",
			Cores:        10,
			IsARM:        true,
		},
		Memory: 16384,
		TEE: types.TEESupport{
			TEEType:                types.TEETypeSecureEnclave,
			SGXSupported:           false,
			TrustZoneSupported:     false,
			SecureEnclaveSupported: true,
		},
	}
}

// X86Profile is the non-TEE reference profile: an x86 desktop with no
// trusted execution environment.
func X86Profile() types.HardwareInfo {
	return types.HardwareInfo{
		CPU: types.CPUInfo{
			Architecture: "x86_64",
			ModelName:    "Intel Core i7",
			Cores:        8,
			IsARM:        false,
		},
		Memory: 16384,
		TEE: types.TEESupport{
			TEEType: types.TEETypeNone,
		},
	}
}

// ProfileByName resolves a canonical profile name. Unknown names fall back
// to the x86 profile.
func ProfileByName(name string) types.HardwareInfo {
	switch name {
	case ProfileARM:
		return ARMProfile()
	case ProfileX86:
		return X86Profile()
	default:
		return X86Profile()
	}
}

// DefaultProfile selects a profile matching the build architecture, so a
// simulated run on Apple Silicon behaves like the TEE-capable device it is
// standing in for.
func DefaultProfile() types.HardwareInfo {
	if runtime.GOARCH == "arm64" || runtime.GOARCH == "arm" {
		return ARMProfile()
	}
	return X86Profile()
}
