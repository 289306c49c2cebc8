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

package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/AAStarCommunity/go-hostbridge/pkg/types"
)

// OutputFormat defines the output format type
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
)

// Printer handles formatted output
type Printer struct {
	format OutputFormat
	writer io.Writer
}

// NewPrinter creates a new Printer
func NewPrinter(format string, writer io.Writer) *Printer {
	return &Printer{
		format: OutputFormat(format),
		writer: writer,
	}
}

// PrintHardwareInfo prints detected hardware capabilities
func (p *Printer) PrintHardwareInfo(info *types.HardwareInfo) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(info)
	case OutputFormatText:
		fmt.Fprintln(p.writer, "Hardware:")
		fmt.Fprintf(p.writer, "  Architecture:   %s\n", info.CPU.Architecture)
		fmt.Fprintf(p.writer, "  Model:          %s\n", info.CPU.ModelName)
		fmt.Fprintf(p.writer, "  Cores:          %d\n", info.CPU.Cores)
		fmt.Fprintf(p.writer, "  ARM:            %t\n", info.CPU.IsARM)
		fmt.Fprintf(p.writer, "  Memory:         %d MB\n", info.Memory)
		fmt.Fprintln(p.writer, "TEE:")
		fmt.Fprintf(p.writer, "  Type:           %s\n", info.TEE.TEEType)
		fmt.Fprintf(p.writer, "  SGX:            %t\n", info.TEE.SGXSupported)
		fmt.Fprintf(p.writer, "  TrustZone:      %t\n", info.TEE.TrustZoneSupported)
		fmt.Fprintf(p.writer, "  Secure Enclave: %t\n", info.TEE.SecureEnclaveSupported)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintTEEStatus prints the TEE lifecycle state
func (p *Printer) PrintTEEStatus(status *types.TEEStatus) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(status)
	case OutputFormatText:
		fmt.Fprintln(p.writer, "TEE Status:")
		fmt.Fprintf(p.writer, "  Available:      %t\n", status.Available)
		fmt.Fprintf(p.writer, "  Initialized:    %t\n", status.Initialized)
		fmt.Fprintf(p.writer, "  Wallet Created: %t\n", status.WalletCreated)
		fmt.Fprintf(p.writer, "  Type:           %s\n", status.TypeName)
		fmt.Fprintf(p.writer, "  Version:        %s\n", status.Version)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintTEEResult prints the outcome of a TEE operation
func (p *Printer) PrintTEEResult(result *types.TEEResult) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(result)
	case OutputFormatText:
		fmt.Fprintf(p.writer, "Success: %t\n", result.Success)
		fmt.Fprintf(p.writer, "Message: %s\n", result.Message)
		if result.Data != nil {
			fmt.Fprintf(p.writer, "Data:    %s\n", *result.Data)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintSupport prints a named capability flag
func (p *Printer) PrintSupport(name string, supported bool) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			name: supported,
		})
	case OutputFormatText:
		fmt.Fprintf(p.writer, "%s: %t\n", name, supported)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintVerification prints a passkey verification result
func (p *Printer) PrintVerification(v *types.PasskeyVerification) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(v)
	case OutputFormatText:
		fmt.Fprintln(p.writer, "Passkey Verification:")
		fmt.Fprintf(p.writer, "  Success:   %t\n", v.Success)
		fmt.Fprintf(p.writer, "  Signature: %s\n", v.Signature)
		fmt.Fprintf(p.writer, "  Platform:  %s\n", v.Platform)
		fmt.Fprintf(p.writer, "  Timestamp: %s\n", v.Timestamp)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintRegistrationChallenge prints the opening state of a registration
// ceremony
func (p *Printer) PrintRegistrationChallenge(c *types.RegistrationChallenge) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(c)
	case OutputFormatText:
		fmt.Fprintln(p.writer, "Registration Challenge:")
		fmt.Fprintf(p.writer, "  User ID:   %s\n", c.UserID)
		fmt.Fprintf(p.writer, "  Challenge: %s\n", c.Challenge.Challenge)
		fmt.Fprintf(p.writer, "  RP:        %s (%s)\n", c.Challenge.RP.Name, c.Challenge.RP.ID)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintCredentialList prints registered credentials for a user
func (p *Printer) PrintCredentialList(list *types.CredentialList) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(list)
	case OutputFormatText:
		if len(list.Credentials) == 0 {
			fmt.Fprintln(p.writer, "No credentials found")
			return nil
		}
		fmt.Fprintln(p.writer, "Credentials:")
		for _, cred := range list.Credentials {
			fmt.Fprintf(p.writer, "  - %s (%s, created %s)\n", cred.ID, cred.Type, cred.Created)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintSuccess prints a success message
func (p *Printer) PrintSuccess(message string) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"status":  "success",
			"message": message,
		})
	case OutputFormatText:
		fmt.Fprintln(p.writer, message)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintError prints an error message
func (p *Printer) PrintError(err error) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		})
	case OutputFormatText:
		fmt.Fprintf(p.writer, "Error: %v\n", err)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// printJSON prints data as JSON
func (p *Printer) printJSON(data interface{}) error {
	encoder := json.NewEncoder(p.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
