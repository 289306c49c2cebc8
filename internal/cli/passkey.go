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
	"os"

	"github.com/spf13/cobra"
)

// passkeyCmd represents the passkey command
var passkeyCmd = &cobra.Command{
	Use:   "passkey",
	Short: "Exercise WebAuthn passkey commands",
	Long:  `Check WebAuthn support, open registration ceremonies, verify challenges, and list credentials`,
}

// passkeySupportCmd reports WebAuthn capability flags
var passkeySupportCmd = &cobra.Command{
	Use:   "support",
	Short: "Check WebAuthn support",
	Long:  `Report whether WebAuthn and platform biometric authenticators are available`,
	Run: func(cmd *cobra.Command, args []string) {
		printer := NewPrinter(getConfig().OutputFormat, os.Stdout)

		b, err := buildBridge(getConfig())
		if err != nil {
			handleError(err)
			return
		}

		supported, err := b.WebAuthnSupported(cmd.Context())
		if err != nil {
			handleError(err)
			return
		}
		biometric, err := b.BiometricSupported(cmd.Context())
		if err != nil {
			handleError(err)
			return
		}

		if err := printer.PrintSupport("webauthn", supported); err != nil {
			handleError(err)
			return
		}
		if err := printer.PrintSupport("biometric", biometric); err != nil {
			handleError(err)
		}
	},
}

// passkeyRegisterCmd opens a registration ceremony
var passkeyRegisterCmd = &cobra.Command{
	Use:   "register <username>",
	Short: "Start a passkey registration ceremony",
	Long: `Open a registration ceremony for a username and print the issued
challenge and user id. The ceremony is completed by a platform
authenticator answering the challenge.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		printer := NewPrinter(getConfig().OutputFormat, os.Stdout)

		b, err := buildBridge(getConfig())
		if err != nil {
			handleError(err)
			return
		}

		challenge, err := b.StartRegistration(cmd.Context(), args[0])
		if err != nil {
			handleError(err)
			return
		}
		if err := printer.PrintRegistrationChallenge(challenge); err != nil {
			handleError(err)
		}
	},
}

// passkeyVerifyCmd verifies a challenge with the simulated authenticator
var passkeyVerifyCmd = &cobra.Command{
	Use:   "verify <challenge>",
	Short: "Verify a passkey challenge",
	Long:  `Run a passkey verification for the given base64 challenge`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		printer := NewPrinter(getConfig().OutputFormat, os.Stdout)

		b, err := buildBridge(getConfig())
		if err != nil {
			handleError(err)
			return
		}

		result, err := b.VerifyPasskey(cmd.Context(), args[0])
		if err != nil {
			handleError(err)
			return
		}
		if err := printer.PrintVerification(result); err != nil {
			handleError(err)
		}
	},
}

// passkeyCredentialsCmd lists credentials for a user
var passkeyCredentialsCmd = &cobra.Command{
	Use:   "credentials <user-id>",
	Short: "List credentials for a user",
	Long:  `List the credentials registered for a user id. Unknown users yield an empty list.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		printer := NewPrinter(getConfig().OutputFormat, os.Stdout)

		b, err := buildBridge(getConfig())
		if err != nil {
			handleError(err)
			return
		}

		list, err := b.Credentials(cmd.Context(), args[0])
		if err != nil {
			handleError(err)
			return
		}
		if err := printer.PrintCredentialList(list); err != nil {
			handleError(err)
		}
	},
}

func init() {
	passkeyCmd.AddCommand(passkeySupportCmd)
	passkeyCmd.AddCommand(passkeyRegisterCmd)
	passkeyCmd.AddCommand(passkeyVerifyCmd)
	passkeyCmd.AddCommand(passkeyCredentialsCmd)
}
