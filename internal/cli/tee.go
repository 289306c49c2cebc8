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

	"github.com/AAStarCommunity/go-hostbridge/pkg/types"
)

var teePayload string

// teeCmd represents the tee command
var teeCmd = &cobra.Command{
	Use:   "tee",
	Short: "Manage the trusted execution environment",
	Long:  `Inspect TEE status, initialize the environment, and execute TEE operations`,
}

// teeStatusCmd shows the TEE lifecycle state
var teeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show TEE status",
	Long:  `Display the availability and lifecycle state of the TEE`,
	Run: func(cmd *cobra.Command, args []string) {
		printer := NewPrinter(getConfig().OutputFormat, os.Stdout)

		b, err := buildBridge(getConfig())
		if err != nil {
			handleError(err)
			return
		}

		status, err := b.TEEStatus(cmd.Context())
		if err != nil {
			handleError(err)
			return
		}
		if err := printer.PrintTEEStatus(status); err != nil {
			handleError(err)
		}
	},
}

// teeInitCmd initializes the TEE
var teeInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the TEE",
	Long:  `Transition the TEE into its initialized state. The transition is one-way.`,
	Run: func(cmd *cobra.Command, args []string) {
		printer := NewPrinter(getConfig().OutputFormat, os.Stdout)

		b, err := buildBridge(getConfig())
		if err != nil {
			handleError(err)
			return
		}

		if _, err := b.InitializeTEE(cmd.Context()); err != nil {
			handleError(err)
			return
		}
		if err := printer.PrintSuccess("TEE initialized"); err != nil {
			handleError(err)
		}
	},
}

// teeOpCmd executes a single TEE operation
var teeOpCmd = &cobra.Command{
	Use:   "op <operation>",
	Short: "Execute a TEE operation",
	Long: `Execute a named TEE operation (CreateWallet, GetPublicKey,
SignTransaction, VerifySignature, ExportWallet, ImportWallet).

Operations that take input, such as SignTransaction, read it from
the --payload flag.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		printer := NewPrinter(getConfig().OutputFormat, os.Stdout)

		b, err := buildBridge(getConfig())
		if err != nil {
			handleError(err)
			return
		}
		printVerbose("performing TEE operation %s", args[0])

		result, err := b.PerformTEEOperation(cmd.Context(), types.TEEOperation(args[0]), teePayload)
		if err != nil {
			handleError(err)
			return
		}
		if err := printer.PrintTEEResult(result); err != nil {
			handleError(err)
		}
	},
}

func init() {
	teeOpCmd.Flags().StringVar(&teePayload, "payload", "", "operation input, e.g. the transaction to sign")

	teeCmd.AddCommand(teeStatusCmd)
	teeCmd.AddCommand(teeInitCmd)
	teeCmd.AddCommand(teeOpCmd)
}
