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

// detectCmd reports hardware capabilities of the simulated device
var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect hardware and TEE capabilities",
	Long:  `Report CPU architecture, memory, and trusted execution environment support`,
	Run: func(cmd *cobra.Command, args []string) {
		printer := NewPrinter(getConfig().OutputFormat, os.Stdout)

		b, err := buildBridge(getConfig())
		if err != nil {
			handleError(err)
			return
		}
		printVerbose("detecting hardware")

		info, err := b.DetectHardware(cmd.Context())
		if err != nil {
			handleError(err)
			return
		}
		if err := printer.PrintHardwareInfo(info); err != nil {
			handleError(err)
		}
	},
}
