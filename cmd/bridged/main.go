// go-nfcv-bridge
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-nfcv-bridge.
//
// go-nfcv-bridge is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-nfcv-bridge is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-nfcv-bridge; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Command bridged runs the NFC-V sensor bridge and offers tools to inspect
// sensor memory dumps.
package main

import (
	"os"

	"github.com/spf13/cobra"

	bridge "github.com/ZaparooProject/go-nfcv-bridge"
)

var debug bool

var rootCmd = &cobra.Command{
	Use:   "bridged",
	Short: "NFC-V sensor bridge",
	Long: `bridged reads a glucose sensor's FRAM over NFC-V and republishes it as
CRC-checked telemetry frames over BLE, a UART BLE module or WebSocket.

Commands:
  run     start the bridge from a YAML configuration
  decode  print the readings held in a 344-byte FRAM dump
  frames  split a FRAM dump into telemetry frames and verify them`,
	SilenceUsage: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		if debug {
			bridge.SetDebugEnabled(true)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug output")
	rootCmd.AddCommand(newRunCmd(), newDecodeCmd(), newFramesCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
