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

package main

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ZaparooProject/go-nfcv-bridge/internal/frame"
)

func newFramesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "frames <dump>",
		Short: "Split a FRAM dump into telemetry frames and verify them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mem, err := readDump(args[0])
			if err != nil {
				return err
			}
			return printFrames(cmd, mem[:])
		},
	}
}

func printFrames(cmd *cobra.Command, snapshot []byte) error {
	w := cmd.OutOrStdout()
	frames := make([]frame.Frame, 0, frame.StepCount)
	for step := range frame.StepCount {
		f, err := frame.Build(snapshot, step)
		if err != nil {
			return err
		}
		raw := f.Bytes()
		parsed, err := frame.Parse(raw)
		if err != nil {
			return fmt.Errorf("frame %d does not verify: %w", step, err)
		}
		frames = append(frames, parsed)

		_, _ = fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Frame %d", step))+
			labelStyle.Render(fmt.Sprintf("  crc 0x%04X", f.CRC)))
		_, _ = fmt.Fprintln(w, hex.EncodeToString(raw))
	}

	joined, err := frame.Reassemble(frames...)
	if err != nil {
		return err
	}
	if !bytes.Equal(joined, snapshot) {
		return fmt.Errorf("%w: reassembled frames differ from the dump", frame.ErrChecksumMismatch)
	}
	_, _ = fmt.Fprintln(w, okStyle.Render("Frames verified"))
	return nil
}
