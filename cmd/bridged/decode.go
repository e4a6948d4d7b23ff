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
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/cobra"

	bridge "github.com/ZaparooProject/go-nfcv-bridge"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(18)
	valueStyle = lipgloss.NewStyle().Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

type decodedReading struct {
	Slot       int    `cbor:"slot"`
	AgeMinutes int    `cbor:"age"`
	Raw        uint16 `cbor:"raw"`
	Value      uint16 `cbor:"value"`
}

type decodedDump struct {
	UID            string           `cbor:"uid"`
	State          string           `cbor:"state"`
	Trend          []decodedReading `cbor:"trend"`
	History        []decodedReading `cbor:"history"`
	Minutes        uint16           `cbor:"minutes"`
	TrendPointer   uint8            `cbor:"trend_pointer"`
	HistoryPointer uint8            `cbor:"history_pointer"`
	Expired        bool             `cbor:"expired"`
}

func newDecodeCmd() *cobra.Command {
	var (
		uidFlag string
		asCBOR  bool
	)
	cmd := &cobra.Command{
		Use:   "decode <dump>",
		Short: "Print the readings held in a FRAM dump",
		Long: `Decode a 344-byte sensor FRAM dump, given either as raw bytes or as hex
text, and print its state, minute counter and ring contents.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mem, err := readDump(args[0])
			if err != nil {
				return err
			}
			var uid bridge.UID
			if uidFlag != "" {
				if uid, err = bridge.ParseUID(uidFlag); err != nil {
					return err
				}
			}

			d := decode(uid, mem)
			if asCBOR {
				return writeCBOR(cmd.OutOrStdout(), d)
			}
			printDump(cmd.OutOrStdout(), d)
			return nil
		},
	}
	cmd.Flags().StringVar(&uidFlag, "uid", "", "Sensor UID, most significant byte first")
	cmd.Flags().BoolVar(&asCBOR, "cbor", false, "Write the decoded dump as CBOR")
	return cmd
}

// readDump accepts raw FRAM bytes or their hex encoding
func readDump(path string) (*bridge.TagMemory, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dump: %w", err)
	}
	return parseDump(raw)
}

func parseDump(raw []byte) (*bridge.TagMemory, error) {
	if len(raw) != bridge.MemorySize {
		text := strings.Join(strings.Fields(string(raw)), "")
		decoded, err := hex.DecodeString(text)
		if err != nil {
			return nil, fmt.Errorf("%w: dump is neither %d raw bytes nor hex: %w",
				bridge.ErrInvalidParameter, bridge.MemorySize, err)
		}
		raw = decoded
	}
	if len(raw) != bridge.MemorySize {
		return nil, fmt.Errorf("%w: dump holds %d bytes, want %d", bridge.ErrInvalidParameter, len(raw), bridge.MemorySize)
	}

	var mem bridge.TagMemory
	copy(mem[:], raw)
	return &mem, nil
}

func decode(uid bridge.UID, mem *bridge.TagMemory) decodedDump {
	snap := bridge.DecodeMemory(uid, mem)
	return decodedDump{
		UID:            uid.String(),
		State:          snap.State.String(),
		Minutes:        snap.MinutesSinceStart,
		TrendPointer:   snap.TrendPointer,
		HistoryPointer: snap.HistoryPointer,
		Expired:        snap.Expired(),
		Trend:          convertReadings(snap.Trend),
		History:        convertReadings(snap.History),
	}
}

func convertReadings(in []bridge.Reading) []decodedReading {
	out := make([]decodedReading, 0, len(in))
	for _, r := range in {
		out = append(out, decodedReading{
			Slot:       r.Slot,
			AgeMinutes: r.AgeMinutes,
			Raw:        r.Raw,
			Value:      r.Value(),
		})
	}
	return out
}

func writeCBOR(w io.Writer, d decodedDump) error {
	data, err := cbor.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode cbor: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func printDump(w io.Writer, d decodedDump) {
	row := func(label, value string) {
		_, _ = fmt.Fprintln(w, labelStyle.Render(label)+valueStyle.Render(value))
	}

	_, _ = fmt.Fprintln(w, titleStyle.Render("Sensor "+d.UID))
	row("State", d.State)
	row("Minutes", fmt.Sprintf("%d (%.1f days)", d.Minutes, float64(d.Minutes)/(24*60)))
	row("Trend pointer", fmt.Sprintf("%d", d.TrendPointer))
	row("History pointer", fmt.Sprintf("%d", d.HistoryPointer))
	if d.Expired {
		_, _ = fmt.Fprintln(w, warnStyle.Render("Sensor expired"))
	} else {
		_, _ = fmt.Fprintln(w, okStyle.Render("Sensor within lifetime"))
	}

	printReadings(w, "Trend (1 min)", d.Trend)
	printReadings(w, "History (15 min)", d.History)
}

func printReadings(w io.Writer, title string, readings []decodedReading) {
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, titleStyle.Render(title))
	for _, r := range readings {
		_, _ = fmt.Fprintf(w, "%s %5d  raw 0x%04X  slot %2d\n",
			labelStyle.Render(fmt.Sprintf("-%d min", r.AgeMinutes)), r.Value, r.Raw, r.Slot)
	}
}
