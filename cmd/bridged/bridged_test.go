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
	"os"
	"path/filepath"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bridge "github.com/ZaparooProject/go-nfcv-bridge"
	virt "github.com/ZaparooProject/go-nfcv-bridge/internal/testing"
)

func sensorDump(t *testing.T, minutes int) []byte {
	t.Helper()
	s := virt.NewVirtualSensor(virt.TestSensorUID)
	s.Advance(minutes)
	mem := s.Snapshot()
	return mem[:]
}

func TestParseDump(t *testing.T) {
	t.Parallel()
	raw := sensorDump(t, 20)

	fromRaw, err := parseDump(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, fromRaw[:])

	text := []byte(hex.EncodeToString(raw[:100]) + "\n" + hex.EncodeToString(raw[100:]) + "\n")
	fromHex, err := parseDump(text)
	require.NoError(t, err)
	assert.Equal(t, raw, fromHex[:])

	_, err = parseDump([]byte("zz"))
	require.ErrorIs(t, err, bridge.ErrInvalidParameter)
	_, err = parseDump([]byte("00ff"))
	require.ErrorIs(t, err, bridge.ErrInvalidParameter)
}

func TestDecodeCBOR(t *testing.T) {
	t.Parallel()
	mem, err := parseDump(sensorDump(t, 20))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeCBOR(&buf, decode(bridge.UID(virt.TestSensorUID), mem)))

	var got decodedDump
	require.NoError(t, cbor.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "E007A40000913C5A", got.UID)
	assert.Equal(t, uint16(20), got.Minutes)
	require.Len(t, got.Trend, bridge.RecentTrend)
	assert.Equal(t, 0, got.Trend[0].AgeMinutes)
	assert.Equal(t, virt.TrendValue(20)&0x3FFF, got.Trend[0].Value)
	assert.False(t, got.Expired)
}

func TestDecodeCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.bin")
	require.NoError(t, os.WriteFile(path, sensorDump(t, 30), 0o600))

	var out bytes.Buffer
	cmd := newDecodeCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--uid", "E007A40000913C5A", path})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "E007A40000913C5A")
	assert.Contains(t, out.String(), "History (15 min)")
}

func TestFramesCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.bin")
	require.NoError(t, os.WriteFile(path, sensorDump(t, 90), 0o600))

	var out bytes.Buffer
	cmd := newFramesCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{path})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "Frame 0")
	assert.Contains(t, out.String(), "Frame 1")
	assert.Contains(t, out.String(), "Frames verified")
}

func TestSysfsBattery(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "capacity")
	require.NoError(t, os.WriteFile(path, []byte("87\n"), 0o600))

	level, err := sysfsBattery{path: path}.BatteryLevel()
	require.NoError(t, err)
	assert.Equal(t, uint16(87), level)

	require.NoError(t, os.WriteFile(path, []byte("full\n"), 0o600))
	_, err = sysfsBattery{path: path}.BatteryLevel()
	require.Error(t, err)
}
