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

package uart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial/enumerator"

	bridge "github.com/ZaparooProject/go-nfcv-bridge"
)

func TestSelectPort(t *testing.T) {
	t.Parallel()
	ports := []*enumerator.PortDetails{
		{Name: "/dev/ttyS0"},
		{Name: "/dev/ttyUSB0", IsUSB: true, VID: "1a86", PID: "7523"},
		{Name: "/dev/ttyACM0", IsUSB: true, VID: "1915", PID: "520F"},
		{Name: "/dev/ttyACM1", IsUSB: true, VID: "2341", PID: "0043"},
	}

	tests := []struct {
		name string
		want string
		opts DetectOptions
	}{
		{name: "first usb port", want: "/dev/ttyUSB0"},
		{
			name: "blocklist is case-insensitive",
			opts: DetectOptions{Blocklist: []string{"1A86:7523"}},
			want: "/dev/ttyACM0",
		},
		{
			name: "ignored paths",
			opts: DetectOptions{
				Blocklist:   []string{"1a86:7523"},
				IgnorePaths: []string{"/dev/../dev/ttyACM0"},
			},
			want: "/dev/ttyACM1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := selectPort(ports, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelectPort_NoneUsable(t *testing.T) {
	t.Parallel()
	_, err := selectPort([]*enumerator.PortDetails{{Name: "/dev/ttyS0"}}, DetectOptions{})
	require.ErrorIs(t, err, bridge.ErrDeviceNotFound)
}
