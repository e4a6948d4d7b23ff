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
	"fmt"
	"path/filepath"
	"strings"

	"go.bug.st/serial/enumerator"

	bridge "github.com/ZaparooProject/go-nfcv-bridge"
)

// AutoPort asks Detect to pick the BLE module's port
const AutoPort = "auto"

// DetectOptions filters the ports Detect considers
type DetectOptions struct {
	// USB VID:PID pairs to skip, hexadecimal, case-insensitive
	Blocklist []string
	// Device paths to skip
	IgnorePaths []string
}

// Detect returns the first USB serial port that is neither blocklisted nor
// ignored
func Detect(opts DetectOptions) (string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return "", fmt.Errorf("failed to enumerate serial ports: %w", err)
	}
	return selectPort(ports, opts)
}

func selectPort(ports []*enumerator.PortDetails, opts DetectOptions) (string, error) {
	for _, p := range ports {
		if !p.IsUSB || isPathIgnored(p.Name, opts.IgnorePaths) {
			continue
		}
		if isBlocked(p.VID+":"+p.PID, opts.Blocklist) {
			bridge.Logger().Debug().Str("port", p.Name).Str("vid", p.VID).Str("pid", p.PID).Msg("skipping blocklisted port")
			continue
		}
		return p.Name, nil
	}
	return "", fmt.Errorf("%w: no usable USB serial port", bridge.ErrDeviceNotFound)
}

func isBlocked(vidpid string, blocklist []string) bool {
	vidpid = strings.ToUpper(strings.TrimSpace(vidpid))
	for _, blocked := range blocklist {
		if vidpid == strings.ToUpper(strings.TrimSpace(blocked)) {
			return true
		}
	}
	return false
}

func isPathIgnored(path string, ignore []string) bool {
	normalized := strings.ToLower(filepath.Clean(path))
	for _, p := range ignore {
		if p != "" && normalized == strings.ToLower(filepath.Clean(p)) {
			return true
		}
	}
	return false
}
