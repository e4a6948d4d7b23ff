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
	"fmt"
	"os"
	"strconv"
	"strings"
)

// sysfsBattery reads a power_supply capacity file (0-100)
type sysfsBattery struct {
	path string
}

func (b sysfsBattery) BatteryLevel() (uint16, error) {
	raw, err := os.ReadFile(b.path)
	if err != nil {
		return 0, fmt.Errorf("read battery level: %w", err)
	}
	v, err := strconv.ParseUint(strings.TrimSpace(string(raw)), 10, 16)
	if err != nil {
		return 0, fmt.Errorf("parse battery level %q: %w", strings.TrimSpace(string(raw)), err)
	}
	return uint16(v), nil
}
