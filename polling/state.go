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

package polling

import (
	bridge "github.com/ZaparooProject/go-nfcv-bridge"
)

// PresenceState tracks whether a sensor is considered in range, from the
// acquisition results the main loop produces
type PresenceState struct {
	LastUID      bridge.UID
	LastSeenTick int64
	Present      bool
}

// observe folds one acquisition result into the state. It returns whether a
// sensor arrived, whether the sensor changed, and whether it was lost.
func (ps *PresenceState) observe(res bridge.AcquisitionResult, tick int64, lostAfter int64) (arrived, changed, lost bool) {
	if res.Found {
		switch {
		case !ps.Present:
			arrived = true
		case ps.LastUID != res.UID:
			changed = true
		}
		ps.Present = true
		ps.LastUID = res.UID
		ps.LastSeenTick = tick
		return arrived, changed, false
	}

	if ps.Present && tick-ps.LastSeenTick >= lostAfter {
		ps.Present = false
		return false, false, true
	}
	return false, false, false
}

// reset returns to the no-sensor state
func (ps *PresenceState) reset() {
	*ps = PresenceState{}
}
