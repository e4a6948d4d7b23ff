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
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters of a Runner
type Metrics struct {
	Cycles           int64         // Work cycles run
	Ticks            int64         // Cadence ticks delivered
	Interrupts       int64         // Front-end interrupts delivered
	Acquisitions     int64         // Acquisition attempts
	Syncs            int64         // Completed memory reads
	Errors           int64         // Acquisition attempts that ended in an error
	LastCycleLatency time.Duration // Duration of the last work cycle
}

type metrics struct {
	cycles           atomic.Int64
	ticks            atomic.Int64
	interrupts       atomic.Int64
	acquisitions     atomic.Int64
	syncs            atomic.Int64
	errors           atomic.Int64
	lastCycleLatency atomic.Int64 // nanoseconds
}

func (m *metrics) snapshot() Metrics {
	return Metrics{
		Cycles:           m.cycles.Load(),
		Ticks:            m.ticks.Load(),
		Interrupts:       m.interrupts.Load(),
		Acquisitions:     m.acquisitions.Load(),
		Syncs:            m.syncs.Load(),
		Errors:           m.errors.Load(),
		LastCycleLatency: time.Duration(m.lastCycleLatency.Load()),
	}
}
