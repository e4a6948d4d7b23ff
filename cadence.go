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

package bridge

// Cadence thresholds, in ticks since the last refresh
const (
	RefreshTicks    = 60
	CatchUpTicks    = 59
	ScanWindowTicks = 55
)

// CadenceCounters holds the tick state of the acquisition cadence
type CadenceCounters struct {
	Tick           uint32
	LastRefresh    uint32
	ScanWindowOpen bool
}

// CadenceHooks are the actions the cadence triggers
type CadenceHooks struct {
	Publish    func()
	Status     func()
	ResetSteps func()
}

// Cadence drives publishing from the 1 Hz tick. The scan window opens five
// ticks before each refresh so the scheduler can acquire a fresh snapshot,
// the second frame goes out one tick early, and the refresh itself publishes
// again and sends a status notification.
type Cadence struct {
	hooks    CadenceHooks
	counters CadenceCounters
}

// NewCadence creates a cadence starting at tick 0
func NewCadence(hooks CadenceHooks) *Cadence {
	return &Cadence{hooks: hooks}
}

// Tick advances the counter by one and applies the thresholds
func (c *Cadence) Tick() {
	c.counters.Tick++
	c.evaluate()
}

func (c *Cadence) evaluate() {
	since := c.counters.Tick - c.counters.LastRefresh

	switch {
	case since >= RefreshTicks:
		c.counters.LastRefresh = c.counters.Tick
		c.counters.ScanWindowOpen = false
		call(c.hooks.Publish)
		call(c.hooks.Status)
	case since == CatchUpTicks:
		call(c.hooks.Publish)
	case since >= ScanWindowTicks:
		c.counters.ScanWindowOpen = true
		call(c.hooks.ResetSteps)
	default:
		c.counters.ScanWindowOpen = false
	}
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}

// Now returns the tick counter
func (c *Cadence) Now() uint32 {
	return c.counters.Tick
}

// ScanWindowOpen reports whether acquisition is allowed
func (c *Cadence) ScanWindowOpen() bool {
	return c.counters.ScanWindowOpen
}

// Counters returns a copy of the counters
func (c *Cadence) Counters() CadenceCounters {
	return c.counters
}

// Reseed replaces the tick counter. The last refresh is left alone, so a
// jump of a full refresh interval or more, forward or backward, makes the
// next tick refresh and realigns the interval on it.
func (c *Cadence) Reseed(tick uint32) {
	c.counters.Tick = tick
}
