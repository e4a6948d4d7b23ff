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

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type cadenceLog struct {
	publishes []uint32
	statuses  []uint32
	resets    []uint32
	open      []uint32
}

func newLoggedCadence() (*Cadence, *cadenceLog) {
	log := &cadenceLog{}
	var c *Cadence
	c = NewCadence(CadenceHooks{
		Publish:    func() { log.publishes = append(log.publishes, c.Now()) },
		Status:     func() { log.statuses = append(log.statuses, c.Now()) },
		ResetSteps: func() { log.resets = append(log.resets, c.Now()) },
	})
	return c, log
}

func TestCadence_FirstMinute(t *testing.T) {
	t.Parallel()
	c, log := newLoggedCadence()

	for i := 0; i < 61; i++ {
		c.Tick()
		if c.ScanWindowOpen() {
			log.open = append(log.open, c.Now())
		}
	}

	assert.Equal(t, []uint32{59, 60}, log.publishes)
	assert.Equal(t, []uint32{60}, log.statuses)
	assert.Equal(t, []uint32{55, 56, 57, 58}, log.resets)
	assert.Equal(t, []uint32{55, 56, 57, 58, 59}, log.open)
	assert.Equal(t, uint32(60), c.Counters().LastRefresh)
	assert.Equal(t, uint32(61), c.Now())
}

func TestCadence_SecondMinute(t *testing.T) {
	t.Parallel()
	c, log := newLoggedCadence()

	for i := 0; i < 120; i++ {
		c.Tick()
	}

	assert.Equal(t, []uint32{59, 60, 119, 120}, log.publishes)
	assert.Equal(t, []uint32{60, 120}, log.statuses)
	assert.False(t, c.ScanWindowOpen())
}

func TestCadence_Reseed(t *testing.T) {
	t.Parallel()
	c, log := newLoggedCadence()

	c.Reseed(1_000_000)
	assert.Equal(t, uint32(1_000_000), c.Now())
	assert.Empty(t, log.publishes, "reseeding alone publishes nothing")

	c.Tick()
	assert.Equal(t, []uint32{1_000_001}, log.publishes)
	assert.Equal(t, uint32(1_000_001), c.Counters().LastRefresh)

	for i := 0; i < 59; i++ {
		c.Tick()
	}
	assert.Equal(t, []uint32{1_000_001, 1_000_060}, log.publishes)

	c.Reseed(10)
	c.Tick()
	assert.Equal(t, []uint32{1_000_001, 1_000_060, 11}, log.publishes, "backward jump refreshes once")
	assert.Equal(t, uint32(11), c.Counters().LastRefresh)
	assert.False(t, c.ScanWindowOpen())
}

func TestCadence_NilHooks(t *testing.T) {
	t.Parallel()
	c := NewCadence(CadenceHooks{})
	for i := 0; i < 61; i++ {
		c.Tick()
	}
	assert.Equal(t, uint32(60), c.Counters().LastRefresh)
}
