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

// Package testing provides a simulated Libre-style NFC-V sensor for tests
package testing

import (
	"encoding/binary"
	"sync"
)

// Memory layout of the simulated sensor
const (
	BlockSize   = 8
	BlockCount  = 43
	MemorySize  = BlockSize * BlockCount
	recordSize  = 6
	trendSlots  = 16
	histSlots   = 32
	offState    = 4
	offTrendPtr = 26
	offHistPtr  = 27
	offTrend    = 28
	offHistory  = 124
	offMinutes  = 316
)

// TestSensorUID is the default UID in wire order
var TestSensorUID = [8]byte{0x5A, 0x3C, 0x91, 0x00, 0x00, 0xA4, 0x07, 0xE0}

// VirtualSensor simulates a Libre-style sensor in the field
type VirtualSensor struct {
	Memory   [MemorySize]byte
	UID      [8]byte
	Reads    int
	mu       sync.Mutex
	Present  bool
	Selected bool
}

// NewVirtualSensor creates a sensor in the ready state at minute 0
func NewVirtualSensor(uid [8]byte) *VirtualSensor {
	s := &VirtualSensor{
		UID:     uid,
		Present: true,
	}
	s.Memory[offState] = 0x03
	return s
}

// SetPresent moves the sensor into or out of the field
func (s *VirtualSensor) SetPresent(present bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Present = present
	if !present {
		s.Selected = false
	}
}

// IsPresent reports whether the sensor is in the field
func (s *VirtualSensor) IsPresent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Present
}

// SetState writes the lifecycle byte
func (s *VirtualSensor) SetState(state byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Memory[offState] = state
}

// SetPointers writes both ring pointers
func (s *VirtualSensor) SetPointers(trend, history byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Memory[offTrendPtr] = trend
	s.Memory[offHistPtr] = history
}

// SetMinutes writes the minute counter
func (s *VirtualSensor) SetMinutes(minutes uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	binary.LittleEndian.PutUint16(s.Memory[offMinutes:], minutes)
}

// Minutes returns the minute counter
func (s *VirtualSensor) Minutes() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return binary.LittleEndian.Uint16(s.Memory[offMinutes:])
}

// SetTrend writes a raw value into a trend slot
func (s *VirtualSensor) SetTrend(slot int, raw uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	binary.LittleEndian.PutUint16(s.Memory[offTrend+(slot%trendSlots)*recordSize:], raw)
}

// SetHistory writes a raw value into a history slot
func (s *VirtualSensor) SetHistory(slot int, raw uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	binary.LittleEndian.PutUint16(s.Memory[offHistory+(slot%histSlots)*recordSize:], raw)
}

// TrendValue returns the raw value the simulation writes at a given minute
func TrendValue(minute int) uint16 {
	return uint16(0x0400 + minute%0x0400)
}

// Advance runs the sensor clock forward. Every minute a trend record is
// written at the trend pointer, and every 15 minutes a history record.
func (s *VirtualSensor) Advance(minutes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < minutes; i++ {
		m := int(binary.LittleEndian.Uint16(s.Memory[offMinutes:])) + 1
		binary.LittleEndian.PutUint16(s.Memory[offMinutes:], uint16(m))

		tp := int(s.Memory[offTrendPtr]) % trendSlots
		binary.LittleEndian.PutUint16(s.Memory[offTrend+tp*recordSize:], TrendValue(m))
		s.Memory[offTrendPtr] = byte((tp + 1) % trendSlots)

		if m%15 == 0 {
			hp := int(s.Memory[offHistPtr]) % histSlots
			binary.LittleEndian.PutUint16(s.Memory[offHistory+hp*recordSize:], TrendValue(m))
			s.Memory[offHistPtr] = byte((hp + 1) % histSlots)
		}
	}
}

// Block returns a copy of one memory block
func (s *VirtualSensor) Block(addr int) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, BlockSize)
	copy(out, s.Memory[addr*BlockSize:])
	return out
}

// ReadBlock returns a copy of one memory block and counts the read
func (s *VirtualSensor) ReadBlock(addr int) []byte {
	s.mu.Lock()
	s.Reads++
	s.mu.Unlock()
	return s.Block(addr)
}

// WriteBlock replaces one memory block
func (s *VirtualSensor) WriteBlock(addr int, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy(s.Memory[addr*BlockSize:(addr+1)*BlockSize], data)
}

// ReadCount returns how many blocks have been read
func (s *VirtualSensor) ReadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Reads
}

// Snapshot returns a copy of the memory image
func (s *VirtualSensor) Snapshot() [MemorySize]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Memory
}

// Respond answers an ISO15693 request with the CRC already stripped. It
// returns nil when the sensor stays silent.
func (s *VirtualSensor) Respond(req []byte) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Present || len(req) < 2 {
		return nil
	}
	flags, cmd, rest := req[0], req[1], req[2:]

	if flags&flagInventory != 0 {
		if cmd != cmdInventory {
			return nil
		}
		return BuildInventoryResponse(s.UID)
	}

	if flags&flagAddress != 0 {
		if len(rest) < 8 || [8]byte(rest[:8]) != s.UID {
			return nil
		}
		rest = rest[8:]
	} else if flags&flagSelect != 0 && !s.Selected {
		return nil
	}

	switch cmd {
	case cmdSelect:
		s.Selected = true
		return BuildOKResponse()
	case cmdReadSingleBlock:
		if len(rest) < 1 {
			return BuildErrorResponse(ErrorNotRecognized)
		}
		addr := int(rest[0])
		if addr >= BlockCount {
			return BuildErrorResponse(ErrorBlockUnavailable)
		}
		s.Reads++
		return BuildReadBlockResponse(s.Memory[addr*BlockSize : (addr+1)*BlockSize])
	case cmdReadMultiple:
		if len(rest) < 2 {
			return BuildErrorResponse(ErrorNotRecognized)
		}
		first, last := int(rest[0]), int(rest[0])+int(rest[1])
		if last >= BlockCount {
			return BuildErrorResponse(ErrorBlockUnavailable)
		}
		s.Reads += last - first + 1
		return BuildReadBlockResponse(s.Memory[first*BlockSize : (last+1)*BlockSize])
	case cmdWriteSingle:
		if len(rest) < 1+BlockSize {
			return BuildErrorResponse(ErrorNotRecognized)
		}
		addr := int(rest[0])
		if addr >= BlockCount {
			return BuildErrorResponse(ErrorBlockUnavailable)
		}
		copy(s.Memory[addr*BlockSize:], rest[1:1+BlockSize])
		return BuildOKResponse()
	default:
		return BuildErrorResponse(ErrorNotSupported)
	}
}
