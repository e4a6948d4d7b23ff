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
	"encoding/binary"
	"fmt"
)

// Sensor memory geometry
const (
	BlockSize   = 8
	BlockCount  = 43
	MemorySize  = BlockSize * BlockCount
	RecordSize  = 6
	RecentTrend = 15
)

// MaxSensorMinutes is the sensor lifetime after which readings are stale
const MaxSensorMinutes = 20160

// Field is one entry of the sensor memory layout
type Field struct {
	Name   string
	Offset int
	Width  int
}

// The memory layout is a fixed wire format. Every offset the bridge reads is
// listed here and nowhere else.
var (
	FieldSensorState    = Field{Name: "sensor_state", Offset: 4, Width: 1}
	FieldTrendPointer   = Field{Name: "trend_pointer", Offset: 26, Width: 1}
	FieldHistoryPointer = Field{Name: "history_pointer", Offset: 27, Width: 1}
	FieldTrendRing      = Field{Name: "trend_ring", Offset: 28, Width: 16 * RecordSize}
	FieldHistoryRing    = Field{Name: "history_ring", Offset: 124, Width: 32 * RecordSize}
	FieldMinutes        = Field{Name: "minutes_since_start", Offset: 316, Width: 2}
)

// Layout lists every field in memory order
var Layout = []Field{
	FieldSensorState,
	FieldTrendPointer,
	FieldHistoryPointer,
	FieldTrendRing,
	FieldHistoryRing,
	FieldMinutes,
}

// SensorState is the lifecycle byte stored in the sensor header
type SensorState uint8

// Sensor lifecycle states
const (
	SensorUnknown       SensorState = 0x00
	SensorNotYetStarted SensorState = 0x01
	SensorStarting      SensorState = 0x02
	SensorReady         SensorState = 0x03
	SensorExpired       SensorState = 0x04
	SensorShutdown      SensorState = 0x05
	SensorFailure       SensorState = 0x06
)

// String returns the state name
func (s SensorState) String() string {
	switch s {
	case SensorNotYetStarted:
		return "not_yet_started"
	case SensorStarting:
		return "starting"
	case SensorReady:
		return "ready"
	case SensorExpired:
		return "expired"
	case SensorShutdown:
		return "shutdown"
	case SensorFailure:
		return "failure"
	default:
		return fmt.Sprintf("unknown(0x%02X)", uint8(s))
	}
}

// TagMemory is a full image of the sensor FRAM
type TagMemory [MemorySize]byte

// SetBlock copies one block into the image
func (m *TagMemory) SetBlock(addr int, data []byte) error {
	if addr < 0 || addr >= BlockCount {
		return fmt.Errorf("%w: block %d out of range", ErrInvalidParameter, addr)
	}
	if len(data) < BlockSize {
		return fmt.Errorf("%w: block %d has %d bytes", ErrFrameCorrupted, addr, len(data))
	}
	copy(m[addr*BlockSize:(addr+1)*BlockSize], data[:BlockSize])
	return nil
}

// Block returns one block of the image
func (m *TagMemory) Block(addr int) []byte {
	return m[addr*BlockSize : (addr+1)*BlockSize]
}

// SensorState returns the lifecycle byte
func (m *TagMemory) SensorState() SensorState {
	return SensorState(m[FieldSensorState.Offset])
}

// TrendPointer returns the next trend slot to be written
func (m *TagMemory) TrendPointer() uint8 {
	return m[FieldTrendPointer.Offset] % uint8(TrendRing.Size)
}

// HistoryPointer returns the next history slot to be written
func (m *TagMemory) HistoryPointer() uint8 {
	return m[FieldHistoryPointer.Offset] % uint8(HistoryRing.Size)
}

// MinutesSinceStart returns the sensor's minute counter
func (m *TagMemory) MinutesSinceStart() uint16 {
	return binary.LittleEndian.Uint16(m[FieldMinutes.Offset:])
}

// Reading is one decoded ring record
type Reading struct {
	Raw        uint16
	Slot       int
	AgeMinutes int
}

// Value returns the 14-bit measurement
func (r Reading) Value() uint16 {
	return r.Raw & 0x3FFF
}
