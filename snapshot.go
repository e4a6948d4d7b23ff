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

// TagSnapshot is the most recent image of a sensor plus what changed since
// the read before it. It is owned by the main loop.
type TagSnapshot struct {
	Memory TagMemory

	UID         UID
	PreviousUID UID

	TrendPointer           uint8
	PreviousTrendPointer   uint8
	HistoryPointer         uint8
	PreviousHistoryPointer uint8

	MinutesSinceStart         uint16
	PreviousMinutesSinceStart uint16

	State SensorState

	// Recent readings, newest first
	Trend   []Reading
	History []Reading

	TrendsSinceLastReading  int
	HistorySinceLastReading int

	// Readings that became valid with this read, oldest first
	NewTrend   []Reading
	NewHistory []Reading

	// Blocks holding the new readings
	DirtyBlocks []BlockRange

	Valid bool
}

// DecodeMemory builds a snapshot from a single memory image
func DecodeMemory(uid UID, mem *TagMemory) TagSnapshot {
	var s TagSnapshot
	s.load(uid, mem)
	return s
}

// load installs a new memory image and recomputes the incremental view.
// The first load of a session, a different UID, or a minute counter that went
// backwards all mark both rings as fully new.
func (s *TagSnapshot) load(uid UID, mem *TagMemory) {
	forceFull := !s.Valid || s.UID != uid

	s.PreviousUID = s.UID
	s.UID = uid
	s.Memory = *mem

	s.PreviousTrendPointer = s.TrendPointer
	s.TrendPointer = mem.TrendPointer()
	s.PreviousHistoryPointer = s.HistoryPointer
	s.HistoryPointer = mem.HistoryPointer()
	s.PreviousMinutesSinceStart = s.MinutesSinceStart
	s.MinutesSinceStart = mem.MinutesSinceStart()
	s.State = mem.SensorState()

	delta := int(s.MinutesSinceStart) - int(s.PreviousMinutesSinceStart)

	s.TrendsSinceLastReading = TrendRing.newSlotCount(
		s.PreviousTrendPointer, s.TrendPointer, delta, forceFull)
	s.HistorySinceLastReading = HistoryRing.newSlotCount(
		s.PreviousHistoryPointer, s.HistoryPointer, delta, forceFull)

	s.Trend = TrendRing.Recent(mem, s.TrendPointer, s.MinutesSinceStart, RecentTrend)
	s.History = HistoryRing.Recent(mem, s.HistoryPointer, s.MinutesSinceStart, HistoryRing.Size)

	s.NewTrend = TrendRing.Since(mem, s.TrendPointer, s.MinutesSinceStart, s.TrendsSinceLastReading)
	s.NewHistory = HistoryRing.Since(mem, s.HistoryPointer, s.MinutesSinceStart, s.HistorySinceLastReading)

	ranges := TrendRing.NewSlots(int(s.TrendPointer)-s.TrendsSinceLastReading, s.TrendsSinceLastReading)
	ranges = append(ranges,
		HistoryRing.NewSlots(int(s.HistoryPointer)-s.HistorySinceLastReading, s.HistorySinceLastReading)...)
	s.DirtyBlocks = BlocksFor(ranges)

	s.Valid = true
}

// Expired reports whether the sensor is past its lifetime
func (s *TagSnapshot) Expired() bool {
	return s.MinutesSinceStart >= MaxSensorMinutes || s.State == SensorExpired
}

// Bytes returns a copy of the memory image
func (s *TagSnapshot) Bytes() []byte {
	out := make([]byte, MemorySize)
	copy(out, s.Memory[:])
	return out
}

// Reset forgets the previous image so the next load is treated as a first read
func (s *TagSnapshot) Reset() {
	*s = TagSnapshot{}
}
