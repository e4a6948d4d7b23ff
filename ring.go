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

import "encoding/binary"

// Ring describes one circular buffer of readings in sensor memory
type Ring struct {
	Name          string
	Pointer       Field
	Base          int
	Size          int
	PeriodMinutes int
	// Quiescence is the longest gap in minutes the ring can absorb without
	// having been overwritten completely
	Quiescence int
}

// Reading rings of a Libre sensor
var (
	TrendRing = Ring{
		Name:          "trend",
		Pointer:       FieldTrendPointer,
		Base:          FieldTrendRing.Offset,
		Size:          16,
		PeriodMinutes: 1,
		Quiescence:    15,
	}
	HistoryRing = Ring{
		Name:          "history",
		Pointer:       FieldHistoryPointer,
		Base:          FieldHistoryRing.Offset,
		Size:          32,
		PeriodMinutes: 15,
		Quiescence:    (32 - 1) * 15,
	}
)

// ByteRange is a half-open byte interval [Start, End) of sensor memory
type ByteRange struct {
	Start int
	End   int
}

// BlockRange is an inclusive interval of block addresses
type BlockRange struct {
	First int
	Last  int
}

// ForwardDistance returns how many slots a writer moved going from one
// pointer to another on a ring of the given size. The result is in [0, size).
func ForwardDistance(from, to, size int) int {
	return ((to-from)%size + size) % size
}

// SlotsSinceLastReading returns how many slots of a ring were written since
// the previous read. A gap longer than the ring's quiescence period saturates
// to the full ring.
func SlotsSinceLastReading(prevPointer, pointer, size, minutesDelta, quiescence int) int {
	if minutesDelta > quiescence {
		return size
	}
	return ForwardDistance(prevPointer, pointer, size)
}

// SlotOffset returns the byte offset of a slot
func (r Ring) SlotOffset(slot int) int {
	return r.Base + (((slot % r.Size) + r.Size) % r.Size * RecordSize)
}

// newSlotCount applies the saturation rules for one ring
func (r Ring) newSlotCount(prevPointer, pointer uint8, minutesDelta int, forceFull bool) int {
	if forceFull || minutesDelta < 0 {
		return r.Size
	}
	return SlotsSinceLastReading(int(prevPointer), int(pointer), r.Size, minutesDelta, r.Quiescence)
}

// NewSlots returns the byte ranges of count slots starting at first, split
// where the ring wraps
func (r Ring) NewSlots(first, count int) []ByteRange {
	if count <= 0 {
		return nil
	}
	if count > r.Size {
		count = r.Size
	}
	first = ((first % r.Size) + r.Size) % r.Size

	var ranges []ByteRange
	run := count
	if first+run > r.Size {
		run = r.Size - first
	}
	ranges = append(ranges, ByteRange{
		Start: r.SlotOffset(first),
		End:   r.SlotOffset(first) + run*RecordSize,
	})
	if rest := count - run; rest > 0 {
		ranges = append(ranges, ByteRange{
			Start: r.Base,
			End:   r.Base + rest*RecordSize,
		})
	}
	return ranges
}

// BlocksFor maps byte ranges to the blocks containing them
func BlocksFor(ranges []ByteRange) []BlockRange {
	blocks := make([]BlockRange, 0, len(ranges))
	for _, br := range ranges {
		if br.End <= br.Start {
			continue
		}
		blocks = append(blocks, BlockRange{
			First: br.Start / BlockSize,
			Last:  (br.End - 1) / BlockSize,
		})
	}
	return blocks
}

func (r Ring) reading(mem *TagMemory, slot, ageMinutes int) Reading {
	off := r.SlotOffset(slot)
	return Reading{
		Raw:        binary.LittleEndian.Uint16(mem[off:]),
		Slot:       ((slot % r.Size) + r.Size) % r.Size,
		AgeMinutes: ageMinutes,
	}
}

// baseAge is the age of the most recent record. Trend records are written
// every minute; history records are written on quarter-hour boundaries of
// the sensor's minute counter.
func (r Ring) baseAge(minutes uint16) int {
	if r.PeriodMinutes <= 1 {
		return 0
	}
	return int(minutes) % r.PeriodMinutes
}

// Recent decodes the n most recent records, newest first
func (r Ring) Recent(mem *TagMemory, pointer uint8, minutes uint16, n int) []Reading {
	if n > r.Size {
		n = r.Size
	}
	base := r.baseAge(minutes)
	out := make([]Reading, 0, n)
	for k := 1; k <= n; k++ {
		out = append(out, r.reading(mem, int(pointer)-k, base+(k-1)*r.PeriodMinutes))
	}
	return out
}

// Since decodes the count records written before pointer, oldest first
func (r Ring) Since(mem *TagMemory, pointer uint8, minutes uint16, count int) []Reading {
	if count <= 0 {
		return nil
	}
	if count > r.Size {
		count = r.Size
	}
	base := r.baseAge(minutes)
	start := int(pointer) - count
	out := make([]Reading, 0, count)
	for i := 0; i < count; i++ {
		slot := start + i
		back := count - i
		out = append(out, r.reading(mem, slot, base+(back-1)*r.PeriodMinutes))
	}
	return out
}
