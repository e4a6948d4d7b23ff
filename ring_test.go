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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForwardDistance(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		from, to int
		size     int
		want     int
	}{
		{name: "forward", from: 5, to: 7, size: 16, want: 2},
		{name: "wrapped", from: 15, to: 1, size: 16, want: 2},
		{name: "behind", from: 7, to: 5, size: 16, want: 14},
		{name: "unchanged", from: 3, to: 3, size: 16, want: 0},
		{name: "history ring", from: 30, to: 2, size: 32, want: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ForwardDistance(tt.from, tt.to, tt.size)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0)
			assert.Less(t, got, tt.size)
		})
	}
}

func TestForwardDistance_AllPointers(t *testing.T) {
	t.Parallel()
	for _, n := range []int{TrendRing.Size, HistoryRing.Size} {
		for a := 0; a < n; a++ {
			for k := 0; k < n; k++ {
				got := ForwardDistance(a, (a+k)%n, n)
				if got != k || got < 0 || got >= n {
					t.Fatalf("ForwardDistance(%d, %d, %d) = %d, want %d", a, (a+k)%n, n, got, k)
				}
			}
		}
	}
}

func TestSlotsSinceLastReading(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		prev, cur  int
		minutes    int
		quiescence int
		size       int
		want       int
	}{
		{name: "two new trend records", prev: 5, cur: 7, minutes: 3, quiescence: 15, size: 16, want: 2},
		{name: "gap longer than quiescence", prev: 5, cur: 7, minutes: 20, quiescence: 15, size: 16, want: 16},
		{name: "gap equal to quiescence", prev: 5, cur: 5, minutes: 15, quiescence: 15, size: 16, want: 0},
		{name: "history within quiescence", prev: 10, cur: 12, minutes: 30, quiescence: 465, size: 32, want: 2},
		{name: "history saturated", prev: 10, cur: 12, minutes: 466, quiescence: 465, size: 32, want: 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := SlotsSinceLastReading(tt.prev, tt.cur, tt.size, tt.minutes, tt.quiescence)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRing_NewSlots(t *testing.T) {
	t.Parallel()

	t.Run("contiguous", func(t *testing.T) {
		t.Parallel()
		got := TrendRing.NewSlots(4, 2)
		assert.Equal(t, []ByteRange{{Start: 52, End: 64}}, got)
		assert.Equal(t, []BlockRange{{First: 6, Last: 7}}, BlocksFor(got))
	})

	t.Run("wraps", func(t *testing.T) {
		t.Parallel()
		got := TrendRing.NewSlots(14, 4)
		assert.Equal(t, []ByteRange{{Start: 112, End: 124}, {Start: 28, End: 40}}, got)
		assert.Equal(t, []BlockRange{{First: 14, Last: 15}, {First: 3, Last: 4}}, BlocksFor(got))
	})

	t.Run("full ring", func(t *testing.T) {
		t.Parallel()
		got := HistoryRing.NewSlots(0, 32)
		require.Len(t, got, 1)
		assert.Equal(t, ByteRange{Start: 124, End: 316}, got[0])
	})

	t.Run("negative start", func(t *testing.T) {
		t.Parallel()
		got := TrendRing.NewSlots(-2, 2)
		assert.Equal(t, []ByteRange{{Start: 28 + 14*RecordSize, End: 124}}, got)
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, TrendRing.NewSlots(3, 0))
	})
}

func TestRing_Recent(t *testing.T) {
	t.Parallel()

	var mem TagMemory
	for slot := 0; slot < TrendRing.Size; slot++ {
		binary.LittleEndian.PutUint16(mem[TrendRing.SlotOffset(slot):], uint16(0xC000|slot))
	}

	got := TrendRing.Recent(&mem, 2, 100, RecentTrend)
	require.Len(t, got, RecentTrend)

	assert.Equal(t, 1, got[0].Slot)
	assert.Equal(t, 0, got[0].AgeMinutes)
	assert.Equal(t, uint16(1), got[0].Value(), "upper two bits are masked")
	assert.Equal(t, 0, got[1].Slot)
	assert.Equal(t, 15, got[2].Slot)
	assert.Equal(t, 14, got[14].AgeMinutes)
}

func TestRing_HistoryAges(t *testing.T) {
	t.Parallel()

	var mem TagMemory
	got := HistoryRing.Recent(&mem, 6, 100, 3)
	require.Len(t, got, 3)
	assert.Equal(t, 10, got[0].AgeMinutes)
	assert.Equal(t, 25, got[1].AgeMinutes)
	assert.Equal(t, 40, got[2].AgeMinutes)
}
