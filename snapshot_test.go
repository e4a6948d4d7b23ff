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
	"github.com/stretchr/testify/require"

	virt "github.com/ZaparooProject/go-nfcv-bridge/internal/testing"
)

func sensorMemory(s *virt.VirtualSensor) *TagMemory {
	m := TagMemory(s.Snapshot())
	return &m
}

func TestDecodeMemory(t *testing.T) {
	t.Parallel()

	sensor := virt.NewVirtualSensor(virt.TestSensorUID)
	sensor.Advance(100)

	snap := DecodeMemory(UID(virt.TestSensorUID), sensorMemory(sensor))

	assert.True(t, snap.Valid)
	assert.Equal(t, SensorReady, snap.State)
	assert.Equal(t, uint16(100), snap.MinutesSinceStart)
	assert.Equal(t, uint8(100%16), snap.TrendPointer)
	assert.Equal(t, uint8(6), snap.HistoryPointer)

	require.Len(t, snap.Trend, RecentTrend)
	for k, r := range snap.Trend {
		assert.Equal(t, virt.TrendValue(100-k), r.Raw, "trend %d", k)
		assert.Equal(t, k, r.AgeMinutes)
	}

	require.Len(t, snap.History, HistoryRing.Size)
	assert.Equal(t, virt.TrendValue(90), snap.History[0].Raw)
	assert.Equal(t, 10, snap.History[0].AgeMinutes)
	assert.Equal(t, virt.TrendValue(75), snap.History[1].Raw)

	// First read of a session marks everything as new
	assert.Equal(t, TrendRing.Size, snap.TrendsSinceLastReading)
	assert.Equal(t, HistoryRing.Size, snap.HistorySinceLastReading)
	assert.Len(t, snap.NewTrend, TrendRing.Size)
	assert.Len(t, snap.NewHistory, HistoryRing.Size)
}

func TestTagSnapshot_Incremental(t *testing.T) {
	t.Parallel()

	uid := UID(virt.TestSensorUID)
	sensor := virt.NewVirtualSensor(virt.TestSensorUID)
	sensor.Advance(100)

	var snap TagSnapshot
	snap.load(uid, sensorMemory(sensor))

	sensor.Advance(2)
	snap.load(uid, sensorMemory(sensor))

	assert.Equal(t, uint8(4), snap.PreviousTrendPointer)
	assert.Equal(t, uint8(6), snap.TrendPointer)
	assert.Equal(t, uint16(100), snap.PreviousMinutesSinceStart)
	assert.Equal(t, 2, snap.TrendsSinceLastReading)
	assert.Equal(t, 0, snap.HistorySinceLastReading)

	require.Len(t, snap.NewTrend, 2)
	assert.Equal(t, virt.TrendValue(101), snap.NewTrend[0].Raw)
	assert.Equal(t, 1, snap.NewTrend[0].AgeMinutes)
	assert.Equal(t, virt.TrendValue(102), snap.NewTrend[1].Raw)
	assert.Equal(t, 0, snap.NewTrend[1].AgeMinutes)
	assert.Empty(t, snap.NewHistory)

	assert.Equal(t, []BlockRange{{First: 6, Last: 7}}, snap.DirtyBlocks)
}

func TestTagSnapshot_Saturation(t *testing.T) {
	t.Parallel()
	uid := UID(virt.TestSensorUID)

	t.Run("long gap saturates trend only", func(t *testing.T) {
		t.Parallel()
		sensor := virt.NewVirtualSensor(virt.TestSensorUID)
		sensor.Advance(100)

		var snap TagSnapshot
		snap.load(uid, sensorMemory(sensor))
		sensor.Advance(20)
		snap.load(uid, sensorMemory(sensor))

		assert.Equal(t, TrendRing.Size, snap.TrendsSinceLastReading)
		assert.Equal(t, 2, snap.HistorySinceLastReading)
	})

	t.Run("pointer unchanged after fifteen minutes", func(t *testing.T) {
		t.Parallel()
		sensor := virt.NewVirtualSensor(virt.TestSensorUID)
		sensor.Advance(100)

		var snap TagSnapshot
		snap.load(uid, sensorMemory(sensor))
		sensor.SetMinutes(115)
		snap.load(uid, sensorMemory(sensor))

		assert.Equal(t, 0, snap.TrendsSinceLastReading)
	})

	t.Run("minutes went backwards", func(t *testing.T) {
		t.Parallel()
		sensor := virt.NewVirtualSensor(virt.TestSensorUID)
		sensor.Advance(100)

		var snap TagSnapshot
		snap.load(uid, sensorMemory(sensor))
		sensor.SetMinutes(50)
		snap.load(uid, sensorMemory(sensor))

		assert.Equal(t, TrendRing.Size, snap.TrendsSinceLastReading)
		assert.Equal(t, HistoryRing.Size, snap.HistorySinceLastReading)
	})

	t.Run("different sensor", func(t *testing.T) {
		t.Parallel()
		sensor := virt.NewVirtualSensor(virt.TestSensorUID)
		sensor.Advance(100)

		var snap TagSnapshot
		snap.load(uid, sensorMemory(sensor))
		sensor.Advance(1)

		other := uid
		other[0] ^= 0xFF
		snap.load(other, sensorMemory(sensor))

		assert.Equal(t, uid, snap.PreviousUID)
		assert.Equal(t, TrendRing.Size, snap.TrendsSinceLastReading)
		assert.Equal(t, HistoryRing.Size, snap.HistorySinceLastReading)
	})
}

func TestTagSnapshot_Expired(t *testing.T) {
	t.Parallel()

	sensor := virt.NewVirtualSensor(virt.TestSensorUID)
	sensor.SetMinutes(MaxSensorMinutes - 1)
	snap := DecodeMemory(UID(virt.TestSensorUID), sensorMemory(sensor))
	assert.False(t, snap.Expired())

	sensor.SetMinutes(MaxSensorMinutes)
	snap = DecodeMemory(UID(virt.TestSensorUID), sensorMemory(sensor))
	assert.True(t, snap.Expired())

	sensor.SetMinutes(10)
	sensor.SetState(byte(SensorExpired))
	snap = DecodeMemory(UID(virt.TestSensorUID), sensorMemory(sensor))
	assert.True(t, snap.Expired())
}

func TestUID_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "E007A40000913C5A", UID(virt.TestSensorUID).String())
	assert.True(t, UID{}.IsZero())
}
