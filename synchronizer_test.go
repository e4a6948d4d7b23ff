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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	virt "github.com/ZaparooProject/go-nfcv-bridge/internal/testing"
)

type syncFixture struct {
	sensor    *virt.VirtualSensor
	transport *MockTransport
	snapshot  *TagSnapshot
	sync      *Synchronizer
	tick      uint32
}

func newSyncFixture() *syncFixture {
	f := &syncFixture{
		sensor:   virt.NewVirtualSensor(virt.TestSensorUID),
		snapshot: &TagSnapshot{},
	}
	f.sensor.Advance(100)
	f.transport = NewMockTransport(f.sensor)
	f.sync = NewSynchronizer(f.transport, f.snapshot, func() uint32 { return f.tick }, DefaultCooldownTicks)
	return f
}

func TestSynchronizer_FirstAcquisition(t *testing.T) {
	t.Parallel()
	f := newSyncFixture()

	res := f.sync.Acquire(context.Background())

	require.NoError(t, res.Err)
	assert.True(t, res.Found)
	assert.True(t, res.Synced)
	assert.Equal(t, UID(virt.TestSensorUID), res.UID)
	assert.Equal(t, BlockCount, f.sensor.ReadCount())
	assert.Equal(t, 1, f.transport.CallCount("SelectTag"))
	assert.True(t, f.sync.Tracking())
	assert.True(t, f.sync.Present())
	assert.Equal(t, sensorMemory(f.sensor)[:], f.snapshot.Memory[:])
}

func TestSynchronizer_LatchSuppressesReread(t *testing.T) {
	t.Parallel()
	f := newSyncFixture()
	ctx := context.Background()

	require.True(t, f.sync.Acquire(ctx).Synced)

	f.tick = DefaultCooldownTicks - 1
	res := f.sync.Acquire(ctx)
	assert.True(t, res.Found)
	assert.False(t, res.Synced)
	assert.Equal(t, BlockCount, f.sensor.ReadCount())

	f.tick = DefaultCooldownTicks
	res = f.sync.Acquire(ctx)
	assert.True(t, res.Synced, "cooldown elapsed since the read")
	assert.Equal(t, 2*BlockCount, f.sensor.ReadCount())
}

func TestSynchronizer_DifferentUIDReleasesLatch(t *testing.T) {
	t.Parallel()
	f := newSyncFixture()
	ctx := context.Background()

	require.True(t, f.sync.Acquire(ctx).Synced)

	f.sensor.UID[0] ^= 0xFF
	f.tick = 10
	res := f.sync.Acquire(ctx)

	assert.True(t, res.Synced)
	latched, ok := f.sync.Latched()
	assert.True(t, ok)
	assert.Equal(t, UID(f.sensor.UID), latched)
	assert.Equal(t, UID(virt.TestSensorUID), f.snapshot.PreviousUID)
}

func TestSynchronizer_ShortAbsenceKeepsLatch(t *testing.T) {
	t.Parallel()
	f := newSyncFixture()
	ctx := context.Background()

	require.True(t, f.sync.Acquire(ctx).Synced)

	f.sensor.SetPresent(false)
	f.tick = 100
	res := f.sync.Acquire(ctx)
	assert.False(t, res.Found)
	assert.False(t, f.sync.Present())
	assert.True(t, f.sync.Tracking())

	f.sensor.SetPresent(true)
	f.tick = 200
	res = f.sync.Acquire(ctx)
	assert.True(t, res.Found)
	assert.False(t, res.Synced)
}

func TestSynchronizer_LongAbsenceReleasesLatch(t *testing.T) {
	t.Parallel()
	f := newSyncFixture()
	ctx := context.Background()

	f.tick = 5
	require.True(t, f.sync.Acquire(ctx).Synced)

	f.sensor.SetPresent(false)
	f.tick = 5 + DefaultCooldownTicks - 1
	f.sync.Acquire(ctx)
	assert.True(t, f.sync.Tracking())

	f.tick = 5 + DefaultCooldownTicks
	f.sync.Acquire(ctx)
	assert.False(t, f.sync.Tracking())

	f.sensor.SetPresent(true)
	f.tick++
	assert.True(t, f.sync.Acquire(ctx).Synced)
}

func TestSynchronizer_ReadFailure(t *testing.T) {
	t.Parallel()
	f := newSyncFixture()
	f.transport.ReadErr = NewTimeoutError("ReadBlock", "mock")
	f.transport.FailAtBlock = 10

	res := f.sync.Acquire(context.Background())

	assert.False(t, res.Found)
	assert.False(t, res.Synced)
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, ErrTransportTimeout)
	assert.False(t, f.sync.Tracking())
	assert.False(t, f.snapshot.Valid)
}

func TestSynchronizer_CollisionError(t *testing.T) {
	t.Parallel()
	f := newSyncFixture()
	f.transport.CollisionErr = ErrFrameCorrupted

	res := f.sync.Acquire(context.Background())

	assert.False(t, res.Found)
	assert.ErrorIs(t, res.Err, ErrFrameCorrupted)
	assert.Zero(t, f.transport.CallCount("ReadBlock"))
}

func TestSynchronizer_SyncHandler(t *testing.T) {
	t.Parallel()
	f := newSyncFixture()

	var got []uint16
	f.sync.onSync = func(s *TagSnapshot) {
		got = append(got, s.MinutesSinceStart)
	}

	f.sync.Acquire(context.Background())
	assert.Equal(t, []uint16{100}, got)
}

func TestSynchronizer_FailedRereadKeepsSession(t *testing.T) {
	t.Parallel()
	f := newSyncFixture()
	ctx := context.Background()

	require.True(t, f.sync.Acquire(ctx).Synced)
	before := f.snapshot.Memory

	f.sensor.Advance(5)
	f.transport.ReadErr = NewTimeoutError("ReadBlock", "mock")
	f.transport.FailAtBlock = 20
	f.tick = DefaultCooldownTicks

	res := f.sync.Acquire(ctx)
	assert.False(t, res.Found)
	require.Error(t, res.Err)
	assert.True(t, f.sync.Tracking(), "same tag still in the field")
	assert.True(t, f.snapshot.Valid)
	assert.Equal(t, before, f.snapshot.Memory)

	f.transport.ReadErr = nil
	f.tick++
	res = f.sync.Acquire(ctx)
	assert.True(t, res.Synced, "re-read retried on the next attempt")
	assert.Equal(t, uint16(105), f.snapshot.MinutesSinceStart)
}

func TestSynchronizer_FailedReadOfNewTagReleasesLatch(t *testing.T) {
	t.Parallel()
	f := newSyncFixture()
	ctx := context.Background()

	require.True(t, f.sync.Acquire(ctx).Synced)

	f.sensor.UID[0] ^= 0xFF
	f.transport.ReadErr = NewTimeoutError("ReadBlock", "mock")
	f.tick = 10

	res := f.sync.Acquire(ctx)
	assert.False(t, res.Found)
	assert.False(t, f.sync.Tracking())
}

func TestSynchronizer_RebaseKeepsElapsedTime(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		to   uint32
	}{
		{name: "backward", to: 3},
		{name: "forward", to: 50_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newSyncFixture()
			ctx := context.Background()

			f.tick = 1000
			require.True(t, f.sync.Acquire(ctx).Synced)

			f.tick = 1100
			f.sync.Rebase(f.tick, tt.to)
			f.tick = tt.to

			res := f.sync.Acquire(ctx)
			assert.True(t, res.Found)
			assert.False(t, res.Synced, "100 of the cooldown ticks elapsed")
			assert.Equal(t, BlockCount, f.sensor.ReadCount())

			f.tick = tt.to + DefaultCooldownTicks - 100
			assert.True(t, f.sync.Acquire(ctx).Synced)
		})
	}
}
