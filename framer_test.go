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
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZaparooProject/go-nfcv-bridge/internal/frame"
	virt "github.com/ZaparooProject/go-nfcv-bridge/internal/testing"
)

func newTestRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func TestFramer_RealDataAlternates(t *testing.T) {
	t.Parallel()
	notifier := &RecordingNotifier{}
	f := NewFramer(notifier, newTestRand())

	sensor := virt.NewVirtualSensor(virt.TestSensorUID)
	sensor.Advance(42)
	mem := sensor.Snapshot()

	for i := 0; i < 3; i++ {
		_, err := f.Publish(mem[:], true)
		require.NoError(t, err)
	}

	sent := notifier.OnHandle(HandleData)
	require.Len(t, sent, 3)
	for i, n := range sent {
		require.Len(t, n.Data, frame.FrameSize)
		assert.Equal(t, byte(i%2), n.Data[0])
		assert.True(t, frame.ValidateChecksum(n.Data))
	}

	f0, err := frame.Parse(sent[0].Data)
	require.NoError(t, err)
	f1, err := frame.Parse(sent[1].Data)
	require.NoError(t, err)
	got, err := frame.Reassemble(f0, f1)
	require.NoError(t, err)
	assert.Equal(t, mem[:], got)
}

func TestFramer_PairFromOneSnapshot(t *testing.T) {
	t.Parallel()
	notifier := &RecordingNotifier{}
	f := NewFramer(notifier, newTestRand())

	sensor := virt.NewVirtualSensor(virt.TestSensorUID)
	sensor.Advance(42)
	first := sensor.Snapshot()
	sensor.Advance(1)
	second := sensor.Snapshot()
	require.NotEqual(t, first, second)

	_, err := f.Publish(first[:], true)
	require.NoError(t, err)
	_, err = f.Publish(second[:], true)
	require.NoError(t, err)
	_, err = f.Publish(second[:], true)
	require.NoError(t, err)
	_, err = f.Publish(first[:], true)
	require.NoError(t, err)

	sent := notifier.OnHandle(HandleData)
	require.Len(t, sent, 4)
	reassemble := func(a, b Notification) []byte {
		f0, err := frame.Parse(a.Data)
		require.NoError(t, err)
		f1, err := frame.Parse(b.Data)
		require.NoError(t, err)
		got, err := frame.Reassemble(f0, f1)
		require.NoError(t, err)
		return got
	}
	assert.Equal(t, first[:], reassemble(sent[0], sent[1]), "second half framed from the step 0 copy")
	assert.Equal(t, second[:], reassemble(sent[2], sent[3]))
}

func TestFramer_SyntheticData(t *testing.T) {
	t.Parallel()
	notifier := &RecordingNotifier{}
	f := NewFramer(notifier, newTestRand())

	ignored := make([]byte, MemorySize)
	f0, err := f.Publish(ignored, false)
	require.NoError(t, err)
	first := f.Synthetic()

	f1, err := f.Publish(ignored, false)
	require.NoError(t, err)
	assert.Equal(t, first, f.Synthetic(), "step 1 reuses the snapshot generated at step 0")

	got, err := frame.Reassemble(f0, f1)
	require.NoError(t, err)
	assert.Equal(t, first[:], got)

	snap := DecodeMemory(UID{}, &first)
	for _, r := range snap.Trend {
		assert.GreaterOrEqual(t, r.Raw, uint16(syntheticRawMin))
		assert.Less(t, r.Raw, uint16(syntheticRawMin+syntheticRawSpan))
	}

	_, err = f.Publish(ignored, false)
	require.NoError(t, err)
	assert.NotEqual(t, first, f.Synthetic(), "step 0 regenerates")
}

func TestFramer_IndependentSteps(t *testing.T) {
	t.Parallel()
	f := NewFramer(nil, newTestRand())
	mem := make([]byte, MemorySize)

	fr, err := f.Publish(mem, true)
	require.NoError(t, err)
	assert.Equal(t, 0, fr.Step())

	fr, err = f.Publish(mem, false)
	require.NoError(t, err)
	assert.Equal(t, 0, fr.Step(), "synthetic counter untouched by real publishes")

	fr, err = f.Publish(mem, true)
	require.NoError(t, err)
	assert.Equal(t, 1, fr.Step())

	realStep, synthStep := f.Steps()
	assert.Equal(t, 0, realStep)
	assert.Equal(t, 1, synthStep)

	f.ResetSteps()
	realStep, synthStep = f.Steps()
	assert.Zero(t, realStep)
	assert.Zero(t, synthStep)
}

func TestFramer_DeliveryErrorDropped(t *testing.T) {
	t.Parallel()
	notifier := &RecordingNotifier{Err: errors.New("not connected")}
	f := NewFramer(notifier, newTestRand())

	_, err := f.Publish(make([]byte, MemorySize), true)
	require.NoError(t, err)
	assert.Len(t, notifier.Sent(), 1)

	realStep, _ := f.Steps()
	assert.Equal(t, 1, realStep)
}

func TestFramer_WrongSnapshotSize(t *testing.T) {
	t.Parallel()
	f := NewFramer(nil, newTestRand())

	_, err := f.Publish(make([]byte, 100), true)
	require.ErrorIs(t, err, frame.ErrInvalidLength)

	realStep, _ := f.Steps()
	assert.Zero(t, realStep)
}
