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
	"math/rand/v2"

	"github.com/ZaparooProject/go-nfcv-bridge/internal/frame"
)

// Synthetic readings stay inside a plausible raw range
const (
	syntheticRawMin  = 0x0300
	syntheticRawSpan = 0x0400
)

// syntheticHeader is the memory header of the placeholder snapshot sent when
// no sensor is tracked
var syntheticHeader = [...]byte{
	0x9D, 0x08, 0x30, 0x01, byte(SensorReady), 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x62, 0xC2,
}

// syntheticMinutes is the minute counter of the placeholder snapshot
const syntheticMinutes = 0x1000

// Framer turns 344-byte snapshots into telemetry frames, one per call,
// alternating between the two halves. Real and synthetic data keep separate
// step counters.
type Framer struct {
	notifier  Notifier
	rng       *rand.Rand
	synthetic TagMemory
	held      TagMemory
	realStep  int
	synthStep int
}

// NewFramer creates a framer that delivers to notifier. rng feeds the
// synthetic snapshot and may be nil.
func NewFramer(notifier Notifier, rng *rand.Rand) *Framer {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Framer{
		notifier: notifier,
		rng:      rng,
	}
}

// Publish emits the frame for the current step and advances the step. A
// real snapshot is copied at step 0 and step 1 is framed from that copy, so
// both halves describe the same read. When realData is false the snapshot
// argument is ignored and the synthetic snapshot is framed instead; it is
// regenerated at step 0.
func (f *Framer) Publish(snapshot []byte, realData bool) (frame.Frame, error) {
	var (
		step *int
		data []byte
	)
	if realData {
		step = &f.realStep
		data = snapshot
		if len(snapshot) == MemorySize {
			if *step == 0 {
				copy(f.held[:], snapshot)
			}
			data = f.held[:]
		}
	} else {
		step = &f.synthStep
		if *step == 0 {
			f.regenerate()
		}
		data = f.synthetic[:]
	}

	fr, err := frame.Build(data, *step)
	if err != nil {
		return frame.Frame{}, err
	}
	*step = (*step + 1) % frame.StepCount

	if f.notifier != nil {
		if err := f.notifier.Notify(HandleData, fr.Bytes()); err != nil {
			debugf("frame %d not delivered: %v", fr.Step(), err)
		}
	}
	return fr, nil
}

// ResetSteps restarts both step counters at 0
func (f *Framer) ResetSteps() {
	f.realStep = 0
	f.synthStep = 0
}

// Steps returns the current real and synthetic steps
func (f *Framer) Steps() (realStep, synthStep int) {
	return f.realStep, f.synthStep
}

// Synthetic returns the current placeholder snapshot
func (f *Framer) Synthetic() TagMemory {
	return f.synthetic
}

func (f *Framer) regenerate() {
	var m TagMemory
	copy(m[:], syntheticHeader[:])
	binary.LittleEndian.PutUint16(m[FieldMinutes.Offset:], syntheticMinutes)

	fill := func(r Ring) {
		for slot := 0; slot < r.Size; slot++ {
			off := r.SlotOffset(slot)
			raw := uint16(syntheticRawMin + f.rng.IntN(syntheticRawSpan))
			binary.LittleEndian.PutUint16(m[off:], raw)
			m[off+2] = 0xC8
		}
	}
	fill(TrendRing)
	fill(HistoryRing)

	f.synthetic = m
}
