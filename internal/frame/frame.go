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

package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Frame errors
var (
	ErrInvalidLength    = errors.New("invalid frame length")
	ErrInvalidStep      = errors.New("invalid frame step")
	ErrChecksumMismatch = errors.New("frame checksum mismatch")
	ErrIncomplete       = errors.New("incomplete frame set")
)

// Frame is one telemetry frame: a step byte, half of a snapshot, and a CRC
// over both
type Frame struct {
	Payload [PayloadSize]byte
	CRC     uint16
}

// Step returns the step byte
func (f *Frame) Step() int {
	return int(f.Payload[0])
}

// Chunk returns the snapshot bytes carried by the frame
func (f *Frame) Chunk() []byte {
	return f.Payload[1:]
}

// Build creates the frame for one step of a snapshot
func Build(snapshot []byte, step int) (Frame, error) {
	if len(snapshot) != SnapshotSize {
		return Frame{}, fmt.Errorf("%w: snapshot is %d bytes, want %d", ErrInvalidLength, len(snapshot), SnapshotSize)
	}
	if step < 0 || step >= StepCount {
		return Frame{}, fmt.Errorf("%w: %d", ErrInvalidStep, step)
	}

	var f Frame
	f.Payload[0] = byte(step)
	copy(f.Payload[1:], snapshot[step*ChunkSize:(step+1)*ChunkSize])
	f.CRC = Checksum(f.Payload[:])
	return f, nil
}

// Bytes serializes the frame. The CRC trailer is written low byte first.
func (f *Frame) Bytes() []byte {
	out := make([]byte, FrameSize)
	copy(out, f.Payload[:])
	binary.LittleEndian.PutUint16(out[PayloadSize:], f.CRC)
	return out
}

// Parse decodes and verifies a serialized frame
func Parse(data []byte) (Frame, error) {
	if len(data) != FrameSize {
		return Frame{}, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidLength, len(data), FrameSize)
	}

	var f Frame
	copy(f.Payload[:], data[:PayloadSize])
	f.CRC = binary.LittleEndian.Uint16(data[PayloadSize:])

	if step := f.Step(); step >= StepCount {
		return Frame{}, fmt.Errorf("%w: %d", ErrInvalidStep, step)
	}
	if got := Checksum(f.Payload[:]); got != f.CRC {
		return Frame{}, fmt.Errorf("%w: computed 0x%04X, trailer 0x%04X", ErrChecksumMismatch, got, f.CRC)
	}
	return f, nil
}

// Reassemble rebuilds a snapshot from one frame of each step, in any order
func Reassemble(frames ...Frame) ([]byte, error) {
	var seen [StepCount]bool
	out := make([]byte, SnapshotSize)
	for i := range frames {
		step := frames[i].Step()
		if step >= StepCount {
			return nil, fmt.Errorf("%w: %d", ErrInvalidStep, step)
		}
		copy(out[step*ChunkSize:], frames[i].Chunk())
		seen[step] = true
	}
	for step, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("%w: missing step %d", ErrIncomplete, step)
		}
	}
	return out, nil
}
