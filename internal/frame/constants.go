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

// Package frame splits sensor memory snapshots into checksummed telemetry
// frames and puts them back together
package frame

// Snapshot and frame geometry
const (
	SnapshotSize = 344                   // Sensor memory image size
	StepCount    = 2                     // Frames per snapshot
	ChunkSize    = SnapshotSize / 2      // Snapshot bytes carried per frame
	PayloadSize  = 1 + ChunkSize         // Step byte followed by the chunk
	FrameSize    = PayloadSize + CRCSize // Payload followed by the CRC trailer
	CRCSize      = 2                     // CRC16 trailer length
)

// CRC16 parameters
const (
	CRCPolynomial = 0xA001 // Reflected form of 0x8005
	CRCInitial    = 0xFFFF
)
