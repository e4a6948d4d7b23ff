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

package iso15693

import "encoding/binary"

// CRC parameters of ISO/IEC 15693-3
const (
	crcPolynomial = 0x8408 // Reflected form of 0x1021
	crcInitial    = 0xFFFF
	crcSize       = 2
)

// CRC computes the ISO15693 frame CRC: reflected, initial value 0xFFFF,
// complemented on output
func CRC(data []byte) uint16 {
	crc := uint16(crcInitial)
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&0x0001 != 0 {
				crc = (crc >> 1) ^ crcPolynomial
			} else {
				crc >>= 1
			}
		}
	}
	return ^crc
}

// AppendCRC returns data followed by its CRC, least significant byte first
func AppendCRC(data []byte) []byte {
	out := make([]byte, len(data), len(data)+crcSize)
	copy(out, data)
	return binary.LittleEndian.AppendUint16(out, CRC(data))
}

// CheckCRC reports whether frame ends with a valid CRC over the bytes before it
func CheckCRC(frame []byte) bool {
	if len(frame) < crcSize {
		return false
	}
	n := len(frame) - crcSize
	return CRC(frame[:n]) == binary.LittleEndian.Uint16(frame[n:])
}
