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

// Checksum computes the frame CRC16: reflected polynomial 0xA001, initial
// value 0xFFFF, no final XOR. Bytes are processed least significant bit first.
func Checksum(data []byte) uint16 {
	crc := uint16(CRCInitial)
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&0x0001 != 0 {
				crc = (crc >> 1) ^ CRCPolynomial
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}

// ValidateChecksum reports whether data ends with a valid little-endian CRC
// trailer over the bytes before it
func ValidateChecksum(data []byte) bool {
	if len(data) < CRCSize {
		return false
	}
	body := data[:len(data)-CRCSize]
	want := uint16(data[len(data)-2]) | uint16(data[len(data)-1])<<8
	return Checksum(body) == want
}
