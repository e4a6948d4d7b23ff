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

package testing

// ISO15693 response flags and error codes
const (
	ResponseFlagError = 0x01

	ErrorNotSupported     = 0x01
	ErrorNotRecognized    = 0x02
	ErrorBlockUnavailable = 0x10
	ErrorBlockLocked      = 0x12
)

// ISO15693 request bytes understood by VirtualSensor
const (
	flagInventory = 0x04
	flagSelect    = 0x10
	flagAddress   = 0x20

	cmdInventory       = 0x01
	cmdReadSingleBlock = 0x20
	cmdWriteSingle     = 0x21
	cmdReadMultiple    = 0x23
	cmdSelect          = 0x25
)

// BuildInventoryResponse creates a single-slot inventory response without CRC
func BuildInventoryResponse(uid [8]byte) []byte {
	response := []byte{0x00, 0x00} // flags, DSFID
	return append(response, uid[:]...)
}

// BuildReadBlockResponse creates a read single block response without CRC
func BuildReadBlockResponse(data []byte) []byte {
	response := []byte{0x00}
	return append(response, data...)
}

// BuildOKResponse creates an empty success response
func BuildOKResponse() []byte {
	return []byte{0x00}
}

// BuildErrorResponse creates an error response with the given code
func BuildErrorResponse(code byte) []byte {
	return []byte{ResponseFlagError, code}
}
