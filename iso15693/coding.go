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

import (
	"fmt"

	bridge "github.com/ZaparooProject/go-nfcv-bridge"
)

// Stream-mode framing. Reader-to-tag frames use 1-of-4 pulse position
// coding; tag-to-reader frames arrive as a raw subcarrier bit stream.
const (
	vcdSOF = 0x21
	vcdEOF = 0x04

	viccSOF     = 0x17
	viccSOFMask = 0x1F
	viccEOF     = 0x1D
	viccSOFBits = 5
	viccEOFBits = 5

	viccLogic0 = 0x01 // pulse then pause
	viccLogic1 = 0x02 // pause then pulse
)

// oneOfFour maps a 2-bit pair to its pulse position byte
var oneOfFour = [4]byte{0x02, 0x08, 0x20, 0x80}

// EncodeVCD codes a request for transmission. Each byte becomes four pulse
// position bytes, least significant pair first, framed by SOF and EOF.
func EncodeVCD(data []byte) []byte {
	out := make([]byte, 0, 2+4*len(data))
	out = append(out, vcdSOF)
	for _, b := range data {
		for i := 0; i < 4; i++ {
			out = append(out, oneOfFour[(b>>(2*i))&0x03])
		}
	}
	return append(out, vcdEOF)
}

// DecodeVCD reverses EncodeVCD. It is used by tag-side simulators.
func DecodeVCD(coded []byte) ([]byte, error) {
	if len(coded) < 2 || coded[0] != vcdSOF || coded[len(coded)-1] != vcdEOF || (len(coded)-2)%4 != 0 {
		return nil, fmt.Errorf("%w: bad 1-of-4 framing", bridge.ErrFrameCorrupted)
	}
	body := coded[1 : len(coded)-1]
	out := make([]byte, 0, len(body)/4)
	for i := 0; i < len(body); i += 4 {
		var b byte
		for j := 0; j < 4; j++ {
			pair := -1
			for v, pulse := range oneOfFour {
				if body[i+j] == pulse {
					pair = v
				}
			}
			if pair < 0 {
				return nil, fmt.Errorf("%w: invalid pulse 0x%02X", bridge.ErrFrameCorrupted, body[i+j])
			}
			b |= byte(pair) << (2 * j)
		}
		out = append(out, b)
	}
	return out, nil
}

// EncodedVCDLen returns the coded length of an n-byte request
func EncodedVCDLen(n int) int {
	return 2 + 4*n
}

type bitReader struct {
	buf []byte
	pos int
}

func (r *bitReader) remaining() int {
	return len(r.buf)*8 - r.pos
}

// read returns n bits, first received bit in the least significant position
func (r *bitReader) read(n int) (uint8, bool) {
	if r.remaining() < n {
		return 0, false
	}
	var v uint8
	for i := 0; i < n; i++ {
		bit := (r.buf[r.pos/8] >> (r.pos % 8)) & 0x01
		v |= bit << i
		r.pos++
	}
	return v, true
}

func (r *bitReader) peek(n int) (uint8, bool) {
	pos := r.pos
	v, ok := r.read(n)
	r.pos = pos
	return v, ok
}

// DecodeVICC recovers the bytes of a tag response from the received stream.
// A pair with both or neither half modulated means two tags answered at once.
func DecodeVICC(stream []byte) ([]byte, error) {
	r := bitReader{buf: stream}

	sof, ok := r.read(viccSOFBits)
	if !ok || sof&viccSOFMask != viccSOF {
		return nil, fmt.Errorf("%w: missing start of frame", bridge.ErrFrameCorrupted)
	}

	var out []byte
	for {
		if eof, ok := r.peek(viccEOFBits); ok && eof == viccEOF {
			return out, nil
		}

		var b byte
		for i := 0; i < 8; i++ {
			pair, ok := r.read(2)
			if !ok {
				return nil, fmt.Errorf("%w: stream ended without end of frame", bridge.ErrFrameCorrupted)
			}
			switch pair {
			case viccLogic0:
			case viccLogic1:
				b |= 1 << i
			default:
				return nil, fmt.Errorf("%w: collision in byte %d bit %d", bridge.ErrFrameCorrupted, len(out), i)
			}
		}
		out = append(out, b)
	}
}

type bitWriter struct {
	buf []byte
	pos int
}

func (w *bitWriter) write(v uint8, n int) {
	for i := 0; i < n; i++ {
		if w.pos%8 == 0 {
			w.buf = append(w.buf, 0)
		}
		w.buf[w.pos/8] |= ((v >> i) & 0x01) << (w.pos % 8)
		w.pos++
	}
}

// EncodeVICC builds the stream a tag would send for data. It is the inverse
// of DecodeVICC and is used by front-end simulators.
func EncodeVICC(data []byte) []byte {
	var w bitWriter
	w.write(viccSOF, viccSOFBits)
	for _, b := range data {
		for i := 0; i < 8; i++ {
			if b&(1<<i) != 0 {
				w.write(viccLogic1, 2)
			} else {
				w.write(viccLogic0, 2)
			}
		}
	}
	w.write(viccEOF, viccEOFBits)
	return w.buf
}
