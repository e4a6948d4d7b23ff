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
	"errors"
	"fmt"
)

// Record location of the persisted time base
const (
	TimeBaseFileID uint16 = 0x1111
	TimeBaseKey    uint16 = 0x2222
)

// Store is a small key/value record store. Writes replace any earlier record
// with the same file ID and key. Write returns ErrStorageFull when the store
// needs a garbage collection before it can accept more data.
type Store interface {
	Write(fileID, key uint16, data []byte) error
	Read(fileID, key uint16) ([]byte, error)
	GC() error
}

// timeBase persists the cadence tick counter. A write that finds the store
// full is abandoned and the next write collects garbage first.
type timeBase struct {
	store     Store
	gcPending bool
}

func (t *timeBase) persist(tick uint32) error {
	if t.store == nil {
		return nil
	}

	if t.gcPending {
		if err := t.store.GC(); err != nil {
			return fmt.Errorf("garbage collection: %w", err)
		}
		t.gcPending = false
	}

	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], tick)
	err := t.store.Write(TimeBaseFileID, TimeBaseKey, buf[:])
	if errors.Is(err, ErrStorageFull) {
		t.gcPending = true
	}
	if err != nil {
		return fmt.Errorf("persist time base: %w", err)
	}
	return nil
}

func (t *timeBase) load() (uint32, bool) {
	if t.store == nil {
		return 0, false
	}
	data, err := t.store.Read(TimeBaseFileID, TimeBaseKey)
	if err != nil {
		if !errors.Is(err, ErrRecordNotFound) {
			debugf("time base not restored: %v", err)
		}
		return 0, false
	}
	if len(data) != 4 {
		debugf("time base record has %d bytes", len(data))
		return 0, false
	}
	return binary.LittleEndian.Uint32(data), true
}
