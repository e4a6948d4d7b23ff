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

package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bridge "github.com/ZaparooProject/go-nfcv-bridge"
)

func openTemp(t *testing.T, opts Options) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "records.bin")
	s, err := Open(path, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestStore_WriteRead(t *testing.T) {
	t.Parallel()
	s, _ := openTemp(t, DefaultOptions())

	_, err := s.Read(0x1111, 0x2222)
	require.ErrorIs(t, err, bridge.ErrRecordNotFound)

	require.NoError(t, s.Write(0x1111, 0x2222, []byte{1, 2, 3, 4}))
	require.NoError(t, s.Write(0x1111, 0x2222, []byte{5, 6, 7, 8}))

	got, err := s.Read(0x1111, 0x2222)
	require.NoError(t, err)
	assert.Equal(t, []byte{5, 6, 7, 8}, got)
	assert.Equal(t, 1, s.Stale())
}

func TestStore_Reopen(t *testing.T) {
	t.Parallel()
	s, path := openTemp(t, DefaultOptions())
	require.NoError(t, s.Write(1, 1, []byte("first")))
	require.NoError(t, s.Write(1, 2, []byte("second")))
	require.NoError(t, s.Write(1, 1, []byte("third")))
	require.NoError(t, s.Close())

	reopened, err := Open(path, DefaultOptions())
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	got, err := reopened.Read(1, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte("third"), got)
	got, err = reopened.Read(1, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
	assert.Equal(t, 1, reopened.Stale())
}

func TestStore_DamagedTail(t *testing.T) {
	t.Parallel()
	s, path := openTemp(t, DefaultOptions())
	require.NoError(t, s.Write(1, 1, []byte{0xAA, 0xBB}))
	require.NoError(t, s.Close())

	good, err := os.ReadFile(path)
	require.NoError(t, err)

	// Half-written second record
	partial := encodeRecord(recordKey{1, 1}, []byte{0xCC, 0xDD})[:5]
	require.NoError(t, os.WriteFile(path, append(append([]byte(nil), good...), partial...), 0o600))

	reopened, err := Open(path, DefaultOptions())
	require.NoError(t, err)
	got, err := reopened.Read(1, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0xBB}, got)

	require.NoError(t, reopened.Write(1, 1, []byte{0xEE}))
	require.NoError(t, reopened.Close())

	again, err := Open(path, DefaultOptions())
	require.NoError(t, err)
	defer func() { _ = again.Close() }()
	got, err = again.Read(1, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xEE}, got)
}

func TestStore_CorruptedChecksum(t *testing.T) {
	t.Parallel()
	rec := encodeRecord(recordKey{7, 9}, []byte{1, 2, 3})
	rec[len(rec)-1] ^= 0xFF

	_, _, _, err := decodeRecord(rec)
	require.ErrorIs(t, err, bridge.ErrRecordCorrupted)
}

func TestStore_FullUntilGC(t *testing.T) {
	t.Parallel()
	s, _ := openTemp(t, Options{Capacity: 2})

	require.NoError(t, s.Write(0x1111, 0x2222, []byte{1, 0, 0, 0}))
	require.NoError(t, s.Write(0x1111, 0x2222, []byte{2, 0, 0, 0}))

	err := s.Write(0x1111, 0x2222, []byte{3, 0, 0, 0})
	require.ErrorIs(t, err, bridge.ErrStorageFull)
	assert.True(t, bridge.IsRetryable(err))

	require.NoError(t, s.GC())
	assert.Zero(t, s.Stale())
	require.NoError(t, s.Write(0x1111, 0x2222, []byte{3, 0, 0, 0}))

	got, err := s.Read(0x1111, 0x2222)
	require.NoError(t, err)
	assert.Equal(t, []byte{3, 0, 0, 0}, got)
}

func TestStore_AutomaticCompaction(t *testing.T) {
	t.Parallel()
	s, path := openTemp(t, Options{GCThreshold: 3})

	for i := range 4 {
		require.NoError(t, s.Write(1, 1, []byte{byte(i)}))
	}
	assert.Equal(t, 3, s.Stale())

	// Compaction runs before the append, leaving the previous copy stale
	require.NoError(t, s.Write(1, 1, []byte{0x10}))
	assert.Equal(t, 1, s.Stale())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(2*len(encodeRecord(recordKey{1, 1}, []byte{0x10}))), info.Size())
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestStore_TooLarge(t *testing.T) {
	t.Parallel()
	s, _ := openTemp(t, DefaultOptions())
	require.ErrorIs(t, s.Write(1, 1, make([]byte, MaxRecordData+1)), bridge.ErrDataTooLarge)
}

func TestStore_Closed(t *testing.T) {
	t.Parallel()
	s, _ := openTemp(t, DefaultOptions())
	require.NoError(t, s.Close())
	require.ErrorIs(t, s.Write(1, 1, nil), os.ErrClosed)
	require.ErrorIs(t, s.GC(), os.ErrClosed)
}

func TestStore_PersistsBridgeTimeBase(t *testing.T) {
	t.Parallel()
	s, _ := openTemp(t, DefaultOptions())

	b, err := bridge.New(bridge.NewMockTransport(nil),
		bridge.WithStore(s),
		bridge.WithSleep(func(context.Context, time.Duration) {}))
	require.NoError(t, err)
	b.OnTimestampWrite(0x01020304)
	b.WorkCycle(context.Background())

	got, err := s.Read(bridge.TimeBaseFileID, bridge.TimeBaseKey)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, got)
}
