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

// Package filestore persists small keyed records in an append-only file,
// the way flash data storage keeps records on a microcontroller. Updating a
// record appends a new copy and leaves the old one stale until garbage
// collection compacts the file.
package filestore

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"

	bridge "github.com/ZaparooProject/go-nfcv-bridge"
	"github.com/ZaparooProject/go-nfcv-bridge/internal/frame"
)

const (
	headerSize = 6
	crcSize    = 2
	// MaxRecordData is the largest payload a record can hold
	MaxRecordData = 0xFFFF

	// DefaultGCThreshold is the stale record count that triggers compaction
	DefaultGCThreshold = 5
)

type recordKey struct {
	fileID uint16
	key    uint16
}

// Options configures a Store
type Options struct {
	// Capacity limits the number of records in the file, stale ones
	// included. Zero means unlimited.
	Capacity int
	// GCThreshold compacts the file before a write once this many stale
	// records exist. Zero disables automatic compaction.
	GCThreshold int
}

// DefaultOptions returns unlimited capacity with automatic compaction
func DefaultOptions() Options {
	return Options{GCThreshold: DefaultGCThreshold}
}

// Store is an append-only record file implementing bridge.Store
type Store struct {
	file    *os.File
	index   map[recordKey][]byte
	path    string
	opts    Options
	records int
	mu      sync.Mutex
}

// Open opens or creates the record file at path and takes an exclusive lock
// on it. A truncated or corrupted tail left by an interrupted write is cut
// off.
func Open(path string, opts Options) (*Store, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open record file: %w", err)
	}
	if err := lockFile(f); err != nil {
		_ = f.Close()
		return nil, err
	}

	s := &Store{
		file:  f,
		path:  path,
		opts:  opts,
		index: make(map[recordKey][]byte),
	}
	if err := s.scan(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) scan() error {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek record file: %w", err)
	}
	buf, err := io.ReadAll(s.file)
	if err != nil {
		return fmt.Errorf("failed to read record file: %w", err)
	}

	off := 0
	for off < len(buf) {
		k, data, n, err := decodeRecord(buf[off:])
		if err != nil {
			bridge.Logger().Warn().Err(err).Str("path", s.path).Int("offset", off).
				Msg("discarding damaged record file tail")
			if err := s.file.Truncate(int64(off)); err != nil {
				return fmt.Errorf("failed to truncate record file: %w", err)
			}
			break
		}
		s.index[k] = data
		s.records++
		off += n
	}

	_, err = s.file.Seek(int64(off), io.SeekStart)
	if err != nil {
		return fmt.Errorf("failed to seek record file: %w", err)
	}
	return nil
}

func encodeRecord(k recordKey, data []byte) []byte {
	rec := make([]byte, headerSize, headerSize+len(data)+crcSize)
	binary.LittleEndian.PutUint16(rec[0:], k.fileID)
	binary.LittleEndian.PutUint16(rec[2:], k.key)
	binary.LittleEndian.PutUint16(rec[4:], uint16(len(data)))
	rec = append(rec, data...)
	return binary.LittleEndian.AppendUint16(rec, frame.Checksum(rec))
}

func decodeRecord(buf []byte) (recordKey, []byte, int, error) {
	if len(buf) < headerSize+crcSize {
		return recordKey{}, nil, 0, fmt.Errorf("%w: short header", bridge.ErrRecordCorrupted)
	}
	size := headerSize + int(binary.LittleEndian.Uint16(buf[4:])) + crcSize
	if len(buf) < size {
		return recordKey{}, nil, 0, fmt.Errorf("%w: short record", bridge.ErrRecordCorrupted)
	}
	if !frame.ValidateChecksum(buf[:size]) {
		return recordKey{}, nil, 0, fmt.Errorf("%w: checksum mismatch", bridge.ErrRecordCorrupted)
	}

	k := recordKey{
		fileID: binary.LittleEndian.Uint16(buf[0:]),
		key:    binary.LittleEndian.Uint16(buf[2:]),
	}
	data := append([]byte(nil), buf[headerSize:size-crcSize]...)
	return k, data, size, nil
}

// Write appends a new copy of the record. It returns bridge.ErrStorageFull
// when the file holds Capacity records; GC frees the stale ones.
func (s *Store) Write(fileID, key uint16, data []byte) error {
	if len(data) > MaxRecordData {
		return fmt.Errorf("%w: %d byte record", bridge.ErrDataTooLarge, len(data))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return os.ErrClosed
	}

	if s.opts.GCThreshold > 0 && s.stale() >= s.opts.GCThreshold {
		if err := s.compact(); err != nil {
			return err
		}
	}
	if s.opts.Capacity > 0 && s.records+1 > s.opts.Capacity {
		return bridge.ErrStorageFull
	}

	if _, err := s.file.Write(encodeRecord(recordKey{fileID, key}, data)); err != nil {
		return fmt.Errorf("failed to append record: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync record file: %w", err)
	}
	s.index[recordKey{fileID, key}] = append([]byte(nil), data...)
	s.records++
	return nil
}

// Read returns the latest copy of a record
func (s *Store) Read(fileID, key uint16) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.index[recordKey{fileID, key}]
	if !ok {
		return nil, bridge.ErrRecordNotFound
	}
	return append([]byte(nil), data...), nil
}

// GC rewrites the file with only the live records
func (s *Store) GC() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return os.ErrClosed
	}
	return s.compact()
}

// Stale returns the number of superseded records still in the file
func (s *Store) Stale() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stale()
}

func (s *Store) stale() int {
	return s.records - len(s.index)
}

func (s *Store) compact() error {
	tmpPath := s.path + ".tmp"
	tmp, err := os.OpenFile(tmpPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create compaction file: %w", err)
	}
	if err := lockFile(tmp); err != nil {
		_ = tmp.Close()
		return err
	}

	fail := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	for k, data := range s.index {
		if _, err := tmp.Write(encodeRecord(k, data)); err != nil {
			return fail(fmt.Errorf("failed to write compacted record: %w", err))
		}
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("failed to sync compacted file: %w", err))
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fail(fmt.Errorf("failed to replace record file: %w", err))
	}

	_ = unlockFile(s.file)
	_ = s.file.Close()
	s.file = tmp
	bridge.Logger().Debug().Int("removed", s.stale()).Int("live", len(s.index)).Msg("record file compacted")
	s.records = len(s.index)
	return nil
}

// Close releases the lock and closes the file
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	_ = unlockFile(s.file)
	err := s.file.Close()
	s.file = nil
	if err != nil {
		return fmt.Errorf("failed to close record file: %w", err)
	}
	return nil
}

var _ bridge.Store = (*Store)(nil)
