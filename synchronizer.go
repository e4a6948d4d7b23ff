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
	"context"
	"fmt"
)

// DefaultCooldownTicks is how long a completed read stays latched, in cadence ticks
const DefaultCooldownTicks = 300

// AcquisitionResult reports the outcome of one acquisition attempt
type AcquisitionResult struct {
	Err       error
	UID       UID
	Attempted bool
	Found     bool
	Synced    bool
}

// Acquirer runs one acquisition attempt against the field
type Acquirer interface {
	Acquire(ctx context.Context) AcquisitionResult
}

// Synchronizer reads a tag's full memory into a snapshot and keeps a latch so
// a tag that stays in the field is not re-read on every poll. Once the
// cooldown has elapsed since the completed read the tag is read again, and
// the latch holds until that read succeeds. A different UID or an absence
// of the cooldown length releases it.
type Synchronizer struct {
	transport NFCTransport
	snapshot  *TagSnapshot
	now       func() uint32
	onSync    func(*TagSnapshot)

	cooldown uint32
	flags    RequestFlags

	latchedUID   UID
	readTick     uint32
	lastSeenTick uint32
	latched      bool
	present      bool
}

// NewSynchronizer creates a synchronizer that fills snapshot using transport.
// now returns the current cadence tick.
func NewSynchronizer(transport NFCTransport, snapshot *TagSnapshot, now func() uint32, cooldown uint32) *Synchronizer {
	if cooldown == 0 {
		cooldown = DefaultCooldownTicks
	}
	return &Synchronizer{
		transport: transport,
		snapshot:  snapshot,
		now:       now,
		cooldown:  cooldown,
		flags:     DefaultRequestFlags,
	}
}

// Acquire runs collision resolution and, unless the latch holds, a full
// memory read. Transport errors are reported as found=false.
func (s *Synchronizer) Acquire(ctx context.Context) AcquisitionResult {
	uid, found, err := s.transport.CollisionResolve(ctx)
	if err != nil {
		debugf("collision resolution failed: %v", err)
		s.lose()
		return AcquisitionResult{Err: err}
	}
	if !found {
		s.lose()
		return AcquisitionResult{}
	}

	now := s.now()
	s.present = true
	s.lastSeenTick = now

	sameTag := s.latched && uid == s.latchedUID
	if sameTag && now-s.readTick < s.cooldown {
		return AcquisitionResult{UID: uid, Found: true}
	}

	var mem TagMemory
	if err := s.readMemory(ctx, uid, &mem); err != nil {
		debugf("memory read of %s failed: %v", uid, err)
		s.present = false
		if s.latched && !sameTag {
			debugf("latch released for %s", s.latchedUID)
			s.latched = false
		}
		return AcquisitionResult{UID: uid, Err: err}
	}

	s.snapshot.load(uid, &mem)
	s.latched = true
	s.latchedUID = uid
	s.readTick = now

	Logger().Info().
		Str("uid", uid.String()).
		Uint8("trend_pointer", s.snapshot.TrendPointer).
		Uint8("history_pointer", s.snapshot.HistoryPointer).
		Uint16("minutes", s.snapshot.MinutesSinceStart).
		Int("new_trend", s.snapshot.TrendsSinceLastReading).
		Int("new_history", s.snapshot.HistorySinceLastReading).
		Msg("sensor memory synchronized")

	if s.onSync != nil {
		s.onSync(s.snapshot)
	}
	return AcquisitionResult{UID: uid, Found: true, Synced: true}
}

func (s *Synchronizer) readMemory(ctx context.Context, uid UID, mem *TagMemory) error {
	if err := s.transport.SelectTag(ctx, uid); err != nil {
		return fmt.Errorf("select: %w", err)
	}
	for addr := 0; addr < BlockCount; addr++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("read interrupted: %w", err)
		}
		data, err := s.transport.ReadBlock(ctx, s.flags, nil, uint8(addr))
		if err != nil {
			return fmt.Errorf("read block %d: %w", addr, err)
		}
		if err := mem.SetBlock(addr, data); err != nil {
			return err
		}
	}
	return nil
}

func (s *Synchronizer) lose() {
	s.present = false
	if s.latched && s.now()-s.lastSeenTick >= s.cooldown {
		debugf("tag %s gone for %d ticks, latch released", s.latchedUID, s.cooldown)
		s.latched = false
	}
}

// Present reports whether a tag answered the last attempt
func (s *Synchronizer) Present() bool {
	return s.present
}

// Tracking reports whether the snapshot holds a read that is still latched
func (s *Synchronizer) Tracking() bool {
	return s.latched
}

// Latched returns the UID of the latched read
func (s *Synchronizer) Latched() (UID, bool) {
	return s.latchedUID, s.latched
}

// Rebase moves the read and last-seen ticks by the jump the tick counter made
// from one value to another, so the time elapsed since either stays the same
// after a reseed.
func (s *Synchronizer) Rebase(from, to uint32) {
	shift := to - from
	s.readTick += shift
	s.lastSeenTick += shift
}
