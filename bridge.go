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
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
)

// Config contains configuration options for the Bridge
type Config struct {
	// Scheduler configures the field poll state machine
	Scheduler *SchedulerConfig
	// CooldownTicks is how long a completed read stays latched
	CooldownTicks uint32
}

// DefaultConfig returns default bridge configuration
func DefaultConfig() *Config {
	return &Config{
		Scheduler:     DefaultSchedulerConfig(),
		CooldownTicks: DefaultCooldownTicks,
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Scheduler == nil {
		return fmt.Errorf("%w: missing scheduler configuration", ErrInvalidParameter)
	}
	if c.CooldownTicks == 0 {
		return fmt.Errorf("%w: cooldown must be at least one tick", ErrInvalidParameter)
	}
	return c.Scheduler.Validate()
}

// Bridge reads NFC-V sensors and republishes their memory as telemetry
// frames.
//
// Thread Safety: WorkCycle and the accessors must be called from a single
// goroutine, the main loop. OnTick, OnFieldInterrupt and OnTimestampWrite are
// safe from any goroutine; they only record that an event happened and the
// main loop acts on it.
type Bridge struct {
	transport NFCTransport
	notifier  Notifier
	battery   BatterySource
	active    ActivePoller
	config    *Config
	rng       *rand.Rand
	sleep     SleepFunc
	onSync    func(*TagSnapshot)

	snapshot     TagSnapshot
	synchronizer *Synchronizer
	scheduler    *Scheduler
	framer       *Framer
	cadence      *Cadence
	timeBase     timeBase

	fieldInterrupt   atomic.Bool
	tickPending      atomic.Uint32
	timestampPending atomic.Bool
	timestampValue   atomic.Uint32
}

// New creates a bridge around an NFC-V transport
func New(transport NFCTransport, opts ...Option) (*Bridge, error) {
	if transport == nil {
		return nil, fmt.Errorf("%w: nil transport", ErrInvalidParameter)
	}

	b := &Bridge{
		transport: transport,
		config:    DefaultConfig(),
	}

	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	if err := b.config.Validate(); err != nil {
		return nil, err
	}

	b.cadence = NewCadence(CadenceHooks{
		Publish:    b.publish,
		Status:     b.sendStatus,
		ResetSteps: b.resetSteps,
	})
	b.synchronizer = NewSynchronizer(transport, &b.snapshot, b.cadence.Now, b.config.CooldownTicks)
	b.synchronizer.onSync = b.onSync
	b.scheduler = NewScheduler(transport, b.synchronizer, b.config.Scheduler)
	b.scheduler.SetActivePoller(b.active)
	if b.sleep != nil {
		b.scheduler.SetSleep(b.sleep)
	}
	b.framer = NewFramer(b.notifier, b.rng)

	if tick, ok := b.timeBase.load(); ok {
		debugf("restored time base %d", tick)
		b.cadence.Reseed(tick)
	}

	return b, nil
}

// OnFieldInterrupt records a front-end interrupt
func (b *Bridge) OnFieldInterrupt() {
	b.fieldInterrupt.Store(true)
}

// OnTick records one elapsed second
func (b *Bridge) OnTick() {
	b.tickPending.Add(1)
}

// OnTimestampWrite records a wall-clock value written by the client. The
// main loop reseeds the cadence with it and persists it.
func (b *Bridge) OnTimestampWrite(value uint32) {
	b.timestampValue.Store(value)
	b.timestampPending.Store(true)
}

// WorkCycle runs one pass of the main loop: pending events, one scheduler
// transition, then any elapsed cadence ticks.
func (b *Bridge) WorkCycle(ctx context.Context) AcquisitionResult {
	if b.fieldInterrupt.Swap(false) {
		if h, ok := b.transport.(InterruptHandler); ok {
			h.HandleInterrupt()
		}
	}

	if b.timestampPending.Swap(false) {
		b.applyTimestamp(b.timestampValue.Load())
	}

	result := b.scheduler.Step(ctx, b.cadence.ScanWindowOpen())

	for n := b.tickPending.Swap(0); n > 0; n-- {
		b.cadence.Tick()
	}

	return result
}

func (b *Bridge) applyTimestamp(value uint32) {
	debugf("time base reseeded to %d", value)
	b.synchronizer.Rebase(b.cadence.Now(), value)
	b.cadence.Reseed(value)
	if err := b.timeBase.persist(value); err != nil {
		debugf("time base not persisted: %v", err)
	}
}

func (b *Bridge) publish() {
	if _, err := b.framer.Publish(b.snapshot.Memory[:], b.synchronizer.Tracking()); err != nil {
		debugf("publish failed: %v", err)
	}
}

func (b *Bridge) sendStatus() {
	if b.notifier == nil || b.battery == nil {
		return
	}
	level, err := b.battery.BatteryLevel()
	if err != nil {
		debugf("battery level unavailable: %v", err)
		return
	}
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], level)
	if err := b.notifier.Notify(HandleStatus, buf[:]); err != nil {
		debugf("status not delivered: %v", err)
	}
}

func (b *Bridge) resetSteps() {
	b.framer.ResetSteps()
}

// Snapshot returns the current snapshot. Main loop only.
func (b *Bridge) Snapshot() *TagSnapshot {
	return &b.snapshot
}

// State returns the scheduler state. Main loop only.
func (b *Bridge) State() PollState {
	return b.scheduler.State()
}

// Cadence returns the cadence counters. Main loop only.
func (b *Bridge) Cadence() CadenceCounters {
	return b.cadence.Counters()
}

// Tracking reports whether a sensor read is latched. Main loop only.
func (b *Bridge) Tracking() bool {
	return b.synchronizer.Tracking()
}

// Transport returns the underlying transport
func (b *Bridge) Transport() NFCTransport {
	return b.transport
}

// Close closes the transport
func (b *Bridge) Close() error {
	if err := b.transport.Close(); err != nil {
		return fmt.Errorf("failed to close transport: %w", err)
	}
	return nil
}
