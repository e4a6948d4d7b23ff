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

package polling

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	bridge "github.com/ZaparooProject/go-nfcv-bridge"
)

// Runner errors
var (
	ErrAlreadyRunning = errors.New("runner is already running")
)

// InterruptWatcher delivers front-end interrupts. Watch blocks until ctx is
// done, calling onInterrupt for every edge.
type InterruptWatcher interface {
	Watch(ctx context.Context, onInterrupt func()) error
}

// Runner drives a Bridge: a ticker goroutine and an optional interrupt
// goroutine only raise the bridge's flags, and the calling goroutine runs
// work cycles until the context is cancelled.
type Runner struct {
	bridge  *bridge.Bridge
	config  *Config
	watcher InterruptWatcher

	OnSensorDetected func(uid bridge.UID)
	OnSensorRemoved  func(uid bridge.UID)
	OnSensorChanged  func(uid bridge.UID)

	metrics  metrics
	presence PresenceState
	running  atomic.Bool
}

// NewRunner creates a runner for b
func NewRunner(b *bridge.Bridge, config *Config) *Runner {
	if config == nil {
		config = DefaultConfig()
	}
	return &Runner{
		bridge: b,
		config: config,
	}
}

// SetInterruptWatcher installs the source of front-end interrupts
func (r *Runner) SetInterruptWatcher(w InterruptWatcher) {
	r.watcher = w
}

// Run blocks running the main loop until ctx is cancelled
func (r *Runner) Run(ctx context.Context) error {
	if err := r.config.Validate(); err != nil {
		return err
	}
	if !r.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer r.running.Store(false)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.tickLoop(ctx)
	}()

	if r.watcher != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := r.watcher.Watch(ctx, func() {
				r.metrics.interrupts.Add(1)
				r.bridge.OnFieldInterrupt()
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				bridge.Logger().Error().Err(err).Msg("interrupt watcher stopped")
			}
		}()
	}

	err := r.loop(ctx)
	cancel()
	wg.Wait()
	return err
}

func (r *Runner) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(r.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.metrics.ticks.Add(1)
			r.bridge.OnTick()
		}
	}
}

func (r *Runner) loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("runner stopped: %w", ctx.Err())
		default:
		}

		start := time.Now()
		res := r.bridge.WorkCycle(ctx)
		r.metrics.lastCycleLatency.Store(time.Since(start).Nanoseconds())
		r.metrics.cycles.Add(1)

		if res.Attempted {
			r.processResult(res)
		}

		if r.config.CycleDelay > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("runner stopped: %w", ctx.Err())
			case <-time.After(r.config.CycleDelay):
			}
		}
	}
}

func (r *Runner) processResult(res bridge.AcquisitionResult) {
	r.metrics.acquisitions.Add(1)
	if res.Err != nil {
		r.metrics.errors.Add(1)
	}
	if res.Synced {
		r.metrics.syncs.Add(1)
	}

	previous := r.presence.LastUID
	arrived, changed, lost := r.presence.observe(res, r.metrics.ticks.Load(), int64(r.config.SensorLostTicks))
	switch {
	case arrived && r.OnSensorDetected != nil:
		r.OnSensorDetected(res.UID)
	case changed && r.OnSensorChanged != nil:
		r.OnSensorChanged(res.UID)
	case lost && r.OnSensorRemoved != nil:
		r.OnSensorRemoved(previous)
	}
}

// Metrics returns the current counters
func (r *Runner) Metrics() Metrics {
	return r.metrics.snapshot()
}

// IsRunning reports whether Run is active
func (r *Runner) IsRunning() bool {
	return r.running.Load()
}

// Close closes the bridge. The runner must not be running.
func (r *Runner) Close() error {
	r.presence.reset()
	if err := r.bridge.Close(); err != nil {
		return fmt.Errorf("failed to close bridge: %w", err)
	}
	return nil
}
