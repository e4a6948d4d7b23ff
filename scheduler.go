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
	"time"
)

// PollState is a state of the field poll state machine
type PollState int

const (
	// StateFieldOff drops the RF field and prepares the next poll
	StateFieldOff PollState = iota
	// StatePollActive runs the optional active poller
	StatePollActive
	// StatePollPassive looks for NFC-V tags
	StatePollPassive
	// StateWaitWakeup waits for the front-end's wake-up detector
	StateWaitWakeup
)

// String returns the state name
func (s PollState) String() string {
	switch s {
	case StateFieldOff:
		return "field_off"
	case StatePollActive:
		return "poll_active"
	case StatePollPassive:
		return "poll_passive"
	case StateWaitWakeup:
		return "wait_wakeup"
	default:
		return "unknown"
	}
}

// SleepFunc blocks for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration)

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// Scheduler is the field poll state machine. Each Step performs at most one
// transition and never blocks beyond the configured delays.
type Scheduler struct {
	transport NFCTransport
	acquirer  Acquirer
	active    ActivePoller
	config    *SchedulerConfig
	sleep     SleepFunc
	state     PollState
}

// NewScheduler creates a scheduler starting in the field-off state
func NewScheduler(transport NFCTransport, acquirer Acquirer, config *SchedulerConfig) *Scheduler {
	if config == nil {
		config = DefaultSchedulerConfig()
	}
	return &Scheduler{
		transport: transport,
		acquirer:  acquirer,
		config:    config.Clone(),
		sleep:     sleepContext,
		state:     StateFieldOff,
	}
}

// SetActivePoller installs the poller run in the active-poll state
func (s *Scheduler) SetActivePoller(p ActivePoller) {
	s.active = p
}

// SetSleep replaces the delay function
func (s *Scheduler) SetSleep(fn SleepFunc) {
	if fn == nil {
		fn = sleepContext
	}
	s.sleep = fn
}

// State returns the current state
func (s *Scheduler) State() PollState {
	return s.state
}

// Step advances the state machine by one transition. Acquisition only runs
// in the passive-poll state while the scan window is open. The returned
// result is zero when no acquisition was attempted.
func (s *Scheduler) Step(ctx context.Context, scanWindowOpen bool) AcquisitionResult {
	var result AcquisitionResult

	switch s.state {
	case StateFieldOff:
		s.stepFieldOff(ctx)

	case StateWaitWakeup:
		if s.transport.WakeUpHasWoken() {
			if err := s.transport.WakeUpDisarm(); err != nil {
				debugf("wake-up disarm failed: %v", err)
			}
			debugln("wake-up event")
			s.state = StatePollActive
		}

	case StatePollActive:
		if s.active != nil {
			if err := s.active.PollActive(ctx); err != nil {
				debugf("active poll failed: %v", err)
			}
		}
		s.sleep(ctx, s.config.ActiveDelay)
		s.state = StatePollPassive

	case StatePollPassive:
		if scanWindowOpen {
			if err := s.transport.FieldOn(); err != nil {
				debugf("field on failed: %v", err)
			} else {
				result = s.acquirer.Acquire(ctx)
				result.Attempted = true
			}
		}
		s.sleep(ctx, s.config.DwellDelay)
		if s.config.Policy == PolicyPowerSaving {
			s.state = StateFieldOff
		}
	}

	return result
}

func (s *Scheduler) stepFieldOff(ctx context.Context) {
	if err := s.transport.FieldOff(); err != nil {
		debugf("field off failed: %v", err)
	}
	if err := s.transport.WakeUpDisarm(); err != nil {
		debugf("wake-up disarm failed: %v", err)
	}
	s.sleep(ctx, s.config.SettleDelay)

	if !s.config.WakeUp {
		s.state = StatePollActive
		return
	}
	if err := s.transport.WakeUpArm(); err != nil {
		// Without a detector nothing would leave the wait state
		debugf("wake-up arm failed, polling directly: %v", err)
		s.state = StatePollActive
		return
	}
	s.state = StateWaitWakeup
}
