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
	"fmt"
	"math/rand/v2"
)

// Option is a functional option for configuring a Bridge
type Option func(*Bridge) error

// WithConfig replaces the whole configuration
func WithConfig(config *Config) Option {
	return func(b *Bridge) error {
		if config == nil {
			return fmt.Errorf("%w: nil config", ErrInvalidParameter)
		}
		clone := *config
		if config.Scheduler != nil {
			clone.Scheduler = config.Scheduler.Clone()
		}
		b.config = &clone
		return nil
	}
}

// WithPollPolicy sets what the scheduler does after a passive poll
func WithPollPolicy(policy PollPolicy) Option {
	return func(b *Bridge) error {
		b.config.Scheduler.Policy = policy
		return nil
	}
}

// WithWakeUp enables or disables wake-up detection between polls
func WithWakeUp(enabled bool) Option {
	return func(b *Bridge) error {
		b.config.Scheduler.WakeUp = enabled
		return nil
	}
}

// WithCooldownTicks sets how long a completed read stays latched
func WithCooldownTicks(ticks uint32) Option {
	return func(b *Bridge) error {
		b.config.CooldownTicks = ticks
		return nil
	}
}

// WithNotifier sets where frames and status are delivered
func WithNotifier(n Notifier) Option {
	return func(b *Bridge) error {
		b.notifier = n
		return nil
	}
}

// WithBatterySource sets the battery level reported in status notifications
func WithBatterySource(src BatterySource) Option {
	return func(b *Bridge) error {
		b.battery = src
		return nil
	}
}

// WithStore enables persistence of the time base
func WithStore(s Store) Option {
	return func(b *Bridge) error {
		b.timeBase.store = s
		return nil
	}
}

// WithActivePoller sets the poller run in the active-poll state
func WithActivePoller(p ActivePoller) Option {
	return func(b *Bridge) error {
		b.active = p
		return nil
	}
}

// WithRandomSource sets the source of synthetic readings
func WithRandomSource(rng *rand.Rand) Option {
	return func(b *Bridge) error {
		b.rng = rng
		return nil
	}
}

// WithSleep replaces the scheduler's delay function
func WithSleep(fn SleepFunc) Option {
	return func(b *Bridge) error {
		b.sleep = fn
		return nil
	}
}

// WithSyncHandler is called on the main loop after every completed memory read
func WithSyncHandler(fn func(*TagSnapshot)) Option {
	return func(b *Bridge) error {
		b.onSync = fn
		return nil
	}
}
