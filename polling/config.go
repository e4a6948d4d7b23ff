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
	"fmt"
	"time"

	bridge "github.com/ZaparooProject/go-nfcv-bridge"
)

// Config contains configuration for the main loop runner
type Config struct {
	// TickInterval is the cadence tick period
	TickInterval time.Duration
	// CycleDelay pauses between work cycles to keep CPU usage down
	CycleDelay time.Duration
	// SensorLostTicks is how many cadence ticks a sensor may go unseen
	// before it is reported as removed
	SensorLostTicks int
}

// DefaultConfig returns the default runner configuration
func DefaultConfig() *Config {
	return &Config{
		TickInterval:    time.Second,
		CycleDelay:      10 * time.Millisecond,
		SensorLostTicks: bridge.DefaultCooldownTicks,
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("%w: tick interval must be positive", bridge.ErrInvalidParameter)
	}
	if c.CycleDelay < 0 {
		return fmt.Errorf("%w: negative cycle delay", bridge.ErrInvalidParameter)
	}
	if c.SensorLostTicks < 0 {
		return fmt.Errorf("%w: negative sensor lost ticks", bridge.ErrInvalidParameter)
	}
	return nil
}
