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
	"time"
)

// PollPolicy selects what the scheduler does after a passive poll
type PollPolicy string

const (
	// PolicyPowerSaving drops the field after every passive poll and waits
	// for a wake-up event before polling again
	PolicyPowerSaving PollPolicy = "power_saving"

	// PolicyContinuous keeps the field up and polls passively back to back.
	// Used while a sensor is being tracked continuously.
	PolicyContinuous PollPolicy = "continuous"
)

// SchedulerConfig contains configuration for the poll scheduler
type SchedulerConfig struct {
	Policy PollPolicy
	// SettleDelay follows a field-off transition
	SettleDelay time.Duration
	// ActiveDelay follows the active poll
	ActiveDelay time.Duration
	// DwellDelay follows the passive poll
	DwellDelay time.Duration
	// WakeUp arms the front-end's wake-up detector between polls
	WakeUp bool
}

// DefaultSchedulerConfig returns the default scheduler configuration
func DefaultSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		Policy:      PolicyPowerSaving,
		SettleDelay: 300 * time.Millisecond,
		ActiveDelay: 40 * time.Millisecond,
		DwellDelay:  300 * time.Millisecond,
		WakeUp:      true,
	}
}

// Validate checks if the configuration is valid
func (c *SchedulerConfig) Validate() error {
	switch c.Policy {
	case PolicyPowerSaving, PolicyContinuous:
	default:
		return fmt.Errorf("%w: unknown poll policy %q", ErrInvalidParameter, c.Policy)
	}

	if c.SettleDelay < 0 || c.ActiveDelay < 0 || c.DwellDelay < 0 {
		return fmt.Errorf("%w: negative scheduler delay", ErrInvalidParameter)
	}

	return nil
}

// Clone creates a copy of the configuration
func (c *SchedulerConfig) Clone() *SchedulerConfig {
	clone := *c
	return &clone
}

// ParsePollPolicy converts a configuration string to a policy
func ParsePollPolicy(s string) (PollPolicy, error) {
	switch p := PollPolicy(s); p {
	case PolicyPowerSaving, PolicyContinuous:
		return p, nil
	case "":
		return PolicyPowerSaving, nil
	default:
		return "", fmt.Errorf("%w: unknown poll policy %q", ErrInvalidParameter, s)
	}
}
