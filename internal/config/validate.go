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

package config

import (
	"fmt"
	"strings"

	bridge "github.com/ZaparooProject/go-nfcv-bridge"
	"github.com/ZaparooProject/go-nfcv-bridge/storage/filestore"
)

// Validate checks configuration correctness without mutating it
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: nil config", bridge.ErrInvalidParameter)
	}

	if cfg.Bridge.Policy != "" {
		if _, err := bridge.ParsePollPolicy(strings.ToLower(cfg.Bridge.Policy)); err != nil {
			return fmt.Errorf("bridge: %w", err)
		}
	}

	switch strings.ToLower(cfg.Frontend.Type) {
	case "", FrontendST25R3911:
		if cfg.Frontend.SPI == "" {
			return fmt.Errorf("%w: frontend: spi is required for %s", bridge.ErrInvalidParameter, FrontendST25R3911)
		}
	case FrontendMock:
	default:
		return fmt.Errorf("%w: frontend: unknown type %q", bridge.ErrInvalidParameter, cfg.Frontend.Type)
	}

	if u := cfg.Notify.UART; u != nil {
		if u.Port == "" {
			return fmt.Errorf("%w: notify.uart: port is required", bridge.ErrInvalidParameter)
		}
		if u.Baud < 0 {
			return fmt.Errorf("%w: notify.uart: negative baud %d", bridge.ErrInvalidParameter, u.Baud)
		}
	}
	if ws := cfg.Notify.WebSocket; ws != nil && ws.Listen == "" {
		return fmt.Errorf("%w: notify.websocket: listen is required", bridge.ErrInvalidParameter)
	}

	if cfg.Storage.Capacity < 0 {
		return fmt.Errorf("%w: storage: negative capacity", bridge.ErrInvalidParameter)
	}
	if t := cfg.Storage.GCThreshold; t != nil && *t < 0 {
		return fmt.Errorf("%w: storage: negative gc_threshold", bridge.ErrInvalidParameter)
	}

	return nil
}

// Normalize fills defaults. It must be called only after Validate.
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	cfg.Bridge.Policy = strings.ToLower(cfg.Bridge.Policy)
	if cfg.Bridge.Policy == "" {
		cfg.Bridge.Policy = string(bridge.PolicyPowerSaving)
	}
	if cfg.Bridge.WakeUp == nil {
		on := true
		cfg.Bridge.WakeUp = &on
	}
	if cfg.Bridge.CooldownTicks == 0 {
		cfg.Bridge.CooldownTicks = bridge.DefaultCooldownTicks
	}

	cfg.Frontend.Type = strings.ToLower(cfg.Frontend.Type)
	if cfg.Frontend.Type == "" {
		cfg.Frontend.Type = FrontendST25R3911
	}

	if ws := cfg.Notify.WebSocket; ws != nil {
		if ws.Path == "" {
			ws.Path = "/"
		} else if !strings.HasPrefix(ws.Path, "/") {
			ws.Path = "/" + ws.Path
		}
	}

	if cfg.Storage.GCThreshold == nil {
		t := filestore.DefaultGCThreshold
		cfg.Storage.GCThreshold = &t
	}

	if cfg.Battery.Path == "" && cfg.Battery.Static == 0 {
		cfg.Battery.Static = 100
	}
}
