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

// Package config loads the bridge daemon configuration from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Frontend types
const (
	FrontendST25R3911 = "st25r3911"
	FrontendMock      = "mock"
)

type Config struct {
	Frontend FrontendConfig `yaml:"frontend"`
	Notify   NotifyConfig   `yaml:"notify"`
	Storage  StorageConfig  `yaml:"storage"`
	Battery  BatteryConfig  `yaml:"battery"`
	Bridge   BridgeConfig   `yaml:"bridge"`
	Log      LogConfig      `yaml:"log"`
}

// ---- BRIDGE ----

type BridgeConfig struct {
	// power_saving or continuous
	Policy        string `yaml:"policy"`
	WakeUp        *bool  `yaml:"wake_up"`
	CooldownTicks uint32 `yaml:"cooldown_ticks"`
}

// ---- FRONT-END ----

type FrontendConfig struct {
	Type string `yaml:"type"`
	SPI  string `yaml:"spi"`
	// GPIO name of the interrupt line, empty to poll
	IRQ string `yaml:"irq"`
}

// ---- NOTIFY ----

type NotifyConfig struct {
	BLE       *BLEConfig       `yaml:"ble"`
	UART      *UARTConfig      `yaml:"uart"`
	WebSocket *WebSocketConfig `yaml:"websocket"`
}

type BLEConfig struct {
	// Empty selects the default advertising name prefix
	NamePrefix string `yaml:"name_prefix"`
}

type UARTConfig struct {
	// Device path, or "auto" to pick the first USB serial port
	Port string `yaml:"port"`
	// USB VID:PID pairs auto-detection skips
	Blocklist []string `yaml:"blocklist"`
	Baud      int      `yaml:"baud"`
}

type WebSocketConfig struct {
	Listen string `yaml:"listen"`
	Path   string `yaml:"path"`
}

// ---- STORAGE ----

type StorageConfig struct {
	// Empty keeps the time base in memory only
	Path        string `yaml:"path"`
	Capacity    int    `yaml:"capacity"`
	GCThreshold *int   `yaml:"gc_threshold"`
}

// ---- BATTERY ----

type BatteryConfig struct {
	// sysfs capacity file; Static is used when empty
	Path   string `yaml:"path"`
	Static uint16 `yaml:"static"`
}

// ---- LOG ----

type LogConfig struct {
	Debug bool `yaml:"debug"`
}

// Load reads and decodes the file at path. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = f.Close() }()

	var cfg Config
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	return &cfg, nil
}
