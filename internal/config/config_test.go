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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bridge "github.com/ZaparooProject/go-nfcv-bridge"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Full(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `
bridge:
  policy: Continuous
  wake_up: false
  cooldown_ticks: 120
frontend:
  type: st25r3911
  spi: /dev/spidev0.0
  irq: GPIO25
notify:
  uart:
    port: auto
    baud: 57600
    blocklist: ["1a86:7523"]
  websocket:
    listen: ":8080"
    path: telemetry
storage:
  path: /var/lib/nfcv-bridge/records.bin
  capacity: 64
battery:
  path: /sys/class/power_supply/BAT0/capacity
log:
  debug: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, Validate(cfg))
	Normalize(cfg)

	assert.Equal(t, "continuous", cfg.Bridge.Policy)
	require.NotNil(t, cfg.Bridge.WakeUp)
	assert.False(t, *cfg.Bridge.WakeUp)
	assert.Equal(t, uint32(120), cfg.Bridge.CooldownTicks)
	assert.Equal(t, "GPIO25", cfg.Frontend.IRQ)
	assert.Nil(t, cfg.Notify.BLE)
	assert.Equal(t, 57600, cfg.Notify.UART.Baud)
	assert.Equal(t, []string{"1a86:7523"}, cfg.Notify.UART.Blocklist)
	assert.Equal(t, "/telemetry", cfg.Notify.WebSocket.Path)
	assert.Equal(t, 64, cfg.Storage.Capacity)
	require.NotNil(t, cfg.Storage.GCThreshold)
	assert.Equal(t, 5, *cfg.Storage.GCThreshold)
	assert.Zero(t, cfg.Battery.Static)
	assert.True(t, cfg.Log.Debug)
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `
frontend:
  spi: SPI0.0
notify:
  ble: {}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, Validate(cfg))
	Normalize(cfg)

	assert.Equal(t, string(bridge.PolicyPowerSaving), cfg.Bridge.Policy)
	assert.True(t, *cfg.Bridge.WakeUp)
	assert.Equal(t, uint32(bridge.DefaultCooldownTicks), cfg.Bridge.CooldownTicks)
	assert.Equal(t, FrontendST25R3911, cfg.Frontend.Type)
	require.NotNil(t, cfg.Notify.BLE)
	assert.Empty(t, cfg.Notify.BLE.NamePrefix)
	assert.Equal(t, uint16(100), cfg.Battery.Static)
}

func TestLoad_UnknownField(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "bridge:\n  polcy: continuous\n")

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	t.Parallel()
	negative := -1

	tests := []struct {
		cfg     *Config
		name    string
		wantErr bool
	}{
		{name: "nil", cfg: nil, wantErr: true},
		{name: "mock frontend", cfg: &Config{Frontend: FrontendConfig{Type: "mock"}}},
		{name: "missing spi", cfg: &Config{}, wantErr: true},
		{name: "unknown frontend", cfg: &Config{Frontend: FrontendConfig{Type: "pn532"}}, wantErr: true},
		{
			name:    "bad policy",
			cfg:     &Config{Frontend: FrontendConfig{Type: "mock"}, Bridge: BridgeConfig{Policy: "sometimes"}},
			wantErr: true,
		},
		{
			name: "uart without port",
			cfg: &Config{
				Frontend: FrontendConfig{Type: "mock"},
				Notify:   NotifyConfig{UART: &UARTConfig{Baud: 9600}},
			},
			wantErr: true,
		},
		{
			name: "websocket without listen",
			cfg: &Config{
				Frontend: FrontendConfig{Type: "mock"},
				Notify:   NotifyConfig{WebSocket: &WebSocketConfig{}},
			},
			wantErr: true,
		},
		{
			name: "negative gc threshold",
			cfg: &Config{
				Frontend: FrontendConfig{Type: "mock"},
				Storage:  StorageConfig{GCThreshold: &negative},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Validate(tt.cfg)
			if tt.wantErr {
				require.ErrorIs(t, err, bridge.ErrInvalidParameter)
				return
			}
			require.NoError(t, err)
		})
	}
}
