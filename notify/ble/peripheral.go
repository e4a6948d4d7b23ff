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

// Package ble exposes the bridge as a GATT peripheral. Three services carry
// the telemetry frames, the battery level and incoming timestamp writes.
package ble

import (
	"encoding/binary"
	"fmt"
	"sync"

	"tinygo.org/x/bluetooth"

	bridge "github.com/ZaparooProject/go-nfcv-bridge"
)

// DefaultNamePrefix is followed by the low two bytes of the adapter address
const DefaultNamePrefix = "miaomiao3_"

const (
	DataServiceID      = "df070001-d94d-44f8-86ed-b129d28e1ddc"
	DataCharID         = "df070002-d94d-44f8-86ed-b129d28e1ddc"
	BatteryServiceID   = "905f0001-2644-4419-9105-bad68346dcd4"
	BatteryCharID      = "905f0002-2644-4419-9105-bad68346dcd4"
	TimestampServiceID = "48aa0001-bc9c-4195-9be6-bd8181542033"
	TimestampCharID    = "48aa0002-bc9c-4195-9be6-bd8181542033"
)

var (
	dataService      = must(bluetooth.ParseUUID(DataServiceID))
	dataChar         = must(bluetooth.ParseUUID(DataCharID))
	batteryService   = must(bluetooth.ParseUUID(BatteryServiceID))
	batteryChar      = must(bluetooth.ParseUUID(BatteryCharID))
	timestampService = must(bluetooth.ParseUUID(TimestampServiceID))
	timestampChar    = must(bluetooth.ParseUUID(TimestampCharID))
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

type characteristic interface {
	Write(p []byte) (int, error)
}

// Peripheral is a bridge.Notifier backed by GATT notifications
type Peripheral struct {
	adapter     *bluetooth.Adapter
	data        characteristic
	battery     characteristic
	onTimestamp func(uint32)
	namePrefix  string
	name        string
	mu          sync.Mutex
}

// NewPeripheral prepares a peripheral on the given adapter. A nil adapter
// selects bluetooth.DefaultAdapter and an empty prefix DefaultNamePrefix.
// onTimestamp receives client clock writes and may be nil.
func NewPeripheral(adapter *bluetooth.Adapter, namePrefix string, onTimestamp func(uint32)) *Peripheral {
	if adapter == nil {
		adapter = bluetooth.DefaultAdapter
	}
	if namePrefix == "" {
		namePrefix = DefaultNamePrefix
	}
	return &Peripheral{
		adapter:     adapter,
		namePrefix:  namePrefix,
		onTimestamp: onTimestamp,
	}
}

// DeviceName appends the two low address bytes to prefix
func DeviceName(prefix string, mac bluetooth.MAC) string {
	return fmt.Sprintf("%s%02x%02x", prefix, mac[1], mac[0])
}

// Start enables the adapter, registers the services and begins advertising
func (p *Peripheral) Start() error {
	if err := p.adapter.Enable(); err != nil {
		return fmt.Errorf("failed to enable bluetooth adapter: %w", err)
	}

	var data, battery bluetooth.Characteristic
	services := []*bluetooth.Service{
		{
			UUID: dataService,
			Characteristics: []bluetooth.CharacteristicConfig{{
				Handle: &data,
				UUID:   dataChar,
				Flags:  bluetooth.CharacteristicNotifyPermission | bluetooth.CharacteristicReadPermission,
			}},
		},
		{
			UUID: batteryService,
			Characteristics: []bluetooth.CharacteristicConfig{{
				Handle: &battery,
				UUID:   batteryChar,
				Value:  []byte{0x00, 0x00},
				Flags:  bluetooth.CharacteristicNotifyPermission | bluetooth.CharacteristicReadPermission,
			}},
		},
		{
			UUID: timestampService,
			Characteristics: []bluetooth.CharacteristicConfig{{
				UUID: timestampChar,
				Flags: bluetooth.CharacteristicWritePermission |
					bluetooth.CharacteristicWriteWithoutResponsePermission,
				WriteEvent: func(_ bluetooth.Connection, offset int, value []byte) {
					p.timestampWritten(offset, value)
				},
			}},
		},
	}
	for _, svc := range services {
		if err := p.adapter.AddService(svc); err != nil {
			return fmt.Errorf("failed to add service %s: %w", svc.UUID.String(), err)
		}
	}

	name := p.namePrefix
	if addr, err := p.adapter.Address(); err == nil {
		name = DeviceName(p.namePrefix, addr.MAC)
	}

	adv := p.adapter.DefaultAdvertisement()
	if err := adv.Configure(bluetooth.AdvertisementOptions{
		LocalName:    name,
		ServiceUUIDs: []bluetooth.UUID{dataService},
	}); err != nil {
		return fmt.Errorf("failed to configure advertisement: %w", err)
	}
	if err := adv.Start(); err != nil {
		return fmt.Errorf("failed to start advertising: %w", err)
	}

	p.mu.Lock()
	p.data = &data
	p.battery = &battery
	p.name = name
	p.mu.Unlock()

	bridge.Logger().Info().Str("name", name).Msg("advertising started")
	return nil
}

// Name returns the advertised name once started
func (p *Peripheral) Name() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.name
}

func (p *Peripheral) timestampWritten(offset int, value []byte) {
	if offset != 0 || len(value) != 4 {
		bridge.Logger().Debug().Int("offset", offset).Int("len", len(value)).Msg("ignoring malformed timestamp write")
		return
	}
	if p.onTimestamp != nil {
		p.onTimestamp(binary.LittleEndian.Uint32(value))
	}
}

// Notify implements bridge.Notifier
func (p *Peripheral) Notify(handle bridge.Handle, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var ch characteristic
	switch handle {
	case bridge.HandleData:
		ch = p.data
	case bridge.HandleStatus:
		ch = p.battery
	default:
		return fmt.Errorf("%w: handle 0x%02X is not notifiable", bridge.ErrInvalidParameter, byte(handle))
	}
	if ch == nil {
		return bridge.ErrNotConnected
	}
	if _, err := ch.Write(data); err != nil {
		return fmt.Errorf("%w: %w", bridge.ErrTransportWrite, err)
	}
	return nil
}
