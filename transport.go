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
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// UIDSize is the length of an ISO15693 unique identifier
const UIDSize = 8

// UID is an ISO15693 unique identifier in wire order (least significant byte first)
type UID [UIDSize]byte

// String returns the UID most significant byte first, the way it is printed on tags
func (u UID) String() string {
	var b [UIDSize]byte
	for i := range u {
		b[i] = u[UIDSize-1-i]
	}
	return strings.ToUpper(hex.EncodeToString(b[:]))
}

// ParseUID parses the hex form printed by String, most significant byte first
func ParseUID(s string) (UID, error) {
	var u UID
	raw, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return u, fmt.Errorf("%w: UID %q: %w", ErrInvalidParameter, s, err)
	}
	if len(raw) != UIDSize {
		return u, fmt.Errorf("%w: UID %q is %d bytes", ErrInvalidParameter, s, len(raw))
	}
	for i := range u {
		u[i] = raw[UIDSize-1-i]
	}
	return u, nil
}

// IsZero reports whether no UID has been recorded
func (u UID) IsZero() bool {
	return u == UID{}
}

// RequestFlags is the ISO15693 request flags byte sent with block commands
type RequestFlags byte

// DefaultRequestFlags selects the high data rate with no addressing
const DefaultRequestFlags RequestFlags = 0x02

// NFCTransport defines the operations the bridge needs from an NFC-V reader.
// Implementations own the RF front-end and the ISO15693 command layer.
type NFCTransport interface {
	// FieldOn switches the RF carrier on
	FieldOn() error

	// FieldOff switches the RF carrier off
	FieldOff() error

	// WakeUpArm enables low-power wake-up detection
	WakeUpArm() error

	// WakeUpDisarm leaves wake-up detection mode
	WakeUpDisarm() error

	// WakeUpHasWoken reports whether a wake-up event occurred since arming
	WakeUpHasWoken() bool

	// CollisionResolve runs a single-slot inventory and returns the UID of the
	// tag in the field. found is false when no tag answered.
	CollisionResolve(ctx context.Context) (uid UID, found bool, err error)

	// SelectTag moves the tag with the given UID into the selected state
	SelectTag(ctx context.Context, uid UID) error

	// ReadBlock reads one 8-byte block. A nil uid sends a non-addressed request.
	ReadBlock(ctx context.Context, flags RequestFlags, uid *UID, addr uint8) ([]byte, error)

	// WriteBlock writes one block. A nil uid sends a non-addressed request.
	WriteBlock(ctx context.Context, flags RequestFlags, uid *UID, addr uint8, data []byte) error

	// Type returns the transport type
	Type() TransportType

	// Close releases the front-end
	Close() error
}

// InterruptHandler is implemented by transports that service a hardware
// interrupt line. HandleInterrupt runs on the main loop, never in the
// interrupt context itself.
type InterruptHandler interface {
	HandleInterrupt()
}

// ActivePoller is an optional secondary poller run while the scheduler is in
// its active-poll state, for example a card-emulation or peer-to-peer listener.
type ActivePoller interface {
	PollActive(ctx context.Context) error
}

// TransportType represents the type of transport
type TransportType string

const (
	// TransportST25R3911 is an ST25R3911 front-end on SPI
	TransportST25R3911 TransportType = "st25r3911"
	// TransportMock represents a mock transport for testing
	TransportMock TransportType = "mock"
)

// Handle identifies the characteristic or channel a notification is sent on
type Handle uint8

const (
	// HandleData carries telemetry frames
	HandleData Handle = 0x01
	// HandleStatus carries the battery level
	HandleStatus Handle = 0x02
	// HandleTimestamp receives wall-clock writes from the client
	HandleTimestamp Handle = 0x03
)

// String returns the handle name
func (h Handle) String() string {
	switch h {
	case HandleData:
		return "data"
	case HandleStatus:
		return "status"
	case HandleTimestamp:
		return "timestamp"
	default:
		return "unknown"
	}
}

// Notifier delivers notification payloads to a connected peer. Delivery is
// fire-and-forget: the bridge does not retry failed notifications.
type Notifier interface {
	Notify(handle Handle, data []byte) error
}

// NotifierFunc adapts a function to the Notifier interface
type NotifierFunc func(handle Handle, data []byte) error

// Notify calls f(handle, data)
func (f NotifierFunc) Notify(handle Handle, data []byte) error {
	return f(handle, data)
}

// MultiNotifier fans a notification out to several notifiers
type MultiNotifier []Notifier

// Notify delivers to every notifier and joins their errors
func (m MultiNotifier) Notify(handle Handle, data []byte) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(handle, data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// BatterySource reports the host battery level sent in status notifications
type BatterySource interface {
	BatteryLevel() (uint16, error)
}

// StaticBattery is a BatterySource that always reports the same value
type StaticBattery uint16

// BatteryLevel returns the fixed level
func (b StaticBattery) BatteryLevel() (uint16, error) {
	return uint16(b), nil
}
