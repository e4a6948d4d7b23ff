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

// Package uart forwards telemetry notifications to an external BLE
// module attached over a UART.
//
// Each notification is written as a single record:
//
//	0x7E | handle | length | payload
//
// The module sends timestamp writes back in the same format.
package uart

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"

	bridge "github.com/ZaparooProject/go-nfcv-bridge"
)

const (
	// StartByte opens every record
	StartByte = 0x7E
	// MaxPayload is the largest payload a record length byte can carry
	MaxPayload = 0xFF

	headerSize   = 3
	readTimeout  = 100 * time.Millisecond
	defaultBaud  = 115200
	timestampLen = 4
)

// Notifier writes notification records to a serial link
type Notifier struct {
	port     io.ReadWriteCloser
	portName string
	mu       sync.Mutex
}

// Open opens the named serial port. A zero baud selects 115200.
func Open(portName string, baud int) (*Notifier, error) {
	if baud == 0 {
		baud = defaultBaud
	}
	port, err := serial.Open(portName, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", portName, err)
	}

	n := New(port)
	n.portName = portName
	return n, nil
}

// New wraps an already open link
func New(port io.ReadWriteCloser) *Notifier {
	return &Notifier{port: port, portName: "serial"}
}

// Encode builds the record for a notification
func Encode(handle bridge.Handle, data []byte) ([]byte, error) {
	if len(data) > MaxPayload {
		return nil, fmt.Errorf("%w: %d byte payload", bridge.ErrDataTooLarge, len(data))
	}
	rec := make([]byte, 0, headerSize+len(data))
	rec = append(rec, StartByte, byte(handle), byte(len(data)))
	return append(rec, data...), nil
}

// Notify implements bridge.Notifier
func (n *Notifier) Notify(handle bridge.Handle, data []byte) error {
	rec, err := Encode(handle, data)
	if err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.port == nil {
		return bridge.ErrNotConnected
	}
	if _, err := n.port.Write(rec); err != nil {
		return bridge.NewTransportError("Notify", n.portName,
			fmt.Errorf("%w: %w", bridge.ErrTransportWrite, err), bridge.ErrorTypeTransient)
	}
	return nil
}

// Listen reads records from the link until ctx is done or the link fails,
// passing every well-formed timestamp write to onTimestamp. Other records
// are skipped.
func (n *Notifier) Listen(ctx context.Context, onTimestamp func(uint32)) error {
	r := bufio.NewReader(n.port)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		handle, payload, err := readRecord(r)
		switch {
		case isIdle(err):
			continue
		case err != nil:
			return fmt.Errorf("%w: %w", bridge.ErrTransportRead, err)
		}

		if handle == bridge.HandleTimestamp && len(payload) == timestampLen {
			onTimestamp(binary.LittleEndian.Uint32(payload))
		}
	}
}

// isIdle reports read timeouts on a quiet port. A timeout may also cut a
// record short; the partial record is dropped.
func isIdle(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.ErrNoProgress)
}

func readRecord(r *bufio.Reader) (bridge.Handle, []byte, error) {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, nil, err
		}
		if b == StartByte {
			break
		}
	}

	var hdr [2]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return 0, nil, err
	}
	payload := make([]byte, hdr[1])
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, err
	}
	return bridge.Handle(hdr[0]), payload, nil
}

// Close closes the link
func (n *Notifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.port == nil {
		return nil
	}
	err := n.port.Close()
	n.port = nil
	if err != nil {
		return fmt.Errorf("failed to close serial port: %w", err)
	}
	return nil
}
