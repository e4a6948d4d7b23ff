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

// Package iso15693 implements the NFC-V (ISO/IEC 15693) command layer on top
// of a raw RF front-end
package iso15693

import (
	"context"
	"errors"
	"fmt"
	"time"

	bridge "github.com/ZaparooProject/go-nfcv-bridge"
	"github.com/ZaparooProject/go-nfcv-bridge/internal/transport"
)

// Request flags
const (
	FlagSubcarrier = 0x01
	FlagDataRate   = 0x02
	FlagInventory  = 0x04
	FlagProtocol   = 0x08

	// Valid when FlagInventory is clear
	FlagSelect  = 0x10
	FlagAddress = 0x20
	FlagOption  = 0x40

	// Valid when FlagInventory is set
	FlagAFI     = 0x10
	FlagOneSlot = 0x20
)

// Response flags
const (
	ResponseFlagError = 0x01
)

// Commands
const (
	CmdInventory           = 0x01
	CmdStayQuiet           = 0x02
	CmdReadSingleBlock     = 0x20
	CmdWriteSingleBlock    = 0x21
	CmdReadMultipleBlocks  = 0x23
	CmdSelect              = 0x25
	CmdGetSystemInfo       = 0x2B
	inventoryResponseBytes = 10
)

// Frontend is a raw ISO15693 front-end. Transceive sends a request that
// already carries its CRC and returns the decoded response including its CRC.
// It returns a timeout error when no tag answers.
type Frontend interface {
	FieldOn() error
	FieldOff() error
	WakeUpArm() error
	WakeUpDisarm() error
	WakeUpHasWoken() bool
	Transceive(ctx context.Context, request []byte, timeout time.Duration) ([]byte, error)
	Type() bridge.TransportType
	Close() error
}

// Config contains configuration for the command layer
type Config struct {
	// Timeout is how long to wait for a response
	Timeout time.Duration
	// WriteTimeout is how long to wait for a write to be acknowledged
	WriteTimeout time.Duration
	// MaxRetries applies to selected and block commands, never to inventory
	MaxRetries int
}

// DefaultConfig returns the default command layer configuration
func DefaultConfig() *Config {
	return &Config{
		Timeout:      20 * time.Millisecond,
		WriteTimeout: 50 * time.Millisecond,
		MaxRetries:   1,
	}
}

// Reader implements bridge.NFCTransport for NFC-V tags
type Reader struct {
	fe     Frontend
	config *Config
}

// NewReader creates a command layer over fe
func NewReader(fe Frontend, config *Config) *Reader {
	if config == nil {
		config = DefaultConfig()
	}
	return &Reader{fe: fe, config: config}
}

// FieldOn implements bridge.NFCTransport
func (r *Reader) FieldOn() error { return r.fe.FieldOn() }

// FieldOff implements bridge.NFCTransport
func (r *Reader) FieldOff() error { return r.fe.FieldOff() }

// WakeUpArm implements bridge.NFCTransport
func (r *Reader) WakeUpArm() error { return r.fe.WakeUpArm() }

// WakeUpDisarm implements bridge.NFCTransport
func (r *Reader) WakeUpDisarm() error { return r.fe.WakeUpDisarm() }

// WakeUpHasWoken implements bridge.NFCTransport
func (r *Reader) WakeUpHasWoken() bool { return r.fe.WakeUpHasWoken() }

// Type implements bridge.NFCTransport
func (r *Reader) Type() bridge.TransportType { return r.fe.Type() }

// Close implements bridge.NFCTransport
func (r *Reader) Close() error { return r.fe.Close() }

// HandleInterrupt forwards to the front-end when it services interrupts
func (r *Reader) HandleInterrupt() {
	if h, ok := r.fe.(bridge.InterruptHandler); ok {
		h.HandleInterrupt()
	}
}

// exchange sends one request and returns the response body without flags
// byte or CRC
func (r *Reader) exchange(ctx context.Context, req []byte, timeout time.Duration, retries int) ([]byte, error) {
	frame := AppendCRC(req)

	body, err := transport.Do(ctx, transport.Policy{Op: "transceive", Retries: retries},
		func(ctx context.Context) ([]byte, error) {
			resp, err := r.fe.Transceive(ctx, frame, timeout)
			if err != nil {
				if bridge.IsRetryable(err) {
					return nil, transport.Again(err)
				}
				return nil, err
			}
			if len(resp) < 1+crcSize || !CheckCRC(resp) {
				return nil, transport.Again(fmt.Errorf("%w: response % X", bridge.ErrChecksumMismatch, resp))
			}
			return resp[:len(resp)-crcSize], nil
		})
	if err != nil {
		return nil, err
	}

	if body[0]&ResponseFlagError != 0 {
		code := byte(0)
		if len(body) > 1 {
			code = body[1]
		}
		return nil, fmt.Errorf("%w: command 0x%02X error code 0x%02X", bridge.ErrTagResponse, req[1], code)
	}
	return body[1:], nil
}

// CollisionResolve runs a single-slot inventory. No answer within the
// timeout means no tag; a garbled answer is reported as an error.
func (r *Reader) CollisionResolve(ctx context.Context) (bridge.UID, bool, error) {
	req := []byte{FlagDataRate | FlagInventory | FlagOneSlot, CmdInventory, 0x00}
	body, err := r.exchange(ctx, req, r.config.Timeout, 0)
	if err != nil {
		if errors.Is(err, bridge.ErrTransportTimeout) {
			return bridge.UID{}, false, nil
		}
		return bridge.UID{}, false, fmt.Errorf("inventory: %w", err)
	}
	if len(body) < inventoryResponseBytes-1 {
		return bridge.UID{}, false, fmt.Errorf("%w: inventory response %d bytes", bridge.ErrFrameCorrupted, len(body))
	}

	var uid bridge.UID
	copy(uid[:], body[1:1+bridge.UIDSize]) // skip DSFID
	return uid, true, nil
}

// SelectTag implements bridge.NFCTransport
func (r *Reader) SelectTag(ctx context.Context, uid bridge.UID) error {
	req := append([]byte{FlagDataRate | FlagAddress, CmdSelect}, uid[:]...)
	if _, err := r.exchange(ctx, req, r.config.Timeout, r.config.MaxRetries); err != nil {
		return fmt.Errorf("select %s: %w", uid, err)
	}
	return nil
}

func addressed(flags bridge.RequestFlags, cmd byte, uid *bridge.UID) []byte {
	f := byte(flags)
	if uid != nil {
		f = (f | FlagAddress) &^ FlagSelect
	}
	req := []byte{f, cmd}
	if uid != nil {
		req = append(req, uid[:]...)
	}
	return req
}

// ReadBlock implements bridge.NFCTransport
func (r *Reader) ReadBlock(ctx context.Context, flags bridge.RequestFlags, uid *bridge.UID, addr uint8) ([]byte, error) {
	req := append(addressed(flags, CmdReadSingleBlock, uid), addr)
	body, err := r.exchange(ctx, req, r.config.Timeout, r.config.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("read block %d: %w", addr, err)
	}
	if flags&FlagOption != 0 && len(body) > 0 {
		body = body[1:] // block security status
	}
	if len(body) < bridge.BlockSize {
		return nil, fmt.Errorf("%w: block %d has %d bytes", bridge.ErrFrameCorrupted, addr, len(body))
	}
	return body[:bridge.BlockSize], nil
}

// ReadMultipleBlocks reads count consecutive blocks starting at first.
// The response must fit the front-end's receive buffer, so callers keep
// count small.
func (r *Reader) ReadMultipleBlocks(ctx context.Context, flags bridge.RequestFlags, uid *bridge.UID,
	first uint8, count int,
) ([]byte, error) {
	if count < 1 || count > 256 {
		return nil, fmt.Errorf("%w: block count %d", bridge.ErrInvalidParameter, count)
	}
	if flags&FlagOption != 0 {
		return nil, fmt.Errorf("%w: security status not supported for multiple blocks", bridge.ErrInvalidParameter)
	}
	req := append(addressed(flags, CmdReadMultipleBlocks, uid), first, byte(count-1))
	body, err := r.exchange(ctx, req, r.config.Timeout, r.config.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("read blocks %d+%d: %w", first, count, err)
	}
	want := count * bridge.BlockSize
	if len(body) < want {
		return nil, fmt.Errorf("%w: %d blocks from %d returned %d bytes", bridge.ErrFrameCorrupted, count, first, len(body))
	}
	return body[:want], nil
}

// WriteBlock implements bridge.NFCTransport
func (r *Reader) WriteBlock(ctx context.Context, flags bridge.RequestFlags, uid *bridge.UID, addr uint8, data []byte) error {
	if len(data) != bridge.BlockSize {
		return fmt.Errorf("%w: block data must be %d bytes", bridge.ErrInvalidParameter, bridge.BlockSize)
	}
	req := append(addressed(flags, CmdWriteSingleBlock, uid), addr)
	req = append(req, data...)
	if _, err := r.exchange(ctx, req, r.config.WriteTimeout, r.config.MaxRetries); err != nil {
		return fmt.Errorf("write block %d: %w", addr, err)
	}
	return nil
}
