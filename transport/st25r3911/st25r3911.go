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

// Package st25r3911 drives an ST25R3911 NFC front-end over SPI in ISO15693
// stream mode
package st25r3911

import (
	"context"
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	bridge "github.com/ZaparooProject/go-nfcv-bridge"
	"github.com/ZaparooProject/go-nfcv-bridge/internal/transport"
	"github.com/ZaparooProject/go-nfcv-bridge/iso15693"
)

const (
	// Max SPI clock is 6 MHz
	maxClockFreq = 5 * physic.MegaHertz

	irqPollTimeout = 100 * time.Millisecond
)

// ErrNoIRQPin is returned by Watch when the device was opened without an
// interrupt line
var ErrNoIRQPin = errors.New("no interrupt pin configured")

type irqStatus struct {
	main  byte
	timer byte
	err   byte
}

func (s *irqStatus) merge(o irqStatus) {
	s.main |= o.main
	s.timer |= o.timer
	s.err |= o.err
}

// Device implements iso15693.Frontend for the ST25R3911
type Device struct {
	conn    conn.Conn
	irqPin  gpio.PinIn
	closer  func() error
	name    string
	pending irqStatus
}

// Open initializes periph, opens the SPI port and the optional interrupt
// pin, and initializes the chip. irqName may be empty.
func Open(spiName, irqName string) (*Device, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	port, err := spireg.Open(spiName)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port %s: %w", spiName, err)
	}

	c, err := port.Connect(maxClockFreq, spi.Mode1, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to connect SPI port %s: %w", spiName, err)
	}

	var pin gpio.PinIn
	if irqName != "" {
		p := gpioreg.ByName(irqName)
		if p == nil {
			_ = port.Close()
			return nil, fmt.Errorf("%w: interrupt pin %s", bridge.ErrDeviceNotFound, irqName)
		}
		if err := p.In(gpio.PullNoChange, gpio.RisingEdge); err != nil {
			_ = port.Close()
			return nil, fmt.Errorf("failed to configure interrupt pin %s: %w", irqName, err)
		}
		pin = p
	}

	d, err := New(c, pin)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	d.name = spiName
	d.closer = port.Close
	return d, nil
}

// New initializes a chip reachable through c
func New(c conn.Conn, irqPin gpio.PinIn) (*Device, error) {
	d := &Device{
		conn:   c,
		irqPin: irqPin,
		name:   c.String(),
	}
	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Device) init() error {
	if err := d.command(cmdSetDefault); err != nil {
		return err
	}

	id, err := d.readReg(regICIdentity)
	if err != nil {
		return err
	}
	if id>>3 != icTypeST25R3911 {
		return fmt.Errorf("%w: IC identity 0x%02X", bridge.ErrDeviceNotFound, id)
	}

	for _, w := range []struct{ reg, val byte }{
		{regOpControl, opEn},
		{regMode, modeSubcarrierStream},
		{regStreamMode, streamISO15693},
		{regIRQMaskMain, ^byte(irqRXE)},
		{regIRQMaskTimer, 0xFF},
		{regIRQMaskError, 0xFF},
	} {
		if err := d.writeReg(w.reg, w.val); err != nil {
			return err
		}
	}

	_, err = d.readIRQ()
	return err
}

func (d *Device) tx(w, r []byte, op string) error {
	if err := d.conn.Tx(w, r); err != nil {
		return bridge.NewTransportError(op, d.name, fmt.Errorf("%w: %w", bridge.ErrTransportWrite, err),
			bridge.ErrorTypeTransient)
	}
	return nil
}

func (d *Device) command(cmd byte) error {
	return d.tx([]byte{cmd}, nil, "command")
}

func (d *Device) writeReg(reg, val byte) error {
	return d.tx([]byte{modeWrite | (reg & addrMask), val}, nil, "writeReg")
}

func (d *Device) readRegs(reg byte, n int) ([]byte, error) {
	w := make([]byte, n+1)
	r := make([]byte, n+1)
	w[0] = modeRead | (reg & addrMask)
	if err := d.tx(w, r, "readReg"); err != nil {
		return nil, err
	}
	return r[1:], nil
}

func (d *Device) readReg(reg byte) (byte, error) {
	v, err := d.readRegs(reg, 1)
	if err != nil {
		return 0, err
	}
	return v[0], nil
}

// readIRQ reads and clears the three interrupt registers, folding them into
// the pending status
func (d *Device) readIRQ() (irqStatus, error) {
	v, err := d.readRegs(regIRQMain, 3)
	if err != nil {
		return irqStatus{}, err
	}
	s := irqStatus{main: v[0], timer: v[1], err: v[2]}
	d.pending.merge(s)
	return s, nil
}

// HandleInterrupt reads the interrupt registers after the IRQ line fired
func (d *Device) HandleInterrupt() {
	if _, err := d.readIRQ(); err != nil {
		bridge.Logger().Debug().Err(err).Str("device", d.name).Msg("interrupt status read failed")
	}
}

// FieldOn enables the receiver and transmitter
func (d *Device) FieldOn() error {
	return d.writeReg(regOpControl, opEn|opRxEn|opTxEn)
}

// FieldOff keeps the oscillator running with the field off
func (d *Device) FieldOff() error {
	return d.writeReg(regOpControl, opEn)
}

// WakeUpArm enters low-power wake-up mode with periodic amplitude checks
func (d *Device) WakeUpArm() error {
	d.pending.err &^= irqWakeMask
	if err := d.writeReg(regWakeUpTimerControl, wakeUp100msAmplitude); err != nil {
		return err
	}
	if err := d.writeReg(regIRQMaskError, ^byte(irqWakeMask)); err != nil {
		return err
	}
	return d.writeReg(regOpControl, opWu)
}

// WakeUpDisarm leaves wake-up mode
func (d *Device) WakeUpDisarm() error {
	if err := d.writeReg(regIRQMaskError, 0xFF); err != nil {
		return err
	}
	return d.writeReg(regOpControl, opEn)
}

// WakeUpHasWoken reports and consumes a wake-up event
func (d *Device) WakeUpHasWoken() bool {
	if _, err := d.readIRQ(); err != nil {
		return false
	}
	if d.pending.err&irqWakeMask == 0 {
		return false
	}
	d.pending.err &^= irqWakeMask
	return true
}

// Transceive sends a request in 1-of-4 coding and waits for the response
func (d *Device) Transceive(ctx context.Context, request []byte, timeout time.Duration) ([]byte, error) {
	coded := iso15693.EncodeVCD(request)
	if len(coded) > fifoDepth {
		return nil, fmt.Errorf("%w: %d coded bytes exceed FIFO", bridge.ErrDataTooLarge, len(coded))
	}

	if err := d.command(cmdClearFIFO); err != nil {
		return nil, err
	}
	if _, err := d.readIRQ(); err != nil {
		return nil, err
	}
	d.pending.main &^= irqRXE

	n := len(coded)
	if err := d.writeReg(regNumTxBytes1, byte(n>>5)); err != nil {
		return nil, err
	}
	if err := d.writeReg(regNumTxBytes2, byte(n<<3)); err != nil {
		return nil, err
	}
	if err := d.tx(append([]byte{modeFIFOLoad}, coded...), nil, "loadFIFO"); err != nil {
		return nil, err
	}
	if err := d.command(cmdTransmitWithoutCRC); err != nil {
		return nil, err
	}

	err := transport.PollUntil(ctx, "Transceive", timeout, 0, func() (bool, error) {
		if _, err := d.readIRQ(); err != nil {
			return false, err
		}
		return d.pending.main&irqRXE != 0, nil
	})
	if err != nil {
		if errors.Is(err, bridge.ErrTransportTimeout) {
			return nil, bridge.NewTimeoutError("Transceive", d.name)
		}
		return nil, err
	}
	d.pending.main &^= irqRXE

	count, err := d.readReg(regFIFOStatus1)
	if err != nil {
		return nil, err
	}
	r := make([]byte, int(count&fifoCountMask)+1)
	w := make([]byte, len(r))
	w[0] = modeFIFORead
	if err := d.tx(w, r, "readFIFO"); err != nil {
		return nil, err
	}

	resp, err := iso15693.DecodeVICC(r[1:])
	if err != nil {
		return nil, bridge.NewTransportError("Transceive", d.name, err, bridge.ErrorTypeTransient)
	}
	return resp, nil
}

// Watch waits for rising edges on the interrupt line until ctx is done
func (d *Device) Watch(ctx context.Context, onInterrupt func()) error {
	if d.irqPin == nil {
		return ErrNoIRQPin
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.irqPin.WaitForEdge(irqPollTimeout) {
			onInterrupt()
		}
	}
}

// Type returns the transport type
func (*Device) Type() bridge.TransportType {
	return bridge.TransportST25R3911
}

// Close switches the chip off and releases the SPI port
func (d *Device) Close() error {
	_ = d.writeReg(regOpControl, 0x00)
	if d.closer != nil {
		if err := d.closer(); err != nil {
			return fmt.Errorf("failed to close SPI port: %w", err)
		}
	}
	return nil
}
