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

package st25r3911

// SPI operation modes
const (
	modeWrite    = 0x00
	modeRead     = 0x40
	modeFIFOLoad = 0x80
	modeFIFORead = 0xBF
	modeCommand  = 0xC0
	modeMask     = 0xC0
	addrMask     = 0x3F
)

// Registers
const (
	regIOConf1            = 0x00
	regIOConf2            = 0x01
	regOpControl          = 0x02
	regMode               = 0x03
	regBitRate            = 0x04
	regStreamMode         = 0x08
	regIRQMaskMain        = 0x14
	regIRQMaskTimer       = 0x15
	regIRQMaskError       = 0x16
	regIRQMain            = 0x17
	regIRQTimer           = 0x18
	regIRQError           = 0x19
	regFIFOStatus1        = 0x1A
	regFIFOStatus2        = 0x1B
	regNumTxBytes1        = 0x1D
	regNumTxBytes2        = 0x1E
	regWakeUpTimerControl = 0x31
	regICIdentity         = 0x3F
)

// Operation control bits
const (
	opEn   = 0x80
	opRxEn = 0x40
	opTxEn = 0x08
	opWu   = 0x04
)

// Main interrupt bits
const (
	irqOsc = 0x80
	irqFWL = 0x40
	irqRXS = 0x20
	irqRXE = 0x10
	irqTXE = 0x08
	irqCol = 0x04
)

// Error and wake-up interrupt bits
const (
	irqCRC  = 0x80
	irqPar  = 0x40
	irqErr2 = 0x20
	irqErr1 = 0x10
	irqWT   = 0x08
	irqWAM  = 0x04
	irqWPH  = 0x02
	irqWCAP = 0x01

	irqWakeMask = irqWAM | irqWPH | irqWCAP
)

// Direct commands
const (
	cmdSetDefault          = 0xC1
	cmdClearFIFO           = 0xC2
	cmdTransmitWithCRC     = 0xC4
	cmdTransmitWithoutCRC  = 0xC5
	cmdUnmaskReceiveData   = 0xD1
	cmdMeasureAmplitude    = 0xD3
	cmdStartWakeUpTimer    = 0xE1
	cmdStartNoResponseTime = 0xE3
)

// Register values for ISO15693 stream mode
const (
	// Subcarrier stream operating mode
	modeSubcarrierStream = 0x70
	// 424 kHz subcarrier, 8 pulses per half bit, fc/128 transmit slots
	streamISO15693 = 0x38
	// Wake-up every 100 ms on amplitude change
	wakeUp100msAmplitude = 0x30 | 0x04

	icTypeST25R3911 = 0x01
	fifoDepth       = 96
	fifoCountMask   = 0x7F
)
