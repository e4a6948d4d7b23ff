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

/*
Package bridge reads Libre-style NFC-V (ISO15693) sensors and republishes
their memory as checksummed telemetry frames.

A Bridge owns four cooperating parts:

  - a poll scheduler that drives the RF field through field-off, optional
    wake-up detection, active poll and passive poll
  - a synchronizer that reads all 43 blocks of a sensor and works out which
    trend and history records are new since the previous read
  - a framer that cuts the 344-byte snapshot into two 175-byte frames with a
    CRC16 trailer
  - a cadence driven by a 1 Hz tick that opens a scan window before each
    refresh and decides when frames and battery status go out

Basic Usage:

	import (
	    "github.com/ZaparooProject/go-nfcv-bridge"
	    "github.com/ZaparooProject/go-nfcv-bridge/iso15693"
	    "github.com/ZaparooProject/go-nfcv-bridge/transport/st25r3911"
	)

	fe, err := st25r3911.Open("/dev/spidev0.0", "GPIO25")
	if err != nil {
	    log.Fatal(err)
	}

	b, err := bridge.New(iso15693.NewReader(fe, nil),
	    bridge.WithNotifier(notifier),
	    bridge.WithPollPolicy(bridge.PolicyPowerSaving),
	)
	if err != nil {
	    log.Fatal(err)
	}
	defer b.Close()

	// Call b.OnTick() once a second from a timer goroutine and
	// b.OnFieldInterrupt() from the IRQ watcher, then run the main loop:
	for ctx.Err() == nil {
	    b.WorkCycle(ctx)
	}

The polling package wraps this loop with a ticker and metrics.

Thread Safety: all state lives on the main loop. The OnTick,
OnFieldInterrupt and OnTimestampWrite callbacks only set atomic flags.

Debugging:

	bridge.SetDebugEnabled(true)
	bridge.SetLogger(zerolog.New(os.Stderr))
*/
package bridge
