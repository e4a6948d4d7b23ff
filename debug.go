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
	"fmt"
	"os"
	"sync/atomic"

	"github.com/rs/zerolog"
)

var (
	debugEnabled atomic.Bool
	logger       atomic.Pointer[zerolog.Logger]
)

func init() {
	l := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().
		Timestamp().
		Str("component", "nfcv-bridge").
		Logger().
		Level(zerolog.InfoLevel)
	logger.Store(&l)
}

// SetDebugEnabled turns debug output on or off, for the package helpers and
// for the level of the current logger
func SetDebugEnabled(enabled bool) {
	debugEnabled.Store(enabled)
	level := zerolog.InfoLevel
	if enabled {
		level = zerolog.DebugLevel
	}
	l := logger.Load().Level(level)
	logger.Store(&l)
}

// DebugEnabled reports whether debug output is on
func DebugEnabled() bool {
	return debugEnabled.Load()
}

// SetLogger replaces the logger used by the bridge and its subpackages
func SetLogger(l zerolog.Logger) {
	logger.Store(&l)
}

// Logger returns the logger used by the bridge and its subpackages
func Logger() *zerolog.Logger {
	return logger.Load()
}

func debugf(format string, args ...any) {
	if !debugEnabled.Load() {
		return
	}
	logger.Load().Debug().Msgf(format, args...)
}

func debugln(args ...any) {
	if !debugEnabled.Load() {
		return
	}
	logger.Load().Debug().Msg(fmt.Sprint(args...))
}
