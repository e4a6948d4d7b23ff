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
	"sync"

	virt "github.com/ZaparooProject/go-nfcv-bridge/internal/testing"
)

// MockTransport is an NFCTransport backed by a simulated sensor. It records
// every front-end call so tests can check ordering.
type MockTransport struct {
	Sensor *virt.VirtualSensor

	CollisionErr error
	ReadErr      error
	// FailAtBlock makes ReadBlock fail at this address when ReadErr is set.
	// A negative value fails every block.
	FailAtBlock int

	calls      []string
	mu         sync.Mutex
	woken      bool
	armed      bool
	fieldOn    bool
	interrupts int
	closed     bool
}

// NewMockTransport creates a mock transport around a sensor. A nil sensor
// means the field is always empty.
func NewMockTransport(sensor *virt.VirtualSensor) *MockTransport {
	return &MockTransport{
		Sensor:      sensor,
		FailAtBlock: -1,
	}
}

func (m *MockTransport) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

// Calls returns the recorded call names in order
func (m *MockTransport) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// ResetCalls clears the call log
func (m *MockTransport) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// CallCount returns how many times a call was made
func (m *MockTransport) CallCount(call string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == call {
			n++
		}
	}
	return n
}

// SetWoken controls what WakeUpHasWoken reports while armed
func (m *MockTransport) SetWoken(woken bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.woken = woken
}

// FieldOn implements NFCTransport
func (m *MockTransport) FieldOn() error {
	m.record("FieldOn")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fieldOn = true
	return nil
}

// FieldOff implements NFCTransport
func (m *MockTransport) FieldOff() error {
	m.record("FieldOff")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fieldOn = false
	return nil
}

// IsFieldOn reports the field state
func (m *MockTransport) IsFieldOn() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fieldOn
}

// WakeUpArm implements NFCTransport
func (m *MockTransport) WakeUpArm() error {
	m.record("WakeUpArm")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.armed = true
	return nil
}

// WakeUpDisarm implements NFCTransport
func (m *MockTransport) WakeUpDisarm() error {
	m.record("WakeUpDisarm")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.armed = false
	return nil
}

// WakeUpHasWoken implements NFCTransport
func (m *MockTransport) WakeUpHasWoken() bool {
	m.record("WakeUpHasWoken")
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.armed && m.woken
}

// HandleInterrupt implements InterruptHandler
func (m *MockTransport) HandleInterrupt() {
	m.record("HandleInterrupt")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interrupts++
}

// Interrupts returns how many interrupts were handled
func (m *MockTransport) Interrupts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.interrupts
}

// CollisionResolve implements NFCTransport
func (m *MockTransport) CollisionResolve(_ context.Context) (UID, bool, error) {
	m.record("CollisionResolve")
	if m.CollisionErr != nil {
		return UID{}, false, m.CollisionErr
	}
	if m.Sensor == nil || !m.Sensor.IsPresent() {
		return UID{}, false, nil
	}
	return UID(m.Sensor.UID), true, nil
}

// SelectTag implements NFCTransport
func (m *MockTransport) SelectTag(_ context.Context, uid UID) error {
	m.record("SelectTag")
	if m.Sensor == nil || !m.Sensor.IsPresent() || UID(m.Sensor.UID) != uid {
		return NewTimeoutError("SelectTag", "mock")
	}
	return nil
}

// ReadBlock implements NFCTransport
func (m *MockTransport) ReadBlock(_ context.Context, _ RequestFlags, _ *UID, addr uint8) ([]byte, error) {
	m.record("ReadBlock")
	if m.ReadErr != nil && (m.FailAtBlock < 0 || int(addr) == m.FailAtBlock) {
		return nil, m.ReadErr
	}
	if m.Sensor == nil || !m.Sensor.IsPresent() {
		return nil, NewTimeoutError("ReadBlock", "mock")
	}
	if int(addr) >= BlockCount {
		return nil, ErrTagResponse
	}
	return m.Sensor.ReadBlock(int(addr)), nil
}

// WriteBlock implements NFCTransport
func (m *MockTransport) WriteBlock(_ context.Context, _ RequestFlags, _ *UID, addr uint8, data []byte) error {
	m.record("WriteBlock")
	if m.Sensor == nil || !m.Sensor.IsPresent() {
		return NewTimeoutError("WriteBlock", "mock")
	}
	if int(addr) >= BlockCount || len(data) != BlockSize {
		return ErrInvalidParameter
	}
	m.Sensor.WriteBlock(int(addr), data)
	return nil
}

// Type implements NFCTransport
func (*MockTransport) Type() TransportType {
	return TransportMock
}

// Close implements NFCTransport
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Notification is one captured notifier call
type Notification struct {
	Data   []byte
	Handle Handle
}

// RecordingNotifier captures notifications
type RecordingNotifier struct {
	Err  error
	sent []Notification
	mu   sync.Mutex
}

// Notify implements Notifier
func (r *RecordingNotifier) Notify(handle Handle, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, Notification{Handle: handle, Data: append([]byte(nil), data...)})
	return r.Err
}

// Sent returns the captured notifications
func (r *RecordingNotifier) Sent() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.sent...)
}

// OnHandle returns the captured notifications for one handle
func (r *RecordingNotifier) OnHandle(h Handle) []Notification {
	var out []Notification
	for _, n := range r.Sent() {
		if n.Handle == h {
			out = append(out, n)
		}
	}
	return out
}

// Reset clears the captured notifications
func (r *RecordingNotifier) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}

// MemoryStore is an in-memory Store with a record capacity
type MemoryStore struct {
	records  map[[2]uint16][]byte
	Capacity int
	Writes   int
	GCs      int
	stale    int
	mu       sync.Mutex
}

// NewMemoryStore creates a store holding at most capacity live plus stale records
func NewMemoryStore(capacity int) *MemoryStore {
	return &MemoryStore{
		records:  make(map[[2]uint16][]byte),
		Capacity: capacity,
	}
}

// Write implements Store
func (s *MemoryStore) Write(fileID, key uint16, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Capacity > 0 && len(s.records)+s.stale+1 > s.Capacity {
		return ErrStorageFull
	}
	k := [2]uint16{fileID, key}
	if _, ok := s.records[k]; ok {
		s.stale++
	}
	s.records[k] = append([]byte(nil), data...)
	s.Writes++
	return nil
}

// Read implements Store
func (s *MemoryStore) Read(fileID, key uint16) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.records[[2]uint16{fileID, key}]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return append([]byte(nil), data...), nil
}

// GC implements Store
func (s *MemoryStore) GC() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stale = 0
	s.GCs++
	return nil
}
