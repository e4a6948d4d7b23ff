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

// Package ws fans telemetry notifications out to WebSocket clients.
//
// Every notification is sent as one binary message whose first byte is the
// bridge handle and whose remainder is the payload. Clients set the bridge
// clock by sending a binary message of the form 0x03 | u32 little-endian.
package ws

import (
	"encoding/binary"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	bridge "github.com/ZaparooProject/go-nfcv-bridge"
)

const (
	sendQueueSize = 16
	writeTimeout  = 2 * time.Second
	maxMessage    = 64
	timestampLen  = 1 + 4
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub is an http.Handler that upgrades requests to WebSocket connections and
// a bridge.Notifier that broadcasts to all of them.
type Hub struct {
	clients     map[*client]struct{}
	onTimestamp func(uint32)
	upgrader    websocket.Upgrader
	mu          sync.Mutex
	closed      bool
}

// NewHub creates a hub. onTimestamp may be nil.
func NewHub(onTimestamp func(uint32)) *Hub {
	return &Hub{
		clients:     make(map[*client]struct{}),
		onTimestamp: onTimestamp,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  256,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the connection and serves it until the client leaves
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		bridge.Logger().Debug().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendQueueSize)}
	if !h.register(c) {
		_ = conn.Close()
		return
	}
	bridge.Logger().Info().Str("remote", r.RemoteAddr).Msg("websocket client connected")

	go c.writeLoop()
	h.readLoop(c)

	h.unregister(c)
	bridge.Logger().Info().Str("remote", r.RemoteAddr).Msg("websocket client disconnected")
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) readLoop(c *client) {
	c.conn.SetReadLimit(maxMessage)
	for {
		kind, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if kind != websocket.BinaryMessage || len(msg) != timestampLen || bridge.Handle(msg[0]) != bridge.HandleTimestamp {
			continue
		}
		if h.onTimestamp != nil {
			h.onTimestamp(binary.LittleEndian.Uint32(msg[1:]))
		}
	}
}

func (c *client) writeLoop() {
	defer func() { _ = c.conn.Close() }()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeTimeout))
}

// Notify implements bridge.Notifier. Slow clients whose queue is full miss
// the message. It returns bridge.ErrNotConnected when no client is attached.
func (h *Hub) Notify(handle bridge.Handle, data []byte) error {
	msg := make([]byte, 0, 1+len(data))
	msg = append(msg, byte(handle))
	msg = append(msg, data...)

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.clients) == 0 {
		return bridge.ErrNotConnected
	}
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			debugDrop(c)
		}
	}
	return nil
}

func debugDrop(c *client) {
	bridge.Logger().Debug().Str("remote", c.conn.RemoteAddr().String()).Msg("websocket send queue full, dropping message")
}

// ClientCount returns the number of attached clients
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	return nil
}
