// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/gobwas/ws"
)

// MessageType identifies the kind of a message.
type MessageType uint8

// Message types.
const (
	Text MessageType = iota + 1
	Binary
	Ping
	Pong
)

func (t MessageType) String() string {
	switch t {
	case Text:
		return "text"
	case Binary:
		return "binary"
	case Ping:
		return "ping"
	case Pong:
		return "pong"
	default:
		return fmt.Sprintf("MessageType(%d)", uint8(t))
	}
}

func (t MessageType) opCode() ws.OpCode {
	switch t {
	case Binary:
		return ws.OpBinary
	case Ping:
		return ws.OpPing
	case Pong:
		return ws.OpPong
	default:
		return ws.OpText
	}
}

// Message is one complete data message.
type Message struct {
	Type MessageType
	Data []byte
}

// TextMessage returns a text message.
func TextMessage(s string) Message { return Message{Type: Text, Data: []byte(s)} }

// BinaryMessage returns a binary message.
func BinaryMessage(b []byte) Message { return Message{Type: Binary, Data: b} }

var (
	// ErrClosed is returned by operations on a closed connection.
	ErrClosed = errors.New("ws: connection closed")

	// ErrMessageTooBig is returned when a message exceeds the size limit.
	ErrMessageTooBig = errors.New("ws: message too big")

	// ErrProtocol is returned when the peer violates the framing rules.
	ErrProtocol = errors.New("ws: protocol error")
)

// CloseError is returned by Recv once the peer closed the connection.
type CloseError struct {
	Code   ws.StatusCode
	Reason string
}

func (e *CloseError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("ws: closed with code %d", e.Code)
	}

	return fmt.Sprintf("ws: closed with code %d: %s", e.Code, e.Reason)
}

// Is makes a CloseError match ErrClosed.
func (e *CloseError) Is(target error) bool { return target == ErrClosed }

// Conn is the server side of a WebSocket connection. Recv must be called
// from one goroutine at a time; Send and Close are safe for concurrent use.
type Conn struct {
	conn    net.Conn
	r       io.Reader
	maxSize int64

	wmu     sync.Mutex
	closing atomic.Bool
	done    atomic.Bool
}

// NewConn wraps an established connection. Reads go through r, which
// may hold bytes buffered during the handshake; a nil r reads from conn.
func NewConn(conn net.Conn, r io.Reader, maxSize int64) *Conn {
	if r == nil {
		r = conn
	}

	return &Conn{conn: conn, r: r, maxSize: maxSize}
}

// Recv returns the next data message. Pings are answered and pongs
// dropped. Fragmented messages are reassembled. When the peer closes, Recv
// replies with a close frame and returns a *CloseError.
func (c *Conn) Recv(ctx context.Context) (Message, error) {
	if c.done.Load() {
		return Message{}, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return Message{}, err
	}

	if dl, ok := ctx.Deadline(); ok {
		_ = c.conn.SetReadDeadline(dl)
		defer func() { _ = c.conn.SetReadDeadline(time.Time{}) }()
	}
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	msg, err := c.recv()
	if err != nil && ctx.Err() != nil {
		return Message{}, ctx.Err()
	}

	return msg, err
}

func (c *Conn) recv() (Message, error) {
	var (
		typ  MessageType
		data []byte
	)

	for {
		h, err := ws.ReadHeader(c.r)
		if err != nil {
			if c.done.Load() {
				return Message{}, ErrClosed
			}
			return Message{}, err
		}
		if h.Rsv != 0 || !h.Masked {
			return Message{}, c.fail(ws.StatusProtocolError, "invalid frame header")
		}
		if h.OpCode.IsControl() && (!h.Fin || h.Length > 125) {
			return Message{}, c.fail(ws.StatusProtocolError, "invalid control frame")
		}
		if c.maxSize > 0 && int64(len(data))+h.Length > c.maxSize {
			_ = c.fail(ws.StatusMessageTooBig, "")
			return Message{}, ErrMessageTooBig
		}

		payload := make([]byte, h.Length)
		if _, err := io.ReadFull(c.r, payload); err != nil {
			return Message{}, err
		}
		ws.Cipher(payload, h.Mask, 0)

		switch h.OpCode {
		case ws.OpPing:
			if err := c.write(ws.NewPongFrame(payload)); err != nil {
				return Message{}, err
			}
			continue
		case ws.OpPong:
			continue
		case ws.OpClose:
			return Message{}, c.closed(payload)
		case ws.OpContinuation:
			if typ == 0 {
				return Message{}, c.fail(ws.StatusProtocolError, "unexpected continuation")
			}
		case ws.OpText, ws.OpBinary:
			if typ != 0 {
				return Message{}, c.fail(ws.StatusProtocolError, "expected continuation")
			}
			typ = Binary
			if h.OpCode == ws.OpText {
				typ = Text
			}
		default:
			return Message{}, c.fail(ws.StatusProtocolError, "unknown opcode")
		}

		data = append(data, payload...)
		if !h.Fin {
			continue
		}
		if typ == Text && !utf8.Valid(data) {
			return Message{}, c.fail(ws.StatusInvalidFramePayloadData, "invalid utf-8")
		}

		return Message{Type: typ, Data: data}, nil
	}
}

// closed answers a close frame from the peer.
func (c *Conn) closed(payload []byte) error {
	code, reason := ws.ParseCloseFrameData(payload)
	if c.closing.CompareAndSwap(false, true) {
		var body []byte
		if code != 0 {
			body = ws.NewCloseFrameBody(code, "")
		}
		_ = c.write(ws.NewCloseFrame(body))
	}
	c.shutdown()

	if code == 0 {
		code = ws.StatusNoStatusRcvd
	}

	return &CloseError{Code: code, Reason: reason}
}

// fail closes the connection with code and returns an ErrProtocol error.
func (c *Conn) fail(code ws.StatusCode, reason string) error {
	_ = c.Close(code, reason)
	if reason == "" {
		return ErrProtocol
	}

	return fmt.Errorf("%w: %s", ErrProtocol, reason)
}

// Send writes msg as a single frame.
func (c *Conn) Send(msg Message) error {
	if c.closing.Load() {
		return ErrClosed
	}

	return c.write(ws.NewFrame(msg.Type.opCode(), true, msg.Data))
}

// SendText sends a text message.
func (c *Conn) SendText(s string) error { return c.Send(TextMessage(s)) }

// Close sends a close frame and closes the connection. Closing twice
// returns ErrClosed.
func (c *Conn) Close(code ws.StatusCode, reason string) error {
	if !c.closing.CompareAndSwap(false, true) {
		return ErrClosed
	}
	err := c.write(ws.NewCloseFrame(ws.NewCloseFrameBody(code, reason)))
	c.shutdown()

	return err
}

func (c *Conn) write(f ws.Frame) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if c.done.Load() {
		return ErrClosed
	}

	return ws.WriteFrame(c.conn, f)
}

func (c *Conn) shutdown() {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if c.done.CompareAndSwap(false, true) {
		_ = c.conn.Close()
	}
}

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }
