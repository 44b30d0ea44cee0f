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

package upgrade

import (
	"bufio"
	"io"
	"net"
	"reflect"
	"sync"
)

// Upgraded owns a connection that switched protocols. The connection is
// type-erased; a protocol driver claims it with Downcast, naming the exact
// type the transport created it with.
//
// An Upgraded has a single owner and is claimed once. Until it is claimed,
// Read, Write and Close act on the connection directly.
type Upgraded struct {
	mu   sync.Mutex
	typ  reflect.Type
	conn io.ReadWriteCloser
}

// NewUpgraded wraps conn and records T as its type.
func NewUpgraded[T io.ReadWriteCloser](conn T) *Upgraded {
	return &Upgraded{typ: reflect.TypeFor[T](), conn: conn}
}

// Type returns the type recorded at construction.
func (u *Upgraded) Type() reflect.Type {
	return u.typ
}

// Downcast claims the connection as a T. It fails with *DowncastError when
// T is not the recorded type, leaving the connection unclaimed, and with
// ErrAlreadyTaken when it was claimed before.
func Downcast[T io.ReadWriteCloser](u *Upgraded) (T, error) {
	var zero T

	u.mu.Lock()
	defer u.mu.Unlock()

	if u.conn == nil {
		return zero, ErrAlreadyTaken
	}
	want := reflect.TypeFor[T]()
	if want != u.typ {
		return zero, &DowncastError{Want: want, Have: u.typ}
	}
	conn, ok := u.conn.(T)
	if !ok {
		return zero, &DowncastError{Want: want, Have: reflect.TypeOf(u.conn)}
	}
	u.conn = nil

	return conn, nil
}

func (u *Upgraded) current() (io.ReadWriteCloser, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.conn == nil {
		return nil, ErrAlreadyTaken
	}

	return u.conn, nil
}

// Read reads from the unclaimed connection.
func (u *Upgraded) Read(p []byte) (int, error) {
	c, err := u.current()
	if err != nil {
		return 0, err
	}

	return c.Read(p)
}

// Write writes to the unclaimed connection.
func (u *Upgraded) Write(p []byte) (int, error) {
	c, err := u.current()
	if err != nil {
		return 0, err
	}

	return c.Write(p)
}

// Close closes the connection unless it was claimed; closing a claimed
// handle is a no-op.
func (u *Upgraded) Close() error {
	u.mu.Lock()
	c := u.conn
	u.conn = nil
	u.mu.Unlock()

	if c == nil {
		return nil
	}

	return c.Close()
}

// HijackedConn is a connection taken over from an HTTP server. Bytes the
// client sent after the request head may already sit in Reader, so reads go
// through it.
type HijackedConn struct {
	net.Conn
	Reader *bufio.Reader
}

// Read reads through the buffered reader.
func (c *HijackedConn) Read(p []byte) (int, error) {
	if c.Reader != nil {
		return c.Reader.Read(p)
	}

	return c.Conn.Read(p)
}
