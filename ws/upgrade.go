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
	"net"
	"net/http"

	"github.com/gobwas/ws"

	"rivaas.dev/relay/upgrade"
	"rivaas.dev/relay/web"
)

// DefaultMaxMessageSize limits reassembled messages unless overridden.
const DefaultMaxMessageSize = 16 << 20

// Option configures an Upgrade.
type Option func(*Upgrade)

// WithMaxMessageSize limits the size of a reassembled message. Zero or
// less disables the limit.
func WithMaxMessageSize(n int64) Option {
	return func(u *Upgrade) { u.maxSize = n }
}

// WithSubprotocols sets the supported subprotocols in order of preference.
func WithSubprotocols(protos ...string) Option {
	return func(u *Upgrade) { u.proto.Subprotocols = protos }
}

// WithCheckOrigin sets the origin policy.
func WithCheckOrigin(f func(r *http.Request) bool) Option {
	return func(u *Upgrade) { u.proto.CheckOrigin = f }
}

// WithErrorHandler sets a callback for connections that fail to hand off
// after the switching response was sent.
func WithErrorHandler(f func(error)) Option {
	return func(u *Upgrade) { u.onError = f }
}

// Upgrade is a negotiated WebSocket upgrade waiting for its driver.
type Upgrade struct {
	proto   Protocol
	maxSize int64
	onError func(error)
	up      *upgrade.Upgrade
}

// NewUpgrade negotiates a WebSocket upgrade for r. It fails with an
// *upgrade.Error when the request is not a valid WebSocket handshake or
// the transport cannot hand off the connection.
func NewUpgrade(r *http.Request, opts ...Option) (*Upgrade, error) {
	u := &Upgrade{maxSize: DefaultMaxMessageSize}
	for _, opt := range opts {
		opt(u)
	}

	up, err := upgrade.Negotiate(r, &u.proto)
	if err != nil {
		return nil, err
	}
	u.up = up

	return u, nil
}

// Extract negotiates with default options. It has the shape of an
// extractor function.
func Extract(_ context.Context, r *http.Request) (*Upgrade, error) {
	return NewUpgrade(r)
}

// Subprotocol returns the subprotocol selected for the request, if any.
func (u *Upgrade) Subprotocol(r *http.Request) string {
	return u.proto.selectSubprotocol(r)
}

// OnUpgrade returns the switching response and runs fn with the
// connection once the transport hands it off. The connection is closed
// when fn returns.
func (u *Upgrade) OnUpgrade(ctx context.Context, fn func(ctx context.Context, conn *Conn)) (*web.Response, error) {
	return u.up.Spawn(ctx, func(ctx context.Context, raw *upgrade.Upgraded) {
		conn, err := u.claim(raw)
		if err != nil {
			_ = raw.Close()
			if u.onError != nil {
				u.onError(err)
			}
			return
		}
		defer func() { _ = conn.Close(ws.StatusNormalClosure, "") }()
		fn(ctx, conn)
	}, upgrade.WithErrorHandler(u.onError))
}

// claim accepts connections hijacked from net/http and plain net.Conn
// values.
func (u *Upgrade) claim(raw *upgrade.Upgraded) (*Conn, error) {
	if hc, err := upgrade.Downcast[*upgrade.HijackedConn](raw); err == nil {
		return NewConn(hc, hc, u.maxSize), nil
	}
	nc, err := upgrade.Downcast[net.Conn](raw)
	if err != nil {
		return nil, err
	}

	return NewConn(nc, nil, u.maxSize), nil
}
