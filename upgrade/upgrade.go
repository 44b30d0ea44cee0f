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
	"context"
	"net/http"
	"strings"
	"sync"

	"rivaas.dev/relay/web"
)

// Protocol describes a protocol a connection can switch to.
type Protocol interface {
	// Name is the token used in the Upgrade header, such as "websocket".
	Name() string
	// Negotiate checks protocol-specific request headers. The generic
	// Connection and Upgrade headers have been checked already.
	Negotiate(r *http.Request) error
	// Handshake computes the extra headers of the 101 response. It must
	// not block.
	Handshake(r *http.Request) (http.Header, error)
}

// State is the stage of an upgrade.
type State uint8

const (
	// StateNegotiating is the initial state: request headers are inspected.
	StateNegotiating State = iota
	// StateHandshaking means the protocol was accepted and the switching
	// response can be produced.
	StateHandshaking
	// StateUpgraded is terminal: the connection has been handed off.
	StateUpgraded
)

func (s State) String() string {
	switch s {
	case StateNegotiating:
		return "negotiating"
	case StateHandshaking:
		return "handshaking"
	case StateUpgraded:
		return "upgraded"
	default:
		return "unknown"
	}
}

// Upgrade drives one protocol switch:
//
//	up, err := upgrade.Negotiate(r, proto)
//	if err != nil {
//		return nil, err
//	}
//	return up.Spawn(ctx, func(ctx context.Context, conn *upgrade.Upgraded) {
//		...
//	})
type Upgrade struct {
	proto Protocol
	req   *http.Request
	on    *OnUpgrade

	mu    sync.Mutex
	state State
}

// Negotiate checks that r asks to switch to proto and claims the
// connection hand-off from the request context. On success the upgrade is
// in the handshaking state.
func Negotiate(r *http.Request, proto Protocol) (*Upgrade, error) {
	name := proto.Name()
	u := &Upgrade{proto: proto, req: r, state: StateNegotiating}

	if !HeaderHasToken(r.Header, "Upgrade", name) {
		return nil, &Error{Kind: ErrUnsupported, Protocol: name, Reason: "missing Upgrade: " + name, Missing: true}
	}
	if !HeaderHasToken(r.Header, "Connection", "upgrade") {
		return nil, Unsupported(name, "missing Connection: upgrade")
	}
	if err := proto.Negotiate(r); err != nil {
		return nil, err
	}

	on, err := TakeOnUpgrade(r.Context())
	if err != nil {
		return nil, &Error{Kind: ErrNotUpgradable, Protocol: name}
	}
	u.on = on
	u.state = StateHandshaking

	return u, nil
}

// Protocol returns the negotiated protocol.
func (u *Upgrade) Protocol() Protocol { return u.proto }

// State returns the current state.
func (u *Upgrade) State() State {
	u.mu.Lock()
	defer u.mu.Unlock()

	return u.state
}

// Response computes the 101 Switching Protocols response. Returning it
// from the handler tells the transport to switch.
func (u *Upgrade) Response() (*web.Response, error) {
	h, err := u.proto.Handshake(u.req)
	if err != nil {
		return nil, &Error{Kind: ErrHandshake, Protocol: u.proto.Name(), Reason: err.Error()}
	}

	res := web.Status(http.StatusSwitchingProtocols)
	for k, v := range h {
		res.Header[k] = v
	}
	res.Header.Set("Connection", "Upgrade")
	res.Header.Set("Upgrade", u.proto.Name())

	return res, nil
}

// Wait blocks until the transport hands the connection off. It succeeds at
// most once; the upgrade is then in the upgraded state.
func (u *Upgrade) Wait(ctx context.Context) (*Upgraded, error) {
	u.mu.Lock()
	if u.state == StateUpgraded {
		u.mu.Unlock()
		return nil, ErrAlreadyUpgraded
	}
	u.mu.Unlock()

	conn, err := u.on.Wait(ctx)
	if err != nil {
		return nil, err
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if u.state == StateUpgraded {
		return nil, ErrAlreadyUpgraded
	}
	u.state = StateUpgraded

	return conn, nil
}

// SpawnOption configures Spawn.
type SpawnOption func(*spawnConfig)

type spawnConfig struct {
	onError func(error)
}

// WithErrorHandler sets a callback for hand-offs that fail after the
// switching response was returned.
func WithErrorHandler(f func(error)) SpawnOption {
	return func(c *spawnConfig) { c.onError = f }
}

// Spawn returns the switching response and runs fn in a new goroutine once
// the connection is handed off. fn owns the connection and should claim it
// with Downcast, or close it. The context given to fn keeps the values of
// ctx but is not cancelled when the request ends.
func (u *Upgrade) Spawn(ctx context.Context, fn func(ctx context.Context, conn *Upgraded), opts ...SpawnOption) (*web.Response, error) {
	cfg := spawnConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	res, err := u.Response()
	if err != nil {
		return nil, err
	}

	connCtx := context.WithoutCancel(ctx)
	go func() {
		conn, err := u.Wait(connCtx)
		if err != nil {
			if cfg.onError != nil {
				cfg.onError(err)
			}
			return
		}
		fn(connCtx, conn)
	}()

	return res, nil
}

// HeaderHasToken reports whether the comma-separated header key contains
// token, compared case-insensitively.
func HeaderHasToken(h http.Header, key, token string) bool {
	for _, v := range h.Values(key) {
		for part := range strings.SplitSeq(v, ",") {
			if strings.EqualFold(strings.TrimSpace(part), token) {
				return true
			}
		}
	}

	return false
}
