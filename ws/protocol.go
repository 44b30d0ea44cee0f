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
	"crypto/sha1" //nolint:gosec // RFC 6455 mandates SHA-1 for the accept key
	"encoding/base64"
	"net/http"
	"slices"
	"strings"

	"rivaas.dev/relay/upgrade"
)

// Name is the Upgrade token of the protocol.
const Name = "websocket"

const acceptGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// Protocol negotiates RFC 6455 WebSocket connections. The zero value
// accepts any origin and no subprotocols.
type Protocol struct {
	// Subprotocols lists the supported subprotocols in order of preference.
	Subprotocols []string
	// CheckOrigin rejects the handshake when it returns false.
	CheckOrigin func(r *http.Request) bool
}

var _ upgrade.Protocol = (*Protocol)(nil)

// Name returns "websocket".
func (p *Protocol) Name() string { return Name }

// Negotiate checks the method, the version and the key.
func (p *Protocol) Negotiate(r *http.Request) error {
	if r.Method != http.MethodGet {
		return upgrade.Unsupported(Name, "method must be GET")
	}
	if v := r.Header.Get("Sec-WebSocket-Version"); v != "13" {
		return upgrade.Unsupported(Name, "unsupported version "+quote(v))
	}
	key := r.Header.Get("Sec-WebSocket-Key")
	if raw, err := base64.StdEncoding.DecodeString(key); err != nil || len(raw) != 16 {
		return upgrade.Unsupported(Name, "invalid Sec-WebSocket-Key")
	}
	if p.CheckOrigin != nil && !p.CheckOrigin(r) {
		return upgrade.Unsupported(Name, "origin not allowed")
	}

	return nil
}

// Handshake returns Sec-WebSocket-Accept and the selected subprotocol.
func (p *Protocol) Handshake(r *http.Request) (http.Header, error) {
	h := http.Header{}
	h.Set("Sec-WebSocket-Accept", AcceptKey(r.Header.Get("Sec-WebSocket-Key")))
	if sub := p.selectSubprotocol(r); sub != "" {
		h.Set("Sec-WebSocket-Protocol", sub)
	}

	return h, nil
}

func (p *Protocol) selectSubprotocol(r *http.Request) string {
	var offered []string
	for _, v := range r.Header.Values("Sec-WebSocket-Protocol") {
		for part := range strings.SplitSeq(v, ",") {
			offered = append(offered, strings.TrimSpace(part))
		}
	}
	for _, s := range p.Subprotocols {
		if slices.Contains(offered, s) {
			return s
		}
	}

	return ""
}

// AcceptKey computes the Sec-WebSocket-Accept value for a client key.
func AcceptKey(key string) string {
	sum := sha1.Sum([]byte(key + acceptGUID)) //nolint:gosec // see import
	return base64.StdEncoding.EncodeToString(sum[:])
}

func quote(s string) string {
	if s == "" {
		return "(none)"
	}

	return `"` + s + `"`
}
