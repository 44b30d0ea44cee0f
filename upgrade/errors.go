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
	"errors"
	"fmt"
	"net/http"
	"reflect"
)

var (
	// ErrUnsupported indicates that the request does not ask for the
	// protocol, or asks for it in a way the protocol rejects.
	ErrUnsupported = errors.New("upgrade: protocol not supported")

	// ErrHandshake indicates that the handshake response could not be computed.
	ErrHandshake = errors.New("upgrade: handshake failed")

	// ErrNotUpgradable indicates that the transport cannot hand the
	// connection over, or that it was already claimed.
	ErrNotUpgradable = errors.New("upgrade: connection not upgradable")

	// ErrTypeMismatch indicates a downcast to a type other than the one the
	// connection was created with.
	ErrTypeMismatch = errors.New("upgrade: connection type mismatch")

	// ErrAlreadyTaken indicates that an upgraded connection was already
	// claimed by a downcast.
	ErrAlreadyTaken = errors.New("upgrade: connection already taken")

	// ErrAlreadyUpgraded indicates a second attempt to complete one upgrade.
	ErrAlreadyUpgraded = errors.New("upgrade: already upgraded")
)

// Error is a negotiation or handshake failure. It carries the HTTP status
// to answer with.
type Error struct {
	Kind     error
	Protocol string
	Reason   string
	// Missing reports that the request did not ask for an upgrade at all;
	// the response then is 426 Upgrade Required.
	Missing bool
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s (%s)", e.Kind, e.Protocol)
	}

	return fmt.Sprintf("%s (%s): %s", e.Kind, e.Protocol, e.Reason)
}

func (e *Error) Unwrap() error { return e.Kind }

// HTTPStatus maps the failure to a status code.
func (e *Error) HTTPStatus() int {
	switch {
	case e.Missing:
		return http.StatusUpgradeRequired
	case errors.Is(e.Kind, ErrNotUpgradable):
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// Headers advertises the protocol on 426 responses.
func (e *Error) Headers() http.Header {
	if !e.Missing {
		return nil
	}

	return http.Header{"Upgrade": {e.Protocol}, "Connection": {"Upgrade"}}
}

// Unsupported returns an ErrUnsupported failure for proto.
func Unsupported(proto, reason string) error {
	return &Error{Kind: ErrUnsupported, Protocol: proto, Reason: reason}
}

// DowncastError reports a downcast to the wrong type.
type DowncastError struct {
	Want reflect.Type
	Have reflect.Type
}

func (e *DowncastError) Error() string {
	return fmt.Sprintf("%s: want %v, connection is %v", ErrTypeMismatch, e.Want, e.Have)
}

func (e *DowncastError) Unwrap() error { return ErrTypeMismatch }
