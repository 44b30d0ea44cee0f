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

package router

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrPathConflict indicates that a pattern and method are already registered.
	ErrPathConflict = errors.New("router: path conflict")

	// ErrInvalidPath indicates that a pattern could not be parsed.
	ErrInvalidPath = errors.New("router: invalid path")

	// ErrEmptyPrefix indicates that a router was merged under an empty prefix.
	ErrEmptyPrefix = errors.New("router: empty prefix")

	// ErrNotFound matches RouteError values of kind NotFound.
	ErrNotFound = errors.New("router: not found")

	// ErrMethodNotAllowed matches RouteError values of kind MethodNotAllowed.
	ErrMethodNotAllowed = errors.New("router: method not allowed")
)

// RegistrationError describes a rejected route registration. It matches one
// of ErrPathConflict, ErrInvalidPath or ErrEmptyPrefix with errors.Is.
type RegistrationError struct {
	Kind    error
	Pattern string
	Method  string
	Reason  string
}

func (e *RegistrationError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Pattern != "" {
		fmt.Fprintf(&b, " %q", e.Pattern)
	}
	if e.Method != "" {
		b.WriteString(" for method ")
		b.WriteString(e.Method)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}

	return b.String()
}

func (e *RegistrationError) Unwrap() error { return e.Kind }

func invalidPath(pattern, reason string) error {
	return &RegistrationError{Kind: ErrInvalidPath, Pattern: pattern, Reason: reason}
}

func conflict(pattern, method, reason string) error {
	return &RegistrationError{Kind: ErrPathConflict, Pattern: pattern, Method: method, Reason: reason}
}

// Kind distinguishes routing failures.
type Kind uint8

const (
	// KindNotFound means no pattern matched the path.
	KindNotFound Kind = iota + 1
	// KindMethodNotAllowed means a pattern matched but not for the method.
	KindMethodNotAllowed
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindMethodNotAllowed:
		return "method not allowed"
	default:
		return "unknown"
	}
}

// RouteError is returned by a Router that cannot dispatch a request. It is
// an ordinary error value; web.DefaultErrorRenderer turns it into a 404 or
// a 405 with an Allow header.
type RouteError struct {
	Kind    Kind
	Method  string
	Path    string
	Allowed []string
	// Params holds the captures of the closest pattern, for diagnostics.
	Params  PathParams
	Request *http.Request
}

func (e *RouteError) Error() string {
	if e.Kind == KindMethodNotAllowed {
		return fmt.Sprintf("router: method %s not allowed for %s (allowed: %s)", e.Method, e.Path, strings.Join(e.Allowed, ", "))
	}

	return fmt.Sprintf("router: no route for %s %s", e.Method, e.Path)
}

// Is matches ErrNotFound and ErrMethodNotAllowed.
func (e *RouteError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrMethodNotAllowed:
		return e.Kind == KindMethodNotAllowed
	}

	return false
}

// HTTPStatus returns 404 or 405.
func (e *RouteError) HTTPStatus() int {
	if e.Kind == KindMethodNotAllowed {
		return http.StatusMethodNotAllowed
	}

	return http.StatusNotFound
}

// Headers returns the Allow header for method mismatches.
func (e *RouteError) Headers() http.Header {
	if e.Kind != KindMethodNotAllowed {
		return nil
	}

	return http.Header{"Allow": {strings.Join(e.Allowed, ", ")}}
}
