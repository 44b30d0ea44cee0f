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

package errors

import (
	"errors"
	"net/http"
)

// Formatter converts an error into the parts of an HTTP response.
type Formatter interface {
	Format(req *http.Request, err error) Response
}

// Response is a formatted error response. Body is encoded by the caller
// according to ContentType.
type Response struct {
	Status      int
	ContentType string
	Body        any
	Headers     http.Header
}

// ErrorType lets an error declare its HTTP status code.
//
//	func (e *NotFoundError) HTTPStatus() int { return http.StatusNotFound }
type ErrorType interface {
	error
	HTTPStatus() int
}

// ErrorDetails lets an error expose structured details, such as field-level
// validation failures.
type ErrorDetails interface {
	error
	Details() any
}

// ErrorCode lets an error expose a machine-readable code.
type ErrorCode interface {
	error
	Code() string
}

// ErrorHeaders lets an error contribute response headers, for example
// Allow on 405 Method Not Allowed or Retry-After on 503.
type ErrorHeaders interface {
	error
	Headers() http.Header
}

// NewRFC9457 creates an RFC 9457 formatter. baseURL is prepended to error
// codes to build problem type URIs.
func NewRFC9457(baseURL string) *RFC9457 {
	return &RFC9457{BaseURL: baseURL}
}

// NewSimple creates a Simple formatter.
func NewSimple() *Simple {
	return &Simple{}
}

// WithStatus wraps err with an explicit HTTP status code. A nil err is
// allowed; its message becomes the status text.
//
//	return nil, errors.WithStatus(err, http.StatusConflict)
func WithStatus(err error, status int) error {
	return &statusError{err: err, status: status}
}

type statusError struct {
	err    error
	status int
}

func (e *statusError) Error() string {
	if e.err == nil {
		return http.StatusText(e.status)
	}
	return e.err.Error()
}

func (e *statusError) Unwrap() error   { return e.err }
func (e *statusError) HTTPStatus() int { return e.status }

// StatusOf returns the status declared by err or one of the errors it
// wraps, and 500 otherwise.
func StatusOf(err error) int {
	if typed, ok := as[ErrorType](err); ok {
		if s := typed.HTTPStatus(); s >= 100 && s <= 999 {
			return s
		}
	}

	return http.StatusInternalServerError
}

// HeadersOf collects headers declared by err and the errors it wraps,
// including every branch of an errors.Join. The walk is depth first, and
// the first error visited wins when two declare the same key.
func HeadersOf(err error) http.Header {
	var out http.Header
	walk(err, func(e error) {
		h, ok := e.(ErrorHeaders)
		if !ok {
			return
		}
		for k, v := range h.Headers() {
			if out == nil {
				out = make(http.Header)
			}
			if _, exists := out[k]; !exists {
				out[k] = append([]string(nil), v...)
			}
		}
	})

	return out
}

// walk visits err and everything it wraps in the order errors.As does.
func walk(err error, visit func(error)) {
	for err != nil {
		visit(err)
		switch u := err.(type) {
		case interface{ Unwrap() error }:
			err = u.Unwrap()
		case interface{ Unwrap() []error }:
			for _, e := range u.Unwrap() {
				walk(e, visit)
			}
			return
		default:
			return
		}
	}
}

// as is errors.As for an interface target.
func as[T any](err error) (T, bool) {
	var target T
	ok := errors.As(err, &target)

	return target, ok
}
