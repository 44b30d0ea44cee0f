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

package extract

import (
	"errors"
	"fmt"
	"net/http"
)

// Source names where a value is extracted from.
type Source int

// Sources.
const (
	SourceUnknown Source = iota
	SourcePath
	SourceQuery
	SourceForm
	SourceHeader
	SourceBody
	SourceExtension
)

func (s Source) String() string {
	switch s {
	case SourcePath:
		return "path"
	case SourceQuery:
		return "query"
	case SourceForm:
		return "form"
	case SourceHeader:
		return "header"
	case SourceBody:
		return "body"
	case SourceExtension:
		return "extension"
	default:
		return "unknown"
	}
}

var (
	// ErrMissing indicates that a required value is absent.
	ErrMissing = errors.New("extract: missing value")

	// ErrInvalid indicates a value that cannot be decoded into its target.
	ErrInvalid = errors.New("extract: invalid value")

	// ErrUnsupportedMediaType indicates a body in an unexpected format.
	ErrUnsupportedMediaType = errors.New("extract: unsupported media type")

	// ErrBodyTooLarge indicates a body over the size limit.
	ErrBodyTooLarge = errors.New("extract: body too large")
)

// Error is an extraction failure.
type Error struct {
	Kind   error
	Source Source
	Name   string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Name != "" {
		msg += fmt.Sprintf(" %s %q", e.Source, e.Name)
	} else if e.Source != SourceUnknown {
		msg += " (" + e.Source.String() + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

// Unwrap exposes the kind and the cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}

	return []error{e.Kind, e.Err}
}

// HTTPStatus maps the kind to a status code.
func (e *Error) HTTPStatus() int {
	switch {
	case errors.Is(e.Kind, ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType
	case errors.Is(e.Kind, ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	case e.Source == SourceExtension:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func missing(src Source, name string) error {
	return &Error{Kind: ErrMissing, Source: src, Name: name}
}

func invalid(src Source, name string, err error) error {
	return &Error{Kind: ErrInvalid, Source: src, Name: name, Err: err}
}
