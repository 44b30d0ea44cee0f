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

package static

import (
	"errors"
	"io/fs"
	"net/http"
)

var (
	// ErrNotFound indicates a missing file or a rejected path.
	ErrNotFound = errors.New("static: file not found")

	// ErrPermissionDenied indicates a file the process may not read.
	ErrPermissionDenied = errors.New("static: permission denied")

	// ErrOpenFailed indicates any other failure to open or stat a file.
	ErrOpenFailed = errors.New("static: open failed")
)

// Error is a file serving failure.
type Error struct {
	Kind error
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Path != "" {
		msg += " " + e.Path
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

// HTTPStatus maps the kind to 404, 403 or 500.
func (e *Error) HTTPStatus() int {
	switch {
	case errors.Is(e.Kind, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(e.Kind, ErrPermissionDenied):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func openError(name string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &Error{Kind: ErrNotFound, Path: name}
	case errors.Is(err, fs.ErrPermission):
		return &Error{Kind: ErrPermissionDenied, Path: name, Err: err}
	default:
		return &Error{Kind: ErrOpenFailed, Path: name, Err: err}
	}
}
