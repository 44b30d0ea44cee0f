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

package validation

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
)

// ErrValidation matches every validation failure with errors.Is.
var ErrValidation = errors.New("validation")

// FieldError is a single failed rule.
type FieldError struct {
	Path    string         `json:"path"`           // dotted field path, e.g. "items.2.price"
	Code    string         `json:"code"`           // stable code, e.g. "tag.required"
	Message string         `json:"message"`        // human-readable message
	Meta    map[string]any `json:"meta,omitempty"` // tag, param, schema location
}

func (e FieldError) Error() string {
	if e.Path == "" {
		return e.Message
	}

	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Error collects the field errors of one validation run. It renders as
// 422 Unprocessable Entity with the fields as problem details.
type Error struct {
	Fields []FieldError `json:"errors"`
}

func (v *Error) Error() string {
	switch len(v.Fields) {
	case 0:
		return "validation failed"
	case 1:
		return v.Fields[0].Error()
	}

	msgs := make([]string, 0, len(v.Fields))
	for _, f := range v.Fields {
		msgs = append(msgs, f.Error())
	}

	return "validation failed: " + strings.Join(msgs, "; ")
}

func (v *Error) Unwrap() error { return ErrValidation }

// HTTPStatus returns 422.
func (v *Error) HTTPStatus() int { return http.StatusUnprocessableEntity }

// Details returns the field errors.
func (v *Error) Details() any { return v.Fields }

// Code returns "validation_error".
func (v *Error) Code() string { return "validation_error" }

// Add appends a field error.
func (v *Error) Add(path, code, message string, meta map[string]any) {
	v.Fields = append(v.Fields, FieldError{Path: path, Code: code, Message: message, Meta: meta})
}

// Has reports whether path has an error.
func (v *Error) Has(path string) bool {
	return slices.ContainsFunc(v.Fields, func(f FieldError) bool { return f.Path == path })
}

// HasCode reports whether any field failed with code.
func (v *Error) HasCode(code string) bool {
	return slices.ContainsFunc(v.Fields, func(f FieldError) bool { return f.Code == code })
}

func (v *Error) sort() {
	slices.SortStableFunc(v.Fields, func(a, b FieldError) int {
		if c := strings.Compare(a.Path, b.Path); c != 0 {
			return c
		}

		return strings.Compare(a.Code, b.Code)
	})
}
