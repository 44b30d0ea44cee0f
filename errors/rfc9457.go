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
	"encoding/json"
	"maps"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// RFC9457 formats errors as RFC 9457 problem details
// (application/problem+json).
type RFC9457 struct {
	// BaseURL is prepended to error codes to form problem type URIs.
	BaseURL string

	// TypeResolver overrides how problem types are chosen.
	TypeResolver func(err error) string

	// StatusResolver overrides how status codes are chosen.
	StatusResolver func(err error) int

	// ErrorIDGenerator generates the error_id extension. Defaults to UUIDv4.
	ErrorIDGenerator func() string

	// DisableErrorID removes the error_id extension.
	DisableErrorID bool

	// HideDetail replaces the error message with the status text for 5xx
	// responses, so internal failures do not leak.
	HideDetail bool
}

// ProblemDetail is an RFC 9457 problem detail. Extensions are marshalled
// inline next to the standard members.
type ProblemDetail struct {
	Type       string         `json:"type"`
	Title      string         `json:"title"`
	Status     int            `json:"status"`
	Detail     string         `json:"detail,omitempty"`
	Instance   string         `json:"instance,omitempty"`
	Extensions map[string]any `json:"-"`
}

// standardMembers are the RFC 9457 members an extension may not replace.
var standardMembers = []string{"type", "title", "status", "detail", "instance"}

// MarshalJSON writes the standard members and the extensions as one object.
func (p ProblemDetail) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Extensions)+len(standardMembers))
	maps.Copy(out, p.Extensions)
	for _, k := range standardMembers {
		delete(out, k)
	}

	out["type"], out["title"], out["status"] = p.Type, p.Title, p.Status
	if p.Detail != "" {
		out["detail"] = p.Detail
	}
	if p.Instance != "" {
		out["instance"] = p.Instance
	}

	return json.Marshal(out)
}

// Format implements Formatter.
func (f *RFC9457) Format(req *http.Request, err error) Response {
	status := StatusOf(err)
	if f.StatusResolver != nil {
		status = f.StatusResolver(err)
	}

	p := ProblemDetail{
		Type:       f.typeOf(err),
		Title:      http.StatusText(status),
		Status:     status,
		Detail:     err.Error(),
		Extensions: f.extensions(err),
	}
	if f.HideDetail && status >= http.StatusInternalServerError {
		p.Detail = p.Title
	}
	if req != nil && req.URL != nil {
		p.Instance = req.URL.Path
	}

	return Response{
		Status:      status,
		ContentType: "application/problem+json; charset=utf-8",
		Body:        p,
		Headers:     HeadersOf(err),
	}
}

func (f *RFC9457) extensions(err error) map[string]any {
	ext := make(map[string]any, 3)
	if !f.DisableErrorID {
		id := uuid.NewString
		if f.ErrorIDGenerator != nil {
			id = f.ErrorIDGenerator
		}
		ext["error_id"] = id()
	}

	if d, ok := as[ErrorDetails](err); ok {
		ext["errors"] = d.Details()
	}
	if c, ok := as[ErrorCode](err); ok {
		ext["code"] = c.Code()
	}

	return ext
}

func (f *RFC9457) typeOf(err error) string {
	if f.TypeResolver != nil {
		return f.TypeResolver(err)
	}

	c, ok := as[ErrorCode](err)
	switch {
	case !ok:
		return "about:blank"
	case f.BaseURL == "":
		return c.Code()
	default:
		return strings.TrimSuffix(f.BaseURL, "/") + "/" + c.Code()
	}
}
