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
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeError struct {
	msg     string
	code    string
	status  int
	details any
	headers http.Header
}

func (e *fakeError) Error() string { return e.msg }

type codedError struct{ *fakeError }

func (e codedError) Code() string { return e.code }

type statusedError struct{ *fakeError }

func (e statusedError) HTTPStatus() int { return e.status }

type detailedError struct{ *fakeError }

func (e detailedError) Details() any { return e.details }

type headerError struct{ *fakeError }

func (e headerError) HTTPStatus() int      { return e.status }
func (e headerError) Headers() http.Header { return e.headers }

func TestRFC9457_Format(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		formatter  *RFC9457
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "plain error",
			formatter:  NewRFC9457("https://api.example.com/problems"),
			err:        &fakeError{msg: "boom"},
			wantStatus: http.StatusInternalServerError,
			wantType:   "about:blank",
		},
		{
			name:       "code builds the type",
			formatter:  NewRFC9457("https://api.example.com/problems"),
			err:        codedError{&fakeError{msg: "bad", code: "invalid_input"}},
			wantStatus: http.StatusInternalServerError,
			wantType:   "https://api.example.com/problems/invalid_input",
		},
		{
			name:       "code without base URL",
			formatter:  NewRFC9457(""),
			err:        codedError{&fakeError{msg: "bad", code: "invalid_input"}},
			wantStatus: http.StatusInternalServerError,
			wantType:   "invalid_input",
		},
		{
			name:       "status through wrapping",
			formatter:  NewRFC9457(""),
			err:        fmt.Errorf("load: %w", statusedError{&fakeError{msg: "missing", status: http.StatusNotFound}}),
			wantStatus: http.StatusNotFound,
			wantType:   "about:blank",
		},
		{
			name: "resolvers win",
			formatter: &RFC9457{
				TypeResolver:   func(error) string { return "urn:custom" },
				StatusResolver: func(error) int { return http.StatusTeapot },
			},
			err:        statusedError{&fakeError{msg: "x", status: http.StatusNotFound}},
			wantStatus: http.StatusTeapot,
			wantType:   "urn:custom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/users/7?x=1", nil)
			res := tt.formatter.Format(req, tt.err)

			assert.Equal(t, tt.wantStatus, res.Status)
			assert.Equal(t, "application/problem+json; charset=utf-8", res.ContentType)

			p, ok := res.Body.(ProblemDetail)
			require.True(t, ok)
			assert.Equal(t, tt.wantType, p.Type)
			assert.Equal(t, http.StatusText(tt.wantStatus), p.Title)
			assert.Equal(t, "/users/7", p.Instance)
			assert.Equal(t, tt.err.Error(), p.Detail)
			assert.NotEmpty(t, p.Extensions["error_id"])
		})
	}
}

func TestRFC9457_Extensions(t *testing.T) {
	t.Parallel()

	f := &RFC9457{ErrorIDGenerator: func() string { return "id-1" }}
	err := detailedError{&fakeError{msg: "invalid", details: map[string]any{"name": "required"}}}

	res := f.Format(httptest.NewRequest(http.MethodPost, "/users", nil), err)
	data, mErr := json.Marshal(res.Body)
	require.NoError(t, mErr)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "id-1", got["error_id"])
	assert.Equal(t, map[string]any{"name": "required"}, got["errors"])
	assert.InDelta(t, 500, got["status"], 0)
}

func TestRFC9457_HideDetail(t *testing.T) {
	t.Parallel()

	f := &RFC9457{DisableErrorID: true, HideDetail: true}
	res := f.Format(httptest.NewRequest(http.MethodGet, "/", nil), &fakeError{msg: "db password rejected"})

	p := res.Body.(ProblemDetail)
	assert.Equal(t, "Internal Server Error", p.Detail)
	assert.NotContains(t, p.Extensions, "error_id")
}

func TestProblemDetail_ReservedMembers(t *testing.T) {
	t.Parallel()

	p := ProblemDetail{
		Type:   "about:blank",
		Title:  "Not Found",
		Status: 404,
		Extensions: map[string]any{
			"status": 200,
			"trace":  "abc",
		},
	}
	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"about:blank","title":"Not Found","status":404,"trace":"abc"}`, string(data))
}

func TestSimple_Format(t *testing.T) {
	t.Parallel()

	err := codedError{&fakeError{msg: "nope", code: "denied"}}
	res := NewSimple().Format(nil, WithStatus(err, http.StatusForbidden))

	assert.Equal(t, http.StatusForbidden, res.Status)
	assert.Equal(t, map[string]any{"error": "nope", "code": "denied"}, res.Body)
}

func TestHeadersOf(t *testing.T) {
	t.Parallel()

	inner := headerError{&fakeError{msg: "inner", status: 405, headers: http.Header{"Allow": {"GET"}, "X-A": {"1"}}}}
	outer := headerError{&fakeError{msg: "outer", status: 405, headers: http.Header{"X-A": {"2"}}}}
	wrapped := fmt.Errorf("wrap: %w", wrapErr{outer, inner})

	h := HeadersOf(wrapped)
	assert.Equal(t, "GET", h.Get("Allow"))
	assert.Equal(t, "2", h.Get("X-A"))

	assert.Nil(t, HeadersOf(&fakeError{msg: "plain"}))

	tests := []struct {
		name  string
		err   error
		allow string
		xa    string
	}{
		{name: "joined", err: errors.Join(&fakeError{msg: "plain"}, inner), allow: "GET", xa: "1"},
		{name: "joined under a wrap", err: fmt.Errorf("ctx: %w", errors.Join(outer, inner)), allow: "GET", xa: "2"},
		{name: "multiple %w", err: fmt.Errorf("%w and %w", inner, outer), allow: "GET", xa: "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := HeadersOf(tt.err)
			assert.Equal(t, tt.allow, h.Get("Allow"))
			assert.Equal(t, tt.xa, h.Get("X-A"))
		})
	}

	res := NewRFC9457("").Format(httptest.NewRequest(http.MethodPut, "/", nil), inner)
	assert.Equal(t, http.StatusMethodNotAllowed, res.Status)
	assert.Equal(t, "GET", res.Headers.Get("Allow"))
}

type wrapErr struct {
	headerError
	next error
}

func (w wrapErr) Unwrap() error { return w.next }

func TestWithStatus(t *testing.T) {
	t.Parallel()

	err := WithStatus(nil, http.StatusNoContent)
	assert.Equal(t, "No Content", err.Error())
	assert.Equal(t, http.StatusNoContent, StatusOf(err))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(&fakeError{msg: "x"}))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(WithStatus(nil, 0)))
}
