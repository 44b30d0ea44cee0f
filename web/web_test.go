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

package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestResponders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		res    *Response
		status int
		ctype  string
		body   string
	}{
		{name: "text", res: Text(http.StatusOK, "hi"), status: 200, ctype: ContentTypeText, body: "hi"},
		{name: "textf", res: Textf(http.StatusCreated, "id=%d", 7), status: 201, ctype: ContentTypeText, body: "id=7"},
		{name: "html", res: HTML(http.StatusOK, "<p>x</p>"), status: 200, ctype: ContentTypeHTML, body: "<p>x</p>"},
		{name: "blob", res: Blob(http.StatusOK, "image/png", []byte{1, 2}), status: 200, ctype: "image/png", body: "\x01\x02"},
		{name: "sniffed blob", res: Blob(http.StatusOK, "", []byte("%PDF-1.7")), status: 200, ctype: "application/pdf", body: "%PDF-1.7"},
		{name: "no content", res: NoContent(), status: 204},
		{name: "status", res: Status(http.StatusAccepted), status: 202},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.status, tt.res.StatusCode())
			assert.Equal(t, tt.ctype, tt.res.Header.Get("Content-Type"))
			body, err := tt.res.ReadBody(t.Context())
			require.NoError(t, err)
			assert.Equal(t, tt.body, string(body))
		})
	}
}

func TestJSON(t *testing.T) {
	t.Parallel()

	res, err := JSON(http.StatusOK, map[string]int{"n": 1})
	require.NoError(t, err)
	assert.Equal(t, ContentTypeJSON, res.Header.Get("Content-Type"))
	body, err := res.ReadBody(t.Context())
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":1}`, string(body))

	_, err = JSON(http.StatusOK, make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chan int")
}

func TestYAMLAndMsgPack(t *testing.T) {
	t.Parallel()

	res, err := YAML(http.StatusOK, map[string]string{"name": "relay"})
	require.NoError(t, err)
	body, err := res.ReadBody(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "name: relay\n", string(body))

	res, err = MsgPack(http.StatusOK, map[string]string{"name": "relay"})
	require.NoError(t, err)
	body, err = res.ReadBody(t.Context())
	require.NoError(t, err)

	var decoded map[string]string
	require.NoError(t, msgpack.Unmarshal(body, &decoded))
	assert.Equal(t, "relay", decoded["name"])
}

func TestRedirect(t *testing.T) {
	t.Parallel()

	res := Redirect(http.StatusFound, "/login")
	assert.Equal(t, http.StatusFound, res.Status)
	assert.Equal(t, "/login", res.Header.Get("Location"))
}

type closeRecorder struct {
	io.Reader
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

func TestReaderBody_Closes(t *testing.T) {
	t.Parallel()

	r := &closeRecorder{Reader: strings.NewReader("payload")}
	res := NewResponse(http.StatusOK, ReaderBody{R: r})

	body, err := res.ReadBody(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "payload", string(body))
	assert.True(t, r.closed)

	r = &closeRecorder{Reader: strings.NewReader("payload")}
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err = NewResponse(http.StatusOK, ReaderBody{R: r}).ReadBody(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, r.closed, "reader is closed on cancellation too")
}

func TestStream(t *testing.T) {
	t.Parallel()

	res := Stream(http.StatusOK, "text/plain", func(_ context.Context, w io.Writer) error {
		for i := range 3 {
			if _, err := fmt.Fprintf(w, "%d;", i); err != nil {
				return err
			}
		}
		return nil
	})

	s, ok := res.Body.(Streamer)
	require.True(t, ok)
	assert.True(t, s.Streaming())

	body, err := res.ReadBody(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "0;1;2;", string(body))
}

func TestExtensions(t *testing.T) {
	t.Parallel()

	type tenant string
	type user struct{ ID int }

	ctx := WithExtension(t.Context(), tenant("acme"))
	ctx = WithExtension(ctx, &user{ID: 7})

	got, ok := ExtensionFrom[tenant](ctx)
	require.True(t, ok)
	assert.Equal(t, tenant("acme"), got)

	u, ok := ExtensionFrom[*user](ctx)
	require.True(t, ok)
	assert.Equal(t, 7, u.ID)

	_, ok = ExtensionFrom[string](ctx)
	assert.False(t, ok, "values are keyed by exact type")
}

func TestWrapAndRespond(t *testing.T) {
	t.Parallel()

	base := Respond(Text(http.StatusOK, "ok"))
	h := Wrap(base, Around(func(ctx context.Context, r *http.Request, next Handler) (*Response, error) {
		res, err := next.Call(ctx, r)
		if err != nil {
			return nil, err
		}
		return res.WithHeader("X-Wrapped", "1"), nil
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	res, err := h.Call(req.Context(), req)
	require.NoError(t, err)
	assert.Equal(t, "1", res.Header.Get("X-Wrapped"))

	again, err := base.Call(req.Context(), req)
	require.NoError(t, err)
	assert.Empty(t, again.Header.Get("X-Wrapped"), "Respond hands out copies")
}

type teapotError struct{}

func (teapotError) Error() string        { return "short and stout" }
func (teapotError) HTTPStatus() int      { return http.StatusTeapot }
func (teapotError) Headers() http.Header { return http.Header{"X-Pot": {"1"}} }

type selfRendering struct{}

func (selfRendering) Error() string       { return "custom" }
func (selfRendering) Response() *Response { return Text(http.StatusPaymentRequired, "pay up") }

func TestDefaultErrorRenderer(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/pot", nil)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{name: "declared status", err: teapotError{}, wantStatus: http.StatusTeapot, wantDetail: "short and stout"},
		{name: "wrapped", err: fmt.Errorf("brew: %w", teapotError{}), wantStatus: http.StatusTeapot, wantDetail: "brew: short and stout"},
		{name: "unknown error is hidden", err: errors.New("secret"), wantStatus: http.StatusInternalServerError, wantDetail: "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := DefaultErrorRenderer(req, tt.err)
			assert.Equal(t, tt.wantStatus, res.Status)
			assert.Equal(t, "application/problem+json; charset=utf-8", res.Header.Get("Content-Type"))

			body, err := res.ReadBody(t.Context())
			require.NoError(t, err)
			var p map[string]any
			require.NoError(t, json.Unmarshal(body, &p))
			assert.Equal(t, tt.wantDetail, p["detail"])
			assert.Equal(t, "/pot", p["instance"])
		})
	}

	res := DefaultErrorRenderer(req, teapotError{})
	assert.Equal(t, "1", res.Header.Get("X-Pot"))

	res = DefaultErrorRenderer(req, fmt.Errorf("wrapped: %w", selfRendering{}))
	assert.Equal(t, http.StatusPaymentRequired, res.Status)
}
