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

package bodylimit

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rerrors "rivaas.dev/relay/errors"
	"rivaas.dev/relay/extract"
	"rivaas.dev/relay/web"
)

var echo = web.HandlerFunc(func(_ context.Context, r *http.Request) (*web.Response, error) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	return web.Text(http.StatusOK, string(data)), nil
})

func TestDeclaredLengthRejected(t *testing.T) {
	t.Parallel()

	called := false
	h := web.Wrap(web.HandlerFunc(func(context.Context, *http.Request) (*web.Response, error) {
		called = true
		return web.NoContent(), nil
	}), New(WithMaxSize(4)))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("too long"))
	_, err := h.Call(req.Context(), req)

	var berr *Error
	require.True(t, errors.As(err, &berr))
	assert.Equal(t, int64(8), berr.Length)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rerrors.StatusOf(err))
	assert.False(t, called)
}

func TestUnknownLengthCappedWhileReading(t *testing.T) {
	t.Parallel()

	h := web.Wrap(echo, New(WithMaxSize(4)))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("too long"))
	req.ContentLength = -1
	_, err := h.Call(req.Context(), req)

	var mbe *http.MaxBytesError
	require.True(t, errors.As(err, &mbe))
	assert.Equal(t, int64(4), mbe.Limit)
}

func TestExtractorReports413(t *testing.T) {
	t.Parallel()

	h := web.Wrap(extract.Handle(extract.Bytes(), func(_ context.Context, _ *http.Request, b []byte) (*web.Response, error) {
		return web.Blob(http.StatusOK, "application/octet-stream", b), nil
	}), New(WithMaxSize(4)))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("too long"))
	req.ContentLength = -1
	_, err := h.Call(req.Context(), req)
	require.ErrorIs(t, err, extract.ErrBodyTooLarge)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rerrors.StatusOf(err))
}

func TestWithinLimitAndSkip(t *testing.T) {
	t.Parallel()

	h := web.Wrap(echo, New(WithMaxSize(4), WithSkipPaths("/upload")))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("ok"))
	res, err := h.Call(req.Context(), req)
	require.NoError(t, err)
	body, _ := res.ReadBody(t.Context())
	assert.Equal(t, "ok", string(body))

	req = httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("a long upload"))
	res, err = h.Call(req.Context(), req)
	require.NoError(t, err)
	body, _ = res.ReadBody(t.Context())
	assert.Equal(t, "a long upload", string(body))
}

func TestErrorHandler(t *testing.T) {
	t.Parallel()

	h := web.Wrap(echo, New(WithMaxSize(1), WithErrorHandler(func(_ context.Context, _ *http.Request, err *Error) (*web.Response, error) {
		return web.Textf(http.StatusRequestEntityTooLarge, "limit %d", err.Limit), nil
	})))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("xx"))
	res, err := h.Call(req.Context(), req)
	require.NoError(t, err)
	body, _ := res.ReadBody(t.Context())
	assert.Equal(t, "limit 1", string(body))
}

func TestInvalidLimitPanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { New(WithMaxSize(0)) })
}
