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

package recovery

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rerrors "rivaas.dev/relay/errors"
	"rivaas.dev/relay/web"
)

func panics(v any) web.Handler {
	return web.HandlerFunc(func(context.Context, *http.Request) (*web.Response, error) {
		panic(v)
	})
}

func call(h web.Handler, mws ...web.Middleware) (*web.Response, error) {
	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	return web.Wrap(h, mws...).Call(req.Context(), req)
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecoversPanic(t *testing.T) {
	t.Parallel()

	res, err := call(panics("test panic"), New(WithLogger(quiet())))
	assert.Nil(t, res)

	var p *PanicError
	require.ErrorAs(t, err, &p)
	assert.Equal(t, "test panic", p.Value)
	assert.Contains(t, string(p.Stack), "goroutine")
	assert.Equal(t, http.StatusInternalServerError, rerrors.StatusOf(err))
}

func TestNoPanic(t *testing.T) {
	t.Parallel()

	res, err := call(web.Respond(web.Text(http.StatusOK, "ok")), New(WithoutLogging()))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode())
}

func TestPanicWithError(t *testing.T) {
	t.Parallel()

	cause := errors.New("disk on fire")
	_, err := call(panics(cause), New(WithoutLogging(), WithStackTrace(false)))
	require.ErrorIs(t, err, cause)

	var p *PanicError
	require.ErrorAs(t, err, &p)
	assert.Empty(t, p.Stack)
}

func TestCustomHandler(t *testing.T) {
	t.Parallel()

	mw := New(WithoutLogging(), WithHandler(func(_ context.Context, _ *http.Request, p *PanicError) (*web.Response, error) {
		return web.Textf(http.StatusServiceUnavailable, "recovered %v", p.Value), nil
	}))
	res, err := call(panics("boom"), mw)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, res.Status)
}

func TestLogsPanic(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	_, err := call(panics("logged"), New(WithLogger(logger), WithPrettyStack(false), WithStackSize(256)))
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, `"msg":"panic recovered"`)
	assert.Contains(t, out, `"panic":"logged"`)
	assert.Contains(t, out, `"path":"/panic"`)
	assert.Contains(t, out, `"stack":`)
}
