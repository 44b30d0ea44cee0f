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

package catch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/relay/router"
	"rivaas.dev/relay/web"
)

func TestNewRendersProblem(t *testing.T) {
	t.Parallel()

	r := router.New().Route("/users", router.Get(web.Respond(web.NoContent())))
	req := httptest.NewRequest(http.MethodPost, "/users", nil)
	res, err := web.Wrap(r, New(nil)).Call(req.Context(), req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, res.Status)
	assert.Equal(t, "GET", res.Header.Get("Allow"))
	assert.Equal(t, "application/problem+json; charset=utf-8", res.Header.Get("Content-Type"))
}

func TestFunc(t *testing.T) {
	t.Parallel()

	failing := web.HandlerFunc(func(context.Context, *http.Request) (*web.Response, error) {
		return nil, errors.New("boom")
	})
	mw := Func(func(_ context.Context, _ *http.Request, err error) (*web.Response, error) {
		if err.Error() == "boom" {
			return web.Text(http.StatusTeapot, "caught"), nil
		}
		return nil, err
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	res, err := web.Wrap(failing, mw).Call(req.Context(), req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, res.Status)

	res, err = web.Wrap(web.Respond(web.NoContent()), mw).Call(req.Context(), req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, res.Status)
}
