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

package cors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/relay/web"
)

type counter struct{ n int }

func (c *counter) handler() web.Handler {
	return web.HandlerFunc(func(context.Context, *http.Request) (*web.Response, error) {
		c.n++
		return web.Text(http.StatusOK, "ok").WithHeader("Vary", "Accept-Encoding"), nil
	})
}

func request(method, origin string, hdr map[string]string) *http.Request {
	req := httptest.NewRequest(method, "/api", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}

	return req
}

func TestSimpleRequest(t *testing.T) {
	t.Parallel()

	c := &counter{}
	h := web.Wrap(c.handler(), New(
		WithAllowedOrigins("https://example.com"),
		WithExposedHeaders("X-Request-Id"),
		WithAllowCredentials(true),
	))

	req := request(http.MethodGet, "https://example.com", nil)
	res, err := h.Call(req.Context(), req)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", res.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", res.Header.Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "X-Request-Id", res.Header.Get("Access-Control-Expose-Headers"))
	assert.Equal(t, []string{"Accept-Encoding", "Origin"}, res.Header.Values("Vary"))
	assert.Equal(t, 1, c.n)
}

func TestDisallowedOrigin(t *testing.T) {
	t.Parallel()

	c := &counter{}
	h := web.Wrap(c.handler(), New(WithAllowedOrigins("https://example.com")))

	req := request(http.MethodGet, "https://evil.test", nil)
	res, err := h.Call(req.Context(), req)
	require.NoError(t, err)
	assert.Empty(t, res.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusOK, res.StatusCode())

	req = request(http.MethodOptions, "https://evil.test", map[string]string{"Access-Control-Request-Method": "POST"})
	res, err = h.Call(req.Context(), req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, res.StatusCode())
	assert.Empty(t, res.Header.Get("Access-Control-Allow-Methods"))
	assert.Equal(t, 1, c.n)
}

func TestPreflight(t *testing.T) {
	t.Parallel()

	c := &counter{}
	h := web.Wrap(c.handler(), New(
		WithAllowedOrigins("https://*.example.com"),
		WithAllowedMethods("GET", "POST"),
		WithAllowedHeaders("Content-Type"),
		WithMaxAge(600),
	))

	req := request(http.MethodOptions, "https://app.example.com", map[string]string{
		"Access-Control-Request-Method":  "POST",
		"Access-Control-Request-Headers": "content-type",
	})
	res, err := h.Call(req.Context(), req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusNoContent, res.StatusCode())
	assert.Equal(t, "https://app.example.com", res.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST", res.Header.Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", res.Header.Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "600", res.Header.Get("Access-Control-Max-Age"))
	assert.Zero(t, c.n, "preflight must not reach the handler")
}

func TestPreflightPassthroughAndAnyHeader(t *testing.T) {
	t.Parallel()

	c := &counter{}
	h := web.Wrap(c.handler(), New(
		WithAllowAllOrigins(true),
		WithAllowedHeaders("*"),
		WithOptionsPassthrough(true),
	))

	req := request(http.MethodOptions, "https://any.test", map[string]string{
		"Access-Control-Request-Method":  "PUT",
		"Access-Control-Request-Headers": "x-custom",
	})
	res, err := h.Call(req.Context(), req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode())
	assert.Equal(t, "*", res.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "x-custom", res.Header.Get("Access-Control-Allow-Headers"))
	assert.Equal(t, 1, c.n)
}

func TestNoOriginPassesThrough(t *testing.T) {
	t.Parallel()

	c := &counter{}
	h := web.Wrap(c.handler(), New(WithAllowAllOrigins(true)))

	req := request(http.MethodGet, "", nil)
	res, err := h.Call(req.Context(), req)
	require.NoError(t, err)
	assert.Empty(t, res.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, []string{"Accept-Encoding"}, res.Header.Values("Vary"))
}

func TestMatchOrigin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pattern, origin string
		want            bool
	}{
		{"https://example.com", "https://example.com", true},
		{"https://example.com", "HTTPS://EXAMPLE.COM", true},
		{"https://example.com", "https://example.org", false},
		{"https://*.example.com", "https://a.example.com", true},
		{"https://*.example.com", "https://.example.com", false},
		{"https://*.example.com", "https://example.com", false},
		{"https://*.example.com", "http://a.example.com", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matchOrigin(tt.pattern, tt.origin), "%s vs %s", tt.pattern, tt.origin)
	}
}

func TestOriginFunc(t *testing.T) {
	t.Parallel()

	h := web.Wrap(web.Respond(web.Text(http.StatusOK, "ok")), New(
		WithAllowOriginFunc(func(o string) bool { return o == "https://dyn.test" }),
	))
	req := request(http.MethodGet, "https://dyn.test", nil)
	res, err := h.Call(req.Context(), req)
	require.NoError(t, err)
	assert.Equal(t, "https://dyn.test", res.Header.Get("Access-Control-Allow-Origin"))
}

func TestCredentialsWithAllOriginsPanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { New(WithAllowAllOrigins(true), WithAllowCredentials(true)) })
}
