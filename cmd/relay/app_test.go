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

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/relay/logging"
	"rivaas.dev/relay/server"
)

func newTestApp(t *testing.T) (*app, http.Handler) {
	t.Helper()

	_, s, err := loadSettings(t.Context(), "")
	require.NoError(t, err)
	s.Admins = map[string]string{"admin": "secret"}
	s.Debug.Pprof = true

	a, err := newApp(*s, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.close(context.Background()) })

	r, err := a.routes()
	require.NoError(t, err)

	return a, server.Handler(a.handler(r))
}

func do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	req.RemoteAddr = "192.0.2.1:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func TestEndpoints(t *testing.T) {
	t.Parallel()
	_, h := newTestApp(t)

	tests := []struct {
		name    string
		req     func() *http.Request
		status  int
		body    string
		headers map[string]string
	}{
		{
			name:   "hello",
			req:    func() *http.Request { return httptest.NewRequest(http.MethodGet, "/hello/bob", nil) },
			status: http.StatusOK,
			body:   "hello, bob\n",
			headers: map[string]string{
				"X-Frame-Options": "SAMEORIGIN",
				"Content-Type":    "text/plain; charset=utf-8",
			},
		},
		{
			name:    "trailing slash redirects",
			req:     func() *http.Request { return httptest.NewRequest(http.MethodGet, "/hello/bob/", nil) },
			status:  http.StatusPermanentRedirect,
			headers: map[string]string{"Location": "/hello/bob"},
		},
		{
			name:   "unknown path",
			req:    func() *http.Request { return httptest.NewRequest(http.MethodGet, "/nope", nil) },
			status: http.StatusNotFound,
		},
		{
			name:   "wrong method",
			req:    func() *http.Request { return httptest.NewRequest(http.MethodDelete, "/hello/bob", nil) },
			status: http.StatusMethodNotAllowed,
		},
		{
			name:   "liveness",
			req:    func() *http.Request { return httptest.NewRequest(http.MethodGet, "/healthz", nil) },
			status: http.StatusOK,
			body:   "ok",
		},
		{
			name:   "readiness",
			req:    func() *http.Request { return httptest.NewRequest(http.MethodGet, "/readyz", nil) },
			status: http.StatusNoContent,
		},
		{
			name: "info as yaml",
			req: func() *http.Request {
				req := httptest.NewRequest(http.MethodGet, "/api/info", nil)
				req.Header.Set("Accept", "application/yaml")
				return req
			},
			status:  http.StatusOK,
			headers: map[string]string{"Content-Type": "application/x-yaml; charset=utf-8"},
		},
		{
			name: "info as msgpack",
			req: func() *http.Request {
				req := httptest.NewRequest(http.MethodGet, "/api/info", nil)
				req.Header.Set("Accept", "application/msgpack")
				return req
			},
			status:  http.StatusOK,
			headers: map[string]string{"Content-Type": "application/msgpack"},
		},
		{
			name:   "websocket without upgrade",
			req:    func() *http.Request { return httptest.NewRequest(http.MethodGet, "/ws", nil) },
			status: http.StatusUpgradeRequired,
		},
		{
			name:   "admin without credentials",
			req:    func() *http.Request { return httptest.NewRequest(http.MethodGet, "/admin/stats", nil) },
			status: http.StatusUnauthorized,
		},
		{
			name: "admin with credentials",
			req: func() *http.Request {
				req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
				req.SetBasicAuth("admin", "secret")
				return req
			},
			status: http.StatusOK,
		},
		{
			name:   "pprof needs credentials",
			req:    func() *http.Request { return httptest.NewRequest(http.MethodGet, "/debug/pprof/cmdline", nil) },
			status: http.StatusUnauthorized,
		},
		{
			name:   "negative event count",
			req:    func() *http.Request { return httptest.NewRequest(http.MethodGet, "/events?count=-1", nil) },
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := do(h, tt.req())

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
			for k, v := range tt.headers {
				assert.Equal(t, v, rec.Header().Get(k), k)
			}
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		})
	}
}

func TestEcho(t *testing.T) {
	t.Parallel()
	_, h := newTestApp(t)

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/echo", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Request-ID", "req-1")
		return do(h, req)
	}

	rec := post(`{"message":"hi"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got echoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "hi", got.Message)
	assert.NotEmpty(t, got.RequestID)

	rec = post(`{"message":""}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")

	rec = post(`{"message":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpload(t *testing.T) {
	t.Parallel()
	_, h := newTestApp(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("label", "docs"))
	for _, name := range []string{"a.txt", "b.txt"} {
		part, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("content of " + name))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := do(h, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got struct {
		Label string     `json:"label"`
		Files []uploaded `json:"files"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "docs", got.Label)
	assert.Equal(t, []uploaded{
		{Name: "a.txt", Size: int64(len("content of a.txt")), ContentType: "application/octet-stream"},
		{Name: "b.txt", Size: int64(len("content of b.txt")), ContentType: "application/octet-stream"},
	}, got.Files)

	req = httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusUnsupportedMediaType, do(h, req).Code)
}

func TestStaticDir(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "site.css"), []byte("body{color:red}"), 0o644))

	_, s, err := loadSettings(t.Context(), "")
	require.NoError(t, err)
	s.Static.Dir = root

	a, err := newApp(*s, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.close(context.Background()) })
	r, err := a.routes()
	require.NoError(t, err)
	h := server.Handler(a.handler(r))

	rec := do(h, httptest.NewRequest(http.MethodGet, "/static/site.css", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "body{color:red}", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")

	req := httptest.NewRequest(http.MethodGet, "/static/site.css", nil)
	req.Header.Set("Range", "bytes=0-3")
	rec = do(h, req)
	assert.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, "body", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/static/site.css", nil)
	req.Header.Set("If-Modified-Since", rec.Header().Get("Last-Modified"))
	assert.Equal(t, http.StatusNotModified, do(h, req).Code)

	assert.Equal(t, http.StatusNotFound, do(h, httptest.NewRequest(http.MethodGet, "/static/missing.css", nil)).Code)
}

func TestEvents(t *testing.T) {
	t.Parallel()
	_, h := newTestApp(t)

	rec := do(h, httptest.NewRequest(http.MethodGet, "/events?count=2&every=10ms", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Equal(t, 2, strings.Count(body, "event: tick\n"), body)
	assert.Contains(t, body, "id: 0\n")
	assert.Contains(t, body, "id: 1\n")
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	_, h := newTestApp(t)

	do(h, httptest.NewRequest(http.MethodGet, "/hello/ann", nil))
	rec := do(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.NotEmpty(t, rec.Body.String())
}

func TestRenderRoutes(t *testing.T) {
	t.Parallel()
	a, _ := newTestApp(t)
	r, err := a.routes()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, renderRoutes(&buf, r))

	out := buf.String()
	for _, want := range []string{"METHODS", "PATTERN", "/hello/{name}", "/api/echo", "/admin/stats", "/healthz", "POST"} {
		assert.Contains(t, out, want)
	}
}

func TestLoadSettingsFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "relay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
service:
  name: edge
  environment: staging
server:
  addr: ":9000"
  shutdownTimeout: 5s
ratelimit:
  rps: 10
cors:
  origins: https://a.example,https://b.example
`), 0o600))

	_, s, err := loadSettings(t.Context(), path)
	require.NoError(t, err)

	assert.Equal(t, "edge", s.Service.Name)
	assert.Equal(t, ":9000", s.Server.Addr)
	assert.Equal(t, "5s", s.Server.ShutdownTimeout.String())
	assert.InDelta(t, 10.0, s.RateLimit.RPS, 0)
	assert.Equal(t, 100, s.RateLimit.Burst)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, s.CORS.Origins)
	assert.Equal(t, "noop", s.Tracing.Provider)
}

func TestLoadSettingsInvalid(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "relay.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"service":{"environment":"moon"}}`), 0o600))

	_, _, err := loadSettings(t.Context(), path)
	require.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	for _, format := range []string{"console", "json", "text"} {
		var buf bytes.Buffer
		l, err := newLogger("warn", format, &buf)
		require.NoError(t, err, format)
		require.NoError(t, applyLevel(l, "debug"))
		assert.Equal(t, "DEBUG", l.Level().String())
	}

	_, err := newLogger("info", "xml", &bytes.Buffer{})
	require.Error(t, err)
	_, err = newLogger("loud", "json", &bytes.Buffer{})
	require.Error(t, err)
}
