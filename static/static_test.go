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
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rerrors "rivaas.dev/relay/errors"
	"rivaas.dev/relay/router"
	"rivaas.dev/relay/web"
)

var modified = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"app.css":         {Data: []byte("body{}"), ModTime: modified},
		"digits.txt":      {Data: []byte("0123456789"), ModTime: modified},
		"docs/index.html": {Data: []byte("<p>docs</p>"), ModTime: modified},
		"empty/keep.txt":  {Data: []byte("x"), ModTime: modified},
		"logo":            {Data: []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), ModTime: modified},
		"undated.txt":     {Data: []byte("old")},
	}
}

func get(t *testing.T, h web.Handler, method, target string, header http.Header) (*web.Response, string, error) {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	res, err := h.Call(req.Context(), req)
	if err != nil {
		return nil, "", err
	}
	body, err := res.ReadBody(req.Context())
	require.NoError(t, err)

	return res, string(body), nil
}

func TestFS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		target      string
		opts        []Option
		status      int
		body        string
		contentType string
	}{
		{name: "file", target: "/app.css", status: http.StatusOK, body: "body{}", contentType: "text/css"},
		{name: "directory index", target: "/docs/", status: http.StatusOK, body: "<p>docs</p>", contentType: "text/html"},
		{name: "directory without slash", target: "/docs", status: http.StatusOK, body: "<p>docs</p>", contentType: "text/html"},
		{name: "sniffed type", target: "/logo", status: http.StatusOK, contentType: "image/png"},
		{name: "missing", target: "/nope.css", status: http.StatusNotFound},
		{name: "directory without index", target: "/empty/", status: http.StatusNotFound},
		{name: "index disabled", target: "/docs/", opts: []Option{WithIndex("")}, status: http.StatusNotFound},
		{name: "parent segment", target: "/docs/../app.css", status: http.StatusNotFound},
		{name: "dotted segment", target: "/..app.css", status: http.StatusNotFound},
		{name: "backslash", target: "/docs%5Cindex.html", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, body, err := get(t, FS(testFS(), tt.opts...), http.MethodGet, tt.target, nil)
			if tt.status != http.StatusOK {
				require.ErrorIs(t, err, ErrNotFound)
				assert.Equal(t, tt.status, rerrors.StatusOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.status, res.StatusCode())
			if tt.body != "" {
				assert.Equal(t, tt.body, body)
			}
			assert.Contains(t, res.Header.Get("Content-Type"), tt.contentType)
			assert.Equal(t, "bytes", res.Header.Get("Accept-Ranges"))
			assert.Equal(t, "Sat, 01 Mar 2025 12:00:00 GMT", res.Header.Get("Last-Modified"))
		})
	}
}

func TestRanges(t *testing.T) {
	t.Parallel()

	lastModified := modified.Format(http.TimeFormat)

	tests := []struct {
		name         string
		header       http.Header
		status       int
		body         string
		contentRange string
	}{
		{name: "bounded", header: http.Header{"Range": {"bytes=2-4"}}, status: http.StatusPartialContent, body: "234", contentRange: "bytes 2-4/10"},
		{name: "open ended", header: http.Header{"Range": {"bytes=7-"}}, status: http.StatusPartialContent, body: "789", contentRange: "bytes 7-9/10"},
		{name: "suffix", header: http.Header{"Range": {"bytes=-3"}}, status: http.StatusPartialContent, body: "789", contentRange: "bytes 7-9/10"},
		{name: "past the end", header: http.Header{"Range": {"bytes=5-100"}}, status: http.StatusPartialContent, body: "56789", contentRange: "bytes 5-9/10"},
		{name: "first of several", header: http.Header{"Range": {"bytes=1-2, 5-6"}}, status: http.StatusPartialContent, body: "12", contentRange: "bytes 1-2/10"},
		{name: "whole file", header: http.Header{"Range": {"bytes=0-9"}}, status: http.StatusOK, body: "0123456789"},
		{name: "other unit", header: http.Header{"Range": {"items=1-2"}}, status: http.StatusOK, body: "0123456789"},
		{name: "reversed", header: http.Header{"Range": {"bytes=4-2"}}, status: http.StatusOK, body: "0123456789"},
		{name: "start beyond size", header: http.Header{"Range": {"bytes=20-"}}, status: http.StatusRequestedRangeNotSatisfiable, contentRange: "bytes */10"},
		{name: "empty suffix", header: http.Header{"Range": {"bytes=-0"}}, status: http.StatusRequestedRangeNotSatisfiable, contentRange: "bytes */10"},
		{name: "if-range matches", header: http.Header{"Range": {"bytes=2-4"}, "If-Range": {lastModified}}, status: http.StatusPartialContent, body: "234", contentRange: "bytes 2-4/10"},
		{name: "if-range stale", header: http.Header{"Range": {"bytes=2-4"}, "If-Range": {modified.Add(-time.Hour).Format(http.TimeFormat)}}, status: http.StatusOK, body: "0123456789"},
		{name: "if-range entity tag", header: http.Header{"Range": {"bytes=2-4"}, "If-Range": {`"v1"`}}, status: http.StatusOK, body: "0123456789"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, body, err := get(t, FS(testFS()), http.MethodGet, "/digits.txt", tt.header)
			require.NoError(t, err)
			assert.Equal(t, tt.status, res.StatusCode())
			assert.Equal(t, tt.body, body)
			assert.Equal(t, tt.contentRange, res.Header.Get("Content-Range"))
			if tt.status != http.StatusRequestedRangeNotSatisfiable {
				assert.Equal(t, strconv.Itoa(len(tt.body)), res.Header.Get("Content-Length"))
			}
		})
	}
}

func TestConditionals(t *testing.T) {
	t.Parallel()

	at := func(d time.Duration) []string { return []string{modified.Add(d).Format(http.TimeFormat)} }

	tests := []struct {
		name   string
		method string
		target string
		header http.Header
		status int
	}{
		{name: "not modified", target: "/app.css", header: http.Header{"If-Modified-Since": at(0)}, status: http.StatusNotModified},
		{name: "modified since", target: "/app.css", header: http.Header{"If-Modified-Since": at(-time.Minute)}, status: http.StatusOK},
		{name: "modified since ignored for post", method: http.MethodPost, target: "/app.css", header: http.Header{"If-Modified-Since": at(0)}, status: http.StatusOK},
		{name: "unmodified since", target: "/app.css", header: http.Header{"If-Unmodified-Since": at(time.Minute)}, status: http.StatusOK},
		{name: "changed after", target: "/app.css", header: http.Header{"If-Unmodified-Since": at(-time.Minute)}, status: http.StatusPreconditionFailed},
		{name: "unknown age fails unmodified since", target: "/undated.txt", header: http.Header{"If-Unmodified-Since": at(0)}, status: http.StatusPreconditionFailed},
		{name: "unknown age is always modified", target: "/undated.txt", header: http.Header{"If-Modified-Since": at(0)}, status: http.StatusOK},
		{name: "unparsable date", target: "/app.css", header: http.Header{"If-Modified-Since": {"yesterday"}}, status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			res, body, err := get(t, FS(testFS()), method, tt.target, tt.header)
			require.NoError(t, err)
			assert.Equal(t, tt.status, res.StatusCode())
			if tt.status != http.StatusOK {
				assert.Empty(t, body)
			}
			if tt.status == http.StatusNotModified {
				assert.Equal(t, "Sat, 01 Mar 2025 12:00:00 GMT", res.Header.Get("Last-Modified"))
			}
		})
	}
}

func TestOnDisk(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "robots.txt"), []byte("User-agent: *"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "css"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "css", "site.css"), []byte("a{}"), 0o644))

	r := router.New().
		Route("/robots.txt", File(filepath.Join(root, "robots.txt"))).
		Scope("/assets", Dir(root)).
		Route("/files/{*rest}", Dir(root, WithParam("rest")))

	tests := []struct {
		target string
		body   string
	}{
		{target: "/robots.txt", body: "User-agent: *"},
		{target: "/assets/css/site.css", body: "a{}"},
		{target: "/files/css/site.css", body: "a{}"},
		{target: "/files/robots.txt", body: "User-agent: *"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			t.Parallel()

			res, body, err := get(t, r, http.MethodGet, tt.target, nil)
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, res.StatusCode())
			assert.Equal(t, tt.body, body)
		})
	}

	_, _, err := get(t, r, http.MethodGet, "/assets/css/missing.css", nil)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRenderAfterRemoval(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	file := filepath.Join(root, "gone.txt")
	require.NoError(t, os.WriteFile(file, []byte("soon gone"), 0o644))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	res, err := File(file).Call(req.Context(), req)
	require.NoError(t, err)
	require.NoError(t, os.Remove(file))

	_, err = res.ReadBody(req.Context())
	require.ErrorIs(t, err, ErrNotFound)
}
