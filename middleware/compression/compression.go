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

package compression

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"rivaas.dev/relay/web"
)

// Encoding names as used in Accept-Encoding.
const (
	Brotli  = "br"
	Zstd    = "zstd"
	Gzip    = "gzip"
	Deflate = "deflate"
)

// DefaultContentTypes are compressed unless WithContentTypes replaces
// them. Entries ending in "/" match a whole top-level type.
var DefaultContentTypes = []string{
	"text/",
	"application/json",
	"application/problem+json",
	"application/javascript",
	"application/xml",
	"application/xhtml+xml",
	"application/x-yaml",
	"application/wasm",
	"image/svg+xml",
}

type encoder interface {
	io.WriteCloser
	Reset(w io.Writer)
}

// Option configures the middleware.
type Option func(*config)

type config struct {
	minSize      int
	order        []string
	levels       map[string]int
	contentTypes []string
	excludeTypes []string
	excludePaths []string
	excludeExts  []string
	pools        map[string]*sync.Pool
}

func defaultConfig() *config {
	return &config{
		minSize: 1024,
		order:   []string{Brotli, Zstd, Gzip, Deflate},
		levels: map[string]int{
			Brotli:  brotli.DefaultCompression,
			Zstd:    int(zstd.SpeedDefault),
			Gzip:    gzip.DefaultCompression,
			Deflate: flate.DefaultCompression,
		},
		contentTypes: DefaultContentTypes,
	}
}

// WithGzipLevel sets the gzip level, from gzip.BestSpeed to
// gzip.BestCompression.
func WithGzipLevel(level int) Option {
	return func(c *config) { c.levels[Gzip] = level }
}

// WithBrotliLevel sets the brotli quality, 0 to 11.
func WithBrotliLevel(level int) Option {
	return func(c *config) { c.levels[Brotli] = level }
}

// WithZstdLevel sets the zstd speed, as a zstd.EncoderLevel.
func WithZstdLevel(level zstd.EncoderLevel) Option {
	return func(c *config) { c.levels[Zstd] = int(level) }
}

// WithEncodings sets the offered encodings in server preference order.
// Unknown names are ignored.
func WithEncodings(names ...string) Option {
	return func(c *config) {
		c.order = slices.DeleteFunc(slices.Clone(names), func(n string) bool {
			_, ok := c.levels[n]
			return !ok
		})
	}
}

// WithBrotliDisabled stops offering brotli.
func WithBrotliDisabled() Option {
	return func(c *config) { c.order = slices.DeleteFunc(c.order, func(n string) bool { return n == Brotli }) }
}

// WithGzipDisabled stops offering gzip.
func WithGzipDisabled() Option {
	return func(c *config) { c.order = slices.DeleteFunc(c.order, func(n string) bool { return n == Gzip }) }
}

// WithMinSize sets the smallest body, in bytes, worth compressing.
func WithMinSize(n int) Option {
	return func(c *config) { c.minSize = n }
}

// WithContentTypes replaces the compressible content types.
func WithContentTypes(types ...string) Option {
	return func(c *config) { c.contentTypes = types }
}

// WithExcludeContentTypes removes content types from compression, even
// when they would otherwise match.
func WithExcludeContentTypes(types ...string) Option {
	return func(c *config) { c.excludeTypes = append(c.excludeTypes, types...) }
}

// WithExcludePaths skips exact request paths.
func WithExcludePaths(paths ...string) Option {
	return func(c *config) { c.excludePaths = append(c.excludePaths, paths...) }
}

// WithExcludeExtensions skips request paths with the given extensions,
// such as ".png".
func WithExcludeExtensions(exts ...string) Option {
	return func(c *config) { c.excludeExts = append(c.excludeExts, exts...) }
}

// New returns the middleware. It panics if an encoder cannot be built
// with the configured level.
func New(opts ...Option) web.Middleware {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	cfg.pools = make(map[string]*sync.Pool, len(cfg.order))
	for _, name := range cfg.order {
		level := cfg.levels[name]
		first, err := newEncoder(name, level)
		if err != nil {
			panic("compression: " + name + ": " + err.Error())
		}
		p := &sync.Pool{New: func() any {
			e, _ := newEncoder(name, level)
			return e
		}}
		p.Put(first)
		cfg.pools[name] = p
	}

	return web.Around(func(ctx context.Context, r *http.Request, next web.Handler) (*web.Response, error) {
		res, err := next.Call(ctx, r)
		if err != nil || res == nil || res.Body == nil {
			return res, err
		}
		if r.Method == http.MethodHead || cfg.skipPath(r.URL.Path) {
			return res, nil
		}

		name := negotiate(r.Header.Get("Accept-Encoding"), cfg.order)
		if name == "" || !cfg.compressible(res) {
			return res, nil
		}

		res.Header.Set("Content-Encoding", name)
		res.Header.Add("Vary", "Accept-Encoding")
		res.Header.Del("Content-Length")
		if etag := res.Header.Get("ETag"); etag != "" && !strings.HasPrefix(etag, "W/") {
			res.Header.Set("ETag", "W/"+etag)
		}
		res.Body = &compressedBody{inner: res.Body, pool: cfg.pools[name]}

		return res, nil
	})
}

func newEncoder(name string, level int) (encoder, error) {
	switch name {
	case Brotli:
		return brotli.NewWriterLevel(io.Discard, level), nil
	case Zstd:
		return zstd.NewWriter(io.Discard,
			zstd.WithEncoderLevel(zstd.EncoderLevel(level)),
			zstd.WithEncoderConcurrency(1))
	case Gzip:
		return gzip.NewWriterLevel(io.Discard, level)
	case Deflate:
		return flate.NewWriter(io.Discard, level)
	default:
		return nil, fmt.Errorf("unknown encoding %q", name)
	}
}

func (c *config) skipPath(p string) bool {
	if slices.Contains(c.excludePaths, p) {
		return true
	}
	ext := path.Ext(p)

	return ext != "" && slices.ContainsFunc(c.excludeExts, func(e string) bool { return strings.EqualFold(e, ext) })
}

func (c *config) compressible(res *web.Response) bool {
	status := res.StatusCode()
	if status < http.StatusOK || status == http.StatusNoContent || status == http.StatusNotModified {
		return false
	}
	if res.Header == nil || res.Header.Get("Content-Encoding") != "" || res.Header.Get("Content-Range") != "" {
		return false
	}
	if s, ok := res.Body.(web.Streamer); ok && s.Streaming() {
		return false
	}
	if b, ok := res.Body.(web.Bytes); ok && len(b) < c.minSize {
		return false
	}

	mt, _, err := mime.ParseMediaType(res.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	if slices.Contains(c.excludeTypes, mt) {
		return false
	}

	return slices.ContainsFunc(c.contentTypes, func(t string) bool {
		if strings.HasSuffix(t, "/") {
			return strings.HasPrefix(mt, t)
		}
		return mt == t
	})
}

// negotiate picks the encoding with the highest q value, breaking ties
// by server preference. "*" stands for any offered encoding the client
// did not name.
func negotiate(accept string, offered []string) string {
	if accept == "" {
		return ""
	}

	q := make(map[string]float64)
	for part := range strings.SplitSeq(accept, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		name = strings.ToLower(strings.TrimSpace(name))
		weight := 1.0
		if v, ok := strings.CutPrefix(strings.TrimSpace(params), "q="); ok {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				weight = f
			}
		}
		if name != "" {
			q[name] = weight
		}
	}

	best, bestQ := "", 0.0
	for _, name := range offered {
		w, ok := q[name]
		if !ok {
			w, ok = q["*"]
		}
		if ok && w > bestQ {
			best, bestQ = name, w
		}
	}

	return best
}

type compressedBody struct {
	inner web.Body
	pool  *sync.Pool
}

func (b *compressedBody) Render(ctx context.Context, w io.Writer) error {
	e := b.pool.Get().(encoder)
	e.Reset(w)
	defer func() {
		e.Reset(io.Discard)
		b.pool.Put(e)
	}()

	if err := b.inner.Render(ctx, e); err != nil {
		_ = e.Close()
		return err
	}

	return e.Close()
}
