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

// Package bodylimit caps the size of request bodies.
//
// A declared Content-Length over the limit is rejected before the
// handler runs. Bodies of unknown length are wrapped so that reading
// past the limit fails with *http.MaxBytesError, which the extract
// package reports as 413.
package bodylimit

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"rivaas.dev/relay/web"
)

// DefaultMaxSize is used when New is given no WithMaxSize.
const DefaultMaxSize = 2 << 20

// Error reports a declared body length over the limit.
type Error struct {
	Limit  int64
	Length int64
}

func (e *Error) Error() string {
	return fmt.Sprintf("bodylimit: body of %d bytes exceeds limit of %d", e.Length, e.Limit)
}

// HTTPStatus returns 413.
func (e *Error) HTTPStatus() int { return http.StatusRequestEntityTooLarge }

// Option configures the middleware.
type Option func(*config)

type config struct {
	max     int64
	skip    []string
	handler func(ctx context.Context, r *http.Request, err *Error) (*web.Response, error)
}

// WithMaxSize sets the limit in bytes.
func WithMaxSize(n int64) Option {
	return func(c *config) { c.max = n }
}

// WithSkipPaths exempts exact paths, such as upload endpoints with their
// own limit.
func WithSkipPaths(paths ...string) Option {
	return func(c *config) { c.skip = append(c.skip, paths...) }
}

// WithErrorHandler answers oversized requests with a custom response.
func WithErrorHandler(h func(ctx context.Context, r *http.Request, err *Error) (*web.Response, error)) Option {
	return func(c *config) { c.handler = h }
}

// New returns the middleware. It panics on a non-positive limit.
func New(opts ...Option) web.Middleware {
	cfg := &config{max: DefaultMaxSize}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.max <= 0 {
		panic("bodylimit: max size must be positive")
	}

	return web.Around(func(ctx context.Context, r *http.Request, next web.Handler) (*web.Response, error) {
		if r.Body == nil || r.Body == http.NoBody || slices.Contains(cfg.skip, r.URL.Path) {
			return next.Call(ctx, r)
		}
		if r.ContentLength > cfg.max {
			err := &Error{Limit: cfg.max, Length: r.ContentLength}
			if cfg.handler != nil {
				return cfg.handler(ctx, r, err)
			}
			return nil, err
		}

		r2 := r.Clone(ctx)
		r2.Body = http.MaxBytesReader(nil, r.Body, cfg.max)

		return next.Call(ctx, r2)
	})
}
