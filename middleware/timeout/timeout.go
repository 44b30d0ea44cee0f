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

// Package timeout bounds how long a handler may take to produce its
// response.
//
// When the deadline passes the handler's context is cancelled and a 503
// is returned at once, whether or not the handler has noticed. Streamed
// bodies are not covered: the deadline ends when the response head is
// ready.
package timeout

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"time"

	"rivaas.dev/relay/web"
)

// Error reports an expired deadline.
type Error struct {
	Timeout time.Duration
}

func (e *Error) Error() string {
	return fmt.Sprintf("timeout: no response within %s", e.Timeout)
}

// Unwrap returns context.DeadlineExceeded.
func (e *Error) Unwrap() error { return context.DeadlineExceeded }

// HTTPStatus returns 503.
func (e *Error) HTTPStatus() int { return http.StatusServiceUnavailable }

// Option configures the middleware.
type Option func(*config)

type config struct {
	skip    []string
	handler func(ctx context.Context, r *http.Request, err *Error) (*web.Response, error)
}

// WithSkipPaths exempts exact paths, such as long-polling endpoints.
func WithSkipPaths(paths ...string) Option {
	return func(c *config) { c.skip = append(c.skip, paths...) }
}

// WithHandler answers timeouts with a custom response.
func WithHandler(h func(ctx context.Context, r *http.Request, err *Error) (*web.Response, error)) Option {
	return func(c *config) { c.handler = h }
}

type result struct {
	res   *web.Response
	err   error
	panic any
}

// New returns the middleware. A non-positive d disables it.
func New(d time.Duration, opts ...Option) web.Middleware {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	if d <= 0 {
		return web.Around(func(ctx context.Context, r *http.Request, next web.Handler) (*web.Response, error) {
			return next.Call(ctx, r)
		})
	}

	return web.Around(func(ctx context.Context, r *http.Request, next web.Handler) (*web.Response, error) {
		if slices.Contains(cfg.skip, r.URL.Path) {
			return next.Call(ctx, r)
		}

		tctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		done := make(chan result, 1)
		go func() {
			defer func() {
				if p := recover(); p != nil {
					done <- result{panic: p}
				}
			}()
			res, err := next.Call(tctx, r.WithContext(tctx))
			done <- result{res: res, err: err}
		}()

		select {
		case out := <-done:
			if out.panic != nil {
				panic(out.panic)
			}
			if out.err == nil || tctx.Err() == nil || ctx.Err() != nil {
				return out.res, out.err
			}
		case <-tctx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
		}

		terr := &Error{Timeout: d}
		if cfg.handler != nil {
			return cfg.handler(ctx, r, terr)
		}

		return nil, terr
	})
}
