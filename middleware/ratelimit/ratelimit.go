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

package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"slices"
	"strconv"
	"time"

	"rivaas.dev/relay/web"
)

// Error reports a rejected request.
type Error struct {
	Key        string
	Limit      int
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	return fmt.Sprintf("ratelimit: limit of %d exceeded, retry in %s", e.Limit, e.RetryAfter)
}

// HTTPStatus returns 429.
func (e *Error) HTTPStatus() int { return http.StatusTooManyRequests }

// Headers carries Retry-After in whole seconds, rounded up.
func (e *Error) Headers() http.Header {
	secs := max(int(math.Ceil(e.RetryAfter.Seconds())), 1)
	return http.Header{
		"Retry-After":           {strconv.Itoa(secs)},
		"X-Ratelimit-Limit":     {strconv.Itoa(e.Limit)},
		"X-Ratelimit-Remaining": {"0"},
	}
}

// Option configures the middleware.
type Option func(*config)

type config struct {
	rps     float64
	burst   int
	window  time.Duration
	maxKeys int
	store   Store
	keyFunc func(r *http.Request) string
	skip    []string
	logger  *slog.Logger
	handler func(ctx context.Context, r *http.Request, err *Error) (*web.Response, error)
	now     func() time.Time
}

// WithRequestsPerSecond sets the refill rate. Default 10.
func WithRequestsPerSecond(rps float64) Option {
	return func(c *config) { c.rps = rps }
}

// WithBurst sets the bucket size. Default 20.
func WithBurst(n int) Option {
	return func(c *config) { c.burst = n }
}

// WithSlidingWindow allows limit requests per window instead of a token
// bucket.
func WithSlidingWindow(limit int, window time.Duration) Option {
	return func(c *config) {
		c.burst = limit
		c.window = window
	}
}

// WithMaxKeys bounds the number of tracked clients.
func WithMaxKeys(n int) Option {
	return func(c *config) { c.maxKeys = n }
}

// WithStore replaces the built-in store.
func WithStore(s Store) Option {
	return func(c *config) { c.store = s }
}

// WithKeyFunc derives the limit key from the request. Requests whose
// key is empty are not limited.
func WithKeyFunc(fn func(r *http.Request) string) Option {
	return func(c *config) { c.keyFunc = fn }
}

// WithSkipPaths exempts exact paths.
func WithSkipPaths(paths ...string) Option {
	return func(c *config) { c.skip = append(c.skip, paths...) }
}

// WithLogger logs rejections at WARN.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithHandler answers rejections with a custom response.
func WithHandler(h func(ctx context.Context, r *http.Request, err *Error) (*web.Response, error)) Option {
	return func(c *config) { c.handler = h }
}

// ClientIP is the default key: the host part of RemoteAddr.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}

// New returns the middleware. It panics if the built-in store cannot be
// created from the options.
func New(opts ...Option) web.Middleware {
	cfg := &config{rps: 10, burst: 20, keyFunc: ClientIP, now: time.Now}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.store == nil {
		var err error
		if cfg.window > 0 {
			cfg.store, err = NewSlidingWindowStore(cfg.burst, cfg.window, cfg.maxKeys)
		} else {
			cfg.store, err = NewTokenBucketStore(cfg.rps, cfg.burst, cfg.maxKeys)
		}
		if err != nil {
			panic(fmt.Sprintf("ratelimit: %v", err))
		}
	}

	return web.Around(func(ctx context.Context, r *http.Request, next web.Handler) (*web.Response, error) {
		if slices.Contains(cfg.skip, r.URL.Path) {
			return next.Call(ctx, r)
		}
		key := cfg.keyFunc(r)
		if key == "" {
			return next.Call(ctx, r)
		}

		now := cfg.now()
		d, err := cfg.store.Take(ctx, key, now)
		if err != nil {
			return nil, fmt.Errorf("ratelimit: %w", err)
		}
		if !d.Allowed {
			rerr := &Error{Key: key, Limit: d.Limit, RetryAfter: d.Reset.Sub(now)}
			if cfg.logger != nil {
				cfg.logger.WarnContext(ctx, "rate limit exceeded",
					"key", key, "path", r.URL.Path, "retry_after", rerr.RetryAfter)
			}
			if cfg.handler != nil {
				return cfg.handler(ctx, r, rerr)
			}
			return nil, rerr
		}

		res, err := next.Call(ctx, r)
		if err != nil || res == nil {
			return res, err
		}
		res.WithHeader("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		res.WithHeader("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		res.WithHeader("X-RateLimit-Reset", strconv.FormatInt(d.Reset.Unix(), 10))

		return res, nil
	})
}
