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

package metrics

import (
	"context"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	rerrors "rivaas.dev/relay/errors"
	"rivaas.dev/relay/router"
	"rivaas.dev/relay/web"
)

// MiddlewareOption configures Middleware.
type MiddlewareOption func(*middlewareConfig)

type middlewareConfig struct {
	excludePaths    []string
	excludePrefixes []string
}

// WithExcludePaths skips exact paths such as "/metrics".
func WithExcludePaths(paths ...string) MiddlewareOption {
	return func(c *middlewareConfig) { c.excludePaths = append(c.excludePaths, paths...) }
}

// WithExcludePrefixes skips paths under the given prefixes.
func WithExcludePrefixes(prefixes ...string) MiddlewareOption {
	return func(c *middlewareConfig) { c.excludePrefixes = append(c.excludePrefixes, prefixes...) }
}

func (c *middlewareConfig) excluded(path string) bool {
	if slices.Contains(c.excludePaths, path) {
		return true
	}

	return slices.ContainsFunc(c.excludePrefixes, func(p string) bool { return strings.HasPrefix(path, p) })
}

// Middleware records request count, duration, in-flight requests and
// errors, labelled by method, route pattern and status. Requests no
// route matched are labelled with the route "unmatched" so paths never
// become label values.
func Middleware(rec *Recorder, opts ...MiddlewareOption) web.Middleware {
	cfg := &middlewareConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	return web.Around(func(ctx context.Context, r *http.Request, next web.Handler) (*web.Response, error) {
		if cfg.excluded(r.URL.Path) {
			return next.Call(ctx, r)
		}

		method := attribute.String("http.request.method", r.Method)
		inflight := metric.WithAttributes(append(rec.serviceAttrs, method)...)
		rec.active.Add(ctx, 1, inflight)
		defer rec.active.Add(ctx, -1, inflight)

		start := time.Now()
		ctx, pattern := router.TrackPattern(ctx)
		res, err := next.Call(ctx, r.WithContext(ctx))

		status := http.StatusOK
		switch {
		case err != nil:
			status = rerrors.StatusOf(err)
		case res != nil:
			status = res.StatusCode()
		}
		route := pattern()
		if route == "" {
			route = "unmatched"
		}

		attrs := metric.WithAttributes(append(slices.Clone(rec.serviceAttrs),
			method,
			attribute.String("http.route", route),
			attribute.String("http.response.status_code", strconv.Itoa(status)),
		)...)
		rec.requests.Add(ctx, 1, attrs)
		rec.duration.Record(ctx, time.Since(start).Seconds(), attrs)
		if err != nil {
			rec.errors.Add(ctx, 1, attrs)
		}

		return res, err
	})
}
