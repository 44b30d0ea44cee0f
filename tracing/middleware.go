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

package tracing

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	rerrors "rivaas.dev/relay/errors"
	"rivaas.dev/relay/router"
	"rivaas.dev/relay/web"
)

// MiddlewareOption configures Middleware.
type MiddlewareOption func(*middlewareConfig)

type middlewareConfig struct {
	excludePaths    []string
	excludePrefixes []string
	headers         []string
}

// WithExcludePaths skips exact paths such as "/healthz".
func WithExcludePaths(paths ...string) MiddlewareOption {
	return func(c *middlewareConfig) { c.excludePaths = append(c.excludePaths, paths...) }
}

// WithExcludePrefixes skips paths under the given prefixes.
func WithExcludePrefixes(prefixes ...string) MiddlewareOption {
	return func(c *middlewareConfig) { c.excludePrefixes = append(c.excludePrefixes, prefixes...) }
}

// WithHeaders records the named request headers as
// http.request.header.<name> attributes. Authorization and Cookie are
// never recorded.
func WithHeaders(names ...string) MiddlewareOption {
	return func(c *middlewareConfig) {
		for _, n := range names {
			switch http.CanonicalHeaderKey(n) {
			case "Authorization", "Cookie", "Set-Cookie", "Proxy-Authorization":
				continue
			}
			c.headers = append(c.headers, http.CanonicalHeaderKey(n))
		}
	}
}

func (c *middlewareConfig) excluded(path string) bool {
	if slices.Contains(c.excludePaths, path) {
		return true
	}

	return slices.ContainsFunc(c.excludePrefixes, func(p string) bool { return strings.HasPrefix(path, p) })
}

// Middleware starts a server span per request, continuing any trace the
// client propagated. The span is renamed to "METHOD pattern" once the
// router has matched; unmatched requests keep the bare method as name.
// Errors and 5xx responses mark the span as failed.
func Middleware(t *Tracer, opts ...MiddlewareOption) web.Middleware {
	cfg := &middlewareConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	return web.Around(func(ctx context.Context, r *http.Request, next web.Handler) (*web.Response, error) {
		if cfg.excluded(r.URL.Path) {
			return next.Call(ctx, r)
		}

		ctx = t.propagator.Extract(ctx, propagation.HeaderCarrier(r.Header))
		ctx, span := t.tracer.Start(ctx, r.Method,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(requestAttributes(r, cfg.headers)...),
		)
		defer span.End()

		ctx, pattern := router.TrackPattern(ctx)
		res, err := next.Call(ctx, r.WithContext(ctx))

		if route := pattern(); route != "" {
			span.SetName(r.Method + " " + route)
			span.SetAttributes(attribute.String("http.route", route))
		}

		status := res.StatusCode()
		if err != nil {
			status = rerrors.StatusOf(err)
			span.RecordError(err)
		}
		span.SetAttributes(attribute.Int("http.response.status_code", status))
		if err != nil || status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}

		return res, err
	})
}

func requestAttributes(r *http.Request, headers []string) []attribute.KeyValue {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	attrs := []attribute.KeyValue{
		attribute.String("http.request.method", r.Method),
		attribute.String("url.path", r.URL.Path),
		attribute.String("url.scheme", scheme),
		attribute.String("server.address", r.Host),
		attribute.String("network.protocol.version", strings.TrimPrefix(r.Proto, "HTTP/")),
	}
	if r.URL.RawQuery != "" {
		attrs = append(attrs, attribute.String("url.query", r.URL.RawQuery))
	}
	if ua := r.UserAgent(); ua != "" {
		attrs = append(attrs, attribute.String("user_agent.original", ua))
	}
	if r.RemoteAddr != "" {
		attrs = append(attrs, attribute.String("client.address", r.RemoteAddr))
	}
	for _, h := range headers {
		if v := r.Header.Values(h); len(v) > 0 {
			attrs = append(attrs, attribute.StringSlice("http.request.header."+strings.ToLower(h), v))
		}
	}

	return attrs
}

// TraceID returns the hex trace id of the span in ctx, or "" when ctx
// carries no valid span.
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}

	return sc.TraceID().String()
}
