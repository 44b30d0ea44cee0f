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

// Package trailingslash canonicalizes trailing slashes.
//
// Routes treat "/users" and "/users/" as different paths. This
// middleware picks one form and redirects the other to it, or rewrites
// the request in place so a single route serves both:
//
//	h := web.Wrap(routes, trailingslash.New(trailingslash.WithPolicy(trailingslash.PolicyRemove)))
//
// The root path "/" is never changed.
package trailingslash

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"rivaas.dev/relay/web"
)

// Policy selects the canonical form.
type Policy int

const (
	// PolicyRemove redirects "/a/" to "/a".
	PolicyRemove Policy = iota
	// PolicyAdd redirects "/a" to "/a/".
	PolicyAdd
	// PolicyStrip rewrites "/a/" to "/a" without a redirect.
	PolicyStrip
	// PolicyIgnore passes every request through.
	PolicyIgnore
)

// Option configures the middleware.
type Option func(*config)

type config struct {
	policy Policy
	code   int
	skip   []string
}

// WithPolicy sets the policy. Default PolicyRemove.
func WithPolicy(p Policy) Option {
	return func(c *config) { c.policy = p }
}

// WithRedirectCode sets the redirect status. Default 308, which keeps the
// method and body.
func WithRedirectCode(code int) Option {
	return func(c *config) { c.code = code }
}

// WithSkipPaths exempts exact paths.
func WithSkipPaths(paths ...string) Option {
	return func(c *config) { c.skip = append(c.skip, paths...) }
}

// New returns the middleware.
func New(opts ...Option) web.Middleware {
	cfg := &config{policy: PolicyRemove, code: http.StatusPermanentRedirect}
	for _, opt := range opts {
		opt(cfg)
	}

	return web.Around(func(ctx context.Context, r *http.Request, next web.Handler) (*web.Response, error) {
		path := r.URL.Path
		if cfg.policy == PolicyIgnore || path == "/" || path == "" || slices.Contains(cfg.skip, path) {
			return next.Call(ctx, r)
		}

		slash := strings.HasSuffix(path, "/")
		switch {
		case cfg.policy == PolicyRemove && slash:
			return redirect(r, strings.TrimRight(path, "/"), cfg.code), nil
		case cfg.policy == PolicyAdd && !slash:
			return redirect(r, path+"/", cfg.code), nil
		case cfg.policy == PolicyStrip && slash:
			r2 := r.Clone(ctx)
			r2.URL.Path = strings.TrimRight(path, "/")
			if r2.URL.Path == "" {
				r2.URL.Path = "/"
			}
			r2.URL.RawPath = ""
			return next.Call(ctx, r2)
		}

		return next.Call(ctx, r)
	})
}

func redirect(r *http.Request, path string, code int) *web.Response {
	if path == "" {
		path = "/"
	}
	// A leading "//" would be read as a scheme-relative URL.
	path = "/" + strings.TrimLeft(path, "/")
	u := *r.URL
	u.Scheme, u.Host, u.User = "", "", nil
	u.Path, u.RawPath = path, ""

	return web.Redirect(code, u.RequestURI())
}
