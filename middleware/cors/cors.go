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
	"slices"
	"strconv"
	"strings"

	"rivaas.dev/relay/web"
)

// Option configures the middleware.
type Option func(*config)

type config struct {
	allowedOrigins     []string
	allowAllOrigins    bool
	allowOriginFunc    func(origin string) bool
	allowedMethods     []string
	allowedHeaders     []string
	exposedHeaders     []string
	allowCredentials   bool
	maxAge             int
	optionsPassthrough bool
}

func defaultConfig() *config {
	return &config{
		allowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch,
			http.MethodDelete, http.MethodHead, http.MethodOptions,
		},
		allowedHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		maxAge:         3600,
	}
}

// WithAllowedOrigins lists allowed origins. An entry may hold one "*"
// wildcard, as in "https://*.example.com".
func WithAllowedOrigins(origins ...string) Option {
	return func(c *config) {
		c.allowedOrigins = origins
		c.allowAllOrigins = false
	}
}

// WithAllowAllOrigins answers every origin with "*".
func WithAllowAllOrigins(allow bool) Option {
	return func(c *config) { c.allowAllOrigins = allow }
}

// WithAllowOriginFunc decides dynamically. It is consulted after the
// static list.
func WithAllowOriginFunc(fn func(origin string) bool) Option {
	return func(c *config) { c.allowOriginFunc = fn }
}

// WithAllowedMethods sets the methods announced in preflight responses.
func WithAllowedMethods(methods ...string) Option {
	return func(c *config) { c.allowedMethods = methods }
}

// WithAllowedHeaders sets the request headers a preflight may ask for.
// "*" allows any.
func WithAllowedHeaders(headers ...string) Option {
	return func(c *config) { c.allowedHeaders = headers }
}

// WithExposedHeaders lists response headers scripts may read.
func WithExposedHeaders(headers ...string) Option {
	return func(c *config) { c.exposedHeaders = headers }
}

// WithAllowCredentials allows cookies and authorization headers.
func WithAllowCredentials(allow bool) Option {
	return func(c *config) { c.allowCredentials = allow }
}

// WithMaxAge sets how long, in seconds, a preflight result may be
// cached. Zero omits the header.
func WithMaxAge(seconds int) Option {
	return func(c *config) { c.maxAge = seconds }
}

// WithOptionsPassthrough hands preflight requests to the wrapped handler
// after the CORS headers were decided.
func WithOptionsPassthrough(pass bool) Option {
	return func(c *config) { c.optionsPassthrough = pass }
}

func (c *config) allowed(origin string) bool {
	if c.allowAllOrigins {
		return true
	}
	if slices.ContainsFunc(c.allowedOrigins, func(pattern string) bool { return matchOrigin(pattern, origin) }) {
		return true
	}

	return c.allowOriginFunc != nil && c.allowOriginFunc(origin)
}

func matchOrigin(pattern, origin string) bool {
	prefix, suffix, wild := strings.Cut(pattern, "*")
	if !wild {
		return strings.EqualFold(pattern, origin)
	}
	origin = strings.ToLower(origin)

	return len(origin) > len(prefix)+len(suffix) &&
		strings.HasPrefix(origin, strings.ToLower(prefix)) &&
		strings.HasSuffix(origin, strings.ToLower(suffix))
}

// New returns the middleware.
func New(opts ...Option) web.Middleware {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.allowCredentials && cfg.allowAllOrigins {
		panic("cors: credentials cannot be allowed for all origins")
	}

	methods := strings.Join(cfg.allowedMethods, ", ")
	allowAnyHeader := slices.Contains(cfg.allowedHeaders, "*")
	allowHeaders := strings.Join(cfg.allowedHeaders, ", ")
	exposed := strings.Join(cfg.exposedHeaders, ", ")

	return web.Around(func(ctx context.Context, r *http.Request, next web.Handler) (*web.Response, error) {
		origin := r.Header.Get("Origin")
		preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
		if origin == "" {
			return next.Call(ctx, r)
		}

		h := make(corsHeaders)
		h.Add("Vary", "Origin")
		if !cfg.allowed(origin) {
			if preflight && !cfg.optionsPassthrough {
				return web.NoContent().WithHeader("Vary", "Origin"), nil
			}
			return h.apply(next.Call(ctx, r))
		}

		if cfg.allowAllOrigins {
			h.Set("Access-Control-Allow-Origin", "*")
		} else {
			h.Set("Access-Control-Allow-Origin", origin)
		}
		if cfg.allowCredentials {
			h.Set("Access-Control-Allow-Credentials", "true")
		}

		if !preflight {
			if exposed != "" {
				h.Set("Access-Control-Expose-Headers", exposed)
			}
			return h.apply(next.Call(ctx, r))
		}

		h.Add("Vary", "Access-Control-Request-Method")
		h.Add("Vary", "Access-Control-Request-Headers")
		h.Set("Access-Control-Allow-Methods", methods)
		if req := r.Header.Get("Access-Control-Request-Headers"); req != "" {
			if allowAnyHeader {
				h.Set("Access-Control-Allow-Headers", req)
			} else {
				h.Set("Access-Control-Allow-Headers", allowHeaders)
			}
		}
		if cfg.maxAge > 0 {
			h.Set("Access-Control-Max-Age", strconv.Itoa(cfg.maxAge))
		}
		if cfg.optionsPassthrough {
			return h.apply(next.Call(ctx, r))
		}

		res := web.NoContent()
		res.Header = http.Header(h)

		return res, nil
	})
}

// corsHeaders are merged into a successful response. Vary values are
// appended, all others replace what the handler set.
type corsHeaders http.Header

func (h corsHeaders) Add(k, v string) { http.Header(h).Add(k, v) }
func (h corsHeaders) Set(k, v string) { http.Header(h).Set(k, v) }

func (h corsHeaders) apply(res *web.Response, err error) (*web.Response, error) {
	if err != nil || res == nil {
		return res, err
	}
	if res.Header == nil {
		res.Header = make(http.Header)
	}
	for k, v := range h {
		if k == "Vary" {
			res.Header[k] = append(res.Header[k], v...)
			continue
		}
		res.Header[k] = v
	}

	return res, nil
}
