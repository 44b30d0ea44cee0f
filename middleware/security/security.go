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

// Package security sets security-related response headers such as
// Content-Security-Policy and X-Frame-Options.
//
// Headers are only added to responses a handler returned. Errors are
// rendered further out, so place catch.New inside this middleware when
// error responses must carry the headers too.
package security

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"rivaas.dev/relay/web"
)

// Option configures the middleware.
type Option func(*config)

type config struct {
	frameOptions          string
	contentTypeNosniff    bool
	xssProtection         string
	hstsMaxAge            int
	hstsIncludeSubdomains bool
	hstsPreload           bool
	contentSecurityPolicy string
	referrerPolicy        string
	permissionsPolicy     string
	crossOriginOpener     string
	customHeaders         map[string]string
}

func defaultConfig() *config {
	return &config{
		frameOptions:          "DENY",
		contentTypeNosniff:    true,
		xssProtection:         "0",
		hstsMaxAge:            31536000,
		hstsIncludeSubdomains: true,
		contentSecurityPolicy: "default-src 'self'",
		referrerPolicy:        "strict-origin-when-cross-origin",
		crossOriginOpener:     "same-origin",
		customHeaders:         make(map[string]string),
	}
}

// WithFrameOptions sets X-Frame-Options. Default "DENY".
func WithFrameOptions(value string) Option {
	return func(c *config) { c.frameOptions = value }
}

// WithContentTypeNosniff toggles X-Content-Type-Options: nosniff.
func WithContentTypeNosniff(enabled bool) Option {
	return func(c *config) { c.contentTypeNosniff = enabled }
}

// WithXSSProtection sets X-XSS-Protection. Default "0", which switches
// the legacy browser filter off.
func WithXSSProtection(value string) Option {
	return func(c *config) { c.xssProtection = value }
}

// WithHSTS configures Strict-Transport-Security. A maxAge of zero
// disables it. The header is only sent over TLS.
func WithHSTS(maxAge int, includeSubdomains, preload bool) Option {
	return func(c *config) {
		c.hstsMaxAge = maxAge
		c.hstsIncludeSubdomains = includeSubdomains
		c.hstsPreload = preload
	}
}

// WithContentSecurityPolicy sets Content-Security-Policy.
func WithContentSecurityPolicy(policy string) Option {
	return func(c *config) { c.contentSecurityPolicy = policy }
}

// WithReferrerPolicy sets Referrer-Policy.
func WithReferrerPolicy(policy string) Option {
	return func(c *config) { c.referrerPolicy = policy }
}

// WithPermissionsPolicy sets Permissions-Policy.
func WithPermissionsPolicy(policy string) Option {
	return func(c *config) { c.permissionsPolicy = policy }
}

// WithCrossOriginOpenerPolicy sets Cross-Origin-Opener-Policy.
func WithCrossOriginOpenerPolicy(policy string) Option {
	return func(c *config) { c.crossOriginOpener = policy }
}

// WithCustomHeader adds a header to every response.
func WithCustomHeader(name, value string) Option {
	return func(c *config) { c.customHeaders[http.CanonicalHeaderKey(name)] = value }
}

// NoSecurityHeaders clears every header, so that only the options given
// after it apply.
func NoSecurityHeaders() Option {
	return func(c *config) {
		*c = config{customHeaders: make(map[string]string)}
	}
}

// DevelopmentPreset relaxes the policy for local work: inline scripts
// are allowed, framing by the same origin is allowed and HSTS is off.
func DevelopmentPreset() Option {
	return func(c *config) {
		c.frameOptions = "SAMEORIGIN"
		c.contentSecurityPolicy = "default-src 'self' 'unsafe-inline' 'unsafe-eval'; img-src 'self' data:"
		c.referrerPolicy = "no-referrer-when-downgrade"
		c.hstsMaxAge = 0
		c.hstsIncludeSubdomains = false
		c.hstsPreload = false
	}
}

// ProductionPreset is the strict policy, with HSTS preload and a
// restrictive Permissions-Policy.
func ProductionPreset() Option {
	return func(c *config) {
		c.frameOptions = "DENY"
		c.contentTypeNosniff = true
		c.hstsMaxAge = 31536000
		c.hstsIncludeSubdomains = true
		c.hstsPreload = true
		c.contentSecurityPolicy = "default-src 'self'"
		c.referrerPolicy = "strict-origin-when-cross-origin"
		c.permissionsPolicy = "geolocation=(), microphone=(), camera=()"
	}
}

// New returns the middleware. Headers the handler already set are kept.
func New(opts ...Option) web.Middleware {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	var hsts string
	if cfg.hstsMaxAge > 0 {
		hsts = fmt.Sprintf("max-age=%d", cfg.hstsMaxAge)
		if cfg.hstsIncludeSubdomains {
			hsts += "; includeSubDomains"
		}
		if cfg.hstsPreload {
			hsts += "; preload"
		}
	}

	headers := make(http.Header)
	set := func(k, v string) {
		if v != "" {
			headers.Set(k, v)
		}
	}
	set("X-Frame-Options", cfg.frameOptions)
	if cfg.contentTypeNosniff {
		set("X-Content-Type-Options", "nosniff")
	}
	set("X-XSS-Protection", cfg.xssProtection)
	set("Content-Security-Policy", cfg.contentSecurityPolicy)
	set("Referrer-Policy", cfg.referrerPolicy)
	set("Permissions-Policy", cfg.permissionsPolicy)
	set("Cross-Origin-Opener-Policy", cfg.crossOriginOpener)
	for k, v := range cfg.customHeaders {
		set(k, v)
	}

	return web.Around(func(ctx context.Context, r *http.Request, next web.Handler) (*web.Response, error) {
		res, err := next.Call(ctx, r)
		if err != nil || res == nil {
			return res, err
		}
		if res.Header == nil {
			res.Header = make(http.Header)
		}
		for k, v := range headers {
			if _, ok := res.Header[k]; !ok {
				res.Header[k] = slices.Clone(v)
			}
		}
		if hsts != "" && r.TLS != nil && res.Header.Get("Strict-Transport-Security") == "" {
			res.Header.Set("Strict-Transport-Security", hsts)
		}

		return res, nil
	})
}
