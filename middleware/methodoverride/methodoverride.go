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

// Package methodoverride lets POST requests stand in for PUT, PATCH and
// DELETE, for clients such as HTML forms that cannot send them.
//
// The override is read from the X-HTTP-Method-Override header, or from
// the "_method" field of a urlencoded form. Only POST requests are
// considered and only allowed methods are accepted; anything else passes
// through untouched. The original method stays available through
// OriginalMethod.
package methodoverride

import (
	"context"
	"mime"
	"net/http"
	"slices"
	"strings"

	"rivaas.dev/relay/web"
)

// DefaultHeader is the override header.
const DefaultHeader = "X-HTTP-Method-Override"

// Option configures the middleware.
type Option func(*config)

type config struct {
	header  string
	field   string
	allowed []string
}

// WithHeader changes the header name.
func WithHeader(name string) Option {
	return func(c *config) { c.header = name }
}

// WithFormField changes the form field name. An empty name disables form
// overrides.
func WithFormField(name string) Option {
	return func(c *config) { c.field = name }
}

// WithAllowedMethods sets the methods POST may become.
func WithAllowedMethods(methods ...string) Option {
	return func(c *config) {
		c.allowed = c.allowed[:0]
		for _, m := range methods {
			c.allowed = append(c.allowed, strings.ToUpper(m))
		}
	}
}

type originalKey struct{}

// OriginalMethod returns the method the client sent. Outside the
// middleware, or when nothing was overridden, it returns "".
func OriginalMethod(ctx context.Context) string {
	m, _ := ctx.Value(originalKey{}).(string)
	return m
}

// New returns the middleware.
func New(opts ...Option) web.Middleware {
	cfg := &config{
		header:  DefaultHeader,
		field:   "_method",
		allowed: []string{http.MethodPut, http.MethodPatch, http.MethodDelete},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return web.Around(func(ctx context.Context, r *http.Request, next web.Handler) (*web.Response, error) {
		if r.Method != http.MethodPost {
			return next.Call(ctx, r)
		}

		method := strings.ToUpper(strings.TrimSpace(r.Header.Get(cfg.header)))
		if method == "" && cfg.field != "" && isForm(r) {
			if err := r.ParseForm(); err == nil {
				method = strings.ToUpper(r.PostForm.Get(cfg.field))
			}
		}
		if method == "" || !slices.Contains(cfg.allowed, method) {
			return next.Call(ctx, r)
		}

		ctx = context.WithValue(ctx, originalKey{}, r.Method)
		r2 := r.WithContext(ctx)
		r2.Method = method

		return next.Call(ctx, r2)
	})
}

func isForm(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/x-www-form-urlencoded"
}
