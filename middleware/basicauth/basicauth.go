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

// Package basicauth implements HTTP Basic Authentication (RFC 7617).
//
//	h := web.Wrap(admin, basicauth.New(
//		basicauth.WithUsers(map[string]string{"admin": "secret"}),
//		basicauth.WithRealm("Admin"),
//	))
//
// Rejected requests fail with *Error, which renders as 401 with a
// WWW-Authenticate challenge. Handlers read the authenticated user with
// Username. Basic credentials travel in clear text; serve over TLS.
package basicauth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"rivaas.dev/relay/web"
)

// ErrUnauthorized is the kind of every rejection.
var ErrUnauthorized = errors.New("basicauth: unauthorized")

// Error is returned for missing or wrong credentials.
type Error struct {
	Realm string
	// Missing is true when the request carried no credentials at all.
	Missing bool
}

func (e *Error) Error() string {
	if e.Missing {
		return "basicauth: credentials required"
	}

	return "basicauth: invalid credentials"
}

// Unwrap returns ErrUnauthorized.
func (e *Error) Unwrap() error { return ErrUnauthorized }

// HTTPStatus returns 401.
func (e *Error) HTTPStatus() int { return http.StatusUnauthorized }

// Headers carries the challenge.
func (e *Error) Headers() http.Header {
	return http.Header{"Www-Authenticate": {fmt.Sprintf("Basic realm=%q, charset=\"UTF-8\"", e.Realm)}}
}

// Option configures the middleware.
type Option func(*config)

type config struct {
	realm        string
	validator    func(ctx context.Context, username, password string) bool
	unauthorized func(ctx context.Context, r *http.Request, err *Error) (*web.Response, error)
	skip         []string
}

// WithUsers checks credentials against a fixed table. Comparison runs
// in constant time.
func WithUsers(users map[string]string) Option {
	table := make(map[string][]byte, len(users))
	for u, p := range users {
		table[u] = []byte(p)
	}

	return func(c *config) {
		c.validator = func(_ context.Context, username, password string) bool {
			want, ok := table[username]
			return ok && subtle.ConstantTimeCompare([]byte(password), want) == 1
		}
	}
}

// WithValidator checks credentials with a custom function, for example a
// lookup against a user store.
func WithValidator(fn func(ctx context.Context, username, password string) bool) Option {
	return func(c *config) { c.validator = fn }
}

// WithRealm sets the realm announced in the challenge. Default
// "Restricted".
func WithRealm(realm string) Option {
	return func(c *config) { c.realm = realm }
}

// WithUnauthorizedHandler answers rejections with a custom response.
func WithUnauthorizedHandler(h func(ctx context.Context, r *http.Request, err *Error) (*web.Response, error)) Option {
	return func(c *config) { c.unauthorized = h }
}

// WithSkipPaths exempts exact paths.
func WithSkipPaths(paths ...string) Option {
	return func(c *config) { c.skip = append(c.skip, paths...) }
}

type userKey struct{}

// Username returns the authenticated user, or "" outside the middleware.
func Username(ctx context.Context) string {
	u, _ := ctx.Value(userKey{}).(string)
	return u
}

// New returns the middleware. It panics when neither WithUsers nor
// WithValidator is given.
func New(opts ...Option) web.Middleware {
	cfg := &config{realm: "Restricted"}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.validator == nil {
		panic("basicauth: WithUsers or WithValidator is required")
	}

	return web.Around(func(ctx context.Context, r *http.Request, next web.Handler) (*web.Response, error) {
		if slices.Contains(cfg.skip, r.URL.Path) {
			return next.Call(ctx, r)
		}

		user, pass, ok := r.BasicAuth()
		if !ok || !cfg.validator(ctx, user, pass) {
			err := &Error{Realm: cfg.realm, Missing: !ok}
			if cfg.unauthorized != nil {
				return cfg.unauthorized(ctx, r, err)
			}
			return nil, err
		}

		ctx = context.WithValue(ctx, userKey{}, user)

		return next.Call(ctx, r.WithContext(ctx))
	})
}
