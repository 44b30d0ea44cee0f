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

// Package requestid assigns every request an identifier, stores it in the
// context and echoes it in the response.
package requestid

import (
	"context"
	"crypto/rand"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"rivaas.dev/relay/web"
)

// DefaultHeader carries the request id.
const DefaultHeader = "X-Request-ID"

type contextKey struct{}

// Option configures the middleware.
type Option func(*config)

type config struct {
	header        string
	generator     func() string
	allowClientID bool
	maxLen        int
}

func defaultConfig() *config {
	return &config{
		header:        DefaultHeader,
		generator:     UUIDv7,
		allowClientID: true,
		maxLen:        128,
	}
}

// WithHeader sets the header name.
func WithHeader(name string) Option {
	return func(c *config) { c.header = name }
}

// WithGenerator replaces the id generator.
func WithGenerator(f func() string) Option {
	return func(c *config) { c.generator = f }
}

// WithULID generates ULIDs instead of UUIDv7.
func WithULID() Option {
	return WithGenerator(ULID)
}

// WithAllowClientID controls whether an id sent by the client is kept.
// Client ids longer than 128 bytes are always replaced.
func WithAllowClientID(allow bool) Option {
	return func(c *config) { c.allowClientID = allow }
}

// UUIDv7 returns a time-ordered UUID (RFC 9562).
func UUIDv7() string {
	return uuid.Must(uuid.NewV7()).String()
}

var (
	ulidEntropy   = ulid.Monotonic(rand.Reader, 0)
	ulidEntropyMu sync.Mutex
)

// ULID returns a monotonic ULID.
func ULID() string {
	ulidEntropyMu.Lock()
	defer ulidEntropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy).String()
}

// New returns the middleware.
func New(opts ...Option) web.Middleware {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return web.Around(func(ctx context.Context, r *http.Request, next web.Handler) (*web.Response, error) {
		var id string
		if cfg.allowClientID {
			if v := r.Header.Get(cfg.header); len(v) <= cfg.maxLen {
				id = v
			}
		}
		if id == "" {
			id = cfg.generator()
		}

		ctx = With(ctx, id)
		res, err := next.Call(ctx, r.WithContext(ctx))
		if res != nil {
			res.WithHeader(cfg.header, id)
		}

		return res, err
	})
}

// With stores id in ctx.
func With(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// Get returns the request id stored in ctx, or "".
func Get(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}
