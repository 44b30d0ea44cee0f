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

package logging

import (
	"context"
	"log/slog"
	"net/http"

	"rivaas.dev/relay/middleware/requestid"
	"rivaas.dev/relay/web"
)

type loggerKey struct{}

// WithContext returns a context carrying l.
func WithContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// FromContext returns the logger stored with WithContext, or
// slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}

	return slog.Default()
}

// Discard returns a logger that writes nothing.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// Middleware stores a request-scoped logger in the context. It carries
// the request method and path, and the request id when requestid.New
// runs further out.
func Middleware(l *slog.Logger) web.Middleware {
	return web.Around(func(ctx context.Context, r *http.Request, next web.Handler) (*web.Response, error) {
		attrs := []any{"method", r.Method, "path", r.URL.Path}
		if id := requestid.Get(ctx); id != "" {
			attrs = append(attrs, "request_id", id)
		}
		ctx = WithContext(ctx, l.With(attrs...))

		return next.Call(ctx, r.WithContext(ctx))
	})
}
