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

package accesslog

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	rerrors "rivaas.dev/relay/errors"
	"rivaas.dev/relay/middleware/requestid"
	"rivaas.dev/relay/router"
	"rivaas.dev/relay/web"
)

// Option configures the middleware.
type Option func(*config)

type config struct {
	logger *slog.Logger
	skip   []string
	slow   time.Duration
	now    func() time.Time
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithSkipPaths excludes exact paths from logging.
func WithSkipPaths(paths ...string) Option {
	return func(c *config) { c.skip = append(c.skip, paths...) }
}

// WithSlowThreshold logs requests slower than d at warn level and marks
// them with slow=true.
func WithSlowThreshold(d time.Duration) Option {
	return func(c *config) { c.slow = d }
}

// New returns the middleware.
func New(opts ...Option) web.Middleware {
	cfg := &config{logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(cfg)
	}

	return web.Around(func(ctx context.Context, r *http.Request, next web.Handler) (*web.Response, error) {
		if slices.Contains(cfg.skip, r.URL.Path) {
			return next.Call(ctx, r)
		}

		start := cfg.now()
		ctx, pattern := router.TrackPattern(ctx)
		res, err := next.Call(ctx, r.WithContext(ctx))
		elapsed := cfg.now().Sub(start)

		status := http.StatusOK
		switch {
		case err != nil:
			status = rerrors.StatusOf(err)
		case res != nil:
			status = res.StatusCode()
		}

		attrs := []slog.Attr{
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.Duration("duration", elapsed),
		}
		if p := pattern(); p != "" {
			attrs = append(attrs, slog.String("route", p))
		}
		if id := requestid.Get(ctx); id != "" {
			attrs = append(attrs, slog.String("request_id", id))
		}
		if r.URL.RawQuery != "" {
			attrs = append(attrs, slog.String("query", r.URL.RawQuery))
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}

		level := slog.LevelInfo
		if cfg.slow > 0 && elapsed > cfg.slow {
			level = slog.LevelWarn
			attrs = append(attrs, slog.Bool("slow", true))
		}
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = max(level, slog.LevelWarn)
		}
		cfg.logger.LogAttrs(ctx, level, "request", attrs...)

		return res, err
	})
}
