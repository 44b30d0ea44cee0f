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

package recovery

import (
	"context"
	"log/slog"
	"net/http"

	"rivaas.dev/relay/web"
)

// Option configures the middleware.
type Option func(*config)

type config struct {
	logger      *slog.Logger
	handler     func(ctx context.Context, r *http.Request, p *PanicError) (*web.Response, error)
	stackTrace  bool
	stackSize   int
	prettyStack *bool
}

func defaultConfig() *config {
	return &config{
		logger:     slog.Default(),
		stackTrace: true,
		stackSize:  4 << 10,
	}
}

// WithoutLogging disables panic logging.
func WithoutLogging() Option {
	return func(cfg *config) { cfg.logger = nil }
}

// WithLogger sets the logger for panics.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) { cfg.logger = logger }
}

// WithHandler answers panics with a custom response. By default the
// *PanicError is returned as the error and rendered as a 500.
//
//	recovery.New(recovery.WithHandler(func(ctx context.Context, r *http.Request, p *recovery.PanicError) (*web.Response, error) {
//		return web.JSON(http.StatusInternalServerError, map[string]any{"error": "something went wrong"})
//	}))
func WithHandler(h func(ctx context.Context, r *http.Request, p *PanicError) (*web.Response, error)) Option {
	return func(cfg *config) { cfg.handler = h }
}

// WithStackTrace enables or disables stack capture. Default: true.
func WithStackTrace(enabled bool) Option {
	return func(cfg *config) { cfg.stackTrace = enabled }
}

// WithStackSize sets the maximum captured stack size in bytes. Default: 4KB.
func WithStackSize(size int) Option {
	return func(cfg *config) { cfg.stackSize = size }
}

// WithPrettyStack forces multi-line stack output on or off. By default
// stacks are pretty-printed only when stderr is a terminal.
func WithPrettyStack(enabled bool) Option {
	return func(cfg *config) { cfg.prettyStack = &enabled }
}
