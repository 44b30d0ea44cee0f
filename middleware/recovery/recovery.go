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

// Package recovery turns panics in handlers into 500 errors.
package recovery

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/term"

	"rivaas.dev/relay/web"
)

// PanicError is a recovered panic.
type PanicError struct {
	Value any
	Stack []byte
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", p.Value)
}

// Unwrap returns the panic value when it is an error.
func (p *PanicError) Unwrap() error {
	err, _ := p.Value.(error)
	return err
}

// HTTPStatus returns 500.
func (p *PanicError) HTTPStatus() int { return http.StatusInternalServerError }

// New returns the middleware.
func New(opts ...Option) web.Middleware {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	pretty := cfg.prettyStack != nil && *cfg.prettyStack
	if cfg.prettyStack == nil {
		pretty = term.IsTerminal(int(os.Stderr.Fd()))
	}

	return web.Around(func(ctx context.Context, r *http.Request, next web.Handler) (res *web.Response, err error) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}

			p := &PanicError{Value: v}
			if cfg.stackTrace {
				buf := make([]byte, cfg.stackSize)
				p.Stack = buf[:runtime.Stack(buf, false)]
			}
			report(ctx, cfg, r, p, pretty)

			if cfg.handler != nil {
				res, err = cfg.handler(ctx, r, p)
				return
			}
			res, err = nil, p
		}()

		return next.Call(ctx, r)
	})
}

func report(ctx context.Context, cfg *config, r *http.Request, p *PanicError, pretty bool) {
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.RecordError(p)
		span.SetStatus(codes.Error, p.Error())
	}

	if cfg.logger == nil {
		return
	}
	attrs := []slog.Attr{
		slog.Any("panic", p.Value),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	}
	if len(p.Stack) > 0 && !pretty {
		attrs = append(attrs, slog.String("stack", string(p.Stack)))
	}
	cfg.logger.LogAttrs(ctx, slog.LevelError, "panic recovered", attrs...)
	if len(p.Stack) > 0 && pretty {
		fmt.Fprintf(os.Stderr, "\n%s\n", p.Stack)
	}
}
