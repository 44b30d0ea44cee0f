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
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// traceHandler adds trace_id and span_id from the record's context.
type traceHandler struct {
	next slog.Handler
}

func (h *traceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r = r.Clone()
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}

	return h.next.Handle(ctx, r)
}

func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{next: h.next.WithAttrs(attrs)}
}

func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{next: h.next.WithGroup(name)}
}

type samplingState struct {
	cfg   SamplingConfig
	count atomic.Int64
	start atomic.Int64
	now   func() time.Time
}

// samplingHandler drops records past the configured allowance. Handlers
// derived with WithAttrs and WithGroup share one counter.
type samplingHandler struct {
	next  slog.Handler
	state *samplingState
}

func newSamplingHandler(next slog.Handler, cfg SamplingConfig) *samplingHandler {
	s := &samplingState{cfg: cfg, now: time.Now}
	s.start.Store(s.now().UnixNano())

	return &samplingHandler{next: next, state: s}
}

func (h *samplingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *samplingHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError || h.state.keep() {
		return h.next.Handle(ctx, r)
	}

	return nil
}

func (s *samplingState) keep() bool {
	if s.cfg.Tick > 0 {
		now := s.now().UnixNano()
		start := s.start.Load()
		if now-start >= int64(s.cfg.Tick) && s.start.CompareAndSwap(start, now) {
			s.count.Store(0)
		}
	}

	n := s.count.Add(1)
	if n <= int64(s.cfg.Initial) || s.cfg.Thereafter == 0 {
		return true
	}

	return (n-int64(s.cfg.Initial))%int64(s.cfg.Thereafter) == 0
}

func (h *samplingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &samplingHandler{next: h.next.WithAttrs(attrs), state: h.state}
}

func (h *samplingHandler) WithGroup(name string) slog.Handler {
	return &samplingHandler{next: h.next.WithGroup(name), state: h.state}
}
