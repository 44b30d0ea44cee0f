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

package server

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// hooks holds lifecycle callbacks. Start hooks run in order and abort on
// the first error, ready hooks run concurrently, shutdown hooks run in
// reverse order under the shutdown deadline, stop hooks run last and
// may panic without taking the process down.
type hooks struct {
	mu         sync.Mutex
	onStart    []func(context.Context) error
	onReady    []func()
	onShutdown []func(context.Context)
	onStop     []func()
}

// OnStart registers a hook run before the listener accepts connections.
func (s *Server) OnStart(fn func(context.Context) error) {
	s.hooks.mu.Lock()
	defer s.hooks.mu.Unlock()
	s.hooks.onStart = append(s.hooks.onStart, fn)
}

// OnReady registers a hook run in its own goroutine once serving starts.
func (s *Server) OnReady(fn func()) {
	s.hooks.mu.Lock()
	defer s.hooks.mu.Unlock()
	s.hooks.onReady = append(s.hooks.onReady, fn)
}

// OnShutdown registers a hook run when graceful shutdown begins.
func (s *Server) OnShutdown(fn func(context.Context)) {
	s.hooks.mu.Lock()
	defer s.hooks.mu.Unlock()
	s.hooks.onShutdown = append(s.hooks.onShutdown, fn)
}

// OnStop registers a hook run after the server stopped.
func (s *Server) OnStop(fn func()) {
	s.hooks.mu.Lock()
	defer s.hooks.mu.Unlock()
	s.hooks.onStop = append(s.hooks.onStop, fn)
}

func (h *hooks) start(ctx context.Context) error {
	h.mu.Lock()
	fns := slices.Clone(h.onStart)
	h.mu.Unlock()

	for i, fn := range fns {
		if err := fn(ctx); err != nil {
			return fmt.Errorf("server: start hook %d: %w", i, err)
		}
	}

	return nil
}

func (h *hooks) ready(logger *slog.Logger) {
	h.mu.Lock()
	fns := slices.Clone(h.onReady)
	h.mu.Unlock()

	for _, fn := range fns {
		go func() {
			defer recoverHook(logger, "ready")
			fn()
		}()
	}
}

func (h *hooks) shutdown(ctx context.Context) {
	h.mu.Lock()
	fns := slices.Clone(h.onShutdown)
	h.mu.Unlock()

	for _, fn := range slices.Backward(fns) {
		fn(ctx)
	}
}

func (h *hooks) stop(logger *slog.Logger) {
	h.mu.Lock()
	fns := slices.Clone(h.onStop)
	h.mu.Unlock()

	for _, fn := range fns {
		func() {
			defer recoverHook(logger, "stop")
			fn()
		}()
	}
}

func recoverHook(logger *slog.Logger, kind string) {
	if r := recover(); r != nil {
		logger.Error("lifecycle hook panicked", "hook", kind, "panic", r)
	}
}
