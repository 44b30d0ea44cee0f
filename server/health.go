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
	"maps"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"rivaas.dev/relay/router"
	"rivaas.dev/relay/web"
)

// CheckFunc reports the health of one dependency.
type CheckFunc func(ctx context.Context) error

// Gate is a component that reports its own readiness and can be added or
// removed while the server runs.
type Gate interface {
	Name() string
	Ready() bool
}

// HealthOption configures Health.
type HealthOption func(*Health)

// WithHealthPaths sets the liveness and readiness paths. Defaults are
// /healthz and /readyz.
func WithHealthPaths(liveness, readiness string) HealthOption {
	return func(h *Health) {
		if liveness != "" {
			h.livenessPath = liveness
		}
		if readiness != "" {
			h.readinessPath = readiness
		}
	}
}

// WithHealthTimeout bounds each check. Default one second.
func WithHealthTimeout(d time.Duration) HealthOption {
	return func(h *Health) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// WithLivenessCheck adds a check to the liveness probe. Liveness checks
// should only cover the process itself.
func WithLivenessCheck(name string, fn CheckFunc) HealthOption {
	return func(h *Health) { h.liveness[name] = fn }
}

// WithReadinessCheck adds a check to the readiness probe.
func WithReadinessCheck(name string, fn CheckFunc) HealthOption {
	return func(h *Health) { h.readiness[name] = fn }
}

// Health serves liveness and readiness probes.
type Health struct {
	livenessPath  string
	readinessPath string
	timeout       time.Duration
	liveness      map[string]CheckFunc
	readiness     map[string]CheckFunc

	mu       sync.RWMutex
	gates    map[string]Gate
	draining atomic.Bool
}

// NewHealth returns probes with the given checks.
func NewHealth(opts ...HealthOption) *Health {
	h := &Health{
		livenessPath:  "/healthz",
		readinessPath: "/readyz",
		timeout:       time.Second,
		liveness:      make(map[string]CheckFunc),
		readiness:     make(map[string]CheckFunc),
		gates:         make(map[string]Gate),
	}
	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Register adds or replaces a readiness gate.
func (h *Health) Register(g Gate) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.gates[g.Name()] = g
}

// Unregister removes the gate with the given name.
func (h *Health) Unregister(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.gates, name)
}

// Drain makes the readiness probe fail from now on.
func (h *Health) Drain() { h.draining.Store(true) }

// Draining reports whether Drain was called.
func (h *Health) Draining() bool { return h.draining.Load() }

// Routes returns a router serving GET on both probe paths.
func (h *Health) Routes() *router.Router {
	return router.New().
		Route(h.livenessPath, router.Get(web.HandlerFunc(h.live))).
		Route(h.readinessPath, router.Get(web.HandlerFunc(h.ready)))
}

type healthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (h *Health) live(ctx context.Context, _ *http.Request) (*web.Response, error) {
	failures := runChecks(ctx, h.liveness, h.timeout)
	if len(failures) > 0 {
		return report(http.StatusServiceUnavailable, healthReport{Status: "unhealthy", Checks: failures})
	}

	return web.Text(http.StatusOK, "ok").WithHeader("Cache-Control", "no-store"), nil
}

func (h *Health) ready(ctx context.Context, _ *http.Request) (*web.Response, error) {
	if h.Draining() {
		return report(http.StatusServiceUnavailable, healthReport{Status: "draining"})
	}

	failures := runChecks(ctx, h.readiness, h.timeout)
	h.mu.RLock()
	for name, g := range h.gates {
		if !g.Ready() {
			failures[name] = "not ready"
		}
	}
	h.mu.RUnlock()

	if len(failures) > 0 {
		return report(http.StatusServiceUnavailable, healthReport{Status: "unready", Checks: failures})
	}

	return web.NoContent().WithHeader("Cache-Control", "no-store"), nil
}

func report(status int, r healthReport) (*web.Response, error) {
	res, err := web.JSON(status, r)
	if err != nil {
		return nil, err
	}

	return res.WithHeader("Cache-Control", "no-store"), nil
}

// runChecks runs every check concurrently, each under its own timeout,
// and returns the failures by name.
func runChecks(ctx context.Context, checks map[string]CheckFunc, timeout time.Duration) map[string]string {
	failures := make(map[string]string)
	if len(checks) == 0 {
		return failures
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, name := range slices.Sorted(maps.Keys(checks)) {
		fn := checks[name]
		wg.Go(func() {
			checkCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			if err := fn(checkCtx); err != nil {
				mu.Lock()
				failures[name] = err.Error()
				mu.Unlock()
			}
		})
	}
	wg.Wait()

	return failures
}
