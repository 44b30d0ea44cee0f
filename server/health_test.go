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
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testGate struct {
	name  string
	ready atomic.Bool
}

func (g *testGate) Name() string { return g.name }
func (g *testGate) Ready() bool  { return g.ready.Load() }

func probe(t *testing.T, h *Health, path string) (int, healthReport) {
	t.Helper()

	res, err := h.Routes().Call(t.Context(), httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, err)
	assert.Equal(t, "no-store", res.Header.Get("Cache-Control"))

	var rep healthReport
	if res.Header.Get("Content-Type") == "application/json" || res.StatusCode() == http.StatusServiceUnavailable {
		body, err := res.ReadBody(t.Context())
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &rep))
	}

	return res.StatusCode(), rep
}

func TestHealthDefaults(t *testing.T) {
	t.Parallel()

	h := NewHealth()
	status, _ := probe(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, status)
	status, _ = probe(t, h, "/readyz")
	assert.Equal(t, http.StatusNoContent, status)
}

func TestHealthChecks(t *testing.T) {
	t.Parallel()

	h := NewHealth(
		WithHealthPaths("/live", "/ready"),
		WithHealthTimeout(50*time.Millisecond),
		WithLivenessCheck("heap", func(context.Context) error { return errors.New("too big") }),
		WithReadinessCheck("db", func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}),
		WithReadinessCheck("cache", func(context.Context) error { return nil }),
	)

	status, rep := probe(t, h, "/live")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "unhealthy", rep.Status)
	assert.Equal(t, map[string]string{"heap": "too big"}, rep.Checks)

	status, rep = probe(t, h, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "unready", rep.Status)
	assert.Contains(t, rep.Checks, "db")
	assert.NotContains(t, rep.Checks, "cache")
}

func TestHealthGatesAndDrain(t *testing.T) {
	t.Parallel()

	h := NewHealth()
	g := &testGate{name: "queue"}
	h.Register(g)

	status, rep := probe(t, h, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, map[string]string{"queue": "not ready"}, rep.Checks)

	g.ready.Store(true)
	status, _ = probe(t, h, "/readyz")
	assert.Equal(t, http.StatusNoContent, status)

	g.ready.Store(false)
	h.Unregister("queue")
	status, _ = probe(t, h, "/readyz")
	assert.Equal(t, http.StatusNoContent, status)

	h.Drain()
	assert.True(t, h.Draining())
	status, rep = probe(t, h, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "draining", rep.Status)

	status, _ = probe(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, status)
}
