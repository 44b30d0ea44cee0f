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

package router

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/relay/web"
)

func routeKeys(r *Router) []string {
	var out []string
	for info := range r.Routes() {
		key := info.Pattern + " " + strings.Join(info.Methods, "|")
		if info.Scope {
			key += " scope"
		}
		out = append(out, key)
	}
	return out
}

func TestMerge(t *testing.T) {
	t.Parallel()

	users := New().
		Route("/users", Get(named("list"))).
		Route("/users/{id}", Get(named("show")))
	app := New().Route("/health", named("health")).Merge(users)

	body, err := call(t, app, http.MethodGet, "/users/5")
	require.NoError(t, err)
	assert.Equal(t, "show /users/5 [id=5]", body)

	assert.Equal(t, []string{"/health *", "/users GET", "/users/{id} GET"}, routeKeys(app))
	assert.Equal(t, []string{"/users GET", "/users/{id} GET"}, routeKeys(users), "the source is not modified")

	err = app.TryMerge(New().Route("/users", Get(named("dup"))))
	require.ErrorIs(t, err, ErrPathConflict)
}

func TestMerge_KeepsScopes(t *testing.T) {
	t.Parallel()

	src := New().Scope("/static", named("files"))
	app := New().Merge(src)

	body, err := call(t, app, http.MethodGet, "/static/a/b")
	require.NoError(t, err)
	assert.Equal(t, "files /a/b []", body)
}

func TestScopeMerge(t *testing.T) {
	t.Parallel()

	sub := New().
		Route("/x", Get(named("x"))).
		Route("/", Get(named("index"))).
		Route("/files/{*rest}", Get(named("files")))
	app := New().ScopeMerge("/api", sub)

	tests := []struct {
		target string
		want   string
	}{
		{"/api/x", "x /api/x []"},
		{"/api/", "index /api/ []"},
		{"/api/files/a/b", "files /api/files/a/b [rest=a/b]"},
	}
	for _, tt := range tests {
		body, err := call(t, app, http.MethodGet, tt.target)
		require.NoError(t, err, tt.target)
		assert.Equal(t, tt.want, body)
	}

	_, err := call(t, app, http.MethodGet, "/x")
	require.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []string{"/api/ GET", "/api/files/{*rest} GET", "/api/x GET"}, routeKeys(app))
}

func TestScopeMerge_Errors(t *testing.T) {
	t.Parallel()

	sub := New().Route("/x", named("x"))
	app := New()

	err := app.TryScopeMerge("", sub)
	require.ErrorIs(t, err, ErrEmptyPrefix)
	assert.Panics(t, func() { app.ScopeMerge("", sub) })

	require.ErrorIs(t, app.TryScopeMerge("api", sub), ErrInvalidPath)
	require.ErrorIs(t, app.TryScopeMerge("/files/{*rest}", sub), ErrInvalidPath, "a catch-all cannot precede merged segments")
	require.ErrorIs(t, app.TryScopeMerge("/{x}", New().Route("/{x}", named("x"))), ErrInvalidPath, "duplicate capture names")

	assert.Empty(t, routeKeys(app))
}

func TestScopeMerge_WithParams(t *testing.T) {
	t.Parallel()

	app := New().ScopeMerge("/orgs/{org}", New().Route("/members/{user}", named("member")))

	body, err := call(t, app, http.MethodGet, "/orgs/acme/members/ann")
	require.NoError(t, err)
	assert.Equal(t, "member /orgs/acme/members/ann [org=acme,user=ann]", body)
}

func TestMergeWith_WrapsOnlyMergedRoutes(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	count := web.Around(func(ctx context.Context, r *http.Request, next web.Handler) (*web.Response, error) {
		hits.Add(1)
		return next.Call(ctx, r)
	})

	app := New().Route("/own", named("own"))
	app.MergeWith(New().Route("/merged", named("merged")), count)
	app.ScopeMergeWith("/v1", New().Route("/merged", named("v1")), count)

	for _, target := range []string{"/own", "/merged", "/v1/merged"} {
		_, err := call(t, app, http.MethodGet, target)
		require.NoError(t, err, target)
	}
	assert.Equal(t, int32(2), hits.Load())
}

func TestRoutes_Restartable(t *testing.T) {
	t.Parallel()

	r := New().
		Route("/b", Get(named("b")).Post(named("b"))).
		Route("/a/{id}", Get(named("a"))).
		Route("/a/{name}", Delete(named("a2"))).
		Route("/a/{*rest}", Any(named("rest"))).
		Route("/a/me", Get(named("me")))

	want := []string{
		"/a/me GET",
		"/a/{id} GET",
		"/a/{name} DELETE",
		"/a/{*rest} *",
		"/b GET|POST",
	}
	assert.Equal(t, want, routeKeys(r))
	assert.Equal(t, want, routeKeys(r), "iterating twice yields the same sequence")

	var first []string
	for info := range r.Routes() {
		first = append(first, info.Pattern)
		break
	}
	assert.Equal(t, []string{"/a/me"}, first)
}

func TestRemove(t *testing.T) {
	t.Parallel()

	r := New().
		Route("/items/{id}", Get(named("get")).Delete(named("del"))).
		Route("/items", Get(named("list")))

	assert.True(t, r.Remove("/items/{id}", http.MethodDelete))
	assert.False(t, r.Remove("/items/{id}", http.MethodDelete), "already removed")
	assert.False(t, r.Remove("/missing"))
	assert.False(t, r.Remove("not a pattern"))

	_, err := call(t, r, http.MethodDelete, "/items/1")
	var re *RouteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, []string{"GET"}, re.Allowed)

	assert.False(t, r.Remove("/items/{x}"), "same shape, different pattern")
	assert.True(t, r.Remove("/items/{id}"))
	_, err = call(t, r, http.MethodGet, "/items/1")
	require.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []string{"/items GET"}, routeKeys(r))

	for info := range r.Routes() {
		r.Remove(info.Pattern)
	}
	assert.Empty(t, routeKeys(r))
	_, err = call(t, r, http.MethodGet, "/items")
	require.ErrorIs(t, err, ErrNotFound)

	r.Route("/items", Any(named("again")))
	assert.True(t, r.Remove("/items", MethodAny))
	assert.Empty(t, routeKeys(r))
}

func TestRemove_OnlyThePatternGiven(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern string
		methods []string
		removed bool
		want    []string
	}{
		{name: "unscoped", pattern: "/a/{id}", removed: true, want: []string{"/a/{name} POST"}},
		{name: "scoped to the other pattern's method", pattern: "/a/{id}", methods: []string{http.MethodPost}, want: []string{"/a/{id} GET", "/a/{name} POST"}},
		{name: "scoped", pattern: "/a/{name}", methods: []string{http.MethodPost}, removed: true, want: []string{"/a/{id} GET"}},
		{name: "any-method entry", pattern: "/a/{id}", methods: []string{MethodAny}, want: []string{"/a/{id} GET", "/a/{name} POST"}},
		{name: "unregistered name", pattern: "/a/{x}", want: []string{"/a/{id} GET", "/a/{name} POST"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := New().
				Route("/a/{id}", Get(named("get"))).
				Route("/a/{name}", Post(named("post")))

			assert.Equal(t, tt.removed, r.Remove(tt.pattern, tt.methods...))
			assert.Equal(t, tt.want, routeKeys(r))
		})
	}
}

func TestRemove_RelabelsNearMissCaptures(t *testing.T) {
	t.Parallel()

	r := New().
		Route("/orgs/{org}/repos/{repo}", named("repo")).
		Route("/orgs/{owner}/teams/{team}", named("team"))

	_, err := call(t, r, http.MethodGet, "/orgs/acme/teams")
	var re *RouteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "acme", re.Params.Value("org"))

	require.True(t, r.Remove("/orgs/{org}/repos/{repo}"))

	_, err = call(t, r, http.MethodGet, "/orgs/acme/teams")
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "acme", re.Params.Value("owner"))
	_, ok := re.Params.Get("org")
	assert.False(t, ok, "removed pattern no longer names the capture")

	body, err := call(t, r, http.MethodGet, "/orgs/acme/teams/core")
	require.NoError(t, err)
	assert.Equal(t, "team /orgs/acme/teams/core [owner=acme,team=core]", body)
}

func TestRemove_PrunesNearMissState(t *testing.T) {
	t.Parallel()

	r := New().Route("/a/{x}/b", named("deep"))
	require.True(t, r.Remove("/a/{x}/b"))

	_, err := call(t, r, http.MethodGet, "/a/1/b")
	var re *RouteError
	require.ErrorAs(t, err, &re)
	assert.Empty(t, re.Params)
}

func TestRemove_InFlightKeepsHandler(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	r := New()
	r.Route("/slow", web.HandlerFunc(func(context.Context, *http.Request) (*web.Response, error) {
		close(started)
		<-release
		return web.Text(http.StatusOK, "done"), nil
	}))

	result := make(chan string, 1)
	go func() {
		body, err := call(t, r, http.MethodGet, "/slow")
		assert.NoError(t, err)
		result <- body
	}()

	<-started
	require.True(t, r.Remove("/slow"))
	close(release)

	assert.Equal(t, "done", <-result)
	_, err := call(t, r, http.MethodGet, "/slow")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestConcurrentDispatchAndRegistration(t *testing.T) {
	t.Parallel()

	r := New().Route("/stable", named("stable"))

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				req := httptest.NewRequest(http.MethodGet, "/stable", nil)
				res, err := r.Call(req.Context(), req)
				if !assert.NoError(t, err) {
					return
				}
				assert.Equal(t, http.StatusOK, res.StatusCode())
			}
		}()
	}

	for i := range 200 {
		p := fmt.Sprintf("/dyn/%d", i)
		r.Route(p, named(p))
		if i%2 == 0 {
			r.Remove(p)
		}
	}
	close(stop)
	wg.Wait()

	assert.Len(t, routeKeys(r), 101)
}

// resource records whether it was released.
type resource struct {
	released atomic.Bool
}

func TestCancellationReleasesResources(t *testing.T) {
	t.Parallel()

	res := &resource{}
	acquired := make(chan struct{})
	r := New().Route("/work", web.HandlerFunc(func(ctx context.Context, _ *http.Request) (*web.Response, error) {
		defer res.released.Store(true)
		close(acquired)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(10 * time.Second):
			return web.Text(http.StatusOK, "finished"), nil
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/work", nil)
	ctx, cancel := context.WithCancel(req.Context())
	errc := make(chan error, 1)
	go func() {
		_, err := r.Call(ctx, req.WithContext(ctx))
		errc <- err
	}()

	<-acquired
	cancel()

	select {
	case err := <-errc:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not return after cancellation")
	}
	assert.True(t, res.released.Load())
}
