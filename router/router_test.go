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
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"rivaas.dev/relay/service"
	"rivaas.dev/relay/web"
)

// named answers with its name, the request path and the params it sees.
func named(name string) web.Handler {
	return web.HandlerFunc(func(ctx context.Context, r *http.Request) (*web.Response, error) {
		var parts []string
		for k, v := range Params(ctx).All() {
			parts = append(parts, k+"="+v)
		}
		return web.Textf(http.StatusOK, "%s %s [%s]", name, r.URL.Path, strings.Join(parts, ",")), nil
	})
}

func call(t *testing.T, h web.Handler, method, target string) (string, error) {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	res, err := h.Call(req.Context(), req)
	if err != nil {
		return "", err
	}
	body, err := res.ReadBody(req.Context())
	require.NoError(t, err)

	return string(body), nil
}

type RouterSuite struct {
	suite.Suite
	r *Router
}

func (s *RouterSuite) SetupTest() {
	s.r = New()
}

func (s *RouterSuite) get(target string) string {
	body, err := call(s.T(), s.r, http.MethodGet, target)
	s.Require().NoError(err, target)
	return body
}

func (s *RouterSuite) TestExactMatchAndParams() {
	s.r.Route("/", named("root")).
		Route("/users/{id}", named("user")).
		Route("/users/{id}/posts/{post}", named("post"))

	s.Equal("root / []", s.get("/"))
	s.Equal("user /users/7 [id=7]", s.get("/users/7"))
	s.Equal("post /users/7/posts/42 [id=7,post=42]", s.get("/users/7/posts/42"))
}

func (s *RouterSuite) TestLiteralBeatsCapture() {
	// Registration order must not matter.
	s.r.Route("/users/{id}", named("capture")).Route("/users/me", named("literal"))

	s.Equal("literal /users/me []", s.get("/users/me"))
	s.Equal("capture /users/you [id=you]", s.get("/users/you"))
}

func (s *RouterSuite) TestCaptureBeatsWildcard() {
	s.r.Route("/files/{*rest}", named("wild")).Route("/files/{name}", named("one"))

	s.Equal("one /files/a [name=a]", s.get("/files/a"))
	s.Equal("wild /files/a/b/c [rest=a/b/c]", s.get("/files/a/b/c"))
}

func (s *RouterSuite) TestWildcardNeedsRemainder() {
	s.r.Route("/files/{*rest}", named("wild"))

	_, err := call(s.T(), s.r, http.MethodGet, "/files/")
	s.ErrorIs(err, ErrNotFound)
	_, err = call(s.T(), s.r, http.MethodGet, "/files")
	s.ErrorIs(err, ErrNotFound)
	s.Equal("wild /files//x [rest=/x]", s.get("/files//x"))
}

func (s *RouterSuite) TestBacktracking() {
	s.r.Route("/a/b/d", named("literal")).Route("/a/{x}/c", named("capture"))

	s.Equal("capture /a/b/c [x=b]", s.get("/a/b/c"))
	s.Equal("literal /a/b/d []", s.get("/a/b/d"))
}

func (s *RouterSuite) TestTrailingSlashIsSignificant() {
	s.r.Route("/users", named("list"))

	s.Equal("list /users []", s.get("/users"))
	_, err := call(s.T(), s.r, http.MethodGet, "/users/")
	s.ErrorIs(err, ErrNotFound)
}

func (s *RouterSuite) TestCapturesArePercentDecoded() {
	s.r.Route("/tags/{tag}", named("tag")).Route("/raw/{*rest}", named("raw"))

	s.Equal("tag /tags/a/b [tag=a/b]", s.get("/tags/a%2Fb"))
	s.Equal("tag /tags/hello world [tag=hello world]", s.get("/tags/hello%20world"))
	s.Equal("raw /raw/x y/z [rest=x y/z]", s.get("/raw/x%20y/z"))
}

func (s *RouterSuite) TestMethodNotAllowed() {
	s.r.Route("/items/{id}", Get(named("get")).Put(named("put")).Delete(named("del")))

	_, err := call(s.T(), s.r, http.MethodPost, "/items/3")
	s.Require().ErrorIs(err, ErrMethodNotAllowed)

	var re *RouteError
	s.Require().ErrorAs(err, &re)
	s.Equal(KindMethodNotAllowed, re.Kind)
	s.Equal([]string{"DELETE", "GET", "PUT"}, re.Allowed)
	s.Equal(PathParams{{Name: "id", Value: "3"}}, re.Params)
	s.Equal(http.StatusMethodNotAllowed, re.HTTPStatus())
	s.Equal("DELETE, GET, PUT", re.Headers().Get("Allow"))

	res := web.DefaultErrorRenderer(re.Request, err)
	s.Equal(http.StatusMethodNotAllowed, res.Status)
	s.Equal("DELETE, GET, PUT", res.Header.Get("Allow"))
}

func (s *RouterSuite) TestMostSpecificPatternDecidesMethodOutcome() {
	s.r.Route("/users/me", Get(named("me"))).Route("/users/{id}", Post(named("update")))

	_, err := call(s.T(), s.r, http.MethodPost, "/users/me")
	var re *RouteError
	s.Require().ErrorAs(err, &re)
	s.Equal(KindMethodNotAllowed, re.Kind)
	s.Equal([]string{"GET"}, re.Allowed)
}

func (s *RouterSuite) TestNotFoundKeepsNearMissParams() {
	s.r.Route("/orgs/{org}/repos/{repo}", named("repo"))

	_, err := call(s.T(), s.r, http.MethodGet, "/orgs/acme/repos")
	var re *RouteError
	s.Require().ErrorAs(err, &re)
	s.Equal(KindNotFound, re.Kind)
	s.Equal(http.StatusNotFound, re.HTTPStatus())
	s.Nil(re.Headers())
	s.Equal("acme", re.Params.Value("org"))

	res := web.DefaultErrorRenderer(re.Request, err)
	s.Equal(http.StatusNotFound, res.Status)
}

func (s *RouterSuite) TestHeadFallsBackToGet() {
	s.r.Route("/doc", Get(named("get")))
	s.r.Route("/own", Get(named("get")).Head(named("head")))

	body, err := call(s.T(), s.r, http.MethodHead, "/doc")
	s.Require().NoError(err)
	s.Equal("get /doc []", body)

	body, err = call(s.T(), s.r, http.MethodHead, "/own")
	s.Require().NoError(err)
	s.Equal("head /own []", body)
}

func (s *RouterSuite) TestAnyMethod() {
	s.r.Route("/any", Any(named("any")).Post(named("post")))

	body, err := call(s.T(), s.r, http.MethodPatch, "/any")
	s.Require().NoError(err)
	s.Equal("any /any []", body)

	body, err = call(s.T(), s.r, http.MethodPost, "/any")
	s.Require().NoError(err)
	s.Equal("post /any []", body)
}

func (s *RouterSuite) TestConflicts() {
	s.Require().NoError(s.r.TryRoute("/a/{id}", Get(named("1"))))

	err := s.r.TryRoute("/a/{id}", Get(named("2")))
	s.Require().ErrorIs(err, ErrPathConflict)
	var re *RegistrationError
	s.Require().ErrorAs(err, &re)
	s.Equal("GET", re.Method)
	s.Equal("/a/{id}", re.Pattern)

	s.ErrorIs(s.r.TryRoute("/a/{other}", Get(named("3"))), ErrPathConflict, "capture names do not change the shape")
	s.NoError(s.r.TryRoute("/a/{name}", Post(named("4"))), "another method is fine")
	s.NoError(s.r.TryRoute("/a/b", Get(named("5"))), "a different shape is fine")

	body, err := call(s.T(), s.r, http.MethodPost, "/a/9")
	s.Require().NoError(err)
	s.Equal("4 /a/9 [name=9]", body, "each method keeps its own capture names")

	s.Panics(func() { s.r.Route("/a/{id}", Get(named("again"))) })
}

func (s *RouterSuite) TestDuplicateMethodInMethodRoute() {
	err := s.r.TryRoute("/x", Get(named("a")).Get(named("b")))
	s.Require().ErrorIs(err, ErrPathConflict)
	s.Contains(err.Error(), `"/x"`)
}

func (s *RouterSuite) TestInvalidPatterns() {
	s.ErrorIs(s.r.TryRoute("x", named("x")), ErrInvalidPath)
	s.ErrorIs(s.r.TryScope("", named("x")), ErrInvalidPath)
	s.ErrorIs(s.r.TryRoute("/{*a}/b", named("x")), ErrInvalidPath)
}

func (s *RouterSuite) TestMountIsAllOrNothing() {
	s.r.Route("/taken", named("taken"))

	err := s.r.TryMount(
		NewRoute("/fresh", named("fresh")),
		NewRoute("/taken", named("again")),
	)
	s.Require().ErrorIs(err, ErrPathConflict)

	_, err = call(s.T(), s.r, http.MethodGet, "/fresh")
	s.ErrorIs(err, ErrNotFound, "a failed mount leaves the router unchanged")

	s.r.Mount(NewRoute("/fresh", Get(named("fresh"))))
	s.Equal("fresh /fresh []", s.get("/fresh"))
}

func (s *RouterSuite) TestRouteWithMiddleware() {
	tagged := web.Around(func(ctx context.Context, r *http.Request, next web.Handler) (*web.Response, error) {
		res, err := next.Call(ctx, r)
		if err != nil {
			return nil, err
		}
		return res.WithHeader("X-Tag", "on"), nil
	})
	s.r.Mount(NewRoute("/m", Get(named("m"))).With(tagged))

	req := httptest.NewRequest(http.MethodGet, "/m", nil)
	res, err := s.r.Call(req.Context(), req)
	s.Require().NoError(err)
	s.Equal("on", res.Header.Get("X-Tag"))
}

func (s *RouterSuite) TestScope() {
	files := New().
		Route("/", named("index")).
		Route("/{*path}", named("file"))
	s.r.Scope("/static", files)

	s.Equal("index / []", s.get("/static"))
	s.Equal("index / []", s.get("/static/"))
	s.Equal("file /css/site.css [path=css/site.css]", s.get("/static/css/site.css"))

	var seen string
	s.r.Scope("/q", web.HandlerFunc(func(ctx context.Context, r *http.Request) (*web.Response, error) {
		seen = r.URL.String()
		return web.NoContent(), nil
	}))
	req := httptest.NewRequest(http.MethodGet, "/q/a%20b?v=1", nil)
	_, err := s.r.Call(req.Context(), req)
	s.Require().NoError(err)
	s.Equal("/a%20b?v=1", seen, "query and escaping survive the rewrite")
}

func (s *RouterSuite) TestScopeConflictsWithRoute() {
	s.r.Route("/api", named("api"))
	err := s.r.TryScope("/api", named("scope"))
	s.ErrorIs(err, ErrPathConflict)

	_, err = call(s.T(), s.r, http.MethodGet, "/api/x")
	s.ErrorIs(err, ErrNotFound, "a failed scope registers nothing")
}

func (s *RouterSuite) TestNestedParamsAccumulate() {
	repos := New().Route("/repos/{repo}", named("repo"))
	s.r.Scope("/orgs/{org}", repos)

	s.Equal("repo /repos/relay [org=acme,repo=relay]", s.get("/orgs/acme/repos/relay"))
}

func (s *RouterSuite) TestWrappedRouterNestsLikeHandler() {
	var trace []string
	mw := web.Around(func(ctx context.Context, r *http.Request, next web.Handler) (*web.Response, error) {
		trace = append(trace, "mw "+r.URL.Path)
		return next.Call(ctx, r)
	})
	inner := New().Route("/ping", named("ping"))
	s.r.Scope("/v1", web.Wrap(inner, mw))

	s.Equal("ping /ping []", s.get("/v1/ping"))
	s.Equal([]string{"mw /ping"}, trace)

	_, err := call(s.T(), s.r, http.MethodGet, "/v1/nope")
	s.ErrorIs(err, ErrNotFound, "errors from the nested router come through the middleware")
}

func (s *RouterSuite) TestFallbackWithOrElse() {
	s.r.Route("/known", named("known"))
	h := service.OrElse[*http.Request, *web.Response](s.r, func(_ context.Context, err error) (*web.Response, error) {
		if errors.Is(err, ErrNotFound) {
			return web.Text(http.StatusNotFound, "custom 404"), nil
		}
		return nil, err
	})

	body, err := call(s.T(), h, http.MethodGet, "/unknown")
	s.Require().NoError(err)
	s.Equal("custom 404", body)
}

func (s *RouterSuite) TestTrackPattern() {
	api := New().Route("/users/{id}", named("user"))
	s.r.Scope("/api", api)

	req := httptest.NewRequest(http.MethodGet, "/api/users/3", nil)
	ctx, pattern := TrackPattern(req.Context())
	_, err := s.r.Call(ctx, req.WithContext(ctx))
	s.Require().NoError(err)
	s.Equal("/api/users/{id}", pattern())
}

func (s *RouterSuite) TestCancelledContextSkipsHandler() {
	called := false
	s.r.Route("/x", web.HandlerFunc(func(context.Context, *http.Request) (*web.Response, error) {
		called = true
		return web.NoContent(), nil
	}))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	ctx, cancel := context.WithCancel(req.Context())
	cancel()

	_, err := s.r.Call(ctx, req.WithContext(ctx))
	s.ErrorIs(err, context.Canceled)
	s.False(called)
}

func TestRouterSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(RouterSuite))
}

func TestZeroRouter(t *testing.T) {
	t.Parallel()

	var r Router
	_, err := call(t, &r, http.MethodGet, "/")
	require.ErrorIs(t, err, ErrNotFound)

	r.Route("/", named("root"))
	body, err := call(t, &r, http.MethodGet, "/")
	require.NoError(t, err)
	assert.Equal(t, "root / []", body)
}

func TestMatch(t *testing.T) {
	t.Parallel()

	r := New().
		Route("/users/{id}", Get(named("user"))).
		Scope("/assets", named("assets"))

	m := r.Match(http.MethodGet, "/users/1")
	require.NotNil(t, m.Handler)
	assert.Equal(t, "/users/{id}", m.Pattern)
	assert.False(t, m.Scope)

	m = r.Match(http.MethodGet, "/assets/img/logo.png")
	require.NotNil(t, m.Handler)
	assert.True(t, m.Scope)
	assert.Equal(t, "/assets/{*}", m.Pattern)
	assert.Equal(t, "img/logo.png", m.Tail)
	assert.Empty(t, m.Params)

	m = r.Match(http.MethodGet, "*")
	assert.Nil(t, m.Handler)
	assert.Equal(t, KindNotFound, m.Kind)
}

func ExampleRouter() {
	users := New().
		Route("/", Get(named("list"))).
		Route("/{id}", Get(named("show")))

	app := New().Scope("/users", users)

	for info := range app.Routes() {
		fmt.Println(info.Pattern, info.Methods, info.Scope)
	}

	req := httptest.NewRequest(http.MethodGet, "/users/42", nil)
	res, _ := app.Call(req.Context(), req)
	body, _ := res.ReadBody(req.Context())
	fmt.Println(string(body))

	// Output:
	// /users [*] true
	// /users/ [*] true
	// /users/{*} [*] true
	// show /42 [id=42]
}

