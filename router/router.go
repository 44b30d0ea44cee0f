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
	"cmp"
	"context"
	"errors"
	"iter"
	"maps"
	"net/http"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"rivaas.dev/relay/service"
	"rivaas.dev/relay/web"
)

// Router dispatches requests to handlers by path and method. It implements
// web.Handler, so routers nest inside other routers and can be wrapped by
// middleware like any handler.
//
// The route table is an immutable snapshot. Registration builds a new
// snapshot under a mutex and publishes it atomically, so registering while
// serving is safe and dispatch never sees a partial update.
//
// The zero value is an empty router ready to use.
type Router struct {
	mu   sync.Mutex
	root atomic.Pointer[node]
}

// New returns an empty router.
func New() *Router {
	return &Router{}
}

// update runs f on the current snapshot and publishes its result. When f
// fails, the router keeps its previous snapshot.
func (r *Router) update(f func(root *node) (*node, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	root, err := f(r.root.Load())
	if err != nil {
		return err
	}
	r.root.Store(root)

	return nil
}

// TryRoute registers target under pattern. A *MethodRoute registers its
// methods; any other handler serves every method.
func (r *Router) TryRoute(pattern string, target web.Handler) error {
	mr := toMethodRoute(target)

	return r.update(func(root *node) (*node, error) {
		return insertMethodRoute(root, pattern, mr, false)
	})
}

// Route is like TryRoute but panics on error. It returns r for chaining.
func (r *Router) Route(pattern string, target web.Handler) *Router {
	must(r.TryRoute(pattern, target))
	return r
}

// TryScope mounts target under prefix and strips the prefix from the
// request path before calling it; the nested path always starts with '/'.
// A prefix "/api" registers "/api", "/api/" and "/api/{*}"; a prefix ending
// in '/' registers the last two; a prefix ending in "/{*}" only itself.
func (r *Router) TryScope(prefix string, target web.Handler) error {
	if _, err := parsePattern(prefix); err != nil {
		return err
	}
	mr := toMethodRoute(target)

	return r.update(func(root *node) (*node, error) {
		var err error
		for _, p := range scopePatterns(prefix) {
			if root, err = insertMethodRoute(root, p, mr, true); err != nil {
				return nil, err
			}
		}

		return root, nil
	})
}

// Scope is like TryScope but panics on error.
func (r *Router) Scope(prefix string, target web.Handler) *Router {
	must(r.TryScope(prefix, target))
	return r
}

// TryMount registers prebuilt routes. Either every route is registered or,
// on error, none is.
func (r *Router) TryMount(routes ...Route) error {
	return r.update(func(root *node) (*node, error) {
		var err error
		for _, rt := range routes {
			if rt.target == nil {
				return nil, invalidPath(rt.pattern, "route has no handler")
			}
			if root, err = insertMethodRoute(root, rt.pattern, rt.target, false); err != nil {
				return nil, err
			}
		}

		return root, nil
	})
}

// Mount is like TryMount but panics on error.
func (r *Router) Mount(routes ...Route) *Router {
	must(r.TryMount(routes...))
	return r
}

// TryMerge copies every route and scope of other into r.
func (r *Router) TryMerge(other *Router) error {
	return r.TryMergeWith(other)
}

// Merge is like TryMerge but panics on error.
func (r *Router) Merge(other *Router) *Router {
	must(r.TryMerge(other))
	return r
}

// TryMergeWith copies other into r, wrapping every copied handler with mws.
// other is not modified.
func (r *Router) TryMergeWith(other *Router, mws ...web.Middleware) error {
	return r.merge("", other, mws)
}

// MergeWith is like TryMergeWith but panics on error.
func (r *Router) MergeWith(other *Router, mws ...web.Middleware) *Router {
	must(r.TryMergeWith(other, mws...))
	return r
}

// TryScopeMerge copies other into r with prefix prepended to every pattern:
// "/x" merged under "/api" becomes "/api/x". Unlike TryScope the request
// path is not rewritten. An empty prefix fails with ErrEmptyPrefix.
func (r *Router) TryScopeMerge(prefix string, other *Router) error {
	return r.TryScopeMergeWith(prefix, other)
}

// ScopeMerge is like TryScopeMerge but panics on error.
func (r *Router) ScopeMerge(prefix string, other *Router) *Router {
	must(r.TryScopeMerge(prefix, other))
	return r
}

// TryScopeMergeWith is TryScopeMerge with middleware applied to every copied
// handler.
func (r *Router) TryScopeMergeWith(prefix string, other *Router, mws ...web.Middleware) error {
	if prefix == "" {
		return &RegistrationError{Kind: ErrEmptyPrefix, Reason: "use Merge to merge without a prefix"}
	}
	if _, err := parsePattern(prefix); err != nil {
		return err
	}

	return r.merge(prefix, other, mws)
}

// ScopeMergeWith is like TryScopeMergeWith but panics on error.
func (r *Router) ScopeMergeWith(prefix string, other *Router, mws ...web.Middleware) *Router {
	must(r.TryScopeMergeWith(prefix, other, mws...))
	return r
}

func (r *Router) merge(prefix string, other *Router, mws []web.Middleware) error {
	if other == nil {
		return nil
	}
	src := other.root.Load()

	return r.update(func(root *node) (*node, error) {
		var err error
		for ep := range src.endpoints() {
			for _, e := range ep.entries() {
				raw := e.pattern
				if prefix != "" {
					raw = joinPath(prefix, raw)
				}
				mr := &MethodRoute{}
				if e.method == MethodAny {
					mr.Any(service.Apply(e.handler, mws...))
				} else {
					mr.Methods(service.Apply(e.handler, mws...), e.method)
				}
				if root, err = insertMethodRoute(root, raw, mr, ep.scope); err != nil {
					return nil, err
				}
			}
		}

		return root, nil
	})
}

// Remove deletes what is registered under pattern: the given methods only,
// or everything when no method is given. MethodAny removes the any-method
// handler. Only entries registered with the same pattern text are touched,
// so "/a/{name}" survives Remove("/a/{id}"). Remove reports whether
// anything was deleted. Requests already dispatched keep running with the
// handler they resolved.
func (r *Router) Remove(pattern string, methods ...string) bool {
	p, err := parsePattern(pattern)
	if err != nil {
		return false
	}

	var removed bool
	_ = r.update(func(root *node) (*node, error) {
		next, changed := root.remove(p, 0, func(ep *endpoint) (*endpoint, bool) {
			return dropEntries(ep, pattern, methods)
		})
		removed = changed
		if !changed {
			return root, nil
		}

		return next, nil
	})

	return removed
}

func dropEntries(ep *endpoint, pattern string, methods []string) (*endpoint, bool) {
	own := func(e *entry) bool { return e != nil && e.pattern == pattern }

	c := ep.clone()
	changed := false
	if len(methods) == 0 {
		for m, e := range c.methods {
			if own(e) {
				delete(c.methods, m)
				changed = true
			}
		}
		if own(c.any) {
			c.any = nil
			changed = true
		}
	}
	for _, m := range methods {
		m = strings.ToUpper(m)
		if m == MethodAny {
			if own(c.any) {
				c.any = nil
				changed = true
			}
			continue
		}
		if own(c.methods[m]) {
			delete(c.methods, m)
			changed = true
		}
	}
	if !changed {
		return ep, false
	}
	if c.empty() {
		return nil, true
	}

	return c, true
}

// RouteInfo describes one registered pattern.
type RouteInfo struct {
	Pattern string
	// Methods is sorted; MethodAny, when present, comes last.
	Methods []string
	Scope   bool
}

// Routes returns the registered patterns with their methods. Each
// iteration reads the table as of the moment it starts, in a fixed order:
// literal segments sorted, then captures, then catch-alls.
func (r *Router) Routes() iter.Seq[RouteInfo] {
	return func(yield func(RouteInfo) bool) {
		root := r.root.Load()
		for ep := range root.endpoints() {
			byPattern := make(map[string][]string)
			var order []string
			for _, e := range ep.entries() {
				if _, ok := byPattern[e.pattern]; !ok {
					order = append(order, e.pattern)
				}
				byPattern[e.pattern] = append(byPattern[e.pattern], e.method)
			}
			for _, p := range order {
				if !yield(RouteInfo{Pattern: p, Methods: byPattern[p], Scope: ep.scope}) {
					return
				}
			}
		}
	}
}

type namedEntry struct {
	*entry
	method string
}

// entries lists the endpoint's entries sorted by pattern, then method,
// with the any-method entry last within its pattern.
func (ep *endpoint) entries() []namedEntry {
	out := make([]namedEntry, 0, len(ep.methods)+1)
	for _, m := range slices.Sorted(maps.Keys(ep.methods)) {
		out = append(out, namedEntry{entry: ep.methods[m], method: m})
	}
	if ep.any != nil {
		out = append(out, namedEntry{entry: ep.any, method: MethodAny})
	}
	slices.SortStableFunc(out, func(a, b namedEntry) int {
		return cmp.Compare(a.pattern, b.pattern)
	})

	return out
}

// Match is the result of resolving a method and path.
type Match struct {
	// Handler is nil when nothing matched; Kind then says why.
	Handler web.Handler
	Kind    Kind
	Pattern string
	Params  PathParams
	Allowed []string
	Scope   bool
	// Tail is the raw path remainder captured by a scope, without its
	// leading '/'.
	Tail string
}

// Match resolves method and an escaped request path without calling the
// handler. Captured values are percent-decoded after matching.
func (r *Router) Match(method, path string) Match {
	root := r.root.Load()
	if root == nil {
		return Match{Kind: KindNotFound}
	}
	if path == "" {
		path = "/"
	}
	if path[0] != '/' {
		return Match{Kind: KindNotFound}
	}

	m := matcher{segs: splitPath(path), bestDepth: -1}
	leaf := m.walk(root, 0)
	if leaf == nil {
		params, _ := bind(nil, m.bestCaps)
		return Match{Kind: KindNotFound, Params: params}
	}

	e := leaf.ep.lookup(method)
	if e == nil {
		params, _ := bind(nil, m.caps)
		return Match{
			Kind:    KindMethodNotAllowed,
			Params:  params,
			Allowed: leaf.ep.allowed(),
			Scope:   leaf.ep.scope,
		}
	}

	params, tail := bind(e.names, m.caps)

	return Match{
		Handler: e.handler,
		Pattern: e.pattern,
		Params:  params,
		Scope:   leaf.ep.scope,
		Tail:    tail,
	}
}

// bind names captures, preferring names over the node labels. An anonymous
// catch-all is returned as the tail instead of a param.
func bind(names []string, caps []capture) (PathParams, string) {
	if len(caps) == 0 {
		return nil, ""
	}

	var tail string
	params := make(PathParams, 0, len(caps))
	for i, c := range caps {
		name := c.name
		if i < len(names) {
			name = names[i]
		}
		if c.wildcard && name == "" {
			tail = c.raw
			continue
		}
		params = append(params, Param{Name: name, Value: decode(c.raw)})
	}

	return params, tail
}

// Call implements web.Handler.
func (r *Router) Call(ctx context.Context, req *http.Request) (*web.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := r.Match(req.Method, req.URL.EscapedPath())
	params := Params(ctx).extend(m.Params)
	if m.Handler == nil {
		return nil, &RouteError{
			Kind:    m.Kind,
			Method:  req.Method,
			Path:    req.URL.Path,
			Allowed: m.Allowed,
			Params:  params,
			Request: req,
		}
	}

	ctx = withParams(ctx, params)
	full := fullPattern(ctx, m.Pattern)
	ctx = context.WithValue(ctx, patternKey{}, full)
	if !m.Scope {
		return m.Handler.Call(ctx, req.WithContext(ctx))
	}

	ctx = context.WithValue(ctx, prefixKey{}, scopeBase(full))

	return m.Handler.Call(ctx, rewritePath(req.WithContext(ctx), m.Tail))
}

// rewritePath points a shallow request copy at "/" + tail, keeping the
// query string.
func rewritePath(req *http.Request, tail string) *http.Request {
	u := *req.URL
	raw := "/" + tail
	u.Path = decode(raw)
	u.RawPath = ""
	if u.Path != raw {
		u.RawPath = raw
	}
	req.URL = &u

	return req
}

func insertMethodRoute(root *node, raw string, mr *MethodRoute, scope bool) (*node, error) {
	p, err := parsePattern(raw)
	if err != nil {
		return nil, err
	}
	if mr.err != nil {
		var re *RegistrationError
		if errors.As(mr.err, &re) && re.Pattern == "" {
			cp := *re
			cp.Pattern = raw
			return nil, &cp
		}
		return nil, mr.err
	}
	if mr.empty() {
		return nil, invalidPath(raw, "route has no handler")
	}

	add := mr.endpoint(raw, scope)

	return root.insert(p, 0, func(cur *endpoint) (*endpoint, error) {
		return mergeEndpoint(cur, add, raw)
	})
}

func mergeEndpoint(cur, add *endpoint, raw string) (*endpoint, error) {
	if !cur.empty() && cur.scope != add.scope {
		return nil, conflict(raw, "", "a route and a scope cannot share a path")
	}

	out := cur.clone()
	out.scope = add.scope
	for _, m := range slices.Sorted(maps.Keys(add.methods)) {
		if prev, exists := out.methods[m]; exists {
			return nil, conflict(raw, m, "already registered as "+prev.pattern)
		}
		out.methods[m] = add.methods[m]
	}
	if add.any != nil {
		if out.any != nil {
			return nil, conflict(raw, MethodAny, "already registered as "+out.any.pattern)
		}
		out.any = add.any
	}

	return out, nil
}

func scopePatterns(prefix string) []string {
	switch {
	case strings.HasSuffix(prefix, "/{*}"):
		return []string{prefix}
	case strings.HasSuffix(prefix, "/"):
		return []string{prefix + "{*}", prefix}
	default:
		return []string{prefix + "/{*}", prefix + "/", prefix}
	}
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
