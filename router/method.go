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
	"maps"
	"net/http"
	"slices"
	"strings"

	"rivaas.dev/relay/service"
	"rivaas.dev/relay/web"
)

// MethodAny stands for "every method" in RouteInfo and Remove.
const MethodAny = "*"

// MethodRoute maps HTTP methods to handlers for one pattern. Build it with
// Get, Post and friends, then chain more methods:
//
//	r.Route("/users", router.Get(list).Post(create))
//
// A MethodRoute is itself a Handler; methods it does not serve yield a
// RouteError of kind KindMethodNotAllowed.
type MethodRoute struct {
	handlers map[string]web.Handler
	any      web.Handler
	err      error
}

// Any returns a MethodRoute answering every method with h.
func Any(h web.Handler) *MethodRoute {
	return (&MethodRoute{}).Any(h)
}

// Methods returns a MethodRoute answering the given methods with h.
func Methods(h web.Handler, methods ...string) *MethodRoute {
	return (&MethodRoute{}).Methods(h, methods...)
}

// Get returns a MethodRoute answering GET with h.
func Get(h web.Handler) *MethodRoute { return Methods(h, http.MethodGet) }

// Post returns a MethodRoute answering POST with h.
func Post(h web.Handler) *MethodRoute { return Methods(h, http.MethodPost) }

// Put returns a MethodRoute answering PUT with h.
func Put(h web.Handler) *MethodRoute { return Methods(h, http.MethodPut) }

// Patch returns a MethodRoute answering PATCH with h.
func Patch(h web.Handler) *MethodRoute { return Methods(h, http.MethodPatch) }

// Delete returns a MethodRoute answering DELETE with h.
func Delete(h web.Handler) *MethodRoute { return Methods(h, http.MethodDelete) }

// Head returns a MethodRoute answering HEAD with h.
func Head(h web.Handler) *MethodRoute { return Methods(h, http.MethodHead) }

// Options returns a MethodRoute answering OPTIONS with h.
func Options(h web.Handler) *MethodRoute { return Methods(h, http.MethodOptions) }

// Connect returns a MethodRoute answering CONNECT with h.
func Connect(h web.Handler) *MethodRoute { return Methods(h, http.MethodConnect) }

// Trace returns a MethodRoute answering TRACE with h.
func Trace(h web.Handler) *MethodRoute { return Methods(h, http.MethodTrace) }

// Get adds a GET handler.
func (m *MethodRoute) Get(h web.Handler) *MethodRoute { return m.Methods(h, http.MethodGet) }

// Post adds a POST handler.
func (m *MethodRoute) Post(h web.Handler) *MethodRoute { return m.Methods(h, http.MethodPost) }

// Put adds a PUT handler.
func (m *MethodRoute) Put(h web.Handler) *MethodRoute { return m.Methods(h, http.MethodPut) }

// Patch adds a PATCH handler.
func (m *MethodRoute) Patch(h web.Handler) *MethodRoute { return m.Methods(h, http.MethodPatch) }

// Delete adds a DELETE handler.
func (m *MethodRoute) Delete(h web.Handler) *MethodRoute { return m.Methods(h, http.MethodDelete) }

// Head adds a HEAD handler.
func (m *MethodRoute) Head(h web.Handler) *MethodRoute { return m.Methods(h, http.MethodHead) }

// Options adds an OPTIONS handler.
func (m *MethodRoute) Options(h web.Handler) *MethodRoute { return m.Methods(h, http.MethodOptions) }

// Any sets the handler used for methods without their own handler.
func (m *MethodRoute) Any(h web.Handler) *MethodRoute {
	if h == nil {
		panic("router: nil handler")
	}
	if m.any != nil {
		m.fail(conflict("", MethodAny, "any-method handler set twice"))
		return m
	}
	m.any = h

	return m
}

// Methods adds h for each of methods. Registering a method twice is
// reported when the route is registered.
func (m *MethodRoute) Methods(h web.Handler, methods ...string) *MethodRoute {
	if h == nil {
		panic("router: nil handler")
	}
	if m.handlers == nil {
		m.handlers = make(map[string]web.Handler, len(methods))
	}
	for _, method := range methods {
		method = strings.ToUpper(method)
		if method == MethodAny {
			m.Any(h)
			continue
		}
		if _, exists := m.handlers[method]; exists {
			m.fail(conflict("", method, "method set twice"))
			continue
		}
		m.handlers[method] = h
	}

	return m
}

// And merges other into m.
func (m *MethodRoute) And(other *MethodRoute) *MethodRoute {
	if other.err != nil {
		m.fail(other.err)
	}
	for method, h := range other.handlers {
		m.Methods(h, method)
	}
	if other.any != nil {
		m.Any(other.any)
	}

	return m
}

// With returns a copy of m whose handlers are wrapped with mws, outermost
// first.
func (m *MethodRoute) With(mws ...web.Middleware) *MethodRoute {
	out := &MethodRoute{err: m.err, handlers: make(map[string]web.Handler, len(m.handlers))}
	for method, h := range m.handlers {
		out.handlers[method] = service.Apply(h, mws...)
	}
	if m.any != nil {
		out.any = service.Apply(m.any, mws...)
	}

	return out
}

// Allowed returns the methods with a dedicated handler, sorted.
func (m *MethodRoute) Allowed() []string {
	return slices.Sorted(maps.Keys(m.handlers))
}

// Call dispatches by method.
func (m *MethodRoute) Call(ctx context.Context, r *http.Request) (*web.Response, error) {
	if h := m.lookup(r.Method); h != nil {
		return h.Call(ctx, r)
	}

	return nil, &RouteError{
		Kind:    KindMethodNotAllowed,
		Method:  r.Method,
		Path:    r.URL.Path,
		Allowed: m.Allowed(),
		Params:  Params(ctx),
		Request: r,
	}
}

func (m *MethodRoute) lookup(method string) web.Handler {
	if h := m.handlers[method]; h != nil {
		return h
	}
	if method == http.MethodHead {
		if h := m.handlers[http.MethodGet]; h != nil {
			return h
		}
	}

	return m.any
}

func (m *MethodRoute) fail(err error) {
	if m.err == nil {
		m.err = err
	}
}

func (m *MethodRoute) empty() bool {
	return m.any == nil && len(m.handlers) == 0
}

// endpoint converts m into trie entries for pattern.
func (m *MethodRoute) endpoint(raw string, scope bool) *endpoint {
	var names []string
	if raw != "" {
		if p, err := parsePattern(raw); err == nil {
			names = p.names()
		}
	}
	ep := &endpoint{scope: scope, methods: make(map[string]*entry, len(m.handlers))}
	for method, h := range m.handlers {
		ep.methods[method] = &entry{handler: h, pattern: raw, names: names}
	}
	if m.any != nil {
		ep.any = &entry{handler: m.any, pattern: raw, names: names}
	}

	return ep
}

// toMethodRoute accepts a *MethodRoute or any other handler, which then
// serves every method.
func toMethodRoute(h web.Handler) *MethodRoute {
	if h == nil {
		panic("router: nil handler")
	}
	if mr, ok := h.(*MethodRoute); ok {
		return mr
	}

	return Any(h)
}
