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

import "rivaas.dev/relay/web"

// Route is a pattern bound to a target, built ahead of registration and
// registered with Router.Mount. Routes let packages export their endpoints
// without access to the router:
//
//	func Routes() []router.Route {
//		return []router.Route{
//			router.NewRoute("/users", router.Get(list).Post(create)),
//			router.NewRoute("/users/{id}", router.Get(show)).With(auth),
//		}
//	}
type Route struct {
	pattern string
	target  *MethodRoute
}

// NewRoute binds target to pattern. A plain handler serves every method.
func NewRoute(pattern string, target web.Handler) Route {
	return Route{pattern: pattern, target: toMethodRoute(target)}
}

// Pattern returns the route pattern.
func (rt Route) Pattern() string { return rt.pattern }

// Methods returns the route's method handlers.
func (rt Route) Methods() *MethodRoute { return rt.target }

// With returns a copy of the route with its handlers wrapped by mws.
func (rt Route) With(mws ...web.Middleware) Route {
	if rt.target == nil {
		return rt
	}

	return Route{pattern: rt.pattern, target: rt.target.With(mws...)}
}
