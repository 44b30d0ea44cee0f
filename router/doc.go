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

// Package router provides a trie-based HTTP router that is itself a
// web.Handler.
//
// # Patterns
//
// Patterns are '/'-separated segments:
//
//	/users            literal
//	/users/{id}       named capture of one non-empty segment
//	/files/{*path}    catch-all of a non-empty remainder, slashes included
//
// A catch-all must be the last segment. Empty segments are significant, so
// "/users" and "/users/" are different routes.
//
// When several patterns match a path, literal segments win over captures
// and captures win over catch-alls, whatever the registration order. The
// selected pattern decides the outcome: when it has no handler for the
// request method the result is 405 Method Not Allowed even if a less
// specific pattern would accept the method.
//
// Registering the same shape twice for one method is an error reported at
// registration. Capture names do not count towards the shape, so
// "GET /a/{id}" and "POST /a/{name}" can coexist. Remove goes by the
// pattern text, so removing "/a/{id}" keeps "POST /a/{name}".
//
// # Composition
//
// Routers compose in three ways:
//
//	api := router.New().
//		Route("/users", router.Get(listUsers).Post(createUser)).
//		Route("/users/{id}", router.Get(showUser))
//
//	app := router.New()
//	app.Scope("/api", web.Wrap(api, auth))   // strips "/api" before calling api
//	app.ScopeMerge("/v2", api)               // copies api's routes as /v2/...
//	app.Merge(admin)                         // copies admin's routes as is
//
// Path parameters of enclosing routers are kept, so a handler under
// Scope("/orgs/{org}", ...) sees both org and its own captures in Params.
//
// # Errors
//
// Unmatched requests fail with *RouteError, an ordinary error carrying the
// HTTP status (404 or 405) and, for 405, the Allow header. Convert it to a
// response with an error renderer at the edge, or intercept it with
// service.OrElse for a custom fallback.
package router
