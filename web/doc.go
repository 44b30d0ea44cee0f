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

// Package web binds the generic service contract to HTTP.
//
// A Handler is a service.Service from *http.Request to *Response. Handlers
// return response values instead of writing to a ResponseWriter, which lets
// middleware inspect and replace responses on the way out:
//
//	hello := web.HandlerFunc(func(ctx context.Context, r *http.Request) (*web.Response, error) {
//		return web.Text(http.StatusOK, "hello"), nil
//	})
//
// Errors travel through the ordinary error result. An ErrorRenderer turns
// them into responses at the edge; DefaultErrorRenderer produces RFC 9457
// problem details and honours the HTTPStatus and Headers methods of the
// error.
//
// The context passed to Call is authoritative. Code that derives a new
// context must also pass a request carrying it (r.WithContext) so both stay
// in sync.
package web
