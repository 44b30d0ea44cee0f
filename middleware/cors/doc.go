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

// Package cors handles Cross-Origin Resource Sharing.
//
//	h := web.Wrap(routes, cors.New(
//		cors.WithAllowedOrigins("https://example.com", "https://*.example.com"),
//		cors.WithAllowedMethods("GET", "POST"),
//		cors.WithAllowCredentials(true),
//	))
//
// Preflight requests (OPTIONS carrying Access-Control-Request-Method) are
// answered directly with 204 and never reach the wrapped handler, unless
// WithOptionsPassthrough is set. Requests from origins that are not
// allowed pass through without CORS headers; the browser then blocks the
// response.
//
// Credentials cannot be combined with WithAllowAllOrigins; New panics on
// that configuration.
package cors
