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

// Package extract turns requests into typed values.
//
// An Extractor reads one thing from a request: path parameters, the query,
// a form, a multipart upload, a header, a body in JSON, MessagePack, YAML
// or TOML, or a value stored in the context by middleware. Handle binds an extractor to a typed
// function and yields a web.Handler:
//
//	create := extract.Handle(extract.Validated(extract.JSON[CreateUser]()),
//		func(ctx context.Context, r *http.Request, in CreateUser) (*web.Response, error) {
//			return web.JSON(http.StatusCreated, in)
//		})
//
// Failures are *Error values carrying a status code (400, 413 or 415),
// or *validation.Error (422) from Validated.
package extract
