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

// Package errors renders errors as HTTP error bodies.
//
// Two formatters are provided: RFC9457 (problem details, the default used by
// the web package) and Simple. Errors steer the output through optional
// interfaces:
//
//   - ErrorType: HTTPStatus() int selects the status code
//   - ErrorCode: Code() string adds a machine-readable code
//   - ErrorDetails: Details() any adds structured details
//   - ErrorHeaders: Headers() http.Header adds response headers
//
// The interfaces are looked up through wrapped errors, so
// fmt.Errorf("load user: %w", err) keeps the status of err.
package errors
