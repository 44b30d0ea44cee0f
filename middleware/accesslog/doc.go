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

// Package accesslog records one structured log entry per request.
//
//	logger := logging.MustNew(logging.WithConsoleHandler())
//	app := web.Wrap(r,
//		requestid.New(),
//		accesslog.New(accesslog.WithLogger(logger.Logger()), accesslog.WithSkipPaths("/healthz")),
//	)
//
// Each entry carries the method, the path, the matched route pattern, the
// status, the duration, the request id and the error, if any. Server
// errors are logged at error level, client errors at warn level and
// requests slower than the configured threshold at warn level too.
package accesslog
