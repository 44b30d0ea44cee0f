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

// Package logging builds *slog.Logger values for relay services.
//
//	l := logging.MustNew(
//		logging.WithConsoleHandler(),
//		logging.WithServiceName("orders"),
//		logging.WithLevel(logging.LevelDebug),
//	)
//	l.Logger().Info("listening", "addr", ":8080")
//
// Every record logged with a context carrying an OpenTelemetry span gets
// trace_id and span_id attributes. Attributes named password, token,
// secret, api_key or authorization are redacted.
//
// Middleware puts a request-scoped logger into the context, which
// handlers retrieve with FromContext.
package logging
