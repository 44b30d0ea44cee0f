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

// Package tracing creates OpenTelemetry server spans for relay handlers.
//
// A Tracer owns the tracer provider and exporter:
//
//	t, err := tracing.New(
//		tracing.WithServiceName("orders"),
//		tracing.WithOTLP("collector:4317", tracing.OTLPInsecure()),
//		tracing.WithSampleRate(0.25),
//	)
//	if err != nil {
//		return err
//	}
//	defer t.Shutdown(context.Background())
//
//	h := web.Wrap(routes, tracing.Middleware(t, tracing.WithExcludePaths("/healthz")))
//
// Incoming W3C traceparent and baggage headers are honored, so spans join
// the caller's trace. Span names use the matched route pattern, never the
// raw path.
package tracing
