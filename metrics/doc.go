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

// Package metrics records HTTP server metrics with OpenTelemetry.
//
// A Recorder owns the meter provider and its exporter: Prometheus
// (default, scraped through Recorder.Handler), OTLP over HTTP, or stdout.
// Middleware instruments a handler:
//
//	rec := metrics.MustNew(metrics.WithServiceName("relay"))
//	defer rec.Shutdown(context.Background())
//
//	prom, _ := rec.Handler()
//	r.Route("/metrics", router.Get(server.FromHTTP(prom)))
//	app := web.Wrap(r, metrics.Middleware(rec, metrics.WithExcludePaths("/metrics")))
//
// Routes are labelled by their pattern, never by the raw path.
package metrics
