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

// Package server connects a web.Handler to net/http.
//
// Handler adapts a service to an http.Handler: it renders errors, writes
// and flushes response bodies, and hands connections off to protocol
// upgrades by hijacking them after a 101 response. FromHTTP goes the
// other way and lets plain http.Handlers run inside a router.
//
// Server owns the listener lifecycle: start hooks, optional h2c and TLS,
// the startup banner and graceful shutdown when the context passed to Run
// is cancelled.
//
//	srv, err := server.New(app, server.WithConfig(cfg), server.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//	return srv.Run(ctx)
package server
