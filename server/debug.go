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

package server

import (
	"net/http"
	"net/http/pprof"

	"rivaas.dev/relay/router"
)

// DebugRoutes serves the pprof handlers under /pprof. net/http/pprof
// expects the profiles at /debug/pprof, so scope-merge the result under
// "/debug". The endpoints expose process internals; guard them.
func DebugRoutes() *router.Router {
	return router.New().
		Route("/pprof", router.Get(FromHTTP(http.HandlerFunc(pprof.Index)))).
		Route("/pprof/cmdline", router.Get(FromHTTP(http.HandlerFunc(pprof.Cmdline)))).
		Route("/pprof/profile", router.Get(FromHTTP(http.HandlerFunc(pprof.Profile)))).
		Route("/pprof/symbol", router.Methods(FromHTTP(http.HandlerFunc(pprof.Symbol)), http.MethodGet, http.MethodPost)).
		Route("/pprof/trace", router.Get(FromHTTP(http.HandlerFunc(pprof.Trace)))).
		Route("/pprof/{profile}", router.Get(FromHTTP(http.HandlerFunc(pprof.Index))))
}
