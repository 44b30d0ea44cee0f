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

// Package service defines the request/response contract shared by handlers,
// middleware, routers and upgrade logic, plus a small set of generic
// combinators for composing them.
//
// A Service is anything with a Call method:
//
//	type Service[Req, Res any] interface {
//		Call(ctx context.Context, req Req) (Res, error)
//	}
//
// Combinators wrap one Service in another of the same contract, so wrapped
// values nest without limit:
//
//	svc := service.MapErr(
//		service.AndThen(lookup, render),
//		func(err error) error { return fmt.Errorf("users: %w", err) },
//	)
//
// Middleware transforms a Service into a new Service. Applying middleware to
// a router yields a Service again, which can be mounted inside another router
// exactly like a plain handler.
//
// Every Service must tolerate concurrent calls. Cancellation is carried by
// the context passed to Call; a Service that blocks must return promptly once
// the context is done.
package service
