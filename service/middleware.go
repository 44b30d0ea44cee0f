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

package service

import "context"

// Middleware turns a service into another service with the same request and
// response types. Middleware is applied when routes are assembled, not per
// request.
type Middleware[Req, Res any] interface {
	Transform(next Service[Req, Res]) Service[Req, Res]
}

// MiddlewareFunc adapts a function to the Middleware interface.
type MiddlewareFunc[Req, Res any] func(next Service[Req, Res]) Service[Req, Res]

// Transform calls f(next).
func (f MiddlewareFunc[Req, Res]) Transform(next Service[Req, Res]) Service[Req, Res] {
	return f(next)
}

// Apply wraps s with the given middleware. The first middleware is the
// outermost: it sees the request first and the response last.
func Apply[Req, Res any](s Service[Req, Res], mws ...Middleware[Req, Res]) Service[Req, Res] {
	mustService(s, "Apply")
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] == nil {
			continue
		}
		s = mws[i].Transform(s)
		mustService(s, "Apply")
	}

	return s
}

// Chain composes middleware into one, outermost first.
func Chain[Req, Res any](mws ...Middleware[Req, Res]) Middleware[Req, Res] {
	if len(mws) == 0 {
		return Identity[Req, Res]()
	}
	if len(mws) == 1 && mws[0] != nil {
		return mws[0]
	}
	list := append([]Middleware[Req, Res](nil), mws...)

	return MiddlewareFunc[Req, Res](func(next Service[Req, Res]) Service[Req, Res] {
		return Apply(next, list...)
	})
}

// Identity returns middleware that leaves services unchanged.
func Identity[Req, Res any]() Middleware[Req, Res] {
	return MiddlewareFunc[Req, Res](func(next Service[Req, Res]) Service[Req, Res] {
		return next
	})
}

// Around builds middleware from a function that receives the request and
// the next service. It decides whether, when and how to call next.
//
//	logCalls := service.Around(func(ctx context.Context, req string, next service.Service[string, int]) (int, error) {
//		slog.InfoContext(ctx, "call", "req", req)
//		return next.Call(ctx, req)
//	})
func Around[Req, Res any](f func(ctx context.Context, req Req, next Service[Req, Res]) (Res, error)) Middleware[Req, Res] {
	if f == nil {
		panic(nilFunc("Around"))
	}

	return MiddlewareFunc[Req, Res](func(next Service[Req, Res]) Service[Req, Res] {
		return Func[Req, Res](func(ctx context.Context, req Req) (Res, error) {
			return f(ctx, req, next)
		})
	})
}
