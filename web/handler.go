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

package web

import (
	"context"
	"net/http"

	"rivaas.dev/relay/service"
)

// Handler is a service answering HTTP requests.
type Handler = service.Service[*http.Request, *Response]

// HandlerFunc adapts a function to Handler.
type HandlerFunc = service.Func[*http.Request, *Response]

// Middleware wraps a Handler.
type Middleware = service.Middleware[*http.Request, *Response]

// MiddlewareFunc adapts a function to Middleware.
type MiddlewareFunc = service.MiddlewareFunc[*http.Request, *Response]

// Wrap applies middleware to h, outermost first.
func Wrap(h Handler, mws ...Middleware) Handler {
	return service.Apply(h, mws...)
}

// Around builds HTTP middleware from a function.
func Around(f func(ctx context.Context, r *http.Request, next Handler) (*Response, error)) Middleware {
	return service.Around(f)
}

// Respond returns a handler that always answers with a copy of res.
func Respond(res *Response) Handler {
	return HandlerFunc(func(context.Context, *http.Request) (*Response, error) {
		cp := *res
		cp.Header = res.Header.Clone()
		return &cp, nil
	})
}

type extensionKey[T any] struct{}

// WithExtension stores a typed value in ctx. Values are keyed by their type,
// so each type holds at most one value per context.
func WithExtension[T any](ctx context.Context, v T) context.Context {
	return context.WithValue(ctx, extensionKey[T]{}, v)
}

// ExtensionFrom returns the value of type T stored with WithExtension.
func ExtensionFrom[T any](ctx context.Context) (T, bool) {
	v, ok := ctx.Value(extensionKey[T]{}).(T)
	return v, ok
}
