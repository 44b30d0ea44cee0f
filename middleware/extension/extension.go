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

// Package extension injects typed values into request contexts, where
// handlers read them with web.ExtensionFrom or extract.Extension.
package extension

import (
	"context"
	"net/http"

	"rivaas.dev/relay/web"
)

// New stores v in every request context.
func New[T any](v T) web.Middleware {
	return web.Around(func(ctx context.Context, r *http.Request, next web.Handler) (*web.Response, error) {
		ctx = web.WithExtension(ctx, v)
		return next.Call(ctx, r.WithContext(ctx))
	})
}

// Func stores the value f computes for each request. An error from f
// aborts the request.
func Func[T any](f func(ctx context.Context, r *http.Request) (T, error)) web.Middleware {
	return web.Around(func(ctx context.Context, r *http.Request, next web.Handler) (*web.Response, error) {
		v, err := f(ctx, r)
		if err != nil {
			return nil, err
		}
		ctx = web.WithExtension(ctx, v)

		return next.Call(ctx, r.WithContext(ctx))
	})
}
