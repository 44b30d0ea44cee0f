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

// Package catch converts handler errors into responses inside the
// pipeline, so outer middleware sees a rendered response instead of an
// error.
package catch

import (
	"context"
	"net/http"

	"rivaas.dev/relay/web"
)

// New renders every error with render. A nil render uses
// web.DefaultErrorRenderer.
func New(render web.ErrorRenderer) web.Middleware {
	if render == nil {
		render = web.DefaultErrorRenderer
	}

	return Func(func(_ context.Context, r *http.Request, err error) (*web.Response, error) {
		return render(r, err), nil
	})
}

// Func hands errors to f, which may answer with a response or return an
// error of its own. Successful responses pass through.
func Func(f func(ctx context.Context, r *http.Request, err error) (*web.Response, error)) web.Middleware {
	return web.Around(func(ctx context.Context, r *http.Request, next web.Handler) (*web.Response, error) {
		res, err := next.Call(ctx, r)
		if err == nil {
			return res, nil
		}

		return f(ctx, r, err)
	})
}
