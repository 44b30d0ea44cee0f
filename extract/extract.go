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

package extract

import (
	"context"
	"errors"
	"net/http"

	"rivaas.dev/relay/router"
	"rivaas.dev/relay/validation"
	"rivaas.dev/relay/web"
)

// Extractor produces a typed value from a request.
type Extractor[T any] interface {
	Extract(ctx context.Context, r *http.Request) (T, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc[T any] func(ctx context.Context, r *http.Request) (T, error)

// Extract calls f.
func (f ExtractorFunc[T]) Extract(ctx context.Context, r *http.Request) (T, error) {
	return f(ctx, r)
}

// Handle returns a handler that extracts a T and passes it to f.
// Extraction errors are returned unchanged.
func Handle[T any](ex Extractor[T], f func(ctx context.Context, r *http.Request, v T) (*web.Response, error)) web.Handler {
	if ex == nil || f == nil {
		panic("extract: Handle with nil extractor or function")
	}

	return web.HandlerFunc(func(ctx context.Context, r *http.Request) (*web.Response, error) {
		v, err := ex.Extract(ctx, r)
		if err != nil {
			return nil, err
		}

		return f(ctx, r, v)
	})
}

// Param extracts a single path parameter.
func Param(name string) Extractor[string] {
	return ExtractorFunc[string](func(ctx context.Context, _ *http.Request) (string, error) {
		v, ok := router.Params(ctx).Get(name)
		if !ok {
			return "", missing(SourcePath, name)
		}

		return v, nil
	})
}

// Header extracts a request header.
func Header(name string) Extractor[string] {
	return ExtractorFunc[string](func(_ context.Context, r *http.Request) (string, error) {
		vs := r.Header.Values(name)
		if len(vs) == 0 {
			return "", missing(SourceHeader, http.CanonicalHeaderKey(name))
		}

		return vs[0], nil
	})
}

// Extension extracts a value stored with web.WithExtension, usually by
// middleware.
func Extension[T any]() Extractor[T] {
	return ExtractorFunc[T](func(ctx context.Context, _ *http.Request) (T, error) {
		v, ok := web.ExtensionFrom[T](ctx)
		if !ok {
			var zero T
			return zero, missing(SourceExtension, typeName[T]())
		}

		return v, nil
	})
}

// Validated runs v on every extracted value.
func Validated[T any](ex Extractor[T], v ...*validation.Validator) Extractor[T] {
	check := validation.Validate
	if len(v) > 0 && v[0] != nil {
		check = v[0].Validate
	}

	return ExtractorFunc[T](func(ctx context.Context, r *http.Request) (T, error) {
		val, err := ex.Extract(ctx, r)
		if err != nil {
			return val, err
		}
		if err := check(ctx, val); err != nil {
			var zero T
			return zero, err
		}

		return val, nil
	})
}

// Optional turns a missing value into nil. Other failures still fail.
func Optional[T any](ex Extractor[T]) Extractor[*T] {
	return ExtractorFunc[*T](func(ctx context.Context, r *http.Request) (*T, error) {
		v, err := ex.Extract(ctx, r)
		if errors.Is(err, ErrMissing) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}

		return &v, nil
	})
}

// Map converts an extracted value.
func Map[T, U any](ex Extractor[T], f func(T) (U, error)) Extractor[U] {
	return ExtractorFunc[U](func(ctx context.Context, r *http.Request) (U, error) {
		v, err := ex.Extract(ctx, r)
		if err != nil {
			var zero U
			return zero, err
		}

		return f(v)
	})
}
