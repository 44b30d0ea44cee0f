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

// Then calls s and hands its result, success or failure, to f. The result of
// f is the result of the combined service.
func Then[Req, Res, Out any](s Service[Req, Res], f func(ctx context.Context, res Res, err error) (Out, error)) Service[Req, Out] {
	mustService(s, "Then")
	if f == nil {
		panic(nilFunc("Then"))
	}

	return Func[Req, Out](func(ctx context.Context, req Req) (Out, error) {
		res, err := s.Call(ctx, req)
		return f(ctx, res, err)
	})
}

// AndThen calls s and, when it succeeds, passes the response to f.
// Errors from s are returned unchanged and f is not called.
func AndThen[Req, Res, Out any](s Service[Req, Res], f func(ctx context.Context, res Res) (Out, error)) Service[Req, Out] {
	mustService(s, "AndThen")
	if f == nil {
		panic(nilFunc("AndThen"))
	}

	return Func[Req, Out](func(ctx context.Context, req Req) (Out, error) {
		res, err := s.Call(ctx, req)
		if err != nil {
			var zero Out
			return zero, err
		}

		return f(ctx, res)
	})
}

// OrElse calls s and, when it fails, passes the error to f, which may
// recover with a response or return another error.
// Successful responses are returned unchanged.
func OrElse[Req, Res any](s Service[Req, Res], f func(ctx context.Context, err error) (Res, error)) Service[Req, Res] {
	mustService(s, "OrElse")
	if f == nil {
		panic(nilFunc("OrElse"))
	}

	return Func[Req, Res](func(ctx context.Context, req Req) (Res, error) {
		res, err := s.Call(ctx, req)
		if err == nil {
			return res, nil
		}

		return f(ctx, err)
	})
}

// MapResponse transforms successful responses of s with f.
func MapResponse[Req, Res, Out any](s Service[Req, Res], f func(Res) Out) Service[Req, Out] {
	mustService(s, "MapResponse")
	if f == nil {
		panic(nilFunc("MapResponse"))
	}

	return Func[Req, Out](func(ctx context.Context, req Req) (Out, error) {
		res, err := s.Call(ctx, req)
		if err != nil {
			var zero Out
			return zero, err
		}

		return f(res), nil
	})
}

// MapErr transforms errors returned by s with f. The function is never
// called for successful calls. Returning nil from f is treated as returning
// the original error, so an error can't disappear by accident.
func MapErr[Req, Res any](s Service[Req, Res], f func(error) error) Service[Req, Res] {
	mustService(s, "MapErr")
	if f == nil {
		panic(nilFunc("MapErr"))
	}

	return Func[Req, Res](func(ctx context.Context, req Req) (Res, error) {
		res, err := s.Call(ctx, req)
		if err == nil {
			return res, nil
		}
		if mapped := f(err); mapped != nil {
			return res, mapped
		}

		return res, err
	})
}

// MapRequest transforms the request with f before it reaches s.
func MapRequest[In, Req, Res any](s Service[Req, Res], f func(In) Req) Service[In, Res] {
	mustService(s, "MapRequest")
	if f == nil {
		panic(nilFunc("MapRequest"))
	}

	return Func[In, Res](func(ctx context.Context, in In) (Res, error) {
		return s.Call(ctx, f(in))
	})
}

// TryMapRequest transforms the request with a fallible f. When f fails, s
// is not called and the error is returned.
func TryMapRequest[In, Req, Res any](s Service[Req, Res], f func(ctx context.Context, in In) (Req, error)) Service[In, Res] {
	mustService(s, "TryMapRequest")
	if f == nil {
		panic(nilFunc("TryMapRequest"))
	}

	return Func[In, Res](func(ctx context.Context, in In) (Res, error) {
		req, err := f(ctx, in)
		if err != nil {
			var zero Res
			return zero, err
		}

		return s.Call(ctx, req)
	})
}

// MapResult transforms the full result of s, success or failure, with f.
func MapResult[Req, Res, Out any](s Service[Req, Res], f func(Res, error) (Out, error)) Service[Req, Out] {
	mustService(s, "MapResult")
	if f == nil {
		panic(nilFunc("MapResult"))
	}

	return Func[Req, Out](func(ctx context.Context, req Req) (Out, error) {
		return f(s.Call(ctx, req))
	})
}
