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

package router

import (
	"context"
	"iter"
	"net/url"
	"sync/atomic"
)

// Param is one captured path segment.
type Param struct {
	Name  string
	Value string
}

// PathParams are the captures of a matched route, in pattern order. Params
// of enclosing routers come first.
type PathParams []Param

// Get returns the value captured under name. When nested routers capture
// the same name, the innermost capture wins.
func (p PathParams) Get(name string) (string, bool) {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i].Name == name {
			return p[i].Value, true
		}
	}

	return "", false
}

// Value returns the value captured under name, or "".
func (p PathParams) Value(name string) string {
	v, _ := p.Get(name)
	return v
}

// All iterates over name/value pairs in order.
func (p PathParams) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, param := range p {
			if !yield(param.Name, param.Value) {
				return
			}
		}
	}
}

// Map returns the params as a map, innermost capture winning.
func (p PathParams) Map() map[string]string {
	m := make(map[string]string, len(p))
	for _, param := range p {
		m[param.Name] = param.Value
	}

	return m
}

type paramsKey struct{}

// Params returns the path parameters attached to ctx by the routers that
// dispatched the request.
func Params(ctx context.Context) PathParams {
	p, _ := ctx.Value(paramsKey{}).(PathParams)
	return p
}

// ParamValue returns a single path parameter from ctx.
func ParamValue(ctx context.Context, name string) string {
	return Params(ctx).Value(name)
}

func withParams(ctx context.Context, p PathParams) context.Context {
	return context.WithValue(ctx, paramsKey{}, p)
}

// extend returns parent followed by own without aliasing either slice.
func (p PathParams) extend(own PathParams) PathParams {
	if len(p) == 0 {
		return own
	}
	out := make(PathParams, 0, len(p)+len(own))

	return append(append(out, p...), own...)
}

// decode percent-decodes a raw captured value, keeping the raw text when it
// is not validly escaped.
func decode(raw string) string {
	v, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}

	return v
}

type prefixKey struct{}

type patternRecorder struct {
	pattern atomic.Pointer[string]
}

type recorderKey struct{}

// TrackPattern returns a context in which routers record the full pattern
// they dispatch to, and a function reporting the most specific pattern
// recorded so far. Middleware uses it to label requests by route.
func TrackPattern(ctx context.Context) (context.Context, func() string) {
	if rec, ok := ctx.Value(recorderKey{}).(*patternRecorder); ok {
		return ctx, rec.load
	}
	rec := &patternRecorder{}

	return context.WithValue(ctx, recorderKey{}, rec), rec.load
}

func (r *patternRecorder) load() string {
	if p := r.pattern.Load(); p != nil {
		return *p
	}

	return ""
}

// fullPattern resolves pattern against the scope prefix stored in ctx and
// reports it to any recorder.
func fullPattern(ctx context.Context, pattern string) string {
	if prefix, ok := ctx.Value(prefixKey{}).(string); ok && prefix != "" {
		pattern = joinPath(prefix, pattern)
	}
	if rec, ok := ctx.Value(recorderKey{}).(*patternRecorder); ok {
		rec.pattern.Store(&pattern)
	}

	return pattern
}

// Pattern returns the full pattern the request was dispatched to, as seen
// by the innermost router so far.
func Pattern(ctx context.Context) string {
	p, _ := ctx.Value(patternKey{}).(string)
	return p
}

type patternKey struct{}
