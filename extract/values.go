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
	"fmt"
	"net/http"
	"net/url"
	"reflect"

	"github.com/go-viper/mapstructure/v2"

	"rivaas.dev/relay/router"
)

// Path decodes all path parameters into a T, matched by the `param`
// struct tag. Values are converted with weak typing, so "42" fills an
// int field.
func Path[T any]() Extractor[T] {
	return ExtractorFunc[T](func(ctx context.Context, _ *http.Request) (T, error) {
		in := make(map[string]any)
		for k, v := range router.Params(ctx).Map() {
			in[k] = v
		}

		return decode[T](SourcePath, "param", in)
	})
}

// Query decodes the URL query into a T, matched by the `query` tag.
// Repeated keys fill slices.
func Query[T any]() Extractor[T] {
	return ExtractorFunc[T](func(_ context.Context, r *http.Request) (T, error) {
		return decode[T](SourceQuery, "query", flatten(r.URL.Query()))
	})
}

// Form decodes a URL-encoded body into a T, matched by the `form` tag.
// For GET and HEAD requests the query is used.
func Form[T any]() Extractor[T] {
	return ExtractorFunc[T](func(_ context.Context, r *http.Request) (T, error) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			return decode[T](SourceForm, "form", flatten(r.URL.Query()))
		}
		if err := checkMediaType(r, "application/x-www-form-urlencoded"); err != nil {
			var zero T
			return zero, err
		}
		if err := r.ParseForm(); err != nil {
			var zero T
			return zero, invalid(SourceForm, "", err)
		}

		return decode[T](SourceForm, "form", flatten(r.PostForm))
	})
}

func flatten(vs url.Values) map[string]any {
	out := make(map[string]any, len(vs))
	for k, v := range vs {
		if len(v) == 1 {
			out[k] = v[0]
			continue
		}
		out[k] = v
	}

	return out
}

func decode[T any](src Source, tag string, in map[string]any) (T, error) {
	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		TagName:          tag,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToTimeHookFunc("2006-01-02T15:04:05Z07:00"),
			mapstructure.TextUnmarshallerHookFunc(),
		),
	})
	if err != nil {
		return out, fmt.Errorf("extract: decoder for %s: %w", typeName[T](), err)
	}
	if err := dec.Decode(in); err != nil {
		var zero T
		return zero, invalid(src, "", err)
	}

	return out, nil
}

func typeName[T any]() string {
	return reflect.TypeFor[T]().String()
}
