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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"slices"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"
	"github.com/vmihailenco/msgpack/v5"
)

// DefaultMaxBodySize limits bodies read by the body extractors.
const DefaultMaxBodySize = 10 << 20

// BodyOption configures a body extractor.
type BodyOption func(*bodyConfig)

type bodyConfig struct {
	maxSize       int64
	strict        bool
	allowAnyMedia bool
}

// WithMaxBodySize overrides DefaultMaxBodySize.
func WithMaxBodySize(n int64) BodyOption {
	return func(c *bodyConfig) { c.maxSize = n }
}

// WithStrict rejects unknown fields where the format supports it.
func WithStrict() BodyOption {
	return func(c *bodyConfig) { c.strict = true }
}

// WithAnyMediaType skips the Content-Type check.
func WithAnyMediaType() BodyOption {
	return func(c *bodyConfig) { c.allowAnyMedia = true }
}

type unmarshalFunc func(data []byte, v any, strict bool) error

// JSON decodes an application/json body (or any +json type).
func JSON[T any](opts ...BodyOption) Extractor[T] {
	return body[T](opts, []string{"application/json"}, "+json", func(data []byte, v any, strict bool) error {
		dec := json.NewDecoder(bytes.NewReader(data))
		if strict {
			dec.DisallowUnknownFields()
		}
		return dec.Decode(v)
	})
}

// MsgPack decodes a MessagePack body.
func MsgPack[T any](opts ...BodyOption) Extractor[T] {
	types := []string{"application/msgpack", "application/x-msgpack", "application/vnd.msgpack"}

	return body[T](opts, types, "", func(data []byte, v any, strict bool) error {
		dec := msgpack.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields(strict)
		return dec.Decode(v)
	})
}

// YAML decodes a YAML body.
func YAML[T any](opts ...BodyOption) Extractor[T] {
	types := []string{"application/yaml", "application/x-yaml", "text/yaml"}

	return body[T](opts, types, "+yaml", func(data []byte, v any, strict bool) error {
		var yopts []yaml.DecodeOption
		if strict {
			yopts = append(yopts, yaml.DisallowUnknownField())
		}
		return yaml.UnmarshalWithOptions(data, v, yopts...)
	})
}

// TOML decodes a TOML body.
func TOML[T any](opts ...BodyOption) Extractor[T] {
	return body[T](opts, []string{"application/toml"}, "", func(data []byte, v any, strict bool) error {
		md, err := toml.Decode(string(data), v)
		if err != nil {
			return err
		}
		if strict {
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				return fmt.Errorf("unknown field %q", undecoded[0].String())
			}
		}
		return nil
	})
}

// Bytes reads the raw body.
func Bytes(opts ...BodyOption) Extractor[[]byte] {
	cfg := newBodyConfig(opts)

	return ExtractorFunc[[]byte](func(_ context.Context, r *http.Request) ([]byte, error) {
		return readBody(r, cfg.maxSize)
	})
}

func newBodyConfig(opts []BodyOption) bodyConfig {
	cfg := bodyConfig{maxSize: DefaultMaxBodySize}
	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

func body[T any](opts []BodyOption, types []string, suffix string, unmarshal unmarshalFunc) Extractor[T] {
	cfg := newBodyConfig(opts)

	return ExtractorFunc[T](func(_ context.Context, r *http.Request) (T, error) {
		var out T
		if !cfg.allowAnyMedia {
			if err := checkMediaType(r, types[0], types[1:]...); err != nil && !hasSuffix(r, suffix) {
				return out, err
			}
		}
		data, err := readBody(r, cfg.maxSize)
		if err != nil {
			return out, err
		}
		if len(data) == 0 {
			return out, missing(SourceBody, "")
		}
		if err := unmarshal(data, &out, cfg.strict); err != nil {
			var zero T
			return zero, invalid(SourceBody, "", err)
		}

		return out, nil
	})
}

func readBody(r *http.Request, limit int64) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	defer r.Body.Close()

	src := r.Body
	if limit > 0 {
		src = io.NopCloser(io.LimitReader(r.Body, limit+1))
	}
	data, err := io.ReadAll(src)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, &Error{Kind: ErrBodyTooLarge, Source: SourceBody}
		}
		return nil, invalid(SourceBody, "", err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, &Error{Kind: ErrBodyTooLarge, Source: SourceBody}
	}

	return data, nil
}

func mediaType(r *http.Request) string {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}

	return mt
}

func checkMediaType(r *http.Request, want string, alts ...string) error {
	mt := mediaType(r)
	if mt == want || slices.Contains(alts, mt) {
		return nil
	}
	if mt == "" {
		mt = "(none)"
	}

	return &Error{Kind: ErrUnsupportedMediaType, Source: SourceBody, Err: fmt.Errorf("got %s, want %s", mt, want)}
}

func hasSuffix(r *http.Request, suffix string) bool {
	if suffix == "" {
		return false
	}
	mt := mediaType(r)

	return len(mt) > len(suffix) && mt[len(mt)-len(suffix):] == suffix
}
