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

package server

import (
	"bytes"
	"context"
	"net/http"

	"rivaas.dev/relay/web"
)

// FromHTTP adapts an http.Handler to a web.Handler. The handler runs to
// completion against a buffering writer, so FromHTTP suits handlers with
// bounded output such as metrics or health endpoints, not streams.
func FromHTTP(h http.Handler) web.Handler {
	return web.HandlerFunc(func(ctx context.Context, r *http.Request) (*web.Response, error) {
		if r.Context() != ctx {
			r = r.WithContext(ctx)
		}
		rec := &bufferedWriter{header: make(http.Header)}
		h.ServeHTTP(rec, r)

		res := web.NewResponse(rec.statusCode(), nil)
		res.Header = rec.header
		if rec.body.Len() > 0 {
			res.Body = web.Bytes(rec.body.Bytes())
		}

		return res, nil
	})
}

type bufferedWriter struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func (b *bufferedWriter) Header() http.Header { return b.header }

func (b *bufferedWriter) WriteHeader(status int) {
	if b.status == 0 {
		b.status = status
	}
}

func (b *bufferedWriter) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}

	return b.body.Write(p)
}

func (b *bufferedWriter) statusCode() int {
	if b.status == 0 {
		return http.StatusOK
	}

	return b.status
}
