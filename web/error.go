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
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	rerrors "rivaas.dev/relay/errors"
)

// ResponseError is an error that knows how to render itself.
type ResponseError interface {
	error
	Response() *Response
}

// ErrorRenderer converts an error into a response. It is the explicit step
// that ends the error path; nothing converts errors implicitly.
type ErrorRenderer func(r *http.Request, err error) *Response

// RenderWith returns an ErrorRenderer backed by an error formatter. Errors
// implementing ResponseError bypass the formatter.
func RenderWith(f rerrors.Formatter) ErrorRenderer {
	return func(r *http.Request, err error) *Response {
		var re ResponseError
		if errors.As(err, &re) {
			if res := re.Response(); res != nil {
				return res
			}
		}

		out := f.Format(r, err)
		res := NewResponse(out.Status, nil)
		for k, v := range out.Headers {
			res.Header[k] = append(res.Header[k], v...)
		}
		if out.Body == nil {
			return res
		}

		var buf bytes.Buffer
		if encErr := json.NewEncoder(&buf).Encode(out.Body); encErr != nil {
			return Text(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		}
		res.Body = Bytes(buf.Bytes())
		res.Header.Set("Content-Type", out.ContentType)

		return res
	}
}

// DefaultErrorRenderer renders RFC 9457 problem details. Internal error
// messages are hidden from clients.
var DefaultErrorRenderer = RenderWith(&rerrors.RFC9457{HideDetail: true})
