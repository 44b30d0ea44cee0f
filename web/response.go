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
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/goccy/go-yaml"
	"github.com/vmihailenco/msgpack/v5"
)

// Content types used by the built-in responders.
const (
	ContentTypeText    = "text/plain; charset=utf-8"
	ContentTypeHTML    = "text/html; charset=utf-8"
	ContentTypeJSON    = "application/json; charset=utf-8"
	ContentTypeYAML    = "application/x-yaml; charset=utf-8"
	ContentTypeMsgPack = "application/msgpack"
)

// Body produces the bytes of a response. Render is called once, after the
// status line and headers have been sent.
type Body interface {
	Render(ctx context.Context, w io.Writer) error
}

// Streamer is implemented by bodies that must be flushed to the client after
// every write, such as event streams.
type Streamer interface {
	Body
	Streaming() bool
}

// Response is the value returned by a Handler.
type Response struct {
	Status int
	Header http.Header
	Body   Body
}

// NewResponse creates a response with the given status and body. A nil body
// produces an empty response.
func NewResponse(status int, body Body) *Response {
	return &Response{
		Status: status,
		Header: make(http.Header),
		Body:   body,
	}
}

// WithHeader sets a header and returns the response for chaining.
func (r *Response) WithHeader(key, value string) *Response {
	if r.Header == nil {
		r.Header = make(http.Header)
	}
	r.Header.Set(key, value)

	return r
}

// WithStatus replaces the status code and returns the response.
func (r *Response) WithStatus(status int) *Response {
	r.Status = status
	return r
}

// StatusCode returns the status, treating zero as 200 like net/http does.
func (r *Response) StatusCode() int {
	if r == nil || r.Status == 0 {
		return http.StatusOK
	}

	return r.Status
}

// ReadBody renders the body into memory. It is meant for tests and for
// middleware that needs to inspect small bodies; streaming bodies are read
// until they finish.
func (r *Response) ReadBody(ctx context.Context) ([]byte, error) {
	if r == nil || r.Body == nil {
		return nil, nil
	}
	var buf bytes.Buffer
	if err := r.Body.Render(ctx, &buf); err != nil {
		return buf.Bytes(), err
	}

	return buf.Bytes(), nil
}

// Bytes is a body backed by a byte slice.
type Bytes []byte

// Render writes b to w.
func (b Bytes) Render(_ context.Context, w io.Writer) error {
	_, err := w.Write(b)
	return err
}

// ReaderBody copies from an io.Reader. Readers that are also io.Closer are
// closed after rendering, whether or not the copy succeeded.
type ReaderBody struct {
	R io.Reader
}

// Render copies the reader to w.
func (b ReaderBody) Render(ctx context.Context, w io.Writer) error {
	if c, ok := b.R.(io.Closer); ok {
		defer c.Close()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := io.Copy(w, b.R)

	return err
}

// StreamFunc is a body written incrementally by a function. Each write is
// flushed to the client. The function must return once ctx is done.
type StreamFunc func(ctx context.Context, w io.Writer) error

// Render calls f.
func (f StreamFunc) Render(ctx context.Context, w io.Writer) error {
	return f(ctx, w)
}

// Streaming reports true.
func (StreamFunc) Streaming() bool { return true }

// Text returns a plain text response.
func Text(status int, s string) *Response {
	return NewResponse(status, Bytes(s)).WithHeader("Content-Type", ContentTypeText)
}

// Textf formats according to a format specifier and returns a text response.
func Textf(status int, format string, args ...any) *Response {
	return Text(status, fmt.Sprintf(format, args...))
}

// HTML returns an HTML response.
func HTML(status int, html string) *Response {
	return NewResponse(status, Bytes(html)).WithHeader("Content-Type", ContentTypeHTML)
}

// Blob returns a response with an arbitrary content type. An empty
// contentType is sniffed from the data.
func Blob(status int, contentType string, data []byte) *Response {
	if contentType == "" {
		contentType = mimetype.Detect(data).String()
	}

	return NewResponse(status, Bytes(data)).WithHeader("Content-Type", contentType)
}

// JSON encodes v and returns a JSON response. Encoding happens eagerly so a
// failure is reported before anything is sent.
func JSON(status int, v any) (*Response, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("JSON encoding failed for type %T: %w", v, err)
	}

	return Blob(status, ContentTypeJSON, buf.Bytes()), nil
}

// YAML encodes v and returns a YAML response.
func YAML(status int, v any) (*Response, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("YAML encoding failed for type %T: %w", v, err)
	}

	return Blob(status, ContentTypeYAML, data), nil
}

// MsgPack encodes v and returns a MessagePack response.
func MsgPack(status int, v any) (*Response, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("msgpack encoding failed for type %T: %w", v, err)
	}

	return Blob(status, ContentTypeMsgPack, data), nil
}

// Stream returns a streaming response with the given content type.
func Stream(status int, contentType string, f StreamFunc) *Response {
	return NewResponse(status, f).WithHeader("Content-Type", contentType)
}

// Redirect returns a redirect to location. Common codes are 301, 302, 303,
// 307 and 308.
func Redirect(status int, location string) *Response {
	return NewResponse(status, nil).WithHeader("Location", location)
}

// Status returns an empty response with the given status.
func Status(status int) *Response {
	return NewResponse(status, nil)
}

// NoContent returns 204 No Content.
func NoContent() *Response {
	return Status(http.StatusNoContent)
}
