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
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"rivaas.dev/relay/upgrade"
	"rivaas.dev/relay/web"
)

// HandlerOption configures Handler.
type HandlerOption func(*handler)

// WithErrorRenderer sets how errors returned by the service become
// responses. The default is web.DefaultErrorRenderer.
func WithErrorRenderer(f web.ErrorRenderer) HandlerOption {
	return func(h *handler) {
		if f != nil {
			h.render = f
		}
	}
}

// WithHandlerLogger sets the logger for write and hand-off failures.
func WithHandlerLogger(l *slog.Logger) HandlerOption {
	return func(h *handler) {
		if l != nil {
			h.logger = l
		}
	}
}

type handler struct {
	svc    web.Handler
	render web.ErrorRenderer
	logger *slog.Logger
}

// Handler returns an http.Handler that calls svc for every request.
//
// HTTP/1 requests on hijackable connections carry an upgrade.OnUpgrade in
// their context. When svc answers 101 Switching Protocols, the connection
// is hijacked, the response head is written and the connection is handed
// to the upgrade as an *upgrade.HijackedConn. For any other response the
// pending upgrade fails with upgrade.ErrNotUpgradable once the response is
// written.
func Handler(svc web.Handler, opts ...HandlerOption) http.Handler {
	h := &handler{svc: svc, render: web.DefaultErrorRenderer, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}

	return h
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var on *upgrade.OnUpgrade
	hj, hijackable := w.(http.Hijacker)
	if hijackable && r.ProtoMajor == 1 {
		on = upgrade.NewOnUpgrade()
		ctx = upgrade.WithOnUpgrade(ctx, on)
		r = r.WithContext(ctx)
		// Every exit, a panic included, resolves a hand-off still pending.
		defer on.Resolve(nil, upgrade.ErrNotUpgradable)
	}

	res, err := h.svc.Call(ctx, r)
	switch {
	case err != nil:
		res = h.render(r, err)
	case res == nil:
		res = h.render(r, errors.New("server: handler returned no response"))
	}

	if res.StatusCode() == http.StatusSwitchingProtocols {
		if on == nil {
			h.write(ctx, w, r, h.render(r, upgrade.ErrNotUpgradable))
			return
		}
		h.switchProtocols(ctx, hj, res, on)
		return
	}

	h.write(ctx, w, r, res)
}

func (h *handler) switchProtocols(ctx context.Context, hj http.Hijacker, res *web.Response, on *upgrade.OnUpgrade) {
	conn, brw, err := hj.Hijack()
	if err != nil {
		on.Resolve(nil, fmt.Errorf("server: hijack: %w", err))
		h.logger.WarnContext(ctx, "upgrade hijack failed", "error", err)
		return
	}

	if _, err = brw.WriteString("HTTP/1.1 101 Switching Protocols\r\n"); err == nil {
		if err = res.Header.Write(brw); err == nil {
			if _, err = brw.WriteString("\r\n"); err == nil {
				err = brw.Flush()
			}
		}
	}
	if err != nil {
		_ = conn.Close()
		on.Resolve(nil, fmt.Errorf("server: write switching response: %w", err))
		return
	}
	// The server's read and write deadlines must not leak into the new
	// protocol.
	_ = conn.SetDeadline(time.Time{})

	hc := &upgrade.HijackedConn{Conn: conn, Reader: brw.Reader}
	if !on.Resolve(upgrade.NewUpgraded(hc), nil) {
		_ = conn.Close()
	}
}

func (h *handler) write(ctx context.Context, w http.ResponseWriter, r *http.Request, res *web.Response) {
	hdr := w.Header()
	for k, v := range res.Header {
		hdr[k] = v
	}
	status := res.StatusCode()

	if res.Body == nil || !bodyAllowed(status) || r.Method == http.MethodHead {
		w.WriteHeader(status)
		return
	}

	if b, ok := res.Body.(web.Bytes); ok && hdr.Get("Content-Length") == "" {
		hdr.Set("Content-Length", strconv.Itoa(len(b)))
	}
	w.WriteHeader(status)

	var out io.Writer = w
	if s, ok := res.Body.(web.Streamer); ok && s.Streaming() {
		fw := &flushWriter{w: w, rc: http.NewResponseController(w)}
		fw.flush()
		out = fw
	}
	if err := res.Body.Render(ctx, out); err != nil && !errors.Is(err, context.Canceled) {
		h.logger.WarnContext(ctx, "response body failed", "error", err, "method", r.Method, "path", r.URL.Path)
	}
}

func bodyAllowed(status int) bool {
	switch {
	case status >= 100 && status < 200:
		return false
	case status == http.StatusNoContent, status == http.StatusNotModified:
		return false
	default:
		return true
	}
}

// flushWriter pushes every write to the client.
type flushWriter struct {
	w  io.Writer
	rc *http.ResponseController
}

func (f *flushWriter) Write(p []byte) (int, error) {
	n, err := f.w.Write(p)
	if err != nil {
		return n, err
	}
	f.flush()

	return n, nil
}

// flush ignores http.ErrNotSupported so wrapped writers still stream on
// a best effort basis.
func (f *flushWriter) flush() { _ = f.rc.Flush() }
