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

package static

import (
	"context"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"rivaas.dev/relay/router"
	"rivaas.dev/relay/web"
)

// DefaultIndex is the file served for a directory.
const DefaultIndex = "index.html"

// Option configures a file handler.
type Option func(*config)

type config struct {
	param string
	index string
}

// WithParam names the file by the path parameter name instead of the
// request path. Use it with catch-all routes such as "/files/{*path}".
func WithParam(name string) Option {
	return func(c *config) { c.param = name }
}

// WithIndex overrides DefaultIndex. An empty name makes directories
// not found.
func WithIndex(name string) Option {
	return func(c *config) { c.index = name }
}

type handler struct {
	fsys fs.FS
	// name is fixed for File and empty for trees.
	name string
	cfg  config
}

// File serves the file at path for every request.
func File(path string, opts ...Option) web.Handler {
	if path == "" {
		panic("static: empty file path")
	}

	return newHandler(os.DirFS(filepath.Dir(path)), filepath.Base(path), opts)
}

// Dir serves the tree below root.
func Dir(root string, opts ...Option) web.Handler {
	return FS(os.DirFS(root), opts...)
}

// FS serves the files of fsys.
func FS(fsys fs.FS, opts ...Option) web.Handler {
	if fsys == nil {
		panic("static: nil file system")
	}

	return newHandler(fsys, "", opts)
}

func newHandler(fsys fs.FS, name string, opts []Option) *handler {
	cfg := config{index: DefaultIndex}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &handler{fsys: fsys, name: name, cfg: cfg}
}

func (h *handler) Call(ctx context.Context, r *http.Request) (*web.Response, error) {
	name := h.name
	if name == "" {
		raw := r.URL.Path
		if h.cfg.param != "" {
			raw = router.Params(ctx).Value(h.cfg.param)
		}
		var ok bool
		if name, ok = clean(raw); !ok {
			return nil, &Error{Kind: ErrNotFound, Path: raw}
		}
	}

	f, info, name, err := h.open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return h.respond(r, f, info, name)
}

// clean turns a request path into an fs.FS name. Segments starting with
// ".." and segments holding a backslash or NUL are rejected.
func clean(raw string) (string, bool) {
	for seg := range strings.SplitSeq(raw, "/") {
		if strings.HasPrefix(seg, "..") || strings.ContainsAny(seg, "\\\x00") {
			return "", false
		}
	}
	name := strings.TrimPrefix(path.Clean("/"+raw), "/")
	if name == "" {
		name = "."
	}

	return name, fs.ValidPath(name)
}

// open opens name, descending into the index file of a directory.
func (h *handler) open(name string) (fs.File, fs.FileInfo, string, error) {
	f, info, err := stat(h.fsys, name)
	if err != nil {
		return nil, nil, name, err
	}
	if !info.IsDir() {
		return f, info, name, nil
	}
	_ = f.Close()
	if h.cfg.index == "" {
		return nil, nil, name, &Error{Kind: ErrNotFound, Path: name}
	}

	index := path.Join(name, h.cfg.index)
	if f, info, err = stat(h.fsys, index); err != nil {
		return nil, nil, index, err
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, nil, index, &Error{Kind: ErrNotFound, Path: index}
	}

	return f, info, index, nil
}

func stat(fsys fs.FS, name string) (fs.File, fs.FileInfo, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, nil, openError(name, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, openError(name, err)
	}

	return f, info, nil
}

func (h *handler) respond(r *http.Request, f fs.File, info fs.FileInfo, name string) (*web.Response, error) {
	// HTTP dates have second precision; a zero time stays zero.
	modified := info.ModTime().Truncate(time.Second)

	if status := preconditions(r, modified); status != 0 {
		res := web.Status(status)
		if status == http.StatusNotModified && !modified.IsZero() {
			res.WithHeader("Last-Modified", modified.UTC().Format(http.TimeFormat))
		}
		return res, nil
	}

	size := info.Size()
	start, end := int64(0), size
	if rangeApplies(r, modified) {
		var ok bool
		if start, end, ok = byteRange(r.Header.Get("Range"), size); !ok {
			return web.Status(http.StatusRequestedRangeNotSatisfiable).
				WithHeader("Content-Range", "bytes */"+strconv.FormatInt(size, 10)), nil
		}
	}

	res := web.NewResponse(http.StatusOK, &fileBody{fsys: h.fsys, name: name, offset: start, length: end - start})
	if end-start != size {
		res.Status = http.StatusPartialContent
		res.WithHeader("Content-Range", "bytes "+strconv.FormatInt(start, 10)+"-"+
			strconv.FormatInt(end-1, 10)+"/"+strconv.FormatInt(size, 10))
	}
	res.WithHeader("Content-Type", contentType(f, name)).
		WithHeader("Content-Length", strconv.FormatInt(end-start, 10)).
		WithHeader("Accept-Ranges", "bytes")
	if !modified.IsZero() {
		res.WithHeader("Last-Modified", modified.UTC().Format(http.TimeFormat))
	}

	return res, nil
}

// contentType guesses from the extension, then from the leading bytes.
func contentType(f fs.File, name string) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return "application/octet-stream"
	}

	return mt.String()
}

// fileBody reopens the file when rendered, so a response that is never
// written holds no descriptor.
type fileBody struct {
	fsys   fs.FS
	name   string
	offset int64
	length int64
}

func (b *fileBody) Render(ctx context.Context, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := b.fsys.Open(b.name)
	if err != nil {
		return openError(b.name, err)
	}
	defer f.Close()

	if b.offset > 0 {
		if s, ok := f.(io.Seeker); ok {
			if _, err := s.Seek(b.offset, io.SeekStart); err != nil {
				return err
			}
		} else if _, err := io.CopyN(io.Discard, f, b.offset); err != nil {
			return err
		}
	}
	_, err = io.CopyN(w, f, b.length)

	return err
}
