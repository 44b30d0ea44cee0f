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
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// DefaultMaxMemory is how much of a multipart body is held in memory.
// File parts beyond it spill to temporary files.
const DefaultMaxMemory = 32 << 20

// MultipartForm is a parsed multipart/form-data body. Temporary files
// backing large parts stay on disk until RemoveAll.
type MultipartForm struct {
	form *multipart.Form
}

// Value returns the first value of a text field.
func (m *MultipartForm) Value(key string) string {
	if vs := m.form.Value[key]; len(vs) > 0 {
		return vs[0]
	}

	return ""
}

// Values returns every text field.
func (m *MultipartForm) Values() url.Values {
	return url.Values(m.form.Value)
}

// File returns the first file uploaded under name.
func (m *MultipartForm) File(name string) (*File, error) {
	headers := m.form.File[name]
	if len(headers) == 0 {
		return nil, missing(SourceForm, name)
	}

	return newFile(headers[0]), nil
}

// Files returns every file uploaded under name.
func (m *MultipartForm) Files(name string) ([]*File, error) {
	headers := m.form.File[name]
	if len(headers) == 0 {
		return nil, missing(SourceForm, name)
	}
	files := make([]*File, 0, len(headers))
	for _, fh := range headers {
		files = append(files, newFile(fh))
	}

	return files, nil
}

// HasFile reports whether at least one file was uploaded under name.
func (m *MultipartForm) HasFile(name string) bool {
	return len(m.form.File[name]) > 0
}

// RemoveAll deletes the temporary files of the form.
func (m *MultipartForm) RemoveAll() error {
	return m.form.RemoveAll()
}

// Multipart parses a multipart/form-data body. The body size limit of
// the options applies to the whole body.
func Multipart(opts ...BodyOption) Extractor[*MultipartForm] {
	cfg := newBodyConfig(opts)

	return ExtractorFunc[*MultipartForm](func(_ context.Context, r *http.Request) (*MultipartForm, error) {
		return parseMultipart(r, cfg)
	})
}

// MultipartFields decodes the text fields of a multipart body into a T,
// matched by the `form` tag.
func MultipartFields[T any](opts ...BodyOption) Extractor[T] {
	cfg := newBodyConfig(opts)

	return ExtractorFunc[T](func(_ context.Context, r *http.Request) (T, error) {
		m, err := parseMultipart(r, cfg)
		if err != nil {
			var zero T
			return zero, err
		}

		return decode[T](SourceForm, "form", flatten(m.Values()))
	})
}

// parseMultipart reuses a form already parsed on r.
func parseMultipart(r *http.Request, cfg bodyConfig) (*MultipartForm, error) {
	if r.MultipartForm != nil {
		return &MultipartForm{form: r.MultipartForm}, nil
	}
	if err := checkMediaType(r, "multipart/form-data"); err != nil {
		return nil, err
	}
	if cfg.maxSize > 0 && r.Body != nil {
		r.Body = http.MaxBytesReader(nil, r.Body, cfg.maxSize)
	}
	if err := r.ParseMultipartForm(DefaultMaxMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) || errors.Is(err, multipart.ErrMessageTooLarge) {
			return nil, &Error{Kind: ErrBodyTooLarge, Source: SourceForm}
		}
		return nil, invalid(SourceForm, "", err)
	}

	return &MultipartForm{form: r.MultipartForm}, nil
}

// File is an uploaded file. Name keeps only the base of the client's
// file name, so it never carries directory components.
type File struct {
	Name        string
	Size        int64
	ContentType string

	header *multipart.FileHeader
}

func newFile(fh *multipart.FileHeader) *File {
	name := filepath.Base(fh.Filename)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return &File{Name: name, Size: fh.Size, ContentType: contentType, header: fh}
}

// Bytes reads the whole file. Prefer Open for large uploads.
func (f *File) Bytes() ([]byte, error) {
	src, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	return io.ReadAll(src)
}

// Open returns a reader over the file. The caller closes it.
func (f *File) Open() (io.ReadCloser, error) {
	src, err := f.header.Open()
	if err != nil {
		return nil, fmt.Errorf("extract: open upload %q: %w", f.Name, err)
	}

	return src, nil
}

// Save writes the file to dst, creating parent directories. dst is
// cleaned but not confined; callers choose a safe location.
func (f *File) Save(dst string) (err error) {
	dst = filepath.Clean(dst)

	src, err := f.Open()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := src.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("extract: close upload: %w", cerr)
		}
	}()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("extract: create directory: %w", err)
	}
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("extract: create file: %w", err)
	}
	// Close flushes to disk, so its error counts.
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("extract: close file: %w", cerr)
		}
	}()

	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("extract: save upload: %w", err)
	}

	return nil
}

// Ext returns the file name extension, dot included.
func (f *File) Ext() string {
	return filepath.Ext(f.Name)
}
