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

// Package source provides configuration sources: files, inline content
// and process environment variables.
package source

import (
	"context"
	"fmt"
	"os"
	"strings"

	"rivaas.dev/relay/config/codec"
)

// File reads a file and decodes it.
type File struct {
	path    string
	decoder codec.Decoder
}

// NewFile returns a File source for path decoded with d.
func NewFile(path string, d codec.Decoder) *File {
	return &File{path: path, decoder: d}
}

// Path reports the file path.
func (f *File) Path() string { return f.path }

// Load reads and decodes the file.
func (f *File) Load(_ context.Context) (map[string]any, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}

	return decode(f.decoder, data)
}

func (f *File) String() string { return "file:" + f.path }

// Content decodes a fixed byte slice.
type Content struct {
	data    []byte
	decoder codec.Decoder
}

// NewContent returns a source for data decoded with d.
func NewContent(data []byte, d codec.Decoder) *Content {
	return &Content{data: data, decoder: d}
}

// Load decodes the content.
func (c *Content) Load(_ context.Context) (map[string]any, error) {
	return decode(c.decoder, c.data)
}

func (c *Content) String() string { return "content" }

// Env reads process environment variables that start with a prefix.
// The prefix and the separating underscore are stripped before the
// remainder is handed to the env codec, so with prefix "RELAY"
// RELAY_SERVER_ADDR sets server.addr.
type Env struct {
	prefix  string
	environ func() []string
}

// NewEnv returns an Env source for prefix. An empty prefix reads every
// variable.
func NewEnv(prefix string) *Env {
	return &Env{prefix: strings.TrimSuffix(strings.ToUpper(prefix), "_"), environ: os.Environ}
}

// Load decodes the matching variables.
func (e *Env) Load(_ context.Context) (map[string]any, error) {
	var b strings.Builder
	for _, kv := range e.environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if e.prefix != "" {
			rest, found := strings.CutPrefix(strings.ToUpper(key), e.prefix+"_")
			if !found || rest == "" {
				continue
			}
			key = rest
		}
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(strings.ReplaceAll(value, "\n", " "))
		b.WriteByte('\n')
	}

	return decode(codec.EnvVar{}, []byte(b.String()))
}

func (e *Env) String() string { return "env:" + e.prefix }

func decode(d codec.Decoder, data []byte) (map[string]any, error) {
	out := make(map[string]any)
	if len(strings.TrimSpace(string(data))) == 0 {
		return out, nil
	}
	if err := d.Decode(data, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = make(map[string]any)
	}

	return out, nil
}
