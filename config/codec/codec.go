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

// Package codec turns configuration bytes into maps.
//
// JSON, YAML, TOML and environment variable listings are registered by
// default. More formats can be added with Register.
package codec

import (
	"fmt"
	"sync"
)

// Type names a format.
type Type string

// Built-in formats.
const (
	TypeJSON   Type = "json"
	TypeYAML   Type = "yaml"
	TypeTOML   Type = "toml"
	TypeEnvVar Type = "env_var"
)

// Decoder decodes data into v, which is a *map[string]any for every
// caller in this module. Implementations must be safe for concurrent
// use.
type Decoder interface {
	Decode(data []byte, v any) error
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(data []byte, v any) error

// Decode calls f.
func (f DecoderFunc) Decode(data []byte, v any) error { return f(data, v) }

var (
	mu       sync.RWMutex
	decoders = map[Type]Decoder{
		TypeJSON:   JSON{},
		TypeYAML:   YAML{},
		TypeTOML:   TOML{},
		TypeEnvVar: EnvVar{},
	}
)

// Register adds or replaces the decoder for t.
func Register(t Type, d Decoder) {
	mu.Lock()
	defer mu.Unlock()

	decoders[t] = d
}

// Lookup returns the decoder registered for t.
func Lookup(t Type) (Decoder, error) {
	mu.RLock()
	defer mu.RUnlock()

	d, ok := decoders[t]
	if !ok {
		return nil, fmt.Errorf("codec: no decoder for %q", t)
	}

	return d, nil
}

func target(name string, v any) (*map[string]any, error) {
	ptr, ok := v.(*map[string]any)
	if !ok {
		return nil, fmt.Errorf("codec: %s decoder needs *map[string]any, got %T", name, v)
	}

	return ptr, nil
}
