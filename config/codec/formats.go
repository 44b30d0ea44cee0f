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

package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"
)

// JSON decodes JSON objects. Numbers become json.Number.
type JSON struct{}

func (JSON) Decode(data []byte, v any) error {
	ptr, err := target("json", v)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	return dec.Decode(ptr)
}

// YAML decodes YAML mappings.
type YAML struct{}

func (YAML) Decode(data []byte, v any) error {
	ptr, err := target("yaml", v)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, ptr)
}

// TOML decodes TOML documents.
type TOML struct{}

func (TOML) Decode(data []byte, v any) error {
	ptr, err := target("toml", v)
	if err != nil {
		return err
	}

	return toml.Unmarshal(data, ptr)
}

// EnvVar decodes KEY=value lines. Keys are lowercased and every
// underscore starts a nested map, so SERVER_ADDR=:80 becomes
// {"server": {"addr": ":80"}}. Empty key segments are dropped.
type EnvVar struct{}

func (EnvVar) Decode(data []byte, v any) error {
	ptr, err := target("env", v)
	if err != nil {
		return err
	}

	conf := make(map[string]any)
	for line := range strings.Lines(string(data)) {
		key, value, ok := strings.Cut(strings.TrimRight(line, "\r\n"), "=")
		if !ok {
			continue
		}
		parts := strings.FieldsFunc(strings.ToLower(strings.TrimSpace(key)), func(r rune) bool { return r == '_' })
		if len(parts) == 0 {
			continue
		}

		cur := conf
		for _, p := range parts[:len(parts)-1] {
			next, ok := cur[p].(map[string]any)
			if !ok {
				next = make(map[string]any)
				cur[p] = next
			}
			cur = next
		}
		leaf := parts[len(parts)-1]
		if _, nested := cur[leaf].(map[string]any); nested {
			return fmt.Errorf("codec: env key %q collides with a nested key", key)
		}
		cur[leaf] = strings.TrimSpace(value)
	}
	*ptr = conf

	return nil
}
