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

package config

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"dario.cat/mergo"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cast"

	"rivaas.dev/relay/config/codec"
	"rivaas.dev/relay/config/source"
	"rivaas.dev/relay/validation"
)

// Source produces one layer of configuration.
type Source interface {
	Load(ctx context.Context) (map[string]any, error)
}

// Option configures a Config.
type Option func(*Config) error

// Config holds the merged values of its sources.
type Config struct {
	mu     sync.RWMutex
	values map[string]any
	loaded bool

	sources    []Source
	binding    any
	tag        string
	schema     []byte
	validators []func(map[string]any) error
	validator  *validation.Validator
}

// WithSource adds a source.
func WithSource(s Source) Option {
	return func(c *Config) error {
		if s == nil {
			return errors.New("nil source")
		}
		c.sources = append(c.sources, s)
		return nil
	}
}

// WithFile adds a file whose format is taken from its extension.
func WithFile(path string) Option {
	return func(c *Config) error {
		t, err := typeOf(path)
		if err != nil {
			return err
		}
		return WithFileAs(path, t)(c)
	}
}

// WithFileAs adds a file decoded as t.
func WithFileAs(path string, t codec.Type) Option {
	return func(c *Config) error {
		d, err := codec.Lookup(t)
		if err != nil {
			return err
		}
		c.sources = append(c.sources, source.NewFile(path, d))
		return nil
	}
}

// WithContent adds inline data decoded as t.
func WithContent(data []byte, t codec.Type) Option {
	return func(c *Config) error {
		d, err := codec.Lookup(t)
		if err != nil {
			return err
		}
		c.sources = append(c.sources, source.NewContent(data, d))
		return nil
	}
}

// WithEnv adds environment variables starting with prefix.
func WithEnv(prefix string) Option {
	return func(c *Config) error {
		c.sources = append(c.sources, source.NewEnv(prefix))
		return nil
	}
}

// WithBinding binds the merged values into v, a non-nil struct pointer,
// on every load.
func WithBinding(v any) Option {
	return func(c *Config) error {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
			return fmt.Errorf("binding must be a non-nil struct pointer, got %T", v)
		}
		c.binding = v
		return nil
	}
}

// WithTag sets the struct tag used for binding. Default "config".
func WithTag(name string) Option {
	return func(c *Config) error {
		if name == "" {
			return errors.New("empty tag name")
		}
		c.tag = name
		return nil
	}
}

// WithJSONSchema validates the merged values against schema.
func WithJSONSchema(schema []byte) Option {
	return func(c *Config) error {
		c.schema = schema
		return nil
	}
}

// WithValidator adds a check run on the merged values.
func WithValidator(fn func(map[string]any) error) Option {
	return func(c *Config) error {
		if fn != nil {
			c.validators = append(c.validators, fn)
		}
		return nil
	}
}

// WithStructValidator sets the validator used on the bound struct.
// The package default validator is used otherwise.
func WithStructValidator(v *validation.Validator) Option {
	return func(c *Config) error {
		c.validator = v
		return nil
	}
}

// New returns a Config. Nothing is loaded until Load.
func New(opts ...Option) (*Config, error) {
	c := &Config{tag: "config", values: make(map[string]any)}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}
	if len(c.schema) > 0 {
		v, err := validation.New(validation.WithSchema("config.schema.json", string(c.schema)))
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		c.validators = append([]func(map[string]any) error{func(m map[string]any) error {
			return v.Validate(context.Background(), m)
		}}, c.validators...)
	}

	return c, nil
}

// MustNew is like New but panics on error.
func MustNew(opts ...Option) *Config {
	c, err := New(opts...)
	if err != nil {
		panic(err)
	}

	return c
}

// Load reads every source, merges the layers and binds the result. On
// failure the previously loaded values and binding are left untouched.
func (c *Config) Load(ctx context.Context) error {
	merged := make(map[string]any)
	for _, s := range c.sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		layer, err := s.Load(ctx)
		if err != nil {
			return &Error{Source: sourceName(s), Op: "load", Err: err}
		}
		if err := mergo.Map(&merged, normalize(layer), mergo.WithOverride); err != nil {
			return &Error{Source: sourceName(s), Op: "merge", Err: err}
		}
	}

	for _, fn := range c.validators {
		if err := fn(merged); err != nil {
			return &Error{Op: "validate", Err: err}
		}
	}

	if c.binding != nil {
		if err := c.bind(ctx, merged); err != nil {
			return err
		}
	}

	c.mu.Lock()
	c.values = merged
	c.loaded = true
	c.mu.Unlock()

	return nil
}

// MustLoad is like Load but panics on error.
func (c *Config) MustLoad(ctx context.Context) {
	if err := c.Load(ctx); err != nil {
		panic(err)
	}
}

// bind decodes into a fresh value first so a failed bind leaves the
// caller's struct unchanged.
func (c *Config) bind(ctx context.Context, values map[string]any) error {
	target := reflect.ValueOf(c.binding).Elem()
	fresh := reflect.New(target.Type())
	if err := applyDefaults(fresh.Elem(), c.tag); err != nil {
		return &Error{Op: "bind", Err: err}
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          c.tag,
		Result:           fresh.Interface(),
		WeaklyTypedInput: true,
		Squash:           true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.StringToURLHookFunc(),
			mapstructure.TextUnmarshallerHookFunc(),
		),
	})
	if err != nil {
		return &Error{Op: "bind", Err: err}
	}
	if err := dec.Decode(values); err != nil {
		return &Error{Op: "bind", Err: err}
	}

	v := c.validator
	if v == nil {
		err = validation.Validate(ctx, fresh.Interface())
	} else {
		err = v.Validate(ctx, fresh.Interface())
	}
	if err != nil {
		return &Error{Op: "validate", Err: err}
	}

	target.Set(fresh.Elem())

	return nil
}

// Values returns a deep copy of the merged values.
func (c *Config) Values() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return deepCopy(c.values)
}

// Get returns the value at a dotted, case-insensitive key such as
// "server.addr", or nil.
func (c *Config) Get(key string) any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, _ := lookup(c.values, key)

	return v
}

// Has reports whether key is set.
func (c *Config) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := lookup(c.values, key)

	return ok
}

// String returns the value at key as a string.
func (c *Config) String(key string) string { return cast.ToString(c.Get(key)) }

// Int returns the value at key as an int.
func (c *Config) Int(key string) int { return cast.ToInt(c.Get(key)) }

// Bool returns the value at key as a bool.
func (c *Config) Bool(key string) bool { return cast.ToBool(c.Get(key)) }

// Float64 returns the value at key as a float64.
func (c *Config) Float64(key string) float64 { return cast.ToFloat64(c.Get(key)) }

// StringSlice returns the value at key as a []string. Strings are split
// on commas.
func (c *Config) StringSlice(key string) []string {
	v := c.Get(key)
	if s, ok := v.(string); ok {
		if s == "" {
			return nil
		}
		parts := strings.Split(s, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}

	return cast.ToStringSlice(v)
}

func lookup(values map[string]any, key string) (any, bool) {
	var cur any = values
	for part := range strings.SplitSeq(strings.ToLower(key), ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}

	return cur, true
}

// normalize lowercases keys recursively and converts nested maps to
// map[string]any so layers from different codecs merge.
func normalize(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[strings.ToLower(k)] = normalizeValue(v)
	}

	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return normalize(t)
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[cast.ToString(k)] = vv
		}
		return normalize(m)
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = normalizeValue(vv)
		}
		return out
	default:
		return v
	}
}

func deepCopy(m map[string]any) map[string]any {
	out := maps.Clone(m)
	for k, v := range out {
		if nested, ok := v.(map[string]any); ok {
			out[k] = deepCopy(nested)
		}
	}

	return out
}

func typeOf(path string) (codec.Type, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return codec.TypeJSON, nil
	case ".yaml", ".yml":
		return codec.TypeYAML, nil
	case ".toml":
		return codec.TypeTOML, nil
	case ".env":
		return codec.TypeEnvVar, nil
	default:
		return "", fmt.Errorf("cannot infer format of %q", path)
	}
}

func sourceName(s Source) string {
	if st, ok := s.(fmt.Stringer); ok {
		return st.String()
	}

	return fmt.Sprintf("%T", s)
}
