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
	"fmt"
	"time"

	"github.com/spf13/cast"
)

// Value is the set of types supported by GetE and GetOr.
type Value interface {
	string | bool | int | int64 | float64 | time.Duration | []string
}

// GetE returns the value at key converted to T.
func GetE[T Value](c *Config, key string) (T, error) {
	var zero T

	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()
	if !loaded {
		return zero, ErrNotLoaded
	}

	raw, ok := c.lookup(key)
	if !ok {
		return zero, fmt.Errorf("config: key %q not set", key)
	}

	var (
		out any
		err error
	)
	switch any(zero).(type) {
	case time.Duration:
		out, err = cast.ToDurationE(raw)
	case []string:
		out = c.StringSlice(key)
	case string:
		out, err = cast.ToStringE(raw)
	case bool:
		out, err = cast.ToBoolE(raw)
	case int:
		out, err = cast.ToIntE(raw)
	case int64:
		out, err = cast.ToInt64E(raw)
	case float64:
		out, err = cast.ToFloat64E(raw)
	}
	if err != nil {
		return zero, fmt.Errorf("config: key %q: %w", key, err)
	}

	return out.(T), nil
}

// GetOr returns the value at key converted to T, or fallback when the key
// is missing or cannot be converted.
func GetOr[T Value](c *Config, key string, fallback T) T {
	v, err := GetE[T](c, key)
	if err != nil {
		return fallback
	}

	return v
}

// Duration returns the value at key as a time.Duration.
func (c *Config) Duration(key string) time.Duration { return GetOr[time.Duration](c, key, 0) }

func (c *Config) lookup(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return lookup(c.values, key)
}

