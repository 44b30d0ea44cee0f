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
	"errors"
	"fmt"
)

// ErrNotLoaded is returned by accessors used before a successful Load.
var ErrNotLoaded = errors.New("config: not loaded")

// Error describes a failed step of a load.
type Error struct {
	Source string // source name, empty when not source specific
	Op     string // load, merge, schema, validate, bind
	Err    error
}

func (e *Error) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("config: %s %s: %v", e.Op, e.Source, e.Err)
	}

	return fmt.Sprintf("config: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
