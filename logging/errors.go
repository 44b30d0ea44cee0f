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

package logging

import "errors"

var (
	// ErrNilLogger is returned when WithCustomLogger is given nil.
	ErrNilLogger = errors.New("logging: custom logger is nil")

	// ErrInvalidHandler is returned for an unknown HandlerType.
	ErrInvalidHandler = errors.New("logging: invalid handler type")

	// ErrInvalidLevel is returned by ParseLevel.
	ErrInvalidLevel = errors.New("logging: invalid log level")

	// ErrCannotChangeLevel is returned by SetLevel on a custom logger,
	// whose level is controlled by its owner.
	ErrCannotChangeLevel = errors.New("logging: cannot change level of a custom logger")
)
