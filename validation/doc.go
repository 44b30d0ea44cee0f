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

// Package validation checks decoded request values and configuration.
//
// Struct tags are evaluated with go-playground/validator, schemas with
// santhosh-tekuri/jsonschema. Types may also validate themselves through
// SelfValidator or ContextValidator. Failures are reported as an *Error
// that renders as a 422 problem with one entry per field:
//
//	type CreateUser struct {
//		Name  string `json:"name" validate:"required"`
//		Email string `json:"email" validate:"required,email"`
//	}
//
//	if err := validation.Validate(ctx, &req); err != nil {
//		return nil, err
//	}
package validation
