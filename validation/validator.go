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

package validation

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// SelfValidator is implemented by values that check themselves.
type SelfValidator interface {
	Validate() error
}

// ContextValidator is the context-aware form of SelfValidator. It takes
// precedence when a value implements both.
type ContextValidator interface {
	ValidateContext(ctx context.Context) error
}

// SchemaProvider is implemented by values that carry a JSON Schema. The id
// keys the compiled schema cache and must be unique per schema.
type SchemaProvider interface {
	JSONSchema() (id, schema string)
}

// Option configures a Validator.
type Option func(*Validator)

// WithTag registers a custom validation tag.
func WithTag(name string, fn validator.Func) Option {
	return func(v *Validator) { v.tags[name] = fn }
}

// WithSchema validates every value against schema in addition to any
// SchemaProvider it implements.
func WithSchema(id, schema string) Option {
	return func(v *Validator) { v.schemaID, v.schema = id, schema }
}

// Validator checks values with struct tags (go-playground/validator),
// JSON Schema and the SelfValidator interfaces, in that order. All
// failures of one run are collected into an *Error. A Validator is safe
// for concurrent use.
type Validator struct {
	tags     map[string]validator.Func
	schemaID string
	schema   string

	tv      *validator.Validate
	schemas sync.Map // id -> *jsonschema.Schema
}

// New returns a Validator.
func New(opts ...Option) (*Validator, error) {
	v := &Validator{tags: make(map[string]validator.Func)}
	for _, opt := range opts {
		opt(v)
	}

	v.tv = validator.New(validator.WithRequiredStructEnabled())
	v.tv.RegisterTagNameFunc(fieldName)
	for name, fn := range v.tags {
		if err := v.tv.RegisterValidation(name, fn); err != nil {
			return nil, fmt.Errorf("register tag %q: %w", name, err)
		}
	}
	if v.schema != "" {
		if _, err := v.compiled(v.schemaID, v.schema); err != nil {
			return nil, err
		}
	}

	return v, nil
}

// MustNew is like New but panics on error.
func MustNew(opts ...Option) *Validator {
	v, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("validation.MustNew: %v", err))
	}

	return v
}

var defaultValidator = sync.OnceValue(func() *Validator { return MustNew() })

// Validate checks val with the default Validator.
func Validate(ctx context.Context, val any) error {
	return defaultValidator().Validate(ctx, val)
}

// Validate checks val. A nil pointer is valid.
func (v *Validator) Validate(ctx context.Context, val any) error {
	rv := reflect.ValueOf(val)
	if !rv.IsValid() || (rv.Kind() == reflect.Pointer && rv.IsNil()) {
		return nil
	}

	var result Error
	v.checkTags(rv, &result)
	if err := v.checkSchemas(val, &result); err != nil {
		return err
	}
	v.checkSelf(ctx, val, &result)

	if len(result.Fields) == 0 {
		return nil
	}
	result.sort()

	return &result
}

func (v *Validator) checkTags(rv reflect.Value, result *Error) {
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return
	}

	err := v.tv.Struct(rv.Interface())
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		if err != nil {
			result.Add("", "tag_error", err.Error(), nil)
		}
		return
	}

	for _, e := range verrs {
		path := e.Namespace()
		if i := strings.IndexByte(path, '.'); i >= 0 {
			path = path[i+1:]
		}
		result.Add(path, "tag."+e.Tag(), tagMessage(e), map[string]any{
			"tag":   e.Tag(),
			"param": e.Param(),
		})
	}
}

func (v *Validator) checkSelf(ctx context.Context, val any, result *Error) {
	var err error
	switch s := val.(type) {
	case ContextValidator:
		err = s.ValidateContext(ctx)
	case SelfValidator:
		err = s.Validate()
	default:
		return
	}
	if err == nil {
		return
	}

	var ve *Error
	if errors.As(err, &ve) {
		result.Fields = append(result.Fields, ve.Fields...)
		return
	}
	var fe FieldError
	if errors.As(err, &fe) {
		result.Fields = append(result.Fields, fe)
		return
	}
	result.Add("", "custom", err.Error(), nil)
}

// fieldName names fields after their json, query, form, param or yaml tag.
func fieldName(f reflect.StructField) string {
	for _, key := range []string{"json", "query", "form", "param", "yaml"} {
		name, _, _ := strings.Cut(f.Tag.Get(key), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}

	return f.Name
}

func tagMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", e.Param())
		}
		return fmt.Sprintf("must be at least %s", e.Param())
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", e.Param())
		}
		return fmt.Sprintf("must be at most %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", e.Param())
	default:
		return fmt.Sprintf("failed validation (%s)", e.Tag())
	}
}
