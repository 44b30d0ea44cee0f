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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

func (v *Validator) checkSchemas(val any, result *Error) error {
	var docs [][2]string
	if v.schema != "" {
		docs = append(docs, [2]string{v.schemaID, v.schema})
	}
	if p, ok := val.(SchemaProvider); ok {
		id, schema := p.JSONSchema()
		docs = append(docs, [2]string{id, schema})
	}
	if len(docs) == 0 {
		return nil
	}

	raw, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("validation: encode value: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(strings.NewReader(string(raw)))
	if err != nil {
		return fmt.Errorf("validation: decode value: %w", err)
	}

	for _, d := range docs {
		sch, err := v.compiled(d[0], d[1])
		if err != nil {
			return err
		}
		err = sch.Validate(inst)
		if verr, ok := err.(*jsonschema.ValidationError); ok {
			collectSchemaErrors(verr, result)
		} else if err != nil {
			result.Add("", "schema", err.Error(), nil)
		}
	}

	return nil
}

// compiled returns the cached schema for id, compiling it on first use.
func (v *Validator) compiled(id, schema string) (*jsonschema.Schema, error) {
	if id == "" {
		id = "schema.json"
	}
	if s, ok := v.schemas.Load(id); ok {
		return s.(*jsonschema.Schema), nil
	}

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(schema))
	if err != nil {
		return nil, fmt.Errorf("validation: schema %s: %w", id, err)
	}
	c := jsonschema.NewCompiler()
	c.AssertFormat()
	if err := c.AddResource(id, doc); err != nil {
		return nil, fmt.Errorf("validation: schema %s: %w", id, err)
	}
	s, err := c.Compile(id)
	if err != nil {
		return nil, fmt.Errorf("validation: schema %s: %w", id, err)
	}
	actual, _ := v.schemas.LoadOrStore(id, s)

	return actual.(*jsonschema.Schema), nil
}

// collectSchemaErrors flattens the leaves of the error tree.
func collectSchemaErrors(verr *jsonschema.ValidationError, result *Error) {
	if len(verr.Causes) == 0 {
		code := "schema"
		if kw := verr.ErrorKind.KeywordPath(); len(kw) > 0 {
			code += "." + kw[len(kw)-1]
		}
		result.Add(strings.Join(verr.InstanceLocation, "."), code, verr.ErrorKind.LocalizedString(printer), map[string]any{
			"schema_url": verr.SchemaURL,
		})
		return
	}
	for _, c := range verr.Causes {
		collectSchemaErrors(c, result)
	}
}
