// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package protocol

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// ValidateRequest checks the JSON-RPC envelope.
func ValidateRequest(req *Request) error {
	if req.JSONRPC != JSONRPCVersion {
		return fmt.Errorf("invalid jsonrpc version: %q (expected %q)", req.JSONRPC, JSONRPCVersion)
	}
	if req.Method == "" {
		return errors.New("method is required")
	}
	return nil
}

// SchemaValidator checks tool arguments against each tool's input schema.
// Schemas are compiled once per tool name.
type SchemaValidator struct {
	mu      sync.Mutex
	schemas map[string]*gojsonschema.Schema
}

// NewSchemaValidator returns an empty validator.
func NewSchemaValidator() *SchemaValidator {
	return &SchemaValidator{schemas: make(map[string]*gojsonschema.Schema)}
}

// Validate returns an error naming every violation, or nil.
func (v *SchemaValidator) Validate(tool Tool, arguments map[string]any) error {
	if len(tool.InputSchema) == 0 {
		return nil
	}
	schema, err := v.schema(tool)
	if err != nil {
		return err
	}
	if arguments == nil {
		arguments = map[string]any{}
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(arguments))
	if err != nil {
		return fmt.Errorf("validate %s arguments: %w", tool.Name, err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("invalid arguments: %s", strings.Join(msgs, "; "))
}

func (v *SchemaValidator) schema(tool Tool) (*gojsonschema.Schema, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if s, ok := v.schemas[tool.Name]; ok {
		return s, nil
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(tool.InputSchema))
	if err != nil {
		return nil, fmt.Errorf("compile %s schema: %w", tool.Name, err)
	}
	v.schemas[tool.Name] = s
	return s, nil
}

// ValidateToolArguments validates once without caching.
func ValidateToolArguments(tool Tool, arguments map[string]any) error {
	return NewSchemaValidator().Validate(tool, arguments)
}
