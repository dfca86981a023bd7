// Package schema validates node configs and runtime inputs against JSON
// Schema documents.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonschema"
)

// Schema is a JSON Schema document, kept as a plain map so node registry
// manifests can serialize it untouched.
type Schema map[string]any

// CompiledSchema wraps a compiled validator ready for repeated use.
type CompiledSchema struct {
	raw      Schema
	compiled *jsonschema.Schema
}

var defaultCompiler = jsonschema.NewCompiler()

// Compile parses and compiles the schema document. It returns an error
// wrapping the underlying compiler error on malformed schemas.
func (s Schema) Compile() (*CompiledSchema, error) {
	raw, err := json.Marshal(map[string]any(s))
	if err != nil {
		return nil, fmt.Errorf("schema: marshal failed: %w", err)
	}
	compiled, err := defaultCompiler.Compile(raw)
	if err != nil {
		return nil, fmt.Errorf("schema: compile failed: %w", err)
	}
	return &CompiledSchema{raw: s, compiled: compiled}, nil
}

// Validate checks data against the compiled schema, returning the list of
// violation messages (empty when valid).
func (c *CompiledSchema) Validate(data any) ([]string, error) {
	result := c.compiled.Validate(data)
	if result.IsValid() {
		return nil, nil
	}
	violations := make([]string, 0, len(result.Errors))
	for field, detail := range result.Errors {
		violations = append(violations, fmt.Sprintf("%s: %s", field, detail.Message))
	}
	return violations, nil
}

// Empty reports whether the schema document carries no constraints, used by
// the node registry to tell "no schema declared" apart from "empty object
// schema accepts anything" when rendering manifests.
func (s Schema) Empty() bool {
	return len(s) == 0
}
