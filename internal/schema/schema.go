// Package schema compiles and caches JSON Schema definitions and validates
// decoded JSON values against them.
package schema

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// compiled caches compiled schemas by name.
var compiled sync.Map // map[string]*jsonschema.Schema

// Compile returns the cached schema registered under name, compiling def on
// first use. Names must be unique per definition.
func Compile(name string, def map[string]any) (*jsonschema.Schema, error) {
	if cached, ok := compiled.Load(name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	// The compiler wants a plain decoded JSON value, not Go maps with typed
	// slices, so round-trip the definition.
	defBytes, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("marshal schema definition: %w", err)
	}
	var doc any
	if err := json.Unmarshal(defBytes, &doc); err != nil {
		return nil, fmt.Errorf("parse schema definition: %w", err)
	}

	c := jsonschema.NewCompiler()
	url := fmt.Sprintf("schema://%s.json", name)
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	sch, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	actual, _ := compiled.LoadOrStore(name, sch)
	return actual.(*jsonschema.Schema), nil
}

// Validate checks a decoded JSON value (maps, slices, float64, ...)
// against the named schema.
func Validate(name string, def map[string]any, v any) error {
	sch, err := Compile(name, def)
	if err != nil {
		return fmt.Errorf("schema %q: %w", name, err)
	}
	return sch.Validate(v)
}

// ValidateJSON decodes raw and validates it against the named schema.
func ValidateJSON(name string, def map[string]any, raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return Validate(name, def, v)
}

// ValidateValue encodes v to JSON and validates the result, for checking
// typed Go values against a schema.
func ValidateValue(name string, def map[string]any, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}
	return ValidateJSON(name, def, raw)
}
