// Package infer provides utilities for automatic JSON schema generation from Go types.
//
// This package is a convenience wrapper around github.com/google/jsonschema-go that
// provides a type-safe API for generating JSON schemas from Go types and
// handler signatures, and for tightening the generated schemas with the
// constraints that struct tags cannot express (ranges, enums, lengths, defaults).
package infer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// FromType generates a JSON schema for T.
func FromType[T any]() (*jsonschema.Schema, error) {
	return jsonschema.For[T](nil)
}

// FromFuncInput generates the input schema of a tool handler,
// func(context.Context, T) (R, error). R is not inspected.
//
//	schema, err := infer.FromFuncInput(func(ctx context.Context, in SearchLocationsInput) (json.RawMessage, error) {
//	    return client.SearchLocations(ctx, in)
//	})
func FromFuncInput[T any, R any](fn func(context.Context, T) (R, error)) (*jsonschema.Schema, error) {
	return FromType[T]()
}

// ToMap converts a jsonschema.Schema to a map[string]interface{} representation.
//
// This is structured to marshal and then unmarshal to ensure fidelity, given custom marshalling in jsonschema.
func ToMap(s *jsonschema.Schema) (map[string]interface{}, error) {
	if s == nil {
		return nil, fmt.Errorf("cannot convert nil schema to map")
	}

	data, err := s.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema to map: %w", err)
	}

	return result, nil
}

// PropertyOption adjusts the schema of a single object property.
type PropertyOption func(*jsonschema.Schema) error

// Constrain applies opts to the named property of an object schema.
//
// Example:
//
//	err := infer.Constrain(schema, "radius", infer.Range(0.1, 25), infer.Default(5))
func Constrain(s *jsonschema.Schema, property string, opts ...PropertyOption) error {
	if s == nil {
		return fmt.Errorf("cannot constrain nil schema")
	}
	prop, ok := s.Properties[property]
	if !ok || prop == nil {
		return fmt.Errorf("schema has no property %q", property)
	}
	for _, opt := range opts {
		if err := opt(prop); err != nil {
			return fmt.Errorf("property %q: %w", property, err)
		}
	}
	return nil
}

// Range bounds a numeric property inclusively.
func Range(min, max float64) PropertyOption {
	return func(s *jsonschema.Schema) error {
		if min > max {
			return fmt.Errorf("invalid range [%v, %v]", min, max)
		}
		s.Minimum = &min
		s.Maximum = &max
		return nil
	}
}

// Type pins a property to a single JSON type. Pointer fields infer as
// nullable; Type("number") makes an explicit null invalid again.
func Type(t string) PropertyOption {
	return func(s *jsonschema.Schema) error {
		if t == "" {
			return fmt.Errorf("empty type")
		}
		s.Type = t
		s.Types = nil
		return nil
	}
}

// MaxLength limits the length of a string property.
func MaxLength(n int) PropertyOption {
	return func(s *jsonschema.Schema) error {
		if n < 0 {
			return fmt.Errorf("negative max length %d", n)
		}
		s.MaxLength = &n
		return nil
	}
}

// Enum restricts a property to the given values.
func Enum(values ...any) PropertyOption {
	return func(s *jsonschema.Schema) error {
		if len(values) == 0 {
			return fmt.Errorf("enum requires at least one value")
		}
		s.Enum = values
		return nil
	}
}

// Default advertises a default value. It is documentation for clients; the
// value is not injected into arguments that omit the property.
func Default(v any) PropertyOption {
	return func(s *jsonschema.Schema) error {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshalling default: %w", err)
		}
		s.Default = data
		return nil
	}
}

// Description overrides the description taken from the jsonschema struct tag.
func Description(d string) PropertyOption {
	return func(s *jsonschema.Schema) error {
		s.Description = d
		return nil
	}
}
