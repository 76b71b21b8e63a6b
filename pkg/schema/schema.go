// Package schema implements the small field descriptor language used to
// declare tool parameters, the generic validator that interprets it, and
// the JSON Schema rendering advertised through tools/list.
package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"seo-analytics-mcp/pkg/errors"
)

// Kind is the declared type of a parameter
type Kind string

const (
	KindString      Kind = "string"
	KindNumber      Kind = "number"
	KindStringArray Kind = "string_array"
)

// Field describes one named parameter
type Field struct {
	Name        string
	Kind        Kind
	Required    bool
	Description string

	// MinItems rejects arrays with fewer elements. Zero allows empty arrays.
	MinItems int
	// MinLength rejects strings (and array elements) shorter than this
	// after surrounding whitespace is trimmed.
	MinLength int
	// Default is applied when an optional field is absent. Optional arrays
	// without a default become an empty slice.
	Default interface{}
}

// Schema is an ordered list of fields
type Schema []Field

// Check verifies that the schema itself is well formed
func (s Schema) Check() error {
	seen := make(map[string]bool, len(s))
	for i, f := range s {
		if strings.TrimSpace(f.Name) == "" {
			return fmt.Errorf("field %d has an empty name", i)
		}
		if seen[f.Name] {
			return fmt.Errorf("field %q declared more than once", f.Name)
		}
		seen[f.Name] = true

		switch f.Kind {
		case KindString, KindNumber, KindStringArray:
		default:
			return fmt.Errorf("field %q has unsupported kind %q", f.Name, f.Kind)
		}
		if f.MinItems > 0 && f.Kind != KindStringArray {
			return fmt.Errorf("field %q: min items only applies to arrays", f.Name)
		}
		if f.Default != nil {
			if _, err := coerce(f, f.Default); err != nil {
				return fmt.Errorf("field %q: default %v", f.Name, err)
			}
		}
	}
	return nil
}

// Validate checks raw arguments against the schema and returns the typed,
// defaulted parameters. raw is never modified. Fields not declared in the
// schema are ignored.
func (s Schema) Validate(raw map[string]interface{}) (Params, error) {
	values := make(map[string]interface{}, len(s))

	for _, f := range s {
		value, present := raw[f.Name]
		if present && value == nil {
			present = false
		}

		if !present {
			if f.Required {
				return Params{}, errors.NewInvalidArgumentsError(f.Name, "is required")
			}
			if def, ok := defaultFor(f); ok {
				values[f.Name] = def
			}
			continue
		}

		v, err := coerce(f, value)
		if err != nil {
			return Params{}, errors.NewInvalidArgumentsError(f.Name, err.Error())
		}
		values[f.Name] = v
	}

	return Params{values: values}, nil
}

func defaultFor(f Field) (interface{}, bool) {
	if f.Default == nil {
		if f.Kind == KindStringArray {
			return []string{}, true
		}
		return nil, false
	}
	v, err := coerce(f, f.Default)
	if err != nil {
		return nil, false
	}
	return v, true
}

// coerce converts a decoded JSON value into the Go type of the field kind,
// copying slices so the result never aliases the input.
func coerce(f Field, value interface{}) (interface{}, error) {
	switch f.Kind {
	case KindString:
		str, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("must be a string, got %s", describe(value))
		}
		if err := checkLength(f, str); err != nil {
			return nil, err
		}
		return str, nil

	case KindNumber:
		n, ok := toFloat(value)
		if !ok {
			return nil, fmt.Errorf("must be a number, got %s", describe(value))
		}
		return n, nil

	case KindStringArray:
		var items []string
		switch v := value.(type) {
		case []string:
			items = append([]string{}, v...)
		case []interface{}:
			items = make([]string, 0, len(v))
			for i, item := range v {
				str, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("item %d must be a string, got %s", i, describe(item))
				}
				items = append(items, str)
			}
		default:
			return nil, fmt.Errorf("must be an array of strings, got %s", describe(value))
		}
		for i, item := range items {
			if err := checkLength(f, item); err != nil {
				return nil, fmt.Errorf("item %d %v", i, err)
			}
		}
		if len(items) < f.MinItems {
			return nil, fmt.Errorf("must contain at least %d item(s)", f.MinItems)
		}
		return items, nil
	}

	return nil, fmt.Errorf("unsupported kind %q", f.Kind)
}

func checkLength(f Field, s string) error {
	if f.MinLength > 0 && utf8.RuneCountInString(strings.TrimSpace(s)) < f.MinLength {
		if f.MinLength == 1 {
			return fmt.Errorf("must not be empty")
		}
		return fmt.Errorf("must be at least %d characters", f.MinLength)
	}
	return nil
}

func toFloat(value interface{}) (float64, bool) {
	var n float64
	switch v := value.(type) {
	case float64:
		n = v
	case float32:
		n = float64(v)
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		n = f
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func describe(value interface{}) string {
	switch value.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int64, json.Number:
		return "number"
	case []interface{}, []string:
		return "array"
	case map[string]interface{}:
		return "object"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", value)
	}
}

// JSONSchema renders the schema as a JSON Schema object
func (s Schema) JSONSchema() map[string]interface{} {
	properties := make(map[string]interface{}, len(s))
	required := make([]string, 0, len(s))

	for _, f := range s {
		prop := map[string]interface{}{}
		switch f.Kind {
		case KindString:
			prop["type"] = "string"
			if f.MinLength > 0 {
				prop["minLength"] = f.MinLength
			}
		case KindNumber:
			prop["type"] = "number"
		case KindStringArray:
			items := map[string]interface{}{"type": "string"}
			if f.MinLength > 0 {
				items["minLength"] = f.MinLength
			}
			prop["type"] = "array"
			prop["items"] = items
			if f.MinItems > 0 {
				prop["minItems"] = f.MinItems
			}
		}
		if f.Description != "" {
			prop["description"] = f.Description
		}
		if f.Default != nil {
			prop["default"] = f.Default
		} else if !f.Required && f.Kind == KindStringArray {
			prop["default"] = []string{}
		}
		properties[f.Name] = prop

		if f.Required {
			required = append(required, f.Name)
		}
	}

	return map[string]interface{}{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

// Params holds validated arguments
type Params struct {
	values map[string]interface{}
}

// NewParams builds Params directly from typed values. It is meant for
// callers that already hold validated input, such as formatter tests.
func NewParams(values map[string]interface{}) Params {
	copied := make(map[string]interface{}, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return Params{values: copied}
}

// Has reports whether name was supplied or defaulted
func (p Params) Has(name string) bool {
	_, ok := p.values[name]
	return ok
}

// String returns a string parameter or "" when absent
func (p Params) String(name string) string {
	s, _ := p.values[name].(string)
	return s
}

// Number returns a numeric parameter or 0 when absent
func (p Params) Number(name string) float64 {
	n, _ := p.values[name].(float64)
	return n
}

// Strings returns a copy of a string array parameter, nil when absent
func (p Params) Strings(name string) []string {
	items, ok := p.values[name].([]string)
	if !ok {
		return nil
	}
	return append([]string{}, items...)
}

// Raw returns a shallow copy of all parameters
func (p Params) Raw() map[string]interface{} {
	raw := make(map[string]interface{}, len(p.values))
	for k, v := range p.values {
		if items, ok := v.([]string); ok {
			v = append([]string{}, items...)
		}
		raw[k] = v
	}
	return raw
}
