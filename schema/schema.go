// Package schema provides JSON Schema generation from Go types.
package schema

import (
	"reflect"
	"strconv"
	"strings"
)

// Schema is the subset of JSON Schema this package understands: enough to
// describe method parameters and validate incoming values against them.
type Schema struct {
	Type        string             `json:"type,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Description string             `json:"description,omitempty"`
	Default     any                `json:"default,omitempty"`
	Enum        []any              `json:"enum,omitempty"`
	Minimum     *float64           `json:"minimum,omitempty"`
	Maximum     *float64           `json:"maximum,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	MinItems    *int               `json:"minItems,omitempty"`
	MaxItems    *int               `json:"maxItems,omitempty"`
}

// Generate derives a schema from the type of v.
func Generate(v any) (*Schema, error) {
	return fromType(reflect.TypeOf(v))
}

// GenerateFromType derives a schema from t directly.
func GenerateFromType(t reflect.Type) (*Schema, error) {
	return fromType(t)
}

func fromType(t reflect.Type) (*Schema, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.Struct:
		return structSchema(t)
	case reflect.Slice, reflect.Array:
		return arraySchema(t)
	case reflect.Map:
		return &Schema{Type: "object"}, nil
	case reflect.String:
		return &Schema{Type: "string"}, nil
	case reflect.Bool:
		return &Schema{Type: "boolean"}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Schema{Type: "integer"}, nil
	case reflect.Float32, reflect.Float64:
		return &Schema{Type: "number"}, nil
	default:
		// interface{} and friends: anything goes.
		return &Schema{}, nil
	}
}

func structSchema(t reflect.Type) (*Schema, error) {
	s := &Schema{
		Type:       "object",
		Properties: make(map[string]*Schema),
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name, ok := propertyName(field)
		if !ok {
			continue
		}

		prop, err := fromType(field.Type)
		if err != nil {
			return nil, err
		}
		applyTag(field.Tag.Get("jsonschema"), prop, s, name)

		s.Properties[name] = prop
	}

	return s, nil
}

// propertyName resolves the JSON name of a struct field, honoring json
// tags. The second return is false for unexported and json:"-" fields.
func propertyName(field reflect.StructField) (string, bool) {
	if !field.IsExported() {
		return "", false
	}
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false
	}
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name, true
	}
	return field.Name, true
}

func arraySchema(t reflect.Type) (*Schema, error) {
	items, err := fromType(t.Elem())
	if err != nil {
		return nil, err
	}

	s := &Schema{Type: "array", Items: items}

	// A fixed-size Go array describes positional params of exact arity;
	// carry the bounds over.
	if t.Kind() == reflect.Array {
		n := t.Len()
		s.MinItems = &n
		s.MaxItems = &n
	}

	return s, nil
}

// applyTag folds a jsonschema struct tag into prop. "required" lands on
// the parent instead, since JSON Schema tracks requiredness there.
func applyTag(tag string, prop *Schema, parent *Schema, name string) {
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "":
		case part == "required":
			parent.Required = append(parent.Required, name)
		case strings.HasPrefix(part, "description="):
			prop.Description = strings.TrimPrefix(part, "description=")
		case strings.HasPrefix(part, "minimum="):
			if v, err := strconv.ParseFloat(strings.TrimPrefix(part, "minimum="), 64); err == nil {
				prop.Minimum = &v
			}
		case strings.HasPrefix(part, "maximum="):
			if v, err := strconv.ParseFloat(strings.TrimPrefix(part, "maximum="), 64); err == nil {
				prop.Maximum = &v
			}
		case strings.HasPrefix(part, "enum="):
			for _, e := range strings.Split(strings.TrimPrefix(part, "enum="), "|") {
				prop.Enum = append(prop.Enum, e)
			}
		}
	}
}
