package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strings"
)

// ValidationError reports a single mismatch between a value and its
// schema. Path locates the value in dotted form with array indexes, for
// example "user.tags[2]"; it is empty when the root value is at fault.
type ValidationError struct {
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

// ValidationErrors is every mismatch found in one pass over a value.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	switch len(e) {
	case 0:
		return ""
	case 1:
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString("validation failed:")
	for _, err := range e {
		sb.WriteString("\n  - ")
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Validate checks raw JSON against the schema. It returns nil when the
// document conforms and ValidationErrors listing every mismatch when it
// does not. Input that is not JSON at all yields a single
// *ValidationError.
func (s *Schema) Validate(data json.RawMessage) error {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return &ValidationError{Message: fmt.Sprintf("invalid JSON: %s", err)}
	}
	return s.ValidateValue(value)
}

// ValidateValue checks an already-decoded value against the schema.
// Beyond the types produced by encoding/json it tolerates Go int, int64
// and float32 leaves, so callers can validate values they built by hand.
func (s *Schema) ValidateValue(value any) error {
	w := &walker{}
	w.check(s, "", value)
	if len(w.errs) > 0 {
		return w.errs
	}
	return nil
}

// walker descends a schema and a value in lockstep, collecting every
// mismatch rather than stopping at the first.
type walker struct {
	errs ValidationErrors
}

func (w *walker) failf(path, format string, args ...any) {
	w.errs = append(w.errs, &ValidationError{
		Path:    path,
		Message: fmt.Sprintf(format, args...),
	})
}

func (w *walker) check(s *Schema, path string, value any) {
	if value == nil {
		// null passes any type check; missing fields are caught by required.
		return
	}

	switch s.Type {
	case "object":
		w.object(s, path, value)
	case "array":
		w.array(s, path, value)
	case "string":
		w.text(s, path, value)
	case "integer":
		w.integer(s, path, value)
	case "number":
		w.number(s, path, value)
	case "boolean":
		if _, ok := value.(bool); !ok {
			w.failf(path, "expected boolean, got %T", value)
		}
	}
}

func (w *walker) object(s *Schema, path string, value any) {
	obj, ok := value.(map[string]any)
	if !ok {
		w.failf(path, "expected object, got %T", value)
		return
	}

	for _, name := range s.Required {
		if _, present := obj[name]; !present {
			w.failf(dotted(path, name), "required field is missing")
		}
	}
	for name, prop := range s.Properties {
		if v, present := obj[name]; present {
			w.check(prop, dotted(path, name), v)
		}
	}
}

func (w *walker) array(s *Schema, path string, value any) {
	rv := reflect.ValueOf(value)
	if k := rv.Kind(); k != reflect.Slice && k != reflect.Array {
		w.failf(path, "expected array, got %T", value)
		return
	}

	n := rv.Len()
	if s.MinItems != nil && n < *s.MinItems {
		w.failf(path, "array has %d items, requires at least %d", n, *s.MinItems)
	}
	if s.MaxItems != nil && n > *s.MaxItems {
		w.failf(path, "array has %d items, allows at most %d", n, *s.MaxItems)
	}

	if s.Items == nil {
		return
	}
	for i := 0; i < n; i++ {
		w.check(s.Items, fmt.Sprintf("%s[%d]", path, i), rv.Index(i).Interface())
	}
}

func (w *walker) text(s *Schema, path string, value any) {
	str, ok := value.(string)
	if !ok {
		w.failf(path, "expected string, got %T", value)
		return
	}
	if len(s.Enum) > 0 && !slices.Contains(s.Enum, any(str)) {
		w.failf(path, "value must be one of: %v", s.Enum)
	}
}

func (w *walker) integer(s *Schema, path string, value any) {
	switch v := value.(type) {
	case float64:
		if v != math.Trunc(v) {
			w.failf(path, "expected integer, got decimal number")
			return
		}
		w.bounds(s, path, v)
	case int:
		w.bounds(s, path, float64(v))
	case int64:
		w.bounds(s, path, float64(v))
	default:
		w.failf(path, "expected integer, got %T", value)
	}
}

func (w *walker) number(s *Schema, path string, value any) {
	switch v := value.(type) {
	case float64:
		w.bounds(s, path, v)
	case float32:
		w.bounds(s, path, float64(v))
	case int:
		w.bounds(s, path, float64(v))
	case int64:
		w.bounds(s, path, float64(v))
	default:
		w.failf(path, "expected number, got %T", value)
	}
}

func (w *walker) bounds(s *Schema, path string, num float64) {
	if s.Minimum != nil && num < *s.Minimum {
		w.failf(path, "value %v is less than minimum %v", num, *s.Minimum)
	}
	if s.Maximum != nil && num > *s.Maximum {
		w.failf(path, "value %v is greater than maximum %v", num, *s.Maximum)
	}
}

func dotted(base, name string) string {
	if base == "" {
		return name
	}
	return base + "." + name
}
