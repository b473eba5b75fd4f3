// internal/validation/assign.go
package validation

import (
	"strings"
)

// Field describes one assignable property of a record of type T. Fields are
// evaluated in list order and the first invalid one aborts the assignment.
type Field[T any] struct {
	// Path is the property name, dotted for nested sub-records
	// ("modifiers.ctrl"). The full path is also the name reported in errors.
	Path string
	// Check is optional. Values of fields without one are passed through as-is.
	Check Validator
	// Required fields are checked and set even when absent from the input;
	// the absent value is Undefined.
	Required bool
	// Set stores a value that passed Check.
	Set func(dst *T, val interface{}) error
}

// Assign copies every described property found in src into dst. Properties
// of src that no field describes are ignored.
func Assign[T any](dst *T, src map[string]interface{}, fields []Field[T]) error {
	for _, f := range fields {
		val, ok := lookup(src, f.Path)
		if !ok && !f.Required {
			continue
		}
		if !ok {
			val = Undefined
		}
		if f.Check != nil {
			if err := f.Check(f.Path, val); err != nil {
				return err
			}
		}
		if err := f.Set(dst, val); err != nil {
			return err
		}
	}
	return nil
}

// lookup walks a dotted path. A missing or non-object intermediate value
// means the property is absent.
func lookup(src map[string]interface{}, path string) (interface{}, bool) {
	parts := strings.Split(path, ".")
	current := src
	for _, part := range parts[:len(parts)-1] {
		next, ok := Object(current[part])
		if !ok {
			return nil, false
		}
		current = next
	}
	if current == nil {
		return nil, false
	}
	val, ok := current[parts[len(parts)-1]]
	return val, ok
}

// Prefix rebinds a field list onto a nested record reached through at.
func Prefix[T, U any](fields []Field[U], at func(*T) *U) []Field[T] {
	out := make([]Field[T], 0, len(fields))
	for _, f := range fields {
		set := f.Set
		out = append(out, Field[T]{
			Path:     f.Path,
			Check:    f.Check,
			Required: f.Required,
			Set: func(dst *T, val interface{}) error {
				return set(at(dst), val)
			},
		})
	}
	return out
}
