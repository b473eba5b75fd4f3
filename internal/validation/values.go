// internal/validation/values.go
package validation

import (
	"encoding/json"
	"math"
	"reflect"
)

type undefined struct{}

// Undefined stands in for a property that is absent from the raw input. It
// is distinct from an explicit nil, which reports as "object".
var Undefined interface{} = undefined{}

// TypeOf returns the name of the runtime type of a raw value as the page
// scripting language would report it.
func TypeOf(v interface{}) string {
	switch v.(type) {
	case undefined:
		return "undefined"
	case nil:
		return "object"
	case bool:
		return "boolean"
	case string:
		return "string"
	case json.Number:
		return "number"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return "number"
	}
	if reflect.TypeOf(v).Kind() == reflect.Func {
		return "function"
	}
	return "object"
}

// Number converts any raw numeric value to a float64.
func Number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return math.NaN(), true
		}
		return f, true
	}
	return 0, false
}

// Int converts a raw value that already passed an integer validator.
func Int(v interface{}) int {
	f, _ := Number(v)
	return int(f)
}

// IntPtr is Int for nullable record fields.
func IntPtr(v interface{}) *int {
	n := Int(v)
	return &n
}

// Bool converts a raw value that already passed a boolean validator.
func Bool(v interface{}) bool {
	b, _ := v.(bool)
	return b
}

// Object reports whether v is a plain object that can be walked by property
// name.
func Object(v interface{}) (map[string]interface{}, bool) {
	m, ok := v.(map[string]interface{})
	return m, ok
}

// Array returns the elements of a raw array value.
func Array(v interface{}) ([]interface{}, bool) {
	switch a := v.(type) {
	case []interface{}:
		return a, true
	case []string:
		out := make([]interface{}, len(a))
		for i, s := range a {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}
