// internal/validation/validation_test.go
package validation

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/brewer/internal/runerr"
)

func requireTyped(t *testing.T, err error, kind runerr.Kind) *runerr.Error {
	t.Helper()
	require.Error(t, err)
	typed, ok := runerr.As(err)
	require.True(t, ok, "expected a typed error, got %v", err)
	assert.Equal(t, kind, typed.Type)
	return typed
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, "undefined", TypeOf(Undefined))
	assert.Equal(t, "object", TypeOf(nil))
	assert.Equal(t, "object", TypeOf(map[string]interface{}{}))
	assert.Equal(t, "object", TypeOf([]interface{}{}))
	assert.Equal(t, "number", TypeOf(3))
	assert.Equal(t, "number", TypeOf(json.Number("3.5")))
	assert.Equal(t, "string", TypeOf(""))
	assert.Equal(t, "boolean", TypeOf(false))
	assert.Equal(t, "function", TypeOf(func() {}))
}

func TestIntegerOption(t *testing.T) {
	assert.NoError(t, IntegerOption("offsetX", 23))
	assert.NoError(t, IntegerOption("offsetX", -5.0))

	typed := requireTyped(t, IntegerOption("offsetX", "1"), runerr.KindIntegerOption)
	assert.Equal(t, "offsetX", typed.OptionName)
	assert.Equal(t, "string", typed.ActualValue)

	typed = requireTyped(t, IntegerOption("offsetY", 10.5), runerr.KindIntegerOption)
	assert.Equal(t, 10.5, typed.ActualValue)

	typed = requireTyped(t, IntegerOption("offsetY", math.Inf(1)), runerr.KindIntegerOption)
	assert.True(t, math.IsInf(typed.ActualValue.(float64), 1))

	assert.NoError(t, IntegerOption("offsetX", float64(MaxSafeInteger)))
	assert.NoError(t, IntegerOption("offsetX", -float64(MaxSafeInteger)))

	typed = requireTyped(t, IntegerOption("offsetX", -1e20), runerr.KindIntegerOption)
	assert.Equal(t, -1e20, typed.ActualValue)
}

func TestPositiveIntegerOption(t *testing.T) {
	assert.NoError(t, PositiveIntegerOption("caretPos", 0))

	typed := requireTyped(t, PositiveIntegerOption("caretPos", -1), runerr.KindPositiveIntegerOption)
	assert.Equal(t, -1.0, typed.ActualValue)

	typed = requireTyped(t, PositiveIntegerOption("caretPos", math.NaN()), runerr.KindPositiveIntegerOption)
	assert.True(t, math.IsNaN(typed.ActualValue.(float64)))

	typed = requireTyped(t, PositiveIntegerOption("caretPos", nil), runerr.KindPositiveIntegerOption)
	assert.Equal(t, "object", typed.ActualValue)

	typed = requireTyped(t, PositiveIntegerOption("caretPos", 1e20), runerr.KindPositiveIntegerOption)
	assert.Equal(t, 1e20, typed.ActualValue)

	typed = requireTyped(t, PositiveIntegerArgument("width", json.Number("9007199254740993")), runerr.KindPositiveIntegerArgument)
	assert.Equal(t, "width", typed.ArgumentName)
}

func TestBooleanOption(t *testing.T) {
	assert.NoError(t, BooleanOption("replace", true))
	typed := requireTyped(t, BooleanOption("modifiers.ctrl", "true"), runerr.KindBooleanOption)
	assert.Equal(t, "modifiers.ctrl", typed.OptionName)
	assert.Equal(t, "string", typed.ActualValue)
}

func TestActionOptions(t *testing.T) {
	assert.NoError(t, ActionOptions("options", Undefined))
	assert.NoError(t, ActionOptions("options", nil))
	assert.NoError(t, ActionOptions("options", []interface{}{}))
	assert.NoError(t, ActionOptions("options", map[string]interface{}{}))

	typed := requireTyped(t, ActionOptions("options", 1), runerr.KindOptionsType)
	assert.Equal(t, "number", typed.ActualType)
}

func TestNonEmptyStringArgument(t *testing.T) {
	assert.NoError(t, NonEmptyStringArgument("text", "a"))

	typed := requireTyped(t, NonEmptyStringArgument("text", Undefined), runerr.KindStringArgument)
	assert.Equal(t, "undefined", typed.ActualValue)

	typed = requireTyped(t, NonEmptyStringArgument("text", ""), runerr.KindStringArgument)
	assert.Equal(t, `""`, typed.ActualValue)
}

func TestStringOrStringArrayArgument(t *testing.T) {
	assert.NoError(t, StringOrStringArrayArgument("filePath", "a.txt"))
	assert.NoError(t, StringOrStringArrayArgument("filePath", []interface{}{"a", "b"}))
	assert.NoError(t, StringOrStringArrayArgument("filePath", []string{"a"}))

	typed := requireTyped(t, StringOrStringArrayArgument("filePath", ""), runerr.KindStringOrStringArrayArg)
	assert.Equal(t, `""`, typed.ActualValue)

	typed = requireTyped(t, StringOrStringArrayArgument("filePath", map[string]interface{}{}), runerr.KindStringOrStringArrayArg)
	assert.Equal(t, "object", typed.ActualValue)

	typed = requireTyped(t, StringOrStringArrayArgument("filePath", []interface{}{}), runerr.KindStringOrStringArrayArg)
	assert.Equal(t, "[]", typed.ActualValue)

	typed = requireTyped(t, StringOrStringArrayArgument("filePath", []interface{}{"123", 42}), runerr.KindStringArrayElement)
	assert.Equal(t, "number", typed.ActualValue)
	require.NotNil(t, typed.ElementIndex)
	assert.Equal(t, 1, *typed.ElementIndex)

	typed = requireTyped(t, StringOrStringArrayArgument("filePath", []interface{}{""}), runerr.KindStringArrayElement)
	assert.Equal(t, `""`, typed.ActualValue)
	assert.Equal(t, 0, *typed.ElementIndex)

	assert.Equal(t, []string{"a", "b"}, Strings([]interface{}{"a", "b"}))
	assert.Equal(t, []string{"a"}, Strings("a"))
}

type nested struct {
	Offset *int
	Ctrl   bool
	Speed  interface{}
}

func nestedFields() []Field[nested] {
	return []Field[nested]{
		{Path: "offsetX", Check: IntegerOption, Set: func(n *nested, v interface{}) error { n.Offset = IntPtr(v); return nil }},
		{Path: "modifiers.ctrl", Check: BooleanOption, Set: func(n *nested, v interface{}) error { n.Ctrl = Bool(v); return nil }},
		{Path: "speed", Set: func(n *nested, v interface{}) error { n.Speed = v; return nil }},
	}
}

func TestAssign(t *testing.T) {
	t.Run("copies known fields and ignores unknown ones", func(t *testing.T) {
		var n nested
		err := Assign(&n, map[string]interface{}{
			"offsetX":   23,
			"dummy":     "yo",
			"speed":     "fast",
			"modifiers": map[string]interface{}{"ctrl": true, "dummy": 1},
		}, nestedFields())
		require.NoError(t, err)
		require.NotNil(t, n.Offset)
		assert.Equal(t, 23, *n.Offset)
		assert.True(t, n.Ctrl)
		assert.Equal(t, "fast", n.Speed)
	})

	t.Run("skips nested paths whose parent is not an object", func(t *testing.T) {
		var n nested
		err := Assign(&n, map[string]interface{}{"modifiers": "nope"}, nestedFields())
		require.NoError(t, err)
		assert.False(t, n.Ctrl)
	})

	t.Run("explicit null is validated", func(t *testing.T) {
		var n nested
		err := Assign(&n, map[string]interface{}{"offsetX": nil}, nestedFields())
		typed := requireTyped(t, err, runerr.KindIntegerOption)
		assert.Equal(t, "object", typed.ActualValue)
	})

	t.Run("first invalid field wins", func(t *testing.T) {
		var n nested
		err := Assign(&n, map[string]interface{}{
			"offsetX":   "a",
			"modifiers": map[string]interface{}{"ctrl": 1},
		}, nestedFields())
		typed := requireTyped(t, err, runerr.KindIntegerOption)
		assert.Equal(t, "offsetX", typed.OptionName)
	})

	t.Run("required fields see Undefined", func(t *testing.T) {
		fields := []Field[nested]{{
			Path:     "text",
			Check:    NonEmptyStringArgument,
			Required: true,
			Set:      func(*nested, interface{}) error { return nil },
		}}
		var n nested
		typed := requireTyped(t, Assign(&n, map[string]interface{}{}, fields), runerr.KindStringArgument)
		assert.Equal(t, "undefined", typed.ActualValue)
	})
}

func TestPrefix(t *testing.T) {
	type outer struct{ Inner nested }
	fields := Prefix(nestedFields(), func(o *outer) *nested { return &o.Inner })

	var o outer
	require.NoError(t, Assign(&o, map[string]interface{}{"offsetX": 4}, fields))
	require.NotNil(t, o.Inner.Offset)
	assert.Equal(t, 4, *o.Inner.Offset)
}
