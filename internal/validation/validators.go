// internal/validation/validators.go
package validation

import (
	"math"

	"github.com/xkilldash9x/brewer/internal/runerr"
)

// Validator checks a raw value for the named field. It returns a typed
// *runerr.Error on mismatch.
type Validator func(name string, val interface{}) error

type errorFactory func(name string, actual interface{}) *runerr.Error

// MaxSafeInteger is the largest integer a float64 holds exactly. Larger
// magnitudes are rejected so validated values always fit in an int.
const MaxSafeInteger = 1<<53 - 1

func integerValidator(newErr errorFactory) Validator {
	return func(name string, val interface{}) error {
		num, ok := Number(val)
		if !ok {
			return newErr(name, TypeOf(val))
		}
		if math.IsNaN(num) || math.IsInf(num, 0) || num != math.Trunc(num) || math.Abs(num) > MaxSafeInteger {
			return newErr(name, num)
		}
		return nil
	}
}

func positiveIntegerValidator(newErr errorFactory) Validator {
	isInteger := integerValidator(newErr)
	return func(name string, val interface{}) error {
		if err := isInteger(name, val); err != nil {
			return err
		}
		if num, _ := Number(val); num < 0 {
			return newErr(name, num)
		}
		return nil
	}
}

func booleanValidator(newErr errorFactory) Validator {
	return func(name string, val interface{}) error {
		if _, ok := val.(bool); !ok {
			return newErr(name, TypeOf(val))
		}
		return nil
	}
}

var (
	IntegerOption         = integerValidator(runerr.NewIntegerOptionError)
	PositiveIntegerOption = positiveIntegerValidator(runerr.NewPositiveIntegerOptionError)
	BooleanOption         = booleanValidator(runerr.NewBooleanOptionError)

	IntegerArgument         = integerValidator(runerr.NewIntegerArgumentError)
	PositiveIntegerArgument = positiveIntegerValidator(runerr.NewPositiveIntegerArgumentError)
)

// ActionOptions accepts objects (including null and arrays) and absent values.
func ActionOptions(_ string, val interface{}) error {
	if t := TypeOf(val); t != "object" && t != "undefined" {
		return runerr.NewOptionsTypeError(t)
	}
	return nil
}

// NonEmptyStringArgument rejects anything but a string with at least one
// character.
func NonEmptyStringArgument(name string, val interface{}) error {
	return nonEmptyString(name, val, runerr.NewStringArgumentError)
}

func nonEmptyString(name string, val interface{}, newErr errorFactory) error {
	s, ok := val.(string)
	if !ok {
		return newErr(name, TypeOf(val))
	}
	if s == "" {
		return newErr(name, `""`)
	}
	return nil
}

// StringOrStringArrayArgument accepts a non-empty string or a non-empty array
// of non-empty strings. Array element failures report the element index.
func StringOrStringArrayArgument(name string, val interface{}) error {
	if s, ok := val.(string); ok {
		if s == "" {
			return runerr.NewStringOrStringArrayArgumentError(name, `""`)
		}
		return nil
	}

	items, ok := Array(val)
	if !ok {
		return runerr.NewStringOrStringArrayArgumentError(name, TypeOf(val))
	}
	if len(items) == 0 {
		return runerr.NewStringOrStringArrayArgumentError(name, "[]")
	}
	for i, item := range items {
		index := i
		err := nonEmptyString(name, item, func(name string, actual interface{}) *runerr.Error {
			return runerr.NewStringArrayElementError(name, actual, index)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Strings converts a value that passed StringOrStringArrayArgument.
func Strings(val interface{}) []string {
	if s, ok := val.(string); ok {
		return []string{s}
	}
	items, _ := Array(val)
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, _ := item.(string)
		out = append(out, s)
	}
	return out
}
