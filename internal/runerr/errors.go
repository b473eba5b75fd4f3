// internal/runerr/errors.go
package runerr

import (
	"errors"
	"fmt"
	"math"

	jsoniter "github.com/json-iterator/go"
)

// Kind identifies an error record on the wire.
type Kind string

const (
	KindSelector                 Kind = "actionSelectorError"
	KindOptionsType              Kind = "actionOptionsTypeError"
	KindIntegerOption            Kind = "actionIntegerOptionError"
	KindPositiveIntegerOption    Kind = "actionPositiveIntegerOptionError"
	KindBooleanOption            Kind = "actionBooleanOptionError"
	KindStringArgument           Kind = "actionStringArgumentError"
	KindIntegerArgument          Kind = "actionIntegerArgumentError"
	KindPositiveIntegerArgument  Kind = "actionPositiveIntegerArgumentError"
	KindStringOrStringArrayArg   Kind = "actionStringOrStringArrayArgumentError"
	KindStringArrayElement       Kind = "actionStringArrayElementError"
	KindUnsupportedURLProtocol   Kind = "actionUnsupportedUrlProtocolError"
	KindUnsupportedDeviceType    Kind = "actionUnsupportedDeviceTypeError"
	KindUncaughtInClientFunction Kind = "uncaughtErrorInClientFunctionCode"
	KindUncaughtOnPage           Kind = "uncaughtErrorOnPage"
	KindElementNotFound          Kind = "actionElementNotFoundError"
	KindUnsupportedByDriver      Kind = "actionUnsupportedByDriver"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Error is an immutable, serializable error record. Only the fields that
// belong to its Kind are populated.
type Error struct {
	IsTestCafeError bool `json:"isTestCafeError"`
	Type            Kind `json:"type"`
	// Callsite is filled in by the reporting layer; it is always null here.
	Callsite interface{} `json:"callsite"`

	OptionName                string      `json:"optionName,omitempty"`
	ArgumentName              string      `json:"argumentName,omitempty"`
	SelectorName              string      `json:"selectorName,omitempty"`
	ActualValue               interface{} `json:"actualValue,omitempty"`
	ActualType                string      `json:"actualType,omitempty"`
	ErrMsg                    string      `json:"errMsg,omitempty"`
	Protocol                  string      `json:"protocol,omitempty"`
	ElementIndex              *int        `json:"elementIndex,omitempty"`
	InstantiationCallsiteName string      `json:"instantiationCallsiteName,omitempty"`
	CommandType               string      `json:"commandType,omitempty"`
}

func newError(kind Kind) *Error {
	return &Error{IsTestCafeError: true, Type: kind}
}

// Error renders a single line description of the record.
func (e *Error) Error() string {
	switch e.Type {
	case KindSelector:
		return fmt.Sprintf("%s: %s", e.SelectorName, e.ErrMsg)
	case KindOptionsType:
		return fmt.Sprintf("action options are expected to be an object, but %s was passed", e.ActualType)
	case KindIntegerOption, KindPositiveIntegerOption, KindBooleanOption:
		return fmt.Sprintf("%s: invalid value for option %q: %v", e.Type, e.OptionName, e.ActualValue)
	case KindStringArrayElement:
		return fmt.Sprintf("%s: element %d of argument %q is invalid: %v", e.Type, *e.ElementIndex, e.ArgumentName, e.ActualValue)
	case KindUnsupportedURLProtocol:
		return fmt.Sprintf("the %q protocol of argument %q is not supported", e.Protocol, e.ArgumentName)
	case KindUnsupportedDeviceType:
		return fmt.Sprintf("%q is not a supported device for argument %q", e.ActualValue, e.ArgumentName)
	case KindUncaughtInClientFunction:
		return fmt.Sprintf("an error occurred in %s code: %s", e.InstantiationCallsiteName, e.ErrMsg)
	case KindUncaughtOnPage:
		return fmt.Sprintf("an error occurred on the page: %s", e.ErrMsg)
	case KindElementNotFound:
		return fmt.Sprintf("the element specified by %q does not exist", e.SelectorName)
	case KindUnsupportedByDriver:
		return fmt.Sprintf("the %q command is not supported by this driver", e.CommandType)
	default:
		return fmt.Sprintf("%s: invalid value for argument %q: %v", e.Type, e.ArgumentName, e.ActualValue)
	}
}

// MarshalJSON writes the wire record. Non-finite numeric values have no JSON
// representation and are written as null.
func (e *Error) MarshalJSON() ([]byte, error) {
	type record Error
	if f, ok := e.ActualValue.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return json.Marshal(struct {
			*record
			ActualValue interface{} `json:"actualValue"`
		}{record: (*record)(e)})
	}
	return json.Marshal((*record)(e))
}

// As extracts a typed record from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsTyped reports whether err carries a typed record anywhere in its chain.
func IsTyped(err error) bool {
	_, ok := As(err)
	return ok
}

func NewSelectorError(selectorName, errMsg string) *Error {
	e := newError(KindSelector)
	e.SelectorName = selectorName
	e.ErrMsg = errMsg
	return e
}

func NewOptionsTypeError(actualType string) *Error {
	e := newError(KindOptionsType)
	e.ActualType = actualType
	return e
}

func NewIntegerOptionError(optionName string, actualValue interface{}) *Error {
	return optionError(KindIntegerOption, optionName, actualValue)
}

func NewPositiveIntegerOptionError(optionName string, actualValue interface{}) *Error {
	return optionError(KindPositiveIntegerOption, optionName, actualValue)
}

func NewBooleanOptionError(optionName string, actualValue interface{}) *Error {
	return optionError(KindBooleanOption, optionName, actualValue)
}

func optionError(kind Kind, optionName string, actualValue interface{}) *Error {
	e := newError(kind)
	e.OptionName = optionName
	e.ActualValue = actualValue
	return e
}

func NewStringArgumentError(argumentName string, actualValue interface{}) *Error {
	return argumentError(KindStringArgument, argumentName, actualValue)
}

func NewIntegerArgumentError(argumentName string, actualValue interface{}) *Error {
	return argumentError(KindIntegerArgument, argumentName, actualValue)
}

func NewPositiveIntegerArgumentError(argumentName string, actualValue interface{}) *Error {
	return argumentError(KindPositiveIntegerArgument, argumentName, actualValue)
}

func NewStringOrStringArrayArgumentError(argumentName string, actualValue interface{}) *Error {
	return argumentError(KindStringOrStringArrayArg, argumentName, actualValue)
}

func NewStringArrayElementError(argumentName string, actualValue interface{}, elementIndex int) *Error {
	e := argumentError(KindStringArrayElement, argumentName, actualValue)
	e.ElementIndex = &elementIndex
	return e
}

func NewUnsupportedURLProtocolError(argumentName, protocol string) *Error {
	e := newError(KindUnsupportedURLProtocol)
	e.ArgumentName = argumentName
	e.Protocol = protocol
	return e
}

func NewUnsupportedDeviceTypeError(argumentName string, actualValue interface{}) *Error {
	return argumentError(KindUnsupportedDeviceType, argumentName, actualValue)
}

func argumentError(kind Kind, argumentName string, actualValue interface{}) *Error {
	e := newError(kind)
	e.ArgumentName = argumentName
	e.ActualValue = actualValue
	return e
}

// NewUncaughtErrorInClientFunction wraps a failure raised by user supplied
// function code.
func NewUncaughtErrorInClientFunction(instantiationCallsiteName string, err error) *Error {
	e := newError(KindUncaughtInClientFunction)
	e.InstantiationCallsiteName = instantiationCallsiteName
	e.ErrMsg = err.Error()
	return e
}

// NewUncaughtErrorOnPage wraps a failure the page raised while an automation
// was running.
func NewUncaughtErrorOnPage(err error) *Error {
	e := newError(KindUncaughtOnPage)
	e.ErrMsg = err.Error()
	return e
}

func NewElementNotFoundError(selectorName string) *Error {
	e := newError(KindElementNotFound)
	e.SelectorName = selectorName
	return e
}

func NewUnsupportedByDriverError(commandType string) *Error {
	e := newError(KindUnsupportedByDriver)
	e.CommandType = commandType
	return e
}
