// internal/commands/selector.go
package commands

import (
	"fmt"

	"github.com/xkilldash9x/brewer/api/schemas"
	v "github.com/xkilldash9x/brewer/internal/validation"
)

// ResolvedSelector is the serializable form of an element query: a client
// function that returns the matching nodes when run in the page.
type ResolvedSelector struct {
	Type                      schemas.CommandType    `json:"type"`
	InstantiationCallsiteName string                 `json:"instantiationCallsiteName"`
	FnCode                    string                 `json:"fnCode"`
	Args                      []interface{}          `json:"args"`
	ScopeVars                 map[string]interface{} `json:"scopeVars"`
	VisibilityCheck           bool                   `json:"visibilityCheck"`
	Timeout                   *int                   `json:"timeout"`
}

func (s *ResolvedSelector) CommandType() schemas.CommandType { return schemas.CommandExecuteSelector }

// CSS returns the CSS query a selector was built from, if any.
func (s *ResolvedSelector) CSS() (string, bool) {
	css, ok := s.ScopeVars[cssSelectorVar].(string)
	return css, ok
}

// SelectorOptions are set by the command that owns the selector field.
type SelectorOptions struct {
	VisibilityCheck bool
}

// SelectorResolver turns the raw value of a selector-bearing field into a
// resolved selector. Failures are selector errors naming the field.
type SelectorResolver interface {
	Resolve(fieldName string, raw interface{}, opts SelectorOptions) (*ResolvedSelector, error)
}

// SelectorFunc marks a raw value as function source to be used as the
// selector body.
type SelectorFunc string

const (
	cssSelectorVar    = "cssSelector"
	selectorCallsite  = "Selector"
	cssSelectorFnCode = "(function(){return document.querySelectorAll(cssSelector);})"
)

// DefaultResolver accepts CSS strings, function source, already resolved
// selectors and node snapshots that carry their originating selector.
type DefaultResolver struct{}

func (DefaultResolver) Resolve(fieldName string, raw interface{}, opts SelectorOptions) (*ResolvedSelector, error) {
	switch val := raw.(type) {
	case string:
		return newSelector(cssSelectorFnCode, map[string]interface{}{cssSelectorVar: val}, opts), nil
	case SelectorFunc:
		return newSelector(string(val), map[string]interface{}{}, opts), nil
	case *ResolvedSelector:
		cp := *val
		cp.VisibilityCheck = opts.VisibilityCheck
		return &cp, nil
	case map[string]interface{}:
		if sel, ok := selectorFromObject(val, opts); ok {
			return sel, nil
		}
		if snapshotSel, ok := v.Object(val["selector"]); ok {
			if sel, ok := selectorFromObject(snapshotSel, opts); ok {
				return sel, nil
			}
		}
	}
	return nil, selectorTypeError(fieldName, raw)
}

func newSelector(fnCode string, deps map[string]interface{}, opts SelectorOptions) *ResolvedSelector {
	return &ResolvedSelector{
		Type:                      schemas.CommandExecuteSelector,
		InstantiationCallsiteName: selectorCallsite,
		FnCode:                    fnCode,
		Args:                      []interface{}{},
		ScopeVars:                 deps,
		VisibilityCheck:           opts.VisibilityCheck,
	}
}

func selectorFromObject(obj map[string]interface{}, opts SelectorOptions) (*ResolvedSelector, bool) {
	if obj["type"] != string(schemas.CommandExecuteSelector) {
		return nil, false
	}
	fnCode, ok := obj["fnCode"].(string)
	if !ok || fnCode == "" {
		return nil, false
	}

	sel := newSelector(fnCode, map[string]interface{}{}, opts)
	if name, ok := obj["instantiationCallsiteName"].(string); ok && name != "" {
		sel.InstantiationCallsiteName = name
	}
	if args, ok := v.Array(obj["args"]); ok {
		sel.Args = args
	}
	if deps, ok := v.Object(obj["scopeVars"]); ok {
		sel.ScopeVars = deps
	}
	if timeout, ok := v.Number(obj["timeout"]); ok {
		t := int(timeout)
		sel.Timeout = &t
	}
	return sel, true
}

func selectorTypeError(fieldName string, raw interface{}) error {
	return selectorError(fieldName, fmt.Sprintf(
		"Selector is expected to be initialized with a function, CSS selector string, another Selector, "+
			"node snapshot or a Promise returned by a Selector, but %s was passed.", v.TypeOf(raw)))
}
