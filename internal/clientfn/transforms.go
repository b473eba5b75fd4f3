// internal/clientfn/transforms.go
package clientfn

import (
	"fmt"

	"github.com/xkilldash9x/brewer/api/schemas"
)

const (
	FunctionType = "Function"
	NodeType     = "Node"
)

// ClientFunction is a function value in transit, held as source code.
type ClientFunction struct {
	Code string
}

// FunctionTransform carries functions as their source text.
func FunctionTransform() Transform {
	return Transform{
		Type: FunctionType,
		ShouldTransform: func(val interface{}) bool {
			_, ok := val.(*ClientFunction)
			return ok
		},
		ToSerializable: func(val interface{}) (interface{}, error) {
			return val.(*ClientFunction).Code, nil
		},
		FromSerializable: func(payload interface{}) (interface{}, error) {
			code, ok := payload.(string)
			if !ok {
				return nil, fmt.Errorf("function payload is %T, not source text", payload)
			}
			return &ClientFunction{Code: code}, nil
		},
	}
}

// NodeTransform carries page elements as snapshots, tagged with the call
// site that produced them.
func NodeTransform(instantiationCallsiteName string) Transform {
	return Transform{
		Type: NodeType,
		ShouldTransform: func(val interface{}) bool {
			_, ok := val.(*schemas.NodeSnapshot)
			return ok
		},
		ToSerializable: func(val interface{}) (interface{}, error) {
			node, err := toPlain(val)
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{
				"callsite": instantiationCallsiteName,
				"node":     node,
			}, nil
		},
		FromSerializable: func(payload interface{}) (interface{}, error) {
			wire, ok := payload.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("node payload is %T, not an object", payload)
			}
			data, err := json.Marshal(wire["node"])
			if err != nil {
				return nil, err
			}
			var node schemas.NodeSnapshot
			if err := json.Unmarshal(data, &node); err != nil {
				return nil, fmt.Errorf("invalid node snapshot: %w", err)
			}
			return &node, nil
		},
	}
}
