// internal/clientfn/replicator.go
package clientfn

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	tagKey  = "@t"
	dataKey = "data"
	// objectTag marks a plain object that happens to contain tagKey.
	objectTag = "Object"
)

// Transform converts one kind of value to and from a wire-safe payload.
type Transform struct {
	Type             string
	ShouldTransform  func(val interface{}) bool
	ToSerializable   func(val interface{}) (interface{}, error)
	FromSerializable func(payload interface{}) (interface{}, error)
}

// Replicator encodes values for the trip across the call boundary and
// decodes them on the other side. The first Transform that accepts a value
// encodes it; everything else is copied structurally.
type Replicator struct {
	transforms []Transform
}

func NewReplicator(transforms ...Transform) *Replicator {
	return &Replicator{transforms: transforms}
}

// Encode returns the wire form of val. Transformed values become
// {"@t": type, "data": payload}.
func (r *Replicator) Encode(val interface{}) (interface{}, error) {
	for _, t := range r.transforms {
		if !t.ShouldTransform(val) {
			continue
		}
		payload, err := t.ToSerializable(val)
		if err != nil {
			return nil, fmt.Errorf("replicator: %s transform failed: %w", t.Type, err)
		}
		encoded, err := r.Encode(payload)
		if err != nil {
			return nil, err
		}
		return tagged(t.Type, encoded), nil
	}

	switch v := val.(type) {
	case nil, bool, string, float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, jsoniter.Number:
		return v, nil
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, item := range v {
			enc, err := r.Encode(item)
			if err != nil {
				return nil, err
			}
			out[k] = enc
		}
		if _, clash := v[tagKey]; clash {
			return tagged(objectTag, out), nil
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			enc, err := r.Encode(item)
			if err != nil {
				return nil, err
			}
			out[i] = enc
		}
		return out, nil
	}

	// Other Go values are flattened through their JSON form.
	plain, err := toPlain(val)
	if err != nil {
		return nil, fmt.Errorf("replicator: cannot copy %T: %w", val, err)
	}
	return r.Encode(plain)
}

// Decode reverses Encode.
func (r *Replicator) Decode(val interface{}) (interface{}, error) {
	switch v := val.(type) {
	case map[string]interface{}:
		if tag, ok := v[tagKey].(string); ok {
			return r.decodeTagged(tag, v[dataKey])
		}
		return r.decodeObject(v)
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			dec, err := r.Decode(item)
			if err != nil {
				return nil, err
			}
			out[i] = dec
		}
		return out, nil
	}
	return val, nil
}

func (r *Replicator) decodeTagged(tag string, data interface{}) (interface{}, error) {
	if tag == objectTag {
		obj, ok := data.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("replicator: %s payload is %T, not an object", objectTag, data)
		}
		return r.decodeObject(obj)
	}

	for _, t := range r.transforms {
		if t.Type != tag {
			continue
		}
		payload, err := r.Decode(data)
		if err != nil {
			return nil, err
		}
		out, err := t.FromSerializable(payload)
		if err != nil {
			return nil, fmt.Errorf("replicator: %s transform failed: %w", t.Type, err)
		}
		return out, nil
	}
	return nil, fmt.Errorf("replicator: no transform for type %q", tag)
}

func (r *Replicator) decodeObject(obj map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(obj))
	for k, item := range obj {
		dec, err := r.Decode(item)
		if err != nil {
			return nil, err
		}
		out[k] = dec
	}
	return out, nil
}

func tagged(tag string, payload interface{}) map[string]interface{} {
	return map[string]interface{}{tagKey: tag, dataKey: payload}
}

func toPlain(val interface{}) (interface{}, error) {
	data, err := json.Marshal(val)
	if err != nil {
		return nil, err
	}
	var plain interface{}
	if err := json.Unmarshal(data, &plain); err != nil {
		return nil, err
	}
	return plain, nil
}
