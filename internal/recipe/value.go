package recipe

import (
	"fmt"
	"math"

	"typeweave/internal/meta"
	"typeweave/internal/model"
)

// convertValue turns a decoded TOML value into a constant of type target.
// Integers narrow to Int32 when they fit; strings name types when target is
// System.Type.
func convertValue(p meta.Provider, types meta.TypeResolver, raw any, target meta.TypeID) (model.Value, error) {
	b := p.Builtins()
	tt := p.Type(target)
	if tt == nil {
		return model.Value{}, fmt.Errorf("invalid target type")
	}

	var v model.Value
	switch {
	case target == b.Type:
		name, ok := raw.(string)
		if !ok {
			return model.Value{}, fmt.Errorf("%v is not a type name", raw)
		}
		id, err := types.ResolveRef(name)
		if err != nil {
			return model.Value{}, err
		}
		return model.Value{Type: b.Type, Data: id}, nil
	case tt.Kind == meta.KindArray:
		items, ok := raw.([]any)
		if !ok {
			return model.Value{}, fmt.Errorf("%v is not an array", raw)
		}
		elems := make([]model.Value, len(items))
		for i, item := range items {
			e, err := convertValue(p, types, item, tt.Elem)
			if err != nil {
				return model.Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			elems[i] = e
		}
		return model.Value{Type: target, Data: elems}, nil
	}

	switch d := raw.(type) {
	case bool:
		v = model.Value{Type: b.Boolean, Data: d}
	case int64:
		switch {
		case target == b.Int64:
			v = model.Value{Type: b.Int64, Data: d}
		case target == b.Double:
			v = model.Value{Type: b.Double, Data: float64(d)}
		case d >= math.MinInt32 && d <= math.MaxInt32:
			v = model.Value{Type: b.Int32, Data: int32(d)}
		default:
			v = model.Value{Type: b.Int64, Data: d}
		}
	case float64:
		v = model.Value{Type: b.Double, Data: d}
	case string:
		v = model.Value{Type: b.String, Data: d}
	default:
		return model.Value{}, fmt.Errorf("unsupported value %v (%T)", raw, raw)
	}
	if !meta.IsAssignableTo(p, v.Type, target) {
		return model.Value{}, fmt.Errorf("%s is not assignable to %s", meta.TypeName(p, v.Type), meta.TypeName(p, target))
	}
	return v, nil
}
