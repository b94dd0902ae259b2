package program

import (
	"encoding/json"

	"gopkg.in/yaml.v3"

	"firestige.xyz/webhookd/pkg/state"
)

// itemToAny converts an Item to the untagged representation that the
// reference's serde derive produces: None -> nil, Int/String -> the bare
// scalar, Array/Map -> plain Go slices/maps of the same, recursively. This is
// the wire shape used by to_payload/from_payload, distinct from the
// definition file's tagged literal shape (int_value/string_value) used by
// decodeConfigItem.
func itemToAny(i state.Item) any {
	switch i.Kind {
	case state.ItemArray:
		out := make([]any, len(i.Arr))
		for idx, v := range i.Arr {
			out[idx] = itemToAny(v)
		}
		return out
	case state.ItemMap:
		out := make(map[string]any, len(i.MapV))
		for k, v := range i.MapV {
			out[k] = itemToAny(v)
		}
		return out
	default:
		switch i.Scal.Kind {
		case state.ValueInt:
			return i.Scal.Int
		case state.ValueString:
			return i.Scal.Str
		default:
			return nil
		}
	}
}

// anyToItem is the inverse of itemToAny, tolerant of both json.Unmarshal's
// float64-for-numbers convention and yaml.v3's native int/string decoding.
func anyToItem(v any) state.Item {
	switch t := v.(type) {
	case nil:
		return state.NewValueItem(state.NoneValue())
	case string:
		return state.NewValueItem(state.StringValue(t))
	case int:
		return state.NewValueItem(state.IntValue(int64(t)))
	case int64:
		return state.NewValueItem(state.IntValue(t))
	case float64:
		return state.NewValueItem(state.IntValue(int64(t)))
	case []any:
		arr := make([]state.Item, len(t))
		for idx, e := range t {
			arr[idx] = anyToItem(e)
		}
		return state.NewArrayItem(arr)
	case map[string]any:
		m := make(map[string]state.Item, len(t))
		for k, e := range t {
			m[k] = anyToItem(e)
		}
		return state.NewMapItem(m)
	default:
		return state.NewValueItem(state.NoneValue())
	}
}

// ItemToJSON serializes an Item using the untagged wire shape.
func ItemToJSON(i state.Item) ([]byte, error) {
	return json.Marshal(itemToAny(i))
}

// ItemFromJSON parses the untagged wire shape into an Item.
func ItemFromJSON(data []byte) (state.Item, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return state.Item{}, err
	}
	return anyToItem(v), nil
}

// ItemToYAML serializes an Item using the untagged wire shape.
func ItemToYAML(i state.Item) ([]byte, error) {
	return yaml.Marshal(itemToAny(i))
}

// ItemFromYAML parses the untagged wire shape into an Item.
func ItemFromYAML(data []byte) (state.Item, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return state.Item{}, err
	}
	return anyToItem(v), nil
}
