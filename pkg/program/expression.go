package program

import (
	"fmt"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"firestige.xyz/webhookd/internal/core"
	"firestige.xyz/webhookd/pkg/state"
)

type expressionKind int

const (
	exprSetEnv expressionKind = iota
	exprGetEnv
	exprFromPayload
	exprFromJSON
	exprAsMap
	exprItem
)

// Expression is one node of the per-message program's expression language.
// Evaluating an Expression threads (payload, state) and returns the item it
// produced alongside the possibly-updated pair.
type Expression struct {
	kind        expressionKind
	setEnv      *setEnvSpec
	getEnv      state.Identifier
	fromPayload PayloadFormat
	fromJSON    string
	asMap       map[string]Expression
	item        state.Item
}

type setEnvSpec struct {
	target state.Identifier
	value  *Expression
}

// Evaluate returns (item, payload, state, err). Payload and state are
// threaded rather than shared by reference: every sub-evaluation sees the
// up-to-date pair.
func (e Expression) Evaluate(payload core.Payload, st state.State) (state.Item, core.Payload, state.State, error) {
	switch e.kind {
	case exprSetEnv:
		value, payload, st, err := e.setEnv.value.Evaluate(payload, st)
		if err != nil {
			return state.Item{}, payload, st, err
		}
		if _, _, err := st.Set(e.setEnv.target, value); err != nil {
			return state.Item{}, payload, st, err
		}
		return value, payload, st, nil

	case exprGetEnv:
		item, ok := st.Get(e.getEnv)
		if !ok {
			item = state.NewValueItem(state.NoneValue())
		}
		return item, payload, st, nil

	case exprFromPayload:
		item, err := e.fromPayload.Decode(payload)
		if err != nil {
			return state.Item{}, payload, st, err
		}
		return item, payload, st, nil

	case exprItem:
		return e.item, payload, st, nil

	case exprFromJSON:
		return state.Item{}, payload, st, fmt.Errorf("from_json %q: %w", e.fromJSON, core.ErrUnimplemented)

	case exprAsMap:
		// Sub-expressions are evaluated in sorted key order so that side
		// effects on (payload, state) happen in a stable order.
		keys := make([]string, 0, len(e.asMap))
		for key := range e.asMap {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		result := make(map[string]state.Item, len(e.asMap))
		for _, key := range keys {
			sub := e.asMap[key]
			item, newPayload, newState, err := sub.Evaluate(payload, st)
			if err != nil {
				return state.Item{}, payload, st, err
			}
			payload, st = newPayload, newState
			result[key] = item
		}
		return state.NewMapItem(result), payload, st, nil

	default:
		return state.Item{}, payload, st, fmt.Errorf("unrecognized expression: %w", core.ErrInvalidConfig)
	}
}

// UnmarshalYAML recognizes the untagged discriminator shape documented in
// the definition file format: set_env / get_env / from_payload / from_json /
// as_map keys, an explicit item key, or (as a fallback) a bare literal Item.
func (e *Expression) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode {
		raw := map[string]yaml.Node{}
		if err := node.Decode(&raw); err != nil {
			return err
		}

		if n, ok := raw["set_env"]; ok {
			var spec struct {
				Target state.Identifier `yaml:"target"`
				Value  Expression       `yaml:"value"`
			}
			if err := n.Decode(&spec); err != nil {
				return fmt.Errorf("set_env: %w", err)
			}
			e.kind = exprSetEnv
			e.setEnv = &setEnvSpec{target: spec.Target, value: &spec.Value}
			return nil
		}

		if n, ok := raw["get_env"]; ok {
			var id string
			if err := n.Decode(&id); err != nil {
				return fmt.Errorf("get_env: %w", err)
			}
			e.kind = exprGetEnv
			e.getEnv = state.NewIdentifier(id)
			return nil
		}

		if n, ok := raw["from_payload"]; ok {
			var f PayloadFormat
			if err := n.Decode(&f); err != nil {
				return fmt.Errorf("from_payload: %w", err)
			}
			e.kind = exprFromPayload
			e.fromPayload = f
			return nil
		}

		if n, ok := raw["from_json"]; ok {
			var s string
			if err := n.Decode(&s); err != nil {
				return fmt.Errorf("from_json: %w", err)
			}
			e.kind = exprFromJSON
			e.fromJSON = s
			return nil
		}

		if n, ok := raw["as_map"]; ok {
			var m map[string]Expression
			if err := n.Decode(&m); err != nil {
				return fmt.Errorf("as_map: %w", err)
			}
			e.kind = exprAsMap
			e.asMap = m
			return nil
		}

		if n, ok := raw["item"]; ok {
			item, err := decodeConfigItem(&n)
			if err != nil {
				return fmt.Errorf("item: %w", err)
			}
			e.kind = exprItem
			e.item = item
			return nil
		}
	}

	item, err := decodeConfigItem(node)
	if err != nil {
		return fmt.Errorf("expression: %w", err)
	}
	e.kind = exprItem
	e.item = item
	return nil
}

// decodeConfigItem decodes the definition file's tagged literal Item shape:
// a scalar (None via null, { int_value: N }, { string_value: "..." }), a
// sequence of items, or a mapping from string to item.
func decodeConfigItem(node *yaml.Node) (state.Item, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		switch node.Tag {
		case "!!null":
			return state.NewValueItem(state.NoneValue()), nil
		case "!!int":
			n, err := strconv.ParseInt(node.Value, 10, 64)
			if err != nil {
				return state.Item{}, err
			}
			return state.NewValueItem(state.IntValue(n)), nil
		default:
			return state.NewValueItem(state.StringValue(node.Value)), nil
		}

	case yaml.SequenceNode:
		items := make([]state.Item, len(node.Content))
		for i, n := range node.Content {
			item, err := decodeConfigItem(n)
			if err != nil {
				return state.Item{}, err
			}
			items[i] = item
		}
		return state.NewArrayItem(items), nil

	case yaml.MappingNode:
		raw := map[string]yaml.Node{}
		if err := node.Decode(&raw); err != nil {
			return state.Item{}, err
		}
		if n, ok := raw["int_value"]; ok {
			var v int64
			if err := n.Decode(&v); err != nil {
				return state.Item{}, err
			}
			return state.NewValueItem(state.IntValue(v)), nil
		}
		if n, ok := raw["string_value"]; ok {
			var v string
			if err := n.Decode(&v); err != nil {
				return state.Item{}, err
			}
			return state.NewValueItem(state.StringValue(v)), nil
		}
		m := make(map[string]state.Item, len(raw))
		for k, n := range raw {
			n := n
			item, err := decodeConfigItem(&n)
			if err != nil {
				return state.Item{}, err
			}
			m[k] = item
		}
		return state.NewMapItem(m), nil

	default:
		return state.Item{}, fmt.Errorf("unsupported item node: %w", core.ErrInvalidConfig)
	}
}
