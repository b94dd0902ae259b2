package program

import (
	"testing"

	"firestige.xyz/webhookd/internal/core"
	"firestige.xyz/webhookd/pkg/state"
)

func TestExpressionSetEnvOk(t *testing.T) {
	st := state.New()
	if _, _, err := st.Set(state.NewIdentifier("o"), state.NewValueItem(state.NoneValue())); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	key := state.NewIdentifier("key")
	item := state.NewValueItem(state.IntValue(123))
	value := Expression{kind: exprItem, item: item}

	exp := Expression{kind: exprSetEnv, setEnv: &setEnvSpec{target: key, value: &value}}
	payload := core.NewPayload(nil)

	ret, _, newState, err := exp.Evaluate(payload, st)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if newState.Len() != 2 {
		t.Fatalf("expected len 2, got %d", newState.Len())
	}
	got, ok := newState.Get(key)
	if !ok || !got.Equal(item) {
		t.Fatalf("expected %v, got %v ok=%v", item, got, ok)
	}
	if !ret.Equal(item) {
		t.Fatalf("expected returned item %v, got %v", item, ret)
	}
}

func TestExpressionGetEnvOk(t *testing.T) {
	st := state.New()
	key := state.NewIdentifier("key")
	item := state.NewValueItem(state.IntValue(123))
	if _, _, err := st.Set(key, item); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	exp := Expression{kind: exprGetEnv, getEnv: key}
	ret, _, newState, err := exp.Evaluate(core.NewPayload(nil), st)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if newState.Len() != 1 {
		t.Fatalf("expected len 1, got %d", newState.Len())
	}
	if !ret.Equal(item) {
		t.Fatalf("expected %v, got %v", item, ret)
	}
}

func TestExpressionItemOk(t *testing.T) {
	st := state.New()
	item := state.NewValueItem(state.IntValue(123))
	exp := Expression{kind: exprItem, item: item}

	ret, _, newState, err := exp.Evaluate(core.NewPayload(nil), st)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if newState.Len() != 0 {
		t.Fatalf("expected len 0, got %d", newState.Len())
	}
	if !ret.Equal(item) {
		t.Fatalf("expected %v, got %v", item, ret)
	}
}

func TestExpressionFromJSONUnimplemented(t *testing.T) {
	exp := Expression{kind: exprFromJSON, fromJSON: "whatever"}
	_, _, _, err := exp.Evaluate(core.NewPayload(nil), state.New())
	if err == nil {
		t.Fatal("expected ErrUnimplemented")
	}
}

func TestExpressionAsMapOk(t *testing.T) {
	envID := state.NewIdentifier("id")
	envValue := state.NewValueItem(state.StringValue("test"))
	st := state.New()
	if _, _, err := st.Set(envID, envValue); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	newItem := state.NewValueItem(state.IntValue(123))
	toEnvID := state.NewIdentifier("to_id")
	toEnvValue := Expression{kind: exprItem, item: newItem}

	asMap := map[string]Expression{
		"from_env": {kind: exprGetEnv, getEnv: envID},
		"value":    {kind: exprItem, item: newItem},
		"to_env":   {kind: exprSetEnv, setEnv: &setEnvSpec{target: toEnvID, value: &toEnvValue}},
	}
	exp := Expression{kind: exprAsMap, asMap: asMap}

	ret, _, newState, err := exp.Evaluate(core.NewPayload(nil), st)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ret.Kind != state.ItemMap {
		t.Fatalf("expected map item, got %v", ret)
	}
	if len(ret.MapV) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(ret.MapV))
	}
	if !ret.MapV["from_env"].Equal(envValue) {
		t.Fatalf("from_env mismatch: %v", ret.MapV["from_env"])
	}
	if !ret.MapV["value"].Equal(newItem) {
		t.Fatalf("value mismatch: %v", ret.MapV["value"])
	}
	if !ret.MapV["to_env"].Equal(newItem) {
		t.Fatalf("to_env mismatch: %v", ret.MapV["to_env"])
	}
	if newState.Len() != 2 {
		t.Fatalf("expected final state len 2, got %d", newState.Len())
	}
}

func TestExpressionUnmarshalYAML(t *testing.T) {
	yamlDoc := `set_env: { target: "foo.bar", value: { item: { int_value: 42 } } }`
	var exp Expression
	if err := unmarshalYAMLString(yamlDoc, &exp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exp.kind != exprSetEnv {
		t.Fatalf("expected set_env kind, got %v", exp.kind)
	}
	if exp.setEnv.target != state.NewIdentifier("foo.bar") {
		t.Fatalf("expected target foo.bar, got %v", exp.setEnv.target)
	}
	if exp.setEnv.value.kind != exprItem {
		t.Fatalf("expected nested item kind, got %v", exp.setEnv.value.kind)
	}
	want := state.NewValueItem(state.IntValue(42))
	if !exp.setEnv.value.item.Equal(want) {
		t.Fatalf("expected %v, got %v", want, exp.setEnv.value.item)
	}
}
