package program

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"firestige.xyz/webhookd/internal/core"
	"firestige.xyz/webhookd/pkg/state"
)

type opKind int

const (
	opSetEnv opKind = iota
	opToPayload
)

// Op is one entry of a program: an operation with an external effect on
// payload and/or state.
type Op struct {
	kind      opKind
	setEnv    *setEnvSpec
	toPayload *toPayloadSpec
}

type toPayloadSpec struct {
	format PayloadFormat
	value  *Expression
}

// Execute runs the op against the current (payload, state) pair, returning
// the next pair.
func (o Op) Execute(payload core.Payload, st state.State) (core.Payload, state.State, error) {
	switch o.kind {
	case opSetEnv:
		value, payload, st, err := o.setEnv.value.Evaluate(payload, st)
		if err != nil {
			return payload, st, err
		}
		if _, _, err := st.Set(o.setEnv.target, value); err != nil {
			return payload, st, err
		}
		return payload, st, nil

	case opToPayload:
		item, _, st, err := o.toPayload.value.Evaluate(payload, st)
		if err != nil {
			return payload, st, err
		}
		bytes, err := o.toPayload.format.Encode(item)
		if err != nil {
			return payload, st, err
		}
		return core.NewPayload(bytes), st, nil

	default:
		return payload, st, fmt.Errorf("unrecognized op: %w", core.ErrInvalidConfig)
	}
}

// UnmarshalYAML recognizes the set_env / to_payload discriminator keys.
func (o *Op) UnmarshalYAML(node *yaml.Node) error {
	raw := map[string]yaml.Node{}
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("op: %w", err)
	}

	if n, ok := raw["set_env"]; ok {
		var spec struct {
			Target state.Identifier `yaml:"target"`
			Value  Expression       `yaml:"value"`
		}
		if err := n.Decode(&spec); err != nil {
			return fmt.Errorf("set_env: %w", err)
		}
		o.kind = opSetEnv
		o.setEnv = &setEnvSpec{target: spec.Target, value: &spec.Value}
		return nil
	}

	if n, ok := raw["to_payload"]; ok {
		var spec struct {
			Format PayloadFormat `yaml:"format"`
			Value  Expression    `yaml:"value"`
		}
		if err := n.Decode(&spec); err != nil {
			return fmt.Errorf("to_payload: %w", err)
		}
		o.kind = opToPayload
		o.toPayload = &toPayloadSpec{format: spec.Format, value: &spec.Value}
		return nil
	}

	return fmt.Errorf("op has no recognized discriminator key: %w", core.ErrInvalidConfig)
}

// Program is an ordered list of Op, executed as a left-fold over
// (payload, state). No op is skipped on success; the first failure aborts
// the fold.
type Program []Op

// Run folds the program starting from (payload, state.New()).
func (p Program) Run(payload core.Payload) (core.Payload, state.State, error) {
	st := state.New()
	for _, op := range p {
		var err error
		payload, st, err = op.Execute(payload, st)
		if err != nil {
			return payload, st, err
		}
	}
	return payload, st, nil
}
