package program

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"firestige.xyz/webhookd/internal/core"
	"firestige.xyz/webhookd/pkg/state"
)

// PayloadFormat selects the serialization used by to_payload/from_payload.
type PayloadFormat int

const (
	FormatYAML PayloadFormat = iota
	FormatJSON
)

func (f *PayloadFormat) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	switch s {
	case "yaml":
		*f = FormatYAML
	case "json":
		*f = FormatJSON
	default:
		return fmt.Errorf("payload format %q: %w", s, core.ErrInvalidConfig)
	}
	return nil
}

// Encode serializes an Item to bytes in this format.
func (f PayloadFormat) Encode(i state.Item) ([]byte, error) {
	switch f {
	case FormatYAML:
		return ItemToYAML(i)
	case FormatJSON:
		return ItemToJSON(i)
	default:
		return nil, fmt.Errorf("unknown payload format %d: %w", f, core.ErrInvalidConfig)
	}
}

// Decode parses payload bytes into an Item in this format.
func (f PayloadFormat) Decode(p core.Payload) (state.Item, error) {
	switch f {
	case FormatYAML:
		return ItemFromYAML(p.Content)
	case FormatJSON:
		return ItemFromJSON(p.Content)
	default:
		return state.Item{}, fmt.Errorf("unknown payload format %d: %w", f, core.ErrInvalidConfig)
	}
}
