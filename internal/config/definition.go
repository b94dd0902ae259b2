// Package config loads daemon-wide settings from the environment and
// per-pipeline event definitions from a directory of YAML files.
package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"firestige.xyz/webhookd/internal/core"
	"firestige.xyz/webhookd/pkg/program"
)

// TriggerSpec is one entry of an event definition's trigger list: a
// discriminator tag plus an opaque config map handed to the matching
// trigger plugin's Init.
type TriggerSpec struct {
	Type   string         `yaml:"type"`
	Config map[string]any `yaml:"config"`
}

// TargetSpec is one entry of an event definition's target list. Unlike
// TriggerSpec, targets are an untagged union: the discriminator is whichever
// single key is present (http, kafka, grpc, ...). The raw map (including
// that key) is handed to the matching target plugin's Init, which knows
// which key to read.
type TargetSpec map[string]any

// Type returns the target's discriminator key. A target spec with zero or
// more than one key is a config error, reported by Validate.
func (t TargetSpec) Type() (string, error) {
	if len(t) != 1 {
		return "", fmt.Errorf("target spec must have exactly one discriminator key, got %d: %w", len(t), core.ErrInvalidConfig)
	}
	for k := range t {
		return k, nil
	}
	return "", fmt.Errorf("unreachable: %w", core.ErrInvalidConfig)
}

// EventDefinition is one pipeline definition, immutable once loaded.
type EventDefinition struct {
	Name    string          `yaml:"name"`
	Trigger []TriggerSpec   `yaml:"trigger"`
	Process program.Program `yaml:"process"`
	Target  []TargetSpec    `yaml:"target"`

	// AckOnFailure controls whether a message is still acked when program
	// evaluation fails for that message. Defaults to true: the program
	// error is logged, and the message is still acked.
	AckOnFailure *bool `yaml:"ack_on_failure"`

	// QueueBuffer is the hand-off queue's channel capacity. Zero (the
	// default) is a pure rendezvous queue.
	QueueBuffer int `yaml:"queue_buffer"`
}

// ShouldAckOnFailure resolves AckOnFailure's default.
func (e EventDefinition) ShouldAckOnFailure() bool {
	if e.AckOnFailure == nil {
		return true
	}
	return *e.AckOnFailure
}

// Validate checks the structural requirements a definition must satisfy
// before a pipeline can be built from it: a name, at least one trigger, and
// at least one target with exactly one discriminator key each.
func (e EventDefinition) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("definition missing name: %w", core.ErrInvalidConfig)
	}
	if len(e.Trigger) == 0 {
		return fmt.Errorf("definition %q has no triggers: %w", e.Name, core.ErrInvalidConfig)
	}
	for _, t := range e.Trigger {
		if t.Type == "" {
			return fmt.Errorf("definition %q has a trigger with no type: %w", e.Name, core.ErrInvalidConfig)
		}
	}
	if len(e.Target) == 0 {
		return fmt.Errorf("definition %q has no targets: %w", e.Name, core.ErrInvalidConfig)
	}
	for _, t := range e.Target {
		if _, err := t.Type(); err != nil {
			return fmt.Errorf("definition %q: %w", e.Name, err)
		}
	}
	return nil
}

// ParseDefinition parses one definition file's contents.
func ParseDefinition(data []byte) (EventDefinition, error) {
	var def EventDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return EventDefinition{}, fmt.Errorf("parsing definition: %w: %v", core.ErrInvalidConfig, err)
	}
	if err := def.Validate(); err != nil {
		return EventDefinition{}, err
	}
	return def, nil
}
