package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalDefinition = `
name: forward-webhook
trigger:
  - type: google-pubsub
    config:
      subscription_id: sub
      credential: '{"token":"x"}'
target:
  - http:
      - post:
          url: https://example.test/hook
`

func TestParseDefinitionAcceptsMinimalValidYAML(t *testing.T) {
	def, err := ParseDefinition([]byte(minimalDefinition))
	require.NoError(t, err)

	assert.Equal(t, "forward-webhook", def.Name)
	require.Len(t, def.Trigger, 1)
	assert.Equal(t, "google-pubsub", def.Trigger[0].Type)
	assert.Len(t, def.Target, 1)
	assert.True(t, def.ShouldAckOnFailure())
	assert.Zero(t, def.QueueBuffer)
}

func TestParseDefinitionRespectsAckOnFailureOverride(t *testing.T) {
	data := minimalDefinition + "ack_on_failure: false\nqueue_buffer: 16\n"
	def, err := ParseDefinition([]byte(data))
	require.NoError(t, err)

	assert.False(t, def.ShouldAckOnFailure())
	assert.Equal(t, 16, def.QueueBuffer)
}

func TestParseDefinitionRejectsMissingName(t *testing.T) {
	data := `
trigger:
  - type: google-pubsub
    config: {}
target:
  - http: []
`
	_, err := ParseDefinition([]byte(data))
	assert.Error(t, err)
}

func TestParseDefinitionRejectsNoTriggers(t *testing.T) {
	data := `
name: x
target:
  - http: []
`
	_, err := ParseDefinition([]byte(data))
	assert.Error(t, err)
}

func TestParseDefinitionRejectsTriggerWithNoType(t *testing.T) {
	data := `
name: x
trigger:
  - config: {}
target:
  - http: []
`
	_, err := ParseDefinition([]byte(data))
	assert.Error(t, err)
}

func TestParseDefinitionRejectsNoTargets(t *testing.T) {
	data := `
name: x
trigger:
  - type: google-pubsub
    config: {}
`
	_, err := ParseDefinition([]byte(data))
	assert.Error(t, err)
}

func TestParseDefinitionRejectsMultiKeyTarget(t *testing.T) {
	data := `
name: x
trigger:
  - type: google-pubsub
    config: {}
target:
  - http: []
    kafka: {}
`
	_, err := ParseDefinition([]byte(data))
	assert.Error(t, err)
}

func TestTargetSpecType(t *testing.T) {
	spec := TargetSpec{"kafka": map[string]any{"topic": "t"}}
	typ, err := spec.Type()
	require.NoError(t, err)
	assert.Equal(t, "kafka", typ)
}

func TestTargetSpecTypeRejectsEmpty(t *testing.T) {
	spec := TargetSpec{}
	_, err := spec.Type()
	assert.Error(t, err)
}

func TestParseDefinitionWithProcessProgram(t *testing.T) {
	data := `
name: with-process
trigger:
  - type: kafka
    config:
      brokers: ["localhost:9092"]
      topic: in
      group_id: g
process:
  - set_env:
      target: body
      value:
        from_payload: json
  - to_payload:
      format: json
      value:
        get_env: body
target:
  - http:
      - post:
          url: https://example.test/hook
`
	def, err := ParseDefinition([]byte(data))
	require.NoError(t, err)
	assert.Len(t, def.Process, 2)
}
