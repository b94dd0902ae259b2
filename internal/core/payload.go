package core

import "context"

// Payload is the ordered byte sequence that flows through a pipeline. Go
// slices already alias their backing array cheaply, so Payload is treated as
// immutable after creation rather than defensively copied on every hop.
type Payload struct {
	Content []byte
}

// NewPayload wraps content as a Payload.
func NewPayload(content []byte) Payload {
	return Payload{Content: content}
}

// Equal reports whether two payloads hold the same bytes.
func (p Payload) Equal(o Payload) bool {
	if len(p.Content) != len(o.Content) {
		return false
	}
	for i, b := range p.Content {
		if o.Content[i] != b {
			return false
		}
	}
	return true
}

// SourceMessage is a handle produced by a source receiver: immutable bytes
// plus a one-shot acknowledgement effect. It is consumed by exactly one
// pipeline iteration and never shared across pipelines.
type SourceMessage interface {
	// Bytes returns the message body delivered to the program.
	Bytes() []byte

	// Ack confirms the message has been handled locally. Ack failures are
	// logged by the receiver, never propagated: the message is considered
	// handled regardless of whether the remote ack succeeds.
	Ack(ctx context.Context)
}
