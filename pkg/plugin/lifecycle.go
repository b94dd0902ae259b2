// Package plugin defines the trigger/target plugin contracts and the global
// registry that maps a definition file's discriminator tag to a factory.
package plugin

import (
	"context"

	"firestige.xyz/webhookd/internal/core"
	"firestige.xyz/webhookd/pkg/state"
)

// Plugin is the base lifecycle every trigger and target implements.
type Plugin interface {
	Name() string
	Init(cfg map[string]any) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Trigger is a source receiver (C3): it polls one event source and yields
// messages with a per-message ack callback. GetOne must be cancellation-safe
// — if ctx is cancelled mid-call, no message may be lost from the broker's
// perspective; it must either be returned before cancellation completes or
// left unacknowledged for redelivery.
type Trigger interface {
	Plugin
	GetOne(ctx context.Context) (core.SourceMessage, error)
}

// Target is a target sender (C4): it delivers a payload, with a view of the
// current program state, to one external endpoint. Per-target failures are
// logged by the implementation and Send still returns nil — failures never
// abort fan-out.
type Target interface {
	Plugin
	Send(ctx context.Context, payload core.Payload, st state.State) error
}
