// Package queue implements the hand-off queue (C2) between a pipeline's
// source pullers and its processing loop.
package queue

import (
	"firestige.xyz/webhookd/internal/core"
	"firestige.xyz/webhookd/internal/log"
)

// New constructs a pusher/puller pair backed by a Go channel. buffer is the
// channel capacity; zero means a pure rendezvous queue.
func New(buffer int) (Pusher, Puller) {
	ch := make(chan core.SourceMessage, buffer)
	return Pusher{ch: ch}, Puller{ch: ch}
}

// Pusher is the producer side, held by every puller task for one pipeline.
// Multiple pullers may share one Pusher: sending on a Go channel is already
// safe for concurrent use, so no clone step is needed.
type Pusher struct {
	ch chan<- core.SourceMessage
}

// Send enqueues a message. Blocks if the queue is at capacity.
func (p Pusher) Send(msg core.SourceMessage) {
	log.GetLogger().Trace("sending an entry to the queue")
	p.ch <- msg
}

// Puller is the consumer side, held by the pipeline loop.
type Puller struct {
	ch <-chan core.SourceMessage
}

// C returns the underlying receive channel for use directly inside a
// select statement alongside a drain context's Done channel.
func (p Puller) C() <-chan core.SourceMessage {
	return p.ch
}
