// Package pipeline wires one event definition's source receivers, hand-off
// queue, program evaluator, and target senders together (C7), and starts
// every definition's pipeline under one shared drain signal (C8).
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"firestige.xyz/webhookd/internal/config"
	"firestige.xyz/webhookd/internal/core"
	"firestige.xyz/webhookd/internal/log"
	"firestige.xyz/webhookd/pkg/plugin"
	"firestige.xyz/webhookd/pkg/queue"
	"firestige.xyz/webhookd/pkg/state"
)

// Pipeline is one running event definition: N pullers feeding a hand-off
// queue into a single serial loop that folds the program and fans out to
// every target.
type Pipeline struct {
	def      config.EventDefinition
	triggers []plugin.Trigger
	targets  []plugin.Target
}

// New constructs every trigger and target plugin named by def, via the
// global registry, but does not start anything yet.
func New(def config.EventDefinition) (*Pipeline, error) {
	triggers := make([]plugin.Trigger, 0, len(def.Trigger))
	for _, spec := range def.Trigger {
		factory, err := plugin.GetTriggerFactory(spec.Type)
		if err != nil {
			return nil, fmt.Errorf("pipeline %q: %w", def.Name, err)
		}
		t := factory()
		if err := t.Init(spec.Config); err != nil {
			return nil, fmt.Errorf("pipeline %q: initializing trigger %q: %w", def.Name, spec.Type, err)
		}
		triggers = append(triggers, t)
	}

	targets := make([]plugin.Target, 0, len(def.Target))
	for _, spec := range def.Target {
		typeName, err := spec.Type()
		if err != nil {
			return nil, fmt.Errorf("pipeline %q: %w", def.Name, err)
		}
		factory, err := plugin.GetTargetFactory(typeName)
		if err != nil {
			return nil, fmt.Errorf("pipeline %q: %w", def.Name, err)
		}
		target := factory()
		if err := target.Init(spec); err != nil {
			return nil, fmt.Errorf("pipeline %q: initializing target %q: %w", def.Name, typeName, err)
		}
		targets = append(targets, target)
	}

	return &Pipeline{def: def, triggers: triggers, targets: targets}, nil
}

// Start launches every puller and the pipeline loop. ctx cancellation is the
// drain signal: it unblocks the select loop and is also the cancellation
// context every puller's in-flight GetOne observes. The returned channel is
// closed once the pipeline has fully stopped (all pullers joined, no
// in-flight message left unacked).
func (p *Pipeline) Start(ctx context.Context) <-chan struct{} {
	log.GetLogger().Infof("starting pipeline for %s", p.def.Name)

	pusher, puller := queue.New(p.def.QueueBuffer)

	var pullWG sync.WaitGroup
	for _, trigger := range p.triggers {
		pullWG.Add(1)
		go p.pull(ctx, trigger, pusher, &pullWG)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.loop(ctx, puller)

		pullWG.Wait()
		log.GetLogger().Infof("pipeline %s stopped", p.def.Name)
	}()

	return done
}

// pull runs one trigger's long-lived puller task: tight-loop GetOne, push
// onto the queue. The puller does not select on ctx directly; it relies on
// GetOne being cancellation-safe and terminates when GetOne returns ctx's
// own cancellation error.
func (p *Pipeline) pull(ctx context.Context, trigger plugin.Trigger, pusher queue.Pusher, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		msg, err := trigger.GetOne(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.GetLogger().WithError(err).Errorf("pipeline %s: trigger %s pull error, stopping puller", p.def.Name, trigger.Name())
			return
		}
		pusher.Send(msg)
	}
}

// loop is the pipeline's serial processing step: select between drain and
// the next queued message, at most one message in flight at a time.
func (p *Pipeline) loop(ctx context.Context, puller queue.Puller) {
	for {
		log.GetLogger().Tracef("pipeline %s waiting for new message or stop signal", p.def.Name)
		select {
		case <-ctx.Done():
			log.GetLogger().Debugf("pipeline %s received stop signal", p.def.Name)
			return
		case msg := <-puller.C():
			p.dispatch(ctx, msg)
		}
	}
}

// dispatch runs one message through the program and fans out to every
// target, then acks. Ack happens exactly once, after dispatch is attempted,
// regardless of program or sender failure — unless the definition opts out
// of that via AckOnFailure: false, in which case a program failure leaves
// the message unacked for redelivery.
func (p *Pipeline) dispatch(ctx context.Context, msg core.SourceMessage) {
	payload, st, err := p.def.Process.Run(core.NewPayload(msg.Bytes()))
	if err != nil {
		log.GetLogger().WithError(err).Errorf("pipeline %s: program evaluation failed", p.def.Name)
		if !p.def.ShouldAckOnFailure() {
			return
		}
		msg.Ack(ctx)
		return
	}

	log.GetLogger().Tracef("pipeline %s new state: %+v", p.def.Name, st)
	p.send(ctx, payload, st)
	msg.Ack(ctx)
}

// send fans payload out to every target concurrently and waits for all to
// finish. Per-target failures are handled inside each Target implementation
// (logged, Send still returns nil) so failure isolation needs no handling
// here.
func (p *Pipeline) send(ctx context.Context, payload core.Payload, st state.State) {
	var wg sync.WaitGroup
	for _, target := range p.targets {
		target := target
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := target.Send(ctx, payload, st); err != nil {
				log.GetLogger().WithError(err).Errorf("pipeline %s: target %s send failed", p.def.Name, target.Name())
			}
		}()
	}
	wg.Wait()
}
