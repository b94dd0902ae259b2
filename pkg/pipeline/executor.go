package pipeline

import (
	"context"
	"sync"

	"firestige.xyz/webhookd/internal/config"
	"firestige.xyz/webhookd/internal/log"
)

// Executor starts one pipeline per event definition and aggregates their
// completion (C8). It owns no runtime state beyond the aggregated handles.
type Executor struct{}

// NewExecutor returns an Executor.
func NewExecutor() *Executor { return &Executor{} }

// Start builds and starts one Pipeline per definition. All pipelines share
// ctx as their drain signal: cancelling ctx (or calling the returned
// CancelFunc) drains every pipeline. The returned channel closes once every
// pipeline has fully stopped. A definition that fails to build (unknown
// plugin type, bad config) is a startup error and aborts the whole start.
func (e *Executor) Start(parent context.Context, defs []config.EventDefinition) (<-chan struct{}, context.CancelFunc, error) {
	ctx, cancel := context.WithCancel(parent)

	pipelines := make([]*Pipeline, 0, len(defs))
	for _, def := range defs {
		p, err := New(def)
		if err != nil {
			cancel()
			return nil, nil, err
		}
		pipelines = append(pipelines, p)
	}

	var wg sync.WaitGroup
	for _, p := range pipelines {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-p.Start(ctx)
		}()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		wg.Wait()
		log.GetLogger().Info("all pipelines stopped")
	}()

	return done, cancel, nil
}
