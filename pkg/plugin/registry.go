package plugin

import (
	"fmt"
	"sort"
	"sync"

	"firestige.xyz/webhookd/internal/core"
)

// Factory types - zero-parameter functions that return empty plugin instances.
// Configuration injection happens later via Init().
type (
	TriggerFactory func() Trigger
	TargetFactory  func() Target
)

// Global registry maps - populated during init() phase, read-mostly at runtime.
var (
	mu              sync.RWMutex
	triggerRegistry = make(map[string]TriggerFactory)
	targetRegistry  = make(map[string]TargetFactory)
)

// RegisterTrigger registers a trigger factory by its definition file's
// "type" discriminator. Panics if the name is already registered (indicates
// a compile-time bug).
func RegisterTrigger(name string, factory TriggerFactory) {
	mu.Lock()
	defer mu.Unlock()
	if name == "" {
		panic("plugin: trigger name cannot be empty")
	}
	if factory == nil {
		panic("plugin: trigger factory cannot be nil")
	}
	if _, exists := triggerRegistry[name]; exists {
		panic(fmt.Sprintf("plugin: trigger %q already registered", name))
	}
	triggerRegistry[name] = factory
}

// RegisterTarget registers a target factory by its discriminator.
// Panics if the name is already registered (indicates a compile-time bug).
func RegisterTarget(name string, factory TargetFactory) {
	mu.Lock()
	defer mu.Unlock()
	if name == "" {
		panic("plugin: target name cannot be empty")
	}
	if factory == nil {
		panic("plugin: target factory cannot be nil")
	}
	if _, exists := targetRegistry[name]; exists {
		panic(fmt.Sprintf("plugin: target %q already registered", name))
	}
	targetRegistry[name] = factory
}

// GetTriggerFactory returns the factory for the named trigger type.
// Returns core.ErrUnknownTriggerType if not registered.
func GetTriggerFactory(name string) (TriggerFactory, error) {
	mu.RLock()
	defer mu.RUnlock()
	factory, ok := triggerRegistry[name]
	if !ok {
		return nil, fmt.Errorf("trigger %q: %w", name, core.ErrUnknownTriggerType)
	}
	return factory, nil
}

// GetTargetFactory returns the factory for the named target type.
// Returns core.ErrUnknownTargetType if not registered.
func GetTargetFactory(name string) (TargetFactory, error) {
	mu.RLock()
	defer mu.RUnlock()
	factory, ok := targetRegistry[name]
	if !ok {
		return nil, fmt.Errorf("target %q: %w", name, core.ErrUnknownTargetType)
	}
	return factory, nil
}

// ListTriggers returns a sorted list of all registered trigger type names.
func ListTriggers() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(triggerRegistry))
	for name := range triggerRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListTargets returns a sorted list of all registered target type names.
func ListTargets() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(targetRegistry))
	for name := range targetRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
