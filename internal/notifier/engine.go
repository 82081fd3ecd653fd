// Package notifier turns booking and contact events into guest and front
// desk notifications. Each event type maps to a flow: an ordered list of
// steps run against a shared Context.
package notifier

import (
	"context"
	"fmt"
)

type Step struct {
	Name    string
	Execute func(ctx context.Context, nc *Context) error
}

func NewStep(name string, execute func(ctx context.Context, nc *Context) error) Step {
	return Step{Name: name, Execute: execute}
}

type Flow interface {
	// Name is the event type the flow handles.
	Name() string
	Steps() []Step
}

type Engine struct {
	flows map[string]Flow
}

func NewEngine(flows ...Flow) *Engine {
	m := make(map[string]Flow, len(flows))
	for _, f := range flows {
		m[f.Name()] = f
	}
	return &Engine{flows: m}
}

func (e *Engine) Supports(eventType string) bool {
	_, ok := e.flows[eventType]
	return ok
}

// Run executes the flow registered for eventType, stopping at the first
// failing step.
func (e *Engine) Run(ctx context.Context, eventType string, nc *Context) error {
	f, exists := e.flows[eventType]
	if !exists {
		return fmt.Errorf("unsupported flow: %v", eventType)
	}
	for _, step := range f.Steps() {
		if err := step.Execute(ctx, nc); err != nil {
			return fmt.Errorf("%s step failed: %w", step.Name, err)
		}
	}
	return nil
}
