// Package plugin defines the contracts between the publish pipeline and the
// destinations and extensions that plug into it.
package plugin

import (
	"context"

	"github.com/capitalone/Stratum-Observability/internal/content"
	"github.com/capitalone/Stratum-Observability/internal/model"
	"github.com/capitalone/Stratum-Observability/internal/snapshot"
)

// Publisher is a destination for rendered events.
type Publisher interface {
	// Name is the stable identifier used as the key in Snapshot.Plugins.
	Name() string
	// ShouldPublishEvent is a pure filter on the kind of event.
	ShouldPublishEvent(m model.Model) bool
	// IsAvailable reports runtime availability. It may block on I/O.
	IsAvailable(ctx context.Context, m model.Model, snap *snapshot.Snapshot) (bool, error)
	// GetEventOutput projects the model and snapshot into publisher content.
	GetEventOutput(m model.Model, snap *snapshot.Snapshot) *content.Map
	// Publish delivers content. Errors are handled by the pipeline.
	Publish(ctx context.Context, c *content.Map, snap *snapshot.Snapshot) error
}

// Prioritized publishers are dispatched before lower priorities. Publishers
// without a priority have priority 0; ties keep registration order.
type Prioritized interface {
	Priority() int
}

// Plugin is an extension contributing publishers and, optionally, context,
// options and event types.
type Plugin interface {
	Name() string
	Publishers() []Publisher
}

// ContextProvider contributes cross-cutting context to every snapshot.
type ContextProvider interface {
	Context() map[string]any
}

// OptionsProvider surfaces plugin options into Snapshot.Plugins.
type OptionsProvider interface {
	Options() map[string]any
}

// EventTypeProvider contributes model constructors keyed by event type.
type EventTypeProvider interface {
	EventTypes() map[string]model.Constructor
}

// ContextOf returns the context declared by p, or nil.
func ContextOf(p Plugin) map[string]any {
	if cp, ok := p.(ContextProvider); ok {
		return cp.Context()
	}
	return nil
}

// OptionsOf returns the options declared by p, or nil.
func OptionsOf(p Plugin) map[string]any {
	if op, ok := p.(OptionsProvider); ok {
		return op.Options()
	}
	return nil
}

// EventTypesOf returns the event types declared by p, or nil.
func EventTypesOf(p Plugin) map[string]model.Constructor {
	if ep, ok := p.(EventTypeProvider); ok {
		return ep.EventTypes()
	}
	return nil
}

// PriorityOf returns the priority of pub, 0 when it declares none.
func PriorityOf(pub Publisher) int {
	if pp, ok := pub.(Prioritized); ok {
		return pp.Priority()
	}
	return 0
}
