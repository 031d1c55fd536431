// Package socketio provides a publisher that emits events to a socket.io
// server.
package socketio

import (
	"context"
	"fmt"
	"time"

	"github.com/capitalone/Stratum-Observability/internal/content"
	"github.com/capitalone/Stratum-Observability/internal/model"
	"github.com/capitalone/Stratum-Observability/internal/plugin"
	"github.com/capitalone/Stratum-Observability/internal/snapshot"
)

const (
	// DefaultName is the publisher name used when Config.Name is empty.
	DefaultName = "socketio"
	// DefaultEvent is the socket.io event name used when Config.Event is
	// empty.
	DefaultEvent = "stratum:event"
)

// Config configures the socket.io destination.
type Config struct {
	Name               string
	URL                string
	Namespace          string
	Event              string
	InsecureSkipVerify bool
	ConnectTimeout     time.Duration
	// EventTypes restricts the published event types. Empty means all.
	EventTypes []string
}

func (c Config) name() string {
	if c.Name == "" {
		return DefaultName
	}
	return c.Name
}

// Publisher emits {content, snapshot} payloads.
type Publisher struct {
	name    string
	event   string
	types   map[string]struct{}
	emitter Emitter
}

// NewPublisher returns a publisher emitting through e.
func NewPublisher(cfg Config, e Emitter) *Publisher {
	p := &Publisher{name: cfg.name(), event: cfg.Event, emitter: e}
	if p.event == "" {
		p.event = DefaultEvent
	}
	if len(cfg.EventTypes) > 0 {
		p.types = make(map[string]struct{}, len(cfg.EventTypes))
		for _, t := range cfg.EventTypes {
			p.types[t] = struct{}{}
		}
	}
	return p
}

// New returns a plugin wrapping a single publisher.
func New(cfg Config, e Emitter) plugin.Plugin {
	return &plugin.Base{
		PluginName:       cfg.name(),
		PluginPublishers: []plugin.Publisher{NewPublisher(cfg, e)},
		PluginOptions:    map[string]any{"namespace": cfg.Namespace, "event": cfg.Event},
	}
}

func (p *Publisher) Name() string { return p.name }

func (p *Publisher) ShouldPublishEvent(m model.Model) bool {
	if p.types == nil {
		return true
	}
	_, ok := p.types[m.EventType()]
	return ok
}

func (p *Publisher) IsAvailable(context.Context, model.Model, *snapshot.Snapshot) (bool, error) {
	return p.emitter != nil && p.emitter.Connected(), nil
}

func (p *Publisher) GetEventOutput(m model.Model, snap *snapshot.Snapshot) *content.Map {
	return content.Of(
		"tagId", m.TagID(),
		"eventType", m.EventType(),
		"id", m.ID(),
		"data", snap.Data,
	)
}

func (p *Publisher) Publish(_ context.Context, c *content.Map, snap *snapshot.Snapshot) error {
	s, err := snap.ToMap()
	if err != nil {
		return err
	}
	payload := map[string]any{"content": c.ToMap(), "snapshot": s}
	if err := p.emitter.Emit(p.event, payload); err != nil {
		return fmt.Errorf("emit %q: %w", p.event, err)
	}
	return nil
}
