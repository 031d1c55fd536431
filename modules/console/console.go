// Package console provides a publisher that writes every event snapshot to
// an io.Writer as indented JSON.
package console

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/capitalone/Stratum-Observability/internal/content"
	"github.com/capitalone/Stratum-Observability/internal/model"
	"github.com/capitalone/Stratum-Observability/internal/plugin"
	"github.com/capitalone/Stratum-Observability/internal/snapshot"
)

const (
	// Name is the plugin and publisher name.
	Name = "console"
	// Prefix starts every written line.
	Prefix = "ConsolePlugin:"
	// MessageKey is the content key holding the rendered snapshot.
	MessageKey = "message"
)

// Publisher writes snapshots to an io.Writer.
type Publisher struct {
	mu sync.Mutex
	w  io.Writer
}

// NewPublisher returns a Publisher writing to w.
func NewPublisher(w io.Writer) *Publisher {
	return &Publisher{w: w}
}

// New returns a plugin with a single console publisher writing to w.
func New(w io.Writer) plugin.Plugin {
	return &plugin.Base{
		PluginName:       Name,
		PluginPublishers: []plugin.Publisher{NewPublisher(w)},
	}
}

func (p *Publisher) Name() string { return Name }

// ShouldPublishEvent accepts every event type, including those contributed
// by other plugins.
func (p *Publisher) ShouldPublishEvent(model.Model) bool { return true }

// IsAvailable reports whether there is somewhere to write to.
func (p *Publisher) IsAvailable(context.Context, model.Model, *snapshot.Snapshot) (bool, error) {
	return p.w != nil, nil
}

// GetEventOutput renders the whole snapshot as indented JSON under MessageKey.
func (p *Publisher) GetEventOutput(_ model.Model, snap *snapshot.Snapshot) *content.Map {
	b, err := Render(snap)
	if err != nil {
		return content.Of(MessageKey, fmt.Sprintf("unrenderable snapshot: %v", err))
	}
	return content.Of(MessageKey, string(b))
}

// Publish writes the message, or the whole content when hooks replaced it.
func (p *Publisher) Publish(_ context.Context, c *content.Map, _ *snapshot.Snapshot) error {
	msg, ok := c.String(MessageKey)
	if !ok {
		b, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return fmt.Errorf("console: encode content: %w", err)
		}
		msg = string(b)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := fmt.Fprintln(p.w, Prefix, msg); err != nil {
		return fmt.Errorf("console: write: %w", err)
	}
	return nil
}

// Render returns the indented JSON form of snap.
func Render(snap *snapshot.Snapshot) ([]byte, error) {
	return json.MarshalIndent(snap, "", "  ")
}
