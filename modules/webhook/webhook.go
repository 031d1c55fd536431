// Package webhook delivers events to an HTTP endpoint. Each event is one
// POST whose body holds the content and the snapshot, encoded by the
// configured codec.
package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/capitalone/Stratum-Observability/internal/codec"
	"github.com/capitalone/Stratum-Observability/internal/content"
	"github.com/capitalone/Stratum-Observability/internal/model"
	"github.com/capitalone/Stratum-Observability/internal/plugin"
	"github.com/capitalone/Stratum-Observability/internal/snapshot"
)

// DefaultName is the publisher name used when Config.Name is empty.
const DefaultName = "webhook"

// maxErrorBody bounds how much of a failed response ends up in the error.
const maxErrorBody = 512

// Config configures a webhook publisher.
type Config struct {
	Name    string
	URL     string
	Method  string
	Headers map[string]string
	Format  codec.Format
}

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

var _ Doer = (*http.Client)(nil)

// Publisher posts events to Config.URL.
type Publisher struct {
	cfg    Config
	client Doer
}

// NewPublisher returns a publisher sending requests through client.
func NewPublisher(cfg Config, client Doer) *Publisher {
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	if cfg.Method == "" {
		cfg.Method = http.MethodPost
	}
	return &Publisher{cfg: cfg, client: client}
}

// New returns a plugin with a single webhook publisher.
func New(cfg Config, client Doer) plugin.Plugin {
	p := NewPublisher(cfg, client)
	return &plugin.Base{PluginName: p.cfg.Name, PluginPublishers: []plugin.Publisher{p}}
}

func (p *Publisher) Name() string                        { return p.cfg.Name }
func (p *Publisher) ShouldPublishEvent(model.Model) bool { return true }

func (p *Publisher) IsAvailable(context.Context, model.Model, *snapshot.Snapshot) (bool, error) {
	return p.cfg.URL != "", nil
}

// GetEventOutput returns the tag identity and the event data.
func (p *Publisher) GetEventOutput(m model.Model, snap *snapshot.Snapshot) *content.Map {
	return content.Of(
		"tagId", m.TagID(),
		"eventType", m.EventType(),
		"data", snap.Data,
	)
}

// Publish sends one request. Any status outside 2xx is an error.
func (p *Publisher) Publish(ctx context.Context, c *content.Map, snap *snapshot.Snapshot) error {
	snapMap, err := snap.ToMap()
	if err != nil {
		return fmt.Errorf("%s: snapshot: %w", p.cfg.Name, err)
	}
	body, err := p.cfg.Format.Marshal(map[string]any{"content": c.ToMap(), "snapshot": snapMap})
	if err != nil {
		return fmt.Errorf("%s: encode: %w", p.cfg.Name, err)
	}

	req, err := http.NewRequestWithContext(ctx, p.cfg.Method, p.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", p.cfg.Name, err)
	}
	req.Header.Set("Content-Type", p.cfg.Format.ContentType())
	for k, v := range p.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: failed to execute request: %w", p.cfg.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%s: unexpected status %s: %s", p.cfg.Name, resp.Status, bytes.TrimSpace(msg))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
