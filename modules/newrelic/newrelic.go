// Package newrelic publishes events to New Relic as custom events and
// contributes the nrEvent, nrError and nrApiResponse event types.
package newrelic

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/capitalone/Stratum-Observability/internal/content"
	"github.com/capitalone/Stratum-Observability/internal/model"
	"github.com/capitalone/Stratum-Observability/internal/plugin"
	"github.com/capitalone/Stratum-Observability/internal/snapshot"
	nr "github.com/newrelic/go-agent/v3/newrelic"
)

const (
	DefaultName = "newRelic"
	// DefaultCustomEventType is the New Relic event type events are
	// recorded under.
	DefaultCustomEventType = "StratumEvent"
)

// Recorder records custom events. *newrelic.Application implements it.
type Recorder interface {
	RecordCustomEvent(eventType string, params map[string]any)
}

var _ Recorder = (*nr.Application)(nil)

// Config configures the New Relic destination.
type Config struct {
	Name            string
	AppName         string
	LicenseKey      string
	CustomEventType string
	ConnectTimeout  time.Duration
}

// Connect starts a New Relic application and waits up to
// cfg.ConnectTimeout for it to connect. A zero timeout does not wait.
func Connect(cfg Config) (*nr.Application, error) {
	app, err := nr.NewApplication(
		nr.ConfigAppName(cfg.AppName),
		nr.ConfigLicense(cfg.LicenseKey),
	)
	if err != nil {
		return nil, fmt.Errorf("new relic application: %w", err)
	}
	if cfg.ConnectTimeout > 0 {
		if err := app.WaitForConnection(cfg.ConnectTimeout); err != nil {
			app.Shutdown(time.Second)
			return nil, fmt.Errorf("new relic connect: %w", err)
		}
	}
	return app, nil
}

// skipped content keys are part of the default attributes or the model
// identity.
var skipped = map[string]struct{}{
	"id":          {},
	"eventType":   {},
	"description": {},
}

// Publisher records one custom event per published tag.
type Publisher struct {
	name      string
	eventType string
	recorder  Recorder
}

// NewPublisher returns a publisher recording through r.
func NewPublisher(cfg Config, r Recorder) *Publisher {
	p := &Publisher{name: cfg.Name, eventType: cfg.CustomEventType, recorder: r}
	if p.name == "" {
		p.name = DefaultName
	}
	if p.eventType == "" {
		p.eventType = DefaultCustomEventType
	}
	return p
}

// New returns the plugin: one publisher and the New Relic event types.
func New(cfg Config, r Recorder) plugin.Plugin {
	p := NewPublisher(cfg, r)
	return &plugin.Base{
		PluginName:       p.name,
		PluginPublishers: []plugin.Publisher{p},
		PluginEventTypes: EventTypes(),
	}
}

func (p *Publisher) Name() string                        { return p.name }
func (p *Publisher) ShouldPublishEvent(model.Model) bool { return true }

func (p *Publisher) IsAvailable(context.Context, model.Model, *snapshot.Snapshot) (bool, error) {
	return p.recorder != nil, nil
}

// GetEventOutput returns the model projection.
func (p *Publisher) GetEventOutput(_ model.Model, snap *snapshot.Snapshot) *content.Map {
	return content.FromMap(snap.Data)
}

func (p *Publisher) Publish(_ context.Context, c *content.Map, snap *snapshot.Snapshot) error {
	p.recorder.RecordCustomEvent(p.eventType, Attributes(c, snap))
	return nil
}

// Attributes builds the custom event attributes: the default Stratum
// attributes, every extension's global context, isValid from the event
// options, and the content keys. Later sources overwrite earlier ones.
func Attributes(c *content.Map, snap *snapshot.Snapshot) map[string]any {
	md := snap.Catalog.Metadata
	attrs := map[string]any{
		"componentName":         md.ComponentName,
		"componentVersion":      md.ComponentVersion,
		"catalogEventType":      snap.Event.EventType,
		"catalogId":             snap.Catalog.ID,
		"catalogVersion":        md.CatalogVersion,
		"stratumSessionId":      snap.StratumSessionID,
		"productName":           snap.ProductName,
		"productVersion":        snap.ProductVersion,
		"stratumLibraryVersion": snap.StratumVersion,
		"stratumEventId":        snap.Event.ID,
	}
	if len(snap.AbTestSchemas) > 0 {
		attrs["abTests"] = attributeValue(snap.AbTestSchemas)
	}
	for k, v := range snap.FlattenGlobalContext() {
		if v != nil {
			attrs[k] = attributeValue(v)
		}
	}
	if snap.EventOptions != nil {
		if v, ok := snap.EventOptions.Data["isValid"]; ok && v != nil {
			attrs["isValid"] = truthy(v)
		}
	}
	for _, k := range c.Keys() {
		if _, skip := skipped[k]; skip {
			continue
		}
		v, _ := c.Get(k)
		if v == nil {
			continue
		}
		attrs[k] = attributeValue(v)
	}
	return attrs
}

// attributeValue keeps scalars and encodes anything else as JSON, since
// custom event attributes must be strings, numbers or booleans.
func attributeValue(v any) any {
	switch v.(type) {
	case string, bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return v
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func truthy(v any) bool {
	switch tv := v.(type) {
	case bool:
		return tv
	case string:
		return tv != ""
	case int:
		return tv != 0
	case float64:
		return tv != 0
	default:
		return true
	}
}
