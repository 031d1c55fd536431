package snapshot

import (
	"encoding/json"
	"fmt"
)

// Event identifies the catalog entry that produced a snapshot.
type Event struct {
	EventType string `json:"eventType"`
	ID        string `json:"id"`
}

// PluginData is the per-publisher entry in Snapshot.Plugins.
type PluginData struct {
	Context map[string]any `json:"context"`
	Options map[string]any `json:"options"`
}

// CatalogMetadata is the resolved metadata of a registered catalog.
type CatalogMetadata struct {
	CatalogVersion   string `json:"catalogVersion"`
	ComponentName    string `json:"componentName"`
	ComponentVersion string `json:"componentVersion"`
}

// CatalogInfo identifies the catalog a snapshot was built from.
type CatalogInfo struct {
	Metadata CatalogMetadata `json:"metadata"`
	ID       string          `json:"id"`
}

// AbTestSchema describes an A/B test the current session participates in.
type AbTestSchema struct {
	Name         string   `json:"name"`
	VariationIDs []string `json:"variationIds"`
	TestGroup    string   `json:"testGroup,omitempty"`
	TestWeight   string   `json:"testWeight,omitempty"`
}

// EventOptions are caller-supplied extras for one publish call.
type EventOptions struct {
	// Data is overlaid onto the model projection by models that support it.
	Data map[string]any `json:"data,omitempty"`
	// PluginData is merged over the context of the named plugin in
	// Snapshot.Plugins for this call only.
	PluginData map[string]map[string]any `json:"pluginData,omitempty"`
	// AbTestSchemas are appended to the service-level schemas.
	AbTestSchemas []AbTestSchema `json:"abTestSchemas,omitempty"`
}

// Snapshot is the fully assembled payload for one publish call. Publishers
// must treat it as read-only; each publisher is handed its own copy.
type Snapshot struct {
	Event            Event                     `json:"event"`
	Data             map[string]any            `json:"data"`
	Plugins          map[string]PluginData     `json:"plugins"`
	GlobalContext    map[string]map[string]any `json:"globalContext"`
	Catalog          CatalogInfo               `json:"catalog"`
	StratumSessionID string                    `json:"stratumSessionId"`
	ProductName      string                    `json:"productName"`
	ProductVersion   string                    `json:"productVersion"`
	StratumVersion   string                    `json:"stratumVersion"`
	AbTestSchemas    []AbTestSchema            `json:"abTestSchemas"`
	EventOptions     *EventOptions             `json:"eventOptions,omitempty"`

	// GlobalContextOrder lists GlobalContext keys in extension registration
	// order. It is not part of the wire shape.
	GlobalContextOrder []string `json:"-"`
}

// Clone returns a deep copy of s. Nested maps and slices are copied so that
// a publisher mutating its copy never affects another publisher.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := *s
	out.Data = copyMap(s.Data)
	if s.Plugins != nil {
		out.Plugins = make(map[string]PluginData, len(s.Plugins))
		for name, pd := range s.Plugins {
			out.Plugins[name] = PluginData{Context: copyMap(pd.Context), Options: copyMap(pd.Options)}
		}
	}
	if s.GlobalContext != nil {
		out.GlobalContext = make(map[string]map[string]any, len(s.GlobalContext))
		for name, ctx := range s.GlobalContext {
			out.GlobalContext[name] = copyMap(ctx)
		}
	}
	out.AbTestSchemas = copySchemas(s.AbTestSchemas)
	out.GlobalContextOrder = append([]string(nil), s.GlobalContextOrder...)
	if s.EventOptions != nil {
		opts := EventOptions{
			Data:          copyMap(s.EventOptions.Data),
			AbTestSchemas: copySchemas(s.EventOptions.AbTestSchemas),
		}
		if s.EventOptions.PluginData != nil {
			opts.PluginData = make(map[string]map[string]any, len(s.EventOptions.PluginData))
			for name, data := range s.EventOptions.PluginData {
				opts.PluginData[name] = copyMap(data)
			}
		}
		out.EventOptions = &opts
	}
	return &out
}

// FlattenGlobalContext merges every extension's context into one flat map.
// On key collisions the extension registered last wins; the result for a
// colliding key therefore depends on registration order.
func (s *Snapshot) FlattenGlobalContext() map[string]any {
	flat := make(map[string]any)
	seen := make(map[string]struct{}, len(s.GlobalContextOrder))
	merge := func(name string) {
		for k, v := range s.GlobalContext[name] {
			flat[k] = v
		}
		seen[name] = struct{}{}
	}
	for _, name := range s.GlobalContextOrder {
		merge(name)
	}
	// Entries not listed in the order (hand-built snapshots) are merged last.
	for name := range s.GlobalContext {
		if _, ok := seen[name]; !ok {
			merge(name)
		}
	}
	return flat
}

// ToMap returns the JSON object form of s, suitable for transports that take
// generic values.
func (s *Snapshot) ToMap() (map[string]any, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return out, nil
}

func copySchemas(in []AbTestSchema) []AbTestSchema {
	if in == nil {
		return nil
	}
	out := make([]AbTestSchema, len(in))
	for i, schema := range in {
		if schema.VariationIDs != nil {
			ids := make([]string, len(schema.VariationIDs))
			copy(ids, schema.VariationIDs)
			schema.VariationIDs = ids
		}
		out[i] = schema
	}
	return out
}

func copyMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		return copyMap(tv)
	case []any:
		out := make([]any, len(tv))
		for i, item := range tv {
			out[i] = copyValue(item)
		}
		return out
	case []string:
		return append([]string(nil), tv...)
	default:
		return v
	}
}
