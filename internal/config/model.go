package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/capitalone/Stratum-Observability/internal/catalog"
	"github.com/capitalone/Stratum-Observability/internal/model"
)

// Model is the unified representation of every loaded file.
type Model struct {
	Product  *Product
	Plugins  []*PluginConfig
	Catalogs []*CatalogDecl
}

// Product is the identity of the observed application.
type Product struct {
	Name    string
	Version string
}

// PluginConfig declares one plugin instance. Type selects the factory and
// Attributes holds the remaining settings as JSON-shaped values.
type PluginConfig struct {
	Type       string
	Name       string
	Source     string
	Attributes map[string]any
}

// CatalogDecl is one declared catalog.
type CatalogDecl struct {
	Source           string
	CatalogVersion   string
	ComponentName    string
	ComponentVersion string
	Items            []model.Declaration
}

// Options converts the declaration for catalog registration.
func (c *CatalogDecl) Options() catalog.Options {
	return catalog.Options{
		Items:            c.Items,
		CatalogVersion:   c.CatalogVersion,
		ComponentName:    c.ComponentName,
		ComponentVersion: c.ComponentVersion,
	}
}

// Merge appends other to m. A product declared in other replaces the one in
// m.
func (m *Model) Merge(other *Model) {
	if other == nil {
		return
	}
	if other.Product != nil {
		m.Product = other.Product
	}
	m.Plugins = append(m.Plugins, other.Plugins...)
	m.Catalogs = append(m.Catalogs, other.Catalogs...)
}

// PluginFromMap builds a PluginConfig from a decoded object. The "type" key
// is required; "name" is optional.
func PluginFromMap(raw map[string]any, source string) (*PluginConfig, error) {
	attrs := make(map[string]any, len(raw))
	for k, v := range raw {
		attrs[k] = v
	}
	typ, _ := attrs["type"].(string)
	if typ == "" {
		return nil, fmt.Errorf("%s: plugin is missing a \"type\"", source)
	}
	name, _ := attrs["name"].(string)
	delete(attrs, "type")
	delete(attrs, "name")
	return &PluginConfig{Type: typ, Name: name, Source: source, Attributes: attrs}, nil
}

// String returns the string attribute key, or def.
func (p *PluginConfig) String(key, def string) string {
	switch v := p.Attributes[key].(type) {
	case string:
		return v
	case nil:
		return def
	default:
		return fmt.Sprint(v)
	}
}

// Bool returns the boolean attribute key, or def.
func (p *PluginConfig) Bool(key string, def bool) bool {
	switch v := p.Attributes[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// Float returns the numeric attribute key, or def.
func (p *PluginConfig) Float(key string, def float64) float64 {
	switch v := p.Attributes[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

// Duration parses the duration attribute key. Numbers are seconds.
func (p *PluginConfig) Duration(key string, def time.Duration) (time.Duration, error) {
	switch v := p.Attributes[key].(type) {
	case nil:
		return def, nil
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("plugin %q: attribute %q: %w", p.Type, key, err)
		}
		return d, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	case int:
		return time.Duration(v) * time.Second, nil
	default:
		return 0, fmt.Errorf("plugin %q: attribute %q must be a duration, got %T", p.Type, key, v)
	}
}

// Strings returns the list attribute key as strings.
func (p *PluginConfig) Strings(key string) []string {
	switch v := p.Attributes[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	case string:
		return []string{v}
	default:
		return nil
	}
}
