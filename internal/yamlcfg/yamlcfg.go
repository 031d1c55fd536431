// Package yamlcfg loads catalogs and plugins from YAML files.
//
// A file may declare a single catalog at the top level, a list of catalogs,
// or both:
//
//	product:
//	  name: checkout
//	  version: 1.4.0
//	plugins:
//	  - type: console
//	componentName: cart
//	items:
//	  "1": { eventType: base, description: opened }
//	catalogs:
//	  - componentName: search
//	    items: {...}
//
// Item mappings keep document order, duplicate keys included.
package yamlcfg

import (
	"context"
	"fmt"
	"os"

	"github.com/capitalone/Stratum-Observability/internal/config"
	"github.com/capitalone/Stratum-Observability/internal/ctxlog"
	"github.com/capitalone/Stratum-Observability/internal/fsutil"
	"github.com/capitalone/Stratum-Observability/internal/model"
	"gopkg.in/yaml.v3"
)

// Extensions handled by the Loader.
var Extensions = []string{".yaml", ".yml"}

type document struct {
	catalogDoc `yaml:",inline"`

	Product  *product         `yaml:"product"`
	Plugins  []map[string]any `yaml:"plugins"`
	Catalogs []catalogDoc     `yaml:"catalogs"`
}

type product struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type catalogDoc struct {
	CatalogVersion   string `yaml:"catalogVersion"`
	ComponentName    string `yaml:"componentName"`
	ComponentVersion string `yaml:"componentVersion"`
	Items            items  `yaml:"items"`
}

// items decodes a mapping of key to entry without losing order.
type items []model.Declaration

func (it *items) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: items must be a mapping", n.Line)
	}
	out := make(items, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode, valNode := n.Content[i], n.Content[i+1]
		var raw map[string]any
		if err := valNode.Decode(&raw); err != nil {
			return fmt.Errorf("line %d: item %q: %w", valNode.Line, keyNode.Value, err)
		}
		out = append(out, model.Declaration{Key: keyNode.Value, Entry: model.EntryFromMap(raw)})
	}
	*it = out
	return nil
}

// Loader is the YAML implementation of config.Loader.
type Loader struct{}

var _ config.Loader = (*Loader)(nil)

// NewLoader creates a YAML loader.
func NewLoader() *Loader { return &Loader{} }

// Load reads every .yaml and .yml file under paths.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.FindFiles(paths, Extensions...)
	if err != nil {
		return nil, err
	}
	out := &config.Model{}
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		m, err := Parse(file, data)
		if err != nil {
			return nil, err
		}
		out.Merge(m)
	}
	logger.Debug("YAML loading complete.", "files", len(files), "catalogs", len(out.Catalogs))
	return out, nil
}

// Parse decodes one YAML document. source names it in errors.
func Parse(source string, data []byte) (*config.Model, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode YAML file %s: %w", source, err)
	}

	m := &config.Model{}
	if doc.Product != nil {
		m.Product = &config.Product{Name: doc.Product.Name, Version: doc.Product.Version}
	}
	for _, raw := range doc.Plugins {
		p, err := config.PluginFromMap(raw, source)
		if err != nil {
			return nil, err
		}
		m.Plugins = append(m.Plugins, p)
	}
	if doc.Items != nil {
		m.Catalogs = append(m.Catalogs, doc.catalogDoc.decl(source))
	}
	for _, c := range doc.Catalogs {
		m.Catalogs = append(m.Catalogs, c.decl(source))
	}
	return m, nil
}

func (c catalogDoc) decl(source string) *config.CatalogDecl {
	return &config.CatalogDecl{
		Source:           source,
		CatalogVersion:   c.CatalogVersion,
		ComponentName:    c.ComponentName,
		ComponentVersion: c.ComponentVersion,
		Items:            c.Items,
	}
}
