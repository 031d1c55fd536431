// Package jsonccfg loads catalogs and plugins from JSON files. Comments and
// trailing commas are accepted. The document shape matches the YAML format.
package jsonccfg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/capitalone/Stratum-Observability/internal/config"
	"github.com/capitalone/Stratum-Observability/internal/ctxlog"
	"github.com/capitalone/Stratum-Observability/internal/fsutil"
	"github.com/capitalone/Stratum-Observability/internal/model"
	"github.com/tidwall/jsonc"
)

// Extensions handled by the Loader.
var Extensions = []string{".json", ".jsonc"}

type document struct {
	catalogDoc

	Product  *product         `json:"product"`
	Plugins  []map[string]any `json:"plugins"`
	Catalogs []catalogDoc     `json:"catalogs"`
}

type product struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type catalogDoc struct {
	CatalogVersion   string `json:"catalogVersion"`
	ComponentName    string `json:"componentName"`
	ComponentVersion string `json:"componentVersion"`
	Items            items  `json:"items"`
}

// items decodes an object of key to entry in document order.
type items []model.Declaration

func (it *items) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("items must be an object")
	}
	out := items{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var raw map[string]any
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("item %q: %w", key, err)
		}
		out = append(out, model.Declaration{Key: key, Entry: model.EntryFromMap(raw)})
	}
	*it = out
	return nil
}

// Loader is the JSON implementation of config.Loader.
type Loader struct{}

var _ config.Loader = (*Loader)(nil)

// NewLoader creates a JSON loader.
func NewLoader() *Loader { return &Loader{} }

// Load reads every .json and .jsonc file under paths.
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
	logger.Debug("JSON loading complete.", "files", len(files), "catalogs", len(out.Catalogs))
	return out, nil
}

// Parse decodes one JSON document. source names it in errors.
func Parse(source string, data []byte) (*config.Model, error) {
	var doc document
	if err := json.Unmarshal(jsonc.ToJSON(data), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode JSON file %s: %w", source, err)
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
