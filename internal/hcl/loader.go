package hcl

import (
	"context"
	"fmt"

	"github.com/capitalone/Stratum-Observability/internal/config"
	"github.com/capitalone/Stratum-Observability/internal/ctxlog"
	"github.com/capitalone/Stratum-Observability/internal/fsutil"
	"github.com/capitalone/Stratum-Observability/internal/model"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Extension is the file extension handled by the Loader.
const Extension = ".hcl"

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

var _ config.Loader = (*Loader)(nil)

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file under paths. Blocks are translated in file
// order; tag blocks keep their declaration order, duplicates included.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.FindFiles(paths, Extension)
	if err != nil {
		return nil, err
	}

	out := &config.Model{}
	parser := hclparse.NewParser()
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		m, err := translate(file, &root)
		if err != nil {
			return nil, err
		}
		out.Merge(m)
	}

	logger.Debug("HCL loading complete.", "files", len(files), "plugins", len(out.Plugins), "catalogs", len(out.Catalogs))
	return out, nil
}

func translate(file string, root *fileRoot) (*config.Model, error) {
	m := &config.Model{}
	if root.Product != nil {
		m.Product = &config.Product{Name: root.Product.Name, Version: root.Product.Version}
	}

	for _, p := range root.Plugins {
		attrs, err := bodyAttributes(p.Remain)
		if err != nil {
			return nil, fmt.Errorf("%s: plugin %q: %w", file, p.Type, err)
		}
		m.Plugins = append(m.Plugins, &config.PluginConfig{Type: p.Type, Name: p.Name, Source: file, Attributes: attrs})
	}

	for _, c := range root.Catalogs {
		items, err := translateTags(file, c.Tags)
		if err != nil {
			return nil, err
		}
		m.Catalogs = append(m.Catalogs, &config.CatalogDecl{
			Source:           file,
			CatalogVersion:   c.CatalogVersion,
			ComponentName:    c.ComponentName,
			ComponentVersion: c.ComponentVersion,
			Items:            items,
		})
	}

	// Top-level tags form a catalog identified by the product alone.
	if len(root.Tags) > 0 {
		items, err := translateTags(file, root.Tags)
		if err != nil {
			return nil, err
		}
		m.Catalogs = append(m.Catalogs, &config.CatalogDecl{Source: file, Items: items})
	}
	return m, nil
}

func translateTags(file string, tags []*tagBlock) ([]model.Declaration, error) {
	items := make([]model.Declaration, 0, len(tags))
	for _, t := range tags {
		fields, err := bodyAttributes(t.Remain)
		if err != nil {
			return nil, fmt.Errorf("%s: tag %q: %w", file, t.Key, err)
		}
		items = append(items, model.Declaration{
			Key: t.Key,
			Entry: model.Entry{
				EventType:   t.EventType,
				Description: t.Description,
				ID:          t.ID,
				Fields:      fields,
			},
		})
	}
	return items, nil
}
