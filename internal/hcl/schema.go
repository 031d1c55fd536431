package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot decodes all top-level blocks from any file.
type fileRoot struct {
	Product  *productBlock   `hcl:"product,block"`
	Plugins  []*pluginBlock  `hcl:"plugin,block"`
	Catalogs []*catalogBlock `hcl:"catalog,block"`
	Tags     []*tagBlock     `hcl:"tag,block"`
	Remain   hcl.Body        `hcl:",remain"`
}

type productBlock struct {
	Name    string `hcl:"name"`
	Version string `hcl:"version"`
}

// pluginBlock is `plugin "<type>" { name = ..., <attributes> }`.
type pluginBlock struct {
	Type   string   `hcl:"type,label"`
	Name   string   `hcl:"name,optional"`
	Remain hcl.Body `hcl:",remain"`
}

type catalogBlock struct {
	ComponentName    string      `hcl:"component_name,optional"`
	ComponentVersion string      `hcl:"component_version,optional"`
	CatalogVersion   string      `hcl:"catalog_version,optional"`
	Tags             []*tagBlock `hcl:"tag,block"`
}

// tagBlock is `tag "<key>" { event_type = ..., <fields> }`. Attributes
// other than the three identity ones become type-specific fields.
type tagBlock struct {
	Key         string   `hcl:"key,label"`
	EventType   string   `hcl:"event_type,optional"`
	Description string   `hcl:"description,optional"`
	ID          string   `hcl:"id,optional"`
	Remain      hcl.Body `hcl:",remain"`
}
