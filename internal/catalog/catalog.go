package catalog

import (
	"fmt"
	"sync"

	"github.com/capitalone/Stratum-Observability/internal/model"
	"github.com/capitalone/Stratum-Observability/internal/snapshot"
)

// ErrDuplicateKey is recorded against a key that is already a valid model.
const ErrDuplicateKey = "Duplicate tag key"

// Metadata is the resolved catalog metadata.
type Metadata = snapshot.CatalogMetadata

// Options are the user-declared items and metadata of a catalog. Empty
// metadata fields mean "not declared".
type Options struct {
	Items            []model.Declaration
	CatalogVersion   string
	ComponentName    string
	ComponentVersion string
}

// EntryErrors is the error report for one key.
type EntryErrors struct {
	DisplayableName string
	Errors          []string
}

// Identity is what a catalog needs from the identity provider.
type Identity interface {
	model.Identity
	Constructor(eventType string) (model.Constructor, bool)
	RegisterTagID(catalogID, tagID string) bool
}

// Catalog is a registered, validated tag catalog. It is safe for concurrent
// use.
type Catalog struct {
	id       string
	metadata Metadata
	identity Identity

	mu        sync.RWMutex
	valid     bool
	errors    map[string]*EntryErrors
	errorKeys []string
	models    map[string]model.Model
	keys      []string
}

// GenerateID derives a catalog id as "<name>:<version>" where name is the
// component name or the product name, and version is the first declared of
// catalog version, component version and product version.
func GenerateID(opts Options, productName, productVersion string) string {
	name := opts.ComponentName
	if name == "" {
		name = productName
	}
	version := opts.CatalogVersion
	if version == "" {
		version = opts.ComponentVersion
	}
	if version == "" {
		version = productVersion
	}
	return fmt.Sprintf("%s:%s", name, version)
}

// New registers a catalog under id and validates opts.Items.
func New(id string, opts Options, identity Identity) *Catalog {
	c := &Catalog{
		id:       id,
		identity: identity,
		valid:    true,
		errors:   make(map[string]*EntryErrors),
		models:   make(map[string]model.Model),
		metadata: Metadata{
			CatalogVersion:   opts.CatalogVersion,
			ComponentName:    opts.ComponentName,
			ComponentVersion: opts.ComponentVersion,
		},
	}
	if c.metadata.ComponentName == "" {
		c.metadata.ComponentName = identity.ProductName()
	}
	if c.metadata.ComponentVersion == "" {
		c.metadata.ComponentVersion = identity.ProductVersion()
	}
	c.Add(opts.Items)
	return c
}

// Add validates and adds items, in order, to the catalog. It reports whether
// every item passed. Adding is additive: a key that failed earlier and now
// succeeds becomes a valid model while keeping its earlier error report.
func (c *Catalog) Add(items []model.Declaration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	batchValid := true
	var failed []string
	for _, decl := range items {
		key := decl.Key
		displayableName := fmt.Sprintf("Tag Key: %q", key)
		var errs []string

		if _, exists := c.models[key]; exists {
			errs = append(errs, ErrDuplicateKey)
		} else {
			m, errMsg := c.buildModel(key, decl.Entry)
			switch {
			case m == nil:
				errs = append(errs, errMsg)
			case m.IsValid():
				c.models[key] = m
				c.keys = append(c.keys, key)
				c.identity.RegisterTagID(c.id, m.TagID())
			default:
				errs = append(errs, m.ValidationErrors()...)
				displayableName = m.DisplayableName()
			}
		}

		if len(errs) == 0 {
			continue
		}
		batchValid = false
		failed = append(failed, key)
		if report, exists := c.errors[key]; exists {
			report.Errors = append(report.Errors, errs...)
		} else {
			c.errors[key] = &EntryErrors{DisplayableName: displayableName, Errors: errs}
			c.errorKeys = append(c.errorKeys, key)
		}
	}

	c.valid = c.valid && batchValid
	if !batchValid {
		c.identity.Logger().Debug("Invalid tag objects were removed when registering catalog.",
			"catalog", c.id,
			"count", len(failed),
			"keys", failed,
		)
	}
	return batchValid
}

// buildModel resolves the entry's event type and runs its constructor. When
// the type cannot be resolved no model is built and an error message is
// returned instead.
func (c *Catalog) buildModel(key string, entry model.Entry) (model.Model, string) {
	notFound := fmt.Sprintf("Event type %q not found.", entry.EventType)
	if entry.EventType == "" {
		return nil, notFound
	}
	ctor, ok := c.identity.Constructor(entry.EventType)
	if !ok || ctor == nil {
		return nil, notFound
	}
	return ctor(key, entry, c.id, c.identity), ""
}

// ID returns the catalog id.
func (c *Catalog) ID() string { return c.id }

// Metadata returns the resolved metadata.
func (c *Catalog) Metadata() Metadata { return c.metadata }

// IsValid reports whether every entry ever added passed validation.
func (c *Catalog) IsValid() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.valid
}

// Model returns the valid model registered under key.
func (c *Catalog) Model(key string) (model.Model, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.models[key]
	return m, ok
}

// Declared reports whether key was ever declared, valid or not.
func (c *Catalog) Declared(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.models[key]; ok {
		return true
	}
	_, ok := c.errors[key]
	return ok
}

// Keys returns the valid model keys in registration order.
func (c *Catalog) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.keys...)
}

// ValidModels returns a copy of the valid models keyed by tag key.
func (c *Catalog) ValidModels() map[string]model.Model {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]model.Model, len(c.models))
	for k, m := range c.models {
		out[k] = m
	}
	return out
}

// ErrorKeys returns the keys with error reports in first-failure order.
func (c *Catalog) ErrorKeys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.errorKeys...)
}

// Errors returns a copy of the error reports keyed by tag key.
func (c *Catalog) Errors() map[string]EntryErrors {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]EntryErrors, len(c.errors))
	for k, report := range c.errors {
		out[k] = EntryErrors{
			DisplayableName: report.DisplayableName,
			Errors:          append([]string(nil), report.Errors...),
		}
	}
	return out
}
