package stratum

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/capitalone/Stratum-Observability/internal/catalog"
	"github.com/capitalone/Stratum-Observability/internal/injector"
	"github.com/capitalone/Stratum-Observability/internal/pipeline"
	"github.com/capitalone/Stratum-Observability/internal/plugin"
	"github.com/capitalone/Stratum-Observability/internal/registry"
	"github.com/capitalone/Stratum-Observability/internal/snapshot"
)

// ErrNoDefaultCatalog is returned by Publish when the service was created
// without a default catalog.
var ErrNoDefaultCatalog = errors.New("no default catalog registered")

// Options configure a Service.
type Options struct {
	ProductName    string
	ProductVersion string
	Logger         *slog.Logger
	// Session overrides the default per-service UUID session id.
	Session injector.SessionIDProvider
	// Registry is shared with other services when set. A new one is created
	// otherwise.
	Registry *registry.Registry
	Plugins  []plugin.Plugin
	// Catalog is registered as the default catalog when set.
	Catalog       *catalog.Options
	AbTestSchemas []snapshot.AbTestSchema
	Policy        pipeline.Policy
}

// Service is safe for concurrent use.
type Service struct {
	injector *injector.Injector
	registry *registry.Registry
	pipeline *pipeline.Pipeline

	mu             sync.RWMutex
	catalogs       map[string]*catalog.Catalog
	defaultCatalog string
	abTests        []snapshot.AbTestSchema
}

// New creates a Service from opts.
func New(opts Options) *Service {
	injOpts := []injector.Option{injector.WithLogger(opts.Logger)}
	if opts.Session != nil {
		injOpts = append(injOpts, injector.WithSessionIDProvider(opts.Session))
	}
	inj := injector.New(opts.ProductName, opts.ProductVersion, injOpts...)

	reg := opts.Registry
	if reg == nil {
		reg = registry.New(inj.Logger())
	}

	s := &Service{
		injector: inj,
		registry: reg,
		catalogs: make(map[string]*catalog.Catalog),
		abTests:  append([]snapshot.AbTestSchema(nil), opts.AbTestSchemas...),
	}
	s.pipeline = pipeline.New(pipeline.Config{
		Identity:      inj,
		Registry:      reg,
		Catalogs:      s,
		Policy:        opts.Policy,
		AbTestSchemas: s.AbTestSchemas,
	})

	for _, p := range opts.Plugins {
		s.AddPlugin(p)
	}
	if opts.Catalog != nil {
		s.defaultCatalog = s.AddCatalog(*opts.Catalog).ID()
	}
	return s
}

// Injector returns the identity provider of the service.
func (s *Service) Injector() *injector.Injector { return s.injector }

// Registry returns the plugin and hook registry of the service.
func (s *Service) Registry() *registry.Registry { return s.registry }

// Logger returns the service logger.
func (s *Service) Logger() *slog.Logger { return s.injector.Logger() }

// SessionID returns the session identifier stamped into snapshots.
func (s *Service) SessionID() string { return s.injector.SessionID() }

// AddCatalog registers a catalog and returns it. Registering options that
// resolve to an existing catalog id adds the new items to that catalog.
func (s *Service) AddCatalog(opts catalog.Options) *catalog.Catalog {
	id := catalog.GenerateID(opts, s.injector.ProductName(), s.injector.ProductVersion())

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.catalogs[id]; ok {
		existing.Add(opts.Items)
		return existing
	}
	c := catalog.New(id, opts, s.injector)
	s.catalogs[id] = c
	return c
}

// Catalog returns the catalog registered under id.
func (s *Service) Catalog(id string) (*catalog.Catalog, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.catalogs[id]
	return c, ok
}

// Catalogs returns the registered catalog ids, sorted.
func (s *Service) Catalogs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.catalogs))
	for id := range s.catalogs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DefaultCatalog returns the catalog created from Options.Catalog.
func (s *Service) DefaultCatalog() (*catalog.Catalog, bool) {
	s.mu.RLock()
	id := s.defaultCatalog
	s.mu.RUnlock()
	if id == "" {
		return nil, false
	}
	return s.Catalog(id)
}

// AddPlugin registers p and the event types it declares. It returns the
// plugins registered afterwards.
func (s *Service) AddPlugin(p plugin.Plugin) []plugin.Plugin {
	types := plugin.EventTypesOf(p)
	names := make([]string, 0, len(types))
	for name := range types {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s.injector.RegisterEventType(name, types[name])
	}
	return s.registry.AddPlugin(p)
}

// RemovePlugin removes the first plugin named name. Event types it declared
// stay registered.
func (s *Service) RemovePlugin(name string) []plugin.Plugin {
	return s.registry.RemovePlugin(name)
}

// Plugins returns the registered plugins in registration order.
func (s *Service) Plugins() []plugin.Plugin { return s.registry.Plugins() }

// Publishers returns the names of every registered publisher in
// registration order.
func (s *Service) Publishers() []string {
	entries := s.registry.Publishers()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Publisher.Name()
	}
	return out
}

// RegisterOnBeforePublish appends a hook to the before-publish chain.
func (s *Service) RegisterOnBeforePublish(h registry.Hook) {
	s.registry.RegisterOnBeforePublish(h)
}

// AddAbTestSchemas appends schemas to the service-level A/B tests.
func (s *Service) AddAbTestSchemas(schemas ...snapshot.AbTestSchema) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.abTests = append(s.abTests, schemas...)
}

// RemoveAbTestSchemas removes every schema with one of the given names.
func (s *Service) RemoveAbTestSchemas(names ...string) {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.abTests[:0:0]
	for _, schema := range s.abTests {
		if _, ok := drop[schema.Name]; !ok {
			kept = append(kept, schema)
		}
	}
	s.abTests = kept
}

// AbTestSchemas returns a copy of the service-level A/B tests.
func (s *Service) AbTestSchemas() []snapshot.AbTestSchema {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]snapshot.AbTestSchema(nil), s.abTests...)
}

// AddSnapshotListener registers l to observe every built snapshot.
func (s *Service) AddSnapshotListener(l pipeline.SnapshotListener) {
	s.pipeline.AddSnapshotListener(l)
}

// Publish publishes key from the default catalog.
func (s *Service) Publish(ctx context.Context, key string, opts *snapshot.EventOptions) (bool, error) {
	c, ok := s.DefaultCatalog()
	if !ok {
		return false, ErrNoDefaultCatalog
	}
	return s.pipeline.Publish(ctx, c.ID(), key, opts)
}

// PublishFromCatalog publishes key from the catalog registered as catalogID.
func (s *Service) PublishFromCatalog(ctx context.Context, catalogID, key string, opts *snapshot.EventOptions) (bool, error) {
	return s.pipeline.Publish(ctx, catalogID, key, opts)
}

// PublishWithReport is PublishFromCatalog returning per-publisher outcomes.
func (s *Service) PublishWithReport(ctx context.Context, catalogID, key string, opts *snapshot.EventOptions) (*pipeline.PublishReport, error) {
	return s.pipeline.PublishWithReport(ctx, catalogID, key, opts)
}
