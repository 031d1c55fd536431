package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/capitalone/Stratum-Observability/internal/catalog"
	"github.com/capitalone/Stratum-Observability/internal/ctxlog"
	"github.com/capitalone/Stratum-Observability/internal/model"
	"github.com/capitalone/Stratum-Observability/internal/plugin"
	"github.com/capitalone/Stratum-Observability/internal/registry"
	"github.com/capitalone/Stratum-Observability/internal/snapshot"
	"github.com/capitalone/Stratum-Observability/internal/version"
)

// ErrUnknownTag is returned when the catalog id or the key was never
// registered. It signals a programming error at the call site.
var ErrUnknownTag = errors.New("unknown tag")

// Identity is the part of the identity provider the pipeline stamps into
// every snapshot.
type Identity interface {
	ProductName() string
	ProductVersion() string
	SessionID() string
	Logger() *slog.Logger
}

// Catalogs resolves catalog ids.
type Catalogs interface {
	Catalog(id string) (*catalog.Catalog, bool)
}

// SnapshotListener observes every snapshot built by the pipeline.
type SnapshotListener func(*snapshot.Snapshot)

// Config wires a Pipeline to its collaborators.
type Config struct {
	Identity Identity
	Registry *registry.Registry
	Catalogs Catalogs
	Policy   Policy
	// AbTestSchemas returns the service-level A/B test schemas. Optional.
	AbTestSchemas func() []snapshot.AbTestSchema
}

// Pipeline executes publish calls. It is safe for concurrent use.
type Pipeline struct {
	cfg Config

	mu        sync.RWMutex
	listeners []SnapshotListener
}

// New creates a Pipeline. Identity, Registry and Catalogs are required.
func New(cfg Config) *Pipeline {
	if cfg.Identity == nil || cfg.Registry == nil || cfg.Catalogs == nil {
		panic("pipeline.New: Identity, Registry and Catalogs are required")
	}
	return &Pipeline{cfg: cfg}
}

// Policy returns the configured result policy.
func (p *Pipeline) Policy() Policy { return p.cfg.Policy }

// AddSnapshotListener registers l to receive a copy of every built snapshot.
func (p *Pipeline) AddSnapshotListener(l SnapshotListener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, l)
}

// Publish publishes the entry key of catalog catalogID and reports the
// result under the configured policy.
func (p *Pipeline) Publish(ctx context.Context, catalogID, key string, opts *snapshot.EventOptions) (bool, error) {
	report, err := p.PublishWithReport(ctx, catalogID, key, opts)
	if err != nil {
		return false, err
	}
	return report.Result(p.cfg.Policy), nil
}

// PublishWithReport is Publish returning the per-publisher outcomes.
func (p *Pipeline) PublishWithReport(ctx context.Context, catalogID, key string, opts *snapshot.EventOptions) (*PublishReport, error) {
	ctx = ctxlog.Ensure(ctx, p.cfg.Identity.Logger())
	logger := ctxlog.FromContext(ctx).With("catalog", catalogID, "key", key)

	report := &PublishReport{CatalogID: catalogID, Key: key}

	cat, ok := p.cfg.Catalogs.Catalog(catalogID)
	if !ok {
		return nil, fmt.Errorf("catalog %q: %w", catalogID, ErrUnknownTag)
	}
	if !cat.Declared(key) {
		return nil, fmt.Errorf("key %q in catalog %q: %w", key, catalogID, ErrUnknownTag)
	}
	m, ok := cat.Model(key)
	if !ok {
		logger.Debug("Tag is invalid, not publishing.", "errors", cat.Errors()[key].Errors)
		return report, nil
	}
	report.Resolved = true
	report.TagID = m.TagID()

	snap := p.BuildSnapshot(cat, m, opts)
	p.notify(logger, snap)

	entries := p.dispatchOrder()
	logger.Debug("Publishing event.", "tagId", report.TagID, "publishers", len(entries))
	for _, e := range entries {
		report.Outcomes = append(report.Outcomes, p.dispatch(ctx, logger, e.Publisher, m, snap.Clone()))
	}
	return report, nil
}

// BuildSnapshot assembles the snapshot for model m of catalog cat.
func (p *Pipeline) BuildSnapshot(cat *catalog.Catalog, m model.Model, opts *snapshot.EventOptions) *snapshot.Snapshot {
	id := p.cfg.Identity
	snap := &snapshot.Snapshot{
		Event:            snapshot.Event{EventType: m.EventType(), ID: m.ID()},
		Data:             m.Data(opts),
		Plugins:          make(map[string]snapshot.PluginData),
		GlobalContext:    make(map[string]map[string]any),
		Catalog:          snapshot.CatalogInfo{Metadata: cat.Metadata(), ID: cat.ID()},
		StratumSessionID: id.SessionID(),
		ProductName:      id.ProductName(),
		ProductVersion:   id.ProductVersion(),
		StratumVersion:   version.Version,
		AbTestSchemas:    []snapshot.AbTestSchema{},
	}
	if snap.Data == nil {
		snap.Data = map[string]any{}
	}

	for _, pl := range p.cfg.Registry.Plugins() {
		ctxData := plugin.ContextOf(pl)
		if ctxData != nil {
			merged, seen := snap.GlobalContext[pl.Name()]
			if !seen {
				merged = make(map[string]any, len(ctxData))
				snap.GlobalContextOrder = append(snap.GlobalContextOrder, pl.Name())
			}
			for k, v := range ctxData {
				merged[k] = v
			}
			snap.GlobalContext[pl.Name()] = merged
		}

		pd := snapshot.PluginData{
			Context: mergeMaps(ctxData, eventPluginData(opts, pl.Name())),
			Options: mergeMaps(plugin.OptionsOf(pl), nil),
		}
		for _, pub := range pl.Publishers() {
			snap.Plugins[pub.Name()] = pd
		}
	}

	if p.cfg.AbTestSchemas != nil {
		snap.AbTestSchemas = append(snap.AbTestSchemas, p.cfg.AbTestSchemas()...)
	}
	if opts != nil {
		snap.AbTestSchemas = append(snap.AbTestSchemas, opts.AbTestSchemas...)
		snap.EventOptions = opts
	}
	// Publishers and listeners only ever see copies.
	return snap.Clone()
}

func (p *Pipeline) notify(logger *slog.Logger, snap *snapshot.Snapshot) {
	p.mu.RLock()
	listeners := append([]SnapshotListener(nil), p.listeners...)
	p.mu.RUnlock()
	for i, l := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Warn("Snapshot listener panicked.", "listener", i, "error", r)
				}
			}()
			l(snap.Clone())
		}()
	}
}

func (p *Pipeline) dispatchOrder() []registry.Entry {
	entries := p.cfg.Registry.Publishers()
	sort.SliceStable(entries, func(i, j int) bool {
		return plugin.PriorityOf(entries[i].Publisher) > plugin.PriorityOf(entries[j].Publisher)
	})
	return entries
}

func (p *Pipeline) dispatch(ctx context.Context, logger *slog.Logger, pub plugin.Publisher, m model.Model, snap *snapshot.Snapshot) (out PublisherOutcome) {
	name := pub.Name()
	out.Publisher = name
	logger = logger.With("publisher", name)

	step := "filter"
	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("%s: %s panicked: %v", name, step, r)
			if step == "availability check" {
				out.Outcome = Unavailable
			} else {
				out.Outcome = Failed
			}
			logger.Warn("Publisher panicked.", "step", step, "error", r)
		}
	}()

	if err := ctx.Err(); err != nil {
		out.Outcome, out.Err = Failed, fmt.Errorf("%s: %w", name, err)
		return out
	}

	if !pub.ShouldPublishEvent(m) {
		out.Outcome = Skipped
		return out
	}

	step = "availability check"
	ok, err := pub.IsAvailable(ctx, m, snap)
	if err != nil {
		out.Outcome, out.Err = Unavailable, fmt.Errorf("%s: availability check: %w", name, err)
		logger.Warn("Publisher availability check failed.", "error", err)
		return out
	}
	if !ok {
		out.Outcome = Unavailable
		logger.Debug("Publisher unavailable, skipping.")
		return out
	}

	step = "event output"
	c := pub.GetEventOutput(m, snap)

	step = "hooks"
	c = p.cfg.Registry.RunHookChain(ctx, c, m, snap)

	step = "publish"
	if err := pub.Publish(ctx, c, snap); err != nil {
		out.Outcome, out.Err = Failed, fmt.Errorf("%s: publish: %w", name, err)
		logger.Warn("Publisher failed.", "error", err)
		return out
	}
	out.Outcome = Delivered
	return out
}

func eventPluginData(opts *snapshot.EventOptions, name string) map[string]any {
	if opts == nil {
		return nil
	}
	return opts.PluginData[name]
}

func mergeMaps(base, over map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}
