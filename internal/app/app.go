package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/capitalone/Stratum-Observability/internal/catalog"
	"github.com/capitalone/Stratum-Observability/internal/config"
	"github.com/capitalone/Stratum-Observability/internal/ctxlog"
	"github.com/capitalone/Stratum-Observability/internal/plugin"
	"github.com/capitalone/Stratum-Observability/internal/stratum"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	config  *Config
	model   *config.Model
	service *stratum.Service
	closers []func()
}

// NewApp is the constructor for the main application. It loads every
// configured path, builds the declared plugins and registers the declared
// catalogs. A nil modules map selects the built-in plugin types.
//
// Configuration errors are fatal and reported by panicking.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader, modules Modules) *App {
	logger := newLogger(cfg, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	cfgModel, err := loader.Load(ctx, cfg.paths()...)
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	logger.Debug("Configuration loaded and translated into unified model.",
		"plugins", len(cfgModel.Plugins), "catalogs", len(cfgModel.Catalogs))

	name, version := cfg.ProductName, cfg.ProductVersion
	if p := cfgModel.Product; p != nil {
		if name == "" {
			name = p.Name
		}
		if version == "" {
			version = p.Version
		}
	}
	if name == "" || version == "" {
		panic(errors.New("product name and version are required: use --product-name/--product-version, the environment or a product block"))
	}

	if modules == nil {
		modules = coreModules
	}
	a := &App{outW: outW, logger: logger, config: cfg, model: cfgModel}

	plugins, err := a.buildPlugins(ctx, modules)
	if err != nil {
		a.Close()
		panic(err)
	}

	opts := stratum.Options{
		ProductName:    name,
		ProductVersion: version,
		Logger:         logger,
		Plugins:        plugins,
		Policy:         cfg.Policy,
	}
	if len(cfgModel.Catalogs) > 0 {
		first := cfgModel.Catalogs[0].Options()
		opts.Catalog = &first
	}
	a.service = stratum.New(opts)
	if c, ok := a.service.DefaultCatalog(); ok {
		a.logCatalog(c)
	}
	for _, decl := range cfgModel.Catalogs[min(1, len(cfgModel.Catalogs)):] {
		a.logCatalog(a.service.AddCatalog(decl.Options()))
	}
	logger.Debug("Service ready.", "catalogs", a.service.Catalogs(), "publishers", a.service.Publishers())

	return a
}

func (a *App) buildPlugins(ctx context.Context, modules Modules) ([]plugin.Plugin, error) {
	decls := a.model.Plugins
	if len(decls) == 0 {
		a.logger.Debug("No plugins declared, using the console plugin.")
		decls = []*config.PluginConfig{{Type: "console"}}
	}

	plugins := make([]plugin.Plugin, 0, len(decls))
	for _, pc := range decls {
		build, ok := modules[pc.Type]
		if !ok {
			return nil, fmt.Errorf("%s: unknown plugin type %q", pc.Source, pc.Type)
		}
		p, closeFn, err := build(ctx, pc, a.outW)
		if err != nil {
			return nil, fmt.Errorf("failed to build plugin %q: %w", pc.Type, err)
		}
		if closeFn != nil {
			a.closers = append(a.closers, closeFn)
		}
		p, err = guard(p, pc, a.config.PublisherTimeout)
		if err != nil {
			return nil, err
		}
		plugins = append(plugins, p)
		a.logger.Debug("Plugin built.", "type", pc.Type, "plugin", p.Name())
	}
	return plugins, nil
}

func (a *App) logCatalog(c *catalog.Catalog) {
	if c.IsValid() {
		a.logger.Debug("Catalog registered.", "catalog", c.ID(), "keys", len(c.Keys()))
		return
	}
	for _, key := range c.ErrorKeys() {
		a.logger.Warn("Invalid catalog entry.", "catalog", c.ID(), "key", key, "errors", c.Errors()[key].Errors)
	}
}

// Service returns the underlying service. This is primarily for testing.
func (a *App) Service() *stratum.Service {
	return a.service
}

// Close releases plugin connections, last built first.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
