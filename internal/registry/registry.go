package registry

import (
	"log/slog"
	"sync"

	"github.com/capitalone/Stratum-Observability/internal/plugin"
)

// Registry holds the registered plugins and hooks for a service instance.
type Registry struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	plugins []plugin.Plugin
	hooks   []Hook
}

// New creates an empty Registry. A nil logger uses slog.Default.
func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// AddPlugin appends p and returns the plugins registered afterwards.
func (r *Registry) AddPlugin(p plugin.Plugin) []plugin.Plugin {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger.Debug("Registering plugin.", "plugin", p.Name(), "publishers", len(p.Publishers()))
	r.plugins = append(r.plugins, p)
	return r.snapshotPlugins()
}

// RemovePlugin removes the first plugin registered under name and returns
// the plugins registered afterwards. Unknown names are ignored.
func (r *Registry) RemovePlugin(name string) []plugin.Plugin {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name == "" {
		return r.snapshotPlugins()
	}
	for i, p := range r.plugins {
		if p.Name() == name {
			r.logger.Debug("Removing plugin.", "plugin", name)
			r.plugins = append(r.plugins[:i:i], r.plugins[i+1:]...)
			break
		}
	}
	return r.snapshotPlugins()
}

// Plugins returns the registered plugins in registration order.
func (r *Registry) Plugins() []plugin.Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotPlugins()
}

// Entry is a publisher together with the plugin that owns it.
type Entry struct {
	Plugin    plugin.Plugin
	Publisher plugin.Publisher
}

// Publishers returns every publisher of every plugin in registration order.
func (r *Registry) Publishers() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Entry
	for _, p := range r.plugins {
		for _, pub := range p.Publishers() {
			out = append(out, Entry{Plugin: p, Publisher: pub})
		}
	}
	return out
}

func (r *Registry) snapshotPlugins() []plugin.Plugin {
	out := make([]plugin.Plugin, len(r.plugins))
	copy(out, r.plugins)
	return out
}
