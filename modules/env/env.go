// Package env provides a context-only plugin that contributes environment
// variables to the global context of every snapshot.
package env

import (
	"os"
	"sort"
	"strings"

	"github.com/capitalone/Stratum-Observability/internal/plugin"
)

// DefaultName is the plugin name used when Config.Name is empty.
const DefaultName = "env"

// Config selects which variables are captured.
type Config struct {
	Name string
	// Prefix selects every variable starting with it. The prefix is stripped
	// from the context key when StripPrefix is set.
	Prefix      string
	StripPrefix bool
	// Keys selects variables by exact name.
	Keys []string
	// Environ replaces os.Environ, for tests.
	Environ func() []string
}

// Plugin captures its context once, at creation.
type Plugin struct {
	name    string
	context map[string]any
}

var (
	_ plugin.Plugin          = (*Plugin)(nil)
	_ plugin.ContextProvider = (*Plugin)(nil)
)

// New builds the plugin from the current environment.
func New(cfg Config) *Plugin {
	name := cfg.Name
	if name == "" {
		name = DefaultName
	}
	environ := cfg.Environ
	if environ == nil {
		environ = os.Environ
	}

	wanted := make(map[string]struct{}, len(cfg.Keys))
	for _, k := range cfg.Keys {
		wanted[k] = struct{}{}
	}

	ctx := make(map[string]any)
	for _, e := range environ() {
		pair := strings.SplitN(e, "=", 2)
		if len(pair) != 2 {
			continue
		}
		k, v := pair[0], pair[1]
		if _, ok := wanted[k]; ok {
			ctx[k] = v
			continue
		}
		if cfg.Prefix != "" && strings.HasPrefix(k, cfg.Prefix) {
			if cfg.StripPrefix {
				k = strings.TrimPrefix(k, cfg.Prefix)
			}
			if k != "" {
				ctx[k] = v
			}
		}
	}
	return &Plugin{name: name, context: ctx}
}

func (p *Plugin) Name() string                   { return p.name }
func (p *Plugin) Publishers() []plugin.Publisher { return nil }

// Context returns a copy of the captured variables.
func (p *Plugin) Context() map[string]any {
	out := make(map[string]any, len(p.context))
	for k, v := range p.context {
		out[k] = v
	}
	return out
}

// Keys returns the captured variable names, sorted.
func (p *Plugin) Keys() []string {
	keys := make([]string, 0, len(p.context))
	for k := range p.context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
