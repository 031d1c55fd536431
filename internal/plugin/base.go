package plugin

import "github.com/capitalone/Stratum-Observability/internal/model"

// Base is an embeddable Plugin implementation backed by plain fields.
type Base struct {
	PluginName       string
	PluginPublishers []Publisher
	PluginContext    map[string]any
	PluginOptions    map[string]any
	PluginEventTypes map[string]model.Constructor
}

var (
	_ Plugin            = (*Base)(nil)
	_ ContextProvider   = (*Base)(nil)
	_ OptionsProvider   = (*Base)(nil)
	_ EventTypeProvider = (*Base)(nil)
)

func (b *Base) Name() string                             { return b.PluginName }
func (b *Base) Publishers() []Publisher                  { return b.PluginPublishers }
func (b *Base) Context() map[string]any                  { return b.PluginContext }
func (b *Base) Options() map[string]any                  { return b.PluginOptions }
func (b *Base) EventTypes() map[string]model.Constructor { return b.PluginEventTypes }

// wrapped replaces the publishers of an existing plugin while delegating
// everything else to it.
type wrapped struct {
	inner      Plugin
	publishers []Publisher
}

// WrapPublishers returns a plugin identical to p except that each publisher
// is passed through wrap. It is how guards are applied to a whole plugin.
func WrapPublishers(p Plugin, wrap func(Publisher) Publisher) Plugin {
	pubs := p.Publishers()
	out := make([]Publisher, len(pubs))
	for i, pub := range pubs {
		out[i] = wrap(pub)
	}
	return &wrapped{inner: p, publishers: out}
}

func (w *wrapped) Name() string                             { return w.inner.Name() }
func (w *wrapped) Publishers() []Publisher                  { return w.publishers }
func (w *wrapped) Context() map[string]any                  { return ContextOf(w.inner) }
func (w *wrapped) Options() map[string]any                  { return OptionsOf(w.inner) }
func (w *wrapped) EventTypes() map[string]model.Constructor { return EventTypesOf(w.inner) }

// Unwrap returns the original plugin.
func (w *wrapped) Unwrap() Plugin { return w.inner }
