package stratum

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/capitalone/Stratum-Observability/internal/catalog"
	"github.com/capitalone/Stratum-Observability/internal/content"
	"github.com/capitalone/Stratum-Observability/internal/injector"
	"github.com/capitalone/Stratum-Observability/internal/model"
	"github.com/capitalone/Stratum-Observability/internal/plugin"
	"github.com/capitalone/Stratum-Observability/internal/registry"
	"github.com/capitalone/Stratum-Observability/internal/snapshot"
	"github.com/capitalone/Stratum-Observability/internal/version"
	"github.com/capitalone/Stratum-Observability/modules/console"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	productName    = "my-product-name"
	productVersion = "1.0"
)

var catalogMetadata = catalog.Options{
	CatalogVersion:   "1.0.0",
	ComponentName:    "my-component",
	ComponentVersion: "2.0",
}

func baseCatalog() catalog.Options {
	opts := catalogMetadata
	opts.Items = []model.Declaration{
		{Key: "1", Entry: model.Entry{EventType: model.BaseEventType, Description: "first", ID: "1"}},
		{Key: "2", Entry: model.Entry{EventType: model.BaseEventType, Description: "second"}},
	}
	return opts
}

func newService(t *testing.T, plugins ...plugin.Plugin) *Service {
	t.Helper()
	opts := baseCatalog()
	return New(Options{
		ProductName:    productName,
		ProductVersion: productVersion,
		Logger:         slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
		Session:        injector.StaticSessionID("test-session"),
		Plugins:        plugins,
		Catalog:        &opts,
	})
}

func TestConsoleSnapshotShape(t *testing.T) {
	// --- Arrange ---
	var out bytes.Buffer
	svc := newService(t, console.New(&out))

	// --- Act ---
	ok, err := svc.Publish(context.Background(), "1", nil)

	// --- Assert ---
	require.NoError(t, err)
	assert.True(t, ok)

	line := strings.TrimPrefix(out.String(), console.Prefix+" ")
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &got))

	want := map[string]any{
		"event": map[string]any{"eventType": "base", "id": "1"},
		"data":  map[string]any{},
		"plugins": map[string]any{
			"console": map[string]any{"context": map[string]any{}, "options": map[string]any{}},
		},
		"globalContext": map[string]any{},
		"catalog": map[string]any{
			"metadata": map[string]any{
				"catalogVersion":   "1.0.0",
				"componentName":    "my-component",
				"componentVersion": "2.0",
			},
			"id": "my-component:1.0.0",
		},
		"stratumSessionId": "test-session",
		"productName":      productName,
		"productVersion":   productVersion,
		"stratumVersion":   version.Version,
		"abTestSchemas":    []any{},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestPublishWithoutDefaultCatalog(t *testing.T) {
	svc := New(Options{ProductName: "P", ProductVersion: "1.0"})

	ok, err := svc.Publish(context.Background(), "1", nil)

	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrNoDefaultCatalog)
}

func TestAddCatalogMergesSameID(t *testing.T) {
	// --- Arrange ---
	svc := newService(t)
	extra := catalogMetadata
	extra.Items = []model.Declaration{{Key: "3", Entry: model.Entry{EventType: model.BaseEventType}}}

	// --- Act ---
	c := svc.AddCatalog(extra)

	// --- Assert ---
	def, ok := svc.DefaultCatalog()
	require.True(t, ok)
	assert.Same(t, def, c)
	assert.Equal(t, []string{"1", "2", "3"}, c.Keys())
	assert.Equal(t, []string{"my-component:1.0.0"}, svc.Catalogs())
}

func TestPublishFromSecondCatalog(t *testing.T) {
	var out bytes.Buffer
	svc := newService(t, console.New(&out))
	other := svc.AddCatalog(catalog.Options{
		ComponentName: "other",
		Items:         []model.Declaration{{Key: "a", Entry: model.Entry{EventType: model.BaseEventType, ID: "x"}}},
	})

	ok, err := svc.PublishFromCatalog(context.Background(), other.ID(), "a", nil)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "other:1.0", other.ID())
	assert.Contains(t, out.String(), `"id": "x"`)
}

type customModel struct{ *model.Base }

func (m *customModel) Data(*snapshot.EventOptions) map[string]any {
	name, _ := m.Entry().StringField("name")
	return map[string]any{"name": name}
}

func TestAddPluginRegistersEventTypes(t *testing.T) {
	// --- Arrange ---
	var seen []*snapshot.Snapshot
	opts := catalog.Options{Items: []model.Declaration{
		{Key: "c", Entry: model.Entry{EventType: "custom", Fields: map[string]any{"name": "n"}}},
	}}
	svc := New(Options{
		ProductName:    "P",
		ProductVersion: "1.0",
		Plugins: []plugin.Plugin{&plugin.Base{
			PluginName: "custom-plugin",
			PluginEventTypes: map[string]model.Constructor{
				"custom": func(key string, e model.Entry, cid string, _ model.Identity) model.Model {
					return &customModel{Base: model.NewBase(key, e, cid)}
				},
			},
		}},
		Catalog: &opts,
	})
	svc.AddSnapshotListener(func(s *snapshot.Snapshot) { seen = append(seen, s) })

	// --- Act ---
	_, err := svc.Publish(context.Background(), "c", nil)

	// --- Assert ---
	require.NoError(t, err)
	def, _ := svc.DefaultCatalog()
	assert.True(t, def.IsValid())
	require.Len(t, seen, 1)
	assert.Equal(t, map[string]any{"name": "n"}, seen[0].Data)
}

func TestPluginsAndPublishers(t *testing.T) {
	svc := newService(t, console.New(&bytes.Buffer{}))
	svc.AddPlugin(&plugin.Base{PluginName: "ctx", PluginContext: map[string]any{"k": "v"}})

	assert.Equal(t, []string{"console"}, svc.Publishers())
	assert.Len(t, svc.Plugins(), 2)

	svc.RemovePlugin("console")
	assert.Empty(t, svc.Publishers())
}

func TestAbTestSchemas(t *testing.T) {
	// --- Arrange ---
	var seen *snapshot.Snapshot
	svc := newService(t)
	svc.AddSnapshotListener(func(s *snapshot.Snapshot) { seen = s })
	svc.AddAbTestSchemas(
		snapshot.AbTestSchema{Name: "one", VariationIDs: []string{"a"}},
		snapshot.AbTestSchema{Name: "two", VariationIDs: []string{"b"}},
	)
	svc.RemoveAbTestSchemas("one")

	// --- Act ---
	_, err := svc.Publish(context.Background(), "1", &snapshot.EventOptions{
		AbTestSchemas: []snapshot.AbTestSchema{{Name: "event", VariationIDs: []string{"c"}}},
	})

	// --- Assert ---
	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Equal(t, []snapshot.AbTestSchema{
		{Name: "two", VariationIDs: []string{"b"}},
		{Name: "event", VariationIDs: []string{"c"}},
	}, seen.AbTestSchemas)
	assert.Len(t, svc.AbTestSchemas(), 1)
}

func TestSharedRegistry(t *testing.T) {
	reg := registry.New(nil)
	reg.RegisterOnBeforePublish(func(c *content.Map, _ model.Model, _ *snapshot.Snapshot) (*content.Map, error) {
		return content.Of(console.MessageKey, "hooked"), nil
	})
	var out bytes.Buffer
	opts := baseCatalog()
	a := New(Options{ProductName: "A", ProductVersion: "1", Registry: reg, Catalog: &opts, Plugins: []plugin.Plugin{console.New(&out)}})
	b := New(Options{ProductName: "B", ProductVersion: "1", Registry: reg, Catalog: &opts})

	_, err := b.Publish(context.Background(), "1", nil)
	require.NoError(t, err)

	assert.Same(t, a.Registry(), b.Registry())
	assert.Equal(t, console.Prefix+" hooked\n", out.String())
}
