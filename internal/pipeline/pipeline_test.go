package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/capitalone/Stratum-Observability/internal/catalog"
	"github.com/capitalone/Stratum-Observability/internal/content"
	"github.com/capitalone/Stratum-Observability/internal/injector"
	"github.com/capitalone/Stratum-Observability/internal/model"
	"github.com/capitalone/Stratum-Observability/internal/plugin"
	"github.com/capitalone/Stratum-Observability/internal/registry"
	"github.com/capitalone/Stratum-Observability/internal/snapshot"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is a configurable publisher that records what it was given.
type recorder struct {
	name        string
	priority    int
	skip        bool
	unavailable bool
	availErr    error
	publishErr  error
	panicOn     string

	order     *[]string
	published []*content.Map
	snaps     []*snapshot.Snapshot
}

func (r *recorder) Name() string  { return r.name }
func (r *recorder) Priority() int { return r.priority }

func (r *recorder) ShouldPublishEvent(model.Model) bool {
	if r.panicOn == "filter" {
		panic("filter boom")
	}
	return !r.skip
}

func (r *recorder) IsAvailable(context.Context, model.Model, *snapshot.Snapshot) (bool, error) {
	if r.panicOn == "available" {
		panic("available boom")
	}
	return !r.unavailable, r.availErr
}

func (r *recorder) GetEventOutput(m model.Model, _ *snapshot.Snapshot) *content.Map {
	return content.Of("key", m.Key())
}

func (r *recorder) Publish(_ context.Context, c *content.Map, snap *snapshot.Snapshot) error {
	if r.panicOn == "publish" {
		panic("publish boom")
	}
	if r.order != nil {
		*r.order = append(*r.order, r.name)
	}
	r.published = append(r.published, c)
	r.snaps = append(r.snaps, snap)
	return r.publishErr
}

type catalogs map[string]*catalog.Catalog

func (c catalogs) Catalog(id string) (*catalog.Catalog, bool) {
	cat, ok := c[id]
	return cat, ok
}

type fixture struct {
	inj      *injector.Injector
	reg      *registry.Registry
	cat      *catalog.Catalog
	pipeline *Pipeline
	logs     *bytes.Buffer
}

func newFixture(t *testing.T, policy Policy, plugins ...plugin.Plugin) *fixture {
	t.Helper()
	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	inj := injector.New("P", "1.0",
		injector.WithLogger(logger),
		injector.WithSessionIDProvider(injector.StaticSessionID("session-1")),
		injector.WithEventType("strict", func(key string, e model.Entry, cid string, _ model.Identity) model.Model {
			return model.NewBase(key, e, cid, model.RequireStrings(e, "name")...)
		}),
	)
	cat := catalog.New("P:1.0", catalog.Options{Items: []model.Declaration{
		{Key: "1", Entry: model.Entry{EventType: model.BaseEventType, Description: "d"}},
		{Key: "2", Entry: model.Entry{EventType: model.BaseEventType, ID: "x"}},
		{Key: "broken", Entry: model.Entry{EventType: "strict"}},
	}}, inj)
	reg := registry.New(logger)
	for _, p := range plugins {
		reg.AddPlugin(p)
	}
	p := New(Config{Identity: inj, Registry: reg, Catalogs: catalogs{cat.ID(): cat}, Policy: policy})
	return &fixture{inj: inj, reg: reg, cat: cat, pipeline: p, logs: logs}
}

func pluginOf(name string, pubs ...plugin.Publisher) *plugin.Base {
	return &plugin.Base{PluginName: name, PluginPublishers: pubs}
}

func TestPublishOneUnavailable(t *testing.T) {
	// --- Arrange ---
	up := &recorder{name: "up"}
	down := &recorder{name: "down", unavailable: true}
	f := newFixture(t, AnyDelivered, pluginOf("a", up), pluginOf("b", down))

	// --- Act ---
	ok, err := f.pipeline.Publish(context.Background(), "P:1.0", "1", nil)

	// --- Assert ---
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, up.published, 1)
	assert.Empty(t, down.published)
}

func TestPublishFilteredPublisherNotInvoked(t *testing.T) {
	skipper := &recorder{name: "skip", skip: true}
	f := newFixture(t, AnyDelivered, pluginOf("a", skipper))

	report, err := f.pipeline.PublishWithReport(context.Background(), "P:1.0", "1", nil)

	require.NoError(t, err)
	assert.Empty(t, skipper.published)
	assert.Equal(t, []PublisherOutcome{{Publisher: "skip", Outcome: Skipped}}, report.Outcomes)
	assert.False(t, report.Result(AnyDelivered))
}

func TestPublishUnknownTag(t *testing.T) {
	pub := &recorder{name: "pub"}
	f := newFixture(t, AnyDelivered, pluginOf("a", pub))

	_, err := f.pipeline.Publish(context.Background(), "P:1.0", "nope", nil)
	assert.ErrorIs(t, err, ErrUnknownTag)

	_, err = f.pipeline.Publish(context.Background(), "other", "1", nil)
	assert.ErrorIs(t, err, ErrUnknownTag)

	assert.Empty(t, pub.published)
}

func TestPublishInvalidTag(t *testing.T) {
	pub := &recorder{name: "pub"}
	f := newFixture(t, Attempted, pluginOf("a", pub))

	ok, err := f.pipeline.Publish(context.Background(), "P:1.0", "broken", nil)

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, pub.published)
	assert.Contains(t, f.logs.String(), "Tag is invalid")
}

func TestPublishIsolatesFailures(t *testing.T) {
	// --- Arrange ---
	boom := errors.New("boom")
	failing := &recorder{name: "failing", publishErr: boom}
	panicking := &recorder{name: "panicking", panicOn: "publish"}
	panicFilter := &recorder{name: "panic-filter", panicOn: "filter"}
	panicAvail := &recorder{name: "panic-avail", panicOn: "available"}
	erroring := &recorder{name: "erroring", availErr: boom}
	good := &recorder{name: "good"}
	f := newFixture(t, AnyDelivered,
		pluginOf("a", failing, panicking, panicFilter, panicAvail, erroring),
		pluginOf("b", good),
	)

	// --- Act ---
	report, err := f.pipeline.PublishWithReport(context.Background(), "P:1.0", "1", nil)

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 6)
	got := map[string]Outcome{}
	for _, o := range report.Outcomes {
		got[o.Publisher] = o.Outcome
	}
	assert.Equal(t, map[string]Outcome{
		"failing":      Failed,
		"panicking":    Failed,
		"panic-filter": Failed,
		"panic-avail":  Unavailable,
		"erroring":     Unavailable,
		"good":         Delivered,
	}, got)
	assert.ErrorIs(t, report.Outcomes[0].Err, boom)
	assert.Len(t, good.published, 1)
	assert.True(t, report.Result(AnyDelivered))
	assert.False(t, report.Result(AllDelivered))
	assert.True(t, report.Result(Attempted))
	assert.Contains(t, f.logs.String(), "publisher=failing")
}

func TestPolicies(t *testing.T) {
	tests := []struct {
		name   string
		pubs   []plugin.Publisher
		policy Policy
		want   bool
	}{
		{name: "any with no publishers", policy: AnyDelivered, want: false},
		{name: "attempted with no publishers", policy: Attempted, want: true},
		{name: "all with no publishers", policy: AllDelivered, want: false},
		{name: "all delivered", pubs: []plugin.Publisher{&recorder{name: "a"}, &recorder{name: "b"}}, policy: AllDelivered, want: true},
		{name: "all ignores unavailable", pubs: []plugin.Publisher{&recorder{name: "a"}, &recorder{name: "b", unavailable: true}}, policy: AllDelivered, want: true},
		{name: "all with a failure", pubs: []plugin.Publisher{&recorder{name: "a"}, &recorder{name: "b", publishErr: errors.New("x")}}, policy: AllDelivered, want: false},
		{name: "any with a failure", pubs: []plugin.Publisher{&recorder{name: "a"}, &recorder{name: "b", publishErr: errors.New("x")}}, policy: AnyDelivered, want: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, tc.policy, pluginOf("p", tc.pubs...))

			ok, err := f.pipeline.Publish(context.Background(), "P:1.0", "1", nil)

			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
		})
	}
}

func TestParsePolicy(t *testing.T) {
	for _, p := range []Policy{AnyDelivered, AllDelivered, Attempted} {
		got, err := ParsePolicy(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := ParsePolicy("sometimes")
	assert.Error(t, err)
}

func TestDispatchOrder(t *testing.T) {
	var order []string
	low := &recorder{name: "low", order: &order}
	first := &recorder{name: "first", order: &order}
	high := &recorder{name: "high", priority: 10, order: &order}
	second := &recorder{name: "second", order: &order}
	f := newFixture(t, AnyDelivered, pluginOf("a", low, first), pluginOf("b", high, second))

	_, err := f.pipeline.Publish(context.Background(), "P:1.0", "1", nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"high", "low", "first", "second"}, order)
}

func TestCancelledContextFailsRemaining(t *testing.T) {
	pub := &recorder{name: "pub"}
	f := newFixture(t, AnyDelivered, pluginOf("a", pub))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := f.pipeline.PublishWithReport(ctx, "P:1.0", "1", nil)

	require.NoError(t, err)
	assert.Equal(t, Failed, report.Outcomes[0].Outcome)
	assert.ErrorIs(t, report.Outcomes[0].Err, context.Canceled)
	assert.Empty(t, pub.published)
}

func TestHooksApplyPerPublisher(t *testing.T) {
	pub := &recorder{name: "pub"}
	f := newFixture(t, AnyDelivered, pluginOf("a", pub))
	f.reg.RegisterOnBeforePublish(func(c *content.Map, m model.Model, snap *snapshot.Snapshot) (*content.Map, error) {
		return content.Of("session", snap.StratumSessionID), nil
	})

	_, err := f.pipeline.Publish(context.Background(), "P:1.0", "1", nil)

	require.NoError(t, err)
	require.Len(t, pub.published, 1)
	assert.True(t, content.Of("key", "1", "session", "session-1").Equal(pub.published[0]))
}

func TestSnapshotShape(t *testing.T) {
	// --- Arrange ---
	pub := &recorder{name: "pub"}
	ctxPlugin := &plugin.Base{
		PluginName:       "ctx",
		PluginPublishers: []plugin.Publisher{pub},
		PluginContext:    map[string]any{"shared": "first", "a": 1},
		PluginOptions:    map[string]any{"opt": true},
	}
	bare := &recorder{name: "bare"}
	later := &plugin.Base{PluginName: "later", PluginContext: map[string]any{"shared": "second"}}
	f := newFixture(t, AnyDelivered, ctxPlugin, pluginOf("bare-plugin", bare), later)
	f.pipeline.cfg.AbTestSchemas = func() []snapshot.AbTestSchema {
		return []snapshot.AbTestSchema{{Name: "svc", VariationIDs: []string{"v1"}}}
	}
	opts := &snapshot.EventOptions{
		PluginData:    map[string]map[string]any{"ctx": {"extra": "yes"}},
		AbTestSchemas: []snapshot.AbTestSchema{{Name: "evt", VariationIDs: []string{"v2"}}},
	}

	// --- Act ---
	_, err := f.pipeline.Publish(context.Background(), "P:1.0", "2", opts)

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, pub.snaps, 1)
	snap := pub.snaps[0]
	assert.Equal(t, snapshot.Event{EventType: "base", ID: "x"}, snap.Event)
	assert.Equal(t, map[string]any{}, snap.Data)
	want := map[string]snapshot.PluginData{
		"pub":  {Context: map[string]any{"shared": "first", "a": 1, "extra": "yes"}, Options: map[string]any{"opt": true}},
		"bare": {Context: map[string]any{}, Options: map[string]any{}},
	}
	if diff := cmp.Diff(want, snap.Plugins); diff != "" {
		t.Errorf("plugins mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, map[string]map[string]any{
		"ctx":   {"shared": "first", "a": 1},
		"later": {"shared": "second"},
	}, snap.GlobalContext)
	assert.Equal(t, []string{"ctx", "later"}, snap.GlobalContextOrder)
	// Colliding keys across extensions resolve to the last registered one.
	assert.Equal(t, "second", snap.FlattenGlobalContext()["shared"])
	assert.Equal(t, []string{"svc", "evt"}, []string{snap.AbTestSchemas[0].Name, snap.AbTestSchemas[1].Name})
	assert.Equal(t, "session-1", snap.StratumSessionID)
	assert.Equal(t, "P:1.0", snap.Catalog.ID)
	require.NotNil(t, snap.EventOptions)
}

func TestPublishersGetIndependentSnapshots(t *testing.T) {
	mutator := &recorder{name: "mutator", priority: 1}
	observer := &recorder{name: "observer"}
	f := newFixture(t, AnyDelivered, &plugin.Base{
		PluginName:       "p",
		PluginPublishers: []plugin.Publisher{mutator, observer},
		PluginContext:    map[string]any{"k": "v"},
	})
	f.pipeline.AddSnapshotListener(func(s *snapshot.Snapshot) { s.GlobalContext["p"]["k"] = "listener" })

	_, err := f.pipeline.Publish(context.Background(), "P:1.0", "1", nil)
	require.NoError(t, err)
	mutator.snaps[0].GlobalContext["p"]["k"] = "mutated"

	assert.Equal(t, "v", observer.snaps[0].GlobalContext["p"]["k"])
}

func TestSnapshotJSONKeys(t *testing.T) {
	f := newFixture(t, AnyDelivered)
	cat, _ := catalogs{f.cat.ID(): f.cat}.Catalog("P:1.0")
	m, _ := cat.Model("1")

	b, err := json.Marshal(f.pipeline.BuildSnapshot(cat, m, nil))
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))

	keys := make([]string, 0, len(got))
	for k := range got {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{
		"event", "data", "plugins", "globalContext", "catalog", "stratumSessionId",
		"productName", "productVersion", "stratumVersion", "abTestSchemas",
	}, keys)
}
