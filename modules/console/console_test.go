package console

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/capitalone/Stratum-Observability/internal/content"
	"github.com/capitalone/Stratum-Observability/internal/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot() *snapshot.Snapshot {
	return &snapshot.Snapshot{
		Event:            snapshot.Event{EventType: "base", ID: "1"},
		Data:             map[string]any{},
		Plugins:          map[string]snapshot.PluginData{Name: {Context: map[string]any{}, Options: map[string]any{}}},
		GlobalContext:    map[string]map[string]any{},
		Catalog:          snapshot.CatalogInfo{ID: "test"},
		StratumSessionID: "test-session",
		ProductName:      "P",
		ProductVersion:   "1.0",
		StratumVersion:   "1.0.0",
		AbTestSchemas:    []snapshot.AbTestSchema{},
	}
}

func TestPublishWritesPrefixedSnapshot(t *testing.T) {
	// --- Arrange ---
	var buf bytes.Buffer
	p := NewPublisher(&buf)
	snap := testSnapshot()

	// --- Act ---
	c := p.GetEventOutput(nil, snap)
	err := p.Publish(context.Background(), c, snap)

	// --- Assert ---
	require.NoError(t, err)
	out := buf.String()
	require.True(t, strings.HasPrefix(out, Prefix+" {\n"), "got %q", out)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(out, Prefix+" ")), &decoded))
	assert.Equal(t, map[string]any{"eventType": "base", "id": "1"}, decoded["event"])
	assert.Equal(t, []any{}, decoded["abTestSchemas"])
}

func TestPublishWithoutMessage(t *testing.T) {
	var buf bytes.Buffer
	p := NewPublisher(&buf)

	require.NoError(t, p.Publish(context.Background(), content.Of("k", "v"), nil))

	assert.Equal(t, Prefix+" {\n  \"k\": \"v\"\n}\n", buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestPublishWriteError(t *testing.T) {
	p := NewPublisher(failingWriter{})

	err := p.Publish(context.Background(), content.Of(MessageKey, "m"), nil)

	assert.ErrorContains(t, err, "closed")
}

func TestIsAvailable(t *testing.T) {
	ok, err := NewPublisher(nil).IsAvailable(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = NewPublisher(&bytes.Buffer{}).IsAvailable(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.True(t, ok)
}
