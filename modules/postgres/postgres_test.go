package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/capitalone/Stratum-Observability/internal/model"
	"github.com/capitalone/Stratum-Observability/internal/snapshot"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	sql  string
	args []any
}

type fakeDB struct {
	pingErr error
	execErr error
	tag     string
	calls   []call
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, call{sql: sql, args: args})
	if f.execErr != nil {
		return pgconn.CommandTag{}, f.execErr
	}
	tag := f.tag
	if tag == "" {
		tag = "INSERT 0 1"
	}
	return pgconn.NewCommandTag(tag), nil
}

func (f *fakeDB) Ping(context.Context) error { return f.pingErr }

func testSnapshot() *snapshot.Snapshot {
	return &snapshot.Snapshot{
		Event:            snapshot.Event{EventType: "base", ID: "1"},
		Data:             map[string]any{},
		Catalog:          snapshot.CatalogInfo{ID: "P:1.0"},
		StratumSessionID: "sess",
		ProductName:      "P",
		ProductVersion:   "1.0",
		AbTestSchemas:    []snapshot.AbTestSchema{},
	}
}

func TestPublishInsertsRow(t *testing.T) {
	// --- Arrange ---
	db := &fakeDB{}
	p := NewPublisher(Config{Table: "events"}, db)
	m := model.NewBase("1", model.Entry{EventType: "base", Description: "d"}, "P:1.0")
	snap := testSnapshot()

	// --- Act ---
	err := p.Publish(context.Background(), p.GetEventOutput(m, snap), snap)

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, db.calls, 1)
	c := db.calls[0]
	assert.True(t, strings.HasPrefix(c.sql, `INSERT INTO "events" (`), c.sql)
	assert.Contains(t, c.sql, "$8::jsonb, $9::jsonb")
	require.Len(t, c.args, 9)
	assert.Equal(t, []any{"P:1.0:1", "P:1.0", "base", "1", "sess", "P", "1.0"}, c.args[:7])
	assert.JSONEq(t, `{"tagId":"P:1.0:1","description":"d","data":{}}`, c.args[7].(string))

	var stored map[string]any
	require.NoError(t, json.Unmarshal([]byte(c.args[8].(string)), &stored))
	assert.Equal(t, "sess", stored["stratumSessionId"])
}

func TestPublishErrors(t *testing.T) {
	p := NewPublisher(Config{}, &fakeDB{execErr: errors.New("connection reset")})
	err := p.Publish(context.Background(), nil, testSnapshot())
	assert.ErrorContains(t, err, "insert event: connection reset")

	p = NewPublisher(Config{}, &fakeDB{tag: "INSERT 0 0"})
	err = p.Publish(context.Background(), nil, testSnapshot())
	assert.ErrorContains(t, err, "0 rows affected")
}

func TestIsAvailable(t *testing.T) {
	ok, err := NewPublisher(Config{}, &fakeDB{}).IsAvailable(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = NewPublisher(Config{}, &fakeDB{pingErr: errors.New("down")}).IsAvailable(context.Background(), nil, nil)
	assert.ErrorContains(t, err, "ping: down")
	assert.False(t, ok)
}

func TestEnsureSchema(t *testing.T) {
	db := &fakeDB{}

	require.NoError(t, EnsureSchema(context.Background(), db, DefaultTable))

	require.Len(t, db.calls, 1)
	assert.Contains(t, db.calls[0].sql, `CREATE TABLE IF NOT EXISTS "stratum_events"`)
}

func TestPluginName(t *testing.T) {
	pl := New(Config{}, &fakeDB{})
	assert.Equal(t, DefaultName, pl.Name())
	assert.Equal(t, DefaultName, pl.Publishers()[0].Name())
}
