// Package postgres provides a publisher that inserts every event into a
// Postgres table, with the content and snapshot stored as JSONB.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/capitalone/Stratum-Observability/internal/content"
	"github.com/capitalone/Stratum-Observability/internal/model"
	"github.com/capitalone/Stratum-Observability/internal/plugin"
	"github.com/capitalone/Stratum-Observability/internal/snapshot"
	"github.com/jackc/pgx/v5"
)

const (
	DefaultName  = "postgres"
	DefaultTable = "stratum_events"
)

// Config configures the Postgres destination.
type Config struct {
	Name  string
	Table string
}

// Publisher inserts one row per event.
type Publisher struct {
	name   string
	db     DB
	insert string
}

// NewPublisher returns a publisher writing through db.
func NewPublisher(cfg Config, db DB) *Publisher {
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	return &Publisher{
		name: cfg.Name,
		db:   db,
		insert: "INSERT INTO " + pgx.Identifier{cfg.Table}.Sanitize() +
			" (tag_id, catalog_id, event_type, event_id, session_id, product_name, product_version, content, snapshot)" +
			" VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9::jsonb)",
	}
}

// New returns a plugin wrapping a single publisher.
func New(cfg Config, db DB) plugin.Plugin {
	return &plugin.Base{PluginName: nameOr(cfg.Name), PluginPublishers: []plugin.Publisher{NewPublisher(cfg, db)}}
}

func nameOr(name string) string {
	if name == "" {
		return DefaultName
	}
	return name
}

func (p *Publisher) Name() string                        { return p.name }
func (p *Publisher) ShouldPublishEvent(model.Model) bool { return true }

// IsAvailable pings the database.
func (p *Publisher) IsAvailable(ctx context.Context, _ model.Model, _ *snapshot.Snapshot) (bool, error) {
	if err := p.db.Ping(ctx); err != nil {
		return false, fmt.Errorf("ping: %w", err)
	}
	return true, nil
}

func (p *Publisher) GetEventOutput(m model.Model, snap *snapshot.Snapshot) *content.Map {
	return content.Of(
		"tagId", m.TagID(),
		"description", m.Description(),
		"data", snap.Data,
	)
}

func (p *Publisher) Publish(ctx context.Context, c *content.Map, snap *snapshot.Snapshot) error {
	contentJSON, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode content: %w", err)
	}
	snapJSON, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	tagID, _ := c.String("tagId")
	if tagID == "" {
		tagID = snap.Catalog.ID + ":" + snap.Event.ID
	}

	ct, err := p.db.Exec(ctx, p.insert,
		tagID,
		snap.Catalog.ID,
		snap.Event.EventType,
		snap.Event.ID,
		snap.StratumSessionID,
		snap.ProductName,
		snap.ProductVersion,
		string(contentJSON),
		string(snapJSON),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	if ct.RowsAffected() != 1 {
		return fmt.Errorf("insert event: %d rows affected", ct.RowsAffected())
	}
	return nil
}
