// Package archive provides a publisher that stores every event as an object
// in an S3 compatible bucket.
//
// Objects are laid out as
//
//	<prefix>/<catalogId>/<eventId>/<sessionId>-<uuid>.<json|cbor>[.zst]
//
// and hold a Record: the publisher content after hooks and the full
// snapshot.
package archive

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/capitalone/Stratum-Observability/internal/codec"
	"github.com/capitalone/Stratum-Observability/internal/content"
	"github.com/capitalone/Stratum-Observability/internal/ctxlog"
	"github.com/capitalone/Stratum-Observability/internal/model"
	"github.com/capitalone/Stratum-Observability/internal/plugin"
	"github.com/capitalone/Stratum-Observability/internal/snapshot"
	"github.com/google/uuid"
)

// DefaultName is the publisher name used when Config.Name is empty.
const DefaultName = "archive"

// Config configures the archive destination.
type Config struct {
	Name     string
	Bucket   string
	Prefix   string
	Format   codec.Format
	Compress bool
}

// Record is the stored object body.
type Record struct {
	Content  map[string]any     `json:"content"`
	Snapshot *snapshot.Snapshot `json:"snapshot"`
}

// Publisher writes events to an ObjectStore.
type Publisher struct {
	cfg   Config
	store ObjectStore
	// newID names objects uniquely within a session directory.
	newID func() string
}

// NewPublisher returns a publisher storing into store.
func NewPublisher(cfg Config, store ObjectStore) *Publisher {
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	if cfg.Format == "" {
		cfg.Format = codec.JSON
	}
	return &Publisher{cfg: cfg, store: store, newID: uuid.NewString}
}

// New returns a plugin wrapping a single archive publisher.
func New(cfg Config, store ObjectStore) plugin.Plugin {
	p := NewPublisher(cfg, store)
	return &plugin.Base{
		PluginName:       p.cfg.Name,
		PluginPublishers: []plugin.Publisher{p},
		PluginOptions: map[string]any{
			"bucket":   p.cfg.Bucket,
			"format":   string(p.cfg.Format),
			"compress": p.cfg.Compress,
		},
	}
}

func (p *Publisher) Name() string { return p.cfg.Name }

func (p *Publisher) ShouldPublishEvent(model.Model) bool { return true }

// IsAvailable checks that the bucket exists.
func (p *Publisher) IsAvailable(ctx context.Context, _ model.Model, _ *snapshot.Snapshot) (bool, error) {
	ok, err := p.store.BucketExists(ctx, p.cfg.Bucket)
	if err != nil {
		return false, fmt.Errorf("check bucket %q: %w", p.cfg.Bucket, err)
	}
	return ok, nil
}

func (p *Publisher) GetEventOutput(m model.Model, snap *snapshot.Snapshot) *content.Map {
	return content.Of(
		"tagId", m.TagID(),
		"eventType", m.EventType(),
		"id", m.ID(),
		"description", m.Description(),
		"data", snap.Data,
	)
}

func (p *Publisher) Publish(ctx context.Context, c *content.Map, snap *snapshot.Snapshot) error {
	body, err := p.cfg.Format.Marshal(Record{Content: c.ToMap(), Snapshot: snap})
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	contentType := p.cfg.Format.ContentType()
	if p.cfg.Compress {
		body = compress(body)
		contentType = "application/zstd"
	}

	key := p.ObjectKey(snap)
	if err := p.store.PutObject(ctx, p.cfg.Bucket, key, body, contentType); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Archived event.", "bucket", p.cfg.Bucket, "object", key, "bytes", len(body))
	return nil
}

// ObjectKey returns a new object key for snap.
func (p *Publisher) ObjectKey(snap *snapshot.Snapshot) string {
	name := p.newID() + "." + p.cfg.Format.Extension()
	if snap.StratumSessionID != "" {
		name = snap.StratumSessionID + "-" + name
	}
	if p.cfg.Compress {
		name += ".zst"
	}
	return path.Join(strings.Trim(p.cfg.Prefix, "/"), segment(snap.Catalog.ID), segment(snap.Event.ID), name)
}

// segment keeps object key segments free of path separators.
func segment(s string) string {
	if s == "" {
		return "_"
	}
	return strings.ReplaceAll(s, "/", "_")
}
