package model

import (
	"fmt"
	"log/slog"

	"github.com/capitalone/Stratum-Observability/internal/snapshot"
)

// BaseEventType is the event type of the degenerate Base variant.
const BaseEventType = "base"

// Identity is the part of the identity provider models may consult while
// they are being constructed.
type Identity interface {
	ProductName() string
	ProductVersion() string
	Logger() *slog.Logger
}

// Constructor builds the model for one declared entry.
type Constructor func(key string, entry Entry, catalogID string, id Identity) Model

// Model is the validated projection of one catalog entry. Implementations
// are immutable once returned by their Constructor.
type Model interface {
	Key() string
	// ID is the declared id, or the key when none was declared.
	ID() string
	EventType() string
	Description() string
	Entry() Entry
	// TagID is "<catalogID>:<key>" and unique within a catalog.
	TagID() string
	CatalogID() string
	IsValid() bool
	ValidationErrors() []string
	DisplayableName() string
	// Data is the projection used as Snapshot.data.
	Data(opts *snapshot.EventOptions) map[string]any
}

// Base implements Model with no validation beyond what the caller supplies.
// Other variants embed it.
type Base struct {
	key       string
	catalogID string
	entry     Entry
	errs      []string
}

var _ Model = (*Base)(nil)

// NewBase builds a Base model. errs are the validation errors computed by
// the embedding variant; a nil or empty errs makes the model valid.
func NewBase(key string, entry Entry, catalogID string, errs ...string) *Base {
	b := &Base{key: key, catalogID: catalogID, entry: entry}
	if len(errs) > 0 {
		b.errs = append([]string(nil), errs...)
	}
	return b
}

// NewBaseModel is the Constructor registered for BaseEventType.
func NewBaseModel(key string, entry Entry, catalogID string, _ Identity) Model {
	return NewBase(key, entry, catalogID)
}

func (b *Base) Key() string         { return b.key }
func (b *Base) EventType() string   { return b.entry.EventType }
func (b *Base) Description() string { return b.entry.Description }
func (b *Base) Entry() Entry        { return b.entry }
func (b *Base) CatalogID() string   { return b.catalogID }
func (b *Base) TagID() string       { return b.catalogID + ":" + b.key }
func (b *Base) IsValid() bool       { return len(b.errs) == 0 }

func (b *Base) ID() string {
	if b.entry.ID != "" {
		return b.entry.ID
	}
	return b.key
}

// ValidationErrors returns a copy of the validation errors.
func (b *Base) ValidationErrors() []string {
	return append([]string{}, b.errs...)
}

// DisplayableName names the entry in error reports.
func (b *Base) DisplayableName() string {
	if b.entry.Description != "" {
		return fmt.Sprintf("%s (Tag Key: %q)", b.entry.Description, b.key)
	}
	return fmt.Sprintf("Tag Key: %q", b.key)
}

// Data returns an empty projection; base events carry no data of their own.
func (b *Base) Data(*snapshot.EventOptions) map[string]any {
	return map[string]any{}
}
