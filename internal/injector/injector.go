package injector

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/capitalone/Stratum-Observability/internal/model"
)

// Option configures an Injector.
type Option func(*Injector)

// WithLogger sets the debug sink used by catalogs and the publish pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Injector) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithSessionIDProvider replaces the default UUID session provider.
func WithSessionIDProvider(p SessionIDProvider) Option {
	return func(i *Injector) {
		if p != nil {
			i.session = p
		}
	}
}

// WithEventType registers an additional model constructor at creation time.
func WithEventType(eventType string, ctor model.Constructor) Option {
	return func(i *Injector) {
		i.eventTypes[eventType] = ctor
	}
}

// DuplicateTagID records a tag id that was registered more than once.
type DuplicateTagID struct {
	TagID string
	// FirstCatalogID is the catalog that registered the id first.
	FirstCatalogID string
	// CatalogID is the catalog that attempted the duplicate registration.
	CatalogID string
}

// Injector is the identity provider of one service. It is safe for
// concurrent use.
type Injector struct {
	productName    string
	productVersion string
	logger         *slog.Logger
	session        SessionIDProvider

	mu         sync.RWMutex
	eventTypes map[string]model.Constructor
	tagIDs     map[string]string
	duplicates []DuplicateTagID
}

var _ model.Identity = (*Injector)(nil)

// New creates an Injector for the given product. The base event type is
// always registered.
func New(productName, productVersion string, opts ...Option) *Injector {
	i := &Injector{
		productName:    productName,
		productVersion: productVersion,
		logger:         slog.Default(),
		session:        NewUUIDSession(),
		eventTypes: map[string]model.Constructor{
			model.BaseEventType: model.NewBaseModel,
		},
		tagIDs: make(map[string]string),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Injector) ProductName() string    { return i.productName }
func (i *Injector) ProductVersion() string { return i.productVersion }
func (i *Injector) Logger() *slog.Logger   { return i.logger }

// SessionID returns the current session identifier.
func (i *Injector) SessionID() string { return i.session.SessionID() }

// RegisterEventType adds or replaces the constructor for eventType.
// Replacing an existing constructor is logged, since two plugins claiming the
// same event type is usually a configuration mistake.
func (i *Injector) RegisterEventType(eventType string, ctor model.Constructor) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, exists := i.eventTypes[eventType]; exists {
		i.logger.Warn("Replacing registered event type.", "eventType", eventType)
	} else {
		i.logger.Debug("Registering event type.", "eventType", eventType)
	}
	i.eventTypes[eventType] = ctor
}

// Constructor returns the model constructor registered for eventType.
func (i *Injector) Constructor(eventType string) (model.Constructor, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	ctor, ok := i.eventTypes[eventType]
	return ctor, ok
}

// EventTypes returns the registered event types, sorted.
func (i *Injector) EventTypes() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := make([]string, 0, len(i.eventTypes))
	for t := range i.eventTypes {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// RegisterTagID records tagID for catalogID. It returns false when the id was
// already registered; the duplicate is tracked and logged but never rejected.
func (i *Injector) RegisterTagID(catalogID, tagID string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if first, exists := i.tagIDs[tagID]; exists {
		i.duplicates = append(i.duplicates, DuplicateTagID{TagID: tagID, FirstCatalogID: first, CatalogID: catalogID})
		i.logger.Debug("Duplicate tag id registered.", "tagId", tagID, "catalog", catalogID, "firstCatalog", first)
		return false
	}
	i.tagIDs[tagID] = catalogID
	return true
}

// HasTagID reports whether tagID has been registered.
func (i *Injector) HasTagID(tagID string) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	_, ok := i.tagIDs[tagID]
	return ok
}

// DuplicateTagIDs returns the duplicate registrations seen so far.
func (i *Injector) DuplicateTagIDs() []DuplicateTagID {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return append([]DuplicateTagID(nil), i.duplicates...)
}
