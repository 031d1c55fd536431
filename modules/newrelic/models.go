package newrelic

import (
	"github.com/capitalone/Stratum-Observability/internal/model"
	"github.com/capitalone/Stratum-Observability/internal/snapshot"
)

// Event types contributed by the plugin.
const (
	EventType            = "nrEvent"
	ErrorType            = "nrError"
	APIResponseEventType = "nrApiResponse"
)

// EventModel renders the type-specific fields of an entry as New Relic
// attributes. Data overlays EventOptions.Data on top of the declared fields.
type EventModel struct {
	*model.Base
}

func newModel(required ...string) model.Constructor {
	return func(key string, entry model.Entry, catalogID string, _ model.Identity) model.Model {
		return &EventModel{Base: model.NewBase(key, entry, catalogID, model.RequireStrings(entry, required...)...)}
	}
}

// EventTypes returns the constructors for nrEvent, nrError and
// nrApiResponse. nrEvent requires a name, nrError a message and
// nrApiResponse an endpoint and a method.
func EventTypes() map[string]model.Constructor {
	return map[string]model.Constructor{
		EventType:            newModel("name"),
		ErrorType:            newModel("message"),
		APIResponseEventType: newModel("endpoint", "method"),
	}
}

func (m *EventModel) Data(opts *snapshot.EventOptions) map[string]any {
	e := m.Entry()
	out := make(map[string]any, len(e.Fields))
	for k, v := range e.Fields {
		out[k] = v
	}
	if opts != nil {
		for k, v := range opts.Data {
			out[k] = v
		}
	}
	return out
}
