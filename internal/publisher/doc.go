// Package publisher contains decorators that bound the cost of a single
// destination: WithTimeout caps how long its blocking steps may take and
// WithRateLimit throttles how often it delivers.
//
// Guards wrap any plugin.Publisher and delegate Name, ShouldPublishEvent,
// GetEventOutput and Priority unchanged, so the snapshot shape and dispatch
// order are the same with or without them.
package publisher
