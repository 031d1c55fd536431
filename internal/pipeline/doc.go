// Package pipeline turns a publish request into per-destination deliveries.
//
// A publish call resolves a catalog entry to a valid model, assembles one
// Snapshot, and then walks every registered publisher in dispatch order
// (highest priority first, registration order within a priority). For each
// publisher the steps are strictly sequential:
//
//  1. ShouldPublishEvent: a pure filter; false skips the publisher.
//  2. IsAvailable: may block; false, an error, or a panic skips it.
//  3. GetEventOutput: projects the model into publisher content.
//  4. The registry hook chain transforms that content.
//  5. Publish delivers it.
//
// A failure at any step is logged, recorded in the PublishReport and
// isolated to that publisher. Each publisher is handed its own deep copy of
// the snapshot. The boolean result of Publish is derived from the report by
// the configured Policy.
package pipeline
