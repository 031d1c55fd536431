// Package model defines the validated, typed projection of one catalog entry.
//
// # Core Concepts
//
//   - Entry: the user-declared record, an event type plus optional
//     description, id and type-specific fields.
//
//   - Declaration: an Entry paired with the key it was declared under. A
//     catalog is declared as an ordered list of declarations so that
//     declaration order, and duplicate keys, survive any input format.
//
//   - Model: the result of running an Entry through the constructor registered
//     for its event type. Every model carries its validity, its ordered
//     validation errors, a displayable name, its tag id and a Data projection
//     used as Snapshot.data.
//
// The set of event types is open: constructors are registered by string tag
// in the identity provider, and plugins may add their own. Base is the
// degenerate variant and is always valid; other variants embed *Base and
// compute their validation errors before building it, so a model never
// changes after construction.
package model
