// Package content provides Map, the ordered string-keyed value a publisher
// produces for one event and hands through the before-publish hook chain.
//
// Merging is an explicit key-wise overwrite: keys from the right-hand side
// replace existing values in place (keeping their original position), new
// keys are appended in the order they appear, and absent keys pass through.
package content
