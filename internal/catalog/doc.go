// Package catalog validates user-declared tag entries and keeps the result.
//
// A Catalog partitions its declarations into valid models and per-key error
// reports. Validation runs once per declaration, when it is added; a catalog
// that has seen a single failing entry stays invalid for its whole life.
//
// GenerateID derives the catalog id from declared metadata and the product
// identity. It is pure so the id can be minted before the Catalog exists.
package catalog
