// Package config defines the format-agnostic configuration model for the
// application, along with the Loader interface for reading it from files.
//
// The Model is the single source of truth for assembling a service: the
// product identity, the plugins to register in order, and the catalogs to
// declare. Concrete loaders for HCL, YAML and JSONC are provided in separate
// packages; Dispatch routes files to them by extension.
package config
