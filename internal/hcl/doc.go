// Package hcl provides the HCL implementation of config.Loader. It is
// responsible for file parsing, translating blocks into the config model,
// and converting cty values into the JSON-shaped Go values catalog entries
// and plugin attributes carry.
package hcl
