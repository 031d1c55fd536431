// Package app wires the process together: it loads the declared
// configuration, builds the plugins it names, registers the catalogs on a
// stratum.Service and publishes the requested tags. It is decoupled from any
// specific entrypoint like a CLI.
package app
