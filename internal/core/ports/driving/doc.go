// Package driving provides interfaces for the use cases the pipeline
// exposes (primary/inbound ports). Hosting layers — the CLI here, an
// HTTP handler or queue consumer elsewhere — call these.
package driving
