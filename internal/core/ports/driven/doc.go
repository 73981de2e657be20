// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports). Services depend on these interfaces and
// receive concrete adapters through their constructors.
package driven
