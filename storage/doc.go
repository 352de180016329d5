// Package storage defines the persistence interface for completed analysis
// runs, and the serialization used by its backends. The engine itself is a
// pure in-memory transformation; persistence exists so past runs can be
// listed and inspected from the CLI.
package storage
