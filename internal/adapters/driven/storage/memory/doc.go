// Package memory provides in-memory implementations of driven ports.
// They back the --ephemeral flag and service tests. Nothing is persisted.
package memory
