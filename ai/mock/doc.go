// Package mock provides test doubles for the ai package interfaces.
//
// The mock embedder produces deterministic vectors from a text hash so
// tests can run without any external embedding service. Behavior can be
// overridden per test via the exported function fields.
package mock
