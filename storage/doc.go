// Package storage defines the persistence contract for contract documents,
// clauses, analyses and their embeddings.
//
// The relational store is the one tier of the retrieval protocol that is
// assumed always available: its failures propagate to callers instead of
// degrading. Repositories are scoped by owner on every read — candidate ids
// coming from the vector index are never trusted for authorization.
//
// The storage/sqlite sub-package provides the production implementation on
// modernc.org/sqlite (pure Go, no CGO).
package storage
