package ingestion

import "errors"

var (
	// ErrRepositoryRequired is returned when a Pipeline is constructed
	// without a contract repository.
	ErrRepositoryRequired = errors.New("contract repository is required")

	// ErrEmbedderRequired is returned when a Pipeline is constructed
	// without an embedder.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrEmptyOwnerID is returned when a backfill has no owner scope.
	ErrEmptyOwnerID = errors.New("owner id cannot be empty")
)
