package retrieval

import "errors"

var (
	// ErrRepositoryRequired is returned when a Retriever is constructed
	// without a contract repository.
	ErrRepositoryRequired = errors.New("contract repository is required")

	// ErrEmbedderRequired is returned when a Retriever is constructed
	// without an embedder.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrEmptyOwnerID is returned when a retrieval call has no owner scope.
	ErrEmptyOwnerID = errors.New("owner id cannot be empty")
)
