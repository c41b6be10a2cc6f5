package storage

import "errors"

var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrEmptyOwnerID indicates a query was attempted without an owner
	// scope. Owner scoping is mandatory, never optional.
	ErrEmptyOwnerID = errors.New("owner id is required")

	// ErrEmptyVector indicates an attempt to persist an embedding with no
	// vector data.
	ErrEmptyVector = errors.New("embedding vector is empty")
)
