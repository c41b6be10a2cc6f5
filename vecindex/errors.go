package vecindex

import "errors"

var (
	// ErrUnavailable is returned by write operations when the index could
	// not be constructed. Reads never return it; they degrade to empty.
	ErrUnavailable = errors.New("vector index unavailable")

	// ErrDimsMismatch is returned when an upserted vector's dimensionality
	// differs from the collection's recorded dimensionality.
	ErrDimsMismatch = errors.New("vector dimensionality mismatch")

	// ErrEmptyVector is returned when an upserted vector has no components.
	ErrEmptyVector = errors.New("empty vector")
)
