package vecindex

import "log/slog"

const (
	// DefaultCollection is the badger namespace used for clause points.
	DefaultCollection = "contract_clauses"

	defaultM        = 16
	defaultEfSearch = 64
)

// Config controls where the index lives and how the HNSW graph is tuned.
// A zero-value Config describes a disabled index: every search degrades to
// an empty result and callers fall through to linear scoring.
type Config struct {
	// Path is the directory holding the persisted point store. Ignored
	// when InMemory is set.
	Path string

	// InMemory keeps the point store in process memory. Used by tests.
	InMemory bool

	// Collection names the point namespace. Defaults to DefaultCollection.
	Collection string

	// M is the HNSW connectivity parameter. Defaults to 16.
	M int

	// EfSearch is the HNSW query-time search width. Defaults to 64.
	EfSearch int
}

// Enabled reports whether this configuration describes a usable index.
func (c Config) Enabled() bool {
	return c.InMemory || c.Path != ""
}

func (c Config) withDefaults() Config {
	if c.Collection == "" {
		c.Collection = DefaultCollection
	}
	if c.M == 0 {
		c.M = defaultM
	}
	if c.EfSearch == 0 {
		c.EfSearch = defaultEfSearch
	}
	return c
}

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the logger used for index lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Index) {
		ix.logger = logger
	}
}
