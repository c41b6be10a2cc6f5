package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
)

// Backend wraps a SQLite database handle and owns schema migration.
type Backend struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenBackend opens (creating if needed) a SQLite database at the given
// path. An empty path opens an in-memory database, used by tests.
func OpenBackend(path string) (*Backend, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Single connection: avoids SQLite writer lock contention and keeps an
	// in-memory database from being dropped between pooled connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// WAL must be set via PRAGMA for modernc.org/sqlite; DSN params are ignored.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	b := &Backend{
		db:     db,
		logger: slog.Default().With("component", "sqlite"),
	}

	if err := b.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return b, nil
}

func (b *Backend) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS documents (
		id         TEXT PRIMARY KEY,
		owner_id   TEXT NOT NULL,
		filename   TEXT NOT NULL DEFAULT '',
		status     TEXT NOT NULL DEFAULT 'uploaded',
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_documents_owner ON documents(owner_id);

	CREATE TABLE IF NOT EXISTS clauses (
		id            TEXT PRIMARY KEY,
		document_id   TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		clause_number TEXT NOT NULL DEFAULT '',
		title         TEXT NOT NULL DEFAULT '',
		body          TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_clauses_document ON clauses(document_id);

	CREATE TABLE IF NOT EXISTS clause_analyses (
		id         TEXT PRIMARY KEY,
		clause_id  TEXT NOT NULL UNIQUE REFERENCES clauses(id) ON DELETE CASCADE,
		risk_level TEXT NOT NULL DEFAULT '',
		summary    TEXT NOT NULL DEFAULT '',
		suggestion TEXT NOT NULL DEFAULT '',
		tags       TEXT NOT NULL DEFAULT '[]'
	);

	-- No foreign key on clause_id: embedding rows outlive nothing, but their
	-- deletion is an explicit lifecycle step, never a cascade.
	CREATE TABLE IF NOT EXISTS clause_embeddings (
		id              TEXT PRIMARY KEY,
		clause_id       TEXT NOT NULL UNIQUE,
		owner_id        TEXT NOT NULL,
		document_id     TEXT NOT NULL,
		embedding_model TEXT NOT NULL DEFAULT '',
		embedding_json  TEXT NOT NULL,
		content         TEXT NOT NULL DEFAULT '',
		created_at      TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_embeddings_owner ON clause_embeddings(owner_id);
	CREATE INDEX IF NOT EXISTS idx_embeddings_document ON clause_embeddings(document_id);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`

	_, err := b.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (b *Backend) Close() error {
	return b.db.Close()
}
