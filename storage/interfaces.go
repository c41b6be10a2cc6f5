package storage

import (
	"context"

	"github.com/poiesic/readgye/core"
)

// RowQuery scopes a joined clause/analysis/document fetch. OwnerID is
// mandatory; DocumentID and ClauseIDs narrow the result when set. Rows come
// back ordered by document creation time descending when Limit is positive.
type RowQuery struct {
	OwnerID    string
	DocumentID string
	ClauseIDs  []string
	Limit      int
}

// ContractRepository provides operations over documents, clauses, analyses
// and their persisted embeddings. Implementations must be thread-safe.
type ContractRepository interface {
	// AddDocument stores a new document. CreatedAt is set if zero.
	AddDocument(ctx context.Context, doc *core.Document) error

	// SetDocumentStatus updates a document's status.
	// Returns ErrNotFound if the document doesn't exist.
	SetDocumentStatus(ctx context.Context, documentID, status string) error

	// DeleteDocument removes a document and its clauses and analyses.
	// Embedding rows are NOT removed here; deletion of embeddings is an
	// explicit separate step (see DeleteDocumentEmbeddings).
	DeleteDocument(ctx context.Context, documentID string) error

	// AddClause stores a new clause.
	AddClause(ctx context.Context, clause *core.Clause) error

	// AddAnalysis stores the analysis for a clause. A clause has at most one
	// analysis; re-adding replaces it.
	AddAnalysis(ctx context.Context, analysis *core.ClauseAnalysis) error

	// AnalyzedRows returns clause/analysis/document rows for the query
	// scope. Only clauses with an analysis in "done" documents are
	// returned; the analysis presence is enforced by the join itself.
	AnalyzedRows(ctx context.Context, q RowQuery) ([]core.AnalyzedRow, error)

	// UpsertEmbedding stores or replaces the embedding row for a clause.
	// ClauseEmbedding rows are unique per clause; re-embedding overwrites
	// in place.
	UpsertEmbedding(ctx context.Context, emb *core.ClauseEmbedding) error

	// RecentEmbeddings returns up to limit embedding rows scoped to the
	// owner (and document, if given), most recently created first.
	RecentEmbeddings(ctx context.Context, ownerID, documentID string, limit int) ([]core.ClauseEmbedding, error)

	// ClausesMissingEmbedding returns analyzed rows in "done" documents
	// that have no embedding row yet, scoped to owner (and document).
	ClausesMissingEmbedding(ctx context.Context, ownerID, documentID string) ([]core.AnalyzedRow, error)

	// DeleteDocumentEmbeddings removes all embedding rows for a document
	// and reports how many were deleted.
	DeleteDocumentEmbeddings(ctx context.Context, documentID string) (int, error)

	// Close closes the storage backend and releases resources.
	Close() error
}
