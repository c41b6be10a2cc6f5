package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/readgye/core"
	"github.com/poiesic/readgye/storage"
)

// ContractRepository implements storage.ContractRepository on SQLite.
type ContractRepository struct {
	backend *Backend
}

var _ storage.ContractRepository = (*ContractRepository)(nil)

// NewContractRepository creates a repository over an open backend.
func NewContractRepository(backend *Backend) *ContractRepository {
	return &ContractRepository{backend: backend}
}

// AddDocument stores a new document.
func (r *ContractRepository) AddDocument(ctx context.Context, doc *core.Document) error {
	if err := core.ValidateDocument(doc); err != nil {
		return err
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	_, err := r.backend.db.ExecContext(ctx,
		`INSERT INTO documents (id, owner_id, filename, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		doc.ID, doc.OwnerID, doc.Filename, doc.Status, doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// SetDocumentStatus updates a document's status.
func (r *ContractRepository) SetDocumentStatus(ctx context.Context, documentID, status string) error {
	if err := core.ValidateDocumentStatus(status); err != nil {
		return err
	}

	res, err := r.backend.db.ExecContext(ctx,
		`UPDATE documents SET status = ? WHERE id = ?`, status, documentID)
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("document %s: %w", documentID, storage.ErrNotFound)
	}
	return nil
}

// DeleteDocument removes a document; clauses and analyses go with it via
// cascade. Embedding rows stay until DeleteDocumentEmbeddings runs.
func (r *ContractRepository) DeleteDocument(ctx context.Context, documentID string) error {
	res, err := r.backend.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, documentID)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("document %s: %w", documentID, storage.ErrNotFound)
	}
	return nil
}

// AddClause stores a new clause.
func (r *ContractRepository) AddClause(ctx context.Context, clause *core.Clause) error {
	if err := core.ValidateClause(clause); err != nil {
		return err
	}
	if clause.ID == "" {
		clause.ID = uuid.NewString()
	}

	_, err := r.backend.db.ExecContext(ctx,
		`INSERT INTO clauses (id, document_id, clause_number, title, body) VALUES (?, ?, ?, ?, ?)`,
		clause.ID, clause.DocumentID, clause.ClauseNumber, clause.Title, clause.Body)
	if err != nil {
		return fmt.Errorf("insert clause: %w", err)
	}
	return nil
}

// AddAnalysis stores the analysis for a clause, replacing any previous one.
func (r *ContractRepository) AddAnalysis(ctx context.Context, analysis *core.ClauseAnalysis) error {
	if err := core.ValidateAnalysis(analysis); err != nil {
		return err
	}
	if analysis.ID == "" {
		analysis.ID = uuid.NewString()
	}

	tags, err := json.Marshal(analysis.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	_, err = r.backend.db.ExecContext(ctx,
		`INSERT INTO clause_analyses (id, clause_id, risk_level, summary, suggestion, tags)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(clause_id) DO UPDATE SET
		   risk_level = excluded.risk_level,
		   summary    = excluded.summary,
		   suggestion = excluded.suggestion,
		   tags       = excluded.tags`,
		analysis.ID, analysis.ClauseID, string(analysis.RiskLevel), analysis.Summary, analysis.Suggestion, string(tags))
	if err != nil {
		return fmt.Errorf("upsert analysis: %w", err)
	}
	return nil
}

const analyzedRowColumns = `
	c.id, c.document_id, c.clause_number, c.title, c.body,
	a.id, a.clause_id, a.risk_level, a.summary, a.suggestion, a.tags,
	d.id, d.owner_id, d.filename, d.status, d.created_at`

// AnalyzedRows returns joined rows for the query scope. The inner joins
// guarantee an analysis is always present; only "done" documents qualify.
func (r *ContractRepository) AnalyzedRows(ctx context.Context, q storage.RowQuery) ([]core.AnalyzedRow, error) {
	if q.OwnerID == "" {
		return nil, storage.ErrEmptyOwnerID
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + analyzedRowColumns + `
		FROM clauses c
		JOIN clause_analyses a ON a.clause_id = c.id
		JOIN documents d ON d.id = c.document_id
		WHERE d.owner_id = ? AND d.status = ?`)
	args := []any{q.OwnerID, core.DocumentStatusDone}

	if q.DocumentID != "" {
		sb.WriteString(` AND d.id = ?`)
		args = append(args, q.DocumentID)
	}
	if len(q.ClauseIDs) > 0 {
		sb.WriteString(` AND c.id IN (` + placeholders(len(q.ClauseIDs)) + `)`)
		for _, id := range q.ClauseIDs {
			args = append(args, id)
		}
	}
	if q.Limit > 0 {
		sb.WriteString(` ORDER BY d.created_at DESC LIMIT ?`)
		args = append(args, q.Limit)
	}

	rows, err := r.backend.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query analyzed rows: %w", err)
	}
	defer rows.Close()

	return scanAnalyzedRows(rows)
}

// UpsertEmbedding stores or replaces the embedding row for a clause.
func (r *ContractRepository) UpsertEmbedding(ctx context.Context, emb *core.ClauseEmbedding) error {
	if emb.ClauseID == "" {
		return core.ErrEmptyClauseID
	}
	if emb.OwnerID == "" {
		return storage.ErrEmptyOwnerID
	}
	if emb.EmbeddingJSON == "" {
		return storage.ErrEmptyVector
	}
	if emb.ID == "" {
		emb.ID = uuid.NewString()
	}
	if emb.CreatedAt.IsZero() {
		emb.CreatedAt = time.Now().UTC()
	}

	_, err := r.backend.db.ExecContext(ctx,
		`INSERT INTO clause_embeddings
		   (id, clause_id, owner_id, document_id, embedding_model, embedding_json, content, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(clause_id) DO UPDATE SET
		   owner_id        = excluded.owner_id,
		   document_id     = excluded.document_id,
		   embedding_model = excluded.embedding_model,
		   embedding_json  = excluded.embedding_json,
		   content         = excluded.content`,
		emb.ID, emb.ClauseID, emb.OwnerID, emb.DocumentID, emb.EmbeddingModel, emb.EmbeddingJSON, emb.Content, emb.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert embedding: %w", err)
	}
	return nil
}

// RecentEmbeddings returns the most recently created embedding rows for an
// owner, optionally narrowed to one document.
func (r *ContractRepository) RecentEmbeddings(ctx context.Context, ownerID, documentID string, limit int) ([]core.ClauseEmbedding, error) {
	if ownerID == "" {
		return nil, storage.ErrEmptyOwnerID
	}
	if limit < 1 {
		limit = 1
	}

	query := `SELECT id, clause_id, owner_id, document_id, embedding_model, embedding_json, content, created_at
		FROM clause_embeddings WHERE owner_id = ?`
	args := []any{ownerID}
	if documentID != "" {
		query += ` AND document_id = ?`
		args = append(args, documentID)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.backend.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query embeddings: %w", err)
	}
	defer rows.Close()

	var result []core.ClauseEmbedding
	for rows.Next() {
		var emb core.ClauseEmbedding
		if err := rows.Scan(&emb.ID, &emb.ClauseID, &emb.OwnerID, &emb.DocumentID,
			&emb.EmbeddingModel, &emb.EmbeddingJSON, &emb.Content, &emb.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan embedding: %w", err)
		}
		result = append(result, emb)
	}
	return result, rows.Err()
}

// ClausesMissingEmbedding returns analyzed rows lacking an embedding row.
func (r *ContractRepository) ClausesMissingEmbedding(ctx context.Context, ownerID, documentID string) ([]core.AnalyzedRow, error) {
	if ownerID == "" {
		return nil, storage.ErrEmptyOwnerID
	}

	query := `SELECT ` + analyzedRowColumns + `
		FROM clauses c
		JOIN clause_analyses a ON a.clause_id = c.id
		JOIN documents d ON d.id = c.document_id
		LEFT JOIN clause_embeddings e ON e.clause_id = c.id
		WHERE d.owner_id = ? AND d.status = ? AND e.id IS NULL`
	args := []any{ownerID, core.DocumentStatusDone}
	if documentID != "" {
		query += ` AND d.id = ?`
		args = append(args, documentID)
	}

	rows, err := r.backend.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query clauses missing embedding: %w", err)
	}
	defer rows.Close()

	return scanAnalyzedRows(rows)
}

// DeleteDocumentEmbeddings removes all embedding rows for a document.
func (r *ContractRepository) DeleteDocumentEmbeddings(ctx context.Context, documentID string) (int, error) {
	res, err := r.backend.db.ExecContext(ctx,
		`DELETE FROM clause_embeddings WHERE document_id = ?`, documentID)
	if err != nil {
		return 0, fmt.Errorf("delete document embeddings: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// Close closes the backing database.
func (r *ContractRepository) Close() error {
	return r.backend.Close()
}

func scanAnalyzedRows(rows *sql.Rows) ([]core.AnalyzedRow, error) {
	var result []core.AnalyzedRow
	for rows.Next() {
		var row core.AnalyzedRow
		var riskLevel, tags string
		err := rows.Scan(
			&row.Clause.ID, &row.Clause.DocumentID, &row.Clause.ClauseNumber, &row.Clause.Title, &row.Clause.Body,
			&row.Analysis.ID, &row.Analysis.ClauseID, &riskLevel, &row.Analysis.Summary, &row.Analysis.Suggestion, &tags,
			&row.Document.ID, &row.Document.OwnerID, &row.Document.Filename, &row.Document.Status, &row.Document.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan analyzed row: %w", err)
		}
		row.Analysis.RiskLevel = core.RiskLevel(riskLevel)
		if err := json.Unmarshal([]byte(tags), &row.Analysis.Tags); err != nil {
			// Tags are advisory; a corrupt tag list never blocks retrieval.
			row.Analysis.Tags = nil
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return result, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
