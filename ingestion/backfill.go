package ingestion

import (
	"context"
	"log/slog"
)

// Backfill embeds every analyzed clause in the owner's "done" documents
// that has no embedding row yet, optionally narrowed to one document. It
// returns how many clauses were newly embedded. Per-clause failures are
// logged and skipped so one bad clause cannot stall the sweep.
func (p *Pipeline) Backfill(ctx context.Context, ownerID, documentID string) (int, error) {
	if ownerID == "" {
		return 0, ErrEmptyOwnerID
	}

	rows, err := p.repository.ClausesMissingEmbedding(ctx, ownerID, documentID)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, row := range rows {
		if err := p.EmbedRow(ctx, row); err != nil {
			p.logger.Warn("backfill skipping clause",
				slog.String("clause_id", row.Clause.ID),
				slog.String("error", err.Error()))
			continue
		}
		count++
	}

	p.logger.Info("backfill complete",
		slog.String("owner_id", ownerID),
		slog.Int("missing", len(rows)),
		slog.Int("embedded", count))
	return count, nil
}

// DeleteDocument removes a document with its clauses, analyses, embedding
// rows and index points. The relational delete runs first so an unknown
// document id fails before any cleanup; embedding cleanup is explicit,
// nothing cascades. Orphaned embedding rows left by a mid-delete failure
// never surface in retrieval because candidates are re-fetched relationally.
func (p *Pipeline) DeleteDocument(ctx context.Context, documentID string) error {
	if err := p.repository.DeleteDocument(ctx, documentID); err != nil {
		return err
	}

	deleted, err := p.repository.DeleteDocumentEmbeddings(ctx, documentID)
	if err != nil {
		return err
	}

	if p.index != nil {
		if _, err := p.index.DeleteDocument(ctx, documentID); err != nil {
			p.logger.Warn("vector index cleanup failed",
				slog.String("document_id", documentID),
				slog.String("error", err.Error()))
		}
	}

	p.logger.Info("document deleted",
		slog.String("document_id", documentID),
		slog.Int("embeddings_removed", deleted))
	return nil
}
