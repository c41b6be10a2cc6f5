package retrieval

import (
	"context"
	"log/slog"
	"sort"

	"github.com/poiesic/readgye/core"
	"github.com/poiesic/readgye/storage"
)

// fallbackSearch is the tier-2 matcher: an exact cosine scan over the most
// recently created embedding rows when the ANN index produced nothing.
// Undecodable rows are skipped with a warning so one corrupt vector cannot
// abort the batch. Relational errors propagate; the relational store is the
// one tier assumed always available.
func (r *Retriever) fallbackSearch(
	ctx context.Context,
	ownerID string,
	queryVector []float32,
	documentID string,
	candidateK int,
	minSimilarity float64,
) ([]core.Candidate, error) {
	rows, err := r.repository.RecentEmbeddings(ctx, ownerID, documentID, maxVectorCandidates)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	scored := make([]core.Candidate, 0, len(rows))
	for _, row := range rows {
		vec, err := storage.DecodeVector(row.EmbeddingJSON)
		if err != nil {
			r.logger.Warn("skipping undecodable embedding row",
				slog.String("clause_id", row.ClauseID),
				slog.String("error", err.Error()))
			continue
		}
		sim := CosineSimilarity(queryVector, vec)
		if sim >= minSimilarity {
			scored = append(scored, core.Candidate{ClauseID: row.ClauseID, Score: sim})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if limit := max(candidateK, 1); len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}
