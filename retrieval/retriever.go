// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package retrieval

import (
	"context"
	"log/slog"

	"github.com/poiesic/readgye/ai"
	"github.com/poiesic/readgye/core"
	"github.com/poiesic/readgye/storage"
	"github.com/poiesic/readgye/vecindex"
)

const (
	// DefaultTopK is the number of clauses delivered to the answer step.
	DefaultTopK = 6
	// DefaultMinSimilarity filters candidates by raw vector similarity.
	DefaultMinSimilarity = 0.35
	// DefaultCandidateK bounds how many candidates a tier may return.
	DefaultCandidateK = 30

	// MaxUnrankedClauses caps the unranked context when no tier produced
	// a ranking.
	MaxUnrankedClauses = 50

	// maxVectorCandidates bounds the fallback matcher's linear scan.
	maxVectorCandidates = 500
)

// VectorSearcher produces candidate clause ids from an ANN index. A nil
// searcher, like an unavailable one, simply contributes no candidates.
type VectorSearcher interface {
	Search(ctx context.Context, vector []float32, q vecindex.Query) []core.Candidate
}

// Retriever runs the tiered retrieval protocol end to end. It is stateless
// and safe for concurrent use.
type Retriever struct {
	repository storage.ContractRepository
	embedder   ai.Embedder
	index      VectorSearcher
	logger     *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithVectorIndex sets the tier-1 ANN index.
// Without one, every retrieval goes straight to the fallback matcher.
func WithVectorIndex(index VectorSearcher) Option {
	return func(r *Retriever) error {
		r.index = index
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRetriever creates a new retriever.
func NewRetriever(repository storage.ContractRepository, embedder ai.Embedder, opts ...Option) (*Retriever, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	r := &Retriever{
		repository: repository,
		embedder:   embedder,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Params are the inputs of one retrieval call. OwnerID is mandatory. Callers
// own the user-facing clamps (top-k to [1,20], similarity to [-1,1]); the
// retriever only re-clamps counts to at least 1.
type Params struct {
	OwnerID       string
	Query         string
	DocumentID    string
	TopK          int
	MinSimilarity float64
	CandidateK    int
	DisableRerank bool
}

// Retrieve finds the clauses most relevant to the query and renders them as
// grounded context plus citations.
func (r *Retriever) Retrieve(ctx context.Context, p Params) (*core.RetrievalResult, error) {
	return r.RetrieveWithMonitor(ctx, p, nil)
}

// RetrieveWithMonitor runs Retrieve with stage callbacks.
//
// The protocol: embed the query, ask the ANN index, fall back to the exact
// cosine scan, and if both tiers come up empty return the unranked context
// with no citations. Candidate ids are never trusted for authorization; the
// relational re-fetch applies the owner and document-status filters again.
func (r *Retriever) RetrieveWithMonitor(ctx context.Context, p Params, monitor RetrievalMonitor) (*core.RetrievalResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if p.OwnerID == "" {
		return nil, ErrEmptyOwnerID
	}

	monitor.Start(p.Query)

	topK := max(p.TopK, 1)
	candidateK := max(p.CandidateK, 1)

	queryVector, err := r.embedder.EmbedText(ctx, p.Query)
	if err != nil {
		r.logger.Error("query embedding failed", "err", err)
		return nil, err
	}
	monitor.AfterEmbed(len(queryVector))

	if len(queryVector) == 0 {
		return r.unranked(ctx, p, monitor)
	}

	var hits []core.Candidate
	if r.index != nil {
		hits = r.index.Search(ctx, queryVector, vecindex.Query{
			OwnerID:        p.OwnerID,
			DocumentID:     p.DocumentID,
			Limit:          candidateK,
			ScoreThreshold: p.MinSimilarity,
		})
	}
	monitor.AfterIndexSearch(hits)

	if len(hits) == 0 {
		r.logger.Info("vector index returned nothing, trying brute-force fallback",
			slog.String("owner_id", p.OwnerID))
		hits, err = r.fallbackSearch(ctx, p.OwnerID, queryVector, p.DocumentID, candidateK, p.MinSimilarity)
		if err != nil {
			return nil, err
		}
		monitor.AfterFallbackSearch(hits)
	}
	if len(hits) == 0 {
		return r.unranked(ctx, p, monitor)
	}

	vectorScores := make(map[string]float64, len(hits))
	clauseIDs := make([]string, 0, len(hits))
	for _, hit := range hits {
		vectorScores[hit.ClauseID] = hit.Score
		clauseIDs = append(clauseIDs, hit.ClauseID)
	}

	rows, err := r.repository.AnalyzedRows(ctx, storage.RowQuery{
		OwnerID:    p.OwnerID,
		DocumentID: p.DocumentID,
		ClauseIDs:  clauseIDs,
	})
	if err != nil {
		return nil, err
	}
	monitor.AfterRowFetch(rows)
	if len(rows) == 0 {
		return r.unranked(ctx, p, monitor)
	}

	ranked := rankRows(p.Query, rows, vectorScores, !p.DisableRerank)
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}

	selected := make([]core.AnalyzedRow, 0, len(ranked))
	for _, rr := range ranked {
		selected = append(selected, rr.Row)
	}

	result := &core.RetrievalResult{
		Context:   FormatContext(selected),
		Citations: buildCitations(ranked),
	}
	monitor.Finish(result)
	return result, nil
}

// UnrankedContext renders the most recent analyzed clauses for the scope
// without any relevance ranking. It backs the terminal degradation state and
// is also useful on its own for "summarize my contract" style requests.
func (r *Retriever) UnrankedContext(ctx context.Context, ownerID, documentID string, clauseIDs []string) (string, error) {
	if ownerID == "" {
		return "", ErrEmptyOwnerID
	}
	rows, err := r.repository.AnalyzedRows(ctx, storage.RowQuery{
		OwnerID:    ownerID,
		DocumentID: documentID,
		ClauseIDs:  clauseIDs,
		Limit:      MaxUnrankedClauses,
	})
	if err != nil {
		return "", err
	}
	return FormatContext(rows), nil
}

func (r *Retriever) unranked(ctx context.Context, p Params, monitor RetrievalMonitor) (*core.RetrievalResult, error) {
	text, err := r.UnrankedContext(ctx, p.OwnerID, p.DocumentID, nil)
	if err != nil {
		return nil, err
	}
	result := &core.RetrievalResult{
		Context:   text,
		Citations: []core.Citation{},
	}
	monitor.Finish(result)
	return result, nil
}
