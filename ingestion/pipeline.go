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


package ingestion

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/readgye/ai"
	"github.com/poiesic/readgye/core"
	"github.com/poiesic/readgye/storage"
	"github.com/poiesic/readgye/vecindex"
)

// VectorWriter receives best-effort copies of embedded clauses. The index
// mirror is eventually consistent with the relational store; a write failure
// here never fails relational persistence.
type VectorWriter interface {
	EnsureCollection(ctx context.Context, dims int) error
	Upsert(ctx context.Context, point vecindex.Point) error
	DeleteDocument(ctx context.Context, documentID string) (int, error)
}

// Pipeline persists clause analyses and embeds them asynchronously.
type Pipeline struct {
	repository storage.ContractRepository
	embedder   ai.Embedder
	index      VectorWriter
	pool       *ants.Pool
	model      string
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for async embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithVectorIndex sets the index mirror. Without one, embeddings are only
// persisted relationally and retrieval relies on the fallback matcher.
func WithVectorIndex(index VectorWriter) Option {
	return func(p *Pipeline) error {
		p.index = index
		return nil
	}
}

// WithEmbeddingModel records which model produced the stored vectors.
// Default is ai.DefaultEmbeddingModel.
func WithEmbeddingModel(model string) Option {
	return func(p *Pipeline) error {
		if model != "" {
			p.model = model
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(repository storage.ContractRepository, embedder ai.Embedder, opts ...Option) (*Pipeline, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		repository: repository,
		embedder:   embedder,
		pool:       pool,
		model:      ai.DefaultEmbeddingModel,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	return p, nil
}

// IngestAnalysis persists a clause analysis and schedules its embedding on
// the worker pool. Embedding failures are logged, never returned; a later
// backfill sweep recovers un-embedded clauses.
func (p *Pipeline) IngestAnalysis(ctx context.Context, doc core.Document, clause core.Clause, analysis *core.ClauseAnalysis) error {
	if err := p.repository.AddAnalysis(ctx, analysis); err != nil {
		return err
	}

	row := core.AnalyzedRow{Clause: clause, Analysis: *analysis, Document: doc}
	return p.pool.Submit(func() {
		if err := p.EmbedRow(context.Background(), row); err != nil {
			p.logger.Error("error embedding clause",
				"clause_id", clause.ID, "err", err)
		}
	})
}

// EmbedRow embeds one analyzed clause synchronously: the durable embedding
// row is written first, then the index mirror best-effort.
func (p *Pipeline) EmbedRow(ctx context.Context, row core.AnalyzedRow) error {
	content := BuildEmbeddingText(row.Clause, row.Analysis)
	if content == "" {
		return nil
	}

	vec, err := p.embedder.EmbedText(ctx, content)
	if err != nil {
		return err
	}
	if len(vec) == 0 {
		p.logger.Warn("embedding came back empty", "clause_id", row.Clause.ID)
		return nil
	}

	encoded, err := storage.EncodeVector(vec)
	if err != nil {
		return err
	}
	err = p.repository.UpsertEmbedding(ctx, &core.ClauseEmbedding{
		ClauseID:       row.Clause.ID,
		OwnerID:        row.Document.OwnerID,
		DocumentID:     row.Document.ID,
		EmbeddingModel: p.model,
		EmbeddingJSON:  encoded,
		Content:        content,
	})
	if err != nil {
		return err
	}

	p.mirrorToIndex(ctx, row, content, vec)
	return nil
}

// mirrorToIndex pushes the vector and its clause payload into the ANN index.
// Failures are logged and swallowed; index freshness is best-effort relative
// to the relational store.
func (p *Pipeline) mirrorToIndex(ctx context.Context, row core.AnalyzedRow, content string, vec []float32) {
	if p.index == nil {
		return
	}
	if err := p.index.EnsureCollection(ctx, len(vec)); err != nil {
		p.logger.Warn("vector collection unavailable", "err", err)
		return
	}
	err := p.index.Upsert(ctx, vecindex.Point{
		ClauseID:     row.Clause.ID,
		OwnerID:      row.Document.OwnerID,
		DocumentID:   row.Document.ID,
		ClauseNumber: row.Clause.ClauseNumber,
		Title:        row.Clause.Title,
		RiskLevel:    core.NormalizeRiskLevel(row.Analysis.RiskLevel),
		Summary:      row.Analysis.Summary,
		Suggestion:   row.Analysis.Suggestion,
		Content:      content,
		Vector:       vec,
	})
	if err != nil {
		p.logger.Warn("vector index upsert failed",
			"clause_id", row.Clause.ID, "err", err)
	}
}

// Release releases the worker pool. The pipeline should not be used after
// calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
