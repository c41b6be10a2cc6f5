package retrieval

import (
	"context"
	"strings"
	"testing"

	"github.com/poiesic/readgye/ai"
	"github.com/poiesic/readgye/ai/mock"
	"github.com/poiesic/readgye/core"
	"github.com/poiesic/readgye/storage"
	"github.com/poiesic/readgye/storage/sqlite"
	"github.com/poiesic/readgye/vecindex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedEmbedder maps query texts to fixed vectors so tests control geometry.
type fixedEmbedder struct {
	vectors map[string][]float32
}

func (f *fixedEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := f.vectors[text]; ok {
		return vec, nil
	}
	return []float32{0, 0}, nil
}

func (f *fixedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := f.EmbedText(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

type fixture struct {
	repo  *sqlite.ContractRepository
	doc   core.Document
	owner string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo, err := sqlite.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	doc := core.Document{OwnerID: "owner-1", Filename: "lease.pdf", Status: core.DocumentStatusDone}
	require.NoError(t, repo.AddDocument(context.Background(), &doc))

	return &fixture{repo: repo, doc: doc, owner: "owner-1"}
}

// addClause persists a clause, its analysis and its embedding row.
func (f *fixture) addClause(t *testing.T, docID, number, title string, risk core.RiskLevel, vec []float32) core.Clause {
	t.Helper()
	ctx := context.Background()

	clause := core.Clause{DocumentID: docID, ClauseNumber: number, Title: title, Body: "본문 " + title}
	require.NoError(t, f.repo.AddClause(ctx, &clause))
	require.NoError(t, f.repo.AddAnalysis(ctx, &core.ClauseAnalysis{
		ClauseID:   clause.ID,
		RiskLevel:  risk,
		Summary:    "요약 " + title,
		Suggestion: "제안 " + title,
	}))

	require.NoError(t, f.repo.UpsertEmbedding(ctx, &core.ClauseEmbedding{
		ClauseID:      clause.ID,
		OwnerID:       f.doc.OwnerID,
		DocumentID:    docID,
		EmbeddingJSON: mustEncode(t, vec),
		Content:       title,
	}))
	return clause
}

func mustEncode(t *testing.T, vec []float32) string {
	t.Helper()
	encoded, err := storage.EncodeVector(vec)
	require.NoError(t, err)
	return encoded
}

func newTestRetriever(t *testing.T, f *fixture, embedder ai.Embedder, opts ...Option) *Retriever {
	t.Helper()
	r, err := NewRetriever(f.repo, embedder, opts...)
	require.NoError(t, err)
	return r
}

func TestRetrieveFallbackTier(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Query [1,0] against A:[1,0] and B:[0,1] with a 0.5 threshold
	// keeps only A.
	a := f.addClause(t, f.doc.ID, "제1조", "보증금", core.RiskHigh, []float32{1, 0})
	f.addClause(t, f.doc.ID, "제2조", "관리비", core.RiskLow, []float32{0, 1})

	embedder := &fixedEmbedder{vectors: map[string][]float32{"보증금 질문": {1, 0}}}
	r := newTestRetriever(t, f, embedder)

	result, err := r.Retrieve(ctx, Params{
		OwnerID:       f.owner,
		Query:         "보증금 질문",
		TopK:          6,
		MinSimilarity: 0.5,
		CandidateK:    30,
	})
	require.NoError(t, err)

	require.Len(t, result.Citations, 1)
	assert.Equal(t, a.ID, result.Citations[0].ClauseID)
	assert.Contains(t, result.Context, "보증금")
	assert.NotContains(t, result.Context, "관리비")
}

func TestRetrieveIndexTier(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.addClause(t, f.doc.ID, "제1조", "보증금", core.RiskHigh, []float32{1, 0})
	b := f.addClause(t, f.doc.ID, "제2조", "관리비", core.RiskLow, []float32{0, 1})

	ix := vecindex.New(vecindex.Config{InMemory: true})
	t.Cleanup(func() { ix.Close() })
	require.NoError(t, ix.Upsert(ctx, vecindex.Point{
		ClauseID: a.ID, OwnerID: f.owner, DocumentID: f.doc.ID, Vector: []float32{1, 0},
	}))
	require.NoError(t, ix.Upsert(ctx, vecindex.Point{
		ClauseID: b.ID, OwnerID: f.owner, DocumentID: f.doc.ID, Vector: []float32{0, 1},
	}))

	embedder := &fixedEmbedder{vectors: map[string][]float32{"보증금 질문": {1, 0}}}
	r := newTestRetriever(t, f, embedder, WithVectorIndex(ix))

	result, err := r.Retrieve(ctx, Params{
		OwnerID:       f.owner,
		Query:         "보증금 질문",
		TopK:          6,
		MinSimilarity: 0.5,
		CandidateK:    30,
	})
	require.NoError(t, err)

	require.Len(t, result.Citations, 1)
	assert.Equal(t, a.ID, result.Citations[0].ClauseID)
}

func TestRetrieveNoDataReturnsSentinel(t *testing.T) {
	f := newFixture(t)

	embedder := &fixedEmbedder{vectors: map[string][]float32{"질문": {1, 0}}}
	r := newTestRetriever(t, f, embedder)

	result, err := r.Retrieve(context.Background(), Params{
		OwnerID: f.owner, Query: "질문", TopK: 6, MinSimilarity: 0.35, CandidateK: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, NoDataContext, result.Context)
	assert.Empty(t, result.Citations)
}

func TestRetrieveBlankQueryIsUnranked(t *testing.T) {
	f := newFixture(t)
	f.addClause(t, f.doc.ID, "제1조", "보증금", core.RiskHigh, []float32{1, 0})

	// The gateway turns blank queries into empty vectors without calling
	// the provider.
	gateway := ai.NewGateway(mock.NewMockEmbedder())
	r := newTestRetriever(t, f, gateway)

	result, err := r.Retrieve(context.Background(), Params{
		OwnerID: f.owner, Query: "   ", TopK: 6, MinSimilarity: 0.35, CandidateK: 30,
	})
	require.NoError(t, err)

	assert.Empty(t, result.Citations)
	assert.Contains(t, result.Context, "보증금", "unranked context still shows analyzed clauses")
}

func TestRetrieveOwnerIsolation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mine := f.addClause(t, f.doc.ID, "제1조", "보증금", core.RiskHigh, []float32{1, 0})

	otherDoc := core.Document{OwnerID: "owner-2", Filename: "other.pdf", Status: core.DocumentStatusDone}
	require.NoError(t, f.repo.AddDocument(ctx, &otherDoc))
	theirs := core.Clause{DocumentID: otherDoc.ID, ClauseNumber: "제9조", Title: "비밀유지"}
	require.NoError(t, f.repo.AddClause(ctx, &theirs))
	require.NoError(t, f.repo.AddAnalysis(ctx, &core.ClauseAnalysis{
		ClauseID: theirs.ID, RiskLevel: core.RiskHigh, Summary: "요약", Suggestion: "제안",
	}))

	t.Run("scoped retrieval never crosses owners", func(t *testing.T) {
		embedder := &fixedEmbedder{vectors: map[string][]float32{"질문": {1, 0}}}
		r := newTestRetriever(t, f, embedder)

		result, err := r.Retrieve(ctx, Params{
			OwnerID: f.owner, Query: "질문", TopK: 6, MinSimilarity: 0.35, CandidateK: 30,
		})
		require.NoError(t, err)
		require.Len(t, result.Citations, 1)
		assert.Equal(t, mine.ID, result.Citations[0].ClauseID)
	})

	t.Run("leaked cross-owner candidate ids are filtered out", func(t *testing.T) {
		embedder := &fixedEmbedder{vectors: map[string][]float32{"질문": {1, 0}}}
		leaky := leakyIndex{hits: []core.Candidate{{ClauseID: theirs.ID, Score: 0.99}}}
		r := newTestRetriever(t, f, embedder, WithVectorIndex(leaky))

		result, err := r.Retrieve(ctx, Params{
			OwnerID: "owner-3", Query: "질문", TopK: 6, MinSimilarity: 0.35, CandidateK: 30,
		})
		require.NoError(t, err)
		assert.Empty(t, result.Citations)
		assert.Equal(t, NoDataContext, result.Context)
	})
}

// leakyIndex simulates a misconfigured index that returns candidates the
// caller is not authorized to see.
type leakyIndex struct {
	hits []core.Candidate
}

func (l leakyIndex) Search(ctx context.Context, vector []float32, q vecindex.Query) []core.Candidate {
	return l.hits
}

func TestRetrieveExcludesUnfinishedDocuments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending := core.Document{OwnerID: f.owner, Filename: "draft.pdf", Status: core.DocumentStatusAnalyzing}
	require.NoError(t, f.repo.AddDocument(ctx, &pending))
	f.addClause(t, pending.ID, "제1조", "보증금", core.RiskHigh, []float32{1, 0})

	embedder := &fixedEmbedder{vectors: map[string][]float32{"보증금": {1, 0}}}
	r := newTestRetriever(t, f, embedder)

	result, err := r.Retrieve(ctx, Params{
		OwnerID: f.owner, Query: "보증금", TopK: 6, MinSimilarity: 0.35, CandidateK: 30,
	})
	require.NoError(t, err)
	assert.Empty(t, result.Citations, "perfect similarity cannot rescue a non-done document")
	assert.Equal(t, NoDataContext, result.Context)
}

func TestRetrieveTopKClamp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i, vec := range [][]float32{{1, 0}, {0.9, 0.1}, {0.8, 0.2}} {
		f.addClause(t, f.doc.ID, "제"+string(rune('1'+i))+"조", "조항", core.RiskLow, vec)
	}

	embedder := &fixedEmbedder{vectors: map[string][]float32{"질문": {1, 0}}}
	r := newTestRetriever(t, f, embedder)

	result, err := r.Retrieve(ctx, Params{
		OwnerID: f.owner, Query: "질문", TopK: 0, MinSimilarity: 0.35, CandidateK: 30,
	})
	require.NoError(t, err)
	assert.Len(t, result.Citations, 1, "top_k re-clamps to at least 1")
}

func TestRetrieveSkipsCorruptEmbeddingRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	good := f.addClause(t, f.doc.ID, "제1조", "보증금", core.RiskHigh, []float32{1, 0})

	corrupt := f.addClause(t, f.doc.ID, "제2조", "관리비", core.RiskLow, []float32{1, 0})
	require.NoError(t, f.repo.UpsertEmbedding(ctx, &core.ClauseEmbedding{
		ClauseID:      corrupt.ID,
		OwnerID:       f.owner,
		DocumentID:    f.doc.ID,
		EmbeddingJSON: "not json",
	}))

	embedder := &fixedEmbedder{vectors: map[string][]float32{"질문": {1, 0}}}
	r := newTestRetriever(t, f, embedder)

	result, err := r.Retrieve(ctx, Params{
		OwnerID: f.owner, Query: "질문", TopK: 6, MinSimilarity: 0.35, CandidateK: 30,
	})
	require.NoError(t, err)
	require.Len(t, result.Citations, 1, "corrupt row is skipped, not fatal")
	assert.Equal(t, good.ID, result.Citations[0].ClauseID)
}

func TestRetrieveCitationOrderMatchesContext(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addClause(t, f.doc.ID, "제1조", "가항목", core.RiskLow, []float32{0.8, 0.2})
	f.addClause(t, f.doc.ID, "제2조", "나항목", core.RiskLow, []float32{1, 0})
	f.addClause(t, f.doc.ID, "제3조", "다항목", core.RiskLow, []float32{0.6, 0.4})

	embedder := &fixedEmbedder{vectors: map[string][]float32{"질문": {1, 0}}}
	r := newTestRetriever(t, f, embedder)

	result, err := r.Retrieve(ctx, Params{
		OwnerID: f.owner, Query: "질문", TopK: 3, MinSimilarity: 0.1, CandidateK: 30, DisableRerank: true,
	})
	require.NoError(t, err)
	require.Len(t, result.Citations, 3)

	// Citation order must equal context block order.
	lastIdx := -1
	for _, c := range result.Citations {
		idx := strings.Index(result.Context, "["+c.ClauseNumber+" - "+c.ClauseTitle+"]")
		require.GreaterOrEqual(t, idx, 0)
		assert.Greater(t, idx, lastIdx)
		lastIdx = idx
	}
	assert.Equal(t, "나항목", result.Citations[0].ClauseTitle, "highest vector score first with rerank off")
}

func TestRetrieveWithMonitor(t *testing.T) {
	f := newFixture(t)
	f.addClause(t, f.doc.ID, "제1조", "보증금", core.RiskHigh, []float32{1, 0})

	embedder := &fixedEmbedder{vectors: map[string][]float32{"질문": {1, 0}}}
	r := newTestRetriever(t, f, embedder)

	mon := &recordingMonitor{}
	result, err := r.RetrieveWithMonitor(context.Background(), Params{
		OwnerID: f.owner, Query: "질문", TopK: 6, MinSimilarity: 0.35, CandidateK: 30,
	}, mon)
	require.NoError(t, err)

	assert.True(t, mon.started)
	assert.Equal(t, 2, mon.embedDims)
	assert.NotEmpty(t, mon.fallbackHits, "no index configured, tier 2 produced the hits")
	assert.Equal(t, result, mon.finished)
}

type recordingMonitor struct {
	started      bool
	embedDims    int
	indexHits    []core.Candidate
	fallbackHits []core.Candidate
	rows         []core.AnalyzedRow
	finished     *core.RetrievalResult
}

func (m *recordingMonitor) Start(_ string)                          { m.started = true }
func (m *recordingMonitor) AfterEmbed(dims int)                     { m.embedDims = dims }
func (m *recordingMonitor) AfterIndexSearch(c []core.Candidate)     { m.indexHits = c }
func (m *recordingMonitor) AfterFallbackSearch(c []core.Candidate)  { m.fallbackHits = c }
func (m *recordingMonitor) AfterRowFetch(rows []core.AnalyzedRow)   { m.rows = rows }
func (m *recordingMonitor) Finish(result *core.RetrievalResult)     { m.finished = result }

func TestUnrankedContext(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	clause := f.addClause(t, f.doc.ID, "제1조", "보증금", core.RiskHigh, []float32{1, 0})
	embedder := &fixedEmbedder{vectors: map[string][]float32{}}
	r := newTestRetriever(t, f, embedder)

	t.Run("scoped to clause ids", func(t *testing.T) {
		text, err := r.UnrankedContext(ctx, f.owner, "", []string{clause.ID})
		require.NoError(t, err)
		assert.Contains(t, text, "보증금")
	})

	t.Run("empty owner rejected", func(t *testing.T) {
		_, err := r.UnrankedContext(ctx, "", "", nil)
		assert.ErrorIs(t, err, ErrEmptyOwnerID)
	})

	t.Run("empty scope yields sentinel", func(t *testing.T) {
		text, err := r.UnrankedContext(ctx, "nobody", "", nil)
		require.NoError(t, err)
		assert.Equal(t, NoDataContext, text)
	})
}
