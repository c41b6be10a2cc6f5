package vecindex

import (
	"context"
	"testing"

	"github.com/poiesic/readgye/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	ix := New(Config{InMemory: true})
	t.Cleanup(func() { ix.Close() })
	return ix
}

func upsertPoint(t *testing.T, ix *Index, clauseID, owner, doc string, vec []float32) {
	t.Helper()
	require.NoError(t, ix.Upsert(context.Background(), Point{
		ClauseID:   clauseID,
		OwnerID:    owner,
		DocumentID: doc,
		RiskLevel:  core.RiskLow,
		Vector:     vec,
	}))
}

func TestIndexDisabled(t *testing.T) {
	ix := New(Config{})

	assert.False(t, ix.Available())
	assert.Nil(t, ix.Search(context.Background(), []float32{1, 0}, Query{OwnerID: "u", Limit: 5}))

	err := ix.Upsert(context.Background(), Point{ClauseID: "c", OwnerID: "u", Vector: []float32{1}})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestIndexSearchRanksBySimilarity(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()

	upsertPoint(t, ix, "aligned", "u", "d", []float32{1, 0, 0})
	upsertPoint(t, ix, "near", "u", "d", []float32{0.9, 0.1, 0})
	upsertPoint(t, ix, "orthogonal", "u", "d", []float32{0, 0, 1})

	got := ix.Search(ctx, []float32{1, 0, 0}, Query{OwnerID: "u", Limit: 3})
	require.Len(t, got, 3)
	assert.Equal(t, "aligned", got[0].ClauseID)
	assert.Equal(t, "near", got[1].ClauseID)
	assert.InDelta(t, 1.0, got[0].Score, 1e-4)
	assert.InDelta(t, 0.0, got[2].Score, 1e-4)
}

func TestIndexScoreThreshold(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()

	upsertPoint(t, ix, "aligned", "u", "d", []float32{1, 0})
	upsertPoint(t, ix, "orthogonal", "u", "d", []float32{0, 1})

	got := ix.Search(ctx, []float32{1, 0}, Query{OwnerID: "u", Limit: 5, ScoreThreshold: 0.35})
	require.Len(t, got, 1)
	assert.Equal(t, "aligned", got[0].ClauseID)
}

func TestIndexOwnerAndDocumentScoping(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()

	upsertPoint(t, ix, "mine", "user-a", "doc-1", []float32{1, 0})
	upsertPoint(t, ix, "mine-other-doc", "user-a", "doc-2", []float32{1, 0})
	upsertPoint(t, ix, "theirs", "user-b", "doc-3", []float32{1, 0})

	t.Run("owner scope", func(t *testing.T) {
		got := ix.Search(ctx, []float32{1, 0}, Query{OwnerID: "user-a", Limit: 10})
		require.Len(t, got, 2)
		for _, c := range got {
			assert.NotEqual(t, "theirs", c.ClauseID)
		}
	})

	t.Run("document scope", func(t *testing.T) {
		got := ix.Search(ctx, []float32{1, 0}, Query{OwnerID: "user-a", DocumentID: "doc-2", Limit: 10})
		require.Len(t, got, 1)
		assert.Equal(t, "mine-other-doc", got[0].ClauseID)
	})

	t.Run("missing owner returns nothing", func(t *testing.T) {
		assert.Nil(t, ix.Search(ctx, []float32{1, 0}, Query{Limit: 10}))
	})
}

func TestIndexUpsertReplaces(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()

	upsertPoint(t, ix, "c1", "u", "d", []float32{1, 0})
	upsertPoint(t, ix, "c1", "u", "d", []float32{0, 1})

	assert.Equal(t, 1, ix.Len())

	got := ix.Search(ctx, []float32{0, 1}, Query{OwnerID: "u", Limit: 5})
	require.Len(t, got, 1)
	assert.Equal(t, "c1", got[0].ClauseID)
	assert.InDelta(t, 1.0, got[0].Score, 1e-4)
}

func TestIndexDimsMismatch(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, ix.EnsureCollection(ctx, 3))

	err := ix.Upsert(ctx, Point{ClauseID: "c", OwnerID: "u", Vector: []float32{1, 0}})
	assert.ErrorIs(t, err, ErrDimsMismatch)

	// A query of the wrong width cannot be scored; degrade to empty.
	upsertPoint(t, ix, "c", "u", "d", []float32{1, 0, 0})
	assert.Nil(t, ix.Search(ctx, []float32{1, 0}, Query{OwnerID: "u", Limit: 5}))
}

func TestIndexRecreatesOnDimsChange(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()

	upsertPoint(t, ix, "c1", "u", "d", []float32{1, 0})
	require.Equal(t, 1, ix.Len())

	require.NoError(t, ix.EnsureCollection(ctx, 5))
	assert.Equal(t, 0, ix.Len(), "points of the old width are discarded")
}

func TestIndexDeleteDocument(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()

	upsertPoint(t, ix, "c1", "u", "doc-1", []float32{1, 0})
	upsertPoint(t, ix, "c2", "u", "doc-1", []float32{0, 1})
	upsertPoint(t, ix, "c3", "u", "doc-2", []float32{1, 0})

	n, err := ix.DeleteDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, ix.Len())

	got := ix.Search(ctx, []float32{1, 0}, Query{OwnerID: "u", Limit: 10})
	require.Len(t, got, 1)
	assert.Equal(t, "c3", got[0].ClauseID)
}

func TestIndexPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	ix := New(Config{Path: dir})
	upsertPoint(t, ix, "c1", "u", "d", []float32{1, 0})
	upsertPoint(t, ix, "c2", "u", "d", []float32{0, 1})
	require.NoError(t, ix.Close())

	reopened := New(Config{Path: dir})
	defer reopened.Close()

	assert.Equal(t, 2, reopened.Len())
	got := reopened.Search(ctx, []float32{1, 0}, Query{OwnerID: "u", Limit: 5})
	require.NotEmpty(t, got)
	assert.Equal(t, "c1", got[0].ClauseID)
}
