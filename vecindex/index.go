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


package vecindex

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/coder/hnsw"
	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/poiesic/readgye/core"
)

const (
	pointKeyPrefix = "pt:"
	metaDimsKey    = "meta:dims"
)

// Index is an embedded ANN index over clause embeddings. Construction is
// lazy and attempted exactly once; if it fails, the failure is cached and
// every subsequent search returns empty results so callers degrade to
// linear scoring without retry storms.
type Index struct {
	cfg    Config
	logger *slog.Logger

	initOnce sync.Once
	initErr  error

	mu    sync.RWMutex
	db    *badger.DB
	graph *hnsw.Graph[uint64]
	dims  int

	// points is keyed by clause id. liveKey maps a graph node key back to
	// its clause id; stale nodes left behind by re-upserts have no liveKey
	// entry and are filtered out of search results. gen salts replacement
	// keys so a re-upserted clause gets a fresh graph node.
	points  map[string]*Point
	liveKey map[uint64]string
	keyOf   map[string]uint64
	gen     uint64
}

type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// New creates an index handle. No I/O happens until the first operation.
func New(cfg Config, opts ...Option) *Index {
	ix := &Index{
		cfg:    cfg.withDefaults(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// ensure opens the point store and rebuilds the graph, once. The cached
// error makes every later call cheap.
func (ix *Index) ensure() error {
	ix.initOnce.Do(func() {
		if !ix.cfg.Enabled() {
			ix.initErr = ErrUnavailable
			return
		}
		if err := ix.open(); err != nil {
			ix.logger.Warn("vector index unavailable, searches will fall back to linear scan",
				slog.String("error", err.Error()))
			ix.initErr = fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	})
	return ix.initErr
}

func (ix *Index) open() error {
	var opts badger.Options
	if ix.cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		dir := filepath.Join(ix.cfg.Path, ix.cfg.Collection)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
		opts = badger.DefaultOptions(dir)
	}
	opts.Logger = &badgerLoggerAdapter{logger: ix.logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return err
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.db = db
	ix.resetGraphLocked()

	if err := ix.loadLocked(); err != nil {
		db.Close()
		ix.db = nil
		return err
	}

	ix.logger.Info("vector index opened",
		slog.String("collection", ix.cfg.Collection),
		slog.Int("points", len(ix.points)),
		slog.Int("dims", ix.dims))
	return nil
}

func (ix *Index) resetGraphLocked() {
	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = ix.cfg.M
	graph.EfSearch = ix.cfg.EfSearch
	graph.Ml = 0.25

	ix.graph = graph
	ix.points = make(map[string]*Point)
	ix.liveKey = make(map[uint64]string)
	ix.keyOf = make(map[string]uint64)
	ix.dims = 0
}

// loadLocked rebuilds the in-memory graph from the persisted points.
// Undecodable points are dropped with a warning, never fatal.
func (ix *Index) loadLocked() error {
	return ix.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(metaDimsKey))
		if err == nil {
			err = item.Value(func(val []byte) error {
				dims, convErr := strconv.Atoi(string(val))
				if convErr != nil {
					return convErr
				}
				ix.dims = dims
				return nil
			})
			if err != nil {
				return fmt.Errorf("read dims meta: %w", err)
			}
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = []byte(pointKeyPrefix)
		iter := tx.NewIterator(iterOpts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			err := item.Value(func(val []byte) error {
				p, decErr := decodePoint(val)
				if decErr != nil {
					ix.logger.Warn("dropping undecodable index point",
						slog.String("key", string(item.Key())),
						slog.String("error", decErr.Error()))
					return nil
				}
				ix.insertGraphLocked(p)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// insertGraphLocked adds a point's node to the graph, orphaning any node a
// previous upsert of the same clause left behind.
func (ix *Index) insertGraphLocked(p *Point) {
	if old, ok := ix.keyOf[p.ClauseID]; ok {
		delete(ix.liveKey, old)
	}

	key := core.KeyFromID(p.ClauseID)
	if _, taken := ix.liveKey[key]; taken {
		ix.gen++
		key = core.KeyFromID(p.ClauseID + "#" + strconv.FormatUint(ix.gen, 10))
	}

	vec := make([]float32, len(p.Vector))
	copy(vec, p.Vector)
	normalizeVectorInPlace(vec)

	ix.graph.Add(hnsw.MakeNode(key, vec))
	ix.points[p.ClauseID] = p
	ix.liveKey[key] = p.ClauseID
	ix.keyOf[p.ClauseID] = key
}

// Available reports whether the index is usable. The first call triggers
// construction.
func (ix *Index) Available() bool {
	return ix.ensure() == nil
}

// EnsureCollection prepares the index for vectors of the given
// dimensionality. If the stored dimensionality differs, the collection is
// recreated empty and existing points are discarded; callers are expected
// to backfill afterwards.
func (ix *Index) EnsureCollection(ctx context.Context, dims int) error {
	if err := ix.ensure(); err != nil {
		return err
	}
	if dims <= 0 {
		return fmt.Errorf("%w: dims %d", ErrEmptyVector, dims)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.dims == dims {
		return nil
	}
	if ix.dims != 0 {
		ix.logger.Warn("recreating vector collection for new dimensionality",
			slog.Int("old_dims", ix.dims),
			slog.Int("new_dims", dims))
		if err := ix.db.DropAll(); err != nil {
			return fmt.Errorf("drop collection: %w", err)
		}
		ix.resetGraphLocked()
	}

	if err := ix.writeDimsLocked(dims); err != nil {
		return err
	}
	ix.dims = dims
	return nil
}

func (ix *Index) writeDimsLocked(dims int) error {
	return ix.db.Update(func(tx *badger.Txn) error {
		return tx.Set([]byte(metaDimsKey), []byte(strconv.Itoa(dims)))
	})
}

// Upsert stores or replaces the point for a clause.
func (ix *Index) Upsert(ctx context.Context, point Point) error {
	if err := ix.ensure(); err != nil {
		return err
	}
	if len(point.Vector) == 0 {
		return ErrEmptyVector
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.dims == 0 {
		if err := ix.writeDimsLocked(len(point.Vector)); err != nil {
			return err
		}
		ix.dims = len(point.Vector)
	} else if len(point.Vector) != ix.dims {
		return fmt.Errorf("%w: got %d, collection has %d",
			ErrDimsMismatch, len(point.Vector), ix.dims)
	}

	data, err := encodePoint(&point)
	if err != nil {
		return fmt.Errorf("encode point: %w", err)
	}
	err = ix.db.Update(func(tx *badger.Txn) error {
		return tx.Set([]byte(pointKeyPrefix+point.ClauseID), data)
	})
	if err != nil {
		return fmt.Errorf("persist point: %w", err)
	}

	ix.insertGraphLocked(&point)
	return nil
}

// Search returns up to q.Limit candidate clause ids ranked by cosine
// similarity, filtered to the query's owner and optional document. It never
// fails: an unavailable index, empty graph or empty query all yield nil and
// the caller falls back to linear scoring.
func (ix *Index) Search(ctx context.Context, vector []float32, q Query) []core.Candidate {
	if ix.ensure() != nil {
		return nil
	}
	if len(vector) == 0 || q.OwnerID == "" || q.Limit <= 0 {
		return nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	total := ix.graph.Len()
	if total == 0 || len(vector) != ix.dims {
		return nil
	}

	query := make([]float32, len(vector))
	copy(query, vector)
	normalizeVectorInPlace(query)

	// Filtering happens after the ANN walk, so oversample. A small index
	// gets scanned whole.
	k := q.Limit * 4
	if k < q.Limit+16 {
		k = q.Limit + 16
	}
	if k > total {
		k = total
	}

	nodes := ix.graph.Search(query, k)

	candidates := make([]core.Candidate, 0, q.Limit)
	for _, node := range nodes {
		clauseID, live := ix.liveKey[node.Key]
		if !live {
			continue
		}
		p := ix.points[clauseID]
		if p == nil || p.OwnerID != q.OwnerID {
			continue
		}
		if q.DocumentID != "" && p.DocumentID != q.DocumentID {
			continue
		}

		score := 1 - float64(ix.graph.Distance(query, node.Value))
		if score < q.ScoreThreshold {
			continue
		}

		candidates = append(candidates, core.Candidate{
			ClauseID: clauseID,
			Score:    score,
		})
		if len(candidates) >= q.Limit {
			break
		}
	}
	return candidates
}

// DeleteDocument removes every point belonging to a document and reports
// how many were removed.
func (ix *Index) DeleteDocument(ctx context.Context, documentID string) (int, error) {
	if err := ix.ensure(); err != nil {
		return 0, err
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	var doomed []string
	for clauseID, p := range ix.points {
		if p.DocumentID == documentID {
			doomed = append(doomed, clauseID)
		}
	}
	if len(doomed) == 0 {
		return 0, nil
	}

	err := ix.db.Update(func(tx *badger.Txn) error {
		for _, clauseID := range doomed {
			if err := tx.Delete([]byte(pointKeyPrefix + clauseID)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete points: %w", err)
	}

	for _, clauseID := range doomed {
		if key, ok := ix.keyOf[clauseID]; ok {
			delete(ix.liveKey, key)
			delete(ix.keyOf, clauseID)
		}
		delete(ix.points, clauseID)
	}
	return len(doomed), nil
}

// Len returns the number of live points.
func (ix *Index) Len() int {
	if ix.ensure() != nil {
		return 0
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.points)
}

// Close releases the point store. Searching after Close is not supported.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.db == nil {
		return nil
	}
	err := ix.db.Close()
	ix.db = nil
	return err
}

func normalizeVectorInPlace(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}
