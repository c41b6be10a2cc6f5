// Package vecindex provides an embedded approximate-nearest-neighbor index
// over clause embeddings. Points are persisted in a badger keyspace and
// mirrored into an in-memory HNSW graph that is rebuilt on open.
//
// The index is an acceleration tier, not a source of truth: search results
// are candidate ids with scores, and callers re-fetch and re-authorize the
// underlying rows from relational storage. The index may be unavailable
// (construction failed, or it was never configured); every read degrades to
// an empty result in that case rather than returning an error.
package vecindex
