// Package ingestion turns analyzed clauses into durable embedding rows and
// mirrors them into the vector index. Embedding happens asynchronously on a
// worker pool so analysis persistence never waits on the provider; clauses
// that miss their embedding are recovered by an explicit backfill sweep.
package ingestion
