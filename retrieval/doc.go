// Package retrieval finds previously analyzed contract clauses relevant to a
// natural-language question and produces the grounded context plus citations
// for the answering step.
//
// Retrieval runs as a tiered protocol. Tier 1 queries the ANN index; when it
// returns nothing, tier 2 scores persisted embedding rows by exact cosine
// similarity; when both tiers are empty, the result degrades to an unranked
// context with no citations. Surviving candidates are re-fetched from the
// relational store with owner and document-status filters re-applied, then
// reranked by a fusion of vector score, lexical overlap and risk boost.
package retrieval
