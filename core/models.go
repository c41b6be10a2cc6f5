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


package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// KeyFromID derives a deterministic 64-bit key from an entity id using
// BLAKE2b hashing. Identical ids always produce identical keys; the vector
// index uses these as graph node keys.
func KeyFromID(id string) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(id))
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum)
}

// RiskLevel classifies how risky an analyzed clause is for the contract owner.
type RiskLevel string

const (
	// RiskHigh marks clauses that demand immediate attention.
	RiskHigh RiskLevel = "HIGH"
	// RiskMedium marks clauses worth reviewing.
	RiskMedium RiskLevel = "MEDIUM"
	// RiskLow marks clauses considered safe.
	RiskLow RiskLevel = "LOW"
	// RiskUnknown is used when an analysis carries no recognized level.
	RiskUnknown RiskLevel = "UNKNOWN"
)

// Document statuses. Only DocumentStatusDone documents participate in
// retrieval.
const (
	DocumentStatusUploaded  = "uploaded"
	DocumentStatusAnalyzing = "analyzing"
	DocumentStatusDone      = "done"
	DocumentStatusFailed    = "failed"
)

// Document is an uploaded contract owned by a single user.
type Document struct {
	ID        string
	OwnerID   string
	Filename  string
	Status    string
	CreatedAt time.Time
}

// Clause is a single numbered provision of a contract document.
type Clause struct {
	ID           string
	DocumentID   string
	ClauseNumber string
	Title        string
	Body         string
}

// ClauseAnalysis is the AI assessment of a clause. Exactly one analysis
// exists per retrievable clause.
type ClauseAnalysis struct {
	ID         string
	ClauseID   string
	RiskLevel  RiskLevel
	Summary    string
	Suggestion string
	Tags       []string
}

// ClauseEmbedding is the durable copy of a clause's vector. It is the source
// of truth for fallback similarity search; the external index only mirrors
// it. EmbeddingJSON holds the vector as a JSON float array and is decoded
// lazily so a single corrupt row cannot poison a batch.
type ClauseEmbedding struct {
	ID             string
	ClauseID       string
	OwnerID        string
	DocumentID     string
	EmbeddingModel string
	EmbeddingJSON  string
	Content        string
	CreatedAt      time.Time
}

// AnalyzedRow joins a clause with its analysis and owning document. Rows are
// only ever produced for "done" documents with an analysis present.
type AnalyzedRow struct {
	Clause   Clause
	Analysis ClauseAnalysis
	Document Document
}

// Candidate is a (clause id, raw vector score) pair produced by one of the
// retrieval tiers.
type Candidate struct {
	ClauseID string
	Score    float64
}

// RankedRow is an AnalyzedRow with its fused relevance score.
type RankedRow struct {
	Row   AnalyzedRow
	Score float64
}

// Citation is a structured pointer back to the source clause backing a
// generated answer. Score is the fused score rounded to 4 decimals.
type Citation struct {
	ClauseID         string
	DocumentID       string
	DocumentFilename string
	ClauseNumber     string
	ClauseTitle      string
	RiskLevel        RiskLevel
	Score            float64
}

// RetrievalResult is the grounded context for the assistant plus the
// citations backing it, in matching order.
type RetrievalResult struct {
	Context   string
	Citations []Citation
}
