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

import "fmt"

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - OwnerID must not be empty (every document is hard-scoped to an owner)
//   - Status must be one of the known statuses
//
// NOT validated:
//   - Filename (uploads may arrive unnamed)
//   - CreatedAt (set by the repository)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.OwnerID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyOwnerID)
	}

	if err := ValidateDocumentStatus(doc.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	return nil
}

// ValidateDocumentStatus validates that a status string is a known value.
func ValidateDocumentStatus(status string) error {
	switch status {
	case DocumentStatusUploaded, DocumentStatusAnalyzing, DocumentStatusDone, DocumentStatusFailed:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDocumentStatus, status)
	}
}

// ValidateClause validates a Clause according to domain rules.
//
// Validation rules:
//   - DocumentID must not be empty
//
// NOT validated (clause extraction is best-effort):
//   - ClauseNumber, Title, Body (any of these may be empty)
func ValidateClause(clause *Clause) error {
	if clause == nil {
		return fmt.Errorf("%w: clause is nil", ErrInvalidClause)
	}

	if clause.DocumentID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidClause, ErrEmptyDocumentID)
	}

	return nil
}

// ValidateAnalysis validates a ClauseAnalysis according to domain rules.
//
// Validation rules:
//   - ClauseID must not be empty (analyses are 1:1 with clauses)
//
// NOT validated:
//   - RiskLevel (unrecognized levels rank as RiskUnknown, they are not
//     rejected at the boundary)
func ValidateAnalysis(analysis *ClauseAnalysis) error {
	if analysis == nil {
		return fmt.Errorf("%w: analysis is nil", ErrInvalidAnalysis)
	}

	if analysis.ClauseID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidAnalysis, ErrEmptyClauseID)
	}

	return nil
}

// NormalizeRiskLevel maps an arbitrary risk string onto a known RiskLevel,
// defaulting to RiskUnknown.
func NormalizeRiskLevel(level RiskLevel) RiskLevel {
	switch level {
	case RiskHigh, RiskMedium, RiskLow:
		return level
	default:
		return RiskUnknown
	}
}
