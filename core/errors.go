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

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidClause indicates a Clause failed validation.
	ErrInvalidClause = errors.New("invalid clause")

	// ErrInvalidAnalysis indicates a ClauseAnalysis failed validation.
	ErrInvalidAnalysis = errors.New("invalid clause analysis")

	// ErrEmptyOwnerID indicates a required owner id is missing.
	ErrEmptyOwnerID = errors.New("owner id cannot be empty")

	// ErrEmptyDocumentID indicates a required document id is missing.
	ErrEmptyDocumentID = errors.New("document id cannot be empty")

	// ErrEmptyClauseID indicates a required clause id is missing.
	ErrEmptyClauseID = errors.New("clause id cannot be empty")

	// ErrInvalidDocumentStatus indicates an unrecognized document status.
	ErrInvalidDocumentStatus = errors.New("invalid document status")
)
