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


// Package ai provides abstractions for the AI services used by the clause
// retrieval subsystem.
//
// This package defines the Embedder interface for turning text into vectors
// and the Gateway that wraps it with the retrieval subsystem's blank-text
// no-op rule. It follows the dependency inversion principle: everything
// above it depends on the abstractions, never on a concrete provider.
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Deterministic test doubles for unit testing without external
//     services
//
// Public constructors (openai.NewEmbedder) return the interface type to
// enforce abstraction; test constructors (mock.NewMockEmbedder) return the
// concrete type so tests can inject behavior and assert call counts.
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithEmbeddingModel("text-embedding-3-small"))
//	embedder, err := openai.NewEmbedder(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	gateway := ai.NewGateway(embedder)
//	vec, err := gateway.EmbedText(ctx, "보증금 반환 조건이 뭐야?")
package ai
