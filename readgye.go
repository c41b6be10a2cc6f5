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


package readgye

import (
	"log/slog"

	"github.com/poiesic/readgye/ai"
	"github.com/poiesic/readgye/ai/openai"
	"github.com/poiesic/readgye/ingestion"
	"github.com/poiesic/readgye/retrieval"
	"github.com/poiesic/readgye/storage"
	"github.com/poiesic/readgye/storage/sqlite"
	"github.com/poiesic/readgye/vecindex"
)

// Service is the composition root: the relational store, the optional
// vector index and the embedding gateway, wired together and handed to
// retrievers and ingestion pipelines.
type Service struct {
	backend  *sqlite.Backend
	repo     storage.ContractRepository
	index    *vecindex.Index
	embedder ai.Embedder
	logger   *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	aiConfig    *ai.Config
	indexConfig vecindex.Config
}

// WithAIConfig sets the embedding provider configuration.
func WithAIConfig(cfg *ai.Config) ServiceOption {
	return func(o *serviceOptions) {
		if cfg != nil {
			o.aiConfig = cfg
		}
	}
}

// WithIndexConfig sets the vector index configuration. The zero value
// leaves the index disabled and retrieval runs on the fallback matcher.
func WithIndexConfig(cfg vecindex.Config) ServiceOption {
	return func(o *serviceOptions) {
		o.indexConfig = cfg
	}
}

// NewService opens the relational store at dbPath and wires the embedding
// gateway and vector index around it.
func NewService(dbPath string, opts ...ServiceOption) (*Service, error) {
	options := &serviceOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := sqlite.OpenBackend(dbPath)
	if err != nil {
		return nil, err
	}

	embedder, err := openai.NewEmbedder(options.aiConfig)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &Service{
		backend:  backend,
		repo:     sqlite.NewContractRepository(backend),
		index:    vecindex.New(options.indexConfig),
		embedder: ai.NewGateway(embedder),
		logger:   slog.Default(),
	}, nil
}

// Close releases the vector index and the relational store.
func (s *Service) Close() error {
	if err := s.index.Close(); err != nil {
		s.logger.Error("error closing vector index", "err", err)
	}
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing storage backend", "err", err)
		return err
	}
	return nil
}

// Repository exposes the contract repository.
func (s *Service) Repository() storage.ContractRepository {
	return s.repo
}

// NewRetriever creates a retriever over the service's stores.
func (s *Service) NewRetriever(opts ...retrieval.Option) (*retrieval.Retriever, error) {
	opts = append([]retrieval.Option{retrieval.WithVectorIndex(s.index)}, opts...)
	return retrieval.NewRetriever(s.repo, s.embedder, opts...)
}

// NewIngestionPipeline creates an ingestion pipeline over the service's
// stores.
func (s *Service) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	opts = append([]ingestion.Option{ingestion.WithVectorIndex(s.index)}, opts...)
	return ingestion.NewPipeline(s.repo, s.embedder, opts...)
}
