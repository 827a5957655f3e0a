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


package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/vecdocs/ai"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

// Provider implements ai.AIProvider for OpenAI and OpenAI-compatible services.
// All documents of a write go to the store in a single call.
type Provider struct {
	config   *ai.KeyConfiguration
	embedder *Embedder
	logger   *slog.Logger
}

// NewProvider creates the provider matching config.APIType.
// A copy of config is validated and normalized; the caller's value is left untouched.
//
// Returns ai.AIProvider interface (not *Provider) to enforce abstraction
// and prevent coupling to provider-specific implementation details.
func NewProvider(config *ai.KeyConfiguration) (ai.AIProvider, error) {
	if config == nil {
		return nil, fmt.Errorf("key configuration required")
	}
	cfg := *config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Create embedder (using internal constructor for concrete type)
	embedder, err := newEmbedder(&cfg)
	if err != nil {
		return nil, err
	}

	if cfg.IsAzure() {
		return &AzureProvider{
			config:   &cfg,
			embedder: embedder,
			logger:   slog.Default().With("component", "azure-provider"),
		}, nil
	}

	return &Provider{
		config:   &cfg,
		embedder: embedder,
		logger:   slog.Default().With("component", "openai-provider"),
	}, nil
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// AddDocuments writes all docs with one store call.
func (p *Provider) AddDocuments(ctx context.Context, store vectorstores.VectorStore, docs []schema.Document) error {
	return addBatched(ctx, store, docs, p.logger)
}

// Close releases resources held by the provider.
// Currently a no-op as the underlying clients don't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}

func addBatched(ctx context.Context, store vectorstores.VectorStore, docs []schema.Document, logger *slog.Logger) error {
	if len(docs) == 0 {
		return nil
	}
	logger.Debug("adding documents in one batch", "count", len(docs))
	if _, err := store.AddDocuments(ctx, docs); err != nil {
		logger.Error("failed to add documents", "count", len(docs), "err", err)
		return fmt.Errorf("add documents: %w", err)
	}
	return nil
}
