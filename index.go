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



package vecdocs

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/poiesic/vecdocs/ai"
	"github.com/poiesic/vecdocs/ai/cached"
	"github.com/poiesic/vecdocs/ai/openai"
	"github.com/poiesic/vecdocs/core"
	"github.com/poiesic/vecdocs/storage"
	"github.com/poiesic/vecdocs/vectorstore"
	"github.com/poiesic/vecdocs/vectorstore/supabase"
	"github.com/tmc/langchaingo/schema"
)

// ProviderFactory builds an embeddings provider for a key configuration.
type ProviderFactory func(cfg *ai.KeyConfiguration) (ai.AIProvider, error)

// Index saves and retrieves document embeddings in the documents table.
// It is safe for concurrent use.
type Index struct {
	client      *supabase.Client
	ownsClient  bool
	newProvider ProviderFactory
	cache       storage.EmbeddingCache
	logger      *slog.Logger

	mu        sync.Mutex
	providers map[ai.KeyConfiguration]ai.AIProvider
	closed    bool
}

// Option configures an Index.
type Option func(*indexOptions)

type indexOptions struct {
	providerFactory ProviderFactory
	cache           storage.EmbeddingCache
	logger          *slog.Logger
}

// WithProviderFactory replaces the langchaingo OpenAI provider factory.
func WithProviderFactory(factory ProviderFactory) Option {
	return func(o *indexOptions) {
		o.providerFactory = factory
	}
}

// WithEmbeddingCache serves repeated texts from cache instead of the embeddings API.
// The Index does not close the cache.
func WithEmbeddingCache(cache storage.EmbeddingCache) Option {
	return func(o *indexOptions) {
		o.cache = cache
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *indexOptions) {
		o.logger = logger
	}
}

// Open connects to the project database and returns an Index that closes
// the connection when it is closed.
func Open(ctx context.Context, conn supabase.Connection, opts ...Option) (*Index, error) {
	client, err := supabase.Connect(ctx, conn)
	if err != nil {
		return nil, err
	}

	idx, err := New(client, opts...)
	if err != nil {
		client.Close()
		return nil, err
	}
	idx.ownsClient = true
	return idx, nil
}

// New returns an Index on an existing client. Closing the Index leaves client open.
func New(client *supabase.Client, opts ...Option) (*Index, error) {
	if client == nil {
		return nil, ErrClientRequired
	}

	options := &indexOptions{
		providerFactory: openai.NewProvider,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.providerFactory == nil {
		options.providerFactory = openai.NewProvider
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	return &Index{
		client:      client,
		newProvider: options.providerFactory,
		cache:       options.cache,
		logger:      options.logger.With("component", "index"),
		providers:   make(map[ai.KeyConfiguration]ai.AIProvider),
	}, nil
}

// Close releases every provider and, for an Index created by Open, the database connection.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return nil
	}
	idx.closed = true

	var errs []error
	for _, provider := range idx.providers {
		if err := provider.Close(); err != nil {
			idx.logger.Error("error closing AI provider", "err", err)
			errs = append(errs, err)
		}
	}
	clear(idx.providers)

	if idx.ownsClient {
		if err := idx.client.Close(); err != nil {
			idx.logger.Error("error closing database client", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Client returns the database client.
func (idx *Index) Client() *supabase.Client {
	return idx.client
}

// provider returns the provider for cfg, building it on first use.
// Configurations are compared by value so equal configurations share a provider.
func (idx *Index) provider(cfg *ai.KeyConfiguration) (ai.AIProvider, error) {
	if cfg == nil {
		return nil, ErrKeyConfigurationRequired
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return nil, ErrIndexClosed
	}
	key := *cfg
	key.Normalize()
	if p, ok := idx.providers[key]; ok {
		return p, nil
	}

	p, err := idx.newProvider(cfg)
	if err != nil {
		idx.logger.Error("error creating AI provider", "apiType", key.APIType, "err", err)
		return nil, err
	}
	idx.providers[key] = p
	return p, nil
}

func (idx *Index) embedder(cfg *ai.KeyConfiguration, provider ai.AIProvider) (ai.Embedder, error) {
	if idx.cache == nil {
		return provider.Embedder(), nil
	}
	return cached.NewEmbedder(provider.Embedder(), idx.cache, cfg.ModelID())
}

func (idx *Index) store(cfg *ai.KeyConfiguration, opts ...supabase.Option) (ai.AIProvider, *supabase.Store, error) {
	provider, err := idx.provider(cfg)
	if err != nil {
		return nil, nil, err
	}
	embedder, err := idx.embedder(cfg, provider)
	if err != nil {
		return nil, nil, err
	}

	opts = append([]supabase.Option{supabase.WithLogger(idx.logger.With("table", vectorstore.TableName))}, opts...)
	store, err := supabase.FromExistingIndex(idx.client, embedder, opts...)
	if err != nil {
		return nil, nil, err
	}
	return provider, store, nil
}

// SaveEmbeddings sanitizes docs and writes them to the documents table.
//
// Azure OpenAI configurations write each document in its own store call, in
// order; other configurations write all documents in one call. The first
// failure is returned and nothing is retried.
func (idx *Index) SaveEmbeddings(ctx context.Context, cfg *ai.KeyConfiguration, docs []schema.Document) error {
	provider, store, err := idx.store(cfg)
	if err != nil {
		return err
	}

	sanitized := core.SanitizeDocuments(docs)
	if err := provider.AddDocuments(ctx, store, sanitized); err != nil {
		idx.logger.Error("error saving embeddings", "count", len(docs), "err", err)
		return err
	}

	idx.logger.Debug("saved embeddings", "count", len(docs), "azure", cfg.IsAzure())
	return nil
}

// GetVectorStore sanitizes texts, writes them with metadata shared by every
// row, and returns a store over the documents table.
//
// All texts are written in a single batch regardless of API type.
func (idx *Index) GetVectorStore(ctx context.Context, cfg *ai.KeyConfiguration, texts []string, metadata map[string]any) (*supabase.Store, error) {
	provider, err := idx.provider(cfg)
	if err != nil {
		return nil, err
	}
	embedder, err := idx.embedder(cfg, provider)
	if err != nil {
		return nil, err
	}

	store, err := supabase.FromTexts(ctx, idx.client, embedder, core.SanitizeTexts(texts), metadata,
		supabase.WithLogger(idx.logger.With("table", vectorstore.TableName)))
	if err != nil {
		idx.logger.Error("error loading texts", "count", len(texts), "err", err)
		return nil, err
	}
	return store, nil
}

// GetExistingVectorStore returns a store whose searches only match rows with
// metadata file_name equal to fileName. fileName is not validated.
func (idx *Index) GetExistingVectorStore(ctx context.Context, cfg *ai.KeyConfiguration, fileName string) (*supabase.Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, store, err := idx.store(cfg, supabase.WithFilter(vectorstore.FileNameFilter(fileName)))
	if err != nil {
		return nil, err
	}
	return store, nil
}

// DeleteFile removes every row whose metadata file_name equals fileName.
func (idx *Index) DeleteFile(ctx context.Context, fileName string) (int64, error) {
	idx.mu.Lock()
	closed := idx.closed
	idx.mu.Unlock()
	if closed {
		return 0, ErrIndexClosed
	}
	return idx.client.DeleteDocuments(ctx, vectorstore.TableName, vectorstore.FileNameFilter(fileName))
}
