package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/vecdocs/ai"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

// AzureProvider implements ai.AIProvider for Azure OpenAI deployments.
//
// Documents are written one per store call. The next call starts only after
// the previous one returns.
type AzureProvider struct {
	config   *ai.KeyConfiguration
	embedder *Embedder
	logger   *slog.Logger
}

// Embedder returns the text embedding service.
func (p *AzureProvider) Embedder() ai.Embedder {
	return p.embedder
}

// AddDocuments writes docs one at a time, stopping at the first failure.
func (p *AzureProvider) AddDocuments(ctx context.Context, store vectorstores.VectorStore, docs []schema.Document) error {
	return addSequential(ctx, store, docs, p.logger)
}

// Close releases resources held by the provider.
func (p *AzureProvider) Close() error {
	p.logger.Debug("closing Azure OpenAI provider")
	return nil
}

func addSequential(ctx context.Context, store vectorstores.VectorStore, docs []schema.Document, logger *slog.Logger) error {
	logger.Debug("adding documents one at a time", "count", len(docs))
	for i := range docs {
		if _, err := store.AddDocuments(ctx, []schema.Document{docs[i]}); err != nil {
			logger.Error("failed to add document", "index", i, "count", len(docs), "err", err)
			return fmt.Errorf("add document %d of %d: %w", i+1, len(docs), err)
		}
	}
	return nil
}
