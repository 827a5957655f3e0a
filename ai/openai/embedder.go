package openai

import (
	"context"
	"log/slog"

	"github.com/poiesic/vecdocs/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder implements ai.Embedder using OpenAI-compatible embedding APIs.
type Embedder struct {
	embedder embeddings.Embedder
	logger   *slog.Logger
}

// clientOptions maps a validated configuration to langchaingo client options.
func clientOptions(config *ai.KeyConfiguration) []openai.Option {
	if config.IsAzure() {
		return []openai.Option{
			openai.WithAPIType(openai.APITypeAzure),
			openai.WithBaseURL(config.AzureBaseURL()),
			openai.WithToken(config.APIKey),
			openai.WithAPIVersion(config.AzureAPIVersion),
			// Azure addresses embeddings by deployment name
			openai.WithModel(config.AzureEmbeddingDeployment),
			openai.WithEmbeddingModel(config.AzureEmbeddingDeployment),
		}
	}

	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	token := config.APIKey
	if token == "" {
		token = "none"
	}
	return []openai.Option{
		openai.WithBaseURL(config.Host),
		openai.WithToken(token),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	}
}

// AzureEmbeddingBatchSize is the most texts sent in one Azure embeddings request.
const AzureEmbeddingBatchSize = 16

func embedderOptions(config *ai.KeyConfiguration) []embeddings.Option {
	opts := []embeddings.Option{embeddings.WithStripNewLines(true)}
	if config.IsAzure() {
		opts = append(opts, embeddings.WithBatchSize(AzureEmbeddingBatchSize))
	}
	return opts
}

// newEmbedder is an internal constructor that returns the concrete type.
// The configuration must already be validated.
func newEmbedder(config *ai.KeyConfiguration) (*Embedder, error) {
	client, err := openai.New(clientOptions(config)...)
	if err != nil {
		return nil, err
	}

	// Wrap in langchaingo embedder
	embedder, err := embeddings.NewEmbedder(client, embedderOptions(config)...)
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder: embedder,
		logger:   slog.Default().With("component", "openai-embedder", "api_type", string(config.APIType)),
	}, nil
}

// NewEmbedder creates a new embedder for the configured provider.
// The caller's configuration is not modified.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.KeyConfiguration) (ai.Embedder, error) {
	cfg := *config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newEmbedder(&cfg)
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	e.logger.Debug("generating embedding for single text", "length", len(text))

	vector, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		e.logger.Error("failed to generate embedding", "err", err)
		return nil, err
	}

	return vector, nil
}

// EmbedTexts generates vector embeddings for multiple text strings in a batch.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}

	return vectors, nil
}
