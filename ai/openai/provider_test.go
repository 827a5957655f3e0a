package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/vecdocs/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

// recordingStore captures every AddDocuments call.
type recordingStore struct {
	calls  [][]schema.Document
	failAt int // 1-based call number that fails; 0 never fails
}

var _ vectorstores.VectorStore = (*recordingStore)(nil)

func (s *recordingStore) AddDocuments(_ context.Context, docs []schema.Document, _ ...vectorstores.Option) ([]string, error) {
	s.calls = append(s.calls, docs)
	if s.failAt == len(s.calls) {
		return nil, errors.New("insert failed")
	}
	ids := make([]string, len(docs))
	return ids, nil
}

func (s *recordingStore) SimilaritySearch(context.Context, string, int, ...vectorstores.Option) ([]schema.Document, error) {
	return nil, nil
}

func makeDocs(contents ...string) []schema.Document {
	docs := make([]schema.Document, len(contents))
	for i, c := range contents {
		docs[i] = schema.Document{PageContent: c, Metadata: map[string]any{"file_name": "a.txt"}}
	}
	return docs
}

func TestNewProvider_SelectsVariant(t *testing.T) {
	t.Run("openai", func(t *testing.T) {
		provider, err := NewProvider(ai.NewKeyConfiguration(
			ai.WithHost("http://localhost:11434"),
			ai.WithEmbeddingModel("embeddinggemma"),
		))
		require.NoError(t, err)
		defer provider.Close()

		assert.IsType(t, &Provider{}, provider)
		assert.NotNil(t, provider.Embedder())
	})

	t.Run("azure", func(t *testing.T) {
		provider, err := NewProvider(ai.NewKeyConfiguration(
			ai.WithAPIKey("secret"),
			ai.WithAzure("my-resource", "embeddings", ""),
		))
		require.NoError(t, err)
		defer provider.Close()

		assert.IsType(t, &AzureProvider{}, provider)
		assert.NotNil(t, provider.Embedder())
	})

	t.Run("invalid config", func(t *testing.T) {
		_, err := NewProvider(&ai.KeyConfiguration{APIType: ai.APITypeAzureOpenAI})
		assert.Error(t, err)
	})

	t.Run("caller config not modified", func(t *testing.T) {
		cfg := &ai.KeyConfiguration{Host: "http://localhost:11434", EmbeddingModel: "m"}
		_, err := NewProvider(cfg)
		require.NoError(t, err)

		assert.Equal(t, "http://localhost:11434", cfg.Host)
		assert.Equal(t, ai.APIType(""), cfg.APIType)
	})
}

func TestProvider_AddDocumentsBatched(t *testing.T) {
	provider, err := NewProvider(ai.NewKeyConfiguration())
	require.NoError(t, err)

	store := &recordingStore{}
	docs := makeDocs("one", "two", "three")

	require.NoError(t, provider.AddDocuments(context.Background(), store, docs))

	require.Len(t, store.calls, 1)
	assert.Equal(t, docs, store.calls[0])
}

func TestProvider_AddDocumentsEmpty(t *testing.T) {
	provider, err := NewProvider(ai.NewKeyConfiguration())
	require.NoError(t, err)

	store := &recordingStore{}
	require.NoError(t, provider.AddDocuments(context.Background(), store, nil))
	assert.Empty(t, store.calls)
}

func TestProvider_AddDocumentsError(t *testing.T) {
	provider, err := NewProvider(ai.NewKeyConfiguration())
	require.NoError(t, err)

	store := &recordingStore{failAt: 1}
	err = provider.AddDocuments(context.Background(), store, makeDocs("one"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "insert failed")
}

func TestAzureProvider_AddDocumentsSequential(t *testing.T) {
	provider, err := NewProvider(ai.NewKeyConfiguration(
		ai.WithAPIKey("secret"),
		ai.WithAzure("my-resource", "embeddings", ""),
	))
	require.NoError(t, err)

	store := &recordingStore{}
	docs := makeDocs("one", "two", "three", "four")

	require.NoError(t, provider.AddDocuments(context.Background(), store, docs))

	require.Len(t, store.calls, len(docs))
	for i, call := range store.calls {
		require.Len(t, call, 1)
		assert.Equal(t, docs[i], call[0])
	}
}

func TestAzureProvider_StopsAtFirstFailure(t *testing.T) {
	provider, err := NewProvider(ai.NewKeyConfiguration(
		ai.WithAPIKey("secret"),
		ai.WithAzure("my-resource", "embeddings", ""),
	))
	require.NoError(t, err)

	store := &recordingStore{failAt: 2}
	err = provider.AddDocuments(context.Background(), store, makeDocs("one", "two", "three"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "add document 2 of 3")
	assert.Len(t, store.calls, 2)
}
