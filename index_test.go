package vecdocs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
	"github.com/poiesic/vecdocs/ai"
	"github.com/poiesic/vecdocs/ai/mock"
	"github.com/poiesic/vecdocs/storage/badger"
	"github.com/poiesic/vecdocs/vectorstore"
	"github.com/poiesic/vecdocs/vectorstore/supabase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/schema"
)

// mockFactory builds mock providers that write like the real ones: one
// document per call for Azure, one batch otherwise.
type mockFactory struct {
	mu        sync.Mutex
	providers []*mock.MockProvider
	err       error
}

func (f *mockFactory) build(cfg *ai.KeyConfiguration) (ai.AIProvider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p := mock.NewMockProvider()
	if cfg.IsAzure() {
		p = mock.NewSequentialMockProvider()
	}
	f.providers = append(f.providers, p)
	return p, nil
}

func newTestIndex(t *testing.T, opts ...Option) (*Index, *supabase.FakeQuerier, *mockFactory) {
	t.Helper()
	client, q := supabase.NewFakeClient()
	factory := &mockFactory{}
	opts = append([]Option{WithProviderFactory(factory.build)}, opts...)
	idx, err := New(client, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx, q, factory
}

func standardConfig() *ai.KeyConfiguration {
	return ai.NewKeyConfiguration(ai.WithAPIKey("sk-test"), ai.WithEmbeddingModel("text-embedding-3-small"))
}

func azureConfig() *ai.KeyConfiguration {
	return ai.NewKeyConfiguration(ai.WithAPIKey("azure-key"), ai.WithAzure("contoso", "embeddings", ""))
}

func chunks(fileName string, contents ...string) []schema.Document {
	docs := make([]schema.Document, len(contents))
	for i, c := range contents {
		docs[i] = schema.Document{PageContent: c, Metadata: map[string]any{"file_name": fileName}}
	}
	return docs
}

func insertCalls(q *supabase.FakeQuerier) []supabase.Call {
	var calls []supabase.Call
	for _, c := range q.Calls() {
		if strings.HasPrefix(c.SQL, "INSERT") {
			calls = append(calls, c)
		}
	}
	return calls
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrClientRequired)

	client, _ := supabase.NewFakeClient()
	idx, err := New(client, WithProviderFactory(nil), WithLogger(nil))
	require.NoError(t, err)
	assert.Same(t, client, idx.Client())
	require.NoError(t, idx.Close())
	assert.False(t, client.Closed(), "New does not take ownership of the client")
}

func TestOpen_InvalidConnection(t *testing.T) {
	_, err := Open(context.Background(), supabase.Connection{})
	assert.ErrorIs(t, err, supabase.ErrMissingURL)
}

func TestSaveEmbeddings_StandardWritesOneBatch(t *testing.T) {
	idx, q, factory := newTestIndex(t)

	err := idx.SaveEmbeddings(context.Background(), standardConfig(), chunks("report.pdf", "one", "two", "three"))
	require.NoError(t, err)

	require.Len(t, factory.providers, 1)
	writes := factory.providers[0].Writes()
	require.Len(t, writes, 1)
	assert.Len(t, writes[0], 3)

	inserts := insertCalls(q)
	require.Len(t, inserts, 1)
	assert.Len(t, inserts[0].Args, 9)
}

func TestSaveEmbeddings_AzureWritesOnePerDocument(t *testing.T) {
	idx, q, factory := newTestIndex(t)

	err := idx.SaveEmbeddings(context.Background(), azureConfig(), chunks("report.pdf", "one", "two", "three"))
	require.NoError(t, err)

	writes := factory.providers[0].Writes()
	require.Len(t, writes, 3)
	for i, want := range []string{"one", "two", "three"} {
		require.Len(t, writes[i], 1)
		assert.Equal(t, want, writes[i][0].PageContent)
	}

	inserts := insertCalls(q)
	require.Len(t, inserts, 3)
	for i, want := range []string{"one", "two", "three"} {
		assert.Equal(t, want, inserts[i].Args[0], "documents are written in order")
	}
}

func TestSaveEmbeddings_Empty(t *testing.T) {
	for _, cfg := range []*ai.KeyConfiguration{standardConfig(), azureConfig()} {
		idx, q, _ := newTestIndex(t)
		require.NoError(t, idx.SaveEmbeddings(context.Background(), cfg, nil))
		assert.Empty(t, q.Calls())
	}
}

func TestSaveEmbeddings_Sanitizes(t *testing.T) {
	idx, q, _ := newTestIndex(t)
	docs := chunks("notes.txt", "  café \\u0041bc\tend  ")
	original := docs[0].PageContent

	require.NoError(t, idx.SaveEmbeddings(context.Background(), standardConfig(), docs))

	inserts := insertCalls(q)
	require.Len(t, inserts, 1)
	assert.Equal(t, "caf  bc end", inserts[0].Args[0])
	assert.Equal(t, map[string]any{"file_name": "notes.txt"}, inserts[0].Args[1])
	assert.Equal(t, original, docs[0].PageContent, "caller's documents are not modified")
}

func TestSaveEmbeddings_Errors(t *testing.T) {
	t.Run("nil configuration", func(t *testing.T) {
		idx, _, _ := newTestIndex(t)
		err := idx.SaveEmbeddings(context.Background(), nil, chunks("a", "x"))
		assert.ErrorIs(t, err, ErrKeyConfigurationRequired)
	})

	t.Run("provider construction", func(t *testing.T) {
		idx, _, factory := newTestIndex(t)
		factory.err = errors.New("bad config")
		err := idx.SaveEmbeddings(context.Background(), standardConfig(), chunks("a", "x"))
		assert.ErrorIs(t, err, factory.err)
	})

	t.Run("store failure on azure stops at first document", func(t *testing.T) {
		idx, q, factory := newTestIndex(t)
		cause := errors.New("permission denied for table documents")
		calls := 0
		q.QueryFunc = func(context.Context, string, ...any) (pgx.Rows, error) {
			calls++
			if calls == 2 {
				return nil, cause
			}
			return supabase.NewFakeRows([]any{"1"}), nil
		}

		err := idx.SaveEmbeddings(context.Background(), azureConfig(), chunks("a", "x", "y", "z"))
		assert.ErrorIs(t, err, cause)
		assert.Len(t, factory.providers[0].Writes(), 2)
	})

	t.Run("embedder failure", func(t *testing.T) {
		idx, q, factory := newTestIndex(t)
		cfg := standardConfig()
		_, err := idx.provider(cfg)
		require.NoError(t, err)
		cause := errors.New("rate limited")
		factory.providers[0].GetMockEmbedder().EmbedTextsFunc = func(context.Context, []string) ([][]float32, error) {
			return nil, cause
		}

		err = idx.SaveEmbeddings(context.Background(), cfg, chunks("a", "x"))
		assert.ErrorIs(t, err, cause)
		assert.Empty(t, q.Calls())
	})
}

func TestGetVectorStore(t *testing.T) {
	for _, cfg := range []*ai.KeyConfiguration{standardConfig(), azureConfig()} {
		t.Run(string(cfg.APIType), func(t *testing.T) {
			idx, q, _ := newTestIndex(t)
			metadata := map[string]any{"file_name": "bulk.txt", "source": "import"}

			store, err := idx.GetVectorStore(context.Background(), cfg,
				[]string{"first line", "second"}, metadata)
			require.NoError(t, err)
			assert.Equal(t, vectorstore.TableName, store.TableName())
			assert.Equal(t, vectorstore.QueryName, store.QueryName())

			// Bulk load is one batch for every API type
			inserts := insertCalls(q)
			require.Len(t, inserts, 1)
			assert.Equal(t, "first line", inserts[0].Args[0])
			assert.Equal(t, metadata, inserts[0].Args[1])
			assert.Equal(t, metadata, inserts[0].Args[4])
		})
	}
}

func TestGetExistingVectorStore(t *testing.T) {
	idx, q, _ := newTestIndex(t)

	store, err := idx.GetExistingVectorStore(context.Background(), standardConfig(), "report.pdf")
	require.NoError(t, err)
	assert.Empty(t, q.Calls(), "opening a store does not query")

	filter, ok := store.Filter()
	require.True(t, ok)
	assert.Equal(t, vectorstore.FileNameFilter("report.pdf"), filter)
	assert.Equal(t, "metadata->>file_name eq report.pdf", filter.String())

	_, err = store.SimilaritySearch(context.Background(), "revenue", 4)
	require.NoError(t, err)
	call := q.Calls()[0]
	assert.Contains(t, call.SQL, `FROM "match_documents"(query_embedding => $1, match_count => $2)`)
	assert.Contains(t, call.SQL, `WHERE "metadata"->>'file_name' = $3`)
	assert.Equal(t, "report.pdf", call.Args[2])
}

func TestGetExistingVectorStore_AnyFileName(t *testing.T) {
	idx, _, _ := newTestIndex(t)

	for _, name := range []string{"", "missing.txt"} {
		store, err := idx.GetExistingVectorStore(context.Background(), standardConfig(), name)
		require.NoError(t, err)
		filter, _ := store.Filter()
		assert.Equal(t, name, filter.Value)
	}
}

func TestIndex_ProviderReuseAndClose(t *testing.T) {
	idx, _, factory := newTestIndex(t)
	ctx := context.Background()

	_, err := idx.GetExistingVectorStore(ctx, standardConfig(), "a")
	require.NoError(t, err)
	_, err = idx.GetExistingVectorStore(ctx, standardConfig(), "b")
	require.NoError(t, err)
	_, err = idx.GetExistingVectorStore(ctx, azureConfig(), "a")
	require.NoError(t, err)
	require.Len(t, factory.providers, 2, "equal configurations share a provider")

	require.NoError(t, idx.Close())
	require.NoError(t, idx.Close())
	for _, p := range factory.providers {
		assert.True(t, p.Closed())
	}

	_, err = idx.GetExistingVectorStore(ctx, standardConfig(), "a")
	assert.ErrorIs(t, err, ErrIndexClosed)
	_, err = idx.DeleteFile(ctx, "a")
	assert.ErrorIs(t, err, ErrIndexClosed)
}

func TestIndex_DoesNotMutateConfiguration(t *testing.T) {
	idx, _, _ := newTestIndex(t)
	cfg := &ai.KeyConfiguration{APIKey: "k", Host: "http://localhost:11434", EmbeddingModel: "m"}
	before := *cfg

	require.NoError(t, idx.SaveEmbeddings(context.Background(), cfg, chunks("a", "x")))
	assert.Equal(t, before, *cfg)
}

func TestDeleteFile(t *testing.T) {
	idx, q, _ := newTestIndex(t)

	_, err := idx.DeleteFile(context.Background(), "old.txt")
	require.NoError(t, err)

	call := q.Calls()[0]
	assert.Equal(t, `DELETE FROM "documents" WHERE "metadata"->>'file_name' = $1`, call.SQL)
	assert.Equal(t, []any{"old.txt"}, call.Args)
}

func TestSaveEmbeddings_EmbeddingCache(t *testing.T) {
	cache, backend, err := badger.NewMemoryEmbeddingCache()
	require.NoError(t, err)
	defer backend.Close()

	idx, _, factory := newTestIndex(t, WithEmbeddingCache(cache))
	ctx := context.Background()
	cfg := standardConfig()

	require.NoError(t, idx.SaveEmbeddings(ctx, cfg, chunks("a", "repeated text")))
	require.NoError(t, idx.SaveEmbeddings(ctx, cfg, chunks("b", "repeated text", "new text")))

	embedder := factory.providers[0].GetMockEmbedder()
	assert.Equal(t, []string{"repeated text", "new text"}, embedder.Texts())
}

func TestSaveEmbeddings_OpenAIProvider(t *testing.T) {
	var (
		mu     sync.Mutex
		inputs [][]string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		mu.Lock()
		inputs = append(inputs, req.Input)
		mu.Unlock()

		data := make([]map[string]any, len(req.Input))
		for i := range req.Input {
			data[i] = map[string]any{"object": "embedding", "embedding": []float32{0.5, float32(i)}, "index": i}
		}
		json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data})
	}))
	defer server.Close()

	client, q := supabase.NewFakeClient()
	idx, err := New(client)
	require.NoError(t, err)
	defer idx.Close()

	cfg := ai.NewKeyConfiguration(ai.WithHost(server.URL), ai.WithEmbeddingModel("local-embed"))
	require.NoError(t, idx.SaveEmbeddings(context.Background(), cfg, chunks("a.txt", "alpha", "beta")))

	assert.Equal(t, [][]string{{"alpha", "beta"}}, inputs)
	inserts := insertCalls(q)
	require.Len(t, inserts, 1)
	assert.Equal(t, pgvector.NewVector([]float32{0.5, 1}), inserts[0].Args[5])
}

func TestSaveEmbeddings_AzureOpenAIProvider(t *testing.T) {
	var (
		mu     sync.Mutex
		inputs [][]string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/openai/deployments/") {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		mu.Lock()
		inputs = append(inputs, req.Input)
		mu.Unlock()

		data := make([]map[string]any, len(req.Input))
		for i := range req.Input {
			data[i] = map[string]any{"object": "embedding", "embedding": []float32{0.25, float32(len(req.Input[i]))}, "index": i}
		}
		json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data})
	}))
	defer server.Close()

	client, q := supabase.NewFakeClient()
	idx, err := New(client)
	require.NoError(t, err)
	defer idx.Close()

	cfg := ai.NewKeyConfiguration(
		ai.WithAPIKey("azure-key"),
		ai.WithAzure("contoso", "embeddings", ""),
		ai.WithAzureEndpoint(server.URL),
	)
	require.NoError(t, idx.SaveEmbeddings(context.Background(), cfg, chunks("a.txt", "one", "three", "seven!")))

	assert.Equal(t, [][]string{{"one"}, {"three"}, {"seven!"}}, inputs)
	inserts := insertCalls(q)
	require.Len(t, inserts, 3)
	for i, content := range []string{"one", "three", "seven!"} {
		require.Len(t, inserts[i].Args, 3)
		assert.Equal(t, content, inserts[i].Args[0])
		assert.Equal(t, pgvector.NewVector([]float32{0.25, float32(len(content))}), inserts[i].Args[2])
	}
}

func TestBound(t *testing.T) {
	idx, q, _ := newTestIndex(t)
	ctx := context.Background()

	_, err := idx.NewIngestionPipeline(nil)
	assert.ErrorIs(t, err, ErrKeyConfigurationRequired)
	_, err = idx.NewSearcher(nil)
	assert.ErrorIs(t, err, ErrKeyConfigurationRequired)

	pipeline, err := idx.NewIngestionPipeline(standardConfig())
	require.NoError(t, err)
	defer pipeline.Release()
	require.NoError(t, pipeline.Ingest(ctx, "chat.txt", []string{"hello"}, nil))
	assert.Len(t, insertCalls(q), 1)

	searcher, err := idx.NewSearcher(standardConfig())
	require.NoError(t, err)
	results, err := searcher.Search(ctx, "chat.txt", "hello", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, "chat.txt", q.Calls()[1].Args[2])
}
