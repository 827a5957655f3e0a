package mock

import (
	"context"
	"sync"

	"github.com/poiesic/vecdocs/ai"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

// MockProvider is a test double for ai.AIProvider.
type MockProvider struct {
	embedder   *MockEmbedder
	sequential bool

	mu     sync.Mutex
	writes [][]schema.Document
	closed bool
}

var _ ai.AIProvider = (*MockProvider)(nil)

// NewMockProvider creates a mock provider that writes all documents in one store call.
//
// Returns the concrete type so tests can inspect writes.
func NewMockProvider() *MockProvider {
	return &MockProvider{embedder: NewMockEmbedder()}
}

// NewSequentialMockProvider creates a mock provider that writes one document per store call.
func NewSequentialMockProvider() *MockProvider {
	return &MockProvider{embedder: NewMockEmbedder(), sequential: true}
}

// NewMockProviderWithEmbedder creates a mock provider around a custom embedder.
func NewMockProviderWithEmbedder(embedder *MockEmbedder, sequential bool) *MockProvider {
	return &MockProvider{embedder: embedder, sequential: sequential}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// AddDocuments forwards docs to store and records every store call.
func (p *MockProvider) AddDocuments(ctx context.Context, store vectorstores.VectorStore, docs []schema.Document) error {
	if len(docs) == 0 {
		return nil
	}

	batches := [][]schema.Document{docs}
	if p.sequential {
		batches = make([][]schema.Document, len(docs))
		for i := range docs {
			batches[i] = []schema.Document{docs[i]}
		}
	}

	for _, batch := range batches {
		p.mu.Lock()
		p.writes = append(p.writes, batch)
		p.mu.Unlock()

		if _, err := store.AddDocuments(ctx, batch); err != nil {
			return err
		}
	}
	return nil
}

// Close marks the provider closed.
func (p *MockProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Writes returns the document batches passed to the store, in call order.
func (p *MockProvider) Writes() [][]schema.Document {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]schema.Document(nil), p.writes...)
}

// Closed reports whether Close was called.
func (p *MockProvider) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}
