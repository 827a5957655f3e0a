// Package cached provides an ai.Embedder decorator backed by a storage.EmbeddingCache.
package cached

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/vecdocs/ai"
	"github.com/poiesic/vecdocs/core"
	"github.com/poiesic/vecdocs/storage"
)

// Embedder serves embeddings from a cache and asks the wrapped embedder only for misses.
type Embedder struct {
	inner  ai.Embedder
	cache  storage.EmbeddingCache
	model  string
	logger *slog.Logger
}

var _ ai.Embedder = (*Embedder)(nil)

// NewEmbedder wraps inner with cache. model namespaces cache keys and must
// identify the embedding model inner uses.
func NewEmbedder(inner ai.Embedder, cache storage.EmbeddingCache, model string) (ai.Embedder, error) {
	if inner == nil {
		return nil, errors.New("embedder required")
	}
	if cache == nil {
		return nil, errors.New("embedding cache required")
	}
	return &Embedder{
		inner:  inner,
		cache:  cache,
		model:  model,
		logger: slog.Default().With("component", "cached-embedder", "model", model),
	}, nil
}

// EmbedText returns the cached vector for text or embeds and caches it.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts returns vectors in input order, embedding only texts missing from the cache.
// Cache read and write failures are logged and the call falls back to the wrapped embedder.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	keys := make([]core.ID, len(texts))
	for i, text := range texts {
		keys[i] = storage.CacheKey(e.model, text)
	}

	cached, err := e.cache.GetEmbeddings(ctx, keys...)
	if err != nil {
		e.logger.Warn("embedding cache unavailable, embedding all texts", "err", err)
		cached = nil
	}

	vectors := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string
	// Duplicate texts in one call are embedded once
	pending := make(map[core.ID]int)
	for i, key := range keys {
		if v, ok := cached[key]; ok {
			vectors[i] = v
			continue
		}
		if _, ok := pending[key]; !ok {
			pending[key] = len(missTexts)
			missTexts = append(missTexts, texts[i])
		}
		missIdx = append(missIdx, i)
	}

	e.logger.Debug("embedding cache", "texts", len(texts), "misses", len(missTexts))
	if len(missTexts) == 0 {
		return vectors, nil
	}

	embedded, err := e.inner.EmbedTexts(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(embedded) != len(missTexts) {
		return nil, fmt.Errorf("embedding result mismatch. expected %d, received %d", len(missTexts), len(embedded))
	}

	fresh := make(map[core.ID][]float32, len(missTexts))
	for _, i := range missIdx {
		v := embedded[pending[keys[i]]]
		vectors[i] = v
		fresh[keys[i]] = v
	}

	if err := e.cache.PutEmbeddings(ctx, fresh); err != nil {
		e.logger.Warn("failed to store embeddings in cache", "count", len(fresh), "err", err)
	}

	return vectors, nil
}
