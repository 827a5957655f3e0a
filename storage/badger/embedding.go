package badger

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/vecdocs/core"
	"github.com/poiesic/vecdocs/storage"
)

// embeddingCache implements storage.EmbeddingCache on a BadgerDB backend.
type embeddingCache struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.EmbeddingCache = (*embeddingCache)(nil)

// NewEmbeddingCache creates an embedding cache on backend.
// The backend is owned by the caller; closing the cache leaves it open.
func NewEmbeddingCache(backend *Backend) (storage.EmbeddingCache, error) {
	if backend == nil {
		return nil, errors.New("backend required")
	}
	return &embeddingCache{
		backend: backend,
		logger:  slog.Default().With("component", "embedding-cache"),
	}, nil
}

// GetEmbeddings returns cached vectors for keys; misses are omitted.
func (c *embeddingCache) GetEmbeddings(ctx context.Context, keys ...core.ID) (map[core.ID][]float32, error) {
	found := make(map[core.ID][]float32, len(keys))
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		for _, key := range keys {
			if err := ctx.Err(); err != nil {
				return err
			}
			item, err := tx.Get(makeEmbeddingKey(key))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			err = item.Value(func(val []byte) error {
				embedding, err := storage.UnmarshalEmbedding(val)
				if err != nil {
					return err
				}
				found[key] = embedding.Vector
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		c.logger.Error("error reading cached embeddings", "keys", len(keys), "err", err)
		return nil, err
	}

	c.logger.Debug("embedding cache lookup", "keys", len(keys), "hits", len(found))
	return found, nil
}

// PutEmbeddings stores vectors, replacing existing entries.
func (c *embeddingCache) PutEmbeddings(ctx context.Context, vectors map[core.ID][]float32) error {
	if len(vectors) == 0 {
		return nil
	}
	err := c.backend.WithWriteBatch(func(wb *badger.WriteBatch) error {
		for key, vector := range vectors {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := wb.Set(makeEmbeddingKey(key), storage.MarshalEmbedding(&core.CachedEmbedding{Vector: vector})); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.logger.Error("error writing cached embeddings", "count", len(vectors), "err", err)
		return err
	}
	return nil
}

// Close is a no-op; the backend outlives the cache.
func (c *embeddingCache) Close() error {
	return nil
}
