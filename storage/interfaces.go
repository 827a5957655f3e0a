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


package storage

import (
	"context"

	"github.com/poiesic/vecdocs/core"
)

// EmbeddingCache stores embedding vectors keyed by a content hash.
//
// Keys are derived with core.IDFromContent over the embedding model and text,
// so vectors from different models never collide.
type EmbeddingCache interface {
	// GetEmbeddings returns the cached vectors for the given keys.
	// Missing keys are absent from the result; a miss is not an error.
	GetEmbeddings(ctx context.Context, keys ...core.ID) (map[core.ID][]float32, error)

	// PutEmbeddings stores vectors, replacing any existing entries.
	PutEmbeddings(ctx context.Context, vectors map[core.ID][]float32) error

	// Close releases resources held by the cache.
	Close() error
}

// CacheKey derives the cache key for text embedded with model.
func CacheKey(model, text string) core.ID {
	return core.IDFromContent(model + "\x00" + text)
}
