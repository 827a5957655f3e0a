package storage

import (
	"testing"

	"github.com/poiesic/vecdocs/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddingSerialization(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		embedding := &core.CachedEmbedding{Vector: []float32{0.1, -2.5, 3.75, 0}}

		got, err := UnmarshalEmbedding(MarshalEmbedding(embedding))
		require.NoError(t, err)
		assert.Equal(t, embedding.Vector, got.Vector)
	})

	t.Run("empty vector", func(t *testing.T) {
		got, err := UnmarshalEmbedding(MarshalEmbedding(&core.CachedEmbedding{}))
		require.NoError(t, err)
		assert.Empty(t, got.Vector)
	})

	t.Run("empty data", func(t *testing.T) {
		_, err := UnmarshalEmbedding(nil)
		assert.ErrorIs(t, err, ErrSerializationFailed)
	})

	t.Run("truncated data", func(t *testing.T) {
		data := MarshalEmbedding(&core.CachedEmbedding{Vector: []float32{1, 2, 3}})
		_, err := UnmarshalEmbedding(data[:1])
		assert.ErrorIs(t, err, ErrSerializationFailed)
	})
}

func TestIDSerialization(t *testing.T) {
	id := core.IDFromContent("hello")

	data := MarshalID(id)
	got, n, err := core.IDMUS.Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, id, got)
	assert.Equal(t, len(data), n)

	assert.NotEqual(t, MarshalID(id), MarshalID(core.IDFromContent("world")))
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, CacheKey("m", "text"), CacheKey("m", "text"))
	assert.NotEqual(t, CacheKey("m1", "text"), CacheKey("m2", "text"))
	assert.NotEqual(t, CacheKey("m", "a"), CacheKey("m", "b"))
	// The separator keeps model and text boundaries distinct
	assert.NotEqual(t, CacheKey("ab", "c"), CacheKey("a", "bc"))
}
