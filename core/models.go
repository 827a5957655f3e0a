package core

import (
	"encoding/binary"

	"github.com/go-crypt/x/blake2b"
	"github.com/tmc/langchaingo/schema"
)

// FileNameKey is the metadata key that ties a stored chunk to its source file.
const FileNameKey = "file_name"

// ID is a content-derived identifier.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// CachedEmbedding is the locally cached vector of a text under one model.
type CachedEmbedding struct {
	Vector []float32
}

// FileName returns the file_name metadata value of a document, if present.
func FileName(doc schema.Document) (string, error) {
	if doc.Metadata == nil {
		return "", ErrMissingFileName
	}
	name, ok := doc.Metadata[FileNameKey].(string)
	if !ok || name == "" {
		return "", ErrMissingFileName
	}
	return name, nil
}

// WithFileName returns a copy of metadata with file_name set.
// The input map is not modified.
func WithFileName(metadata map[string]any, fileName string) map[string]any {
	out := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		out[k] = v
	}
	out[FileNameKey] = fileName
	return out
}
