package ingestion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/poiesic/vecdocs/core"
	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"
)

const (
	// DefaultChunkSize is the default maximum chunk length in characters.
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is the default number of characters shared by adjacent chunks.
	DefaultChunkOverlap = 200
)

var supportedExtensions = []string{".csv", ".htm", ".html", ".markdown", ".md", ".pdf", ".txt"}

// SupportedExtensions returns the file extensions LoadFile accepts.
func SupportedExtensions() []string {
	return slices.Clone(supportedExtensions)
}

// IsSupported reports whether LoadFile can load path.
func IsSupported(path string) bool {
	return slices.Contains(supportedExtensions, strings.ToLower(filepath.Ext(path)))
}

// NewSplitter returns a recursive character splitter. Non-positive sizes fall back to the defaults.
func NewSplitter(chunkSize, chunkOverlap int) textsplitter.TextSplitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = min(DefaultChunkOverlap, chunkSize/5)
	}
	return textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
	)
}

// LoadFile reads path, splits it with splitter and tags every chunk with the
// file's base name. A nil splitter uses the default chunk size and overlap.
func LoadFile(ctx context.Context, path string, splitter textsplitter.TextSplitter) ([]schema.Document, error) {
	if !IsSupported(path) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, path)
	}
	if splitter == nil {
		splitter = NewSplitter(DefaultChunkSize, DefaultChunkOverlap)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	loader, err := newLoader(f)
	if err != nil {
		return nil, err
	}

	chunks, err := loader.LoadAndSplit(ctx, splitter)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	fileName := filepath.Base(path)
	for i := range chunks {
		chunks[i].Metadata = core.WithFileName(chunks[i].Metadata, fileName)
	}
	return chunks, nil
}

func newLoader(f *os.File) (documentloaders.Loader, error) {
	switch strings.ToLower(filepath.Ext(f.Name())) {
	case ".pdf":
		info, err := f.Stat()
		if err != nil {
			return nil, err
		}
		return documentloaders.NewPDF(f, info.Size()), nil
	case ".html", ".htm":
		return documentloaders.NewHTML(f), nil
	case ".csv":
		return documentloaders.NewCSV(f), nil
	default:
		return documentloaders.NewText(f), nil
	}
}
