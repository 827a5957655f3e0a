package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/vecdocs/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		file     string
		content  string
		contains string
	}{
		{"text", "notes.txt", "Quarterly revenue grew by ten percent.", "Quarterly revenue"},
		{"markdown", "README.md", "# Title\n\nSome markdown body.", "markdown body"},
		{"html", "page.html", "<html><body><p>Hello from HTML</p></body></html>", "Hello from HTML"},
		{"csv", "people.csv", "name,city\nAda,London\n", "city: London"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.file, tt.content)

			docs, err := LoadFile(context.Background(), path, nil)
			require.NoError(t, err)
			require.NotEmpty(t, docs)

			assert.Contains(t, docs[0].PageContent, tt.contains)
			for _, doc := range docs {
				name, err := core.FileName(doc)
				require.NoError(t, err)
				assert.Equal(t, tt.file, name)
			}
		})
	}
}

func TestLoadFile_Splits(t *testing.T) {
	dir := t.TempDir()
	sentence := "The quick brown fox jumps over the lazy dog. "
	path := writeFile(t, dir, "long.txt", strings.Repeat(sentence, 20))

	docs, err := LoadFile(context.Background(), path, NewSplitter(100, 10))
	require.NoError(t, err)

	assert.Greater(t, len(docs), 1)
	for _, doc := range docs {
		assert.LessOrEqual(t, len(doc.PageContent), 100)
		assert.Equal(t, "long.txt", doc.Metadata[core.FileNameKey])
	}
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("unsupported extension", func(t *testing.T) {
		path := writeFile(t, dir, "image.png", "not text")
		_, err := LoadFile(context.Background(), path, nil)
		assert.ErrorIs(t, err, ErrUnsupportedFileType)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(context.Background(), filepath.Join(dir, "missing.txt"), nil)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("report.PDF"))
	assert.True(t, IsSupported("/tmp/notes.md"))
	assert.False(t, IsSupported("archive.zip"))
	assert.False(t, IsSupported("Makefile"))
}

func TestSupportedExtensions_ReturnsCopy(t *testing.T) {
	exts := SupportedExtensions()
	exts[0] = ".exe"
	assert.False(t, IsSupported("x.exe"))
}

func TestNewSplitter_Defaults(t *testing.T) {
	// Invalid overlap must not exceed the chunk size
	splitter := NewSplitter(50, 80)
	chunks, err := splitter.SplitText(strings.Repeat("word ", 100))
	require.NoError(t, err)
	assert.Greater(t, len(chunks), 1)
}
