package ingestion

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/poiesic/vecdocs/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/schema"
)

type fakeSaver struct {
	mu      sync.Mutex
	saved   [][]schema.Document
	deleted []string
	err     error
}

func (s *fakeSaver) Save(_ context.Context, docs []schema.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, docs)
	return nil
}

func (s *fakeSaver) DeleteFile(_ context.Context, fileName string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, fileName)
	return 2, nil
}

func (s *fakeSaver) fileNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for _, batch := range s.saved {
		name, _ := core.FileName(batch[0])
		names = append(names, name)
	}
	return names
}

func TestNewPipeline(t *testing.T) {
	t.Run("requires saver", func(t *testing.T) {
		_, err := NewPipeline(nil)
		assert.ErrorIs(t, err, ErrSaverRequired)
	})

	t.Run("replace requires deleter", func(t *testing.T) {
		saver := &struct{ Saver }{&fakeSaver{}}
		_, err := NewPipeline(saver, WithReplaceExisting(true))
		assert.ErrorIs(t, err, ErrReplaceUnsupported)
	})

	t.Run("with options", func(t *testing.T) {
		p, err := NewPipeline(&fakeSaver{}, WithPoolSize(0), WithLogger(nil), WithSplitter(NewSplitter(10, 2)))
		require.NoError(t, err)
		defer p.Release()
		assert.Equal(t, 1, p.pool.Cap())
	})
}

func TestPipeline_Ingest(t *testing.T) {
	saver := &fakeSaver{}
	p, err := NewPipeline(saver)
	require.NoError(t, err)
	defer p.Release()

	err = p.Ingest(context.Background(), "chat.txt", []string{"first", "second"},
		&IngestOptions{Metadata: map[string]any{"source": "upload"}})
	require.NoError(t, err)

	require.Len(t, saver.saved, 1)
	batch := saver.saved[0]
	require.Len(t, batch, 2)
	assert.Equal(t, "first", batch[0].PageContent)
	assert.Equal(t, map[string]any{"source": "upload", "file_name": "chat.txt"}, batch[1].Metadata)

	assert.ErrorIs(t, p.Ingest(context.Background(), "", []string{"x"}, nil), ErrFileNameRequired)
}

func TestPipeline_IngestFiles(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "a.txt", "alpha content"),
		writeFile(t, dir, "b.md", "beta content"),
		writeFile(t, dir, "c.html", "<p>gamma content</p>"),
	}

	saver := &fakeSaver{}
	p, err := NewPipeline(saver, WithPoolSize(2))
	require.NoError(t, err)
	defer p.Release()

	chunks, err := p.IngestFiles(context.Background(), paths...)
	require.NoError(t, err)
	assert.Equal(t, 3, chunks)
	assert.ElementsMatch(t, []string{"a.txt", "b.md", "c.html"}, saver.fileNames())
}

func TestPipeline_IngestFiles_JoinsErrors(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.txt", "fine")
	bad := writeFile(t, dir, "bad.exe", "nope")
	missing := filepath.Join(dir, "missing.txt")

	saver := &fakeSaver{}
	p, err := NewPipeline(saver)
	require.NoError(t, err)
	defer p.Release()

	chunks, err := p.IngestFiles(context.Background(), good, bad, missing)
	require.Error(t, err)
	assert.Equal(t, 1, chunks)
	assert.ErrorIs(t, err, ErrUnsupportedFileType)
	assert.Contains(t, err.Error(), "missing.txt")
	assert.Equal(t, []string{"good.txt"}, saver.fileNames())
}

func TestPipeline_SaveError(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "alpha")

	cause := errors.New("insert failed")
	p, err := NewPipeline(&fakeSaver{err: cause})
	require.NoError(t, err)
	defer p.Release()

	_, err = p.IngestFile(context.Background(), path)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "a.txt")
}

func TestPipeline_ReplaceExisting(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "alpha")

	saver := &fakeSaver{}
	p, err := NewPipeline(saver, WithReplaceExisting(true))
	require.NoError(t, err)
	defer p.Release()

	_, err = p.IngestFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, saver.deleted)
	assert.Len(t, saver.saved, 1)
}

func TestPipeline_IngestFiles_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	saver := &fakeSaver{}
	p, err := NewPipeline(saver)
	require.NoError(t, err)
	defer p.Release()

	_, err = p.IngestFiles(ctx, "a.txt")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, saver.saved)
}
