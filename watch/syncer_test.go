package watch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIngester struct {
	mu    sync.Mutex
	paths []string
	err   error
}

func (f *fakeIngester) IngestFile(_ context.Context, path string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, path)
	if f.err != nil {
		return 0, f.err
	}
	return 2, nil
}

type fakeRemover struct {
	mu    sync.Mutex
	names []string
}

func (f *fakeRemover) DeleteFile(_ context.Context, fileName string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.names = append(f.names, fileName)
	return 3, nil
}

func TestNewSyncerRequiresIngester(t *testing.T) {
	_, err := NewSyncer(nil, nil, nil)
	assert.ErrorIs(t, err, ErrIngesterRequired)
}

func TestSyncerRun(t *testing.T) {
	ingester := &fakeIngester{}
	remover := &fakeRemover{}
	s, err := NewSyncer(ingester, remover, nil)
	require.NoError(t, err)

	events := make(chan Event, 3)
	events <- Event{Path: "/docs/a.txt", Op: Created}
	events <- Event{Path: "/docs/a.txt", Op: Modified}
	events <- Event{Path: "/docs/b.pdf", Op: Removed}
	close(events)

	require.NoError(t, s.Run(context.Background(), events))

	assert.Equal(t, []string{"/docs/a.txt", "/docs/a.txt"}, ingester.paths)
	assert.Equal(t, []string{"b.pdf"}, remover.names)
}

func TestSyncerContinuesAfterFailure(t *testing.T) {
	ingester := &fakeIngester{err: errors.New("load failed")}
	s, err := NewSyncer(ingester, nil, nil)
	require.NoError(t, err)

	events := make(chan Event, 3)
	events <- Event{Path: "/docs/a.txt", Op: Created}
	events <- Event{Path: "/docs/b.txt", Op: Created}
	events <- Event{Path: "/docs/c.txt", Op: Removed}
	close(events)

	require.NoError(t, s.Run(context.Background(), events))
	assert.Equal(t, []string{"/docs/a.txt", "/docs/b.txt"}, ingester.paths)
}

func TestSyncerStopsOnCancel(t *testing.T) {
	s, err := NewSyncer(&fakeIngester{}, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, make(chan Event))
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
