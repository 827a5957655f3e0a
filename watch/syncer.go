package watch

import (
	"context"
	"log/slog"
	"path/filepath"
)

// Ingester loads and saves a file.
type Ingester interface {
	IngestFile(ctx context.Context, path string) (int, error)
}

// Remover deletes the saved chunks of a file.
type Remover interface {
	DeleteFile(ctx context.Context, fileName string) (int64, error)
}

// Syncer applies watch events to the vector store.
type Syncer struct {
	ingester Ingester
	remover  Remover
	logger   *slog.Logger
}

// NewSyncer creates a syncer. remover may be nil, in which case removals are ignored.
func NewSyncer(ingester Ingester, remover Remover, logger *slog.Logger) (*Syncer, error) {
	if ingester == nil {
		return nil, ErrIngesterRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		ingester: ingester,
		remover:  remover,
		logger:   logger.With("component", "sync"),
	}, nil
}

// Run handles events until the channel closes or ctx is done.
// Failures are logged and do not stop the loop.
func (s *Syncer) Run(ctx context.Context, events <-chan Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				return nil
			}
			s.Handle(ctx, event)
		}
	}
}

// Handle applies a single event.
func (s *Syncer) Handle(ctx context.Context, event Event) {
	switch event.Op {
	case Created, Modified:
		count, err := s.ingester.IngestFile(ctx, event.Path)
		if err != nil {
			s.logger.Error("error ingesting file", "path", event.Path, "op", event.Op, "err", err)
			return
		}
		s.logger.Info("synced file", "path", event.Path, "op", event.Op, "chunks", count)
	case Removed:
		if s.remover == nil {
			return
		}
		fileName := filepath.Base(event.Path)
		removed, err := s.remover.DeleteFile(ctx, fileName)
		if err != nil {
			s.logger.Error("error removing file", "fileName", fileName, "err", err)
			return
		}
		s.logger.Info("removed file", "fileName", fileName, "chunks", removed)
	}
}
