package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/vecdocs/core"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"
)

// Saver persists document chunks.
type Saver interface {
	Save(ctx context.Context, docs []schema.Document) error
}

// Deleter removes previously saved chunks of a file.
type Deleter interface {
	DeleteFile(ctx context.Context, fileName string) (int64, error)
}

// Pipeline loads files and saves their chunks concurrently.
type Pipeline struct {
	saver    Saver
	pool     *ants.Pool
	splitter textsplitter.TextSplitter
	replace  bool
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the number of files processed concurrently.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithSplitter sets the text splitter used for files.
// Default is a recursive character splitter with DefaultChunkSize and DefaultChunkOverlap.
func WithSplitter(splitter textsplitter.TextSplitter) Option {
	return func(p *Pipeline) error {
		if splitter != nil {
			p.splitter = splitter
		}
		return nil
	}
}

// WithReplaceExisting deletes a file's previously saved chunks before saving new ones.
// The saver must implement Deleter.
func WithReplaceExisting(replace bool) Option {
	return func(p *Pipeline) error {
		p.replace = replace
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(saver Saver, opts ...Option) (*Pipeline, error) {
	if saver == nil {
		return nil, ErrSaverRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		saver:    saver,
		pool:     pool,
		splitter: NewSplitter(DefaultChunkSize, DefaultChunkOverlap),
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	if p.replace {
		if _, ok := saver.(Deleter); !ok {
			p.Release()
			return nil, ErrReplaceUnsupported
		}
	}

	p.logger = p.logger.With("component", "ingestion")
	return p, nil
}

// IngestOptions holds optional parameters for Ingest.
type IngestOptions struct {
	Metadata map[string]any // Optional metadata attached to every chunk
}

// Ingest saves contents as chunks of fileName. Contents are saved as given, without splitting.
func (p *Pipeline) Ingest(ctx context.Context, fileName string, contents []string, opts *IngestOptions) error {
	if fileName == "" {
		return ErrFileNameRequired
	}
	if opts == nil {
		opts = &IngestOptions{}
	}

	metadata := core.WithFileName(opts.Metadata, fileName)
	docs := make([]schema.Document, len(contents))
	for i, content := range contents {
		docs[i] = schema.Document{PageContent: content, Metadata: metadata}
	}
	return p.save(ctx, fileName, docs)
}

// IngestFile loads, splits and saves a single file, returning the number of chunks saved.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (int, error) {
	docs, err := LoadFile(ctx, path, p.splitter)
	if err != nil {
		p.logger.Error("error loading file", "path", path, "err", err)
		return 0, err
	}

	if err := p.save(ctx, filepath.Base(path), docs); err != nil {
		return 0, fmt.Errorf("failed to save %s: %w", path, err)
	}

	p.logger.Info("ingested file", "path", path, "chunks", len(docs))
	return len(docs), nil
}

// IngestFiles ingests paths concurrently on the worker pool and waits for all of them.
// It returns the total number of chunks saved and every per-file error joined.
func (p *Pipeline) IngestFiles(ctx context.Context, paths ...string) (int, error) {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		total  int
		errs   []error
		record = func(n int, err error) {
			mu.Lock()
			defer mu.Unlock()
			total += n
			if err != nil {
				errs = append(errs, err)
			}
		}
	)

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			record(0, err)
			break
		}

		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			record(p.IngestFile(ctx, path))
		})
		if err != nil {
			wg.Done()
			record(0, fmt.Errorf("failed to schedule %s: %w", path, err))
		}
	}
	wg.Wait()

	return total, errors.Join(errs...)
}

func (p *Pipeline) save(ctx context.Context, fileName string, docs []schema.Document) error {
	if p.replace {
		removed, err := p.saver.(Deleter).DeleteFile(ctx, fileName)
		if err != nil {
			p.logger.Error("error removing previous chunks", "fileName", fileName, "err", err)
			return err
		}
		p.logger.Debug("removed previous chunks", "fileName", fileName, "count", removed)
	}

	if len(docs) == 0 {
		return nil
	}
	return p.saver.Save(ctx, docs)
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
