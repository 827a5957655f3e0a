package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

// DefaultVerbatimBoost is added to the score of chunks containing every query term.
const DefaultVerbatimBoost float32 = 0.3

// StoreOpener opens a vector store restricted to the chunks of one file.
type StoreOpener interface {
	OpenStore(ctx context.Context, fileName string) (vectorstores.VectorStore, error)
}

// Result is a ranked search hit.
type Result struct {
	Document   schema.Document
	Similarity float32 // Similarity reported by the store
	Score      float32 // Similarity plus any verbatim boost
	Verbatim   bool    // Chunk contains every non-stop-word of the query
}

// Searcher provides file-scoped semantic search with verbatim re-ranking.
type Searcher struct {
	opener         StoreOpener
	scoreThreshold float32
	verbatimBoost  float32
	logger         *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithScoreThreshold drops hits whose similarity is below threshold.
// Default is 0, which keeps every hit.
func WithScoreThreshold(threshold float32) Option {
	return func(s *Searcher) error {
		s.scoreThreshold = threshold
		return nil
	}
}

// WithVerbatimBoost sets the bonus for verbatim matches.
// Default is DefaultVerbatimBoost.
func WithVerbatimBoost(boost float32) Option {
	return func(s *Searcher) error {
		s.verbatimBoost = boost
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(opener StoreOpener, opts ...Option) (*Searcher, error) {
	if opener == nil {
		return nil, ErrStoreOpenerRequired
	}

	s := &Searcher{
		opener:        opener,
		verbatimBoost: DefaultVerbatimBoost,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search returns up to maxHits chunks of fileName most relevant to query.
func (s *Searcher) Search(ctx context.Context, fileName, query string, maxHits int) ([]*Result, error) {
	return s.SearchWithMonitor(ctx, fileName, query, maxHits, nil)
}

// SearchWithMonitor searches like Search and reports each stage to monitor.
func (s *Searcher) SearchWithMonitor(ctx context.Context, fileName, query string, maxHits int, monitor SearchMonitor) ([]*Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if maxHits < 1 {
		return nil, ErrInvalidMaxHits
	}
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(fileName, query)

	store, err := s.opener.OpenStore(ctx, fileName)
	if err != nil {
		s.logger.Error("error opening vector store", "fileName", fileName, "err", err)
		return nil, err
	}

	var opts []vectorstores.Option
	if s.scoreThreshold > 0 {
		opts = append(opts, vectorstores.WithScoreThreshold(s.scoreThreshold))
	}
	docs, err := store.SimilaritySearch(ctx, query, maxHits, opts...)
	if err != nil {
		s.logger.Error("error querying for similar chunks", "fileName", fileName, "err", err)
		return nil, err
	}
	monitor.AfterSimilaritySearch(docs)

	terms := tokenizeAndFilter(query)
	results := make([]*Result, 0, len(docs))
	for _, doc := range docs {
		result := &Result{
			Document:   doc,
			Similarity: doc.Score,
			Score:      doc.Score,
		}
		if containsAllTerms(doc.PageContent, terms) {
			result.Verbatim = true
			result.Score += s.verbatimBoost
			monitor.VerbatimHit(result)
		} else {
			monitor.SemanticHit(result)
		}
		results = append(results, result)
	}

	// Stable so equal scores keep the store's similarity order
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > maxHits {
		results = results[:maxHits]
	}
	monitor.Finish(results)

	s.logger.Debug("search complete", "fileName", fileName, "hits", len(results))
	return results, nil
}
