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



package supabase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
	"github.com/poiesic/vecdocs/ai"
	"github.com/poiesic/vecdocs/vectorstore"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

// maxRowsPerInsert bounds the rows written by one INSERT statement.
const maxRowsPerInsert = 500

// Store is a vector store bound to a table, a match function and an optional filter.
type Store struct {
	client    *Client
	embedder  ai.Embedder
	tableName string
	queryName string
	filter    *vectorstore.Filter
	logger    *slog.Logger
}

var _ vectorstores.VectorStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithFilter restricts similarity search results.
func WithFilter(filter vectorstore.Filter) Option {
	return func(s *Store) {
		s.filter = &filter
	}
}

// WithLogger sets the store's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates a store on client using embedder for documents and queries.
// It writes to the documents table and searches with the match_documents function.
func NewStore(client *Client, embedder ai.Embedder, opts ...Option) (*Store, error) {
	if client == nil {
		return nil, ErrClientClosed
	}
	if embedder == nil {
		return nil, ErrMissingEmbedder
	}

	s := &Store{
		client:    client,
		embedder:  embedder,
		tableName: vectorstore.TableName,
		queryName: vectorstore.QueryName,
		logger:    slog.Default().With("component", "supabase-store"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.filter != nil {
		if err := s.filter.Validate(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// FromExistingIndex returns a store over documents that are already indexed.
func FromExistingIndex(client *Client, embedder ai.Embedder, opts ...Option) (*Store, error) {
	if client != nil && client.Closed() {
		return nil, ErrClientClosed
	}
	return NewStore(client, embedder, opts...)
}

// FromTexts embeds and inserts texts, each carrying the same metadata, and
// returns a store over the table they were written to.
func FromTexts(ctx context.Context, client *Client, embedder ai.Embedder, texts []string, metadata map[string]any, opts ...Option) (*Store, error) {
	s, err := NewStore(client, embedder, opts...)
	if err != nil {
		return nil, err
	}

	docs := make([]schema.Document, len(texts))
	for i, text := range texts {
		docs[i] = schema.Document{PageContent: text, Metadata: metadata}
	}
	if _, err := s.AddDocuments(ctx, docs); err != nil {
		return nil, err
	}
	return s, nil
}

// TableName returns the table the store writes to.
func (s *Store) TableName() string {
	return s.tableName
}

// QueryName returns the function the store searches with.
func (s *Store) QueryName() string {
	return s.queryName
}

// Filter returns the store's search filter, if any.
func (s *Store) Filter() (vectorstore.Filter, bool) {
	if s.filter == nil {
		return vectorstore.Filter{}, false
	}
	return *s.filter, true
}

// AddDocuments embeds docs and inserts them, returning the new row ids in input order.
func (s *Store) AddDocuments(ctx context.Context, docs []schema.Document, options ...vectorstores.Option) ([]string, error) {
	opts := s.getOptions(options...)
	if opts.ScoreThreshold != 0 || opts.Filters != nil || opts.NameSpace != "" || opts.Embedder != nil {
		return nil, ErrUnsupportedOptions
	}

	docs = s.deduplicate(ctx, opts, docs)
	if len(docs) == 0 {
		return nil, nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.PageContent
	}

	vectors, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed documents: %w", err)
	}
	if len(vectors) != len(docs) {
		return nil, ErrEmbedderWrongNumberVectors
	}

	ids := make([]string, 0, len(docs))
	for start := 0; start < len(docs); start += maxRowsPerInsert {
		end := min(start+maxRowsPerInsert, len(docs))
		batchIDs, err := s.insert(ctx, docs[start:end], vectors[start:end])
		if err != nil {
			return nil, err
		}
		ids = append(ids, batchIDs...)
	}

	s.logger.Debug("added documents", "table", s.tableName, "count", len(ids))
	return ids, nil
}

func (s *Store) insert(ctx context.Context, docs []schema.Document, vectors [][]float32) ([]string, error) {
	values := make([]string, len(docs))
	args := make([]any, 0, len(docs)*3)
	for i, doc := range docs {
		n := len(args)
		values[i] = fmt.Sprintf("($%d, $%d, $%d)", n+1, n+2, n+3)
		metadata := doc.Metadata
		if metadata == nil {
			metadata = map[string]any{}
		}
		args = append(args, doc.PageContent, metadata, pgvector.NewVector(vectors[i]))
	}

	sql := fmt.Sprintf("INSERT INTO %s (content, metadata, embedding) VALUES %s RETURNING id::text",
		pgx.Identifier{s.tableName}.Sanitize(), strings.Join(values, ", "))

	rows, err := s.client.query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to insert documents: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0, len(docs))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to read inserted id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to insert documents: %w", err)
	}
	return ids, nil
}

// SimilaritySearch returns up to numDocuments documents most similar to query.
//
// The store filter applies unless overridden with vectorstores.WithFilters,
// which accepts a vectorstore.Filter or *vectorstore.Filter. Filters are applied
// to the rows match_documents returns, so fewer than numDocuments may come back.
func (s *Store) SimilaritySearch(ctx context.Context, query string, numDocuments int, options ...vectorstores.Option) ([]schema.Document, error) {
	opts := s.getOptions(options...)
	if opts.NameSpace != "" || opts.Embedder != nil {
		return nil, ErrUnsupportedOptions
	}
	scoreThreshold, err := s.getScoreThreshold(opts)
	if err != nil {
		return nil, err
	}
	filter, err := s.getFilter(opts)
	if err != nil {
		return nil, err
	}

	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	args := []any{pgvector.NewVector(embedding), numDocuments}
	var where []string
	if filter != nil {
		predicate, err := filter.SQL(len(args) + 1)
		if err != nil {
			return nil, err
		}
		where = append(where, predicate)
		args = append(args, filter.Value)
	}
	if scoreThreshold != 0 {
		where = append(where, fmt.Sprintf("similarity >= $%d", len(args)+1))
		args = append(args, float64(scoreThreshold))
	}

	sql := s.searchSQL(where)
	rows, err := s.client.query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}
	defer rows.Close()

	docs := make([]schema.Document, 0)
	for rows.Next() {
		var (
			doc        schema.Document
			similarity float64
		)
		if err := rows.Scan(&doc.PageContent, &doc.Metadata, &similarity); err != nil {
			return nil, fmt.Errorf("failed to read search result: %w", err)
		}
		doc.Score = float32(similarity)
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	s.logger.Debug("similarity search", "function", s.queryName, "filter", filter, "results", len(docs))
	return docs, nil
}

func (s *Store) searchSQL(where []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT content, metadata, similarity FROM %s(query_embedding => $1, match_count => $2)",
		pgx.Identifier{s.queryName}.Sanitize())
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY similarity DESC")
	return b.String()
}

// Delete removes every row of the store's table matching filter and returns the number removed.
func (s *Store) Delete(ctx context.Context, filter vectorstore.Filter) (int64, error) {
	return s.client.DeleteDocuments(ctx, s.tableName, filter)
}

func (s *Store) getOptions(options ...vectorstores.Option) vectorstores.Options {
	opts := vectorstores.Options{}
	for _, opt := range options {
		opt(&opts)
	}
	return opts
}

func (s *Store) getScoreThreshold(opts vectorstores.Options) (float32, error) {
	if opts.ScoreThreshold < 0 || opts.ScoreThreshold > 1 {
		return 0, ErrInvalidScoreThreshold
	}
	return opts.ScoreThreshold, nil
}

func (s *Store) getFilter(opts vectorstores.Options) (*vectorstore.Filter, error) {
	switch f := opts.Filters.(type) {
	case nil:
		return s.filter, nil
	case vectorstore.Filter:
		return &f, nil
	case *vectorstore.Filter:
		return f, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrInvalidFilters, opts.Filters)
	}
}

func (s *Store) deduplicate(ctx context.Context, opts vectorstores.Options, docs []schema.Document) []schema.Document {
	if opts.Deduplicater == nil {
		return docs
	}

	filtered := make([]schema.Document, 0, len(docs))
	for _, doc := range docs {
		if !opts.Deduplicater(ctx, doc) {
			filtered = append(filtered, doc)
		}
	}
	return filtered
}
