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
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"github.com/poiesic/vecdocs/vectorstore"
)

// Connection identifies a Supabase project database.
type Connection struct {
	// URL is the Postgres connection string of the project.
	URL string
	// Key is the service key. When set it is used as the database password,
	// overriding any password in URL.
	Key string
}

// Validate checks that the connection can be dialed.
func (c Connection) Validate() error {
	if c.URL == "" {
		return ErrMissingURL
	}
	return nil
}

// Querier is the subset of pgxpool.Pool used by the store.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error)
}

// Client is a handle on the project database. It is safe for concurrent use.
type Client struct {
	db      Querier
	closeFn func()
	logger  *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// Connect opens a connection pool to the database described by conn.
// The pgvector types are registered on every new connection.
func Connect(ctx context.Context, conn Connection) (*Client, error) {
	if err := conn.Validate(); err != nil {
		return nil, err
	}

	cfg, err := pgxpool.ParseConfig(conn.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection URL: %w", err)
	}
	if conn.Key != "" {
		cfg.ConnConfig.Password = conn.Key
	}
	cfg.AfterConnect = pgxvec.RegisterTypes

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	client := NewClient(pool)
	client.closeFn = pool.Close
	client.logger.Info("connected", "host", cfg.ConnConfig.Host, "database", cfg.ConnConfig.Database)
	return client, nil
}

// NewClient wraps an existing querier. Closing the client does not close db.
func NewClient(db Querier) *Client {
	return &Client{
		db:     db,
		logger: slog.Default().With("component", "supabase"),
	}
}

// Close releases the connection pool. It is safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	if c.closeFn != nil {
		c.closeFn()
	}
	c.logger.Debug("client closed")
	return nil
}

// Closed reports whether Close has been called.
func (c *Client) Closed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// DeleteDocuments removes every row of table matching filter and returns the number removed.
func (c *Client) DeleteDocuments(ctx context.Context, table string, filter vectorstore.Filter) (int64, error) {
	predicate, err := filter.SQL(1)
	if err != nil {
		return 0, err
	}

	sql := fmt.Sprintf("DELETE FROM %s WHERE %s", pgx.Identifier{table}.Sanitize(), predicate)
	tag, err := c.exec(ctx, sql, filter.Value)
	if err != nil {
		return 0, fmt.Errorf("failed to delete documents: %w", err)
	}

	c.logger.Debug("deleted documents", "table", table, "filter", filter, "count", tag.RowsAffected())
	return tag.RowsAffected(), nil
}

func (c *Client) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return pgconn.CommandTag{}, ErrClientClosed
	}
	return c.db.Exec(ctx, sql, args...)
}

func (c *Client) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, ErrClientClosed
	}
	return c.db.Query(ctx, sql, args...)
}
