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



package mcp

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/localrivet/gomcp/server"
	"github.com/poiesic/vecdocs/core"
	"github.com/poiesic/vecdocs/ingestion"
	"github.com/poiesic/vecdocs/search"
)

var (
	ErrSearcherRequired     = errors.New("searcher required")
	ErrServerNotInitialized = errors.New("server not initialized")
)

// Searcher runs file-scoped searches.
type Searcher interface {
	Search(ctx context.Context, fileName, query string, maxHits int) ([]*search.Result, error)
}

// Ingester saves text chunks under a file name.
type Ingester interface {
	Ingest(ctx context.Context, fileName string, contents []string, opts *ingestion.IngestOptions) error
}

// Server handles MCP tool calls for document search.
type Server struct {
	searcher  Searcher
	ingester  Ingester
	ctx       context.Context
	mcpServer server.Server
	serve     func() error
	logger    *slog.Logger
}

// NewServer creates a server. ingester may be nil, in which case save_text is not offered.
func NewServer(searcher Searcher, ingester Ingester) (*Server, error) {
	if searcher == nil {
		return nil, ErrSearcherRequired
	}
	return &Server{
		searcher: searcher,
		ingester: ingester,
		ctx:      context.Background(),
		logger:   slog.Default().With("component", "mcp"),
	}, nil
}

// Initialize registers the tools on a new MCP server.
func (s *Server) Initialize() error {
	srv := server.NewServer("vecdocs")

	srv = srv.Tool(ToolSearchDocuments, "Search the indexed chunks of one document for passages relevant to a query",
		s.handleSearchDocuments)

	tools := 1
	if s.ingester != nil {
		srv = srv.Tool(ToolSaveText, "Embed and save text chunks under a document file name",
			s.handleSaveText)
		tools++
	}

	s.mcpServer = srv
	s.serve = func() error {
		return s.mcpServer.AsStdio().Run()
	}
	s.logger.Info("MCP server initialized", "tool_count", tools)
	return nil
}

// Run serves tool calls on stdio until stdin closes or ctx is done.
// ctx is passed to every search and save.
func (s *Server) Run(ctx context.Context) error {
	if s.mcpServer == nil || s.serve == nil {
		return ErrServerNotInitialized
	}
	s.ctx = ctx

	s.logger.Info("starting MCP server on stdio")
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.serve()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("stopping MCP server", "reason", ctx.Err())
		return ctx.Err()
	}
}

func (s *Server) handleSearchDocuments(_ *server.Context, req SearchDocumentsRequest) (SearchDocumentsResponse, error) {
	s.logger.Info("processing search_documents request", "fileName", req.FileName, "limit", req.Limit)

	response := SearchDocumentsResponse{
		Status:  StatusSuccess,
		Results: []SearchHit{},
	}

	if strings.TrimSpace(req.Query) == "" {
		response.Status = StatusError
		response.Error = "query cannot be empty"
		return response, nil
	}

	limit := req.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	limit = min(limit, MaxSearchLimit)

	results, err := s.searcher.Search(s.ctx, req.FileName, req.Query, limit)
	if err != nil {
		s.logger.Error("search_documents failed", "fileName", req.FileName, "err", err)
		response.Status = StatusError
		response.Error = err.Error()
		return response, nil
	}

	for _, r := range results {
		fileName, _ := core.FileName(r.Document)
		response.Results = append(response.Results, SearchHit{
			Content:    r.Document.PageContent,
			FileName:   fileName,
			Score:      r.Score,
			Similarity: r.Similarity,
			Verbatim:   r.Verbatim,
		})
	}

	s.logger.Info("search_documents complete", "count", len(response.Results))
	return response, nil
}

func (s *Server) handleSaveText(_ *server.Context, req SaveTextRequest) (SaveTextResponse, error) {
	s.logger.Info("processing save_text request", "fileName", req.FileName, "count", len(req.Texts))

	response := SaveTextResponse{Status: StatusSuccess}

	if req.FileName == "" {
		response.Status = StatusError
		response.Error = "file_name cannot be empty"
		return response, nil
	}

	if err := s.ingester.Ingest(s.ctx, req.FileName, req.Texts, nil); err != nil {
		s.logger.Error("save_text failed", "fileName", req.FileName, "err", err)
		response.Status = StatusError
		response.Error = err.Error()
		return response, nil
	}

	response.Saved = len(req.Texts)
	return response, nil
}
