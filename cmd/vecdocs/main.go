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



package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/poiesic/vecdocs"
	"github.com/poiesic/vecdocs/ai"
	"github.com/poiesic/vecdocs/core"
	"github.com/poiesic/vecdocs/ingestion"
	"github.com/poiesic/vecdocs/mcp"
	"github.com/poiesic/vecdocs/search"
	"github.com/poiesic/vecdocs/storage/badger"
	"github.com/poiesic/vecdocs/vectorstore/supabase"
	"github.com/poiesic/vecdocs/watch"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "vecdocs",
		Usage: "Ingest documents into a Supabase vector store and search them",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Load, split and embed files",
				ArgsUsage: "FILE...",
				Action:    ingestCommand,
				Flags: append(storeFlags(),
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Number of files processed concurrently (0 uses half the CPUs)",
					},
					&cli.IntFlag{
						Name:  "chunk-size",
						Usage: "Maximum characters per chunk",
						Value: ingestion.DefaultChunkSize,
					},
					&cli.IntFlag{
						Name:  "chunk-overlap",
						Usage: "Characters shared by consecutive chunks",
						Value: ingestion.DefaultChunkOverlap,
					},
					&cli.BoolFlag{
						Name:  "replace",
						Usage: "Delete previously saved chunks of each file first",
					},
				),
			},
			{
				Name:      "load",
				Usage:     "Bulk load texts under a file name",
				ArgsUsage: "[TEXT...]",
				Description: "Each argument is stored as one chunk. With no arguments, " +
					"standard input is split into chunks.",
				Action: loadCommand,
				Flags: append(storeFlags(),
					&cli.StringFlag{
						Name:     "file-name",
						Aliases:  []string{"f"},
						Usage:    "File name recorded in every chunk's metadata",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:    "metadata",
						Aliases: []string{"m"},
						Usage:   "Extra metadata as key=value, shared by every chunk",
					},
				),
			},
			{
				Name:      "query",
				Usage:     "Search the chunks of one file",
				ArgsUsage: "QUERY",
				Action:    queryCommand,
				Flags: append(storeFlags(),
					&cli.StringFlag{
						Name:     "file-name",
						Aliases:  []string{"f"},
						Usage:    "File whose chunks are searched",
						Required: true,
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results",
						Value:   mcp.DefaultSearchLimit,
					},
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Minimum similarity (0 to 1)",
					},
				),
			},
			{
				Name:   "delete",
				Usage:  "Delete every chunk of a file",
				Action: deleteCommand,
				Flags: append(connectionFlags(),
					&cli.StringFlag{
						Name:     "file-name",
						Aliases:  []string{"f"},
						Usage:    "File whose chunks are deleted",
						Required: true,
					},
				),
			},
			{
				Name:      "watch",
				Usage:     "Keep the store in step with a directory",
				ArgsUsage: "DIR",
				Action:    watchCommand,
				Flags: append(storeFlags(),
					&cli.BoolFlag{
						Name:  "initial",
						Usage: "Ingest the supported files already in DIR before watching",
						Value: true,
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Number of files processed concurrently during the initial pass",
					},
				),
			},
			{
				Name:   "serve",
				Usage:  "Serve search_documents and save_text as MCP tools on stdio",
				Action: serveCommand,
				Flags: append(storeFlags(),
					&cli.BoolFlag{
						Name:  "read-only",
						Usage: "Do not offer the save_text tool",
					},
				),
			},
			{
				Name:   "sanitize",
				Usage:  "Print standard input as it would be stored",
				Action: sanitizeCommand,
			},
		},
	}
}

func connectionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "supabase-url",
			Usage:    "Postgres connection string of the Supabase project",
			EnvVars:  []string{"SUPABASE_URL"},
			Required: true,
		},
		&cli.StringFlag{
			Name:    "supabase-key",
			Usage:   "Supabase service key, used as the database password",
			EnvVars: []string{"SUPABASE_KEY"},
		},
	}
}

func storeFlags() []cli.Flag {
	return append(connectionFlags(),
		&cli.StringFlag{
			Name:    "api-type",
			Usage:   "Embeddings provider (openai, azure)",
			EnvVars: []string{"OPENAI_API_TYPE"},
			Value:   string(ai.APITypeOpenAI),
		},
		&cli.StringFlag{
			Name:    "api-key",
			Usage:   "Embeddings API key",
			EnvVars: []string{"OPENAI_API_KEY"},
		},
		&cli.StringFlag{
			Name:    "host",
			Usage:   "OpenAI-compatible API base URL",
			EnvVars: []string{"OPENAI_API_HOST"},
			Value:   "https://api.openai.com/v1",
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model name",
			EnvVars: []string{"OPENAI_EMBEDDING_MODEL"},
			Value:   "text-embedding-ada-002",
		},
		&cli.StringFlag{
			Name:    "azure-instance",
			Usage:   "Azure OpenAI resource name",
			EnvVars: []string{"AZURE_OPENAI_API_INSTANCE_NAME"},
		},
		&cli.StringFlag{
			Name:    "azure-deployment",
			Usage:   "Azure OpenAI embeddings deployment",
			EnvVars: []string{"AZURE_OPENAI_API_EMBEDDINGS_DEPLOYMENT_NAME"},
		},
		&cli.StringFlag{
			Name:    "azure-api-version",
			Usage:   "Azure OpenAI api-version",
			EnvVars: []string{"AZURE_OPENAI_API_VERSION"},
			Value:   ai.DefaultAzureAPIVersion,
		},
		&cli.StringFlag{
			Name:    "azure-endpoint",
			Usage:   "Custom Azure OpenAI endpoint (overrides --azure-instance)",
			EnvVars: []string{"AZURE_OPENAI_ENDPOINT"},
		},
		&cli.StringFlag{
			Name:    "cache-dir",
			Usage:   "BadgerDB directory for caching embeddings (disabled when empty)",
			EnvVars: []string{"VECDOCS_CACHE_DIR"},
		},
	)
}

func keyConfiguration(c *cli.Context) (*ai.KeyConfiguration, error) {
	apiType, err := ai.ParseAPIType(c.String("api-type"))
	if err != nil {
		return nil, err
	}

	opts := []ai.KeyOption{
		ai.WithAPIType(apiType),
		ai.WithAPIKey(c.String("api-key")),
		ai.WithHost(c.String("host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	}
	if apiType == ai.APITypeAzureOpenAI {
		opts = append(opts, ai.WithAzure(
			c.String("azure-instance"),
			c.String("azure-deployment"),
			c.String("azure-api-version"),
		), ai.WithAzureEndpoint(c.String("azure-endpoint")))
	}

	cfg := ai.NewKeyConfiguration(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid key configuration: %w", err)
	}
	return cfg, nil
}

// openIndex connects to the store and, when --cache-dir is set, opens the embedding cache.
// The returned function closes both.
func openIndex(ctx context.Context, c *cli.Context) (*vecdocs.Index, func(), error) {
	conn := supabase.Connection{
		URL: c.String("supabase-url"),
		Key: c.String("supabase-key"),
	}

	var (
		opts    []vecdocs.Option
		backend *badger.Backend
	)
	if dir := c.String("cache-dir"); dir != "" {
		var err error
		backend, err = badger.OpenBackend(dir, false)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open embedding cache: %w", err)
		}
		cache, err := badger.NewEmbeddingCache(backend)
		if err != nil {
			backend.Close()
			return nil, nil, fmt.Errorf("failed to create embedding cache: %w", err)
		}
		opts = append(opts, vecdocs.WithEmbeddingCache(cache))
	}

	idx, err := vecdocs.Open(ctx, conn, opts...)
	if err != nil {
		if backend != nil {
			backend.Close()
		}
		return nil, nil, fmt.Errorf("failed to connect: %w", err)
	}

	return idx, func() {
		if err := idx.Close(); err != nil {
			slog.Warn("error closing index", "err", err)
		}
		if backend != nil {
			if err := backend.Close(); err != nil {
				slog.Warn("error closing embedding cache", "err", err)
			}
		}
	}, nil
}

func ingestCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	paths := c.Args().Slice()
	if len(paths) == 0 {
		return fmt.Errorf("at least one file is required")
	}

	cfg, err := keyConfiguration(c)
	if err != nil {
		return err
	}

	idx, closeIndex, err := openIndex(ctx, c)
	if err != nil {
		return err
	}
	defer closeIndex()

	opts := []ingestion.Option{
		ingestion.WithSplitter(ingestion.NewSplitter(c.Int("chunk-size"), c.Int("chunk-overlap"))),
		ingestion.WithReplaceExisting(c.Bool("replace")),
	}
	if size := c.Int("pool-size"); size > 0 {
		opts = append(opts, ingestion.WithPoolSize(size))
	}

	pipeline, err := idx.NewIngestionPipeline(cfg, opts...)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	total, err := pipeline.IngestFiles(ctx, paths...)
	fmt.Fprintf(c.App.Writer, "Saved %d chunks from %d files\n", total, len(paths))
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	return nil
}

func loadCommand(c *cli.Context) error {
	ctx := context.Background()

	metadata, err := parseMetadata(c.StringSlice("metadata"))
	if err != nil {
		return err
	}
	metadata = core.WithFileName(metadata, c.String("file-name"))

	texts := c.Args().Slice()
	if len(texts) == 0 {
		texts, err = splitReader(c.App.Reader)
		if err != nil {
			return err
		}
	}
	if len(texts) == 0 {
		return fmt.Errorf("nothing to load")
	}

	cfg, err := keyConfiguration(c)
	if err != nil {
		return err
	}

	idx, closeIndex, err := openIndex(ctx, c)
	if err != nil {
		return err
	}
	defer closeIndex()

	if _, err := idx.GetVectorStore(ctx, cfg, texts, metadata); err != nil {
		return fmt.Errorf("load failed: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Loaded %d chunks into %s\n", len(texts), c.String("file-name"))
	return nil
}

func queryCommand(c *cli.Context) error {
	ctx := context.Background()

	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("query is required")
	}

	cfg, err := keyConfiguration(c)
	if err != nil {
		return err
	}

	idx, closeIndex, err := openIndex(ctx, c)
	if err != nil {
		return err
	}
	defer closeIndex()

	searcher, err := idx.NewSearcher(cfg, search.WithScoreThreshold(float32(c.Float64("threshold"))))
	if err != nil {
		return err
	}

	results, err := searcher.Search(ctx, c.String("file-name"), query, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	printResults(c.App.Writer, results)
	return nil
}

func deleteCommand(c *cli.Context) error {
	ctx := context.Background()

	idx, err := vecdocs.Open(ctx, supabase.Connection{
		URL: c.String("supabase-url"),
		Key: c.String("supabase-key"),
	})
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer idx.Close()

	fileName := c.String("file-name")
	removed, err := idx.DeleteFile(ctx, fileName)
	if err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Deleted %d chunks of %s\n", removed, fileName)
	return nil
}

func watchCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dir := c.Args().First()
	if dir == "" {
		return fmt.Errorf("directory is required")
	}

	cfg, err := keyConfiguration(c)
	if err != nil {
		return err
	}

	idx, closeIndex, err := openIndex(ctx, c)
	if err != nil {
		return err
	}
	defer closeIndex()

	opts := []ingestion.Option{ingestion.WithReplaceExisting(true)}
	if size := c.Int("pool-size"); size > 0 {
		opts = append(opts, ingestion.WithPoolSize(size))
	}
	pipeline, err := idx.NewIngestionPipeline(cfg, opts...)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	if c.Bool("initial") {
		paths, err := supportedFiles(dir)
		if err != nil {
			return err
		}
		total, err := pipeline.IngestFiles(ctx, paths...)
		if err != nil {
			slog.Warn("initial ingestion incomplete", "dir", dir, "err", err)
		}
		slog.Info("initial ingestion complete", "files", len(paths), "chunks", total)
	}

	watcher, err := watch.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Stop()

	events, err := watcher.Watch(ctx, dir)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	syncer, err := watch.NewSyncer(pipeline, idx.Bind(cfg), nil)
	if err != nil {
		return err
	}

	if err := syncer.Run(ctx, events); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func serveCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := keyConfiguration(c)
	if err != nil {
		return err
	}

	idx, closeIndex, err := openIndex(ctx, c)
	if err != nil {
		return err
	}
	defer closeIndex()

	searcher, err := idx.NewSearcher(cfg)
	if err != nil {
		return err
	}

	var ingester mcp.Ingester
	if !c.Bool("read-only") {
		pipeline, err := idx.NewIngestionPipeline(cfg)
		if err != nil {
			return fmt.Errorf("failed to create pipeline: %w", err)
		}
		defer pipeline.Release()
		ingester = pipeline
	}

	server, err := mcp.NewServer(searcher, ingester)
	if err != nil {
		return err
	}
	if err := server.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize MCP server: %w", err)
	}
	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func sanitizeCommand(c *cli.Context) error {
	data, err := io.ReadAll(c.App.Reader)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	fmt.Fprintln(c.App.Writer, core.Sanitize(string(data)))
	return nil
}

func parseMetadata(pairs []string) (map[string]any, error) {
	metadata := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid metadata %q: expected key=value", pair)
		}
		metadata[key] = value
	}
	return metadata, nil
}

func splitReader(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, nil
	}
	splitter := ingestion.NewSplitter(ingestion.DefaultChunkSize, ingestion.DefaultChunkOverlap)
	return splitter.SplitText(string(data))
}

// supportedFiles lists the ingestible files directly inside dir.
func supportedFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !ingestion.IsSupported(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	return paths, nil
}

func printResults(w io.Writer, results []*search.Result) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results")
		return
	}
	for i, r := range results {
		marker := ""
		if r.Verbatim {
			marker = " verbatim"
		}
		fmt.Fprintf(w, "%d. [%.3f%s] %s\n", i+1, r.Score, marker, r.Document.PageContent)
	}
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Logs always go to stderr; serve uses stdout for the protocol.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
