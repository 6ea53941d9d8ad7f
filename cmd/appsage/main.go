// Copyright 2026 Appsage Authors
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
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	appsage "github.com/appsage/appsage"
	"github.com/appsage/appsage/ai"
	"github.com/appsage/appsage/api"
	"github.com/appsage/appsage/compose"
	"github.com/appsage/appsage/index"
	"github.com/appsage/appsage/ingest"
	"github.com/appsage/appsage/retrieve"
	"github.com/appsage/appsage/store"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "appsage",
		Usage: "Question answering over app-market insights",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:     "db",
				Aliases:  []string{"d"},
				Usage:    "Path to BadgerDB database directory",
				EnvVars:  []string{"APPSAGE_DB"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "host",
				Usage:   "Model service host URL for both embeddings and chat",
				EnvVars: []string{"APPSAGE_HOST"},
				Value:   "http://localhost:11434/v1",
			},
			&cli.StringFlag{
				Name:    "embedding-model",
				Usage:   "Embedding model name",
				EnvVars: []string{"APPSAGE_EMBEDDING_MODEL"},
				Value:   "embeddinggemma",
			},
			&cli.StringFlag{
				Name:    "chat-model",
				Usage:   "Chat model name for answer composition",
				EnvVars: []string{"APPSAGE_CHAT_MODEL"},
				Value:   "qwen2.5:3b",
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "API token for the model service",
				EnvVars: []string{"APPSAGE_TOKEN"},
			},
			&cli.IntFlag{
				Name:    "top-k",
				Usage:   "Number of insights retrieved per query",
				EnvVars: []string{"APPSAGE_TOP_K"},
				Value:   retrieve.DefaultTopK,
			},
			&cli.Float64Flag{
				Name:    "min-similarity",
				Usage:   "Minimum similarity score for a retrieved insight",
				EnvVars: []string{"APPSAGE_MIN_SIMILARITY"},
				Value:   float64(retrieve.DefaultMinSimilarity),
			},
		},
		Before: setupApp,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Load generated insights from a JSON file, embed them and rebuild the index",
				ArgsUsage: "<insights.json>",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "mode",
						Usage: "Ingest mode: replace (purge and reload) or merge (skip known insights)",
						Value: string(store.IngestReplace),
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of insights to embed in each model call",
						Value: ingest.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of concurrent embedding workers (0 = half the CPUs)",
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed embedding calls",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
			{
				Name:   "reindex",
				Usage:  "Rebuild the search index from the stored corpus",
				Action: reindexCommand,
			},
			{
				Name:      "query",
				Usage:     "Ask a single question and print the grounded answer",
				ArgsUsage: "<question>",
				Action:    queryCommand,
			},
			{
				Name:   "chat",
				Usage:  "Interactive question answering session",
				Action: chatCommand,
			},
			{
				Name:   "serve",
				Usage:  "Serve the query API over HTTP",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "addr",
						Usage:   "Listen address",
						EnvVars: []string{"APPSAGE_ADDR"},
						Value:   ":8080",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// setupApp loads .env if present and configures the default logger.
func setupApp(c *cli.Context) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	levelStr := strings.ToLower(c.String("log-level"))

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

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

// openEngine builds an Engine from the global flags.
func openEngine(c *cli.Context) (*appsage.Engine, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithChatModel(c.String("chat-model")),
		ai.WithToken(c.String("token")),
	)

	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	engine, err := appsage.NewEngine(c.String("db"),
		appsage.WithAIConfig(aiConfig),
		appsage.WithRetrieverOptions(
			retrieve.WithTopK(c.Int("top-k")),
			retrieve.WithMinSimilarity(float32(c.Float64("min-similarity"))),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open engine: %w", err)
	}

	return engine, nil
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one insights file argument")
	}
	filePath := c.Args().First()

	mode := store.IngestMode(c.String("mode"))
	if mode != store.IngestReplace && mode != store.IngestMerge {
		return fmt.Errorf("invalid mode %q: must be replace or merge", c.String("mode"))
	}

	insights, err := store.LoadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to load insights: %w", err)
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := engine.Warmup(ctx); err != nil {
		return fmt.Errorf("embedding model is not reachable: %w", err)
	}

	opts := []ingest.Option{
		ingest.WithMode(mode),
		ingest.WithBatchSize(c.Int("batch-size")),
		ingest.WithRetry(c.Int("max-retries"), c.Duration("retry-delay")),
		ingest.WithProgress(os.Stderr),
	}
	if workers := c.Int("workers"); workers > 0 {
		opts = append(opts, ingest.WithPoolSize(workers))
	}

	pipeline, err := engine.NewIngestPipeline(opts...)
	if err != nil {
		return fmt.Errorf("failed to create ingest pipeline: %w", err)
	}
	defer pipeline.Release()

	fmt.Fprintf(os.Stderr, "Insights file: %s\n", filePath)
	fmt.Fprintf(os.Stderr, "Loaded insights: %d\n", len(insights))
	fmt.Fprintf(os.Stderr, "Mode: %s\n", mode)
	fmt.Fprintln(os.Stderr)

	if err := pipeline.Run(ctx, insights); err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	indexed, err := engine.Reindex(ctx)
	if err != nil {
		return fmt.Errorf("index rebuild failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Indexed %d insights\n", indexed)
	return nil
}

func reindexCommand(c *cli.Context) error {
	ctx := context.Background()

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	indexed, err := engine.Reindex(ctx)
	if err != nil {
		return fmt.Errorf("index rebuild failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Indexed %d insights\n", indexed)
	return nil
}

func queryCommand(c *cli.Context) error {
	ctx := context.Background()

	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one question argument")
	}
	question := c.Args().First()

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	if _, err := engine.Reindex(ctx); err != nil {
		return fmt.Errorf("index rebuild failed: %w", err)
	}

	if err := engine.Warmup(ctx); err != nil {
		return fmt.Errorf("embedding model is not reachable: %w", err)
	}

	result, err := engine.Ask(ctx, question)
	return printAskResult(result, err)
}

func chatCommand(c *cli.Context) error {
	ctx := context.Background()

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	indexed, err := engine.Reindex(ctx)
	if err != nil {
		return fmt.Errorf("index rebuild failed: %w", err)
	}
	if indexed == 0 {
		return fmt.Errorf("no insights indexed yet, run ingest first")
	}

	if err := engine.Warmup(ctx); err != nil {
		return fmt.Errorf("embedding model is not reachable: %w", err)
	}

	heading := color.New(color.FgCyan, color.Bold)
	faint := color.New(color.Faint)

	heading.Printf("appsage chat over %d insights. Type a question, or \"exit\" to quit.\n", indexed)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			break
		}

		result, askErr := engine.Ask(ctx, question)
		if askErr != nil && !errors.Is(askErr, compose.ErrUpstreamUnavailable) {
			color.Red("error: %v", askErr)
			continue
		}

		if askErr != nil {
			color.Red("the language model is unavailable: %v", askErr)
			color.Yellow("retrieved insights for %q:", question)
		} else {
			fmt.Println()
			fmt.Println(result.Answer)
			fmt.Println()
			faint.Println("grounded on:")
		}

		for _, s := range result.Insights {
			faint.Printf("  [%.2f] %s\n", s.Score, s.Insight.Text)
		}
		fmt.Println()
	}

	return scanner.Err()
}

func serveCommand(c *cli.Context) error {
	ctx := context.Background()

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	if _, err := engine.Reindex(ctx); err != nil {
		return fmt.Errorf("index rebuild failed: %w", err)
	}

	if err := engine.Warmup(ctx); err != nil {
		slog.Warn("embedding model is not reachable yet, queries will fail until it is", "err", err)
	}

	handler := api.NewHandler(engine, slog.Default())
	router := api.NewRouter(handler, slog.Default())

	addr := c.String("addr")
	slog.Info("serving query API", "addr", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return server.ListenAndServe()
}

// printAskResult prints an answer, or the retrieved context when the
// language model failed.
func printAskResult(result *appsage.AskResult, askErr error) error {
	if askErr != nil {
		if result == nil || !errors.Is(askErr, compose.ErrUpstreamUnavailable) {
			if errors.Is(askErr, index.ErrEmptyIndex) {
				return fmt.Errorf("no insights indexed yet, run ingest first")
			}
			return askErr
		}

		color.Red("the language model is unavailable: %v", askErr)
		color.Yellow("retrieved insights for %q:", result.Query)
		for _, s := range result.Insights {
			fmt.Printf("  [%.2f] %s\n", s.Score, s.Insight.Text)
		}
		return fmt.Errorf("answer composition failed")
	}

	fmt.Println(result.Answer)
	if len(result.Insights) > 0 {
		faint := color.New(color.Faint)
		fmt.Println()
		faint.Println("grounded on:")
		for _, s := range result.Insights {
			faint.Printf("  [%.2f] %s\n", s.Score, s.Insight.Text)
		}
	}
	return nil
}
