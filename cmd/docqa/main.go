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
	"log"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/docqa"
	"github.com/poiesic/docqa/ai"
	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/reembed"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "docqa",
		Usage: "Document question answering over a local knowledge base",
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
				Usage:    "Path to the database directory",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "embedding-host",
				Usage: "Embedding service host URL",
				Value: "http://localhost:11434/v1",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name",
				Value: "embeddinggemma",
			},
			&cli.StringFlag{
				Name:  "chat-host",
				Usage: "Chat service host URL (defaults to embedding-host)",
			},
			&cli.StringFlag{
				Name:  "chat-model",
				Usage: "Chat model name",
				Value: "qwen2.5:3b",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Ingest a document file",
				ArgsUsage: "<file>",
				Action:    addCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "visible-to",
						Usage: "Comma-separated extra roles that may retrieve from this document (staff, external)",
					},
					&cli.StringFlag{
						Name:  "media-type",
						Usage: "Override the media type detected from the file extension",
					},
				},
			},
			{
				Name:      "retry",
				Usage:     "Resume ingestion of a failed document",
				ArgsUsage: "<document-id>",
				Action:    retryCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "file",
						Usage: "Original file, needed only when the document failed before chunking",
					},
				},
			},
			{
				Name:      "ask",
				Usage:     "Ask a question against the knowledge base",
				ArgsUsage: "<question>",
				Action:    askCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "role",
						Usage: "Caller role (owner, staff, external)",
						Value: "owner",
					},
					&cli.StringFlag{
						Name:  "contact-name",
						Usage: "Contact name to record when the question cannot be answered",
					},
					&cli.StringFlag{
						Name:  "contact-email",
						Usage: "Contact email to record when the question cannot be answered",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Run hybrid retrieval without generating an answer",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "role",
						Usage: "Caller role (owner, staff, external)",
						Value: "owner",
					},
				},
			},
			{
				Name:   "docs",
				Usage:  "List all documents",
				Action: docsCommand,
			},
			{
				Name:      "delete",
				Usage:     "Delete a document and its chunks",
				ArgsUsage: "<document-id>",
				Action:    deleteCommand,
			},
			{
				Name:   "queries",
				Usage:  "List captured customer queries",
				Action: queriesCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "status",
						Usage: "Filter by status (pending, responded, archived)",
					},
				},
			},
			{
				Name:      "resolve-query",
				Usage:     "Update the follow-up state of a captured query",
				ArgsUsage: "<query-id>",
				Action:    resolveQueryCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "status",
						Usage:    "New status (pending, responded, archived)",
						Required: true,
					},
				},
			},
			{
				Name:   "prune-cache",
				Usage:  "Evict cache entries that are both stale and rarely hit",
				Action: pruneCacheCommand,
			},
			{
				Name:   "reembed",
				Usage:  "Reembed all chunks with the current embedding model",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to embed per model call",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: 100,
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
		},
	}
}

func openDatabase(c *cli.Context) (*docqa.Database, error) {
	chatHost := c.String("chat-host")
	if chatHost == "" {
		chatHost = c.String("embedding-host")
	}

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithChatHost(chatHost),
		ai.WithChatModel(c.String("chat-model")),
	)

	db, err := docqa.NewDatabase(c.String("db"), docqa.WithAIConfig(aiConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func addCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one file argument")
	}
	path := c.Args().First()

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	mediaType := c.String("media-type")
	if mediaType == "" {
		mediaType = mime.TypeByExtension(filepath.Ext(path))
		if mediaType == "" {
			mediaType = "text/plain"
		}
	}

	visibleTo := core.NewRoleSet()
	if spec := c.String("visible-to"); spec != "" {
		for _, name := range strings.Split(spec, ",") {
			role, err := core.ParseRole(strings.TrimSpace(name))
			if err != nil {
				return err
			}
			visibleTo = visibleTo.With(role)
		}
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	doc, err := db.AddDocument(context.Background(), &core.Document{
		Filename:  filepath.Base(path),
		MediaType: mediaType,
		VisibleTo: visibleTo,
	}, raw)
	if err != nil {
		if doc != nil {
			fmt.Fprintf(os.Stderr, "Document %d stored with status %s; retry with: docqa retry %d\n",
				doc.Id, doc.Status, doc.Id)
		}
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("Ingested document %d (%s, %d bytes, visible to %s)\n",
		doc.Id, doc.Filename, doc.Size, doc.VisibleTo)
	return nil
}

func retryCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one document-id argument")
	}

	var id core.ID
	if _, err := fmt.Sscanf(c.Args().First(), "%d", &id); err != nil {
		return fmt.Errorf("invalid document id %q", c.Args().First())
	}

	var raw []byte
	if path := c.String("file"); path != "" {
		var err error
		raw, err = os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	doc, err := db.RetryDocument(context.Background(), id, raw)
	if err != nil {
		return fmt.Errorf("retry failed: %w", err)
	}

	fmt.Printf("Document %d is now %s\n", doc.Id, doc.Status)
	return nil
}

func askCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one question argument")
	}
	question := c.Args().First()

	role, err := core.ParseRole(c.String("role"))
	if err != nil {
		return err
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	result, err := db.Ask(ctx, question, role)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	fmt.Println(result.Text)

	if result.NoAnswer {
		name := c.String("contact-name")
		email := c.String("contact-email")
		if name != "" || email != "" {
			q, err := db.CaptureQuery(ctx, question, name, email)
			if err != nil {
				return fmt.Errorf("failed to record query: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Recorded query %d for follow-up.\n", q.Id)
		}
		return nil
	}

	if result.Cached {
		fmt.Fprintln(os.Stderr, "(cached)")
	}
	for _, src := range result.Sources {
		fmt.Fprintf(os.Stderr, "  source: document %d chunk %d\n", src.DocumentId, src.ChunkId)
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one query argument")
	}

	role, err := core.ParseRole(c.String("role"))
	if err != nil {
		return err
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	ranked, err := db.Search(context.Background(), c.Args().First(), role)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(ranked) == 0 {
		fmt.Println("No matches.")
		return nil
	}
	for i, r := range ranked {
		fmt.Printf("%2d. [%.3f %s] doc %d chunk %d: %s\n",
			i+1, r.Score, r.Source, r.Chunk.DocumentId, r.Chunk.Id, truncate(r.Chunk.Content, 80))
	}
	return nil
}

func docsCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	docs, err := db.ListDocuments(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		fmt.Println("No documents.")
		return nil
	}
	for _, doc := range docs {
		line := fmt.Sprintf("%d\t%s\t%s\t%d bytes\tvisible to %s",
			doc.Id, doc.Filename, doc.Status, doc.Size, doc.VisibleTo)
		if doc.Status == core.StatusFailed && doc.ErrorMessage != "" {
			line += "\terror: " + doc.ErrorMessage
		}
		fmt.Println(line)
	}
	return nil
}

func deleteCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one document-id argument")
	}

	var id core.ID
	if _, err := fmt.Sscanf(c.Args().First(), "%d", &id); err != nil {
		return fmt.Errorf("invalid document id %q", c.Args().First())
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.DeleteDocument(context.Background(), id); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	fmt.Printf("Deleted document %d\n", id)
	return nil
}

func queriesCommand(c *cli.Context) error {
	var status core.QueryStatus
	if s := c.String("status"); s != "" {
		var err error
		status, err = core.ParseQueryStatus(s)
		if err != nil {
			return err
		}
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	queries, err := db.ListCustomerQueries(context.Background(), status)
	if err != nil {
		return fmt.Errorf("failed to list queries: %w", err)
	}

	if len(queries) == 0 {
		fmt.Println("No queries.")
		return nil
	}
	for _, q := range queries {
		contact := q.ContactName
		if q.ContactEmail != "" {
			if contact != "" {
				contact += " "
			}
			contact += "<" + q.ContactEmail + ">"
		}
		if contact == "" {
			contact = "anonymous"
		}
		fmt.Printf("%d\t%s\t%s\t%s\t%s\n",
			q.Id, q.Status, q.InsertedAt.Format(time.RFC3339), contact, q.Question)
	}
	return nil
}

func resolveQueryCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one query-id argument")
	}

	var id core.ID
	if _, err := fmt.Sscanf(c.Args().First(), "%d", &id); err != nil {
		return fmt.Errorf("invalid query id %q", c.Args().First())
	}

	status, err := core.ParseQueryStatus(c.String("status"))
	if err != nil {
		return err
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.SetCustomerQueryStatus(context.Background(), id, status); err != nil {
		return fmt.Errorf("failed to update query: %w", err)
	}
	fmt.Printf("Query %d is now %s\n", id, status)
	return nil
}

func pruneCacheCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	pruned, err := db.PruneCache(context.Background())
	if err != nil {
		return fmt.Errorf("prune failed: %w", err)
	}
	fmt.Printf("Pruned %d cache entries\n", pruned)
	return nil
}

func reembedCommand(c *cli.Context) error {
	config := reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if config.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if config.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if config.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n\n", c.String("embedding-model"))

	if _, err := db.Reembed(context.Background(), config, os.Stderr); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}

func setupLogger(c *cli.Context) error {
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
