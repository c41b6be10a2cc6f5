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
	"os"
	"strings"

	"github.com/poiesic/readgye"
	"github.com/poiesic/readgye/ai"
	"github.com/poiesic/readgye/retrieval"
	"github.com/poiesic/readgye/vecindex"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "readgye",
		Usage: "Contract clause retrieval over analyzed documents",
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
				Name:   "retrieve",
				Usage:  "Find the clauses most relevant to a question",
				Action: retrieveCommand,
				Flags: append(serviceFlags(),
					&cli.StringFlag{
						Name:     "owner",
						Usage:    "Owner id scoping the search",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "query",
						Aliases:  []string{"q"},
						Usage:    "Natural-language question",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "document",
						Usage: "Restrict the search to one document id",
					},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Number of clauses to return (clamped to 1..20)",
						Value: retrieval.DefaultTopK,
					},
					&cli.Float64Flag{
						Name:  "min-similarity",
						Usage: "Minimum raw vector similarity (clamped to -1..1)",
						Value: retrieval.DefaultMinSimilarity,
					},
					&cli.IntFlag{
						Name:  "candidate-k",
						Usage: "Candidate pool size per retrieval tier",
						Value: retrieval.DefaultCandidateK,
					},
					&cli.BoolFlag{
						Name:  "no-rerank",
						Usage: "Rank by raw vector score only",
					},
				),
			},
			{
				Name:   "context",
				Usage:  "Render the unranked context for an owner",
				Action: contextCommand,
				Flags: append(serviceFlags(),
					&cli.StringFlag{
						Name:     "owner",
						Usage:    "Owner id scoping the context",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "document",
						Usage: "Restrict the context to one document id",
					},
				),
			},
			{
				Name:   "backfill",
				Usage:  "Embed analyzed clauses that lack an embedding row",
				Action: backfillCommand,
				Flags: append(serviceFlags(),
					&cli.StringFlag{
						Name:     "owner",
						Usage:    "Owner id scoping the sweep",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "document",
						Usage: "Restrict the sweep to one document id",
					},
				),
			},
			{
				Name:   "delete-document",
				Usage:  "Remove a document with its clauses, embeddings and index points",
				Action: deleteDocumentCommand,
				Flags: append(serviceFlags(),
					&cli.StringFlag{
						Name:     "document",
						Usage:    "Document id to delete",
						Required: true,
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func serviceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to the SQLite database file",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "index-path",
			Usage: "Directory for the vector index (omit to disable tier 1)",
		},
		&cli.StringFlag{
			Name:    "embedding-host",
			Usage:   "Embedding service host URL",
			Value:   "https://api.openai.com/v1",
			EnvVars: []string{"READGYE_EMBEDDING_HOST"},
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model name",
			Value:   ai.DefaultEmbeddingModel,
			EnvVars: []string{"READGYE_EMBEDDING_MODEL"},
		},
		&cli.StringFlag{
			Name:    "api-key",
			Usage:   "Embedding service API key",
			EnvVars: []string{"READGYE_API_KEY"},
		},
	}
}

func openService(c *cli.Context) (*readgye.Service, error) {
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithAPIKey(c.String("api-key")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid embedding configuration: %w", err)
	}

	return readgye.NewService(c.String("db"),
		readgye.WithAIConfig(aiConfig),
		readgye.WithIndexConfig(vecindex.Config{Path: c.String("index-path")}),
	)
}

// clampInt and clampFloat apply the user-facing parameter bounds before the
// retriever sees them.
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func retrieveCommand(c *cli.Context) error {
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	retriever, err := svc.NewRetriever()
	if err != nil {
		return err
	}

	result, err := retriever.Retrieve(context.Background(), retrieval.Params{
		OwnerID:       c.String("owner"),
		Query:         c.String("query"),
		DocumentID:    c.String("document"),
		TopK:          clampInt(c.Int("top-k"), 1, 20),
		MinSimilarity: clampFloat(c.Float64("min-similarity"), -1, 1),
		CandidateK:    clampInt(c.Int("candidate-k"), 1, 100),
		DisableRerank: c.Bool("no-rerank"),
	})
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	fmt.Println(result.Context)
	if len(result.Citations) > 0 {
		fmt.Println("\n--- citations ---")
		for i, cit := range result.Citations {
			fmt.Printf("%d. %s %s (%s, %s) score=%.4f clause=%s\n",
				i+1, cit.ClauseNumber, cit.ClauseTitle, cit.DocumentFilename,
				cit.RiskLevel, cit.Score, cit.ClauseID)
		}
	}
	return nil
}

func contextCommand(c *cli.Context) error {
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	retriever, err := svc.NewRetriever()
	if err != nil {
		return err
	}

	text, err := retriever.UnrankedContext(context.Background(), c.String("owner"), c.String("document"), nil)
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

func backfillCommand(c *cli.Context) error {
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	pipeline, err := svc.NewIngestionPipeline()
	if err != nil {
		return err
	}
	defer pipeline.Release()

	count, err := pipeline.Backfill(context.Background(), c.String("owner"), c.String("document"))
	if err != nil {
		return fmt.Errorf("backfill failed: %w", err)
	}
	fmt.Printf("embedded %d clauses\n", count)
	return nil
}

func deleteDocumentCommand(c *cli.Context) error {
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	pipeline, err := svc.NewIngestionPipeline()
	if err != nil {
		return err
	}
	defer pipeline.Release()

	if err := pipeline.DeleteDocument(context.Background(), c.String("document")); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	fmt.Println("document deleted")
	return nil
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
