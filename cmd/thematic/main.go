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
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/thematic/ai"
	"github.com/poiesic/thematic/ai/openai"
	"github.com/poiesic/thematic/core"
	"github.com/poiesic/thematic/pipeline"
	badgerstore "github.com/poiesic/thematic/storage/badger"
)

func main() {
	app := &cli.App{
		Name:  "thematic",
		Usage: "Research-weighted theme analysis over interview transcripts",
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
				Name:      "analyze",
				Usage:     "Analyze a directory of .txt transcripts against research questions",
				ArgsUsage: "<transcript-dir>",
				Action:    analyzeCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "question",
						Aliases: []string{"q"},
						Usage:   "Research question (repeatable)",
					},
					&cli.StringFlag{
						Name:  "questions-file",
						Usage: "File with one research question per line ('#' starts a comment)",
					},
					&cli.StringSliceFlag{
						Name:  "hypothesis",
						Usage: "Research hypothesis (repeatable)",
					},
					&cli.StringFlag{
						Name:    "db",
						Aliases: []string{"d"},
						Usage:   "Path to BadgerDB database directory (omit to skip persistence)",
					},
					&cli.StringFlag{
						Name:  "host",
						Usage: "OpenAI-compatible API host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:     "embedding-model",
						Usage:    "Embedding model name",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "oracle-model",
						Usage:    "Generation model name for synthesis and quote extraction",
						Required: true,
					},
					&cli.Float64Flag{
						Name:  "semantic-weight",
						Usage: "Semantic share of the clustering blend",
						Value: 0.3,
					},
					&cli.Float64Flag{
						Name:  "research-weight",
						Usage: "Research share of the clustering blend",
						Value: 0.7,
					},
					&cli.IntFlag{
						Name:  "quote-workers",
						Usage: "Concurrent oracle calls during quote validation",
						Value: 4,
					},
				},
			},
			{
				Name:  "runs",
				Usage: "Inspect persisted analysis runs",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List past runs, most recent first",
						Action: runsListCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "db",
								Aliases:  []string{"d"},
								Usage:    "Path to BadgerDB database directory",
								Required: true,
							},
							&cli.IntFlag{
								Name:  "limit",
								Usage: "Maximum number of runs to list",
								Value: 10,
							},
						},
					},
					{
						Name:      "show",
						Usage:     "Show one run as JSON",
						ArgsUsage: "<run-id>",
						Action:    runsShowCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "db",
								Aliases:  []string{"d"},
								Usage:    "Path to BadgerDB database directory",
								Required: true,
							},
						},
					},
					{
						Name:      "delete",
						Usage:     "Delete a run",
						ArgsUsage: "<run-id>",
						Action:    runsDeleteCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "db",
								Aliases:  []string{"d"},
								Usage:    "Path to BadgerDB database directory",
								Required: true,
							},
						},
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func analyzeCommand(c *cli.Context) error {
	ctx := context.Background()

	dir := c.Args().First()
	if dir == "" {
		return fmt.Errorf("transcript directory is required")
	}

	questions := c.StringSlice("question")
	if file := c.String("questions-file"); file != "" {
		fromFile, err := readQuestionsFile(file)
		if err != nil {
			return err
		}
		questions = append(questions, fromFile...)
	}
	if len(questions) == 0 {
		return fmt.Errorf("at least one research question is required (use --question or --questions-file)")
	}

	chunks, documents, err := loadTranscripts(dir)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return fmt.Errorf("no text chunks found in %s", dir)
	}

	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithOracleModel(c.String("oracle-model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	provider, err := openai.NewProvider(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create AI provider: %w", err)
	}
	defer provider.Close()

	opts := []pipeline.Option{
		pipeline.WithWeights(c.Float64("semantic-weight"), c.Float64("research-weight")),
		pipeline.WithQuoteWorkers(c.Int("quote-workers")),
	}

	if dbPath := c.String("db"); dbPath != "" {
		store, err := badgerstore.NewRunStore(dbPath, false)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer store.Close()
		opts = append(opts, pipeline.WithStore(store))
	}

	p, err := pipeline.NewPipeline(provider, opts...)
	if err != nil {
		return err
	}
	defer p.Release()

	fmt.Fprintf(os.Stderr, "Transcripts: %s (%d chunks, %d documents)\n", dir, len(chunks), len(documents))
	fmt.Fprintf(os.Stderr, "Questions: %d\n\n", len(questions))

	res, err := p.Analyze(ctx, &pipeline.Request{
		Questions:  questions,
		Hypotheses: c.StringSlice("hypothesis"),
		Chunks:     chunks,
		Documents:  documents,
	})
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	printResult(res)
	return nil
}

func printResult(res *pipeline.Result) {
	run := res.Run

	fmt.Printf("Clusters: %d (%d noise, %d rescued)\n",
		run.Info.TotalClusters, run.Info.NoisePoints, run.Info.RescuedPoints)

	fmt.Printf("\nThemes (%d):\n", len(res.Themes))
	for i, theme := range res.Themes {
		fmt.Printf("  %d. %s [%s]\n", i+1, theme.Name, theme.Confidence)
		fmt.Printf("     %s\n", theme.Summary)
	}

	fmt.Printf("\nCoverage: %.0f%% overall\n", run.Coverage.OverallCoverage*100)
	for _, q := range run.Coverage.Questions {
		fmt.Printf("  [%.2f] %s\n", q.CoverageScore, q.QuestionText)
		for _, gap := range q.Gaps {
			fmt.Printf("         gap: %s\n", gap)
		}
	}
	for _, rec := range run.Coverage.Recommendations {
		fmt.Printf("  recommendation: %s\n", rec)
	}

	fmt.Printf("\nQuote grounding: %s (%d quotes)\n", run.Validation.OverallQuality, run.Validation.TotalQuotes)
	fmt.Printf("  %s\n", run.Validation.Summary)

	if len(run.Warnings) > 0 {
		fmt.Printf("\nWarnings (%d):\n", len(run.Warnings))
		for _, w := range run.Warnings {
			fmt.Printf("  - %s\n", w)
		}
	}

	if run.ID != 0 {
		fmt.Printf("\nSaved as run %d\n", run.ID)
	}
}

func runsListCommand(c *cli.Context) error {
	store, err := badgerstore.NewRunStore(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	runs, err := store.ListRuns(context.Background(), c.Int("limit"))
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs found.")
		return nil
	}

	for _, run := range runs {
		coverage := "-"
		if run.Coverage != nil {
			coverage = fmt.Sprintf("%.0f%%", run.Coverage.OverallCoverage*100)
		}
		quality := "-"
		if run.Validation != nil {
			quality = string(run.Validation.OverallQuality)
		}
		fmt.Printf("%d  %s  chunks=%d clusters=%d coverage=%s quotes=%s\n",
			run.ID, run.CreatedAt.Format("2006-01-02 15:04"),
			run.ChunkCount, len(run.Clusters), coverage, quality)
	}
	return nil
}

func runsShowCommand(c *cli.Context) error {
	id, err := parseRunID(c.Args().First())
	if err != nil {
		return err
	}

	store, err := badgerstore.NewRunStore(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	run, err := store.GetRun(context.Background(), id)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func runsDeleteCommand(c *cli.Context) error {
	id, err := parseRunID(c.Args().First())
	if err != nil {
		return err
	}

	store, err := badgerstore.NewRunStore(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	if err := store.DeleteRun(context.Background(), id); err != nil {
		return err
	}
	fmt.Printf("Deleted run %d\n", id)
	return nil
}

func parseRunID(arg string) (core.ID, error) {
	if arg == "" {
		return 0, fmt.Errorf("run ID is required")
	}
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid run ID %q: %w", arg, err)
	}
	return core.ID(id), nil
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
