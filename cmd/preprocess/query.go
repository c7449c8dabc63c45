// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/preprocess/internal/config"
	preprocesserrors "github.com/kraklabs/preprocess/internal/errors"
	"github.com/kraklabs/preprocess/internal/output"
	"github.com/kraklabs/preprocess/internal/ui"
	"github.com/kraklabs/preprocess/pkg/codemix"
	"github.com/kraklabs/preprocess/pkg/embedding"
	"github.com/kraklabs/preprocess/pkg/features"
	"github.com/kraklabs/preprocess/pkg/inputadapter"
	"github.com/kraklabs/preprocess/pkg/langid"
	"github.com/kraklabs/preprocess/pkg/pipeline"
	"github.com/kraklabs/preprocess/pkg/resolver"
	"github.com/kraklabs/preprocess/pkg/romandetect"
	"github.com/kraklabs/preprocess/pkg/spellcorrect"
	"github.com/kraklabs/preprocess/pkg/synonym"
	"github.com/kraklabs/preprocess/pkg/tokenizer"
	"github.com/kraklabs/preprocess/pkg/translit"
)

func runQuery(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	batchPath := fs.String("batch", "", "Path to a file with one raw query per line")
	timeout := fs.Duration("timeout", 5*time.Second, "Per-query context deadline")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: preprocess query [options] [<raw input>]

Runs one raw input (free text, a romanized/native-script query, or a
product URL) through the full understanding pipeline and prints the
response shape (products, query_info, metrics).

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  preprocess query "wireless headphones under 2000"
  preprocess query --json "mujhe ek sasta mobile chahiye"
  preprocess query --batch queries.txt

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	orch, err := buildOrchestrator(configPath)
	if err != nil {
		reportFatal(err, globals.JSON)
	}

	if *batchPath != "" {
		runBatch(orch, *batchPath, *timeout, globals)
		return
	}

	if fs.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: a raw query argument is required (or use --batch)\n")
		fs.Usage()
		os.Exit(1)
	}

	raw := strings.Join(fs.Args(), " ")
	runOne(orch, raw, *timeout, globals)
}

func runOne(orch *pipeline.Orchestrator, raw string, timeout time.Duration, globals GlobalFlags) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	resp, err := orch.Process(ctx, raw)
	if err != nil {
		reportFatal(err, globals.JSON)
	}

	if globals.JSON {
		if err := output.JSON(resp); err != nil {
			reportFatal(err, true)
		}
		return
	}

	printResponse(resp)
}

func runBatch(orch *pipeline.Orchestrator, path string, timeout time.Duration, globals GlobalFlags) {
	f, err := os.Open(path)
	if err != nil {
		reportFatal(preprocesserrors.NewInputError(
			"Cannot open batch file",
			err.Error(),
			fmt.Sprintf("Verify that %s exists and is readable", path),
		), globals.JSON)
	}
	defer func() { _ = f.Close() }()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}

	progressCfg := NewProgressConfig(globals)
	bar := NewProgressBar(progressCfg, int64(len(lines)), "Processing queries")

	for _, line := range lines {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		resp, err := orch.Process(ctx, line)
		cancel()
		if err != nil {
			ui.Warningf("query %q failed: %v", line, err)
			if bar != nil {
				_ = bar.Add(1)
			}
			continue
		}

		if globals.JSON {
			_ = output.JSONCompact(resp)
		} else if bar == nil {
			printResponse(resp)
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
}

func printResponse(resp pipeline.Response) {
	ui.Header(fmt.Sprintf("Query: %s", resp.QueryInfo.OriginalQuery))
	fmt.Printf("%s %s\n", ui.Label("Language:"), resp.QueryInfo.DetectedLanguage)
	fmt.Printf("%s %s\n", ui.Label("Corrected:"), resp.QueryInfo.Corrected)
	fmt.Printf("%s %d\n", ui.Label("Results:"), resp.Count)

	for i, p := range resp.Products {
		fmt.Printf("  %d. %s  (%s)\n", i+1, p.Name, ui.DimText(p.ID))
	}

	ui.SubHeader("Metrics")
	fmt.Printf("  total_latency_ms: %.2f\n", resp.Metrics.TotalLatencyMs)
	fmt.Printf("  early_exit: %v\n", resp.Metrics.EarlyExit)
	fmt.Printf("  cache_hit_rate: %.2f\n", resp.Metrics.CacheHitRate)
	for _, opt := range resp.Metrics.Optimizations {
		fmt.Printf("  optimization: %s\n", opt)
	}
	for stage, ms := range resp.Metrics.StageTimesMs {
		fmt.Printf("  stage[%s]: %s %.2fms\n", stage, phaseDescription(stage), ms)
	}
}

func reportFatal(err error, jsonOutput bool) {
	preprocesserrors.FatalError(err, jsonOutput)
}

// buildOrchestrator wires every pipeline stage from the loaded YAML config.
// The LID model and Smart Checkpoint classifier stay on their in-process
// heuristic fallbacks (spec.md never specifies a Go binding for the
// external 176-label model or the quantized classifier artifact); the
// vector index and product resolver use the in-process MemoryResolver,
// since pkg/resolver's interfaces describe an external collaborator this
// CLI has no live backend for.
func buildOrchestrator(configPath string) (*pipeline.Orchestrator, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.Default()

	spell, err := spellcorrect.New(cfg.SpellMaxEditDistance, cfg.SpellPrefixLength)
	if err != nil {
		return nil, preprocesserrors.NewInternalError(
			"Cannot construct spell corrector",
			err.Error(),
			"Check spell_max_edit_distance and spell_prefix_length in the configuration",
			err,
		)
	}

	tok, err := tokenizer.New(logger, false)
	if err != nil {
		return nil, preprocesserrors.NewInternalError(
			"Cannot construct tokenizer",
			err.Error(),
			"This is an internal initialization failure; file an issue",
			err,
		)
	}

	detector := romandetect.New(logger)
	lid := langid.New(logger, langid.NewHeuristicModel(), detector)
	cm := codemix.New(logger, detector, nil)
	feat := features.New(nil)
	syn := synonym.New(nil, 0)

	provider, dimension, err := embedding.CreateProvider(cfg.EmbeddingModelID, logger)
	if err != nil {
		return nil, preprocesserrors.NewConfigError(
			"Cannot construct embedding provider",
			err.Error(),
			"Set embedding_model_id to one of: mock, nomic, ollama, openai",
			err,
		)
	}
	embedder := embedding.New(provider, dimension, logger)

	mem := resolver.NewMemoryResolver()

	var translitClient *translit.Client
	if cfg.TransliterationURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.TransliterationTimeout)
		defer cancel()
		translitClient, err = translit.New(ctx, logger, cfg.TransliterationURL)
		if err != nil {
			return nil, err
		}
	}

	deps := pipeline.Dependencies{
		Logger:                  logger,
		InputAdapter:            inputadapter.New(logger, nil),
		SpellCorrector:          spell,
		Tokenizer:               tok,
		LanguageID:              lid,
		CodeMix:                 cm,
		Transliteration:         translitClient,
		TransliterationFallback: cfg.TransliterationFallback,
		Features:                feat,
		Synonyms:                syn,
		Embedder:                embedder,
		VectorIndex:             mem,
		ProductResolver:         mem,
	}

	return pipeline.Init(deps), nil
}
