// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package main implements the preprocess CLI: a thin driver around
// pkg/pipeline.Orchestrator for running one or many raw queries through
// the full understanding pipeline from a terminal.
//
// Usage:
//
//	preprocess query <raw input> [--json]   Run one query through the pipeline
//	preprocess query --batch <file> [--json]  Run one query per line of a file
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/preprocess/internal/ui"
)

// GlobalFlags carries the flags every subcommand can see, mirroring the
// teacher CLI's global-flag plumbing.
type GlobalFlags struct {
	JSON    bool
	Quiet   bool
	NoColor bool
	Verbose int
}

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version and exit")
		configPath  = flag.String("config", "config.yaml", "Path to the pipeline YAML configuration")
		jsonOutput  = flag.Bool("json", false, "Output as JSON")
		quiet       = flag.Bool("quiet", false, "Suppress progress output")
		noColor     = flag.Bool("no-color", false, "Disable colored output")
		verbose     = flag.Int("verbose", 0, "Verbosity level (0-2)")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `preprocess - multilingual query-understanding pipeline CLI

Usage:
  preprocess <command> [options]

Commands:
  query   Run one (or many, with --batch) raw queries through the pipeline

Global Options:
  --config     Path to the pipeline YAML configuration (default: config.yaml)
  --json       Output as JSON
  --quiet      Suppress progress output
  --no-color   Disable colored output
  --verbose    Verbosity level (0-2)
  --version    Show version and exit

Examples:
  preprocess query "wireless headphones under 2000"
  preprocess query --json "mujhe ek sasta mobile chahiye"
  preprocess query --batch queries.txt

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("preprocess version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	globals := GlobalFlags{
		JSON:    *jsonOutput,
		Quiet:   *quiet || *jsonOutput,
		NoColor: *noColor,
		Verbose: *verbose,
	}
	ui.InitColors(globals.NoColor)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "query":
		runQuery(cmdArgs, *configPath, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}
