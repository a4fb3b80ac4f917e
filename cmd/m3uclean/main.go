// Command m3uclean ingests an M3U/M3U8 playlist, removes duplicate and
// dead entries, optionally enriches metadata, and writes a cleaned
// playlist. Flag parsing, UI rendering and interactive prompting are
// deliberately thin here — spec.md §1 scopes those out of the core;
// this file only resolves flags into an engine.Config and reports the
// resulting FinalReport, mirroring the teacher's wiring-only main.go.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"m3uclean/internal/config"
	"m3uclean/internal/diag"
	"m3uclean/internal/engine"
	"m3uclean/internal/logger"
	"m3uclean/internal/types"
)

// repeatableFlag collects every "-src" occurrence, per spec.md §6's
// "(repeatable)" note.
type repeatableFlag []string

func (r *repeatableFlag) String() string { return strings.Join(*r, ",") }
func (r *repeatableFlag) Set(v string) error {
	*r = append(*r, v)
	return nil
}

func main() {
	os.Exit(run())
}

func run() int {
	var sources repeatableFlag
	flag.Var(&sources, "src", "source playlist path or URL (repeatable)")
	dest := flag.String("dest", "", "output path")
	timeoutSecs := flag.Int("timeout", 10, "per-request total timeout, seconds")
	concurrency := flag.Int("c", 10, "max concurrent probes, clamped to [1,50]")
	dedupFlag := flag.String("rd", "true", "enable dedup (false forms: false, f, 0, no)")
	skipValidation := flag.Bool("skip-validation", false, "skip probing, keep all parsed channels")
	merge := flag.Bool("merge", false, "concatenate multiple sources into one working set")
	split := flag.Bool("split", false, "write one output file per group")
	verbose := flag.Bool("v", false, "verbose error output")
	diagAddr := flag.String("diag-addr", "", "optional diagnostics HTTP server address (e.g. :6060)")
	flag.Parse()

	cfg := config.Default()
	cfg.Sources = sources
	cfg.Dest = *dest
	cfg.Timeout = time.Duration(*timeoutSecs) * time.Second
	cfg.MaxConcurrency = config.ClampConcurrency(*concurrency)
	cfg.Dedup = config.ParseDedupFlag(*dedupFlag)
	cfg.SkipValidation = *skipValidation
	cfg.Merge = *merge
	cfg.Split = *split
	cfg.Verbose = *verbose
	cfg.DiagAddr = *diagAddr
	cfg.ObfuscateURLs = os.Getenv("NO_COLOR") != "" // no UI collaborator here; recorded in the config, nothing in the pipeline reads it
	config.ValidateAndSetDefaults(&cfg)

	level := "info"
	if cfg.Verbose {
		level = "debug"
	}
	logger.SetLogLevel(level)

	if len(cfg.Sources) == 0 {
		fmt.Fprintln(os.Stderr, "m3uclean: at least one -src is required")
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	eng := engine.New(cfg)

	var diagServer *diag.Server
	if cfg.DiagAddr != "" {
		diagServer = diag.New(cfg.DiagAddr)
		diagServer.Start()
		defer diagServer.Shutdown(context.Background())
		eng.OnProgress = diagServer.SetProgress
	}

	report, outputs, err := eng.Run(ctx)
	if ctx.Err() != nil {
		fmt.Fprintln(os.Stderr, "m3uclean: cancelled")
		return 130
	}
	if err != nil {
		printError(err, cfg.Verbose)
		return 1
	}

	printReport(report, outputs)
	return 0
}

func printError(err error, verbose bool) {
	if pe, ok := err.(*types.PipelineError); ok {
		fmt.Fprintf(os.Stderr, "m3uclean: %s: %s\n", pe.Kind, pe.Source)
		if verbose && pe.Err != nil {
			fmt.Fprintf(os.Stderr, "  %v\n", pe.Err)
		}
		return
	}
	fmt.Fprintf(os.Stderr, "m3uclean: %v\n", err)
}

func printReport(report types.FinalReport, outputs []string) {
	fmt.Printf("Original channels:   %d\n", report.OriginalCount)
	fmt.Printf("After deduplication: %d (%d removed)\n", report.TotalAfterDedupe, report.DoublesRemoved)
	fmt.Printf("Working channels:    %d\n", report.WorkingCount)
	fmt.Printf("Groups:              %d\n", report.GroupCount)
	for _, path := range outputs {
		fmt.Printf("Wrote: %s\n", path)
	}
}
