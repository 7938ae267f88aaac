package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/claude/fittrack/internal/config"
	"github.com/claude/fittrack/internal/importer"
	"github.com/claude/fittrack/internal/logging"
	"github.com/claude/fittrack/internal/storage"
	"github.com/claude/fittrack/internal/tracker"
)

func main() {
	configPath := pflag.StringP("config", "c", "config.yaml", "path to config file")
	path := pflag.StringP("path", "p", "", "program file or directory of .json/.jsonc/.csv files (required)")
	dryRun := pflag.Bool("dry-run", false, "validate files without saving them")
	pflag.Parse()

	if *path == "" {
		fmt.Fprintf(os.Stderr, "Usage: fittrack-import -c config.yaml -p /path/to/programs [--dry-run]\n")
		pflag.PrintDefaults()
		os.Exit(1)
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, logCloser, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	db, err := storage.Open(cfg.DataDir)
	if err != nil {
		log.Error("failed to open data dir", "error", err)
		os.Exit(1)
	}
	ledger, err := storage.OpenLedger(filepath.Join(cfg.DataDir, storage.LedgerFile))
	if err != nil {
		log.Error("failed to open import ledger", "error", err)
		os.Exit(1)
	}
	defer ledger.Close()

	if *dryRun {
		log.Info("DRY RUN mode, nothing will be saved")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := tracker.New(db, tracker.Options{Units: cfg.Units, DefaultProgram: cfg.Program.Default, Resolver: cfg.Resolver()}, log)
	stats, err := importer.New(svc, ledger, log, *dryRun).Import(ctx, *path)
	if err != nil {
		log.Error("import failed", "error", err)
		printStats(log, stats)
		os.Exit(1)
	}

	printStats(log, stats)
	log.Info("import complete")
}

func printStats(log *slog.Logger, stats *importer.Stats) {
	log.Info("import stats",
		"run", stats.RunID,
		"files_processed", stats.FilesProcessed,
		"files_skipped", stats.FilesSkipped,
		"files_errored", stats.FilesErrored,
	)
	if len(stats.Imported) > 0 {
		log.Info("programs imported", "programs", stats.Imported)
	}
	for path, reason := range stats.Errors {
		log.Warn("file not imported", "file", path, "reason", reason)
	}
}
