package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/claude/fittrack/internal/config"
	"github.com/claude/fittrack/internal/logging"
	"github.com/claude/fittrack/internal/storage"
	"github.com/claude/fittrack/internal/upload"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := pflag.StringP("config", "c", "config.yaml", "path to config file")
	serverURL := pflag.String("server", "", "FitTrack server URL, e.g. https://fittrack.tail1234.ts.net (overrides upload.server_url)")
	path := pflag.StringP("path", "p", "", "program file or directory of .json/.jsonc/.csv files (required)")
	dryRun := pflag.Bool("dry-run", false, "list what would be sent without sending")
	batchSize := pflag.Int("batch-size", 0, "files uploaded concurrently (overrides upload.batch_size)")
	version := pflag.BoolP("version", "v", false, "print version and exit")
	pflag.Parse()

	if *version {
		fmt.Println("fittrack-upload", Version)
		return
	}

	if *path == "" {
		fmt.Fprintf(os.Stderr, "Usage: fittrack-upload --server <URL> -p <programs dir> [--dry-run] [--batch-size N]\n\n")
		pflag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *serverURL != "" {
		cfg.Upload.ServerURL = *serverURL
	}
	if *batchSize > 0 {
		cfg.Upload.BatchSize = *batchSize
	}
	if cfg.Upload.ServerURL == "" && !*dryRun {
		fmt.Fprintf(os.Stderr, "Error: --server or upload.server_url is required (or use --dry-run)\n")
		os.Exit(1)
	}

	log, logCloser, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	// The ledger lives in the home directory so uploads from any checkout
	// share it.
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Error("failed to get home directory", "error", err)
		os.Exit(1)
	}
	stateDir := filepath.Join(homeDir, ".fittrack-upload")
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		log.Error("failed to create state directory", "error", err)
		os.Exit(1)
	}
	ledger, err := storage.OpenLedger(filepath.Join(stateDir, storage.LedgerFile))
	if err != nil {
		log.Error("failed to open upload ledger", "error", err)
		os.Exit(1)
	}
	defer ledger.Close()

	if *dryRun {
		log.Info("DRY RUN mode, files will be checked but not sent")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	uploader := upload.New(upload.NewClient(cfg.Upload.ServerURL), ledger, *path, *dryRun, cfg.Upload.BatchSize, log)
	stats, err := uploader.Run(ctx)
	if err != nil {
		log.Error("upload failed", "error", err)
		printStats(stats)
		os.Exit(1)
	}

	printStats(stats)
	log.Info("upload complete")
}

func printStats(stats *upload.Stats) {
	fmt.Println()
	fmt.Println("=== Upload Summary ===")
	fmt.Printf("  Files total:      %d\n", stats.FilesTotal)
	fmt.Printf("  Files uploaded:   %d\n", stats.FilesUploaded)
	fmt.Printf("  Files skipped:    %d (already uploaded)\n", stats.FilesSkipped)
	fmt.Printf("  Files errored:    %d\n", stats.FilesErrored)

	if len(stats.Existing) > 0 {
		fmt.Printf("\n  Already on server:\n")
		for _, name := range stats.Existing {
			fmt.Printf("    - %s\n", name)
		}
	}
	fmt.Println()
}
