package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/pflag"

	"github.com/claude/fittrack/internal/autoreg"
	"github.com/claude/fittrack/internal/config"
	"github.com/claude/fittrack/internal/logging"
	"github.com/claude/fittrack/internal/mcp"
	"github.com/claude/fittrack/internal/storage"
	"github.com/claude/fittrack/internal/tracker"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := pflag.StringP("config", "c", "config.yaml", "path to config file")
	dataDir := pflag.String("data-dir", "", "data directory (overrides config)")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}

	// stdout carries the protocol; logs go to stderr.
	log, logCloser, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
		Output: os.Stderr,
	})
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
	sens, err := autoreg.ParseSensitivity(cfg.Autoregulation.Sensitivity)
	if err != nil {
		log.Error("invalid sensitivity", "error", err)
		os.Exit(1)
	}
	svc := tracker.New(db, tracker.Options{
		Units:          cfg.Units,
		DefaultProgram: cfg.Program.Default,
		Sensitivity:    sens,
		Resolver:       cfg.Resolver(),
	}, log)

	log.Info("FitTrack MCP server starting", "version", Version, "data_dir", cfg.DataDir)
	if err := server.ServeStdio(mcp.New(svc, Version, log)); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
