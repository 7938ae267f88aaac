package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/pflag"
	"tailscale.com/tsnet"

	"github.com/claude/fittrack/internal/autoreg"
	"github.com/claude/fittrack/internal/config"
	"github.com/claude/fittrack/internal/logging"
	"github.com/claude/fittrack/internal/mcp"
	fitserver "github.com/claude/fittrack/internal/server"
	"github.com/claude/fittrack/internal/storage"
	"github.com/claude/fittrack/internal/tracker"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := pflag.StringP("config", "c", "config.yaml", "path to config file")
	pflag.Parse()

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
	log.Info("FitTrack starting", "version", Version, "data_dir", cfg.DataDir)

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
	log.Info("import ledger ready")

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

	srv := fitserver.New(svc, ledger, log)
	srv.Mount("/mcp", server.NewStreamableHTTPServer(mcp.New(svc, Version, log)))

	// Start server on tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		lc, err := tsServer.LocalClient()
		if err != nil {
			log.Error("tsnet local client failed", "error", err)
			os.Exit(1)
		}
		srv.SetIdentity(func(ctx context.Context, remoteAddr string) (string, error) {
			who, err := lc.WhoIs(ctx, remoteAddr)
			if err != nil {
				return "", err
			}
			if who.UserProfile == nil {
				return "", errors.New("no user profile for peer")
			}
			return who.UserProfile.LoginName, nil
		})

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{
		Handler:  srv,
		ErrorLog: slog.NewLogLogger(log.Handler(), slog.LevelError),
	}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}
