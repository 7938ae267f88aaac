// Package upload pushes local program files to a remote FitTrack server,
// recording every accepted file in the ledger so it is not sent again.
package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/claude/fittrack/internal/importer"
	"github.com/claude/fittrack/internal/program"
	"github.com/claude/fittrack/internal/storage"
	"github.com/claude/fittrack/internal/tracker"
)

// Stats tracks upload progress.
type Stats struct {
	FilesTotal    int
	FilesUploaded int
	FilesSkipped  int
	FilesErrored  int

	// Existing lists programs the server already had.
	Existing []string
}

// Uploader walks a directory of program files and POSTs each new or changed
// one to the server, batchSize files at a time.
type Uploader struct {
	client    *Client
	ledger    *storage.Ledger
	root      string
	dryRun    bool
	batchSize int
	log       *slog.Logger

	mu    sync.Mutex
	stats Stats
}

// New creates a new Uploader.
func New(client *Client, ledger *storage.Ledger, root string, dryRun bool, batchSize int, log *slog.Logger) *Uploader {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Uploader{
		client:    client,
		ledger:    ledger,
		root:      root,
		dryRun:    dryRun,
		batchSize: batchSize,
		log:       log,
	}
}

// file is one candidate upload.
type file struct {
	path    string
	relPath string
	hash    string
	name    string
	format  string
	data    []byte
}

// Run executes the upload pipeline.
func (u *Uploader) Run(ctx context.Context) (*Stats, error) {
	// Fetch existing programs from the server (skip in dry-run)
	var existing map[string]bool
	if !u.dryRun {
		var err error
		existing, err = u.client.FetchPrograms(ctx)
		if err != nil {
			return &u.stats, fmt.Errorf("fetching programs: %w", err)
		}
		u.log.Info("fetched server programs", "programs", len(existing))
	}

	paths, err := importer.Collect(u.root)
	if err != nil {
		return &u.stats, err
	}

	var pending []file
	for _, p := range paths {
		u.stats.FilesTotal++
		f, ok, err := u.prepare(ctx, p)
		if err != nil {
			return &u.stats, err
		}
		if !ok {
			continue
		}
		if existing[f.name] {
			u.log.Info("program already on server", "file", f.relPath, "program", f.name)
			u.stats.FilesSkipped++
			u.stats.Existing = append(u.stats.Existing, f.name)
			if err := u.ledger.MarkUploaded(ctx, u.client.ServerURL(), f.relPath, f.hash); err != nil {
				return &u.stats, fmt.Errorf("updating ledger: %w", err)
			}
			continue
		}
		pending = append(pending, f)
	}

	if u.dryRun {
		for _, f := range pending {
			u.log.Info("would upload", "file", f.relPath, "program", f.name, "format", f.format)
		}
		u.stats.FilesUploaded = len(pending)
		return &u.stats, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.batchSize)
	for _, f := range pending {
		g.Go(func() error {
			return u.send(gctx, f)
		})
	}
	if err := g.Wait(); err != nil {
		return &u.stats, err
	}
	return &u.stats, nil
}

// prepare hashes and reads path. ok is false when the file is skipped or
// unreadable; err is set only for ledger failures.
func (u *Uploader) prepare(ctx context.Context, path string) (f file, ok bool, err error) {
	relPath, relErr := filepath.Rel(u.root, path)
	if relErr != nil || relPath == "." {
		relPath = filepath.Base(path)
	}
	hash, _, hashErr := storage.HashFile(path)
	if hashErr != nil {
		u.log.Warn("hash failed", "file", relPath, "error", hashErr)
		u.stats.FilesErrored++
		return f, false, nil
	}

	uploaded, err := u.ledger.IsUploaded(ctx, u.client.ServerURL(), relPath, hash)
	if err != nil {
		return f, false, fmt.Errorf("checking ledger: %w", err)
	}
	if uploaded {
		u.stats.FilesSkipped++
		return f, false, nil
	}

	data, readErr := os.ReadFile(path)
	if readErr != nil {
		u.log.Warn("read failed", "file", relPath, "error", readErr)
		u.stats.FilesErrored++
		return f, false, nil
	}
	format := importer.Extensions[strings.ToLower(filepath.Ext(path))]
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if format == tracker.FormatJSON {
		// The server names JSON programs by their name key.
		if p, err := program.ParseJSON(data); err == nil && p.Name != "" {
			name = p.Name
		}
	}
	return file{path: path, relPath: relPath, hash: hash, name: name, format: format, data: data}, true, nil
}

// send uploads f. Per-file rejections are counted; only context and ledger
// failures stop the run.
func (u *Uploader) send(ctx context.Context, f file) error {
	err := u.client.SendProgram(ctx, f.name, f.format, f.data)
	var rejected *RejectedError
	switch {
	case err == nil:
	case errors.Is(err, ErrExists):
		u.log.Info("program already on server", "file", f.relPath, "program", f.name)
		u.mu.Lock()
		u.stats.FilesSkipped++
		u.stats.Existing = append(u.stats.Existing, f.name)
		u.mu.Unlock()
		return u.mark(ctx, f)
	case errors.As(err, &rejected):
		u.log.Warn("program rejected", "file", f.relPath, "status", rejected.Status, "reason", rejected.Body)
		u.count(&u.stats.FilesErrored)
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		u.log.Warn("upload failed", "file", f.relPath, "error", err)
		u.count(&u.stats.FilesErrored)
		return nil
	}

	u.log.Info("uploaded", "file", f.relPath, "program", f.name)
	u.count(&u.stats.FilesUploaded)
	return u.mark(ctx, f)
}

func (u *Uploader) mark(ctx context.Context, f file) error {
	if err := u.ledger.MarkUploaded(ctx, u.client.ServerURL(), f.relPath, f.hash); err != nil {
		return fmt.Errorf("updating ledger: %w", err)
	}
	return nil
}

func (u *Uploader) count(n *int) {
	u.mu.Lock()
	*n++
	u.mu.Unlock()
}
