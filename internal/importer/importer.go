// Package importer loads program files (.json, .jsonc, .csv) from disk into
// the program library, recording each file's content hash in the ledger so
// unchanged files are skipped on the next run.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/claude/fittrack/internal/program"
	"github.com/claude/fittrack/internal/storage"
	"github.com/claude/fittrack/internal/tracker"
	"github.com/google/uuid"
)

// Run statuses stored in the ledger.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusPartial   = "completed_with_errors"
	StatusFailed    = "failed"
)

// ProgramImporter saves a parsed program file. *tracker.Service satisfies it.
type ProgramImporter interface {
	ImportProgram(ctx context.Context, name, format string, data []byte) (*program.Program, error)
}

// Stats tracks import progress.
type Stats struct {
	RunID          string
	FilesProcessed int
	FilesSkipped   int
	FilesErrored   int

	Imported []string          // program names
	Errors   map[string]string // path -> reason
}

// Importer reads program files and saves them through a ProgramImporter.
type Importer struct {
	svc    ProgramImporter
	ledger *storage.Ledger
	log    *slog.Logger
	dryRun bool
	now    func() time.Time
	stats  Stats
}

// New creates a new Importer. ledger may be nil, in which case every file is
// imported and no run is recorded.
func New(svc ProgramImporter, ledger *storage.Ledger, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{svc: svc, ledger: ledger, log: log, dryRun: dryRun, now: time.Now}
}

// Extensions lists the file types Import picks up, mapped to their format.
var Extensions = map[string]string{
	".json":  tracker.FormatJSON,
	".jsonc": tracker.FormatJSON,
	".csv":   tracker.FormatCSV,
}

// Import processes path, a single program file or a directory walked
// recursively. A bad file is counted and logged; only failures of the ledger
// itself abort the run.
func (imp *Importer) Import(ctx context.Context, path string) (*Stats, error) {
	imp.stats = Stats{RunID: uuid.NewString(), Errors: map[string]string{}}

	files, err := Collect(path)
	if err != nil {
		return &imp.stats, err
	}

	track := imp.ledger != nil && !imp.dryRun
	if track {
		if err := imp.ledger.StartRun(ctx, imp.stats.RunID, path, imp.now()); err != nil {
			return &imp.stats, err
		}
	}

	runErr := imp.importFiles(ctx, files)

	if track {
		run := storage.ImportRun{
			ID:             imp.stats.RunID,
			Status:         imp.status(runErr),
			FilesProcessed: imp.stats.FilesProcessed,
			FilesSkipped:   imp.stats.FilesSkipped,
			FilesErrored:   imp.stats.FilesErrored,
		}
		if runErr != nil {
			msg := runErr.Error()
			run.ErrorMessage = &msg
		}
		finished := imp.now()
		run.FinishedAt = &finished
		// The run row must be closed even when ctx was cancelled.
		if err := imp.ledger.FinishRun(context.WithoutCancel(ctx), run); err != nil {
			imp.log.Error("recording import run", "run", run.ID, "error", err)
		}
	}
	return &imp.stats, runErr
}

func (imp *Importer) status(runErr error) string {
	switch {
	case runErr != nil:
		return StatusFailed
	case imp.stats.FilesErrored > 0:
		return StatusPartial
	default:
		return StatusCompleted
	}
}

func (imp *Importer) importFiles(ctx context.Context, files []string) error {
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := imp.importFile(ctx, f); err != nil {
			return err
		}
	}
	return nil
}

// importFile returns an error only for ledger failures.
func (imp *Importer) importFile(ctx context.Context, path string) error {
	hash, size, err := storage.HashFile(path)
	if err != nil {
		imp.fail(path, err)
		return nil
	}
	if imp.ledger != nil {
		done, err := imp.ledger.IsImported(ctx, path, hash)
		if err != nil {
			return err
		}
		if done {
			imp.log.Debug("unchanged, skipping", "file", path)
			imp.stats.FilesSkipped++
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		imp.fail(path, err)
		return nil
	}
	ext := strings.ToLower(filepath.Ext(path))
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	format := Extensions[ext]

	if imp.dryRun {
		p, err := parse(name, format, data)
		if err != nil {
			imp.fail(path, err)
			return nil
		}
		imp.log.Info("would import", "file", path, "program", p.Name)
		imp.stats.FilesProcessed++
		imp.stats.Imported = append(imp.stats.Imported, p.Name)
		return nil
	}

	p, err := imp.svc.ImportProgram(ctx, name, format, data)
	if err != nil {
		imp.fail(path, err)
		return nil
	}
	imp.stats.FilesProcessed++
	imp.stats.Imported = append(imp.stats.Imported, p.Name)
	imp.log.Info("program imported", "file", path, "program", p.Name, "weeks", p.DurationWeeks)

	if imp.ledger != nil {
		return imp.ledger.MarkImported(ctx, storage.ImportedFile{
			Path:    path,
			Hash:    hash,
			Size:    size,
			Program: p.Name,
			RunID:   imp.stats.RunID,
		})
	}
	return nil
}

func (imp *Importer) fail(path string, err error) {
	level := slog.LevelWarn
	if errors.Is(err, storage.ErrDuplicateName) {
		level = slog.LevelInfo
	}
	imp.log.Log(context.Background(), level, "import failed", "file", path, "error", err)
	imp.stats.FilesErrored++
	imp.stats.Errors[path] = err.Error()
}

// parse decodes and validates without saving, for dry runs.
func parse(name, format string, data []byte) (*program.Program, error) {
	var (
		p   *program.Program
		err error
	)
	if format == tracker.FormatCSV {
		p, err = program.ParseCSV(name, strings.NewReader(string(data)))
	} else {
		p, err = program.ParseJSON(data)
		if err == nil && p.Name == "" {
			p.Name = name
		}
	}
	if err != nil {
		return nil, err
	}
	if err := program.Validate(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Collect returns the program files under path in lexical order. Hidden
// directories are skipped. A file path is returned as is when its extension
// is supported.
func Collect(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if !info.IsDir() {
		if _, ok := Extensions[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil, fmt.Errorf("%s: unsupported file type", path)
		}
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != path && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := Extensions[strings.ToLower(filepath.Ext(p))]; ok {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", path, err)
	}
	sort.Strings(files)
	return files, nil
}
