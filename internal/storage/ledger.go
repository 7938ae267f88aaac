package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/zeebo/blake3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Ledger records which program files were imported or uploaded, keyed by
// path and content hash, so unchanged files are skipped on the next run.
type Ledger struct {
	db *sql.DB
}

// ImportRun is one invocation of the importer.
type ImportRun struct {
	ID             string     `json:"id"`
	Source         string     `json:"source"`
	Status         string     `json:"status"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	FilesProcessed int        `json:"files_processed"`
	FilesSkipped   int        `json:"files_skipped"`
	FilesErrored   int        `json:"files_errored"`
	ErrorMessage   *string    `json:"error_message,omitempty"`
}

// ImportedFile is a ledger row for one imported program file.
type ImportedFile struct {
	Path    string
	Hash    string
	Size    int64
	Program string
	RunID   string
}

// RunMigrations brings the ledger schema at path up to date.
func RunMigrations(path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		db.Close()
		return fmt.Errorf("creating migration driver: %w", err)
	}
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		db.Close()
		return fmt.Errorf("loading migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		db.Close()
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// OpenLedger migrates and opens the ledger database at path.
func OpenLedger(path string) (*Ledger, error) {
	if err := RunMigrations(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	db.SetMaxOpenConns(1)
	return &Ledger{db: db}, nil
}

// Close closes the ledger database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// StartRun inserts a running import run.
func (l *Ledger) StartRun(ctx context.Context, id, source string, startedAt time.Time) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO import_runs (id, source, status, started_at) VALUES (?, ?, 'running', ?)`,
		id, source, startedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("inserting import run: %w", err)
	}
	return nil
}

// FinishRun stores the final counters and status of a run.
func (l *Ledger) FinishRun(ctx context.Context, run ImportRun) error {
	finished := time.Now().UTC()
	if run.FinishedAt != nil {
		finished = run.FinishedAt.UTC()
	}
	_, err := l.db.ExecContext(ctx,
		`UPDATE import_runs SET status = ?, finished_at = ?, files_processed = ?,
		 files_skipped = ?, files_errored = ?, error_message = ? WHERE id = ?`,
		run.Status, finished.Format(time.RFC3339Nano), run.FilesProcessed,
		run.FilesSkipped, run.FilesErrored, run.ErrorMessage, run.ID)
	if err != nil {
		return fmt.Errorf("updating import run %s: %w", run.ID, err)
	}
	return nil
}

// Runs returns the most recent import runs, newest first.
func (l *Ledger) Runs(ctx context.Context, limit int) ([]ImportRun, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, source, status, started_at, finished_at, files_processed, files_skipped,
		 files_errored, error_message FROM import_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying import runs: %w", err)
	}
	defer rows.Close()

	var runs []ImportRun
	for rows.Next() {
		var (
			r        ImportRun
			started  string
			finished sql.NullString
			errMsg   sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Source, &r.Status, &started, &finished,
			&r.FilesProcessed, &r.FilesSkipped, &r.FilesErrored, &errMsg); err != nil {
			return nil, fmt.Errorf("scanning import run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		if finished.Valid {
			if t, err := time.Parse(time.RFC3339Nano, finished.String); err == nil {
				r.FinishedAt = &t
			}
		}
		if errMsg.Valid {
			r.ErrorMessage = &errMsg.String
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// IsImported reports whether path was imported with the same content hash.
func (l *Ledger) IsImported(ctx context.Context, path, hash string) (bool, error) {
	var count int
	err := l.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM imported_files WHERE path = ? AND hash = ?`, path, hash,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking ledger for %s: %w", path, err)
	}
	return count > 0, nil
}

// MarkImported records a successful import of f.
func (l *Ledger) MarkImported(ctx context.Context, f ImportedFile) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO imported_files (path, hash, size, program, run_id) VALUES (?, ?, ?, ?, ?)`,
		f.Path, f.Hash, f.Size, f.Program, f.RunID)
	if err != nil {
		return fmt.Errorf("recording import of %s: %w", f.Path, err)
	}
	return nil
}

// IsUploaded reports whether path was pushed to server with the same hash.
func (l *Ledger) IsUploaded(ctx context.Context, server, path, hash string) (bool, error) {
	var count int
	err := l.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM uploaded_files WHERE server = ? AND path = ? AND hash = ?`,
		server, path, hash,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkUploaded records that path was pushed to server.
func (l *Ledger) MarkUploaded(ctx context.Context, server, path, hash string) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO uploaded_files (server, path, hash) VALUES (?, ?, ?)`,
		server, path, hash)
	return err
}

// HashFile returns the hex BLAKE3 digest and size of a file.
func HashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := blake3.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
