package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claude/fittrack/internal/storage"
	"github.com/claude/fittrack/internal/testhelpers"
	"github.com/claude/fittrack/internal/tracker"
)

const jsoncProgram = `{
	// three-phase pull block
	"name": "Pull Block",
	"duration_weeks": 6,
	"description": "rows and hangs",
	"days": {"Day A": {"description": "pull", "exercises": ["Row"], "schedule": [1]}},
	"prescriptions": {"Day A": {
		"Base":      {"Row": {"sets": "3", "reps": "8", "percent_1rm": [0.6, 0.7], "rpe": "7", "rest": 90}},
		"Intensity": {"Row": {"sets": "3", "reps": "6", "percent_1rm": [0.7, 0.8], "rpe": "8", "rest": 120}},
		"Peaking":   {"Row": {"sets": "2", "reps": "4", "percent_1rm": [0.8, 0.9], "rpe": "9", "rest": 150}},
	}},
}`

const csvProgram = "day,day_description,exercise,schedule,duration_weeks,description," +
	"Base_sets,Base_reps,Base_percent_1rm,Base_rpe,Base_rest," +
	"Intensity_sets,Intensity_reps,Intensity_percent_1rm,Intensity_rpe,Intensity_rest," +
	"Peaking_sets,Peaking_reps,Peaking_percent_1rm,Peaking_rpe,Peaking_rest\n" +
	`Day A,Press,Bench Press,"0,3",9,press block,3,8,0.6-0.7,7,90,3,6,0.7-0.8,8,120,2,3,0.8-0.9,9,180` + "\n"

type fixture struct {
	dir    string
	db     *storage.DB
	ledger *storage.Ledger
	svc    *tracker.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	data := t.TempDir()
	db, err := storage.Open(data)
	require.NoError(t, err)
	ledger, err := storage.OpenLedger(filepath.Join(data, storage.LedgerFile))
	require.NoError(t, err)
	t.Cleanup(func() { ledger.Close() })

	log := testhelpers.NewLogger(testhelpers.NewWriter(t))
	svc := tracker.New(db, tracker.Options{Now: func() time.Time { return time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC) }, Seed: 1}, log)

	dir := t.TempDir()
	write(t, filepath.Join(dir, "pull.jsonc"), jsoncProgram)
	write(t, filepath.Join(dir, "nested", "press.csv"), csvProgram)
	write(t, filepath.Join(dir, "notes.txt"), "ignored")
	write(t, filepath.Join(dir, ".hidden", "skip.json"), "{")
	return &fixture{dir: dir, db: db, ledger: ledger, svc: svc}
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func (f *fixture) importer(t *testing.T, dryRun bool) *Importer {
	return New(f.svc, f.ledger, testhelpers.NewLogger(testhelpers.NewWriter(t)), dryRun)
}

// TestImportDirectory imports a JSONC and a nested CSV file, ignores other
// extensions and hidden directories, and records the run.
func TestImportDirectory(t *testing.T) {
	f := newFixture(t)
	stats, err := f.importer(t, false).Import(context.Background(), f.dir)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesProcessed)
	assert.Zero(t, stats.FilesErrored)
	assert.ElementsMatch(t, []string{"Pull Block", "press"}, stats.Imported)

	p, err := f.db.Program("press")
	require.NoError(t, err)
	assert.Equal(t, 9, p.DurationWeeks)

	runs, err := f.ledger.Runs(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, StatusCompleted, runs[0].Status)
	assert.Equal(t, stats.RunID, runs[0].ID)
	assert.Equal(t, 2, runs[0].FilesProcessed)
}

// TestImportSkipsUnchangedFiles re-runs the import and expects every file to
// be skipped by hash. A changed file is retried and then rejected as a
// duplicate program name.
func TestImportSkipsUnchangedFiles(t *testing.T) {
	f := newFixture(t)
	_, err := f.importer(t, false).Import(context.Background(), f.dir)
	require.NoError(t, err)

	stats, err := f.importer(t, false).Import(context.Background(), f.dir)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesSkipped)
	assert.Zero(t, stats.FilesProcessed)

	write(t, filepath.Join(f.dir, "nested", "press.csv"), csvProgram+"\n")
	stats, err = f.importer(t, false).Import(context.Background(), f.dir)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesSkipped)
	assert.Equal(t, 1, stats.FilesErrored)
	assert.Contains(t, stats.Errors[filepath.Join(f.dir, "nested", "press.csv")], "already exists")

	runs, err := f.ledger.Runs(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

// TestImportBadFile counts an invalid program as errored without aborting
// the run.
func TestImportBadFile(t *testing.T) {
	f := newFixture(t)
	write(t, filepath.Join(f.dir, "broken.json"), `{"name": "Broken", "duration_weeks": 4}`)

	stats, err := f.importer(t, false).Import(context.Background(), f.dir)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesProcessed)
	assert.Equal(t, 1, stats.FilesErrored)

	_, err = f.db.Program("Broken")
	assert.ErrorIs(t, err, storage.ErrProgramNotFound, "invalid programs are never saved")

	runs, err := f.ledger.Runs(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, StatusPartial, runs[0].Status)
}

// TestImportDryRun validates files without saving them or touching the ledger.
func TestImportDryRun(t *testing.T) {
	f := newFixture(t)
	stats, err := f.importer(t, true).Import(context.Background(), f.dir)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesProcessed)

	programs, err := f.db.Programs()
	require.NoError(t, err)
	assert.Len(t, programs, 2, "only the built-in programs")

	runs, err := f.ledger.Runs(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

// TestImportSingleFile accepts a file path and rejects unsupported types.
func TestImportSingleFile(t *testing.T) {
	f := newFixture(t)
	stats, err := f.importer(t, false).Import(context.Background(), filepath.Join(f.dir, "pull.jsonc"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Pull Block"}, stats.Imported)

	_, err = f.importer(t, false).Import(context.Background(), filepath.Join(f.dir, "notes.txt"))
	assert.Error(t, err)
}

// TestImportCancelled stops before importing anything.
func TestImportCancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.importer(t, false).Import(ctx, f.dir)
	assert.ErrorIs(t, err, context.Canceled)
}
