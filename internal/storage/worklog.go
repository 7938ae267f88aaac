package storage

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// LogTimeLayout is the timestamp format of the workout log Date column.
const LogTimeLayout = "2006-01-02 15:04"

// Workout log entry types.
const (
	EntryWorkout = "Workout"
	EntryOther   = "Other"
)

var logHeader = []string{"Date", "Type", "Day", "Exercise/Note", "Details", "Notes"}

// LogEntry is one row of the workout/other log.
type LogEntry struct {
	Date    string `json:"date"`
	Type    string `json:"type"`
	Day     string `json:"day"`
	Note    string `json:"exercise_note"` // exercise name, or a free note for Other rows
	Details string `json:"details"`
	Notes   string `json:"notes"`
}

// Time parses the Date column. Date-only values are accepted.
func (e LogEntry) Time() (time.Time, bool) {
	for _, layout := range []string{LogTimeLayout, "2006-01-02 15:04:05", time.DateOnly} {
		if t, err := time.Parse(layout, strings.TrimSpace(e.Date)); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (e LogEntry) record() []string {
	return []string{e.Date, e.Type, e.Day, e.Note, e.Details, e.Notes}
}

// AppendLog adds entries to the end of the log.
func (db *DB) AppendLog(entries ...LogEntry) error {
	db.workoutLogMu.Lock()
	defer db.workoutLogMu.Unlock()

	rows, err := db.readLog()
	if err != nil {
		return err
	}
	rows = append(rows, entries...)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(logHeader); err != nil {
		return fmt.Errorf("encoding %s: %w", WorkoutLogFile, err)
	}
	for _, r := range rows {
		if err := w.Write(r.record()); err != nil {
			return fmt.Errorf("encoding %s: %w", WorkoutLogFile, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encoding %s: %w", WorkoutLogFile, err)
	}
	return db.writeFile(WorkoutLogFile, buf.Bytes())
}

// Log returns all log rows whose Exercise/Note contains filter, case
// insensitively. An empty filter returns every row.
func (db *DB) Log(filter string) ([]LogEntry, error) {
	db.workoutLogMu.Lock()
	rows, err := db.readLog()
	db.workoutLogMu.Unlock()
	if err != nil {
		return nil, err
	}
	if filter == "" {
		return rows, nil
	}
	needle := strings.ToLower(filter)
	out := rows[:0]
	for _, r := range rows {
		if strings.Contains(strings.ToLower(r.Note), needle) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (db *DB) readLog() ([]LogEntry, error) {
	f, err := os.Open(db.path(WorkoutLogFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", WorkoutLogFile, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s header: %w", WorkoutLogFile, err)
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}

	var rows []LogEntry
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", WorkoutLogFile, err)
		}
		cell := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return rec[i]
		}
		rows = append(rows, LogEntry{
			Date:    cell("Date"),
			Type:    cell("Type"),
			Day:     cell("Day"),
			Note:    cell("Exercise/Note"),
			Details: cell("Details"),
			Notes:   cell("Notes"),
		})
	}
	return rows, nil
}
