package storage

import (
	"fmt"
	"sort"
	"time"
)

// DateLayout is the day format used in the performance history.
const DateLayout = time.DateOnly

// PerformanceEntry is the outcome of one set.
type PerformanceEntry struct {
	Date    string `json:"date"` // YYYY-MM-DD
	Success bool   `json:"success"`
	Set     int    `json:"set"`
}

// Day parses the entry date. Malformed dates return false.
func (e PerformanceEntry) Day() (time.Time, bool) {
	t, err := time.Parse(DateLayout, e.Date)
	return t, err == nil
}

type performanceFile map[string][]PerformanceEntry

// AppendPerformance records one set outcome. Entries are never deduplicated:
// two identical calls store two entries.
func (db *DB) AppendPerformance(exercise string, date time.Time, success bool, set int) error {
	db.performanceMu.Lock()
	defer db.performanceMu.Unlock()

	data := performanceFile{}
	if _, err := db.readJSON(PerformanceFile, &data); err != nil {
		return err
	}
	data[exercise] = append(data[exercise], PerformanceEntry{
		Date:    date.Format(DateLayout),
		Success: success,
		Set:     set,
	})
	if err := db.writeJSON(PerformanceFile, data); err != nil {
		return fmt.Errorf("appending performance for %s: %w", exercise, err)
	}
	return nil
}

// Performance returns the chronological history for exercise.
func (db *DB) Performance(exercise string) ([]PerformanceEntry, error) {
	db.performanceMu.Lock()
	defer db.performanceMu.Unlock()

	data := performanceFile{}
	if _, err := db.readJSON(PerformanceFile, &data); err != nil {
		return nil, err
	}
	return data[exercise], nil
}

// PerformanceExercises lists every exercise with recorded history, sorted.
func (db *DB) PerformanceExercises() ([]string, error) {
	db.performanceMu.Lock()
	defer db.performanceMu.Unlock()

	data := performanceFile{}
	if _, err := db.readJSON(PerformanceFile, &data); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
