package storage

import "fmt"

// OneRepMaxes returns the current 1RM per exercise. Missing file means none.
func (db *DB) OneRepMaxes() (map[string]float64, error) {
	db.oneRepMaxMu.Lock()
	defer db.oneRepMaxMu.Unlock()

	data := map[string]float64{}
	if _, err := db.readJSON(OneRepMaxFile, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// SetOneRepMax overwrites the 1RM for exercise. Negative values are stored
// as zero.
func (db *DB) SetOneRepMax(exercise string, weight float64) error {
	db.oneRepMaxMu.Lock()
	defer db.oneRepMaxMu.Unlock()

	data := map[string]float64{}
	if _, err := db.readJSON(OneRepMaxFile, &data); err != nil {
		return err
	}
	data[exercise] = max(0, weight)
	if err := db.writeJSON(OneRepMaxFile, data); err != nil {
		return fmt.Errorf("saving 1RM for %s: %w", exercise, err)
	}
	return nil
}
