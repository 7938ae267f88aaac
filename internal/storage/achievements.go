package storage

// Unlocked returns the achievement unlock state. Names absent from the file
// are locked.
func (db *DB) Unlocked() (map[string]bool, error) {
	db.achievementsMu.Lock()
	defer db.achievementsMu.Unlock()

	data := map[string]bool{}
	if _, err := db.readJSON(AchievementsFile, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// Unlock marks names as unlocked and records every name in known as at least
// locked, so the file always lists the full set. Unlocks are never reverted.
func (db *DB) Unlock(known []string, names []string) error {
	db.achievementsMu.Lock()
	defer db.achievementsMu.Unlock()

	data := map[string]bool{}
	if _, err := db.readJSON(AchievementsFile, &data); err != nil {
		return err
	}
	for _, n := range known {
		if _, ok := data[n]; !ok {
			data[n] = false
		}
	}
	for _, n := range names {
		data[n] = true
	}
	return db.writeJSON(AchievementsFile, data)
}
