package achievement

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/claude/fittrack/internal/program"
	"github.com/claude/fittrack/internal/storage"
)

// Achievement names.
const (
	IronNovice       = "Iron Novice"
	GripTitan        = "Grip Titan"
	StrengthBeast    = "Strength Beast"
	SprintKing       = "Sprint King"
	RecoveryPro      = "Recovery Pro"
	ConsistencyChamp = "Consistency Champ"
	BJJGrinder       = "BJJ Grinder"
	PowerSurge       = "Power Surge"
)

type rule struct {
	name        string
	emoji       string
	description string
	check       func(RuleContext) (bool, error)
}

func (r rule) Name() string                       { return r.name }
func (r rule) Emoji() string                      { return r.emoji }
func (r rule) Description() string                { return r.description }
func (r rule) Check(rc RuleContext) (bool, error) { return r.check(rc) }

// Builtin returns the standard achievement set.
func Builtin() []Rule {
	return []Rule{
		rule{IronNovice, "🏅", "Log 10 workouts", func(rc RuleContext) (bool, error) {
			return sessions(rc.Log) >= 10, nil
		}},
		rule{GripTitan, "💪", "50 successful grip exercise sets", func(rc RuleContext) (bool, error) {
			return successfulSets(rc.Log, exerciseIn("Deadlifts", "Farmer’s Carry", "Weighted Pull-Ups")) >= 50, nil
		}},
		rule{StrengthBeast, "🏋️", "Hit a 1RM PR", strengthBeast},
		rule{SprintKing, "🏃", "50 successful sprint/conditioning sets", func(rc RuleContext) (bool, error) {
			return successfulSets(rc.Log, exerciseIn("Sprints", "Sprint Drills")) >= 50, nil
		}},
		rule{RecoveryPro, "🥗", "7 consecutive days of recovery logs", func(rc RuleContext) (bool, error) {
			return longestStreak(rc.Log, storage.EntryOther) >= 7, nil
		}},
		rule{ConsistencyChamp, "🔥", "Log workouts 5 days in a row", func(rc RuleContext) (bool, error) {
			return longestStreak(rc.Log, storage.EntryWorkout) >= 5, nil
		}},
		rule{BJJGrinder, "🥋", "20 successful BJJ program sets", func(rc RuleContext) (bool, error) {
			days := bjjDays()
			return successfulSets(rc.Log, func(e storage.LogEntry) bool { return days[e.Day] }) >= 20, nil
		}},
		rule{PowerSurge, "⚡", "10 successful RPE 8+ sets", func(rc RuleContext) (bool, error) {
			return successfulSets(rc.Log, hardSet) >= 10, nil
		}},
	}
}

var (
	setsRe = regexp.MustCompile(`(\d+)\s*/\s*\d+\s+sets successful`)
	rpeRe  = regexp.MustCompile(`RPE\s+(\d+(?:\.\d+)?)`)
)

// setsSucceeded reads the success count from a workout note. Notes written by
// the tracker look like "3/4 sets successful"; older free-text notes count
// one set when they mention "Success".
func setsSucceeded(notes string) int {
	if m := setsRe.FindStringSubmatch(notes); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}
	if strings.Contains(notes, "Success") {
		return 1
	}
	return 0
}

func successfulSets(rows []storage.LogEntry, match func(storage.LogEntry) bool) int {
	total := 0
	for _, r := range rows {
		if r.Type == storage.EntryWorkout && match(r) {
			total += setsSucceeded(r.Notes)
		}
	}
	return total
}

func exerciseIn(names ...string) func(storage.LogEntry) bool {
	return func(e storage.LogEntry) bool {
		for _, n := range names {
			if e.Note == n {
				return true
			}
		}
		return false
	}
}

func hardSet(e storage.LogEntry) bool {
	m := rpeRe.FindStringSubmatch(e.Details)
	if m == nil {
		return false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	return err == nil && v >= 8
}

func bjjDays() map[string]bool {
	days := map[string]bool{}
	for _, p := range program.Builtin() {
		if p.Name == program.BJJ {
			for _, d := range p.DayNames() {
				days[d] = true
			}
		}
	}
	return days
}

// sessions counts distinct (date, day) workout sessions.
func sessions(rows []storage.LogEntry) int {
	seen := map[string]bool{}
	for _, r := range rows {
		if r.Type != storage.EntryWorkout {
			continue
		}
		t, ok := r.Time()
		if !ok {
			continue
		}
		seen[t.Format(time.DateOnly)+"|"+r.Day] = true
	}
	return len(seen)
}

// longestStreak returns the longest run of consecutive calendar days having
// at least one row of type typ. Rows with unparseable dates are ignored.
func longestStreak(rows []storage.LogEntry, typ string) int {
	seen := map[time.Time]bool{}
	for _, r := range rows {
		if r.Type != typ {
			continue
		}
		t, ok := r.Time()
		if !ok {
			continue
		}
		seen[time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)] = true
	}
	days := make([]time.Time, 0, len(seen))
	for d := range seen {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	best, run := 0, 0
	for i, d := range days {
		if i > 0 && days[i-1].AddDate(0, 0, 1).Equal(d) {
			run++
		} else {
			run = 1
		}
		best = max(best, run)
	}
	return best
}

// strengthBeast is satisfied when a current 1RM beats a 1RM recorded in an
// earlier log note for the same exercise.
func strengthBeast(rc RuleContext) (bool, error) {
	for exercise, current := range rc.OneRepMaxes {
		for _, r := range rc.Log {
			if !strings.Contains(r.Note, exercise) {
				continue
			}
			_, after, found := strings.Cut(r.Notes, "1RM: ")
			if !found {
				continue
			}
			fields := strings.Fields(after)
			if len(fields) == 0 {
				return false, fmt.Errorf("row %s: empty 1RM note", r.Date)
			}
			old, err := strconv.ParseFloat(strings.TrimRight(fields[0], ","), 64)
			if err != nil {
				return false, fmt.Errorf("row %s: parsing 1RM note: %w", r.Date, err)
			}
			if old < current {
				return true, nil
			}
		}
	}
	return false, nil
}
