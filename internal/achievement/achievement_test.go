package achievement

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/claude/fittrack/internal/storage"
	"github.com/claude/fittrack/internal/testhelpers"
)

func workout(date, day, exercise, details, notes string) storage.LogEntry {
	return storage.LogEntry{Date: date, Type: storage.EntryWorkout, Day: day, Note: exercise, Details: details, Notes: notes}
}

func names(rules []Rule) []string {
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = r.Name()
	}
	return out
}

func newEvaluator(t *testing.T, rules ...Rule) *Evaluator {
	return NewEvaluator(testhelpers.NewLogger(testhelpers.NewWriter(t)), rules...)
}

func byName(t *testing.T, name string) Rule {
	t.Helper()
	for _, r := range Builtin() {
		if r.Name() == name {
			return r
		}
	}
	t.Fatalf("no rule %q", name)
	return nil
}

func TestBuiltinNamesAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, r := range Builtin() {
		if seen[r.Name()] {
			t.Errorf("duplicate rule %q", r.Name())
		}
		seen[r.Name()] = true
	}
	if len(seen) != 8 {
		t.Errorf("got %d rules, want 8", len(seen))
	}
}

func TestRules(t *testing.T) {
	var (
		tenSessions, grip, sprints, bjj, hard, streak4, streak5, recovery []storage.LogEntry
	)
	for i := 1; i <= 10; i++ {
		date := fmt.Sprintf("2025-09-%02d 18:00", i)
		tenSessions = append(tenSessions,
			workout(date, "Day 1", "Squat", "", ""),
			workout(date, "Day 1", "Leg Press", "", ""))
		grip = append(grip, workout(date, "Day 1", "Deadlifts", "", "5/5 sets successful"))
		sprints = append(sprints, workout(date, "Day 4", "Sprint Drills", "", "5/6 sets successful"))
		bjj = append(bjj, workout(date, "Day 1: Strength & Power", "Power Cleans", "", "2/4 sets successful"))
		hard = append(hard, workout(date, "Day 1", "Squat", "3x5 @ 200 lbs, RPE 8-9", "Success"))
	}
	for i := 1; i <= 7; i++ {
		recovery = append(recovery, storage.LogEntry{Date: fmt.Sprintf("2025-09-%02d 08:00", i), Type: storage.EntryOther, Note: "Weight: 180"})
	}
	for _, d := range []int{1, 2, 3, 4, 6, 7} {
		streak4 = append(streak4, workout(fmt.Sprintf("2025-09-%02d 18:00", d), "Day 1", "Squat", "", ""))
	}
	for _, d := range []int{1, 2, 3, 4, 5} {
		// Two rows on the same day count once.
		streak5 = append(streak5,
			workout(fmt.Sprintf("2025-09-%02d 07:00", d), "Day 1", "Squat", "", ""),
			workout(fmt.Sprintf("2025-09-%02d 19:00", d), "Day 1", "Lunge", "", ""))
	}

	tests := []struct {
		rule string
		log  []storage.LogEntry
		maxs map[string]float64
		want bool
	}{
		{IronNovice, tenSessions, nil, true},
		{IronNovice, tenSessions[:18], nil, false},
		{GripTitan, grip, nil, true},
		{GripTitan, grip[:9], nil, false},
		{SprintKing, sprints, nil, true},
		{BJJGrinder, bjj, nil, true},
		{BJJGrinder, bjj[:9], nil, false},
		{PowerSurge, hard, nil, true},
		{PowerSurge, hard[:9], nil, false},
		{RecoveryPro, recovery, nil, true},
		{RecoveryPro, recovery[1:], nil, false},
		{ConsistencyChamp, streak4, nil, false},
		{ConsistencyChamp, streak5, nil, true},
		{StrengthBeast, []storage.LogEntry{workout("2025-09-01 18:00", "Day 1", "Deadlifts", "", "3/3 sets successful 1RM: 300")}, map[string]float64{"Deadlifts": 315}, true},
		{StrengthBeast, []storage.LogEntry{workout("2025-09-01 18:00", "Day 1", "Deadlifts", "", "3/3 sets successful 1RM: 315")}, map[string]float64{"Deadlifts": 315}, false},
	}
	for _, tt := range tests {
		t.Run(tt.rule, func(t *testing.T) {
			got, err := byName(t, tt.rule).Check(RuleContext{Log: tt.log, OneRepMaxes: tt.maxs})
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("%s = %v, want %v", tt.rule, got, tt.want)
			}
		})
	}
}

// TestStrengthBeastMalformedNote surfaces an error for an unparseable 1RM
// note instead of guessing.
func TestStrengthBeastMalformedNote(t *testing.T) {
	_, err := byName(t, StrengthBeast).Check(RuleContext{
		Log:         []storage.LogEntry{workout("2025-09-01 18:00", "Day 1", "Deadlifts", "", "1RM: heavy")},
		OneRepMaxes: map[string]float64{"Deadlifts": 315},
	})
	if err == nil {
		t.Error("expected error for malformed 1RM note")
	}
}

type fakeRule struct {
	name  string
	ok    bool
	err   error
	panic bool
	calls *int
}

func (f fakeRule) Name() string        { return f.name }
func (f fakeRule) Emoji() string       { return "" }
func (f fakeRule) Description() string { return "" }
func (f fakeRule) Check(RuleContext) (bool, error) {
	if f.calls != nil {
		*f.calls++
	}
	if f.panic {
		panic("boom")
	}
	return f.ok, f.err
}

// TestEvaluateIsolatesFailures checks a panicking or failing rule does not
// stop the others, and unlocked rules are skipped.
func TestEvaluateIsolatesFailures(t *testing.T) {
	var skippedCalls int
	ev := newEvaluator(t,
		fakeRule{name: "panics", panic: true},
		fakeRule{name: "errors", err: errors.New("bad row")},
		fakeRule{name: "passes", ok: true},
		fakeRule{name: "already", ok: true, calls: &skippedCalls},
		fakeRule{name: "fails"},
	)
	got := names(ev.Evaluate(context.Background(), RuleContext{}, map[string]bool{"already": true}))
	if len(got) != 1 || got[0] != "passes" {
		t.Errorf("Evaluate() = %v, want [passes]", got)
	}
	if skippedCalls != 0 {
		t.Errorf("unlocked rule checked %d times, want 0", skippedCalls)
	}
}

func TestCheckWrapsPanic(t *testing.T) {
	_, err := check(fakeRule{name: "panics", panic: true}, RuleContext{})
	var re *RuleError
	if !errors.As(err, &re) || re.Rule != "panics" {
		t.Errorf("err = %v, want RuleError for panics", err)
	}
}

func TestSetsSucceeded(t *testing.T) {
	tests := map[string]int{
		"3/4 sets successful":          3,
		"0/3 sets successful 1RM: 300": 0,
		"Success":                      1,
		"felt heavy":                   0,
	}
	for notes, want := range tests {
		if got := setsSucceeded(notes); got != want {
			t.Errorf("setsSucceeded(%q) = %d, want %d", notes, got, want)
		}
	}
}
