package calendar

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/claude/fittrack/internal/program"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func strengthRunning(t *testing.T) *program.Program {
	t.Helper()
	for _, p := range program.Builtin() {
		if p.Name == program.StrengthRunning {
			return p
		}
	}
	t.Fatal("built-in program missing")
	return nil
}

// TestResolveProgramStart covers the first day of a program: Monday of week 1
// maps to the weekday-0 day in the Base phase.
func TestResolveProgramStart(t *testing.T) {
	r := NewResolver(DefaultStart)
	got := r.Resolve(strengthRunning(t), date(2025, time.September, 1))
	want := Resolution{
		Date:   date(2025, time.September, 1),
		Active: true,
		Day:    "Day 1: Leg Strength/Hypertrophy A",
		Week:   1,
		Phase:  program.PhaseBase,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Resolve mismatch (-want +got):\n%s", diff)
	}
}

// TestResolveAfterProgramEnd checks a date in week 13 of a 12-week program.
func TestResolveAfterProgramEnd(t *testing.T) {
	r := NewResolver(DefaultStart)
	got := r.Resolve(strengthRunning(t), date(2025, time.November, 25))
	if got != (Resolution{}) {
		t.Errorf("Resolve = %+v, want not active", got)
	}
}

// TestResolveBoundaries walks the active range edges: the day before start,
// the last active day and the first day after.
func TestResolveBoundaries(t *testing.T) {
	r := NewResolver(DefaultStart)
	p := strengthRunning(t)
	if got := r.Resolve(p, date(2025, time.August, 31)); got.Active {
		t.Errorf("day before start active: %+v", got)
	}
	last := r.End(p)
	if got := r.Resolve(p, last); !got.Active || got.Week != 12 {
		t.Errorf("last day = %+v, want active week 12", got)
	}
	if got := r.Resolve(p, last.AddDate(0, 0, 1)); got.Active {
		t.Errorf("day after end active: %+v", got)
	}
}

// TestResolveRestDay distinguishes an unscheduled weekday from an inactive
// date: Wednesday has no day in the strength & running program.
func TestResolveRestDay(t *testing.T) {
	r := NewResolver(DefaultStart)
	got := r.Resolve(strengthRunning(t), date(2025, time.September, 3))
	if !got.Active || !got.RestDay || got.Day != "" {
		t.Errorf("Resolve(Wed) = %+v, want active rest day", got)
	}
}

// TestResolveIgnoresTimeOfDay makes sure late-evening timestamps in other
// zones still resolve to their own calendar date.
func TestResolveIgnoresTimeOfDay(t *testing.T) {
	r := NewResolver(DefaultStart)
	p := strengthRunning(t)
	zone := time.FixedZone("PDT", -7*3600)
	late := time.Date(2025, time.September, 1, 23, 30, 0, 0, zone)
	if got := r.Resolve(p, late); got.Week != 1 || got.Day != "Day 1: Leg Strength/Hypertrophy A" {
		t.Errorf("Resolve(late Monday) = %+v", got)
	}
}

// TestResolveProperties sweeps every day around the program and checks the
// week formula, bounds, phase monotonicity and idempotence.
func TestResolveProperties(t *testing.T) {
	for _, policy := range []Policy{PolicyThirds, PolicyFixed} {
		r := NewResolver(DefaultStart)
		r.Policy = policy
		for _, p := range program.Builtin() {
			prev := program.PhaseBase
			rank := map[program.Phase]int{program.PhaseBase: 0, program.PhaseIntensity: 1, program.PhasePeaking: 2}
			for offset := -10; offset < p.DurationWeeks*7+10; offset++ {
				d := DefaultStart.AddDate(0, 0, offset)
				got := r.Resolve(p, d)
				if again := r.Resolve(p, d); again != got {
					t.Fatalf("%s %s: not idempotent: %+v vs %+v", policy, d.Format(time.DateOnly), got, again)
				}
				inRange := offset >= 0 && offset < p.DurationWeeks*7
				if got.Active != inRange {
					t.Fatalf("%s %s: active = %v, want %v", policy, d.Format(time.DateOnly), got.Active, inRange)
				}
				if !inRange {
					continue
				}
				if want := offset/7 + 1; got.Week != want {
					t.Fatalf("%s %s: week = %d, want %d", policy, d.Format(time.DateOnly), got.Week, want)
				}
				if got.Week < 1 || got.Week > p.DurationWeeks {
					t.Fatalf("%s %s: week %d out of bounds", policy, d.Format(time.DateOnly), got.Week)
				}
				if rank[got.Phase] < rank[prev] {
					t.Fatalf("%s %s: phase regressed from %s to %s", policy, d.Format(time.DateOnly), prev, got.Phase)
				}
				prev = got.Phase
			}
		}
	}
}

// TestPhaseForThirds pins the thirds boundaries for 12- and 8-week programs.
func TestPhaseForThirds(t *testing.T) {
	r := NewResolver(DefaultStart)
	tests := []struct {
		week, duration int
		want           program.Phase
	}{
		{4, 12, program.PhaseBase},
		{5, 12, program.PhaseIntensity},
		{8, 12, program.PhaseIntensity},
		{9, 12, program.PhasePeaking},
		{2, 8, program.PhaseBase},
		{3, 8, program.PhaseIntensity},
		{5, 8, program.PhaseIntensity},
		{6, 8, program.PhasePeaking},
	}
	for _, tt := range tests {
		if got := r.PhaseFor(tt.week, tt.duration); got != tt.want {
			t.Errorf("PhaseFor(%d, %d) = %s, want %s", tt.week, tt.duration, got, tt.want)
		}
	}
}

// TestWeek returns seven consecutive resolutions from the Monday of a week.
func TestWeek(t *testing.T) {
	r := NewResolver(DefaultStart)
	week := r.Week(strengthRunning(t), MondayOf(date(2025, time.September, 4)))
	if len(week) != 7 {
		t.Fatalf("len = %d, want 7", len(week))
	}
	if !week[0].Date.Equal(date(2025, time.September, 1)) {
		t.Errorf("first day = %s, want 2025-09-01", week[0].Date)
	}
	workouts := 0
	for _, res := range week {
		if res.Active && !res.RestDay {
			workouts++
		}
	}
	if workouts != 4 {
		t.Errorf("workouts = %d, want 4", workouts)
	}
}

// TestValidatePolicy rejects unknown policies and inverted fixed thresholds.
func TestValidatePolicy(t *testing.T) {
	r := NewResolver(DefaultStart)
	r.Policy = "halves"
	if err := r.Validate(); err == nil {
		t.Error("unknown policy accepted")
	}
	r.Policy = PolicyFixed
	r.BaseWeeks, r.IntensityWeeks = 6, 4
	if err := r.Validate(); err == nil {
		t.Error("inverted thresholds accepted")
	}
}
