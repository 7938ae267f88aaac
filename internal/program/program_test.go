package program

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func findProgram(t *testing.T, programs []*Program, name string) *Program {
	t.Helper()
	for _, p := range programs {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("program %q not found", name)
	return nil
}

// TestBuiltinLibraryValidates ensures both shipped programs pass validation,
// since an absent library file is read as exactly these programs.
func TestBuiltinLibraryValidates(t *testing.T) {
	programs := Builtin()
	if len(programs) != 2 {
		t.Fatalf("builtin programs = %d, want 2", len(programs))
	}
	for _, p := range programs {
		if err := Validate(p); err != nil {
			t.Errorf("Validate(%q) = %v", p.Name, err)
		}
	}
	sr := findProgram(t, programs, StrengthRunning)
	if sr.DurationWeeks != 12 {
		t.Errorf("duration_weeks = %d, want 12", sr.DurationWeeks)
	}
	if got := len(sr.Days); got != 4 {
		t.Errorf("days = %d, want 4", got)
	}
	bjj := findProgram(t, programs, BJJ)
	if bjj.DurationWeeks != 8 {
		t.Errorf("duration_weeks = %d, want 8", bjj.DurationWeeks)
	}
}

// TestBuiltinVariants checks that the discriminating key decodes to the right
// variant: duration means Timed, effort-only drills stay Strength with a
// bodyweight load pair.
func TestBuiltinVariants(t *testing.T) {
	sr := findProgram(t, Builtin(), StrengthRunning)

	rx, ok := sr.Prescription("Day 2: Running/Endurance", PhaseBase, "Walk/Run Intervals")
	if !ok {
		t.Fatal("missing Walk/Run Intervals prescription")
	}
	timed, ok := rx.(Timed)
	if !ok {
		t.Fatalf("Walk/Run Intervals kind = %v, want timed", rx.Kind())
	}
	want := Timed{Duration: "30-40 min", Distance: "3-5 km", Pace: "6-7 min/km", RPE: "6-7", Rest: 60}
	if diff := cmp.Diff(want, timed); diff != "" {
		t.Errorf("Walk/Run Intervals mismatch (-want +got):\n%s", diff)
	}

	rx, _ = sr.Prescription("Day 4: Speed/Plyo", PhaseBase, "Sprint Drills")
	sprint, ok := rx.(Strength)
	if !ok {
		t.Fatalf("Sprint Drills kind = %v, want strength", rx.Kind())
	}
	if sprint.Effort != "80%" || !sprint.Percent1RM.Bodyweight() {
		t.Errorf("Sprint Drills = %+v, want effort 80%% and no load", sprint)
	}

	rx, _ = sr.Prescription("Day 1: Leg Strength/Hypertrophy A", PhaseBase, "SSB Back Squat")
	squat := rx.(Strength)
	if squat.Percent1RM != (Percent{Low: 0.65, High: 0.75}) {
		t.Errorf("SSB Back Squat percent = %v, want 0.65-0.75", squat.Percent1RM)
	}
}

// TestLibraryRoundTrip verifies that encoding and decoding a library yields the
// same programs, which is what keeps the library file stable across saves.
func TestLibraryRoundTrip(t *testing.T) {
	programs := Builtin()
	data, err := EncodeLibrary(programs)
	if err != nil {
		t.Fatalf("EncodeLibrary: %v", err)
	}
	again, err := DecodeLibrary(data)
	if err != nil {
		t.Fatalf("DecodeLibrary: %v", err)
	}
	if diff := cmp.Diff(programs, again); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

// TestParseJSONAcceptsComments covers hand-edited program files with comments
// and trailing commas, plus numeric sets values.
func TestParseJSONAcceptsComments(t *testing.T) {
	src := `{
  // single-day test program
  "name": "Mini",
  "duration_weeks": 3,
  "description": "one lift",
  "days": {
    "Day 1: Pull": {"description": "pull", "exercises": ["Deadlifts"], "schedule": [2],},
  },
  "prescriptions": {
    "Day 1: Pull": {
      "Base":      {"Deadlifts": {"sets": 3, "reps": "5", "percent_1rm": [0.7, 0.8], "rpe": "7", "rest": 120}},
      "Intensity": {"Deadlifts": {"sets": "3", "reps": "3", "percent_1rm": "0.8-0.9", "rpe": "8", "rest": 150}},
      "Peaking":   {"Deadlifts": {"sets": "2", "reps": "2", "percent_1rm": [0.9, 0.95], "rpe": "9", "rest": 180}},
    },
  },
}`
	p, err := ParseJSON([]byte(src))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if err := Validate(p); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	rx, _ := p.Prescription("Day 1: Pull", PhaseBase, "Deadlifts")
	if got := rx.(Strength).Sets; got != "3" {
		t.Errorf("sets = %q, want %q", got, "3")
	}
	rx, _ = p.Prescription("Day 1: Pull", PhaseIntensity, "Deadlifts")
	if got := rx.(Strength).Percent1RM; got != (Percent{0.8, 0.9}) {
		t.Errorf("percent = %v, want 0.8-0.9", got)
	}
}

// TestParseJSONMissingKeys checks that absent required keys surface as
// ValidationError naming the key.
func TestParseJSONMissingKeys(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{"no name", `{"duration_weeks": 1, "description": "", "days": {}, "prescriptions": {}}`, "name"},
		{"no prescriptions", `{"name": "x", "duration_weeks": 1, "description": "", "days": {}}`, "prescriptions"},
		{"bad day", `{"name": "x", "duration_weeks": 1, "description": "", "days": {"D": {"exercises": []}}, "prescriptions": {}}`, "days.D"},
		{"no rest", `{"name": "x", "duration_weeks": 1, "description": "", "days": {}, "prescriptions": {"D": {"Base": {"E": {"sets": "3"}}}}}`, "prescriptions.D.Base.E"},
		{"no sets", `{"name": "x", "duration_weeks": 1, "description": "", "days": {}, "prescriptions": {"D": {"Base": {"E": {"rest": 60}}}}}`, "prescriptions.D.Base.E"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJSON([]byte(tt.src))
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("field = %q, want %q", ve.Field, tt.field)
			}
		})
	}
}

func miniProgram() *Program {
	rx := func() map[string]Prescription {
		return map[string]Prescription{
			"Squat": Strength{Sets: "3", Reps: "5", Percent1RM: Percent{0.7, 0.8}, RPE: "7-8", Rest: 120},
		}
	}
	return &Program{
		Name:          "Mini",
		DurationWeeks: 6,
		Description:   "test",
		Days: map[string]DaySpec{
			"Day A": {Description: "legs", Exercises: []string{"Squat"}, Schedule: []int{0, 3}},
			"Day B": {Description: "rest", Exercises: []string{}, Schedule: []int{5}},
		},
		Prescriptions: map[string]map[Phase]map[string]Prescription{
			"Day A": {PhaseBase: rx(), PhaseIntensity: rx(), PhasePeaking: rx()},
		},
	}
}

// TestValidateRejects walks each structural rule and checks it is enforced.
func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Program)
		msg    string
	}{
		{"zero duration", func(p *Program) { p.DurationWeeks = 0 }, "must be positive"},
		{"weekday out of range", func(p *Program) {
			d := p.Days["Day A"]
			d.Schedule = []int{7}
			p.Days["Day A"] = d
		}, "outside 0-6"},
		{"overlapping schedules", func(p *Program) {
			d := p.Days["Day B"]
			d.Schedule = []int{3}
			p.Days["Day B"] = d
		}, "already scheduled"},
		{"unknown prescription day", func(p *Program) {
			p.Prescriptions["Day Z"] = p.Prescriptions["Day A"]
		}, "not in days"},
		{"missing phase", func(p *Program) {
			delete(p.Prescriptions["Day A"], PhasePeaking)
		}, "missing phase Peaking"},
		{"orphan exercise", func(p *Program) {
			p.Prescriptions["Day A"][PhaseBase]["Bench"] = Strength{Sets: "3", Rest: 60}
		}, "not in Day A exercises"},
		{"missing sets", func(p *Program) {
			p.Prescriptions["Day A"][PhaseBase]["Squat"] = Strength{Rest: 60}
		}, "missing sets"},
		{"inverted percent", func(p *Program) {
			p.Prescriptions["Day A"][PhaseBase]["Squat"] = Strength{Sets: "3", Percent1RM: Percent{0.9, 0.8}, Rest: 60}
		}, "percent_1rm"},
		{"timed without duration", func(p *Program) {
			p.Prescriptions["Day A"][PhaseBase]["Squat"] = Timed{Rest: 60}
		}, "missing duration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := miniProgram()
			tt.mutate(p)
			err := Validate(p)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
			if !strings.Contains(ve.Error(), tt.msg) {
				t.Errorf("err = %q, want it to mention %q", ve.Error(), tt.msg)
			}
		})
	}
}

// TestValidateAcceptsRestDay confirms a scheduled day without exercises or
// prescriptions is legal.
func TestValidateAcceptsRestDay(t *testing.T) {
	p := miniProgram()
	if err := Validate(p); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	name, spec, ok := p.DayFor(5)
	if !ok || name != "Day B" || !spec.IsRest() {
		t.Errorf("DayFor(5) = %q, %+v, %v; want rest day Day B", name, spec, ok)
	}
}

// TestSetRestDoesNotTouchClone makes sure Clone copies prescriptions deeply,
// since the tracker patches a copy before persisting it.
func TestSetRestDoesNotTouchClone(t *testing.T) {
	p := miniProgram()
	cp := p.Clone()
	if !cp.SetRest("Day A", PhaseBase, "Squat", 150) {
		t.Fatal("SetRest reported missing prescription")
	}
	orig, _ := p.Prescription("Day A", PhaseBase, "Squat")
	if orig.RestSeconds() != 120 {
		t.Errorf("original rest = %d, want 120", orig.RestSeconds())
	}
	patched, _ := cp.Prescription("Day A", PhaseBase, "Squat")
	if patched.RestSeconds() != 150 {
		t.Errorf("patched rest = %d, want 150", patched.RestSeconds())
	}
	if cp.SetRest("Day A", PhaseBase, "Bench", 90) {
		t.Error("SetRest on missing exercise = true, want false")
	}
}

// TestRangeParse covers single values, ranges, unit suffixes and garbage.
func TestRangeParse(t *testing.T) {
	tests := []struct {
		in      Range
		want    Bounds
		wantErr bool
	}{
		{"7", Bounds{Low: 7, High: 7, Single: true}, false},
		{"3-4", Bounds{Low: 3, High: 4}, false},
		{"8-10/leg", Bounds{Low: 8, High: 10, Suffix: "/leg"}, false},
		{"30-45 sec", Bounds{Low: 30, High: 45, Suffix: " sec"}, false},
		{"6.5-7.5", Bounds{Low: 6.5, High: 7.5}, false},
		{"hard", Bounds{}, true},
		{"", Bounds{}, true},
	}
	for _, tt := range tests {
		got, err := tt.in.Parse()
		if tt.wantErr {
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Errorf("Parse(%q) err = %v, want *ParseError", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
		if back := got.Range(); back != tt.in {
			t.Errorf("Parse(%q).Range() = %q", tt.in, back)
		}
	}
}

// TestSummary checks the one-line rendering for each variant.
func TestSummary(t *testing.T) {
	strength := Strength{Sets: "3-4", Reps: "6-10", Percent1RM: Percent{0.65, 0.75}, RPE: "7-8", Rest: 120}
	if got, want := Summary(strength, "130-150 lbs"), "3-4x6-10 @ 130-150 lbs, RPE 7-8"; got != want {
		t.Errorf("Summary(strength) = %q, want %q", got, want)
	}
	timed := Timed{Duration: "30-40 min", Distance: "3-5 km", Pace: "6-7 min/km", RPE: "6-7"}
	if got, want := Summary(timed, "ignored"), "30-40 min, 3-5 km, 6-7 min/km, RPE 6-7"; got != want {
		t.Errorf("Summary(timed) = %q, want %q", got, want)
	}
	sprint := Strength{Sets: "6", Reps: "30 sec", Effort: "80%", RPE: "7-8"}
	if got, want := Summary(sprint, "Bodyweight/Non-weighted"), "6x30 sec @ 80% effort, RPE 7-8"; got != want {
		t.Errorf("Summary(sprint) = %q, want %q", got, want)
	}
}

// TestSessionNote pins the note format that achievement rules parse.
func TestSessionNote(t *testing.T) {
	if got, want := SessionNote(3, 4, 315), "3/4 sets successful 1RM: 315"; got != want {
		t.Errorf("SessionNote = %q, want %q", got, want)
	}
	if got, want := SessionNote(0, 3, 0), "0/3 sets successful"; got != want {
		t.Errorf("SessionNote = %q, want %q", got, want)
	}
}

// TestSampleWarmUps verifies sampling is deterministic for a seeded source
// and never repeats a drill.
func TestSampleWarmUps(t *testing.T) {
	a := SampleWarmUps(rand.New(rand.NewSource(7)), WarmUpStrength, 3)
	b := SampleWarmUps(rand.New(rand.NewSource(7)), WarmUpStrength, 3)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("same seed gave different samples:\n%s", diff)
	}
	seen := map[string]bool{}
	for _, w := range a {
		if seen[w.Name] {
			t.Errorf("duplicate warm-up %q", w.Name)
		}
		seen[w.Name] = true
	}
	if got := len(SampleWarmUps(rand.New(rand.NewSource(1)), WarmUpRest, 10)); got != 5 {
		t.Errorf("oversized sample = %d, want 5", got)
	}
	if got := WarmUpCategory("Day 4: Speed/Plyo"); got != WarmUpConditioning {
		t.Errorf("WarmUpCategory = %q, want %q", got, WarmUpConditioning)
	}
}
