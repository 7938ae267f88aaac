package program

import (
	"sort"
	"strings"
)

// Phase is a macrocycle stage that determines load and volume targets.
type Phase string

const (
	PhaseBase      Phase = "Base"
	PhaseIntensity Phase = "Intensity"
	PhasePeaking   Phase = "Peaking"
)

// Phases lists every phase in program order.
var Phases = []Phase{PhaseBase, PhaseIntensity, PhasePeaking}

// Valid reports whether p is one of the known phases.
func (p Phase) Valid() bool {
	switch p {
	case PhaseBase, PhaseIntensity, PhasePeaking:
		return true
	}
	return false
}

// Program is a periodized training program.
type Program struct {
	Name          string
	DurationWeeks int
	Description   string
	Days          map[string]DaySpec
	Prescriptions map[string]map[Phase]map[string]Prescription
}

// DaySpec describes one training day of the week. A day with no exercises is
// a scheduled rest day.
type DaySpec struct {
	Description string
	Exercises   []string
	Schedule    []int // weekday indices, 0=Mon..6=Sun
}

// IsRest reports whether the day carries no exercises.
func (d DaySpec) IsRest() bool {
	return len(d.Exercises) == 0
}

// HasExercise reports whether name is part of the day's exercise list.
func (d DaySpec) HasExercise(name string) bool {
	for _, ex := range d.Exercises {
		if ex == name {
			return true
		}
	}
	return false
}

// ScheduledOn reports whether the day is scheduled on the given weekday index.
func (d DaySpec) ScheduledOn(weekday int) bool {
	for _, w := range d.Schedule {
		if w == weekday {
			return true
		}
	}
	return false
}

// DayNames returns the program's day names in sorted order.
func (p *Program) DayNames() []string {
	names := make([]string, 0, len(p.Days))
	for name := range p.Days {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DayFor returns the day scheduled on weekday (0=Mon). Validation guarantees
// at most one day per weekday; DayNames order breaks ties for unvalidated data.
func (p *Program) DayFor(weekday int) (string, DaySpec, bool) {
	for _, name := range p.DayNames() {
		if spec := p.Days[name]; spec.ScheduledOn(weekday) {
			return name, spec, true
		}
	}
	return "", DaySpec{}, false
}

// Prescription returns the base prescription for an exercise on a day in a phase.
func (p *Program) Prescription(day string, phase Phase, exercise string) (Prescription, bool) {
	rx, ok := p.Prescriptions[day][phase][exercise]
	return rx, ok
}

// SetRest overwrites the stored rest interval for one prescription. It reports
// false when no such prescription exists.
func (p *Program) SetRest(day string, phase Phase, exercise string, rest int) bool {
	rx, ok := p.Prescription(day, phase, exercise)
	if !ok {
		return false
	}
	p.Prescriptions[day][phase][exercise] = rx.WithRest(rest)
	return true
}

// Exercises returns every distinct exercise in the program, sorted.
func (p *Program) Exercises() []string {
	seen := map[string]bool{}
	var out []string
	for _, day := range p.Days {
		for _, ex := range day.Exercises {
			if !seen[ex] {
				seen[ex] = true
				out = append(out, ex)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Clone returns a deep copy of p.
func (p *Program) Clone() *Program {
	out := &Program{
		Name:          p.Name,
		DurationWeeks: p.DurationWeeks,
		Description:   p.Description,
		Days:          make(map[string]DaySpec, len(p.Days)),
		Prescriptions: make(map[string]map[Phase]map[string]Prescription, len(p.Prescriptions)),
	}
	for name, d := range p.Days {
		out.Days[name] = DaySpec{
			Description: d.Description,
			Exercises:   append([]string(nil), d.Exercises...),
			Schedule:    append([]int(nil), d.Schedule...),
		}
	}
	for day, phases := range p.Prescriptions {
		cp := make(map[Phase]map[string]Prescription, len(phases))
		for phase, exs := range phases {
			m := make(map[string]Prescription, len(exs))
			for ex, rx := range exs {
				m[ex] = rx // variants are value types
			}
			cp[phase] = m
		}
		out.Prescriptions[day] = cp
	}
	return out
}

// IsConditioningDay reports whether a day name reads as a running, speed or
// conditioning session. Used to pick warm-ups.
func IsConditioningDay(day string) bool {
	d := strings.ToLower(day)
	return strings.Contains(d, "running") || strings.Contains(d, "speed") || strings.Contains(d, "conditioning")
}
