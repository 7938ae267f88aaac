package program

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError describes why a program was rejected. Rejected programs are
// never persisted.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid program: " + e.Msg
	}
	return fmt.Sprintf("invalid program: %s: %s", e.Field, e.Msg)
}

// Validate checks the structural invariants of p and returns the first
// violation as a *ValidationError. Checks run in sorted key order so the
// reported error is stable.
func Validate(p *Program) error {
	if strings.TrimSpace(p.Name) == "" {
		return &ValidationError{Field: "name", Msg: "must not be empty"}
	}
	if p.DurationWeeks <= 0 {
		return &ValidationError{Field: "duration_weeks", Msg: fmt.Sprintf("must be positive, got %d", p.DurationWeeks)}
	}
	if len(p.Days) == 0 {
		return &ValidationError{Field: "days", Msg: "program has no days"}
	}

	claimed := map[int]string{}
	for _, name := range p.DayNames() {
		for _, w := range p.Days[name].Schedule {
			if w < 0 || w > 6 {
				return &ValidationError{Field: "days." + name + ".schedule", Msg: fmt.Sprintf("weekday %d outside 0-6", w)}
			}
			if other, ok := claimed[w]; ok && other != name {
				return &ValidationError{Field: "days." + name + ".schedule", Msg: fmt.Sprintf("weekday %d already scheduled for %q", w, other)}
			}
			claimed[w] = name
		}
	}

	days := make([]string, 0, len(p.Prescriptions))
	for day := range p.Prescriptions {
		days = append(days, day)
	}
	sort.Strings(days)
	for _, day := range days {
		spec, ok := p.Days[day]
		if !ok {
			return &ValidationError{Field: "prescriptions." + day, Msg: "prescription day not in days"}
		}
		for _, phase := range Phases {
			exs, ok := p.Prescriptions[day][phase]
			if !ok {
				return &ValidationError{Field: "prescriptions." + day, Msg: fmt.Sprintf("missing phase %s", phase)}
			}
			names := make([]string, 0, len(exs))
			for ex := range exs {
				names = append(names, ex)
			}
			sort.Strings(names)
			for _, ex := range names {
				field := fmt.Sprintf("prescriptions.%s.%s.%s", day, phase, ex)
				if !spec.HasExercise(ex) {
					return &ValidationError{Field: field, Msg: fmt.Sprintf("exercise not in %s exercises", day)}
				}
				if err := validateRx(exs[ex]); err != nil {
					return &ValidationError{Field: field, Msg: err.Error()}
				}
			}
		}
		for phase := range p.Prescriptions[day] {
			if !phase.Valid() {
				return &ValidationError{Field: "prescriptions." + day, Msg: fmt.Sprintf("unknown phase %q", phase)}
			}
		}
	}
	return nil
}

func validateRx(rx Prescription) error {
	if rx == nil {
		return fmt.Errorf("empty prescription")
	}
	if rx.RestSeconds() < 0 {
		return fmt.Errorf("rest must not be negative")
	}
	switch v := rx.(type) {
	case Strength:
		if strings.TrimSpace(string(v.Sets)) == "" {
			return fmt.Errorf("missing sets")
		}
		pct := v.Percent1RM
		if pct.Low < 0 || pct.High > 1 || pct.Low > pct.High {
			return fmt.Errorf("percent_1rm %s must satisfy 0 <= low <= high <= 1", pct)
		}
	case Timed:
		if strings.TrimSpace(v.Duration) == "" {
			return fmt.Errorf("missing duration")
		}
	default:
		return fmt.Errorf("unknown prescription kind")
	}
	return nil
}
