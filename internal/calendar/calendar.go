// Package calendar maps a program and a date to the training day, week and
// phase that apply. All functions are pure.
package calendar

import (
	"fmt"
	"time"

	"github.com/claude/fittrack/internal/program"
)

// DefaultStart is the program start date used when none is configured.
var DefaultStart = time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)

// Policy decides which phase a program week belongs to.
type Policy string

const (
	// PolicyThirds splits any program length into equal thirds.
	PolicyThirds Policy = "thirds"
	// PolicyFixed uses explicit week thresholds.
	PolicyFixed Policy = "fixed"
)

// Resolver resolves dates against a fixed start date and phase policy.
type Resolver struct {
	Start          time.Time
	Policy         Policy
	BaseWeeks      int // last Base week under PolicyFixed
	IntensityWeeks int // last Intensity week under PolicyFixed
}

// NewResolver returns a thirds-policy resolver starting on start.
func NewResolver(start time.Time) *Resolver {
	return &Resolver{Start: start, Policy: PolicyThirds, BaseWeeks: 4, IntensityWeeks: 8}
}

// Resolution is the outcome of resolving one date. The zero value means the
// date is outside the program.
type Resolution struct {
	Date    time.Time     `json:"date"`
	Active  bool          `json:"active"`
	RestDay bool          `json:"rest_day"`
	Day     string        `json:"day,omitempty"`
	Week    int           `json:"week,omitempty"`
	Phase   program.Phase `json:"phase,omitempty"`
}

// Validate checks the resolver configuration.
func (r *Resolver) Validate() error {
	switch r.Policy {
	case PolicyThirds, "":
	case PolicyFixed:
		if r.BaseWeeks < 1 || r.IntensityWeeks < r.BaseWeeks {
			return fmt.Errorf("fixed phase policy needs 1 <= base_weeks <= intensity_weeks, got %d/%d", r.BaseWeeks, r.IntensityWeeks)
		}
	default:
		return fmt.Errorf("unknown phase policy %q", r.Policy)
	}
	return nil
}

// Resolve returns the training day, week and phase for date. Time of day and
// location are ignored; only the calendar date counts.
func (r *Resolver) Resolve(p *program.Program, date time.Time) Resolution {
	days := DaysBetween(r.Start, date)
	if days < 0 || days >= p.DurationWeeks*7 {
		return Resolution{}
	}
	week := days/7 + 1
	res := Resolution{
		Date:   civil(date),
		Active: true,
		Week:   week,
		Phase:  r.PhaseFor(week, p.DurationWeeks),
	}
	name, spec, ok := p.DayFor(Weekday(date))
	if !ok {
		res.RestDay = true
		return res
	}
	res.Day = name
	res.RestDay = spec.IsRest()
	return res
}

// Week resolves the seven days starting at weekStart.
func (r *Resolver) Week(p *program.Program, weekStart time.Time) []Resolution {
	out := make([]Resolution, 7)
	for i := range out {
		d := civil(weekStart).AddDate(0, 0, i)
		out[i] = r.Resolve(p, d)
		out[i].Date = d
	}
	return out
}

// PhaseFor returns the phase of week in a program of duration weeks.
func (r *Resolver) PhaseFor(week, duration int) program.Phase {
	if r.Policy == PolicyFixed {
		switch {
		case week <= r.BaseWeeks:
			return program.PhaseBase
		case week <= r.IntensityWeeks:
			return program.PhaseIntensity
		}
		return program.PhasePeaking
	}
	switch {
	case 3*week <= duration:
		return program.PhaseBase
	case 3*week <= 2*duration:
		return program.PhaseIntensity
	}
	return program.PhasePeaking
}

// End returns the last calendar day of p.
func (r *Resolver) End(p *program.Program) time.Time {
	return civil(r.Start).AddDate(0, 0, p.DurationWeeks*7-1)
}

// DaysBetween counts calendar days from a to b, ignoring time of day.
func DaysBetween(a, b time.Time) int {
	return int(civil(b).Sub(civil(a)).Hours() / 24)
}

// Weekday returns the Monday-based weekday index (0=Mon..6=Sun).
func Weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// MondayOf returns the Monday on or before t.
func MondayOf(t time.Time) time.Time {
	return civil(t).AddDate(0, 0, -Weekday(t))
}

func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
