package tracker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/claude/fittrack/internal/achievement"
	"github.com/claude/fittrack/internal/autoreg"
	"github.com/claude/fittrack/internal/program"
	"github.com/claude/fittrack/internal/storage"
)

// WorkoutEntry is a finished exercise to append to the log.
type WorkoutEntry struct {
	Day       string `json:"day"`
	Exercise  string `json:"exercise"`
	Details   string `json:"details"` // defaults to the prescription summary
	Successes int    `json:"successes"`
	Total     int    `json:"total"`
	Notes     string `json:"notes"`
}

// Badge is an achievement and whether it is unlocked.
type Badge struct {
	Name        string `json:"name"`
	Emoji       string `json:"emoji"`
	Description string `json:"description"`
	Unlocked    bool   `json:"unlocked"`
}

// LogWorkout appends a workout row and returns any achievements it unlocked.
func (s *Service) LogWorkout(ctx context.Context, st AppState, e WorkoutEntry) ([]Badge, error) {
	st = s.Normalize(st)
	if e.Exercise == "" {
		return nil, fmt.Errorf("%w: exercise is required", ErrInvalidInput)
	}
	if e.Successes < 0 || e.Total < 0 || e.Successes > e.Total {
		return nil, fmt.Errorf("%w: successes %d out of range for %d sets", ErrInvalidInput, e.Successes, e.Total)
	}
	maxes, err := s.store.OneRepMaxes()
	if err != nil {
		return nil, fmt.Errorf("reading 1RMs: %w", err)
	}
	if e.Details == "" {
		e.Details = s.details(ctx, st, e, maxes)
	}
	notes := program.SessionNote(e.Successes, e.Total, maxes[e.Exercise])
	if e.Notes != "" {
		notes += ", " + e.Notes
	}
	row := storage.LogEntry{
		Date:    s.stamp(st),
		Type:    storage.EntryWorkout,
		Day:     e.Day,
		Note:    e.Exercise,
		Details: e.Details,
		Notes:   notes,
	}
	if err := s.store.AppendLog(row); err != nil {
		return nil, fmt.Errorf("saving workout: %w", err)
	}
	s.log.InfoContext(ctx, "workout logged", "exercise", e.Exercise, "successes", e.Successes, "total", e.Total)
	return s.evaluate(ctx), nil
}

// LogRecovery appends an Other row with body weight and calorie intake.
func (s *Service) LogRecovery(ctx context.Context, st AppState, weight, calories float64, notes string) ([]Badge, error) {
	st = s.Normalize(st)
	if weight < 0 || calories < 0 {
		return nil, fmt.Errorf("%w: weight and calories must not be negative", ErrInvalidInput)
	}
	row := storage.LogEntry{
		Date:  s.stamp(st),
		Type:  storage.EntryOther,
		Note:  "Weight: " + num(weight) + ", Nutrition: " + num(calories),
		Notes: notes,
	}
	if err := s.store.AppendLog(row); err != nil {
		return nil, fmt.Errorf("saving recovery log: %w", err)
	}
	return s.evaluate(ctx), nil
}

// Achievements lists every achievement with its unlock state.
func (s *Service) Achievements() ([]Badge, error) {
	unlocked, err := s.store.Unlocked()
	if err != nil {
		return nil, err
	}
	rules := s.achievements.Rules()
	out := make([]Badge, len(rules))
	for i, r := range rules {
		out[i] = badge(r, unlocked[r.Name()])
	}
	return out, nil
}

// evaluate checks achievements after a log write. Failures are logged: the
// write that triggered evaluation has already succeeded.
func (s *Service) evaluate(ctx context.Context) []Badge {
	rows, err := s.store.Log("")
	if err != nil {
		s.log.WarnContext(ctx, "achievements not evaluated", "error", err)
		return nil
	}
	maxes, err := s.store.OneRepMaxes()
	if err != nil {
		s.log.WarnContext(ctx, "achievements not evaluated", "error", err)
		return nil
	}
	unlocked, err := s.store.Unlocked()
	if err != nil {
		s.log.WarnContext(ctx, "achievements not evaluated", "error", err)
		return nil
	}

	fresh := s.achievements.Evaluate(ctx, achievement.RuleContext{Log: rows, OneRepMaxes: maxes}, unlocked)
	names := make([]string, len(fresh))
	badges := make([]Badge, len(fresh))
	for i, r := range fresh {
		names[i] = r.Name()
		badges[i] = badge(r, true)
	}
	if err := s.store.Unlock(s.achievements.Names(), names); err != nil {
		s.log.WarnContext(ctx, "saving achievements", "error", err)
		return nil
	}
	for _, b := range badges {
		s.log.InfoContext(ctx, "achievement unlocked", "achievement", b.Name)
	}
	return badges
}

func badge(r achievement.Rule, unlocked bool) Badge {
	return Badge{Name: r.Name(), Emoji: r.Emoji(), Description: r.Description(), Unlocked: unlocked}
}

// details renders the prescription for e's exercise on st, or "" when there
// is none.
func (s *Service) details(ctx context.Context, st AppState, e WorkoutEntry, maxes map[string]float64) string {
	p, err := s.program(st)
	if err != nil {
		return ""
	}
	res := s.resolver.Resolve(p, st.Date)
	day := e.Day
	if day == "" {
		day = res.Day
	}
	rx, ok := p.Prescription(day, res.Phase, e.Exercise)
	if !ok {
		s.log.DebugContext(ctx, "no prescription for log details", "exercise", e.Exercise, "day", day)
		return ""
	}
	return program.Summary(rx, autoreg.Load(rx, maxes[e.Exercise], s.units))
}

// stamp formats st.Date with the current time of day.
func (s *Service) stamp(st AppState) string {
	now := s.now()
	d := st.Date
	return time.Date(d.Year(), d.Month(), d.Day(), now.Hour(), now.Minute(), 0, 0, time.UTC).Format(storage.LogTimeLayout)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
