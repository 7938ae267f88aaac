// Package autoreg adjusts a prescription from the lifter's recent set
// outcomes, today's failures and logged recovery signals.
package autoreg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/claude/fittrack/internal/program"
	"github.com/claude/fittrack/internal/storage"
)

// ErrNoPrescription is returned when the program has no prescription for the
// requested day, phase and exercise.
var ErrNoPrescription = errors.New("no prescription")

// lookback bounds how old an outcome may be to count toward the score.
const lookback = 14 * 24 * time.Hour

// Trend thresholds.
const (
	deloadScore = -3
	surgeScore  = 3
)

// History is the performance store the engine reads and appends to.
type History interface {
	AppendPerformance(exercise string, date time.Time, success bool, set int) error
	Performance(exercise string) ([]storage.PerformanceEntry, error)
}

// Outcome is a single completed set.
type Outcome struct {
	Success bool `json:"success"`
	Set     int  `json:"set"`
}

// Request describes one adjustment.
type Request struct {
	Program     *program.Program
	Day         string
	Phase       program.Phase
	Exercise    string
	Outcome     *Outcome
	Sensitivity Sensitivity
	Recovery    RecoveryMetrics

	// Date is the training day the outcome belongs to. The window and the
	// same-day failure count are taken relative to it. Zero means the
	// engine's clock.
	Date time.Time
}

// Trend is the branch the score selected.
type Trend string

const (
	TrendSteady Trend = "steady"
	TrendDeload Trend = "deload"
	TrendSurge  Trend = "surge"
)

// RestPatch is a durable change to a prescription's rest interval. The engine
// never edits the program itself; the caller persists the patch.
type RestPatch struct {
	Program  string        `json:"program"`
	Day      string        `json:"day"`
	Phase    program.Phase `json:"phase"`
	Exercise string        `json:"exercise"`
	From     int           `json:"from"`
	To       int           `json:"to"`
}

// Result is the adjusted prescription and how it was reached.
type Result struct {
	Prescription program.Prescription
	Score        int
	Window       int // outcomes considered
	Trend        Trend
	RestPatch    *RestPatch
	Warnings     []string
}

// Engine computes adjusted prescriptions.
type Engine struct {
	history History
	log     *slog.Logger
	now     func() time.Time
}

// New creates an engine reading and writing outcomes through history.
func New(history History, log *slog.Logger) *Engine {
	return &Engine{history: history, log: log, now: time.Now}
}

// WithClock replaces the engine's clock. It is used by tests to pin "today".
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Adjust records req.Outcome (when present) and returns the prescription for
// req.Day/req.Phase/req.Exercise adjusted to the recent trend. The outcome is
// stored even when the prescription lookup fails with ErrNoPrescription.
func (e *Engine) Adjust(ctx context.Context, req Request) (Result, error) {
	now := req.Date
	if now.IsZero() {
		now = e.now()
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	if req.Outcome != nil {
		if err := e.history.AppendPerformance(req.Exercise, today, req.Outcome.Success, req.Outcome.Set); err != nil {
			return Result{}, fmt.Errorf("recording outcome for %s: %w", req.Exercise, err)
		}
	}

	entries, err := e.history.Performance(req.Exercise)
	if err != nil {
		return Result{}, fmt.Errorf("reading history for %s: %w", req.Exercise, err)
	}

	window := req.Sensitivity.Window()
	recent := e.recent(entries, today, window)
	score := Score(recent)

	if req.Program == nil {
		return Result{}, fmt.Errorf("%w: no program selected", ErrNoPrescription)
	}
	rx, ok := req.Program.Prescription(req.Day, req.Phase, req.Exercise)
	if !ok {
		return Result{}, fmt.Errorf("%w for %s on %q in %s", ErrNoPrescription, req.Exercise, req.Day, req.Phase)
	}

	res := Result{Score: score, Window: len(recent), Trend: TrendSteady}

	if failuresOn(entries, today) >= 2 {
		rx = e.shiftRPE(rx, -1)
	}
	modifier := req.Recovery.Penalty()

	rest := rx.RestSeconds()
	newRest := rest
	switch {
	case score <= deloadScore:
		res.Trend = TrendDeload
		rx = e.deload(rx, modifier)
		newRest = max(rest, min(180, rest+30))
		res.Warnings = append(res.Warnings, fmt.Sprintf("Consistent failures for %s, consider a deload week.", req.Exercise))
	case score >= surgeScore:
		res.Trend = TrendSurge
		rx = e.surge(rx)
		newRest = min(rest, max(30, rest-15))
	}
	if newRest != rest {
		res.RestPatch = &RestPatch{
			Program:  req.Program.Name,
			Day:      req.Day,
			Phase:    req.Phase,
			Exercise: req.Exercise,
			From:     rest,
			To:       newRest,
		}
	}
	res.Prescription = rx

	e.log.DebugContext(ctx, "prescription adjusted",
		"exercise", req.Exercise,
		"score", score,
		"window", len(recent),
		"trend", res.Trend,
		"modifier", modifier)
	return res, nil
}

// recent keeps entries dated no earlier than today-14d and returns the last
// window of them.
func (e *Engine) recent(entries []storage.PerformanceEntry, today time.Time, window int) []storage.PerformanceEntry {
	cutoff := today.Add(-lookback)
	var kept []storage.PerformanceEntry
	for _, entry := range entries {
		day, ok := entry.Day()
		if !ok {
			e.log.Debug("skipping performance entry with bad date", "date", entry.Date)
			continue
		}
		if day.Before(cutoff) {
			continue
		}
		kept = append(kept, entry)
	}
	if len(kept) > window {
		kept = kept[len(kept)-window:]
	}
	return kept
}

// Score sums +1 per success and -1 per failure.
func Score(entries []storage.PerformanceEntry) int {
	score := 0
	for _, entry := range entries {
		if entry.Success {
			score++
		} else {
			score--
		}
	}
	return score
}

func failuresOn(entries []storage.PerformanceEntry, day time.Time) int {
	date := day.Format(storage.DateLayout)
	n := 0
	for _, entry := range entries {
		if entry.Date == date && !entry.Success {
			n++
		}
	}
	return n
}

func (e *Engine) shiftRPE(rx program.Prescription, delta float64) program.Prescription {
	b, err := program.RPEOf(rx).Parse()
	if err != nil {
		e.log.Debug("rpe not adjusted", "error", err)
		return rx
	}
	return program.WithRPE(rx, b.Shift(delta, 1).Range())
}

func (e *Engine) deload(rx program.Prescription, modifier float64) program.Prescription {
	s, ok := rx.(program.Strength)
	if !ok {
		return rx
	}
	if !s.Percent1RM.Bodyweight() {
		lower := func(p float64) float64 {
			return min(p, round2(max(0.5, p-0.05+modifier)))
		}
		s.Percent1RM = program.Percent{Low: lower(s.Percent1RM.Low), High: lower(s.Percent1RM.High)}
	}
	if b, err := s.Sets.Parse(); err != nil {
		e.log.Debug("sets not adjusted", "error", err)
	} else {
		b.High = max(b.High, min(5, b.High+1))
		if b.Single {
			b.Low = b.High
		}
		s.Sets = b.Range()
	}
	return s
}

func (e *Engine) surge(rx program.Prescription) program.Prescription {
	s, ok := rx.(program.Strength)
	if !ok {
		return rx
	}
	if !s.Percent1RM.Bodyweight() {
		s.Percent1RM = program.Percent{
			Low:  max(s.Percent1RM.Low, round2(min(0.95, s.Percent1RM.Low+0.05))),
			High: max(s.Percent1RM.High, round2(min(1.0, s.Percent1RM.High+0.05))),
		}
	}
	if b, err := s.Sets.Parse(); err != nil {
		e.log.Debug("sets not adjusted", "error", err)
	} else {
		b.Low = min(b.Low, max(2, b.Low-1))
		b.High = min(b.High, max(2, b.High-1))
		s.Sets = b.Range()
	}
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
