package tracker

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/fittrack/internal/autoreg"
	"github.com/claude/fittrack/internal/calendar"
	"github.com/claude/fittrack/internal/program"
	"github.com/claude/fittrack/internal/storage"
)

// Item is one exercise of a session with its adjusted prescription.
type Item struct {
	Exercise     string               `json:"exercise"`
	Kind         string               `json:"kind"`
	Summary      string               `json:"summary"`
	Load         string               `json:"load,omitempty"`
	Sets         int                  `json:"sets"`
	Rest         int                  `json:"rest"`
	Score        int                  `json:"score"`
	Trend        autoreg.Trend        `json:"trend"`
	Warnings     []string             `json:"warnings,omitempty"`
	RestPatch    *autoreg.RestPatch   `json:"rest_patch,omitempty"`
	Prescription program.Prescription `json:"-"`
}

// Session is the plan for one date.
type Session struct {
	Program     string                     `json:"program"`
	Resolution  calendar.Resolution        `json:"resolution"`
	Description string                     `json:"description,omitempty"`
	Items       []Item                     `json:"items,omitempty"`
	WarmUps     []program.WarmUp           `json:"warm_ups,omitempty"`
	Recovery    []program.RecoveryBehavior `json:"recovery,omitempty"`
	Quote       string                     `json:"quote,omitempty"`
}

// Today resolves st.Date against the selected program and returns the
// session with every prescription adjusted. Exercises listed for the day but
// not prescribed in the current phase appear without a summary. Nothing is
// written.
func (s *Service) Today(ctx context.Context, st AppState) (*Session, error) {
	st = s.Normalize(st)
	p, err := s.program(st)
	if err != nil {
		return nil, err
	}
	res := s.resolver.Resolve(p, st.Date)
	sess := &Session{Program: p.Name, Resolution: res}
	if !res.Active {
		return sess, nil
	}
	sess.WarmUps, sess.Quote = s.warmUps(res)
	if res.RestDay {
		sess.Recovery = program.RecoveryBehaviors
		return sess, nil
	}

	spec := p.Days[res.Day]
	sess.Description = spec.Description
	ctxData, err := s.adjustContext()
	if err != nil {
		return nil, err
	}
	for _, ex := range spec.Exercises {
		item, err := s.adjust(ctx, p, st, res, ex, nil, ctxData)
		if errors.Is(err, autoreg.ErrNoPrescription) {
			s.log.DebugContext(ctx, "exercise has no prescription", "exercise", ex, "day", res.Day, "phase", res.Phase)
			item = &Item{Exercise: ex}
		} else if err != nil {
			return nil, err
		}
		sess.Items = append(sess.Items, *item)
	}
	return sess, nil
}

// Preview returns the adjusted prescription for one exercise without
// recording anything. An empty day uses the day scheduled on st.Date.
func (s *Service) Preview(ctx context.Context, st AppState, day, exercise string) (*Item, error) {
	st = s.Normalize(st)
	p, res, err := s.scheduled(st, day)
	if err != nil {
		return nil, err
	}
	data, err := s.adjustContext()
	if err != nil {
		return nil, err
	}
	return s.adjust(ctx, p, st, res, exercise, nil, data)
}

// RecordSet stores a set outcome under st.Date, persists any resulting rest
// change and returns the prescription for the next set. A rest change that
// cannot be saved is logged and reported as a warning; the set stays recorded.
func (s *Service) RecordSet(ctx context.Context, st AppState, day, exercise string, success bool, set int) (*Item, error) {
	st = s.Normalize(st)
	p, res, err := s.scheduled(st, day)
	if err != nil {
		return nil, err
	}
	data, err := s.adjustContext()
	if err != nil {
		return nil, err
	}
	item, err := s.adjust(ctx, p, st, res, exercise, &autoreg.Outcome{Success: success, Set: set}, data)
	if err != nil {
		return nil, err
	}
	if patch := item.RestPatch; patch != nil {
		if err := s.store.UpdateRest(patch.Program, patch.Day, patch.Phase, patch.Exercise, patch.To); err != nil {
			s.log.ErrorContext(ctx, "set recorded but rest change not saved",
				"program", patch.Program, "exercise", patch.Exercise, "to", patch.To, "error", err)
			item.RestPatch = nil
			item.Warnings = append(item.Warnings, fmt.Sprintf("Set recorded, but the rest change to %ds could not be saved.", patch.To))
			return item, nil
		}
		item.Prescription = item.Prescription.WithRest(patch.To)
		item.Rest = patch.To
		s.log.InfoContext(ctx, "rest interval updated",
			"program", patch.Program, "exercise", patch.Exercise, "from", patch.From, "to", patch.To)
	}
	return item, nil
}

// scheduled resolves the program and phase for st, with day overriding the
// scheduled day when set.
func (s *Service) scheduled(st AppState, day string) (*program.Program, calendar.Resolution, error) {
	p, err := s.program(st)
	if err != nil {
		return nil, calendar.Resolution{}, err
	}
	res := s.resolver.Resolve(p, st.Date)
	if !res.Active {
		return nil, res, fmt.Errorf("%w: %s", ErrNotActive, st.Date.Format("2006-01-02"))
	}
	if day != "" {
		res.Day = day
		res.RestDay = false
	}
	if res.RestDay {
		return nil, res, fmt.Errorf("%w: %s is a rest day", autoreg.ErrNoPrescription, st.Date.Format("2006-01-02"))
	}
	return p, res, nil
}

type adjustData struct {
	recovery autoreg.RecoveryMetrics
	maxes    map[string]float64
}

func (s *Service) adjustContext() (adjustData, error) {
	rows, err := s.store.Log("")
	if err != nil {
		return adjustData{}, fmt.Errorf("reading workout log: %w", err)
	}
	var other []storage.LogEntry
	for _, r := range rows {
		if r.Type == storage.EntryOther {
			other = append(other, r)
		}
	}
	maxes, err := s.store.OneRepMaxes()
	if err != nil {
		return adjustData{}, fmt.Errorf("reading 1RMs: %w", err)
	}
	return adjustData{recovery: autoreg.RecoveryFromLog(other), maxes: maxes}, nil
}

func (s *Service) adjust(ctx context.Context, p *program.Program, st AppState, res calendar.Resolution, exercise string, outcome *autoreg.Outcome, data adjustData) (*Item, error) {
	out, err := s.engine.Adjust(ctx, autoreg.Request{
		Program:     p,
		Day:         res.Day,
		Phase:       res.Phase,
		Exercise:    exercise,
		Outcome:     outcome,
		Sensitivity: st.Sensitivity,
		Recovery:    data.recovery,
		Date:        st.Date,
	})
	if err != nil {
		return nil, err
	}
	rx := out.Prescription
	load := autoreg.Load(rx, data.maxes[exercise], s.units)
	item := &Item{
		Exercise:     exercise,
		Kind:         rx.Kind().String(),
		Summary:      program.Summary(rx, load),
		Sets:         program.SetCount(rx),
		Rest:         rx.RestSeconds(),
		Score:        out.Score,
		Trend:        out.Trend,
		Warnings:     out.Warnings,
		Prescription: rx,
	}
	if rx.Kind() == program.KindStrength {
		item.Load = load
	}
	if outcome != nil {
		item.RestPatch = out.RestPatch
	}
	return item, nil
}

// WarmUps returns three warm-ups for the day scheduled on st.Date and a quote.
func (s *Service) WarmUps(st AppState) ([]program.WarmUp, string, error) {
	st = s.Normalize(st)
	p, err := s.program(st)
	if err != nil {
		return nil, "", err
	}
	warm, quote := s.warmUps(s.resolver.Resolve(p, st.Date))
	return warm, quote, nil
}

func (s *Service) warmUps(res calendar.Resolution) ([]program.WarmUp, string) {
	day := res.Day
	if res.RestDay {
		day = ""
	}
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return program.SampleWarmUps(s.rng, program.WarmUpCategory(day), 3), program.RandomQuote(s.rng)
}
