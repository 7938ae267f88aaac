package tracker

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ExerciseStats summarises one exercise.
type ExerciseStats struct {
	Exercise    string       `json:"exercise"`
	Sets        int          `json:"sets"`
	Successes   int          `json:"successes"`
	SuccessRate float64      `json:"success_rate"` // percent, 0-100
	OneRepMax   float64      `json:"one_rep_max,omitempty"`
	Trend       []OneRMPoint `json:"one_rep_max_trend,omitempty"`
}

// OneRMPoint is a 1RM noted in the workout log.
type OneRMPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// Stats returns per-exercise success rates from the performance history and
// 1RM trends from the log notes, sorted by exercise name.
func (s *Service) Stats() ([]ExerciseStats, error) {
	names, err := s.store.PerformanceExercises()
	if err != nil {
		return nil, fmt.Errorf("listing exercises: %w", err)
	}
	maxes, err := s.store.OneRepMaxes()
	if err != nil {
		return nil, fmt.Errorf("reading 1RMs: %w", err)
	}
	rows, err := s.store.Log("")
	if err != nil {
		return nil, fmt.Errorf("reading workout log: %w", err)
	}

	stats := map[string]*ExerciseStats{}
	get := func(name string) *ExerciseStats {
		st, ok := stats[name]
		if !ok {
			st = &ExerciseStats{Exercise: name, OneRepMax: maxes[name]}
			stats[name] = st
		}
		return st
	}
	for _, name := range names {
		history, err := s.store.Performance(name)
		if err != nil {
			return nil, fmt.Errorf("reading history for %s: %w", name, err)
		}
		st := get(name)
		for _, e := range history {
			st.Sets++
			if e.Success {
				st.Successes++
			}
		}
		if st.Sets > 0 {
			st.SuccessRate = float64(st.Successes) / float64(st.Sets) * 100
		}
	}
	for _, r := range rows {
		_, after, ok := strings.Cut(r.Notes, "1RM: ")
		if !ok || r.Note == "" {
			continue
		}
		fields := strings.Fields(after)
		if len(fields) == 0 {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimRight(fields[0], ","), 64)
		if err != nil {
			continue
		}
		st := get(r.Note)
		st.Trend = append(st.Trend, OneRMPoint{Date: r.Date, Value: v})
	}
	for name, v := range maxes {
		if v > 0 {
			get(name)
		}
	}

	out := make([]ExerciseStats, 0, len(stats))
	for _, st := range stats {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Exercise < out[j].Exercise })
	return out, nil
}
