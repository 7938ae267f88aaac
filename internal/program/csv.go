package program

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Required CSV columns. Per-phase columns are prefixed with the phase name,
// e.g. Base_sets, Intensity_rest, Peaking_duration.
var csvColumns = []string{"day", "day_description", "exercise", "schedule", "duration_weeks", "description"}

// ParseCSV decodes a tabular program, one row per (day, exercise). Day-level
// columns are read from the first row of each day. A row is timed in a phase
// when its {Phase}_duration cell is non-empty. The result is decoded but not
// validated.
func ParseCSV(name string, r io.Reader) (*Program, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ValidationError{Msg: "empty CSV"}
		}
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, c := range csvColumns {
		if _, ok := col[c]; !ok {
			return nil, missingKey(c)
		}
	}
	for _, phase := range Phases {
		if _, ok := col[string(phase)+"_rest"]; !ok {
			return nil, missingKey(string(phase) + "_rest")
		}
	}

	p := &Program{
		Name:          name,
		Days:          map[string]DaySpec{},
		Prescriptions: map[string]map[Phase]map[string]Prescription{},
	}
	line := 1
	first := true
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV line %d: %w", line+1, err)
		}
		line++
		cell := func(key string) string {
			i, ok := col[key]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		day := cell("day")
		exercise := cell("exercise")
		if day == "" && exercise == "" {
			continue
		}
		if day == "" || exercise == "" {
			return nil, &ValidationError{Field: fmt.Sprintf("line %d", line), Msg: "day and exercise are required"}
		}

		if first {
			first = false
			weeks, err := strconv.Atoi(cell("duration_weeks"))
			if err != nil {
				return nil, &ValidationError{Field: "duration_weeks", Msg: fmt.Sprintf("line %d: not an integer", line)}
			}
			p.DurationWeeks = weeks
			p.Description = cell("description")
		}

		spec, seen := p.Days[day]
		if !seen {
			schedule, err := parseSchedule(cell("schedule"))
			if err != nil {
				return nil, &ValidationError{Field: "days." + day + ".schedule", Msg: err.Error()}
			}
			spec = DaySpec{Description: cell("day_description"), Schedule: schedule, Exercises: []string{}}
			p.Prescriptions[day] = map[Phase]map[string]Prescription{}
			for _, phase := range Phases {
				p.Prescriptions[day][phase] = map[string]Prescription{}
			}
		}
		spec.Exercises = append(spec.Exercises, exercise)
		p.Days[day] = spec

		for _, phase := range Phases {
			rx, err := csvPrescription(string(phase), cell)
			if err != nil {
				return nil, &ValidationError{Field: fmt.Sprintf("line %d %s", line, phase), Msg: err.Error()}
			}
			p.Prescriptions[day][phase][exercise] = rx
		}
	}
	if first {
		return nil, &ValidationError{Msg: "CSV has no program rows"}
	}
	return p, nil
}

func csvPrescription(phase string, cell func(string) string) (Prescription, error) {
	rest, err := strconv.Atoi(cell(phase + "_rest"))
	if err != nil {
		return nil, fmt.Errorf("%s_rest: not an integer", phase)
	}
	if d := cell(phase + "_duration"); d != "" {
		return Timed{
			Duration: d,
			Distance: cell(phase + "_distance"),
			Pace:     cell(phase + "_pace"),
			RPE:      Range(cell(phase + "_rpe")),
			Rest:     rest,
		}, nil
	}
	s := Strength{
		Sets:   Range(cell(phase + "_sets")),
		Reps:   Range(cell(phase + "_reps")),
		RPE:    Range(cell(phase + "_rpe")),
		Effort: cell(phase + "_effort"),
		Rest:   rest,
	}
	if raw := cell(phase + "_percent_1rm"); raw != "" {
		pct, err := ParsePercent(raw)
		if err != nil {
			return nil, fmt.Errorf("%s_percent_1rm: %w", phase, err)
		}
		s.Percent1RM = pct
	}
	return s, nil
}

func parseSchedule(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return []int{}, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("weekday %q is not an integer", part)
		}
		out = append(out, n)
	}
	return out, nil
}
