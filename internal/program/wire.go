package program

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/tidwall/jsonc"
)

// Wire types mirror the library file layout. Pointer fields distinguish a
// missing key from a zero value so decode can report which key is absent.

type wireProgram struct {
	Name          *string                                 `json:"name"`
	DurationWeeks *int                                    `json:"duration_weeks"`
	Description   *string                                 `json:"description"`
	Days          map[string]wireDay                      `json:"days"`
	Prescriptions map[string]map[string]map[string]wireRx `json:"prescriptions"`
}

type wireDay struct {
	Description *string  `json:"description"`
	Exercises   []string `json:"exercises"`
	Schedule    []int    `json:"schedule"`
}

type wireRx struct {
	Sets       *flexString `json:"sets,omitempty"`
	Reps       *flexString `json:"reps,omitempty"`
	Percent1RM *Percent    `json:"percent_1rm,omitempty"`
	Effort     *flexString `json:"effort,omitempty"`
	Duration   *flexString `json:"duration,omitempty"`
	Distance   *flexString `json:"distance,omitempty"`
	Pace       *flexString `json:"pace,omitempty"`
	RPE        *flexString `json:"rpe,omitempty"`
	Rest       *int        `json:"rest,omitempty"`
}

// flexString accepts either a JSON string or number. Hand-written files
// commonly carry "sets": 3 instead of "sets": "3".
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("want string or number, got %s", data)
	}
	*f = flexString(n.String())
	return nil
}

func (f *flexString) value() string {
	if f == nil {
		return ""
	}
	return string(*f)
}

func strPtr(s string) *flexString {
	if s == "" {
		return nil
	}
	f := flexString(s)
	return &f
}

// ParseJSON decodes a single program. Comments and trailing commas are
// accepted. The result is decoded but not validated.
func ParseJSON(data []byte) (*Program, error) {
	var p Program
	if err := json.Unmarshal(jsonc.ToJSON(data), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DecodeLibrary decodes a JSON array of programs.
func DecodeLibrary(data []byte) ([]*Program, error) {
	var programs []*Program
	if err := json.Unmarshal(jsonc.ToJSON(data), &programs); err != nil {
		return nil, fmt.Errorf("decoding program library: %w", err)
	}
	return programs, nil
}

// EncodeLibrary encodes programs as an indented JSON array.
func EncodeLibrary(programs []*Program) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(programs); err != nil {
		return nil, fmt.Errorf("encoding program library: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes the library file shape. Missing required keys are
// reported as *ValidationError.
func (p *Program) UnmarshalJSON(data []byte) error {
	var w wireProgram
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch {
	case w.Name == nil:
		return missingKey("name")
	case w.DurationWeeks == nil:
		return missingKey("duration_weeks")
	case w.Description == nil:
		return missingKey("description")
	case w.Days == nil:
		return missingKey("days")
	case w.Prescriptions == nil:
		return missingKey("prescriptions")
	}

	out := Program{
		Name:          *w.Name,
		DurationWeeks: *w.DurationWeeks,
		Description:   *w.Description,
		Days:          make(map[string]DaySpec, len(w.Days)),
		Prescriptions: make(map[string]map[Phase]map[string]Prescription, len(w.Prescriptions)),
	}
	for name, d := range w.Days {
		if d.Description == nil || d.Exercises == nil || d.Schedule == nil {
			return &ValidationError{Field: "days." + name, Msg: "invalid day structure, want description, exercises and schedule"}
		}
		out.Days[name] = DaySpec{Description: *d.Description, Exercises: d.Exercises, Schedule: d.Schedule}
	}
	for day, phases := range w.Prescriptions {
		byPhase := make(map[Phase]map[string]Prescription, len(phases))
		for phase, exs := range phases {
			m := make(map[string]Prescription, len(exs))
			for ex, rx := range exs {
				decoded, err := rx.decode()
				if err != nil {
					return &ValidationError{Field: fmt.Sprintf("prescriptions.%s.%s.%s", day, phase, ex), Msg: err.Error()}
				}
				m[ex] = decoded
			}
			byPhase[Phase(phase)] = m
		}
		out.Prescriptions[day] = byPhase
	}
	*p = out
	return nil
}

func (w wireRx) decode() (Prescription, error) {
	if w.Rest == nil {
		return nil, fmt.Errorf("missing rest")
	}
	if w.Duration != nil {
		return Timed{
			Duration: w.Duration.value(),
			Distance: w.Distance.value(),
			Pace:     w.Pace.value(),
			RPE:      Range(w.RPE.value()),
			Rest:     *w.Rest,
		}, nil
	}
	if w.Sets == nil {
		return nil, fmt.Errorf("missing sets")
	}
	s := Strength{
		Sets:   Range(w.Sets.value()),
		Reps:   Range(w.Reps.value()),
		RPE:    Range(w.RPE.value()),
		Rest:   *w.Rest,
		Effort: w.Effort.value(),
	}
	if w.Percent1RM != nil {
		s.Percent1RM = *w.Percent1RM
	}
	return s, nil
}

// MarshalJSON encodes p in the library file shape.
func (p Program) MarshalJSON() ([]byte, error) {
	name, desc, weeks := p.Name, p.Description, p.DurationWeeks
	w := wireProgram{
		Name:          &name,
		DurationWeeks: &weeks,
		Description:   &desc,
		Days:          make(map[string]wireDay, len(p.Days)),
		Prescriptions: make(map[string]map[string]map[string]wireRx, len(p.Prescriptions)),
	}
	for n, d := range p.Days {
		dd := d.Description
		exs, sched := d.Exercises, d.Schedule
		if exs == nil {
			exs = []string{}
		}
		if sched == nil {
			sched = []int{}
		}
		w.Days[n] = wireDay{Description: &dd, Exercises: exs, Schedule: sched}
	}
	for day, phases := range p.Prescriptions {
		byPhase := make(map[string]map[string]wireRx, len(phases))
		for phase, exs := range phases {
			m := make(map[string]wireRx, len(exs))
			for ex, rx := range exs {
				m[ex] = encodeRx(rx)
			}
			byPhase[string(phase)] = m
		}
		w.Prescriptions[day] = byPhase
	}
	return json.Marshal(w)
}

func encodeRx(rx Prescription) wireRx {
	rest := rx.RestSeconds()
	switch v := rx.(type) {
	case Timed:
		dur := flexString(v.Duration)
		return wireRx{
			Duration: &dur,
			Distance: strPtr(v.Distance),
			Pace:     strPtr(v.Pace),
			RPE:      strPtr(string(v.RPE)),
			Rest:     &rest,
		}
	case Strength:
		sets := flexString(v.Sets)
		w := wireRx{
			Sets:   &sets,
			Reps:   strPtr(string(v.Reps)),
			RPE:    strPtr(string(v.RPE)),
			Effort: strPtr(v.Effort),
			Rest:   &rest,
		}
		// Effort-driven drills carry no load pair in the file.
		if v.Effort == "" || !v.Percent1RM.Bodyweight() {
			pct := v.Percent1RM
			w.Percent1RM = &pct
		}
		return w
	}
	return wireRx{Rest: &rest}
}

func missingKey(key string) error {
	return &ValidationError{Field: key, Msg: "missing key: " + strconv.Quote(key)}
}
