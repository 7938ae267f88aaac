package program

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Kind discriminates the Prescription variants.
type Kind int

const (
	KindStrength Kind = iota
	KindTimed
)

func (k Kind) String() string {
	if k == KindTimed {
		return "timed"
	}
	return "strength"
}

// Prescription is either a Strength or a Timed record.
type Prescription interface {
	Kind() Kind
	RestSeconds() int
	WithRest(seconds int) Prescription
	isPrescription()
}

// Strength prescribes sets x reps at a fraction of 1RM.
type Strength struct {
	Sets       Range
	Reps       Range
	Percent1RM Percent
	RPE        Range
	Rest       int
	Effort     string // free-form intensity for unloaded drills, e.g. "80%"
}

func (Strength) Kind() Kind         { return KindStrength }
func (s Strength) RestSeconds() int { return s.Rest }
func (Strength) isPrescription()    {}

// WithRest returns a copy with the rest interval replaced.
func (s Strength) WithRest(seconds int) Prescription {
	s.Rest = seconds
	return s
}

// Timed prescribes a duration/distance effort.
type Timed struct {
	Duration string
	Distance string
	Pace     string
	RPE      Range
	Rest     int
}

func (Timed) Kind() Kind         { return KindTimed }
func (t Timed) RestSeconds() int { return t.Rest }
func (Timed) isPrescription()    {}

// WithRest returns a copy with the rest interval replaced.
func (t Timed) WithRest(seconds int) Prescription {
	t.Rest = seconds
	return t
}

// RPEOf returns the RPE range of either variant.
func RPEOf(rx Prescription) Range {
	switch v := rx.(type) {
	case Strength:
		return v.RPE
	case Timed:
		return v.RPE
	}
	return ""
}

// WithRPE returns a copy of rx with its RPE range replaced.
func WithRPE(rx Prescription, rpe Range) Prescription {
	switch v := rx.(type) {
	case Strength:
		v.RPE = rpe
		return v
	case Timed:
		v.RPE = rpe
		return v
	}
	return rx
}

// ParseError reports a numeric or range field that could not be parsed.
type ParseError struct {
	Value string
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %s", e.Value, e.Msg)
}

// Range is a textual numeric range such as "3-4", "8-10/leg", "30-45 sec" or "7".
// It is parsed on use so a malformed value only disables what depends on it.
type Range string

// Bounds is the parsed form of a Range.
type Bounds struct {
	Low    float64
	High   float64
	Single bool
	Suffix string
}

var rangeRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*(?:-\s*(\d+(?:\.\d+)?))?(.*)$`)

// Parse splits the range into numeric bounds and a trailing unit suffix.
func (r Range) Parse() (Bounds, error) {
	s := strings.TrimSpace(string(r))
	if s == "" {
		return Bounds{}, &ParseError{Value: string(r), Msg: "empty range"}
	}
	m := rangeRe.FindStringSubmatch(s)
	if m == nil {
		return Bounds{}, &ParseError{Value: string(r), Msg: "not a number or range"}
	}
	low, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Bounds{}, &ParseError{Value: string(r), Msg: err.Error()}
	}
	b := Bounds{Low: low, High: low, Single: true, Suffix: m[3]}
	if m[2] != "" {
		high, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return Bounds{}, &ParseError{Value: string(r), Msg: err.Error()}
		}
		b.High = high
		b.Single = false
	}
	return b, nil
}

// Range formats the bounds back into their textual form.
func (b Bounds) Range() Range {
	if b.Single {
		return Range(formatNumber(b.Low) + b.Suffix)
	}
	return Range(formatNumber(b.Low) + "-" + formatNumber(b.High) + b.Suffix)
}

// Shift moves both bounds by delta, never below floor.
func (b Bounds) Shift(delta, floor float64) Bounds {
	b.Low = max(floor, b.Low+delta)
	b.High = max(floor, b.High+delta)
	return b
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Percent is a (low, high) fraction-of-1RM pair. (0,0) denotes bodyweight.
type Percent struct {
	Low  float64
	High float64
}

// Bodyweight reports whether the pair denotes a non-loaded movement.
func (p Percent) Bodyweight() bool {
	return p.Low == 0 && p.High == 0
}

func (p Percent) String() string {
	return formatNumber(p.Low) + "-" + formatNumber(p.High)
}

// MarshalJSON encodes the pair as a two-element array.
func (p Percent) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.Low, p.High})
}

// UnmarshalJSON accepts a two-element array or a "low-high" string.
func (p *Percent) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err == nil {
		if len(pair) != 2 {
			return fmt.Errorf("percent_1rm: want 2 values, got %d", len(pair))
		}
		p.Low, p.High = pair[0], pair[1]
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("percent_1rm: want [low, high] or \"low-high\"")
	}
	parsed, err := ParsePercent(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePercent parses "0.65-0.75". Both values must lie in [0, 1].
func ParsePercent(s string) (Percent, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 {
		return Percent{}, &ParseError{Value: s, Msg: "want low-high"}
	}
	low, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Percent{}, &ParseError{Value: s, Msg: "low is not a number"}
	}
	high, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Percent{}, &ParseError{Value: s, Msg: "high is not a number"}
	}
	if low < 0 || high > 1 || low > high {
		return Percent{}, &ParseError{Value: s, Msg: "must satisfy 0 <= low <= high <= 1"}
	}
	return Percent{Low: low, High: high}, nil
}
