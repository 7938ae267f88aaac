package autoreg

import (
	"math"
	"strconv"

	"github.com/claude/fittrack/internal/program"
)

// Bodyweight is shown instead of a load for unloaded work or unknown 1RMs.
const Bodyweight = "Bodyweight/Non-weighted"

// LoadRange returns the suggested load bounds rounded to the nearest 5 units.
// ok is false when there is nothing to suggest.
func LoadRange(oneRM float64, pct program.Percent) (lo, hi float64, ok bool) {
	if oneRM <= 0 || pct.Bodyweight() {
		return 0, 0, false
	}
	return roundTo5(oneRM * pct.Low), roundTo5(oneRM * pct.High), true
}

// SuggestLoad formats the load range, e.g. "130-150 lbs".
func SuggestLoad(oneRM float64, pct program.Percent, unit string) string {
	lo, hi, ok := LoadRange(oneRM, pct)
	if !ok {
		return Bodyweight
	}
	if unit == "" {
		unit = "lbs"
	}
	return num(lo) + "-" + num(hi) + " " + unit
}

// Load returns the load text for rx: a suggestion for loaded strength work and
// Bodyweight otherwise.
func Load(rx program.Prescription, oneRM float64, unit string) string {
	s, ok := rx.(program.Strength)
	if !ok {
		return Bodyweight
	}
	return SuggestLoad(oneRM, s.Percent1RM, unit)
}

func roundTo5(v float64) float64 {
	return math.RoundToEven(v/5) * 5
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
