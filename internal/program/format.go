package program

import (
	"fmt"
	"strings"
)

// Summary renders a prescription on one line:
//
//	3-4x6-10 @ 130-150 lbs, RPE 7-8
//	30-40 min, 3-5 km, 6-7 min/km, RPE 6-7
//
// load is the suggested weight text for strength work and is ignored for
// timed work. Effort-driven drills show the effort in place of the load.
func Summary(rx Prescription, load string) string {
	switch v := rx.(type) {
	case Timed:
		return fmt.Sprintf("%s, %s, %s, RPE %s", v.Duration, v.Distance, v.Pace, v.RPE)
	case Strength:
		if v.Effort != "" && v.Percent1RM.Bodyweight() {
			load = v.Effort + " effort"
		}
		return fmt.Sprintf("%sx%s @ %s, RPE %s", v.Sets, v.Reps, load, v.RPE)
	}
	return ""
}

// SetCount returns the number of sets to present for a strength prescription:
// the upper bound of its sets range. Timed work and unparseable ranges count
// as a single set.
func SetCount(rx Prescription) int {
	s, ok := rx.(Strength)
	if !ok {
		return 1
	}
	b, err := s.Sets.Parse()
	if err != nil || b.High < 1 {
		return 1
	}
	return int(b.High)
}

// SessionNote builds the log note for a finished exercise, e.g.
// "3/4 sets successful 1RM: 315".
func SessionNote(successes, total int, oneRM float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d/%d sets successful", successes, total)
	if oneRM > 0 {
		fmt.Fprintf(&b, " 1RM: %s", formatNumber(oneRM))
	}
	return b.String()
}
