package program

import (
	"math"
	"strings"
)

// Periodize derives Intensity and Peaking prescriptions from each day's Base
// prescriptions and returns the result as a new program. Exercises without a
// Base prescription are left out of the derived phases.
//
// Strength: sets drop by one (floored), reps drop 25%/50%, load rises 10/20
// points (capped 0.95 low, 1.0 high), RPE rises 1/1.5, rest grows 30/60s.
// Timed: duration grows 10/20 min, RPE rises 1/1.5, rest drops 15s (floor 30).
func Periodize(base *Program) *Program {
	out := base.Clone()
	for day, spec := range out.Days {
		phases := out.Prescriptions[day]
		if phases == nil {
			phases = map[Phase]map[string]Prescription{}
			out.Prescriptions[day] = phases
		}
		baseRx := phases[PhaseBase]
		if baseRx == nil {
			baseRx = map[string]Prescription{}
			phases[PhaseBase] = baseRx
		}
		intensity := map[string]Prescription{}
		peaking := map[string]Prescription{}
		for _, ex := range spec.Exercises {
			rx, ok := baseRx[ex]
			if !ok {
				continue
			}
			intensity[ex] = derive(rx, 1)
			peaking[ex] = derive(rx, 2)
		}
		phases[PhaseIntensity] = intensity
		phases[PhasePeaking] = peaking
	}
	return out
}

// derive builds the prescription for step 1 (Intensity) or 2 (Peaking).
func derive(rx Prescription, step int) Prescription {
	rpeDelta := 1.0
	if step == 2 {
		rpeDelta = 1.5
	}
	switch v := rx.(type) {
	case Timed:
		v.Duration = shiftMinutes(v.Duration, 10*step)
		v.RPE = shiftRange(v.RPE, rpeDelta, 1, 10)
		v.Rest = max(30, v.Rest-15)
		return v
	case Strength:
		hiFloor := 3.0
		if step == 2 {
			hiFloor = 2
		}
		if b, err := v.Sets.Parse(); err == nil {
			b.Low = max(2, b.Low-1)
			b.High = max(hiFloor, b.High-1)
			b.Single = b.Low == b.High
			v.Sets = b.Range()
		}
		if b, err := v.Reps.Parse(); err == nil {
			cut := 0.25 * float64(step)
			b.Low = max(1, b.Low-math.RoundToEven(b.Low*cut))
			b.High = max(1, b.High-math.RoundToEven(b.High*cut))
			b.Single = b.Low == b.High
			v.Reps = b.Range()
		}
		if !v.Percent1RM.Bodyweight() {
			bump := 0.1 * float64(step)
			v.Percent1RM = Percent{
				Low:  roundPct(min(0.95, v.Percent1RM.Low+bump)),
				High: roundPct(min(1.0, v.Percent1RM.High+bump)),
			}
		}
		v.RPE = shiftRange(v.RPE, rpeDelta, 1, 10)
		v.Rest += 30 * step
		return v
	}
	return rx
}

// shiftRange moves both bounds of r by delta within [floor, ceil]. Unparseable
// ranges are returned unchanged.
func shiftRange(r Range, delta, floor, ceil float64) Range {
	b, err := r.Parse()
	if err != nil {
		return r
	}
	b = b.Shift(delta, floor)
	b.Low = min(ceil, b.Low)
	b.High = min(ceil, b.High)
	return b.Range()
}

// shiftMinutes adds minutes to a "30-40 min" style duration.
func shiftMinutes(d string, minutes int) string {
	b, err := Range(d).Parse()
	if err != nil {
		return d
	}
	b = b.Shift(float64(minutes), 0)
	if strings.TrimSpace(b.Suffix) == "" {
		b.Suffix = " min"
	}
	return string(b.Range())
}

func roundPct(v float64) float64 {
	return math.Round(v*100) / 100
}
