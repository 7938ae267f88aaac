package autoreg

import (
	"regexp"
	"strconv"

	"github.com/claude/fittrack/internal/storage"
)

var (
	weightRe   = regexp.MustCompile(`Weight:\s*(-?\d+(?:\.\d+)?)`)
	caloriesRe = regexp.MustCompile(`Nutrition:\s*(-?\d+(?:\.\d+)?)`)
)

// RecoveryMetrics summarises logged body weight and calorie intake.
type RecoveryMetrics struct {
	LatestWeight   float64 `json:"latest_weight,omitempty"`
	MeanWeight     float64 `json:"mean_weight,omitempty"`
	LatestCalories float64 `json:"latest_calories,omitempty"`
	MeanCalories   float64 `json:"mean_calories,omitempty"`
}

// RecoveryFromLog extracts recovery metrics from "Weight: X, Nutrition: Y"
// notes in the workout log. Rows without a parseable figure are skipped.
func RecoveryFromLog(rows []storage.LogEntry) RecoveryMetrics {
	var weights, calories []float64
	for _, r := range rows {
		if m := weightRe.FindStringSubmatch(r.Note); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > 0 {
				weights = append(weights, v)
			}
		}
		if m := caloriesRe.FindStringSubmatch(r.Note); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > 0 {
				calories = append(calories, v)
			}
		}
	}
	var rm RecoveryMetrics
	if len(weights) > 0 {
		rm.LatestWeight = weights[len(weights)-1]
		rm.MeanWeight = mean(weights)
	}
	if len(calories) > 0 {
		rm.LatestCalories = calories[len(calories)-1]
		rm.MeanCalories = mean(calories)
	}
	return rm
}

// Penalty returns the load modifier: -0.05 when the latest body weight or the
// latest calorie figure is under 95% of its mean, else 0.
func (rm RecoveryMetrics) Penalty() float64 {
	if below(rm.LatestWeight, rm.MeanWeight) || below(rm.LatestCalories, rm.MeanCalories) {
		return -0.05
	}
	return 0
}

func below(latest, avg float64) bool {
	return latest > 0 && avg > 0 && latest < 0.95*avg
}

func mean(vs []float64) float64 {
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}
