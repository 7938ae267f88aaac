package autoreg

import (
	"fmt"
	"strings"
)

// Sensitivity controls how many recent sets the engine looks at. Smaller
// windows react faster.
type Sensitivity string

const (
	Conservative Sensitivity = "Conservative"
	Moderate     Sensitivity = "Moderate"
	Aggressive   Sensitivity = "Aggressive"
)

// Window returns the number of recent outcomes considered. Unknown values
// behave like Moderate.
func (s Sensitivity) Window() int {
	switch s {
	case Conservative:
		return 5
	case Aggressive:
		return 3
	}
	return 4
}

// ParseSensitivity accepts a sensitivity name in any case. Empty means
// Moderate.
func ParseSensitivity(s string) (Sensitivity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "moderate":
		return Moderate, nil
	case "conservative":
		return Conservative, nil
	case "aggressive":
		return Aggressive, nil
	}
	return "", fmt.Errorf("unknown sensitivity %q (want Conservative, Moderate or Aggressive)", s)
}
