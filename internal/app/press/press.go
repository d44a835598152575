// Package press holds the press-level state machine.
package press

import "fmt"

// EscalationThreshold is the avoidance score at which the level goes up.
const EscalationThreshold = 0.6

// Bounds is the configured range of press levels. High is the first level
// of the top band, where questions turn firm and a micro-commitment is added.
type Bounds struct {
	Base int
	Max  int
	High int
}

// NewBounds returns bounds for [base, max]. A high of 0 means max-1, and high
// is kept inside the range.
func NewBounds(base, max, high int) (Bounds, error) {
	if base > max {
		return Bounds{}, fmt.Errorf("press bounds: base %d is above max %d", base, max)
	}
	if high == 0 {
		high = max - 1
	}
	if high < base {
		high = base
	}
	if high > max {
		return Bounds{}, fmt.Errorf("press bounds: high %d is above max %d", high, max)
	}
	return Bounds{Base: base, Max: max, High: high}, nil
}

// Clamp forces level into [Base, Max].
func (b Bounds) Clamp(level int) int {
	return clamp(level, b.Base, b.Max)
}

// InHighBand reports whether level is in the top band.
func (b Bounds) InHighBand(level int) bool {
	return level >= b.High
}

// Band names the press band of a level: low, mid or high.
func (b Bounds) Band(level int) string {
	switch {
	case b.InHighBand(level):
		return "high"
	case level <= b.Base:
		return "low"
	default:
		return "mid"
	}
}

// Next is the transition function. Overwhelm always steps down by one; an
// avoidance score at or above EscalationThreshold steps up by one; anything
// else keeps the level. The result is always within [base, max].
func Next(current int, avoidance float64, overwhelmed bool, base, max int) int {
	current = clamp(current, base, max)

	switch {
	case overwhelmed:
		return clamp(current-1, base, max)
	case avoidance >= EscalationThreshold:
		return clamp(current+1, base, max)
	default:
		return current
	}
}

// Next applies the transition function within b.
func (b Bounds) Next(current int, avoidance float64, overwhelmed bool) int {
	return Next(current, avoidance, overwhelmed, b.Base, b.Max)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
