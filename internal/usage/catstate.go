package usage

import "math"

// CatState is what the mascot is doing. It is derived from a Snapshot on
// every read and never stored.
type CatState int

const (
	CatIdle CatState = iota
	CatActive
	CatModerate
	CatStrained
	CatExhausted
)

func (c CatState) String() string {
	switch c {
	case CatIdle:
		return "idle"
	case CatActive:
		return "active"
	case CatModerate:
		return "moderate"
	case CatStrained:
		return "strained"
	case CatExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// CatStateOf maps session activity and utilization onto the ladder
// [0,40) active, [40,80) moderate, [80,100) strained, [100,∞) exhausted,
// using the floor of the utilization.
func CatStateOf(sessionActive bool, utilization float64) CatState {
	if !sessionActive {
		return CatIdle
	}
	p := math.Floor(utilization)
	switch {
	case p >= 100:
		return CatExhausted
	case p >= 80:
		return CatStrained
	case p >= 40:
		return CatModerate
	default:
		return CatActive
	}
}
