package rhythm

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Duration is one of the note values a transcription may use.
// The set is closed: whole, half, dotted quarter and quarter.
type Duration int

const (
	Whole Duration = iota
	Half
	DottedQuarter
	Quarter
)

// AllowedDurations lists every Duration, longest first
var AllowedDurations = [...]Duration{Whole, Half, DottedQuarter, Quarter}

// boundaryEpsilon absorbs float error when a raw length sits exactly on an allowed value
const boundaryEpsilon = 1e-9

// QuarterLength returns the duration in quarter-note units
func (d Duration) QuarterLength() float64 {
	switch d {
	case Whole:
		return 4.0
	case Half:
		return 2.0
	case DottedQuarter:
		return 1.5
	case Quarter:
		return 1.0
	default:
		return 0.0
	}
}

func (d Duration) String() string {
	switch d {
	case Whole:
		return "whole"
	case Half:
		return "half"
	case DottedQuarter:
		return "dotted-quarter"
	case Quarter:
		return "quarter"
	default:
		return "unknown"
	}
}

// Strategy selects how a raw length is snapped onto AllowedDurations
type Strategy string

const (
	StrategyNearest Strategy = "nearest"
	StrategyFloor   Strategy = "floor"
	StrategyCeil    Strategy = "ceil"
)

// ParseStrategy never fails: anything unrecognized falls back to nearest
func ParseStrategy(s string) Strategy {
	switch Strategy(s) {
	case StrategyFloor:
		return StrategyFloor
	case StrategyCeil:
		return StrategyCeil
	default:
		return StrategyNearest
	}
}

// allowedLengths mirrors AllowedDurations as quarter lengths, same order
func allowedLengths() []float64 {
	lengths := make([]float64, len(AllowedDurations))
	for i, d := range AllowedDurations {
		lengths[i] = d.QuarterLength()
	}
	return lengths
}

// Quantize snaps rawLength (quarter-length units) onto the allowed set.
//
// nearest picks the value with the smallest absolute distance; on a tie the
// longer value wins. floor picks the largest value not above rawLength and
// falls back to the shortest; ceil picks the smallest value not below rawLength
// and falls back to the longest. Unknown strategies behave as nearest.
func Quantize(rawLength float64, strategy Strategy) Duration {
	lengths := allowedLengths()

	switch strategy {
	case StrategyFloor:
		best, found := Quarter, false
		for i, v := range lengths {
			if v <= rawLength+boundaryEpsilon && (!found || v > best.QuarterLength()) {
				best, found = AllowedDurations[i], true
			}
		}
		if !found {
			return shortest(lengths)
		}
		return best

	case StrategyCeil:
		best, found := Whole, false
		for i, v := range lengths {
			if v >= rawLength-boundaryEpsilon && (!found || v < best.QuarterLength()) {
				best, found = AllowedDurations[i], true
			}
		}
		if !found {
			return longest(lengths)
		}
		return best

	default:
		distances := make([]float64, len(lengths))
		for i, v := range lengths {
			distances[i] = math.Abs(v - rawLength)
		}
		return AllowedDurations[floats.MinIdx(distances)]
	}
}

func shortest(lengths []float64) Duration {
	return AllowedDurations[floats.MinIdx(lengths)]
}

func longest(lengths []float64) Duration {
	return AllowedDurations[floats.MaxIdx(lengths)]
}
