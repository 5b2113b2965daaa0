package transcription

import (
	"fmt"
	"math"
)

// PitchSource supplies raw pitch estimates (Hz) for a cut. It stands in for the
// external pitch estimator; entries that are NaN, infinite or non-positive are
// treated as unpitched.
type PitchSource interface {
	Estimates(index int, cut Cut) []float64
}

// FrameTrack is a frame-level f0 track covering the whole recording.
// In JSON an unvoiced frame is written as 0 or null.
type FrameTrack struct {
	Times       []float64 `json:"times" yaml:"times"`
	Frequencies []float64 `json:"frequencies" yaml:"frequencies"`
}

// Validate checks that times and frequencies line up
func (ft FrameTrack) Validate() error {
	if len(ft.Times) != len(ft.Frequencies) {
		return fmt.Errorf("pitch track has %d times but %d frequencies", len(ft.Times), len(ft.Frequencies))
	}
	return nil
}

// Estimates returns the frequencies of every frame whose timestamp falls in [cut.Start, cut.End)
func (ft FrameTrack) Estimates(_ int, cut Cut) []float64 {
	var out []float64
	n := min(len(ft.Times), len(ft.Frequencies))
	for i := 0; i < n; i++ {
		if ft.Times[i] >= cut.Start && ft.Times[i] < cut.End {
			out = append(out, ft.Frequencies[i])
		}
	}
	return out
}

// Representative holds one precomputed frequency per cut, by index
type Representative []float64

// Estimates returns the cut's representative frequency, or NaN when none was supplied
func (r Representative) Estimates(index int, _ Cut) []float64 {
	if index < 0 || index >= len(r) {
		return []float64{math.NaN()}
	}
	return []float64{r[index]}
}
