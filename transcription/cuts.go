package transcription

import (
	"fmt"
	"sort"

	"github.com/RyanBlaney/sonido-score/algorithms/common"
)

// cutEndTolerance admits onsets reported a hair past the end of the recording
const cutEndTolerance = 1e-6

// Cut is one inter-onset span of the recording, in seconds
type Cut struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns the cut length in seconds
func (c Cut) Duration() float64 {
	return c.End - c.Start
}

// Samples returns how many samples the cut spans at sampleRate
func (c Cut) Samples(sampleRate int) int {
	sr := float64(sampleRate)
	return int(c.End*sr) - int(c.Start*sr)
}

// BuildCuts turns onset times into contiguous cuts covering [0, total].
// Boundaries are deduplicated and sorted; onsets outside the recording are dropped.
func BuildCuts(onsets []float64, total float64) ([]Cut, error) {
	if !common.IsFinite(total) || total < 0 {
		return nil, fmt.Errorf("invalid recording duration %v", total)
	}

	seen := make(map[float64]bool, len(onsets)+2)
	bounds := make([]float64, 0, len(onsets)+2)
	add := func(t float64) {
		if !common.IsFinite(t) || t < 0 || t > total+cutEndTolerance || seen[t] {
			return
		}
		seen[t] = true
		bounds = append(bounds, t)
	}

	add(0)
	for _, t := range onsets {
		add(t)
	}
	add(total)
	sort.Float64s(bounds)

	cuts := make([]Cut, 0, len(bounds))
	for i := 0; i+1 < len(bounds); i++ {
		cuts = append(cuts, Cut{Start: bounds[i], End: bounds[i+1]})
	}
	return cuts, nil
}
