package melody

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-score/algorithms/common"
)

// Frame is one sample of a pitch tracker's output
type Frame struct {
	Time        float64 `json:"time"`
	Frequency   float64 `json:"frequency"` // Hz; NaN or <= 0 when no estimate
	Voiced      bool    `json:"voiced"`
	Probability float64 `json:"probability"` // voicing confidence in [0, 1]
}

// FrameArrays is the columnar form pitch trackers usually return.
// In JSON a missing frequency may be written as null or 0.
type FrameArrays struct {
	Times      []float64 `json:"times" yaml:"times"`
	F0         []float64 `json:"f0" yaml:"f0"`
	VoicedFlag []bool    `json:"voiced_flag" yaml:"voiced_flag"`
	VoicedProb []float64 `json:"voiced_prob" yaml:"voiced_prob"`
}

// Frames zips the columns into frames
func (fa FrameArrays) Frames() ([]Frame, error) {
	n := len(fa.Times)
	if len(fa.F0) != n || len(fa.VoicedFlag) != n || len(fa.VoicedProb) != n {
		return nil, fmt.Errorf("frame arrays differ in length: times=%d f0=%d voiced_flag=%d voiced_prob=%d",
			n, len(fa.F0), len(fa.VoicedFlag), len(fa.VoicedProb))
	}

	frames := make([]Frame, n)
	for i := range frames {
		frames[i] = Frame{
			Time:        fa.Times[i],
			Frequency:   fa.F0[i],
			Voiced:      fa.VoicedFlag[i],
			Probability: fa.VoicedProb[i],
		}
	}
	return frames, nil
}

// confident reports whether the frame carries a usable pitch
func (f Frame) confident(threshold float64) bool {
	return f.Voiced && f.Probability >= threshold && common.IsFinite(f.Frequency) && f.Frequency > 0
}

// maskAndSmooth keeps only confident frames and median-filters their frequencies.
// Masked frames count as zero inside the filter window and come out as NaN again,
// so the filter never fills a gap.
func maskAndSmooth(frames []Frame, threshold float64, window int) []float64 {
	masked := make([]float64, len(frames))
	valid := make([]bool, len(frames))
	anyValid := false
	for i, f := range frames {
		if f.confident(threshold) {
			masked[i] = f.Frequency
			valid[i] = true
			anyValid = true
		}
	}

	smoothed := masked
	if anyValid {
		smoothed = common.MedianFilter(masked, window)
	}

	for i := range smoothed {
		if !valid[i] {
			smoothed[i] = math.NaN()
		}
	}
	return smoothed
}
