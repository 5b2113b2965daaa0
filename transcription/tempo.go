package transcription

import (
	"github.com/RyanBlaney/sonido-score/algorithms/common"
)

// Tempo bounds in BPM
const (
	DefaultTempo     = 120.0
	MinTempo         = 40.0
	MaxTempo         = 300.0
	MinTempoOverride = 30.0
)

// SelectTempo picks the tempo used to convert seconds into quarter lengths.
//
// With two or more beat timestamps the estimate is replaced by 60 divided by the
// median inter-beat interval. A non-finite result or one outside [MinTempo, MaxTempo]
// falls back to DefaultTempo. An override within [MinTempoOverride, MaxTempo]
// wins over everything; pass 0 for no override.
func SelectTempo(estimate float64, beats []float64, override float64) float64 {
	tempo := estimate
	if len(beats) >= 2 {
		tempo = 60.0 / common.Median(common.Diff(beats))
	}
	if !common.IsFinite(tempo) || tempo < MinTempo || tempo > MaxTempo {
		tempo = DefaultTempo
	}

	if override >= MinTempoOverride && override <= MaxTempo {
		return override
	}
	return tempo
}

// quarterSeconds returns the length of one quarter note at tempo
func quarterSeconds(tempo float64) float64 {
	return 60.0 / tempo
}
