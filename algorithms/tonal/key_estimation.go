package tonal

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// KeyProfile selects the key-profile weights used for correlation
type KeyProfile int

const (
	KeyProfileKrumhansl KeyProfile = iota
	KeyProfileTemperley
)

// KeyMode represents major or minor mode
type KeyMode int

const (
	KeyModeMajor KeyMode = iota
	KeyModeMinor
)

func (m KeyMode) String() string {
	if m == KeyModeMinor {
		return "minor"
	}
	return "major"
}

// KeyProfileTemplate holds the pitch-class weights of a major and a minor key on C
type KeyProfileTemplate struct {
	MajorProfile [12]float64 `json:"major_profile"`
	MinorProfile [12]float64 `json:"minor_profile"`
	Name         string      `json:"name"`
}

var keyProfiles = map[KeyProfile]KeyProfileTemplate{
	// Krumhansl-Schmuckler profiles (empirically derived)
	KeyProfileKrumhansl: {
		MajorProfile: [12]float64{6.35, 2.23, 3.48, 2.33, 4.38, 4.09, 2.52, 5.19, 2.39, 3.66, 2.29, 2.88},
		MinorProfile: [12]float64{6.33, 2.68, 3.52, 5.38, 2.60, 3.53, 2.54, 4.75, 3.98, 2.69, 3.34, 3.17},
		Name:         "Krumhansl-Schmuckler",
	},
	// Temperley profiles (corpus-based)
	KeyProfileTemperley: {
		MajorProfile: [12]float64{5.0, 2.0, 3.5, 2.0, 4.5, 4.0, 2.0, 4.5, 2.0, 3.5, 1.5, 4.0},
		MinorProfile: [12]float64{5.0, 2.0, 3.5, 4.5, 2.0, 4.0, 2.0, 4.5, 3.5, 2.0, 1.5, 4.0},
		Name:         "Temperley",
	},
}

// KeyCandidate is one of the 24 keys with its profile correlation
type KeyCandidate struct {
	Tonic       int     `json:"tonic"` // 0=C, 1=C#, ..., 11=B
	Mode        KeyMode `json:"mode"`
	KeyName     string  `json:"key_name"`
	Correlation float64 `json:"correlation"`
}

// KeyEstimationResult is the best key plus every candidate's score
type KeyEstimationResult struct {
	KeyCandidate
	Candidates []KeyCandidate `json:"candidates"` // 12 major then 12 minor, by tonic
	Profile    string         `json:"profile"`
}

// PitchClassHistogram accumulates weight (usually note duration) per pitch class
type PitchClassHistogram [12]float64

// Add records weight for a MIDI note
func (h *PitchClassHistogram) Add(midi int, weight float64) {
	h[pitchClass(midi)] += weight
}

// KeyEstimator finds the key whose profile best correlates with a pitch-class histogram
type KeyEstimator struct {
	profile KeyProfileTemplate
}

// NewKeyEstimator creates an estimator using the given profile; unknown profiles use Krumhansl
func NewKeyEstimator(profile KeyProfile) *KeyEstimator {
	t, ok := keyProfiles[profile]
	if !ok {
		t = keyProfiles[KeyProfileKrumhansl]
	}
	return &KeyEstimator{profile: t}
}

// EstimateKey correlates the histogram with all 24 rotated profiles. It fails
// when the histogram is flat, since every key then correlates equally badly.
// Ties go to the first candidate, majors before minors and lower tonics first.
func (ke *KeyEstimator) EstimateKey(h PitchClassHistogram) (KeyEstimationResult, error) {
	values := h[:]
	if floats.Max(values) == floats.Min(values) {
		return KeyEstimationResult{}, fmt.Errorf("pitch-class histogram is flat")
	}

	candidates := make([]KeyCandidate, 0, 24)
	for _, mode := range []KeyMode{KeyModeMajor, KeyModeMinor} {
		weights := ke.profile.MajorProfile
		if mode == KeyModeMinor {
			weights = ke.profile.MinorProfile
		}
		for tonic := 0; tonic < 12; tonic++ {
			candidates = append(candidates, KeyCandidate{
				Tonic:       tonic,
				Mode:        mode,
				KeyName:     GetKeyName(tonic, mode),
				Correlation: correlateWithProfile(values, weights, tonic),
			})
		}
	}

	best := 0
	for i, c := range candidates {
		if c.Correlation > candidates[best].Correlation {
			best = i
		}
	}

	return KeyEstimationResult{
		KeyCandidate: candidates[best],
		Candidates:   candidates,
		Profile:      ke.profile.Name,
	}, nil
}

// correlateWithProfile rotates the C profile onto tonic and returns the Pearson correlation
func correlateWithProfile(histogram []float64, profile [12]float64, tonic int) float64 {
	rotated := make([]float64, 12)
	for pc := range rotated {
		rotated[pc] = profile[pitchClass(pc-tonic)]
	}

	r := stat.Correlation(histogram, rotated, nil)
	if math.IsNaN(r) {
		return -1
	}
	return r
}

// GetKeyName returns human-readable key name
func GetKeyName(tonic int, mode KeyMode) string {
	return PitchClassNames[pitchClass(tonic)] + " " + mode.String()
}
