package tonal

import "math"

// DefaultRegisterFloor is the lowest frequency (Hz) accepted without correction.
// A violin's open G sits just below it, so anything lower is most likely a sub-harmonic.
const DefaultRegisterFloor = 200.0

// maxHarmonicMultiple bounds how far up an estimate may be lifted
const maxHarmonicMultiple = 4

// CorrectRegister undoes sub-harmonic octave errors in a pitch estimate.
//
// Pitch trackers sometimes lock onto an integer sub-harmonic of the true pitch
// (a D4 at ~293 Hz reported as ~146 Hz). The estimate is multiplied by 1, 2, 3
// and 4 in turn and the first candidate at or above floor is returned. If none
// reaches floor, or the input is not a positive finite number, f is returned unchanged.
func CorrectRegister(f, floor float64) float64 {
	if math.IsNaN(f) || f <= 0 {
		return f
	}

	for multiple := 1; multiple <= maxHarmonicMultiple; multiple++ {
		if candidate := f * float64(multiple); candidate >= floor {
			return candidate
		}
	}

	return f
}
