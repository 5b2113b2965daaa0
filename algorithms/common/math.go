package common

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Small numeric helpers shared by the rhythm, tonal and melody code, using gonum where it fits

// IsFinite reports whether v is neither NaN nor infinite
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Median returns the median of data, averaging the two middle values for even lengths.
// NaN is returned for empty input.
func Median(data []float64) float64 {
	if len(data) == 0 {
		return math.NaN()
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return stat.Mean(sorted[mid-1:mid+1], nil)
	}
	return sorted[mid]
}

// Diff returns the first differences data[i+1]-data[i]
func Diff(data []float64) []float64 {
	if len(data) < 2 {
		return []float64{}
	}

	diffs := make([]float64, len(data)-1)
	floats.SubTo(diffs, data[1:], data[:len(data)-1])
	return diffs
}

// FiniteValues returns the finite, strictly positive entries of data in order
func FiniteValues(data []float64) []float64 {
	valid := make([]float64, 0, len(data))
	for _, v := range data {
		if IsFinite(v) && v > 0 {
			valid = append(valid, v)
		}
	}
	return valid
}

// MedianFilter applies a centered median filter of the given (odd) window size.
// Samples outside the signal are mirrored about the edge, so the first sample is
// repeated before index 0 and the last after the end.
func MedianFilter(data []float64, windowSize int) []float64 {
	if len(data) == 0 || windowSize <= 1 {
		out := make([]float64, len(data))
		copy(out, data)
		return out
	}

	n := len(data)
	half := windowSize / 2
	result := make([]float64, n)
	window := make([]float64, windowSize)

	for i := range data {
		for k := -half; k <= half; k++ {
			window[k+half] = data[reflectIndex(i+k, n)]
		}
		sorted := append([]float64(nil), window...)
		sort.Float64s(sorted)
		result[i] = sorted[windowSize/2]
	}

	return result
}

// reflectIndex maps an out-of-range index back into [0, n) using half-sample symmetry
func reflectIndex(idx, n int) int {
	period := 2 * n
	idx %= period
	if idx < 0 {
		idx += period
	}
	if idx >= n {
		idx = period - 1 - idx
	}
	return idx
}

// Clamp constrains a value to a range
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
