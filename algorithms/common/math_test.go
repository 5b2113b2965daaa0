package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMedian(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(3.0, Median([]float64{5, 1, 3}))
	assert.Equal(2.5, Median([]float64{4, 1, 3, 2}))
	assert.True(math.IsNaN(Median(nil)))
}

func TestMedianDoesNotReorderInput(t *testing.T) {
	data := []float64{3, 1, 2}
	Median(data)
	assert.Equal(t, []float64{3, 1, 2}, data)
}

func TestDiff(t *testing.T) {
	assert.Equal(t, []float64{0.5, 0.5, 1.0}, Diff([]float64{0, 0.5, 1.0, 2.0}))
	assert.Empty(t, Diff([]float64{1}))
}

func TestFiniteValues(t *testing.T) {
	got := FiniteValues([]float64{440, math.NaN(), math.Inf(1), 0, -3, 220})
	assert.Equal(t, []float64{440, 220}, got)
}

func TestMedianFilterSuppressesSpike(t *testing.T) {
	data := []float64{440, 440, 880, 440, 440, 440}
	assert.Equal(t, []float64{440, 440, 440, 440, 440, 440}, MedianFilter(data, 5))
}

func TestMedianFilterMirrorsEdges(t *testing.T) {
	// window at index 0 is {2, 1, 1, 2, 3}
	got := MedianFilter([]float64{1, 2, 3, 4, 5}, 5)
	assert.Equal(t, []float64{2, 2, 3, 4, 4}, got)
}

func TestMedianFilterShortInput(t *testing.T) {
	got := MedianFilter([]float64{7, 0}, 5)
	assert.Len(t, got, 2)
	// windows: {0,7,7,0,0} and {7,7,0,0,7}
	assert.Equal(t, []float64{0, 7}, got)
}

func TestReflectIndex(t *testing.T) {
	cases := map[int]int{-1: 0, -2: 1, 0: 0, 4: 4, 5: 4, 6: 3}
	for in, want := range cases {
		assert.Equal(t, want, reflectIndex(in, 5), "index %d", in)
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1.0, Clamp(-1, 1, 2))
	assert.Equal(t, 2.0, Clamp(3, 1, 2))
	assert.Equal(t, 1.5, Clamp(1.5, 1, 2))
}
