package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	tests := []struct {
		name     string
		data     []float64
		expected float64
	}{
		{name: "empty", data: []float64{}, expected: 0},
		{name: "single value", data: []float64{42}, expected: 42},
		{name: "mixed signs", data: []float64{100, -50, 200, -20}, expected: 57.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Mean(tt.data), 1e-9)
		})
	}
}

func TestStdDev(t *testing.T) {
	// Fewer than two values cannot have a sample deviation
	assert.Equal(t, 0.0, StdDev(nil))
	assert.Equal(t, 0.0, StdDev([]float64{5}))

	// Sample stddev of {2, 4, 4, 4, 5, 5, 7, 9} is ~2.138
	data := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.InDelta(t, 2.138, StdDev(data), 0.001)
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name     string
		data     []float64
		expected float64
	}{
		{name: "empty", data: nil, expected: 0},
		{name: "single value", data: []float64{7}, expected: 7},
		{name: "odd count", data: []float64{3, 1, 2}, expected: 2},
		{name: "even count averages middle pair", data: []float64{100, -50, 200, -20}, expected: 40},
		{name: "unsorted input", data: []float64{9, 1, 5, 3}, expected: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Median(tt.data), 1e-9)
		})
	}
}

func TestMedianDoesNotMutateInput(t *testing.T) {
	data := []float64{3, 1, 2}
	Median(data)
	assert.Equal(t, []float64{3, 1, 2}, data)
}

func TestPercentile(t *testing.T) {
	data := []float64{10, 20, 30, 40, 50}

	assert.InDelta(t, 10, Percentile(data, 0), 1e-9)
	assert.InDelta(t, 50, Percentile(data, 1), 1e-9)
	assert.InDelta(t, 30, Percentile(data, 0.5), 1e-9)
	assert.InDelta(t, 20, Percentile(data, 0.25), 1e-9)

	// Interpolated position between ranks
	assert.InDelta(t, 14, Percentile(data, 0.1), 1e-9)

	// Out-of-range p values are clamped
	assert.InDelta(t, 10, Percentile(data, -0.5), 1e-9)
	assert.InDelta(t, 50, Percentile(data, 2), 1e-9)
}
