package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/companionkit/knowrouter/schema"
)

func TestComputeTrend(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   schema.TrendDirection
	}{
		{"too few samples", []float64{0.5, 0.6}, schema.TrendInsufficientData},
		{"empty", nil, schema.TrendInsufficientData},
		{"improving", []float64{0.2, 0.3, 0.7, 0.8}, schema.TrendImproving},
		{"declining", []float64{0.8, 0.7, 0.3, 0.2}, schema.TrendDeclining},
		{"stable", []float64{0.50, 0.51, 0.50, 0.51}, schema.TrendStable},
		{"stable around zero", []float64{0, 0, 0, 0}, schema.TrendStable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := computeTrend(tt.values, 4, 0.05)
			assert.Equal(t, tt.want, got.Direction)
			assert.Equal(t, len(tt.values), got.SampleCount)
		})
	}
}

func TestComputeTrend_Means(t *testing.T) {
	got := computeTrend([]float64{0.2, 0.4, 0.6, 0.8}, 4, 0.05)

	assert.InDelta(t, 0.3, got.FirstMean, 1e-9)
	assert.InDelta(t, 0.7, got.LastMean, 1e-9)
	assert.Equal(t, schema.TrendImproving, got.Direction)
}

func TestParseSample(t *testing.T) {
	v, ok := parseSample("1724371200000000000:0.75")
	assert.True(t, ok)
	assert.Equal(t, 0.75, v)

	_, ok = parseSample("garbage")
	assert.False(t, ok)

	_, ok = parseSample("123:not-a-number")
	assert.False(t, ok)
}
