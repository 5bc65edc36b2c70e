package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeFee_RoundsHalfUp(t *testing.T) {
	tests := []struct {
		name  string
		gross int64
		rate  float64
		want  int64
	}{
		{"default rate on 299.00", 29900, 0.085, 2542},
		{"ten percent", 10000, 0.10, 1000},
		{"exact half rounds up", 3, 0.5, 2},
		{"one cent at half", 1, 0.5, 1},
		{"just below half rounds down", 1, 0.49, 0},
		{"zero gross", 0, 0.085, 0},
		{"zero rate", 29900, 0, 0},
		{"large amount", 1_000_000_000, 0.085, 85_000_000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee, err := ComputeFee(tt.gross, tt.rate)
			require.NoError(t, err)
			assert.Equal(t, tt.want, fee)
		})
	}
}

func TestComputeFee_DefaultRateExample(t *testing.T) {
	fee, err := ComputeFee(29900, DefaultCommissionRate)
	require.NoError(t, err)
	assert.Equal(t, int64(2542), fee)
	assert.Equal(t, int64(27358), NetAmount(29900, fee))
}

func TestComputeFee_BoundsAndSplit(t *testing.T) {
	grosses := []int64{0, 1, 2, 7, 99, 100, 101, 12345, 29900, 99999, 1 << 40}
	rates := []float64{0, 0.001, 0.05, 0.085, 0.1, 0.333, 0.5, 0.75, 0.999, 0.9999999}

	for _, g := range grosses {
		for _, r := range rates {
			fee, err := ComputeFee(g, r)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, fee, int64(0), "gross=%d rate=%v", g, r)
			assert.LessOrEqual(t, fee, g, "gross=%d rate=%v", g, r)
			assert.Equal(t, g, fee+NetAmount(g, fee), "gross=%d rate=%v", g, r)
		}
	}
}

func TestComputeFee_Deterministic(t *testing.T) {
	for i := 0; i < 50; i++ {
		a, err := ComputeFee(29900, 0.085)
		require.NoError(t, err)
		b, err := ComputeFee(29900, 0.085)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	}
}

func TestComputeFee_RejectsInvalidInput(t *testing.T) {
	_, err := ComputeFee(-1, 0.085)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	for _, rate := range []float64{-0.01, 1.0, 1.5, math.NaN()} {
		_, err := ComputeFee(1000, rate)
		assert.ErrorIs(t, err, ErrInvalidRate, "rate=%v", rate)
	}
}
