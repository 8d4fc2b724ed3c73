package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PatternSentinel/internal/model"
)

func TestZScore_PopulationStdDev(t *testing.T) {
	got := ZScore(model.Series{2, 4, 4, 4, 5, 5, 7, 9})
	// mean 5, population std 2
	assert.InDeltaSlice(t, []float64{-1.5, -0.5, -0.5, -0.5, 0, 0, 1, 2}, []float64(got), 1e-9)
}

func TestZScore_ConstantSeriesIsZero(t *testing.T) {
	assert.Equal(t, model.Series{0, 0, 0}, ZScore(model.Series{3, 3, 3}))
	assert.Nil(t, ZScore(nil))
}

func TestNormalizeToRange(t *testing.T) {
	tests := []struct {
		name string
		in   model.Series
		want []float64
	}{
		{"ascending", model.Series{10, 15, 20}, []float64{0, 0.5, 1}},
		{"negative", model.Series{-4, 0, -2}, []float64{0, 1, 0.5}},
		{"flat", model.Series{7, 7, 7, 7}, []float64{0.5, 0.5, 0.5, 0.5}},
		{"single", model.Series{42}, []float64{0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeToRange(tt.in)
			require.Len(t, got, len(tt.want))
			assert.InDeltaSlice(t, tt.want, []float64(got), 1e-9)
		})
	}
}

func TestNormalizeToRange_Bounded(t *testing.T) {
	in := model.Series{3.2, -8, 14.5, 0, 0.001, 99, -45}
	for i, v := range NormalizeToRange(in) {
		assert.True(t, v >= 0 && v <= 1, "index %d: %f outside [0,1]", i, v)
	}
}

func TestResample_IdentityIsCopy(t *testing.T) {
	in := model.Series{1.5, 2.25, -3, 8}
	got := Resample(in, len(in))
	require.Equal(t, in, got)

	got[0] = 100
	assert.Equal(t, 1.5, in[0], "resample must not alias its input")
}

func TestResample_Interpolates(t *testing.T) {
	got := Resample(model.Series{0, 10}, 5)
	assert.InDeltaSlice(t, []float64{0, 2.5, 5, 7.5, 10}, []float64(got), 1e-9)

	down := Resample(model.Series{0, 1, 2, 3, 4}, 3)
	assert.InDeltaSlice(t, []float64{0, 2, 4}, []float64(down), 1e-9)
}

func TestResample_EdgeCases(t *testing.T) {
	assert.Nil(t, Resample(nil, 4), "empty input")
	assert.Nil(t, Resample(model.Series{1, 2}, 0), "zero target")

	got := Resample(model.Series{1, 2, 6}, 1)
	require.Len(t, got, 1)
	assert.InDelta(t, 3, got[0], 1e-9, "length one is the mean")
}

func TestRSI_InsufficientData(t *testing.T) {
	rsi, err := RSI(model.Series{1, 2, 3}, 14)
	require.NoError(t, err)
	assert.Equal(t, 50.0, rsi)

	_, err = RSI(model.Series{1}, 0)
	assert.Error(t, err, "non-positive period")
}

func TestRSI_OnlyGains(t *testing.T) {
	closes := make(model.Series, 20)
	for i := range closes {
		closes[i] = float64(100 + i)
	}
	rsi, err := RSI(closes, 14)
	require.NoError(t, err)
	assert.Equal(t, 100.0, rsi, "monotonic rise")
}

func TestRound(t *testing.T) {
	assert.Equal(t, 0.7685, Round(0.76849344, 4))
	assert.Equal(t, -1.2346, Round(-1.23456, 4))
	assert.Equal(t, 3.0, Round(3, 4))
}
