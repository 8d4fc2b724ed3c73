package similarity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"PatternSentinel/internal/model"
)

func TestIsSimilar_Thresholds(t *testing.T) {
	tests := []struct {
		corr, cos float64
		want      bool
	}{
		{0.92, 0, true},
		{0.9199, 0.9499, false},
		{0, 0.95, true},
		{-1, -1, false},
		{0.99, 0.99, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsSimilar(tt.corr, tt.cos), "IsSimilar(%.4f, %.4f)", tt.corr, tt.cos)
	}
}

func TestCompare_LinearlyRelated(t *testing.T) {
	res := Compare(model.Series{1, 2, 3, 4, 5}, model.Series{10, 20, 30, 40, 50})
	assert.Equal(t, 1.0, res.Correlation)
	assert.Equal(t, 1.0, res.Cosine)
	assert.True(t, res.IsSimilar)
}

func TestCompare_SelfSimilarity(t *testing.T) {
	w := model.Series{101.2, 99.8, 103.4, 102.9, 98.1, 100.5, 104.2}
	res := Compare(w, w)
	assert.InDelta(t, 1, res.Correlation, 1e-9)
	assert.True(t, res.IsSimilar, "a window must be similar to itself")
}

func TestCompare_InvalidInput(t *testing.T) {
	assert.Equal(t, Result{}, Compare(model.Series{1, 2}, model.Series{1, 2, 3}), "length mismatch")
	assert.Equal(t, Result{}, Compare(nil, nil), "empty")
}

func TestCompare_ConstantWindowIsNotSimilar(t *testing.T) {
	res := Compare(model.Series{5, 5, 5, 5}, model.Series{1, 2, 3, 4})
	assert.Equal(t, Result{}, res)
	assert.False(t, math.IsNaN(res.Correlation) || math.IsNaN(res.Cosine), "scores must never be NaN")
}

func TestCompare_RoundsToFourDecimals(t *testing.T) {
	res := Compare(model.Series{1, 3, 2, 5, 4}, model.Series{2, 2.5, 3.7, 4.1, 6})
	scaled := res.Correlation * 10000
	assert.InDelta(t, math.Round(scaled), scaled, 1e-6)
}

func TestCompare_Deterministic(t *testing.T) {
	a := model.Series{3, 1, 4, 1, 5, 9, 2, 6}
	b := model.Series{2, 7, 1, 8, 2, 8, 1, 8}
	first := Compare(a, b)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Compare(a, b), "run %d", i)
	}
}

func TestPriorWindow(t *testing.T) {
	s := model.Series{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	assert.Equal(t, model.Series{3, 4, 5}, PriorWindow(s, 3, 4))
	assert.Equal(t, model.Series{8, 9}, CurrentWindow(s, 2))
	assert.Len(t, PriorWindow(s, 5, 8), 2, "clipped near the start")
}
