package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"PatternSentinel/internal/model"
)

func TestPearson(t *testing.T) {
	tests := []struct {
		name string
		x, y model.Series
		want float64
	}{
		{"perfect positive", model.Series{1, 2, 3, 4}, model.Series{2, 4, 6, 8}, 1},
		{"perfect negative", model.Series{1, 2, 3, 4}, model.Series{8, 6, 4, 2}, -1},
		{"constant", model.Series{1, 2, 3}, model.Series{5, 5, 5}, 0},
		{"empty", model.Series{}, model.Series{}, 0},
		{"mismatch", model.Series{1, 2}, model.Series{1, 2, 3}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Pearson(tt.x, tt.y), 1e-9)
		})
	}
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		x, y model.Series
		want float64
	}{
		{"parallel", model.Series{1, 2, 3}, model.Series{2, 4, 6}, 1},
		{"orthogonal", model.Series{1, 0}, model.Series{0, 1}, 0},
		{"opposite", model.Series{1, -1}, model.Series{-1, 1}, -1},
		{"zero magnitude", model.Series{0, 0}, model.Series{1, 1}, 0},
		{"mismatch", model.Series{1}, model.Series{1, 2}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Cosine(tt.x, tt.y), 1e-9)
		})
	}
}

func TestMetrics_Symmetric(t *testing.T) {
	x := model.Series{1.5, -2, 3.75, 0.5, 9}
	y := model.Series{0.2, 4, -1, 2.5, 3}
	assert.Equal(t, Pearson(x, y), Pearson(y, x))
	assert.Equal(t, Cosine(x, y), Cosine(y, x))
}

func TestShapeSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, ShapeSimilarity(model.Series{0, 0.5, 1}, model.Series{0, 0.5, 1}), "identical shapes")
	// mean distance 0.25
	assert.InDelta(t, 0.75, ShapeSimilarity(model.Series{0, 1}, model.Series{0.5, 1}), 1e-9)
	assert.Equal(t, 0.0, ShapeSimilarity(model.Series{0, 0}, model.Series{1, 1}), "opposite extremes")
	assert.Equal(t, 0.0, ShapeSimilarity(model.Series{0}, model.Series{0, 1}), "length mismatch")
}

func TestTrendSimilarity(t *testing.T) {
	a := model.Series{1, 2, 1, 1}
	assert.Equal(t, 1.0, TrendSimilarity(a, model.Series{5, 9, 3, 3}), "same directions")
	// up/down/flat vs down/up/flat
	assert.InDelta(t, 1.0/3.0, TrendSimilarity(a, model.Series{1, 0, 1, 1}), 1e-9)
	assert.Equal(t, 0.0, TrendSimilarity(model.Series{1, 2}, model.Series{1, 2}), "short input")
}

func TestTrendDirections(t *testing.T) {
	assert.Equal(t, []int{1, 0, -1}, TrendDirections(model.Series{1, 3, 3, 2}))
}
