package matcher

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PatternSentinel/internal/calculator"
	"PatternSentinel/internal/model"
)

func wave(n int) model.Series {
	data := make(model.Series, n)
	for i := range data {
		data[i] = 100 + 10*math.Sin(float64(i)/7) + 3*math.Cos(float64(i)/3)
	}
	return data
}

func TestFindMatches_ExactRepeats(t *testing.T) {
	pattern := model.Series{0, 1, 0}
	data := model.Series{0, 1, 0, 0, 1, 0, 0, 1, 0}

	got := FindMatches(pattern, data, Options{WindowSize: 3, Threshold: 0.9, MaxMatches: 5, ContinuationLength: 2})
	require.Len(t, got, 3)

	wantStarts := []int{0, 3, 6}
	wantCont := []int{2, 2, 0}
	for i, m := range got {
		assert.Equal(t, wantStarts[i], m.StartIndex, "match %d start", i)
		assert.Equal(t, 1.0, m.Similarity, "match %d similarity", i)
		assert.Len(t, m.Continuation, wantCont[i], "match %d continuation", i)
	}

	tail := got[2]
	assert.Equal(t, 9, tail.ContinuationStartIndex)
	assert.Equal(t, 8, tail.ContinuationEndIndex, "empty continuation at the tail")
	assert.Equal(t, model.Series{0, 1}, got[0].Continuation)
}

func TestFindMatches_ThresholdUsesUnroundedScore(t *testing.T) {
	data := wave(300)
	pattern := data[40:70].Clone()
	window := data[:30]

	raw := Score(pattern, window).Total
	threshold := calculator.Round(raw, 4)
	require.Greater(t, threshold, raw, "rounding must land above the raw score")

	opts := Options{WindowSize: 30, Threshold: threshold}
	assert.Empty(t, FindMatches(pattern, window, opts), "a score just below the threshold is rejected")

	opts.Threshold = raw
	got := FindMatches(pattern, window, opts)
	require.Len(t, got, 1)
	assert.Equal(t, threshold, got[0].Similarity, "stored similarity is rounded")
}

func TestFindMatches_WellFormed(t *testing.T) {
	data := wave(300)
	pattern := data[40:70].Clone()
	opts := Options{WindowSize: 30, Threshold: 0.6, MaxMatches: 0, ContinuationLength: 15}

	got := FindMatches(pattern, data, opts)
	require.NotEmpty(t, got)
	for i, m := range got {
		assert.Equal(t, m.StartIndex+opts.WindowSize-1, m.EndIndex, "match %d size", i)
		assert.GreaterOrEqual(t, m.Similarity, opts.Threshold)
		assert.LessOrEqual(t, m.Similarity, 1.0)
		assert.Len(t, m.Data, opts.WindowSize)
		assert.LessOrEqual(t, len(m.Continuation), opts.ContinuationLength)
		if i > 0 {
			prev := got[i-1]
			assert.GreaterOrEqual(t, prev.Similarity, m.Similarity, "sorted best first at %d", i)
			if prev.Similarity == m.Similarity {
				assert.Less(t, prev.StartIndex, m.StartIndex, "tie at %d keeps scan order", i)
			}
		}
	}
}

func TestFindMatches_MaxMatches(t *testing.T) {
	data := model.Series{0, 1, 0, 0, 1, 0, 0, 1, 0}
	got := FindMatches(model.Series{0, 1, 0}, data, Options{WindowSize: 3, Threshold: 0.9, MaxMatches: 2})
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].StartIndex)
	assert.Equal(t, 3, got[1].StartIndex)
}

func TestFindMatches_Preconditions(t *testing.T) {
	data := model.Series{1, 2, 3, 4}
	tests := []struct {
		name    string
		pattern model.Series
		opts    Options
	}{
		{"empty pattern", nil, Options{WindowSize: 2}},
		{"zero window", model.Series{1, 2}, Options{WindowSize: 0}},
		{"window longer than data", model.Series{1, 2}, Options{WindowSize: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, FindMatches(tt.pattern, data, tt.opts))
		})
	}
}

func TestFindMatches_SinglePointPatternScoresZero(t *testing.T) {
	got := FindMatches(model.Series{5}, wave(200), Options{WindowSize: 20, Threshold: 0})
	for _, m := range got {
		assert.Equal(t, 0.0, m.Similarity)
	}
	assert.Empty(t, FindMatches(model.Series{5}, wave(200), Options{WindowSize: 20, Threshold: 0.1}))
}

func TestFindMatches_Deterministic(t *testing.T) {
	data := make(model.Series, 200)
	for i := range data {
		data[i] = math.Mod(float64(i*37), 23)
	}
	pattern := model.Series{3, 8, 2, 9, 4, 7}
	opts := Options{WindowSize: 12, Threshold: 0.3, MaxMatches: 10, ContinuationLength: 5}

	first := FindMatches(pattern, data, opts)
	for n := 0; n < 3; n++ {
		assert.Equal(t, first, FindMatches(pattern, data, opts), "run %d", n)
	}
}

func TestScore_Identical(t *testing.T) {
	w := model.Series{4, 7, 2, 9, 5, 6}
	assert.InDelta(t, 1, Score(w, w).Total, 1e-9)
}

func TestScore_InvertedPattern(t *testing.T) {
	b := Score(model.Series{0, 1, 0, 1, 0}, model.Series{1, 0, 1, 0, 1})

	assert.InDelta(t, 1, b.Correlation, 1e-9)
	assert.InDelta(t, 1, b.Cosine, 1e-9)
	assert.Zero(t, b.Shape)
	assert.Zero(t, b.Trend)
	assert.InDelta(t, 0.5, b.Total, 1e-9)
}

func TestScore_DifferentLengths(t *testing.T) {
	pattern := model.Series{0, 1, 2, 3, 4}
	window := model.Series{0, 0.5, 1, 1.5, 2, 2.5, 3, 3.5, 4}
	assert.InDelta(t, 1, Score(pattern, window).Total, 1e-9, "linear ramps")
}

func TestScore_TooShort(t *testing.T) {
	assert.Equal(t, Breakdown{}, Score(model.Series{3}, model.Series{1, 2, 3}))
	assert.Equal(t, Breakdown{}, Score(model.Series{1, 2}, model.Series{7}))
	assert.Equal(t, Breakdown{}, Score(nil, model.Series{1, 2}))
}
