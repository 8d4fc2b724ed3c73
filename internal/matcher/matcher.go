// Package matcher scans a long series for windows shaped like a query pattern.
package matcher

import (
	"sort"

	"PatternSentinel/internal/calculator"
	"PatternSentinel/internal/model"
)

// MaxResampleLength caps the number of points compared per window.
const MaxResampleLength = 50

// Composite score weights.
const (
	ShapeWeight       = 0.4
	CorrelationWeight = 0.3
	CosineWeight      = 0.2
	TrendWeight       = 0.1
)

// Options configures one scan.
type Options struct {
	WindowSize         int
	Threshold          float64
	MaxMatches         int // <= 0 keeps every match
	ContinuationLength int
}

// Breakdown holds the component scores of one comparison.
type Breakdown struct {
	Shape       float64
	Correlation float64
	Cosine      float64
	Trend       float64
	Total       float64
}

// Score compares a window against the pattern after resampling both to a
// common length and normalizing each to [0,1]. Correlation and cosine are
// taken as absolute values, so a vertically mirrored window scores the same
// on those two components as an identical one. A pattern or window shorter
// than two points has no shape and scores zero.
func Score(pattern, window model.Series) Breakdown {
	if len(pattern) < 2 || len(window) < 2 {
		return Breakdown{}
	}
	length := len(pattern)
	if length > MaxResampleLength {
		length = MaxResampleLength
	}

	normPattern := calculator.NormalizeToRange(calculator.Resample(pattern, length))
	normWindow := calculator.NormalizeToRange(calculator.Resample(window, length))

	zPattern := calculator.ZScore(normPattern)
	zWindow := calculator.ZScore(normWindow)

	var b Breakdown
	b.Shape = calculator.ShapeSimilarity(normPattern, normWindow)
	b.Correlation = abs(calculator.Pearson(zPattern, zWindow))
	b.Cosine = abs(calculator.Cosine(zPattern, zWindow))
	b.Trend = calculator.TrendSimilarity(normPattern, normWindow)
	b.Total = ShapeWeight*b.Shape + CorrelationWeight*b.Correlation +
		CosineWeight*b.Cosine + TrendWeight*b.Trend
	return b
}

// FindMatches slides a window of opts.WindowSize over data one step at a time
// and returns every window whose unrounded score reaches opts.Threshold, best
// first. Similarity holds the score rounded to 4 decimals.
// Overlapping windows are all kept. Equal scores keep scan order.
func FindMatches(pattern, data model.Series, opts Options) []model.Match {
	size := opts.WindowSize
	if len(pattern) == 0 || size <= 0 || len(data) < size {
		return nil
	}
	contLen := opts.ContinuationLength
	if contLen < 0 {
		contLen = 0
	}

	var matches []model.Match
	for i := 0; i+size <= len(data); i++ {
		window := data[i : i+size]
		raw := Score(pattern, window).Total
		if raw < opts.Threshold {
			continue
		}

		contStart := i + size
		contEnd := contStart + contLen
		if contEnd > len(data) {
			contEnd = len(data)
		}
		matches = append(matches, model.Match{
			StartIndex:             i,
			EndIndex:               i + size - 1,
			Similarity:             calculator.Round(raw, 4),
			Data:                   window.Clone(),
			Continuation:           data[contStart:contEnd].Clone(),
			ContinuationStartIndex: contStart,
			ContinuationEndIndex:   contEnd - 1,
		})
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Similarity > matches[b].Similarity
	})
	if opts.MaxMatches > 0 && len(matches) > opts.MaxMatches {
		matches = matches[:opts.MaxMatches]
	}
	return matches
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
