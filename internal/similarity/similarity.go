// Package similarity decides whether two equal-length price windows move alike.
package similarity

import (
	"PatternSentinel/internal/calculator"
	"PatternSentinel/internal/model"
)

// Fixed decision thresholds. Callers needing a different sensitivity should
// pre-scale their inputs or use their own predicate.
const (
	CorrelationThreshold = 0.92
	CosineThreshold      = 0.95
)

// Result is the outcome of comparing two windows. Scores are rounded to 4 decimals.
type Result struct {
	Correlation float64 `json:"corr"`
	Cosine      float64 `json:"cos"`
	IsSimilar   bool    `json:"ok"`
}

// IsSimilar applies the OR rule on correlation and cosine.
func IsSimilar(correlation, cosine float64) bool {
	return correlation >= CorrelationThreshold || cosine >= CosineThreshold
}

// Compare z-scores both windows independently and measures how alike they are.
// Windows of different or zero length yield the zero Result.
func Compare(a, b model.Series) Result {
	if len(a) == 0 || len(a) != len(b) {
		return Result{}
	}
	za := calculator.ZScore(a)
	zb := calculator.ZScore(b)

	corr := calculator.Pearson(za, zb)
	cos := calculator.Cosine(za, zb)

	return Result{
		Correlation: calculator.Round(corr, 4),
		Cosine:      calculator.Round(cos, 4),
		IsSimilar:   IsSimilar(corr, cos),
	}
}

// PriorWindow returns the window of the given size that ends offset points
// before the end of the series. Near the start of the series the window is
// clipped and may come back shorter than requested.
func PriorWindow(series model.Series, window, offset int) model.Series {
	if window <= 0 || offset < 0 {
		return nil
	}
	end := len(series) - offset
	if end < 0 {
		end = 0
	}
	start := end - window
	if start < 0 {
		start = 0
	}
	return series[start:end].Clone()
}

// CurrentWindow returns the last window points of the series.
func CurrentWindow(series model.Series, window int) model.Series {
	return PriorWindow(series, window, 0)
}
